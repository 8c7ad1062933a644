package mppi

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newTestProvider() Provider {
	return &fakeProvider{dynamics: identityDynamics, cost: constantCost(1.0)}
}

func TestDefaultCovarianceFromStateDim(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NX = 6

	full, err := cfg.withDefaults()
	if err != nil {
		t.Fatalf("withDefaults failed: %v", err)
	}
	if full.NU() != 3 {
		t.Fatalf("nu = %d, want nx/2 = 3", full.NU())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if full.NoiseSigma[i][j] != want {
				t.Errorf("sigma[%d][%d] = %v, want %v", i, j, full.NoiseSigma[i][j], want)
			}
		}
	}
	for _, v := range full.NoiseMu {
		if v != 0 {
			t.Errorf("default noise mean should be zero, got %v", full.NoiseMu)
		}
	}
	if len(full.USeqInit) != full.Horizon {
		t.Errorf("default sequence has %d rows, want %d", len(full.USeqInit), full.Horizon)
	}
}

func TestMirroredBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NX = 2
	cfg.NoiseSigma = identitySigma(2)
	cfg.UMax = []float64{2.0}

	full, err := cfg.withDefaults()
	if err != nil {
		t.Fatalf("withDefaults failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if full.UMax[i] != 2.0 || full.UMin[i] != -2.0 {
			t.Errorf("bounds[%d] = [%v, %v], want mirrored [-2, 2]", i, full.UMin[i], full.UMax[i])
		}
	}
}

func TestConstructionFailsFast(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Samples = 4
		cfg.Horizon = 3
		cfg.NX = 2
		cfg.NoiseSigma = identitySigma(1)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{
			name:   "asymmetric covariance",
			mutate: func(c *Config) { c.NoiseSigma = [][]float64{{1, 0.5}, {0.1, 1}} },
			want:   ErrCovariance,
		},
		{
			name:   "ragged covariance",
			mutate: func(c *Config) { c.NoiseSigma = [][]float64{{1, 0}, {0}} },
			want:   ErrCovariance,
		},
		{
			name:   "indefinite covariance",
			mutate: func(c *Config) { c.NoiseSigma = [][]float64{{1, 2}, {2, 1}} },
			want:   ErrCovariance,
		},
		{
			name:   "non-negative u_max",
			mutate: func(c *Config) { c.UMin = []float64{-1}; c.UMax = []float64{0} },
			want:   ErrBounds,
		},
		{
			name:   "non-negative u_min",
			mutate: func(c *Config) { c.UMin = []float64{0.5}; c.UMax = []float64{1} },
			want:   ErrBounds,
		},
		{
			name:   "negative lambda",
			mutate: func(c *Config) { c.Lambda = -1 },
			want:   ErrDimension,
		},
		{
			name:   "mismatched noise mean",
			mutate: func(c *Config) { c.NoiseMu = []float64{0, 0, 0} },
			want:   ErrDimension,
		},
		{
			name:   "short initial sequence",
			mutate: func(c *Config) { c.USeqInit = [][]float64{{0}} },
			want:   ErrDimension,
		},
		{
			name:   "u_per_command beyond horizon",
			mutate: func(c *Config) { c.UPerCommand = 10 },
			want:   ErrDimension,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			_, err := New(cfg, newTestProvider())
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestScalarActionCase(t *testing.T) {
	// nu=1 degenerates the multivariate draw to a scalar variance.
	cfg := DefaultConfig()
	cfg.Samples = 10
	cfg.Horizon = 4
	cfg.NX = 2
	cfg.NoiseSigma = [][]float64{{0.25}}
	cfg.Seed = 21

	ctrl, err := New(cfg, newTestProvider())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	actions, err := ctrl.Command([]float64{0, 0})
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if len(actions[0]) != 1 {
		t.Errorf("scalar action has %d entries", len(actions[0]))
	}
}

func TestSigmaSymRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NX = 4
	cfg.NoiseSigma = [][]float64{{2, 0.3}, {0.3, 1}}
	full, err := cfg.withDefaults()
	if err != nil {
		t.Fatalf("withDefaults failed: %v", err)
	}

	s := full.sigmaSym()
	want := mat.NewSymDense(2, []float64{2, 0.3, 0.3, 1})
	if !mat.Equal(s, want) {
		t.Errorf("sigmaSym mismatch:\n%v\nwant\n%v", mat.Formatted(s), mat.Formatted(want))
	}
}
