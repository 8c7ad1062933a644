package mppi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSamples     = 100
	DefaultHorizon     = 30
	DefaultLambda      = 1.0
	DefaultUBound      = 1.0
	DefaultVarDiscount = 0.95

	// nullActionCostThreshold is the total-cost level at which the
	// designated null-action sample (index K-1) is considered good enough
	// to stop: the command collapses to the zero action.
	nullActionCostThreshold = 0.01
)

// Config holds the planner parameters. All fields are immutable for the
// duration of a planning cycle; only UpdateParams may replace the noise
// distribution and temperature afterwards.
type Config struct {
	Samples int `yaml:"samples"` // K, number of sampled trajectories
	Horizon int `yaml:"horizon"` // T, planned steps per cycle
	NX      int `yaml:"nx"`      // state dimension

	NoiseMu    []float64   `yaml:"noise_mu"`    // perturbation mean (nu)
	NoiseSigma [][]float64 `yaml:"noise_sigma"` // perturbation covariance (nu x nu)
	Lambda     float64     `yaml:"lambda"`      // temperature, > 0

	UMin     []float64   `yaml:"u_min"`
	UMax     []float64   `yaml:"u_max"`
	UInit    []float64   `yaml:"u_init"`     // warm-start value for new horizon slots
	USeqInit [][]float64 `yaml:"u_seq_init"` // initial nominal sequence (T x nu)

	UScale      float64 `yaml:"u_scale"`
	UPerCommand int     `yaml:"u_per_command"`

	// Distributional dynamics: each control trajectory is rolled out M
	// times and the replicas' costs are averaged; their per-step variance
	// is penalized with RolloutVarCost, discounted along the horizon.
	RolloutSamples     int     `yaml:"rollout_samples"` // M >= 1
	RolloutVarCost     float64 `yaml:"rollout_var_cost"`
	RolloutVarDiscount float64 `yaml:"rollout_var_discount"`

	SampleNullAction bool `yaml:"sample_null_action"`
	NoiseAbsCost     bool `yaml:"noise_abs_cost"`
	FilterU          bool `yaml:"filter_u"`

	Seed int64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Samples:            DefaultSamples,
		Horizon:            DefaultHorizon,
		Lambda:             DefaultLambda,
		UScale:             1.0,
		UPerCommand:        1,
		RolloutSamples:     1,
		RolloutVarDiscount: DefaultVarDiscount,
	}
}

// NU reports the action dimension implied by the covariance.
func (c Config) NU() int {
	return len(c.NoiseSigma)
}

// withDefaults returns a deep copy with documented defaults filled in:
// identity covariance of dimension nx/2, zero noise mean, mirrored bounds,
// zero initial action and zero initial sequence.
func (c Config) withDefaults() (Config, error) {
	out := c
	if out.Samples <= 0 {
		out.Samples = DefaultSamples
	}
	if out.Horizon <= 0 {
		out.Horizon = DefaultHorizon
	}
	if out.Lambda == 0 {
		out.Lambda = DefaultLambda
	}
	if out.UScale == 0 {
		out.UScale = 1.0
	}
	if out.UPerCommand <= 0 {
		out.UPerCommand = 1
	}
	if out.RolloutSamples <= 0 {
		out.RolloutSamples = 1
	}
	if out.RolloutVarDiscount == 0 {
		out.RolloutVarDiscount = DefaultVarDiscount
	}

	if len(out.NoiseSigma) == 0 {
		if out.NX < 2 {
			return out, fmt.Errorf("%w: cannot derive default covariance without nx >= 2", ErrDimension)
		}
		nu := out.NX / 2
		out.NoiseSigma = make([][]float64, nu)
		for i := range out.NoiseSigma {
			out.NoiseSigma[i] = make([]float64, nu)
			out.NoiseSigma[i][i] = 1.0
		}
	} else {
		rows := make([][]float64, len(out.NoiseSigma))
		for i, r := range out.NoiseSigma {
			rows[i] = append([]float64(nil), r...)
		}
		out.NoiseSigma = rows
	}
	nu := len(out.NoiseSigma)

	if len(out.NoiseMu) == 0 {
		out.NoiseMu = make([]float64, nu)
	} else {
		out.NoiseMu = append([]float64(nil), out.NoiseMu...)
	}

	switch {
	case len(out.UMax) == 0 && len(out.UMin) == 0:
		out.UMin = fill(nu, -DefaultUBound)
		out.UMax = fill(nu, DefaultUBound)
	case len(out.UMax) == 0:
		out.UMin = broadcast(out.UMin, nu)
		out.UMax = negate(out.UMin)
	case len(out.UMin) == 0:
		out.UMax = broadcast(out.UMax, nu)
		out.UMin = negate(out.UMax)
	default:
		out.UMin = broadcast(out.UMin, nu)
		out.UMax = broadcast(out.UMax, nu)
	}

	if len(out.UInit) == 0 {
		out.UInit = make([]float64, nu)
	} else {
		out.UInit = broadcast(out.UInit, nu)
	}

	if len(out.USeqInit) == 0 {
		out.USeqInit = make([][]float64, out.Horizon)
		for t := range out.USeqInit {
			out.USeqInit[t] = append([]float64(nil), out.UInit...)
		}
	} else {
		rows := make([][]float64, len(out.USeqInit))
		for t, r := range out.USeqInit {
			rows[t] = append([]float64(nil), r...)
		}
		out.USeqInit = rows
	}

	return out, nil
}

// validate fails fast on malformed configuration, before any rollout.
func (c Config) validate() error {
	nu := len(c.NoiseSigma)
	if nu == 0 {
		return fmt.Errorf("%w: empty noise covariance", ErrCovariance)
	}
	for i, row := range c.NoiseSigma {
		if len(row) != nu {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrCovariance, i, len(row), nu)
		}
	}
	for i := 0; i < nu; i++ {
		for j := i + 1; j < nu; j++ {
			if math.Abs(c.NoiseSigma[i][j]-c.NoiseSigma[j][i]) > 1e-9 {
				return fmt.Errorf("%w: asymmetric at (%d,%d)", ErrCovariance, i, j)
			}
		}
	}
	if len(c.NoiseMu) != nu {
		return fmt.Errorf("%w: noise_mu has %d entries, want %d", ErrDimension, len(c.NoiseMu), nu)
	}
	if !(c.Lambda > 0) {
		return fmt.Errorf("%w: lambda must be positive, got %v", ErrDimension, c.Lambda)
	}
	if len(c.UMin) != nu || len(c.UMax) != nu {
		return fmt.Errorf("%w: bounds must have %d entries", ErrDimension, nu)
	}
	for i := 0; i < nu; i++ {
		if !(c.UMin[i] < 0) || !(c.UMax[i] > 0) {
			return fmt.Errorf("%w: component %d has [%v, %v]", ErrBounds, i, c.UMin[i], c.UMax[i])
		}
	}
	if len(c.UInit) != nu {
		return fmt.Errorf("%w: u_init has %d entries, want %d", ErrDimension, len(c.UInit), nu)
	}
	if len(c.USeqInit) != c.Horizon {
		return fmt.Errorf("%w: u_seq_init has %d rows, want horizon %d", ErrDimension, len(c.USeqInit), c.Horizon)
	}
	for t, row := range c.USeqInit {
		if len(row) != nu {
			return fmt.Errorf("%w: u_seq_init row %d has %d entries, want %d", ErrDimension, t, len(row), nu)
		}
	}
	if c.UPerCommand > c.Horizon {
		return fmt.Errorf("%w: u_per_command %d exceeds horizon %d", ErrDimension, c.UPerCommand, c.Horizon)
	}
	if c.NX <= 0 {
		return fmt.Errorf("%w: nx must be positive", ErrDimension)
	}
	return nil
}

// sigmaSym packs the covariance into gonum's symmetric storage.
func (c Config) sigmaSym() *mat.SymDense {
	nu := len(c.NoiseSigma)
	s := mat.NewSymDense(nu, nil)
	for i := 0; i < nu; i++ {
		for j := i; j < nu; j++ {
			s.SetSym(i, j, c.NoiseSigma[i][j])
		}
	}
	return s
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = -v[i]
	}
	return out
}

// broadcast expands a scalar-valued slice to n entries; longer slices are
// copied as-is and left for validate to reject when inconsistent.
func broadcast(v []float64, n int) []float64 {
	if len(v) == 1 && n > 1 {
		return fill(n, v[0])
	}
	return append([]float64(nil), v...)
}
