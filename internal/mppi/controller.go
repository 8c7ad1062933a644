package mppi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// Controller wires the noise source, the rollout engine, the weight
// computation and the control-sequence manager into the command/reset
// cycle. Command and UpdateParams must not be interleaved by callers;
// a cycle always runs to completion.
type Controller struct {
	cfg    Config
	nu, nx int

	provider Provider
	engine   *rolloutEngine
	noise    *noiseSource
	seq      *sequence

	sigmaInv *mat.Dense

	// Most recent cycle, retained for diagnostics and visualization.
	lastNoise       *Tensor
	lastPerturbed   *Tensor
	lastStates      *Tensor
	lastActions     *Tensor
	lastCost        []float64
	lastCostNonZero []float64
	lastOmega       []float64
}

// New validates the configuration, precomputes the covariance inverse and
// the sampling distribution, and initializes the nominal sequence. The
// provider's TerminalCoster implementation is picked up when present.
func New(cfg Config, provider Provider) (*Controller, error) {
	full, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := full.validate(); err != nil {
		return nil, err
	}

	noise, sigmaInv, err := buildCaches(full)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      full,
		nu:       full.NU(),
		nx:       full.NX,
		provider: provider,
		noise:    noise,
		sigmaInv: sigmaInv,
		seq:      newSequence(full),
	}
	c.engine = &rolloutEngine{cfg: full, nu: c.nu, nx: c.nx, provider: provider}
	if tc, ok := provider.(TerminalCoster); ok {
		c.engine.terminal = tc
	}
	return c, nil
}

func buildCaches(cfg Config) (*noiseSource, *mat.Dense, error) {
	sigma := cfg.sigmaSym()
	noise, err := newNoiseSource(cfg.NoiseMu, sigma, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	sigmaInv := &mat.Dense{}
	if err := sigmaInv.Inverse(sigma); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCovariance, err)
	}
	return noise, sigmaInv, nil
}

// Command plans from a single state and returns the first UPerCommand
// actions of the updated nominal sequence.
func (c *Controller) Command(state dynamo.State) ([]dynamo.Control, error) {
	if len(state) != c.nx {
		return nil, fmt.Errorf("%w: state has %d entries, want nx %d", ErrDimension, len(state), c.nx)
	}
	m := mat.NewDense(1, c.nx, append([]float64(nil), state...))
	return c.command(m)
}

// CommandBatch plans from a distribution of start states, one row per
// sample (K x nx).
func (c *Controller) CommandBatch(states *mat.Dense) ([]dynamo.Control, error) {
	return c.command(states)
}

func (c *Controller) command(state *mat.Dense) ([]dynamo.Control, error) {
	k := c.cfg.Samples
	horizon := c.cfg.Horizon

	c.seq.shift()

	noise := c.noise.Sample(k, horizon)

	// Perturb the nominal sequence and naively bound it.
	perturbed := NewTensor(k, horizon, c.nu)
	for ki := 0; ki < k; ki++ {
		for t := 0; t < horizon; t++ {
			dst := perturbed.Vec(ki, t)
			eps := noise.Vec(ki, t)
			for i := 0; i < c.nu; i++ {
				dst[i] = c.seq.u[t][i] + eps[i]
			}
			clipVec(dst, c.cfg.UMin, c.cfg.UMax)
		}
	}

	// The last sample is a guaranteed braking trajectory. Index K-1 is the
	// designated null-action sample by convention; the stop check below
	// relies on the same index.
	if c.cfg.SampleNullAction {
		for t := 0; t < horizon; t++ {
			dst := perturbed.Vec(k-1, t)
			for i := range dst {
				dst[i] = 0
			}
		}
	}

	res, err := c.engine.run(state, perturbed)
	if err != nil {
		return nil, err
	}

	// Re-derive the noise from the bounded, executed actions so clipped
	// and clamped components are not penalized as exploration.
	for ki := 0; ki < k; ki++ {
		for t := 0; t < horizon; t++ {
			p := perturbed.Vec(ki, t)
			eps := noise.Vec(ki, t)
			for i := 0; i < c.nu; i++ {
				eps[i] = p[i] - c.seq.u[t][i]
			}
		}
	}

	cost := res.costTotal
	reg := perturbationCost(c.seq.u, noise, c.sigmaInv, c.cfg.Lambda, c.cfg.NoiseAbsCost)
	for ki := range cost {
		cost[ki] += reg[ki]
	}

	omega, nonZero, err := softminWeights(cost, c.cfg.Lambda)
	if err != nil {
		return nil, err
	}

	c.seq.applyCorrection(omega, noise)
	c.seq.clip()
	if c.cfg.FilterU {
		if err := c.seq.smooth(); err != nil {
			return nil, err
		}
	}

	c.lastNoise = noise
	c.lastPerturbed = perturbed
	c.lastStates = res.states
	c.lastActions = res.actions
	c.lastCost = cost
	c.lastCostNonZero = nonZero
	c.lastOmega = omega

	// Explicit stop: the braking sample is already nearly free.
	if c.cfg.SampleNullAction && cost[k-1] <= nullActionCostThreshold {
		return c.seq.zeroCommands(), nil
	}
	return c.seq.commands(), nil
}

// Reset discards the nominal sequence between independent trials,
// replacing it with a fresh draw from the noise distribution.
func (c *Controller) Reset() {
	c.seq.resetFrom(c.noise.SampleSequence(c.cfg.Horizon))
}

// ParamUpdate carries the parameters that may be swapped between cycles.
// Nil slices and zero Lambda/Seed keep the current values.
type ParamUpdate struct {
	NoiseSigma [][]float64
	NoiseMu    []float64
	UMin       []float64
	UMax       []float64
	Lambda     float64
	Seed       int64
}

// UpdateParams applies a configuration swap and rebuilds the derived
// caches (covariance inverse, sampling distribution) without discarding
// the nominal sequence. The action dimension cannot change, since the
// sequence persists across the swap.
func (c *Controller) UpdateParams(p ParamUpdate) error {
	next := c.cfg
	if p.NoiseSigma != nil {
		next.NoiseSigma = p.NoiseSigma
	}
	if p.NoiseMu != nil {
		next.NoiseMu = p.NoiseMu
	}
	if p.UMin != nil {
		next.UMin = p.UMin
	}
	if p.UMax != nil {
		next.UMax = p.UMax
	}
	if p.Lambda != 0 {
		next.Lambda = p.Lambda
	}
	if p.Seed != 0 {
		next.Seed = p.Seed
	}

	full, err := next.withDefaults()
	if err != nil {
		return err
	}
	if full.NU() != c.nu {
		return fmt.Errorf("%w: action dimension cannot change from %d to %d", ErrDimension, c.nu, full.NU())
	}
	if err := full.validate(); err != nil {
		return err
	}

	noise, sigmaInv, err := buildCaches(full)
	if err != nil {
		return err
	}

	c.cfg = full
	c.noise = noise
	c.sigmaInv = sigmaInv
	c.engine.cfg = full
	c.seq.uMin = full.UMin
	c.seq.uMax = full.UMax
	return nil
}

// GetRollouts forward-simulates the current nominal sequence from state n
// times and returns the visited states (n x T x nx). With deterministic
// dynamics the trajectories coincide; with distributional dynamics they
// sample the spread.
func (c *Controller) GetRollouts(state dynamo.State, n int) (*Tensor, error) {
	if n < 1 {
		n = 1
	}
	if len(state) != c.nx {
		return nil, fmt.Errorf("%w: state has %d entries, want nx %d", ErrDimension, len(state), c.nx)
	}

	cur := mat.NewDense(n, c.nx, nil)
	for r := 0; r < n; r++ {
		cur.SetRow(r, state)
	}
	act := mat.NewDense(n, c.nu, nil)

	out := NewTensor(n, c.cfg.Horizon, c.nx)
	for t := 0; t < c.cfg.Horizon; t++ {
		for r := 0; r < n; r++ {
			for i := 0; i < c.nu; i++ {
				act.Set(r, i, c.cfg.UScale*c.seq.u[t][i])
			}
		}
		next, _, err := c.provider.Dynamics(cur, act, t)
		if err != nil {
			return nil, fmt.Errorf("mppi: rollout replay at step %d: %w", t, err)
		}
		cur = next
		for r := 0; r < n; r++ {
			copy(out.Vec(r, t), cur.RawRowView(r))
		}
	}
	return out, nil
}

// Config returns a copy of the active configuration.
func (c *Controller) Config() Config { return c.cfg }

// NominalSequence returns a copy of the current control trajectory.
func (c *Controller) NominalSequence() [][]float64 { return c.seq.snapshot() }

// Rollouts exposes the most recent cycle's stacked per-step states and
// effective actions.
func (c *Controller) Rollouts() (states, actions *Tensor) {
	return c.lastStates, c.lastActions
}

// Weights returns the most recent cycle's importance weights.
func (c *Controller) Weights() []float64 {
	return append([]float64(nil), c.lastOmega...)
}

// Costs returns the most recent cycle's regularized per-sample costs.
func (c *Controller) Costs() []float64 {
	return append([]float64(nil), c.lastCost...)
}

// CostsNonZero returns the most recent cycle's unnormalized softmin terms
// exp(-(c - beta)/lambda). The minimum-cost sample's entry is exactly 1.
func (c *Controller) CostsNonZero() []float64 {
	return append([]float64(nil), c.lastCostNonZero...)
}

// SampledNoise returns the most recent cycle's bounded noise batch.
func (c *Controller) SampledNoise() *Tensor { return c.lastNoise }

// PerturbedActions returns the most recent cycle's perturbed actions after
// bounding and actuator feedback.
func (c *Controller) PerturbedActions() *Tensor { return c.lastPerturbed }
