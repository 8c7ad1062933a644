package mppi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Provider is the external dynamics-and-cost collaborator. The planner
// never inspects state structure: it forwards batches (one row per sample
// replica) and consumes the costs that come back. Dynamics may clamp or
// otherwise modify the commanded action; the returned effective action is
// what the planner records and regularizes against.
type Provider interface {
	Dynamics(state, action *mat.Dense, step int) (next, effective *mat.Dense, err error)
	RunningCost(state *mat.Dense) ([]float64, error)
}

// TerminalCoster is optionally implemented by providers that score the
// full stacked rollout once after the horizon.
type TerminalCoster interface {
	TerminalCost(states, actions *Tensor) ([]float64, error)
}

// rolloutEngine evaluates a batch of perturbed control sequences. Samples
// are structurally independent; the only ordering constraint is the horizon
// loop, where step t+1 consumes step t's states.
type rolloutEngine struct {
	cfg      Config
	nu, nx   int
	provider Provider
	terminal TerminalCoster
}

type rolloutResult struct {
	costTotal []float64 // K
	states    *Tensor   // (M*K) x T x nx, replica-major rows
	actions   *Tensor   // K x T x nu, effective actions in nominal units
}

// run rolls out every perturbed sequence. state has either one row
// (replicated across samples) or K rows (a sampled distribution of start
// states). perturbed is mutated: the actions actually applied by the
// dynamics collaborator are written back so the noise used for the
// regularization cost reflects what was executed.
func (r *rolloutEngine) run(state *mat.Dense, perturbed *Tensor) (*rolloutResult, error) {
	k := perturbed.K
	horizon := perturbed.T
	m := r.cfg.RolloutSamples
	batch := m * k

	rows, cols := state.Dims()
	if cols != r.nx {
		return nil, fmt.Errorf("%w: state has %d columns, want nx %d", ErrDimension, cols, r.nx)
	}
	if rows != 1 && rows != k {
		return nil, fmt.Errorf("%w: state has %d rows, want 1 or %d", ErrDimension, rows, k)
	}

	// Expand the K initial states to M replicas each.
	cur := mat.NewDense(batch, r.nx, nil)
	for mi := 0; mi < m; mi++ {
		for ki := 0; ki < k; ki++ {
			src := 0
			if rows == k {
				src = ki
			}
			cur.SetRow(mi*k+ki, state.RawRowView(src))
		}
	}

	act := mat.NewDense(batch, r.nu, nil)
	costSamples := make([]float64, batch)
	costVar := make([]float64, k)
	states := NewTensor(batch, horizon, r.nx)
	actions := NewTensor(k, horizon, r.nu)

	discount := 1.0
	for t := 0; t < horizon; t++ {
		for mi := 0; mi < m; mi++ {
			for ki := 0; ki < k; ki++ {
				u := perturbed.Vec(ki, t)
				row := mi*k + ki
				for i := 0; i < r.nu; i++ {
					act.Set(row, i, r.cfg.UScale*u[i])
				}
			}
		}

		next, eff, err := r.provider.Dynamics(cur, act, t)
		if err != nil {
			return nil, fmt.Errorf("mppi: dynamics at step %d: %w", t, err)
		}
		if nr, _ := next.Dims(); nr != batch {
			return nil, fmt.Errorf("%w: dynamics returned %d rows, want %d", ErrDimension, nr, batch)
		}

		c, err := r.provider.RunningCost(next)
		if err != nil {
			return nil, fmt.Errorf("mppi: running cost at step %d: %w", t, err)
		}
		if len(c) != batch {
			return nil, fmt.Errorf("%w: running cost returned %d entries, want %d", ErrDimension, len(c), batch)
		}

		cur = next
		for row := 0; row < batch; row++ {
			costSamples[row] += c[row]
			copy(states.Vec(row, t), cur.RawRowView(row))
		}

		// Record what was executed (first replica), back in nominal units.
		for ki := 0; ki < k; ki++ {
			dst := perturbed.Vec(ki, t)
			rec := actions.Vec(ki, t)
			for i := 0; i < r.nu; i++ {
				v := eff.At(ki, i) / r.cfg.UScale
				dst[i] = v
				rec[i] = v
			}
		}

		if m > 1 {
			for ki := 0; ki < k; ki++ {
				costVar[ki] += replicaVariance(c, m, k, ki) * discount
			}
		}
		discount *= r.cfg.RolloutVarDiscount
	}

	costTotal := make([]float64, k)
	for ki := 0; ki < k; ki++ {
		sum := 0.0
		for mi := 0; mi < m; mi++ {
			sum += costSamples[mi*k+ki]
		}
		costTotal[ki] = sum / float64(m)
	}

	if r.terminal != nil {
		ct, err := r.terminal.TerminalCost(states, actions)
		if err != nil {
			return nil, fmt.Errorf("mppi: terminal cost: %w", err)
		}
		if len(ct) != k {
			return nil, fmt.Errorf("%w: terminal cost returned %d entries, want %d", ErrDimension, len(ct), k)
		}
		for ki := range costTotal {
			costTotal[ki] += ct[ki]
		}
	}

	for ki := range costTotal {
		costTotal[ki] += r.cfg.RolloutVarCost * costVar[ki]
	}

	return &rolloutResult{costTotal: costTotal, states: states, actions: actions}, nil
}

// replicaVariance is the unbiased variance of sample ki's cost across the
// M rollout replicas.
func replicaVariance(c []float64, m, k, ki int) float64 {
	mean := 0.0
	for mi := 0; mi < m; mi++ {
		mean += c[mi*k+ki]
	}
	mean /= float64(m)

	ss := 0.0
	for mi := 0; mi < m; mi++ {
		d := c[mi*k+ki] - mean
		ss += d * d
	}
	return ss / float64(m-1)
}
