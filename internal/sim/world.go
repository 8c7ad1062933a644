package sim

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/pathintegral/mppi/internal/dynamo"
	"github.com/pathintegral/mppi/internal/mppi"
)

// World adapts a continuous-time System, an Integrator and an Objective
// into the planner's dynamics-and-cost collaborator. Batches are stepped
// row-by-row; rows are independent, so the batch is split across workers,
// each with its own integrator (fixed-step integrators keep scratch
// buffers and are not safe to share).
type World struct {
	sys      dynamo.System
	obj      dynamo.Objective
	newInteg func() dynamo.Integrator
	dt       float64
	workers  int

	uMin, uMax []float64 // actuator limits, nil when the system has none

	plant dynamo.Integrator // dedicated instance for single-row stepping
}

func NewWorld(sys dynamo.System, obj dynamo.Objective, newInteg func() dynamo.Integrator, dt float64) *World {
	w := &World{
		sys:      sys,
		obj:      obj,
		newInteg: newInteg,
		dt:       dt,
		workers:  runtime.GOMAXPROCS(0),
		plant:    newInteg(),
	}
	if a, ok := sys.(dynamo.Actuated); ok {
		w.uMin, w.uMax = a.ActuatorLimits()
	}
	return w
}

// Dynamics advances every row of the state batch by one step. Commanded
// actions outside the actuator limits are clamped; the clamped values are
// returned as the effective actions.
func (w *World) Dynamics(state, action *mat.Dense, step int) (*mat.Dense, *mat.Dense, error) {
	rows, nx := state.Dims()
	if nx != w.sys.StateDim() {
		return nil, nil, fmt.Errorf("%w: batch has %d state columns, system wants %d", dynamo.ErrDimensionMismatch, nx, w.sys.StateDim())
	}
	arows, nu := action.Dims()
	if arows != rows || nu != w.sys.ControlDim() {
		return nil, nil, fmt.Errorf("%w: action batch is %dx%d, want %dx%d", dynamo.ErrDimensionMismatch, arows, nu, rows, w.sys.ControlDim())
	}

	eff := mat.DenseCopyOf(action)
	if w.uMin != nil {
		for r := 0; r < rows; r++ {
			row := eff.RawRowView(r)
			for i := range row {
				if row[i] < w.uMin[i] {
					row[i] = w.uMin[i]
				} else if row[i] > w.uMax[i] {
					row[i] = w.uMax[i]
				}
			}
		}
	}

	next := mat.NewDense(rows, nx, nil)
	t := float64(step) * w.dt

	workers := w.workers
	if workers > rows {
		workers = rows
	}
	errs := make([]error, workers)
	var wg sync.WaitGroup
	chunk := (rows + workers - 1) / workers
	for wi := 0; wi < workers; wi++ {
		lo := wi * chunk
		hi := lo + chunk
		if hi > rows {
			hi = rows
		}
		wg.Add(1)
		go func(wi, lo, hi int) {
			defer wg.Done()
			integ := w.newInteg()
			for r := lo; r < hi; r++ {
				x := dynamo.State(state.RawRowView(r))
				u := dynamo.Control(eff.RawRowView(r))
				nx := integ.Step(w.sys, x, u, t, w.dt)
				if !nx.IsValid() {
					errs[wi] = &dynamo.StepError{Step: step, Sample: r, Wrapped: dynamo.ErrInvalidState}
					return
				}
				next.SetRow(r, nx)
			}
		}(wi, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}
	return next, eff, nil
}

// RunningCost scores each row of the state batch with the objective.
func (w *World) RunningCost(state *mat.Dense) ([]float64, error) {
	rows, _ := state.Dims()
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = w.obj.RunningCost(dynamo.State(state.RawRowView(r)))
	}
	return out, nil
}

// TerminalCost scores the final state and action of each sample's first
// replica. Objectives without a terminal term contribute zero.
func (w *World) TerminalCost(states, actions *mppi.Tensor) ([]float64, error) {
	term, ok := w.obj.(dynamo.TerminalObjective)
	out := make([]float64, actions.K)
	if !ok {
		return out, nil
	}
	last := states.T - 1
	for k := 0; k < actions.K; k++ {
		x := dynamo.State(states.Vec(k, last))
		u := dynamo.Control(actions.Vec(k, last))
		out[k] = term.TerminalCost(x, u)
	}
	return out, nil
}

// Step advances the real plant by one step, clamping the command the same
// way the rollout batches are clamped.
func (w *World) Step(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, dynamo.Control, error) {
	eff := u.Clone()
	if w.uMin != nil {
		for i := range eff {
			if eff[i] < w.uMin[i] {
				eff[i] = w.uMin[i]
			} else if eff[i] > w.uMax[i] {
				eff[i] = w.uMax[i]
			}
		}
	}
	next := w.plant.Step(w.sys, x, eff, t, w.dt)
	if !next.IsValid() {
		return nil, nil, fmt.Errorf("sim: plant step at t=%.4f: %w", t, dynamo.ErrInvalidState)
	}
	return next, eff, nil
}

func (w *World) Dt() float64           { return w.dt }
func (w *World) System() dynamo.System { return w.sys }

// Cost evaluates the objective on a single state, for metrics and display.
func (w *World) Cost(x dynamo.State) float64 {
	return w.obj.RunningCost(x)
}
