package experiment

import (
	"context"
	"math"

	"github.com/pathintegral/mppi/internal/dynamo"
	"github.com/pathintegral/mppi/internal/mppi"
	"github.com/pathintegral/mppi/internal/sim"
)

// Episode runs a receding-horizon control loop: every cycle the planner
// replans from the current plant state and the first commanded actions are
// executed on the plant.
type Episode struct {
	planner   *mppi.Controller
	world     *sim.World
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

type Result struct {
	States     []dynamo.State
	Controls   []dynamo.Control
	Times      []float64
	Metrics    map[string]float64
	MinCosts   []float64 // best sampled cost per planning cycle
	MeanCosts  []float64
	StepsTaken int
}

func New(planner *mppi.Controller, world *sim.World) *Episode {
	return &Episode{planner: planner, world: world}
}

func (e *Episode) AddMetric(m dynamo.Metric)     { e.metrics = append(e.metrics, m) }
func (e *Episode) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

// Run executes cycles planning cycles from x0 and returns the recorded
// trajectory. A canceled context returns the partial result alongside the
// context error.
func (e *Episode) Run(ctx context.Context, x0 dynamo.State, cycles int) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}

	dt := e.world.Dt()
	result := &Result{
		States:  []dynamo.State{x0.Clone()},
		Times:   []float64{0},
		Metrics: make(map[string]float64),
	}

	x := x0.Clone()
	t := 0.0

	for i := 0; i < cycles; i++ {
		select {
		case <-ctx.Done():
			e.collect(result)
			return result, ctx.Err()
		default:
		}

		actions, err := e.planner.Command(x)
		if err != nil {
			return nil, err
		}
		result.MinCosts = append(result.MinCosts, minOf(e.planner.Costs()))
		result.MeanCosts = append(result.MeanCosts, meanOf(e.planner.Costs()))

		for _, a := range actions {
			for _, m := range e.metrics {
				m.Observe(x, a, t)
			}
			for _, obs := range e.observers {
				obs.OnStep(x, a, t)
			}

			next, eff, err := e.world.Step(x, a, t)
			if err != nil {
				return nil, err
			}
			x = next
			t += dt
			result.StepsTaken++

			result.States = append(result.States, x.Clone())
			result.Controls = append(result.Controls, eff)
			result.Times = append(result.Times, t)
		}
	}

	e.collect(result)
	return result, nil
}

func (e *Episode) collect(result *Result) {
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func minOf(v []float64) float64 {
	out := math.Inf(1)
	for _, x := range v {
		if x < out {
			out = x
		}
	}
	return out
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
