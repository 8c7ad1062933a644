package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

func (c Control) Clone() Control {
	out := make(Control, len(c))
	copy(out, c)
	return out
}

func (c Control) IsZero() bool {
	for _, v := range c {
		if v != 0 {
			return false
		}
	}
	return true
}

// System is a continuous-time dynamical system x' = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Hamiltonian is implemented by systems with a conserved energy.
type Hamiltonian interface {
	Energy(x State) float64
}

// Actuated is implemented by systems whose actuators saturate. Commands
// outside the limits are clamped by the plant, not rejected.
type Actuated interface {
	ActuatorLimits() (min, max []float64)
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Objective scores a single state; lower is better.
type Objective interface {
	RunningCost(x State) float64
}

// TerminalObjective adds a cost on the final state of a rollout.
type TerminalObjective interface {
	TerminalCost(x State, u Control) float64
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
