package integrators

import (
	"math"
	"testing"

	"github.com/pathintegral/mppi/internal/dynamo"
)

// decay is x' = -x, solved exactly by x(t) = x(0) * exp(-t).
type decay struct{}

func (decay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (decay) StateDim() int   { return 1 }
func (decay) ControlDim() int { return 0 }

// spring is the undamped unit oscillator. Its Derive reuses one buffer
// across calls, which catches integrators that hold slope slices past the
// next Derive call.
type spring struct {
	buf dynamo.State
}

func (s *spring) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	if len(s.buf) != 2 {
		s.buf = make(dynamo.State, 2)
	}
	s.buf[0] = x[1]
	s.buf[1] = -x[0]
	return s.buf
}

func (s *spring) StateDim() int   { return 2 }
func (s *spring) ControlDim() int { return 0 }

func integrate(integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, dt float64, steps int) dynamo.State {
	u := dynamo.Control{}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}
	return x
}

func TestRK4MatchesExactSolution(t *testing.T) {
	x := integrate(NewRK4(), decay{}, dynamo.State{1.0}, 0.05, 20)
	want := math.Exp(-1.0)
	if math.Abs(x[0]-want) > 1e-7 {
		t.Errorf("x(1) = %.10f, want %.10f", x[0], want)
	}
}

func TestRK4FourthOrderConvergence(t *testing.T) {
	final := func(dt float64, steps int) float64 {
		return integrate(NewRK4(), decay{}, dynamo.State{1.0}, dt, steps)[0]
	}
	want := math.Exp(-1.0)
	coarse := math.Abs(final(0.1, 10) - want)
	fine := math.Abs(final(0.05, 20) - want)

	// Halving dt should shrink the error by roughly 2^4.
	if ratio := coarse / fine; ratio < 12 {
		t.Errorf("error ratio %.2f, want about 16 for a fourth-order scheme", ratio)
	}
}

func TestRK4HandlesBufferReusingSystem(t *testing.T) {
	x := integrate(NewRK4(), &spring{}, dynamo.State{1.0, 0.0}, 0.01, 100)

	if math.Abs(x[0]-math.Cos(1.0)) > 1e-6 {
		t.Errorf("position = %.8f, want %.8f", x[0], math.Cos(1.0))
	}
	if math.Abs(x[1]+math.Sin(1.0)) > 1e-6 {
		t.Errorf("velocity = %.8f, want %.8f", x[1], -math.Sin(1.0))
	}
}

func TestEulerFirstOrderConvergence(t *testing.T) {
	final := func(dt float64, steps int) float64 {
		return integrate(NewEuler(), decay{}, dynamo.State{1.0}, dt, steps)[0]
	}
	want := math.Exp(-1.0)
	coarse := math.Abs(final(0.01, 100) - want)
	fine := math.Abs(final(0.005, 200) - want)

	if ratio := coarse / fine; ratio < 1.8 || ratio > 2.2 {
		t.Errorf("error ratio %.2f, want about 2 for a first-order scheme", ratio)
	}
}
