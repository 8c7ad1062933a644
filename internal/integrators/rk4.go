package integrators

import "github.com/pathintegral/mppi/internal/dynamo"

// RK4 integrates x' = f(x, u, t) with the classic fourth-order Runge-Kutta
// scheme. Each slope is folded into a weighted accumulator as soon as it is
// evaluated, so systems that reuse their Derive buffer are safe and no
// per-stage copies are kept. Instances hold scratch buffers between steps
// and must not be shared across goroutines; sim.World hands each rollout
// worker its own instance through the integrator factory.
type RK4 struct {
	acc   dynamo.State // running sum of weighted slopes
	stage dynamo.State // intermediate evaluation point
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.acc) != n {
		r.acc = make(dynamo.State, n)
		r.stage = make(dynamo.State, n)
	}

	k := dyn.Derive(x, u, t)
	for i := 0; i < n; i++ {
		r.acc[i] = k[i]
		r.stage[i] = x[i] + dt*0.5*k[i]
	}

	k = dyn.Derive(r.stage, u, t+dt*0.5)
	for i := 0; i < n; i++ {
		r.acc[i] += 2 * k[i]
		r.stage[i] = x[i] + dt*0.5*k[i]
	}

	k = dyn.Derive(r.stage, u, t+dt*0.5)
	for i := 0; i < n; i++ {
		r.acc[i] += 2 * k[i]
		r.stage[i] = x[i] + dt*k[i]
	}

	k = dyn.Derive(r.stage, u, t+dt)
	next := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt/6.0*(r.acc[i]+k[i])
	}
	return next
}
