// Package physics provides the actuated plant models the planner controls.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the system's evolution:
//
//   - [Pendulum]: torque-limited pendulum, the swing-up benchmark
//   - [CartPole]: force-actuated cart with a balancing pole
//   - [PointMass]: planar omnidirectional robot with velocity damping
//
// Models also implement [dynamo.Actuated] to expose their control bounds,
// [dynamo.Configurable] for runtime parameter adjustment, and where it
// applies [dynamo.Hamiltonian] for energy calculation:
//
//	dyn := physics.NewPendulum()
//	if h, ok := dyn.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package physics
