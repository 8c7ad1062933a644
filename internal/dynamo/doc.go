// Package dynamo defines the shared vocabulary of the repository: state and
// control vectors, the System interface for continuous-time dynamics, the
// Integrator contract used to discretize them, and the Objective interfaces
// the planner scores rollouts with.
package dynamo
