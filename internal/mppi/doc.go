// Package mppi implements Model Predictive Path Integral control, following
// algorithm 2 in Williams et al., 2017, "Information Theoretic MPC for
// Model-Based Reinforcement Learning".
//
// Each planning cycle shifts the nominal control sequence, samples a batch
// of Gaussian perturbations, rolls every perturbed sequence out through an
// external dynamics and cost provider, converts the per-sample costs into
// importance weights with a numerically stable softmin, and corrects the
// nominal sequence with the weighted noise barycenter.
package mppi
