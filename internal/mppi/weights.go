package mppi

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// softminWeights converts raw per-sample costs into importance weights.
// Subtracting the batch minimum before exponentiation makes the transform
// shift-invariant and numerically stable regardless of cost magnitude:
//
//	beta  = min(cost)
//	w_k   = exp(-(cost_k - beta) / lambda)
//	omega = w / sum(w)
//
// A normalizer that is zero or non-finite means no valid probability
// distribution over samples exists (all costs NaN/Inf), which is a fatal
// planning failure.
func softminWeights(cost []float64, lambda float64) (omega, nonZero []float64, err error) {
	beta := math.Inf(1)
	for _, c := range cost {
		if c < beta {
			beta = c
		}
	}

	nonZero = make([]float64, len(cost))
	eta := 0.0
	for k, c := range cost {
		nonZero[k] = math.Exp(-(c - beta) / lambda)
		eta += nonZero[k]
	}
	if eta == 0 || math.IsNaN(eta) || math.IsInf(eta, 0) {
		return nil, nil, ErrCostDistribution
	}

	omega = make([]float64, len(cost))
	for k := range cost {
		omega[k] = nonZero[k] / eta
	}
	return omega, nonZero, nil
}

// perturbationCost is the action-regularization term added to each sample's
// cost before the softmin: lambda * sum_t noise[k,t]^T Sigma^-1 U[t]. With
// abs set, the noise enters by absolute value, which removes the bias
// toward low-noise samples when every rollout scores the same.
func perturbationCost(u [][]float64, noise *Tensor, sigmaInv *mat.Dense, lambda float64, abs bool) []float64 {
	nu := noise.N
	out := make([]float64, noise.K)
	scratch := make([]float64, nu)

	for k := 0; k < noise.K; k++ {
		total := 0.0
		for t := 0; t < noise.T; t++ {
			eps := noise.Vec(k, t)
			for i := 0; i < nu; i++ {
				s := 0.0
				for j := 0; j < nu; j++ {
					e := eps[j]
					if abs {
						e = math.Abs(e)
					}
					s += e * sigmaInv.At(j, i)
				}
				scratch[i] = s
			}
			for i := 0; i < nu; i++ {
				total += scratch[i] * u[t][i]
			}
		}
		out[k] = lambda * total
	}
	return out
}
