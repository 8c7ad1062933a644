package mppi

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// noiseSource draws control perturbations from N(mu, sigma). The 1-D action
// case degenerates to a scalar-variance Gaussian, which distmv handles as a
// 1x1 covariance.
type noiseSource struct {
	nu   int
	dist *distmv.Normal
}

// newNoiseSource builds the sampling distribution. The Cholesky
// factorization inside distmv doubles as the positive-definiteness check,
// so a bad covariance fails here rather than mid-rollout. A zero seed
// derives one from the wall clock.
func newNoiseSource(mu []float64, sigma *mat.SymDense, seed int64) (*noiseSource, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dist, ok := distmv.NewNormal(mu, sigma, rand.NewSource(uint64(seed)))
	if !ok {
		return nil, ErrCovariance
	}
	return &noiseSource{nu: len(mu), dist: dist}, nil
}

// Sample draws a K x T batch of independent perturbation vectors.
func (n *noiseSource) Sample(k, t int) *Tensor {
	out := NewTensor(k, t, n.nu)
	for i := 0; i < k; i++ {
		for s := 0; s < t; s++ {
			n.dist.Rand(out.Vec(i, s))
		}
	}
	return out
}

// SampleSequence draws a fresh T-step control sequence, used by Reset.
func (n *noiseSource) SampleSequence(t int) [][]float64 {
	out := make([][]float64, t)
	for s := range out {
		out[s] = n.dist.Rand(nil)
	}
	return out
}
