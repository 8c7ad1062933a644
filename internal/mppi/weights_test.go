package mppi

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("softminWeights", func() {
	It("produces a probability distribution", func() {
		cost := []float64{3.2, 0.5, 12.0, 0.5, 7.7}
		omega, _, err := softminWeights(cost, 1.0)
		Expect(err).NotTo(HaveOccurred())

		sum := 0.0
		for _, w := range omega {
			Expect(w).To(BeNumerically(">=", 0))
			sum += w
		}
		Expect(sum).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("is invariant under a constant cost shift", func() {
		cost := []float64{1.0, 4.0, 2.5, 9.0}
		shifted := make([]float64, len(cost))
		for i, c := range cost {
			shifted[i] = c + 1e6
		}

		a, _, err := softminWeights(cost, 0.7)
		Expect(err).NotTo(HaveOccurred())
		b, _, err := softminWeights(shifted, 0.7)
		Expect(err).NotTo(HaveOccurred())

		for i := range a {
			Expect(b[i]).To(BeNumerically("~", a[i], 1e-9))
		}
	})

	It("concentrates on the cheapest sample as temperature drops", func() {
		cost := []float64{1.0, 2.0, 3.0}
		hot, _, err := softminWeights(cost, 10.0)
		Expect(err).NotTo(HaveOccurred())
		cold, _, err := softminWeights(cost, 0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(cold[0]).To(BeNumerically(">", hot[0]))
		Expect(cold[0]).To(BeNumerically("~", 1.0, 1e-4))
	})

	It("survives huge cost magnitudes without overflow", func() {
		cost := []float64{1e13, 1e13 + 2, 1e13 + 5}
		omega, _, err := softminWeights(cost, 1.0)
		Expect(err).NotTo(HaveOccurred())
		sum := 0.0
		for _, w := range omega {
			sum += w
		}
		Expect(sum).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("rejects an all-NaN cost vector", func() {
		cost := []float64{math.NaN(), math.NaN()}
		_, _, err := softminWeights(cost, 1.0)
		Expect(err).To(MatchError(ErrCostDistribution))
	})

	It("rejects an all-Inf cost vector", func() {
		cost := []float64{math.Inf(1), math.Inf(1)}
		_, _, err := softminWeights(cost, 1.0)
		Expect(err).To(MatchError(ErrCostDistribution))
	})
})

var _ = Describe("perturbationCost", func() {
	var sigmaInv *mat.Dense

	BeforeEach(func() {
		sigmaInv = mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	})

	It("is zero when the nominal sequence is zero", func() {
		u := [][]float64{{0, 0}, {0, 0}}
		noise := NewTensor(3, 2, 2)
		for i := range noise.Data {
			noise.Data[i] = float64(i) - 4.5
		}
		for _, c := range perturbationCost(u, noise, sigmaInv, 1.0, false) {
			Expect(c).To(BeZero())
		}
	})

	It("matches the hand-computed bilinear form", func() {
		u := [][]float64{{0.5, -1.0}}
		noise := NewTensor(1, 1, 2)
		noise.Set(0, 0, 0, 2.0)
		noise.Set(0, 0, 1, 3.0)

		// lambda * noise^T Sigma^-1 U = 2*(2*0.5 + 3*(-1))
		got := perturbationCost(u, noise, sigmaInv, 2.0, false)
		Expect(got[0]).To(BeNumerically("~", -4.0, 1e-12))
	})

	It("removes directional bias with the absolute-value variant", func() {
		u := [][]float64{{1.0, 1.0}}
		noise := NewTensor(2, 1, 2)
		noise.Set(0, 0, 0, -2.0)
		noise.Set(0, 0, 1, -2.0)
		noise.Set(1, 0, 0, 2.0)
		noise.Set(1, 0, 1, 2.0)

		signed := perturbationCost(u, noise, sigmaInv, 1.0, false)
		Expect(signed[0]).To(BeNumerically("<", signed[1]))

		abs := perturbationCost(u, noise, sigmaInv, 1.0, true)
		Expect(abs[0]).To(BeNumerically("~", abs[1], 1e-12))
	})
})
