package mppi

// Tensor is a dense 3-axis array laid out (sample, step, component),
// row-major. It carries noise batches, perturbed action sequences and the
// stacked per-step states/actions of the most recent rollout.
type Tensor struct {
	K, T, N int
	Data    []float64
}

func NewTensor(k, t, n int) *Tensor {
	return &Tensor{K: k, T: t, N: n, Data: make([]float64, k*t*n)}
}

func (t *Tensor) At(k, step, i int) float64 {
	return t.Data[(k*t.T+step)*t.N+i]
}

func (t *Tensor) Set(k, step, i int, v float64) {
	t.Data[(k*t.T+step)*t.N+i] = v
}

// Vec returns the component vector at (k, step) as a mutable slice view.
func (t *Tensor) Vec(k, step int) []float64 {
	off := (k*t.T + step) * t.N
	return t.Data[off : off+t.N]
}

func (t *Tensor) Clone() *Tensor {
	c := NewTensor(t.K, t.T, t.N)
	copy(c.Data, t.Data)
	return c
}

func (t *Tensor) Dims() []int {
	return []int{t.K, t.T, t.N}
}
