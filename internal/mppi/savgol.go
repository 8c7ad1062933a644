package mppi

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	sgfOrder = 2
)

// savgol smooths a control sequence along the horizon axis with a
// Savitzky-Golay filter: each point is replaced by the value of a
// least-squares polynomial fitted over a sliding window. Window equal to
// the sequence length degenerates to a single global polynomial fit, which
// is the default configuration (window = horizon).
type savgol struct {
	window int
	order  int
	proj   map[int]*mat.Dense // projection matrices keyed by window length
}

func newSavgol(window, order int) *savgol {
	return &savgol{window: window, order: order, proj: make(map[int]*mat.Dense)}
}

// Smooth filters each action component of u (horizon x nu) in place.
func (f *savgol) Smooth(u [][]float64) error {
	if len(u) == 0 {
		return nil
	}
	horizon := len(u)
	nu := len(u[0])
	y := make([]float64, horizon)
	for i := 0; i < nu; i++ {
		for t := 0; t < horizon; t++ {
			y[t] = u[t][i]
		}
		if err := f.smoothSeries(y); err != nil {
			return err
		}
		for t := 0; t < horizon; t++ {
			u[t][i] = y[t]
		}
	}
	return nil
}

func (f *savgol) smoothSeries(y []float64) error {
	n := len(y)
	w := f.window
	if w >= n {
		w = n
	} else if w%2 == 0 {
		w++ // sliding windows need a center point
	}
	if w <= f.order+1 {
		return nil // fit is exact, smoothing is the identity
	}

	p, err := f.projection(w)
	if err != nil {
		return err
	}

	out := make([]float64, n)
	if w == n {
		// Global polynomial fit over the whole horizon.
		for t := 0; t < n; t++ {
			out[t] = dotRow(p, t, y, 0)
		}
	} else {
		half := w / 2
		// Leading edge: evaluate the first window's fit at its own offsets.
		for t := 0; t < half; t++ {
			out[t] = dotRow(p, t, y, 0)
		}
		// Interior: center row of the window projection.
		for t := half; t < n-half; t++ {
			out[t] = dotRow(p, half, y, t-half)
		}
		// Trailing edge: evaluate the last window's fit.
		for t := n - half; t < n; t++ {
			out[t] = dotRow(p, w-(n-t), y, n-w)
		}
	}
	copy(y, out)
	return nil
}

// projection returns P = A (A^T A)^-1 A^T for the Vandermonde matrix A of
// the configured polynomial order over window points.
func (f *savgol) projection(w int) (*mat.Dense, error) {
	if p, ok := f.proj[w]; ok {
		return p, nil
	}
	order := f.order
	if order >= w {
		order = w - 1
	}

	a := mat.NewDense(w, order+1, nil)
	for i := 0; i < w; i++ {
		// Centered abscissa keeps the normal equations well conditioned.
		x := float64(i) - float64(w-1)/2
		v := 1.0
		for p := 0; p <= order; p++ {
			a.Set(i, p, v)
			v *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("mppi: savgol projection for window %d: %w", w, err)
	}
	p := &mat.Dense{}
	p.Product(a, &inv, a.T())
	f.proj[w] = p
	return p, nil
}

func dotRow(p *mat.Dense, row int, y []float64, off int) float64 {
	_, c := p.Dims()
	s := 0.0
	for j := 0; j < c; j++ {
		s += p.At(row, j) * y[off+j]
	}
	return s
}
