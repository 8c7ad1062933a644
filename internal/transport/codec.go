// Package transport encodes state and action tensors for crossing a
// process boundary: a fixed little-endian layout of magic, dtype, shape and
// a flat float64 buffer. Both ends must agree on shape and dtype; the
// planner core never interprets the bytes beyond round-trip fidelity.
package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pathintegral/mppi/internal/mppi"
)

var (
	ErrBadMagic  = errors.New("transport: bad magic header")
	ErrBadDtype  = errors.New("transport: unsupported dtype")
	ErrBadShape  = errors.New("transport: shape does not match buffer length")
	ErrTruncated = errors.New("transport: truncated payload")
)

const (
	magic        = uint32(0x4d54534e) // "MTSN"
	dtypeFloat64 = uint8(1)

	maxRank = 8
	maxDim  = 1 << 24
)

// Frame is a dense numeric tensor in transit: row-major float64 data with
// an explicit shape.
type Frame struct {
	Shape []int
	Data  []float64
}

func (f Frame) elements() int {
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// Encode writes the frame to w. Layout: magic(u32), dtype(u8), rank(u8),
// shape(rank x u32), data(float64 x prod(shape)), all little-endian.
func Encode(w io.Writer, f Frame) error {
	if len(f.Shape) == 0 || len(f.Shape) > maxRank {
		return fmt.Errorf("%w: rank %d", ErrBadShape, len(f.Shape))
	}
	for _, d := range f.Shape {
		if d <= 0 || d > maxDim {
			return fmt.Errorf("%w: dimension %d", ErrBadShape, d)
		}
	}
	if f.elements() != len(f.Data) {
		return fmt.Errorf("%w: shape %v holds %d elements, buffer has %d",
			ErrBadShape, f.Shape, f.elements(), len(f.Data))
	}

	var hdr [6]byte
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	hdr[4] = dtypeFloat64
	hdr[5] = uint8(len(f.Shape))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	dim := make([]byte, 4)
	for _, d := range f.Shape {
		binary.LittleEndian.PutUint32(dim, uint32(d))
		if _, err := w.Write(dim); err != nil {
			return err
		}
	}

	buf := make([]byte, 8*len(f.Data))
	for i, v := range f.Data {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	_, err := w.Write(buf)
	return err
}

// Decode reads one frame from r, validating magic, dtype and shape before
// touching the payload.
func Decode(r io.Reader) (Frame, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, wrapTruncated(err)
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != magic {
		return Frame{}, ErrBadMagic
	}
	if hdr[4] != dtypeFloat64 {
		return Frame{}, fmt.Errorf("%w: %d", ErrBadDtype, hdr[4])
	}
	rank := int(hdr[5])
	if rank == 0 || rank > maxRank {
		return Frame{}, fmt.Errorf("%w: rank %d", ErrBadShape, rank)
	}

	shape := make([]int, rank)
	dim := make([]byte, 4)
	n := 1
	for i := range shape {
		if _, err := io.ReadFull(r, dim); err != nil {
			return Frame{}, wrapTruncated(err)
		}
		d := int(binary.LittleEndian.Uint32(dim))
		if d <= 0 || d > maxDim {
			return Frame{}, fmt.Errorf("%w: dimension %d", ErrBadShape, d)
		}
		shape[i] = d
		n *= d
	}

	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Frame{}, wrapTruncated(err)
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return Frame{Shape: shape, Data: data}, nil
}

func wrapTruncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// Marshal encodes a frame to a byte slice.
func Marshal(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a frame from a byte slice.
func Unmarshal(b []byte) (Frame, error) {
	return Decode(bytes.NewReader(b))
}

// FromDense views a state or action batch as a rank-2 frame. The matrix
// data is copied so the frame outlives the matrix.
func FromDense(m *mat.Dense) Frame {
	r, c := m.Dims()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		copy(data[i*c:(i+1)*c], m.RawRowView(i))
	}
	return Frame{Shape: []int{r, c}, Data: data}
}

// ToDense reinterprets a rank-2 frame as a matrix.
func ToDense(f Frame) (*mat.Dense, error) {
	if len(f.Shape) != 2 {
		return nil, fmt.Errorf("%w: want rank 2, got %d", ErrBadShape, len(f.Shape))
	}
	if f.elements() != len(f.Data) {
		return nil, ErrBadShape
	}
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	return mat.NewDense(f.Shape[0], f.Shape[1], data), nil
}

// FromTensor views a sampled trajectory batch as a rank-3 frame.
func FromTensor(t *mppi.Tensor) Frame {
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return Frame{Shape: t.Dims(), Data: data}
}

// ToTensor reinterprets a rank-3 frame as a trajectory batch.
func ToTensor(f Frame) (*mppi.Tensor, error) {
	if len(f.Shape) != 3 {
		return nil, fmt.Errorf("%w: want rank 3, got %d", ErrBadShape, len(f.Shape))
	}
	if f.elements() != len(f.Data) {
		return nil, ErrBadShape
	}
	t := mppi.NewTensor(f.Shape[0], f.Shape[1], f.Shape[2])
	copy(t.Data, f.Data)
	return t, nil
}
