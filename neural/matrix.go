package neural

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// RandomMatrix allocates a rows x cols matrix filled uniformly in [-1, 1].
func RandomMatrix(rows, cols int, rng *rand.Rand) Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = uniform(rng)
	}
	return m
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Set stores v at row i, column j.
func (m Matrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// Len returns the number of elements.
func (m Matrix) Len() int {
	return m.Rows * m.Cols
}

// Clone returns a copy with its own backing storage.
func (m Matrix) Clone() Matrix {
	c := Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]float32, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// valid reports whether the backing slice matches the declared shape.
func (m Matrix) valid() bool {
	return m.Rows > 0 && m.Cols > 0 && len(m.Data) == m.Rows*m.Cols
}

func (m Matrix) general() blas32.General {
	return blas32.General{Rows: m.Rows, Cols: m.Cols, Stride: m.Cols, Data: m.Data}
}

// MulVec computes the row-vector product v·m into dst.
// len(v) must equal m.Rows and len(dst) must equal m.Cols.
func MulVec(v []float32, m Matrix, dst []float32) error {
	if !m.valid() || len(v) != m.Rows || len(dst) != m.Cols {
		return fmt.Errorf("%w: [1, %d] x [%d, %d] -> [1, %d]", ErrDimension, len(v), m.Rows, m.Cols, len(dst))
	}
	x := blas32.Vector{N: len(v), Inc: 1, Data: v}
	y := blas32.Vector{N: len(dst), Inc: 1, Data: dst}
	// dst = mᵀ·v, which is the row-vector product for a row-major m.
	blas32.Gemv(blas.Trans, 1, m.general(), x, 0, y)
	return nil
}

// MatVec computes the column-vector product m·v into dst.
// len(v) must equal m.Cols and len(dst) must equal m.Rows.
func MatVec(m Matrix, v []float32, dst []float32) error {
	if !m.valid() || len(v) != m.Cols || len(dst) != m.Rows {
		return fmt.Errorf("%w: [%d, %d] x [%d, 1] -> [%d, 1]", ErrDimension, m.Rows, m.Cols, len(v), len(dst))
	}
	x := blas32.Vector{N: len(v), Inc: 1, Data: v}
	y := blas32.Vector{N: len(dst), Inc: 1, Data: dst}
	blas32.Gemv(blas.NoTrans, 1, m.general(), x, 0, y)
	return nil
}

// AddScalar adds s to every element of v in place.
func AddScalar(v []float32, s float32) {
	for i := range v {
		v[i] += s
	}
}

// Tanh is the hyperbolic tangent in single precision.
func Tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// Sigmoid is the logistic function in single precision.
func Sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// TanhVec applies Tanh to every element of v in place.
func TanhVec(v []float32) {
	for i := range v {
		v[i] = Tanh(v[i])
	}
}

// SigmoidVec applies Sigmoid to every element of v in place.
func SigmoidVec(v []float32) {
	for i := range v {
		v[i] = Sigmoid(v[i])
	}
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// uniform draws from [-1, 1). A nil rng falls back to the shared source.
func uniform(rng *rand.Rand) float32 {
	if rng == nil {
		return rand.Float32()*2 - 1
	}
	return rng.Float32()*2 - 1
}
