// Package tensorcore models the dedicated matrix multiply-accumulate (MMA)
// hardware units within each compute unit's subpartitions. It is a
// standalone collaborator: nothing in sim or sim/cluster imports it, and a
// kernel's Func may call into it directly if it wants to simulate
// tensor-core-accelerated math.
package tensorcore

import "gonum.org/v1/gonum/mat"

// Precision names the numeric format an MMA operation is declared to run
// at. H100-class tensor cores support all five; precision is carried as
// metadata only and does not change the (exact, float64) arithmetic MMA
// performs.
type Precision int

const (
	FP8 Precision = iota
	FP16
	BF16
	TF32
	FP64
)

// String returns the precision's conventional name.
func (p Precision) String() string {
	switch p {
	case FP8:
		return "fp8"
	case FP16:
		return "fp16"
	case BF16:
		return "bf16"
	case TF32:
		return "tf32"
	case FP64:
		return "fp64"
	default:
		return "unknown"
	}
}

// TensorCore is a single MMA-capable unit.
type TensorCore struct {
	Precision Precision
}

// New returns a TensorCore defaulting to BF16, the most common training
// precision on H100-class hardware.
func New() *TensorCore {
	return &TensorCore{Precision: BF16}
}

// MMA computes D = A*B + C and returns D as a new matrix, leaving a, b, and
// c untouched. Panics if the operand dimensions don't conform, same as
// gonum's own Mul.
func (t *TensorCore) MMA(a, b, c *mat.Dense) *mat.Dense {
	return MMA(a, b, c)
}

// MMA computes D = A*B + C using gonum's BLAS-backed Dense ops.
func MMA(a, b, c *mat.Dense) *mat.Dense {
	var product mat.Dense
	product.Mul(a, b)

	var d mat.Dense
	d.Add(&product, c)
	return &d
}
