package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// Tensor is a tensor living in host memory. Elements are stored as 32-bit
// words; Bool elements are 0/1 words.
type Tensor struct {
	label string
	shape tensor.Shape
	count int
	dtype tensor.DataType
	data  []byte
}

var _ backend.Tensor = (*Tensor)(nil)

func newTensor(label string, shape tensor.Shape, dtype tensor.DataType) *Tensor {
	count := shape.NumElements()
	return &Tensor{
		label: label,
		shape: shape.Clone(),
		count: count,
		dtype: dtype,
		data:  make([]byte, count*dtype.Size()),
	}
}

// Label returns the tensor label.
func (t *Tensor) Label() string { return t.label }

// Shape returns the tensor shape.
func (t *Tensor) Shape() tensor.Shape { return t.shape.Clone() }

// Count returns the number of elements.
func (t *Tensor) Count() int { return t.count }

// DataType returns the element type.
func (t *Tensor) DataType() tensor.DataType { return t.dtype }

// Data returns the live backing buffer.
func (t *Tensor) Data() []byte { return t.data }

// Retrieve returns a copy of the live buffer. CPU tensors need no staging.
func (t *Tensor) Retrieve(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out, nil
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("cpu.Tensor(%s, %v, %s)", t.label, t.shape, t.dtype)
}

func asTensor(t backend.Tensor) *Tensor {
	ct, ok := t.(*Tensor)
	if !ok {
		panic(fmt.Sprintf("cpu: foreign tensor %T", t))
	}
	return ct
}
