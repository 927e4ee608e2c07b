package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// Builder creates tensors of one shape on a backend. Terminal functions
// (Zero, Init, Random, Uniform, Normal, Bools) allocate the tensor.
type Builder struct {
	backend backend.Backend
	shape   tensor.Shape
	label   string
}

// NewBuilder returns a builder for tensors of the given shape. It panics on
// an empty shape or a non-positive extent.
func NewBuilder(b backend.Backend, shape ...int) *Builder {
	s := tensor.Shape(shape)
	if len(s) == 0 {
		panic("tensor: empty shape")
	}
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return &Builder{backend: b, shape: s.Clone()}
}

// Like returns a builder seeded with the shape of expr.
func Like(b backend.Backend, expr Expression) *Builder {
	return NewBuilder(b, expr.Shape()...)
}

// Label sets the tensor label. A random 6-letter label is used otherwise.
// It panics unless label is a valid tensor label (see tensor.ValidateLabel).
func (b *Builder) Label(label string) *Builder {
	if err := tensor.ValidateLabel(label); err != nil {
		panic(fmt.Sprintf("label: %v", err))
	}
	b.label = label
	return b
}

// Shape returns the shape of the tensors the builder creates.
func (b *Builder) Shape() tensor.Shape { return b.shape.Clone() }

func (b *Builder) labelOrNew() string {
	if b.label == "" {
		return tensor.NewLabel()
	}
	return b.label
}

func (b *Builder) create(dt tensor.DataType, data []byte) *tensorNode {
	label := b.labelOrNew()
	if data == nil {
		return &tensorNode{t: b.backend.Zero(label, b.shape, dt)}
	}
	return &tensorNode{t: b.backend.Tensor(label, b.shape, dt, data)}
}

// Zero creates a zero-initialized tensor.
func Zero[T tensor.StorageType](b *Builder) Expr[T] {
	return Expr[T]{n: b.create(tensor.Of[T](), nil)}
}

// Init creates a tensor holding data. It panics when len(data) differs from
// the element count of the shape.
func Init[T tensor.IOType](b *Builder, data []T) Expr[T] {
	if count := b.shape.NumElements(); len(data) != count {
		panic(fmt.Sprintf("init: %d values for shape %v (%d elements)", len(data), b.shape, count))
	}
	return Expr[T]{n: b.create(tensor.Of[T](), tensor.ToBytes(data))}
}

// Bools creates a tensor from booleans packed as 0/1 uint32 words.
func (b *Builder) Bools(data []bool) Expr[uint32] {
	return Init(b, tensor.BoolWords(data))
}

// Sampler draws values from a distribution. The gonum distuv distributions
// implement it.
type Sampler interface {
	Rand() float64
}

// Random creates a tensor of samples drawn from s, converted to T.
// Integer types saturate at their bounds.
func Random[T tensor.IOType](b *Builder, s Sampler) Expr[T] {
	data := make([]T, b.shape.NumElements())
	for i := range data {
		data[i] = tensor.FromFloat[T](s.Rand())
	}
	return Init(b, data)
}

// Uniform creates a tensor of samples from the uniform distribution on
// [low, high). It returns ErrParameter unless low < high.
func Uniform[T tensor.IOType](b *Builder, low, high T) (Expr[T], error) {
	lo, hi := float64(low), float64(high)
	if math.IsNaN(lo) || math.IsNaN(hi) || lo >= hi {
		return Expr[T]{}, newError(KindParameter, "uniform: low %v must be less than high %v", low, high)
	}
	return Random[T](b, distuv.Uniform{Min: lo, Max: hi}), nil
}

// Normal creates a tensor of samples from the normal distribution. It
// returns ErrParameter for a non-positive or non-finite standard deviation
// or a non-finite mean.
func Normal[T tensor.IOType](b *Builder, mean, stddev T) (Expr[T], error) {
	mu, sigma := float64(mean), float64(stddev)
	switch {
	case math.IsNaN(mu) || math.IsInf(mu, 0):
		return Expr[T]{}, newError(KindParameter, "normal: mean %v is not finite", mean)
	case math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0:
		return Expr[T]{}, newError(KindParameter, "normal: standard deviation %v must be positive and finite", stddev)
	}
	return Random[T](b, distuv.Normal{Mu: mu, Sigma: sigma}), nil
}
