package graph

import (
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// Expression is the type-erased view of an Expr[T], accepted where the
// element type does not matter (computations, Like).
type Expression interface {
	Shape() tensor.Shape
	Count() int
	DataType() tensor.DataType
	root() node
}

// Expr is a typed expression over tensors of element type T.
//
// Expressions are immutable trees. Binary operators unify the operand shapes
// and panic when they cannot be unified; a well-formed expression never fails
// later, during interpretation.
type Expr[T tensor.StorageType] struct {
	n node
}

var _ Expression = Expr[float32]{}

func (e Expr[T]) root() node {
	if e.n == nil {
		panic("graph: use of zero Expr")
	}
	return e.n
}

// Shape returns the resolved shape of the expression.
func (e Expr[T]) Shape() tensor.Shape { return e.root().shape().Clone() }

// Count returns the number of elements, the product of the shape.
func (e Expr[T]) Count() int { return e.root().shape().NumElements() }

// DataType returns the element type of the expression.
func (e Expr[T]) DataType() tensor.DataType { return e.root().dtype() }

// Label returns the tensor label when the expression is a tensor reference.
func (e Expr[T]) Label() (string, bool) {
	if t, ok := e.root().(*tensorNode); ok {
		return t.label(), true
	}
	return "", false
}

func (e Expr[T]) String() string {
	if label, ok := e.Label(); ok {
		return fmt.Sprintf("Expr(%s, %v, %s)", label, e.Shape(), e.DataType())
	}
	return fmt.Sprintf("Expr(%v, %s)", e.Shape(), e.DataType())
}

func (e Expr[T]) arith(op backend.ArithOp, rhs Expr[T]) Expr[T] {
	if e.DataType() == tensor.Bool {
		panic(fmt.Sprintf("%s: unsupported dtype bool", op))
	}
	return Expr[T]{n: &arithNode{binaryNode: newBinary(op.String(), e.root(), rhs.root()), op: op}}
}

// Add returns e + rhs.
func (e Expr[T]) Add(rhs Expr[T]) Expr[T] { return e.arith(backend.Add, rhs) }

// Sub returns e - rhs.
func (e Expr[T]) Sub(rhs Expr[T]) Expr[T] { return e.arith(backend.Sub, rhs) }

// Mul returns e * rhs.
func (e Expr[T]) Mul(rhs Expr[T]) Expr[T] { return e.arith(backend.Mul, rhs) }

// Div returns e / rhs. Integer division by zero traps on the CPU backend.
func (e Expr[T]) Div(rhs Expr[T]) Expr[T] { return e.arith(backend.Div, rhs) }

// Eq returns the elementwise e == rhs.
func (e Expr[T]) Eq(rhs Expr[T]) Expr[bool] {
	return Expr[bool]{n: &relNode{binaryNode: newBinary("eq", e.root(), rhs.root()), op: backend.Eq}}
}

// Neq returns the elementwise e != rhs.
func (e Expr[T]) Neq(rhs Expr[T]) Expr[bool] {
	return Expr[bool]{n: &relNode{binaryNode: newBinary("neq", e.root(), rhs.root()), op: backend.Neq}}
}

// Exp returns the elementwise natural exponential. Panics unless T is
// float32.
func (e Expr[T]) Exp() Expr[T] { return Expr[T]{n: newUnary(e.root(), backend.Exp)} }

// Log returns the elementwise natural logarithm. Panics unless T is float32.
func (e Expr[T]) Log() Expr[T] { return Expr[T]{n: newUnary(e.root(), backend.Log)} }

// Cast converts e to element type U.
func Cast[U, T tensor.StorageType](e Expr[T]) Expr[U] {
	return Expr[U]{n: &castNode{in: e.root(), dt: tensor.Of[U]()}}
}

// Scalar returns a literal of shape [1] that broadcasts against any shape.
func Scalar[T tensor.StorageType](v T) Expr[T] {
	dt := tensor.Of[T]()
	return Expr[T]{n: &scalarNode{value: tensor.Value(tensor.Word(v), dt), dt: dt}}
}
