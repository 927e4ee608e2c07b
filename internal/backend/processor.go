package backend

import (
	"context"

	"github.com/born-ml/tengu/internal/tensor"
)

// Node is the backend specific representation a Processor returns for a
// visited expression. The graph treats it as opaque and only passes it back
// into the same Processor.
type Node any

// ArithOp is a binary arithmetic operator.
type ArithOp int

// Arithmetic operators.
const (
	Add ArithOp = iota
	Sub
	Mul
	Div
)

// Symbol returns the infix symbol of the operator.
func (op ArithOp) Symbol() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		panic("unknown arithmetic operator")
	}
}

func (op ArithOp) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	default:
		return "unknown"
	}
}

// RelOp is a binary relational operator. Its result type is Bool.
type RelOp int

// Relational operators.
const (
	Eq RelOp = iota
	Neq
)

// Symbol returns the infix symbol of the operator.
func (op RelOp) Symbol() string {
	switch op {
	case Eq:
		return "=="
	case Neq:
		return "!="
	default:
		panic("unknown relational operator")
	}
}

func (op RelOp) String() string {
	switch op {
	case Eq:
		return "eq"
	case Neq:
		return "neq"
	default:
		return "unknown"
	}
}

// UnaryFunc is an elementwise math function defined on Float32 only.
type UnaryFunc int

// Unary functions.
const (
	Exp UnaryFunc = iota
	Log
)

func (fn UnaryFunc) String() string {
	switch fn {
	case Exp:
		return "exp"
	case Log:
		return "log"
	default:
		return "unknown"
	}
}

// Processor interprets an expression tree. Every method receives children
// already visited by the same processor.
//
// The same interface is implemented once per operation kind: a compute
// processor turns statements into a runnable artifact, a propagate processor
// only cares about Link, and a readout processor only cares about Var.
type Processor interface {
	Var(t Tensor) Node
	Scalar(value any, dtype tensor.DataType) Node
	Arithmetic(lhs, rhs Node, op ArithOp) Node
	Relation(lhs, rhs Node, op RelOp) Node
	Cast(in Node, dtype tensor.DataType) Node
	UnaryFn(in Node, fn UnaryFunc) Node
	Statement(out, rhs Node) Node
	Link(from, to Tensor) Node

	// Block finalizes a sequence of nodes into the artifact passed to
	// Pass.Run.
	Block(nodes []Node) (Node, error)
}

// Pass runs an artifact produced by the operation's processor.
type Pass interface {
	Run(artifact Node) error
}

// Operation is a per block (or per link set) unit of backend work.
type Operation interface {
	Processor() Processor

	// Run hands a pass to call. The pass is only valid during the call.
	Run(ctx context.Context, call func(Pass) error) error
}

// NopProcessor implements every Processor method as a no-op. Processors
// that care about a few cases embed it.
type NopProcessor struct{}

var _ Processor = NopProcessor{}

// Var implements Processor.
func (NopProcessor) Var(Tensor) Node { return nil }

// Scalar implements Processor.
func (NopProcessor) Scalar(any, tensor.DataType) Node { return nil }

// Arithmetic implements Processor.
func (NopProcessor) Arithmetic(_, _ Node, _ ArithOp) Node { return nil }

// Relation implements Processor.
func (NopProcessor) Relation(_, _ Node, _ RelOp) Node { return nil }

// Cast implements Processor.
func (NopProcessor) Cast(Node, tensor.DataType) Node { return nil }

// UnaryFn implements Processor.
func (NopProcessor) UnaryFn(Node, UnaryFunc) Node { return nil }

// Statement implements Processor.
func (NopProcessor) Statement(_, _ Node) Node { return nil }

// Link implements Processor.
func (NopProcessor) Link(_, _ Tensor) Node { return nil }

// Block implements Processor.
func (NopProcessor) Block([]Node) (Node, error) { return nil, nil }
