package graph

import (
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// node is one vertex of the untyped expression tree behind Expr[T].
// Every node caches its resolved shape and data type. visit hands the node
// to a processor after visiting its children, so backends never walk the
// tree themselves.
type node interface {
	shape() tensor.Shape
	dtype() tensor.DataType
	visit(p backend.Processor) backend.Node
	// each calls fn for every tensor leaf in visit order until fn returns
	// false. It reports whether the walk completed.
	each(fn func(*tensorNode) bool) bool
}

// scalarNode is a literal of shape [1].
type scalarNode struct {
	value any
	dt    tensor.DataType
}

func (n *scalarNode) shape() tensor.Shape                    { return tensor.Shape{1} }
func (n *scalarNode) dtype() tensor.DataType                 { return n.dt }
func (n *scalarNode) visit(p backend.Processor) backend.Node { return p.Scalar(n.value, n.dt) }
func (n *scalarNode) each(func(*tensorNode) bool) bool       { return true }

// tensorNode references a backend tensor. Expressions that use the same
// tensor share the node, and with it the tensor's probe channel.
type tensorNode struct {
	t  backend.Tensor
	ch *channel
}

func (n *tensorNode) shape() tensor.Shape                    { return n.t.Shape() }
func (n *tensorNode) dtype() tensor.DataType                 { return n.t.DataType() }
func (n *tensorNode) visit(p backend.Processor) backend.Node { return p.Var(n.t) }
func (n *tensorNode) each(fn func(*tensorNode) bool) bool    { return fn(n) }

func (n *tensorNode) label() string { return n.t.Label() }

// subscribe replaces the tensor's channel with a fresh one. The previous
// probe, if any, observes ErrChannelClosed once drained.
func (n *tensorNode) subscribe() *channel {
	if n.ch != nil {
		n.ch.close()
	}
	n.ch = newChannel()
	return n.ch
}

type binaryNode struct {
	lhs, rhs node
	sh       tensor.Shape
}

func newBinary(op string, lhs, rhs node) binaryNode {
	if lhs.dtype() != rhs.dtype() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", op, lhs.dtype(), rhs.dtype()))
	}
	sh, err := tensor.Unify(lhs.shape(), rhs.shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return binaryNode{lhs: lhs, rhs: rhs, sh: sh}
}

func (n *binaryNode) shape() tensor.Shape { return n.sh }

func (n *binaryNode) each(fn func(*tensorNode) bool) bool {
	return n.lhs.each(fn) && n.rhs.each(fn)
}

// arithNode is lhs OP rhs with OP in {+, -, *, /}.
type arithNode struct {
	binaryNode
	op backend.ArithOp
}

func (n *arithNode) dtype() tensor.DataType { return n.lhs.dtype() }

func (n *arithNode) visit(p backend.Processor) backend.Node {
	l := n.lhs.visit(p)
	r := n.rhs.visit(p)
	return p.Arithmetic(l, r, n.op)
}

// relNode is lhs OP rhs with OP in {==, !=}. Its data type is Bool.
type relNode struct {
	binaryNode
	op backend.RelOp
}

func (n *relNode) dtype() tensor.DataType { return tensor.Bool }

func (n *relNode) visit(p backend.Processor) backend.Node {
	l := n.lhs.visit(p)
	r := n.rhs.visit(p)
	return p.Relation(l, r, n.op)
}

// castNode converts its input to another data type.
type castNode struct {
	in node
	dt tensor.DataType
}

func (n *castNode) shape() tensor.Shape                 { return n.in.shape() }
func (n *castNode) dtype() tensor.DataType              { return n.dt }
func (n *castNode) each(fn func(*tensorNode) bool) bool { return n.in.each(fn) }

func (n *castNode) visit(p backend.Processor) backend.Node {
	return p.Cast(n.in.visit(p), n.dt)
}

// unaryNode applies exp or log to a Float32 input.
type unaryNode struct {
	in node
	fn backend.UnaryFunc
}

func newUnary(in node, fn backend.UnaryFunc) *unaryNode {
	if !in.dtype().IsFloat() {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", fn, in.dtype()))
	}
	return &unaryNode{in: in, fn: fn}
}

func (n *unaryNode) shape() tensor.Shape                 { return n.in.shape() }
func (n *unaryNode) dtype() tensor.DataType              { return n.in.dtype() }
func (n *unaryNode) each(fn func(*tensorNode) bool) bool { return n.in.each(fn) }

func (n *unaryNode) visit(p backend.Processor) backend.Node {
	return p.UnaryFn(n.in.visit(p), n.fn)
}

// statementNode writes rhs into out. The rhs is visited before the output.
type statementNode struct {
	out *tensorNode
	rhs node
}

func newStatement(out *tensorNode, rhs node) *statementNode {
	if !out.shape().Equal(rhs.shape()) {
		panic(fmt.Sprintf("statement: shape mismatch: output %v, rhs %v", out.shape(), rhs.shape()))
	}
	if out.dtype() != rhs.dtype() {
		panic(fmt.Sprintf("statement: dtype mismatch: output %s, rhs %s", out.dtype(), rhs.dtype()))
	}
	return &statementNode{out: out, rhs: rhs}
}

func (n *statementNode) shape() tensor.Shape    { return n.out.shape() }
func (n *statementNode) dtype() tensor.DataType { return n.out.dtype() }

func (n *statementNode) each(fn func(*tensorNode) bool) bool {
	return n.rhs.each(fn) && fn(n.out)
}

func (n *statementNode) visit(p backend.Processor) backend.Node {
	r := n.rhs.visit(p)
	o := n.out.visit(p)
	return p.Statement(o, r)
}

// find returns the first tensor leaf labeled label.
func find(n node, label string) *tensorNode {
	var found *tensorNode
	n.each(func(t *tensorNode) bool {
		if t.label() == label {
			found = t
			return false
		}
		return true
	})
	return found
}
