package cpu

import (
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// value is the compute processor's representation of an expression node:
// a closure producing the node's word buffer. Intermediate nodes own a
// scratch buffer that is reused on every evaluation.
type value struct {
	shape  tensor.Shape
	dtype  tensor.DataType
	tensor *Tensor // Set for Var nodes.
	eval   func() []byte
}

// step writes one statement's result into its output tensor.
type step func()

// program is the compute artifact of a block: its statements in order.
type program struct {
	steps []step
}

func (p *program) run() {
	for _, s := range p.steps {
		s()
	}
}

// computeProcessor compiles a block into a program. Compilation happens once
// per executor; the program is evaluated on every compute pass.
type computeProcessor struct {
	cfg parallel.Config
}

var _ backend.Processor = (*computeProcessor)(nil)

func asValue(n backend.Node) *value {
	v, ok := n.(*value)
	if !ok {
		panic(fmt.Sprintf("cpu: unexpected node %T", n))
	}
	return v
}

// Var implements backend.Processor.
func (p *computeProcessor) Var(t backend.Tensor) backend.Node {
	ct := asTensor(t)
	return &value{
		shape:  ct.shape,
		dtype:  ct.dtype,
		tensor: ct,
		eval:   func() []byte { return ct.data },
	}
}

// Scalar implements backend.Processor.
func (p *computeProcessor) Scalar(v any, dtype tensor.DataType) backend.Node {
	data := tensor.ToBytes([]uint32{scalarWord(v)})
	return &value{
		shape: tensor.Shape{1},
		dtype: dtype,
		eval:  func() []byte { return data },
	}
}

// Arithmetic implements backend.Processor.
func (p *computeProcessor) Arithmetic(lhs, rhs backend.Node, op backend.ArithOp) backend.Node {
	l, r := asValue(lhs), asValue(rhs)
	shape := unify(op.String(), l.shape, r.shape)
	dst := make([]byte, shape.NumElements()*l.dtype.Size())
	li, ri := broadcastIndex(l.shape, shape), broadcastIndex(r.shape, shape)

	return &value{
		shape: shape,
		dtype: l.dtype,
		eval: func() []byte {
			arithmetic(op, l.dtype, dst, l.eval(), r.eval(), li, ri, p.cfg)
			return dst
		},
	}
}

// Relation implements backend.Processor.
func (p *computeProcessor) Relation(lhs, rhs backend.Node, op backend.RelOp) backend.Node {
	l, r := asValue(lhs), asValue(rhs)
	shape := unify(op.String(), l.shape, r.shape)
	dst := make([]byte, shape.NumElements()*tensor.Bool.Size())
	li, ri := broadcastIndex(l.shape, shape), broadcastIndex(r.shape, shape)

	return &value{
		shape: shape,
		dtype: tensor.Bool,
		eval: func() []byte {
			relation(op, l.dtype, dst, l.eval(), r.eval(), li, ri, p.cfg)
			return dst
		},
	}
}

// Cast implements backend.Processor.
func (p *computeProcessor) Cast(in backend.Node, dtype tensor.DataType) backend.Node {
	v := asValue(in)
	dst := make([]byte, v.shape.NumElements()*dtype.Size())

	return &value{
		shape: v.shape,
		dtype: dtype,
		eval: func() []byte {
			cast(dst, v.eval(), v.dtype, dtype, p.cfg)
			return dst
		},
	}
}

// UnaryFn implements backend.Processor.
func (p *computeProcessor) UnaryFn(in backend.Node, fn backend.UnaryFunc) backend.Node {
	v := asValue(in)
	dst := make([]byte, v.shape.NumElements()*v.dtype.Size())

	return &value{
		shape: v.shape,
		dtype: v.dtype,
		eval: func() []byte {
			unary(fn, v.dtype, dst, v.eval(), p.cfg)
			return dst
		},
	}
}

// Statement implements backend.Processor.
func (p *computeProcessor) Statement(out, rhs backend.Node) backend.Node {
	o, r := asValue(out), asValue(rhs)
	if o.tensor == nil {
		panic("statement: output is not a tensor")
	}
	if !o.shape.Equal(r.shape) {
		panic(fmt.Sprintf("statement: shape mismatch: %v vs %v", o.shape, r.shape))
	}

	dst := o.tensor.data
	return step(func() {
		copy(dst, r.eval())
	})
}

// Link implements backend.Processor. Compute processors ignore links.
func (p *computeProcessor) Link(_, _ backend.Tensor) backend.Node { return nil }

// Block implements backend.Processor.
func (p *computeProcessor) Block(nodes []backend.Node) (backend.Node, error) {
	prog := &program{steps: make([]step, 0, len(nodes))}
	for _, n := range nodes {
		s, ok := n.(step)
		if !ok {
			return nil, backend.Wrap("compute", fmt.Errorf("block expects statements, got %T", n))
		}
		prog.steps = append(prog.steps, s)
	}
	return prog, nil
}

// linkCopy copies one tensor's buffer into another's.
type linkCopy struct {
	from, to *Tensor
}

// propagateProcessor records link copies.
type propagateProcessor struct {
	backend.NopProcessor
}

// Link implements backend.Processor.
func (propagateProcessor) Link(from, to backend.Tensor) backend.Node {
	return linkCopy{from: asTensor(from), to: asTensor(to)}
}

// Block implements backend.Processor.
func (propagateProcessor) Block(nodes []backend.Node) (backend.Node, error) {
	copies := make([]linkCopy, 0, len(nodes))
	for _, n := range nodes {
		c, ok := n.(linkCopy)
		if !ok {
			return nil, backend.Wrap("propagate", fmt.Errorf("expected link, got %T", n))
		}
		copies = append(copies, c)
	}
	return copies, nil
}

// readoutProcessor stages nothing: CPU retrieval reads live buffers.
type readoutProcessor struct {
	backend.NopProcessor
}

func unify(op string, a, b tensor.Shape) tensor.Shape {
	shape, err := tensor.Unify(a, b)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return shape
}

func scalarWord(v any) uint32 {
	switch x := v.(type) {
	case float32:
		return tensor.Word(x)
	case uint32:
		return tensor.Word(x)
	case int32:
		return tensor.Word(x)
	case bool:
		return tensor.Word(x)
	default:
		panic(fmt.Sprintf("scalar: unsupported type %T", v))
	}
}
