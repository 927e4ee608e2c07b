package webgpu

import (
	"context"
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/gpu"
	"github.com/born-ml/tengu/internal/tensor"
)

// expr is the compute processor's representation of an expression node.
// render produces the WGSL for the node when the enclosing statement writes
// a tensor of shape out; operands of a different shape are read through a
// broadcast index.
type expr struct {
	shape  tensor.Shape
	dtype  tensor.DataType
	tensor *Tensor   // Set for Var nodes.
	reads  []*Tensor // Tensors read by the node, in visit order.
	render func(out tensor.Shape) string
}

// statement is one `out[idx] = rhs;` line.
type statement struct {
	out   *Tensor
	value string
	count int
	reads []*Tensor
}

// line renders the statement for a block of count elements that writes
// outputs. Invocations past the statement's count are guarded unless a
// clamped access would store the same value anyway: the statement has the
// block's count and reads only tensors of its own shape or single elements
// that no statement of the block writes.
func (s statement) line(count int, outputs map[string]bool) string {
	line := s.out.label + "[idx] = " + s.value + ";"
	if !s.guarded(count, outputs) {
		return line
	}
	return fmt.Sprintf("if (idx < %du) { %s }", s.count, line)
}

func (s statement) guarded(count int, outputs map[string]bool) bool {
	if s.count < count {
		return true
	}
	if count%workgroupSize == 0 {
		return false
	}
	for _, t := range s.reads {
		if outputs[t.label] {
			return true
		}
		if t.count != 1 && !t.shape.Equal(s.out.shape) {
			return true
		}
	}
	return false
}

// kernel is the compute artifact of a block.
type kernel struct {
	label    string
	code     string
	count    int
	bindings int
	pipeline gpu.Pipeline
}

// Code returns the WGSL module of the kernel.
func (k *kernel) Code() string { return k.code }

// Release releases the compute pipeline.
func (k *kernel) Release() {
	if k.pipeline != nil {
		k.pipeline.Release()
		k.pipeline = nil
	}
}

// computeProcessor synthesizes one WGSL module per block. Tensors are bound
// in first-visit order; repeated labels share their binding.
type computeProcessor struct {
	b        *Backend
	label    string
	bindings *orderedmap.OrderedMap[string, *Tensor]
}

var _ backend.Processor = (*computeProcessor)(nil)

func newComputeProcessor(b *Backend, label string) *computeProcessor {
	return &computeProcessor{
		b:        b,
		label:    label,
		bindings: orderedmap.New[string, *Tensor](),
	}
}

func asExpr(n backend.Node) *expr {
	e, ok := n.(*expr)
	if !ok {
		panic(fmt.Sprintf("webgpu: unexpected node %T", n))
	}
	return e
}

// Var implements backend.Processor.
func (p *computeProcessor) Var(t backend.Tensor) backend.Node {
	gt := asTensor(t)
	if _, ok := p.bindings.Get(gt.label); !ok {
		p.bindings.Set(gt.label, gt)
	}
	return &expr{
		shape:  gt.shape,
		dtype:  gt.dtype,
		tensor: gt,
		reads:  []*Tensor{gt},
		render: func(out tensor.Shape) string {
			ref := indexExpr(gt.label, gt.shape, out)
			if gt.dtype == tensor.Bool {
				return "(" + ref + " != 0u)"
			}
			return ref
		},
	}
}

// Scalar implements backend.Processor.
func (p *computeProcessor) Scalar(v any, dtype tensor.DataType) backend.Node {
	lit := literal(v)
	return &expr{
		shape:  tensor.Shape{1},
		dtype:  dtype,
		render: func(tensor.Shape) string { return lit },
	}
}

func (p *computeProcessor) binary(lhs, rhs backend.Node, symbol, name string, dtype tensor.DataType) backend.Node {
	l, r := asExpr(lhs), asExpr(rhs)
	shape, err := tensor.Unify(l.shape, r.shape)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	return &expr{
		shape: shape,
		dtype: dtype,
		reads: slices.Concat(l.reads, r.reads),
		render: func(out tensor.Shape) string {
			return "(" + l.render(out) + " " + symbol + " " + r.render(out) + ")"
		},
	}
}

// Arithmetic implements backend.Processor.
func (p *computeProcessor) Arithmetic(lhs, rhs backend.Node, op backend.ArithOp) backend.Node {
	return p.binary(lhs, rhs, op.Symbol(), op.String(), asExpr(lhs).dtype)
}

// Relation implements backend.Processor.
func (p *computeProcessor) Relation(lhs, rhs backend.Node, op backend.RelOp) backend.Node {
	return p.binary(lhs, rhs, op.Symbol(), op.String(), tensor.Bool)
}

// Cast implements backend.Processor.
func (p *computeProcessor) Cast(in backend.Node, dtype tensor.DataType) backend.Node {
	e := asExpr(in)
	return &expr{
		shape: e.shape,
		dtype: dtype,
		reads: e.reads,
		render: func(out tensor.Shape) string {
			return dtype.WGSL() + "(" + e.render(out) + ")"
		},
	}
}

// UnaryFn implements backend.Processor.
func (p *computeProcessor) UnaryFn(in backend.Node, fn backend.UnaryFunc) backend.Node {
	e := asExpr(in)
	if !e.dtype.IsFloat() {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", fn, e.dtype))
	}
	return &expr{
		shape: e.shape,
		dtype: e.dtype,
		reads: e.reads,
		render: func(out tensor.Shape) string {
			return fn.String() + "(" + e.render(out) + ")"
		},
	}
}

// Statement implements backend.Processor.
func (p *computeProcessor) Statement(out, rhs backend.Node) backend.Node {
	o, r := asExpr(out), asExpr(rhs)
	if o.tensor == nil {
		panic("statement: output is not a tensor")
	}
	if !o.shape.Equal(r.shape) {
		panic(fmt.Sprintf("statement: shape mismatch: %v vs %v", o.shape, r.shape))
	}
	value := r.render(o.shape)
	if o.dtype == tensor.Bool {
		value = "u32(" + value + ")"
	}
	return statement{
		out:   o.tensor,
		value: value,
		count: o.tensor.count,
		reads: r.reads,
	}
}

// Link implements backend.Processor. Compute processors ignore links.
func (p *computeProcessor) Link(_, _ backend.Tensor) backend.Node { return nil }

// Block implements backend.Processor. It builds the shader module and the
// compute pipeline over the bound buffers.
func (p *computeProcessor) Block(nodes []backend.Node) (backend.Node, error) {
	statements := make([]statement, 0, len(nodes))
	outputs := make(map[string]bool, len(nodes))
	count := 0
	for _, n := range nodes {
		s, ok := n.(statement)
		if !ok {
			return nil, backend.Wrap("compute", fmt.Errorf("block %q: expected statement, got %T", p.label, n))
		}
		statements = append(statements, s)
		outputs[s.out.label] = true
		count = max(count, s.count)
	}

	lines := make([]string, 0, len(statements))
	for _, s := range statements {
		lines = append(lines, s.line(count, outputs))
	}

	declarations := make([]string, 0, p.bindings.Len())
	buffers := make([]gpu.Buffer, 0, p.bindings.Len())
	for pair := p.bindings.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		declarations = append(declarations, declaration(len(buffers), t.label, t.Usage(), t.dtype))
		buffers = append(buffers, t.buffer)
	}

	if limit := p.b.Limits().MaxStorageBuffers; limit > 0 && len(buffers) > limit {
		return nil, backend.Wrap("compute", fmt.Errorf("block %q: %w", p.label, backend.BufferLimitError(len(buffers), limit)))
	}

	code := shaderModule(declarations, lines)
	p.b.logger.Debug("block shader", "block", p.label, "bindings", len(buffers), "count", count)

	pipeline, err := p.b.device.CreatePipeline(p.label, code, buffers)
	if err != nil {
		return nil, backend.Wrap("compute", fmt.Errorf("block %q: %w", p.label, err))
	}

	return &kernel{
		label:    p.label,
		code:     code,
		count:    count,
		bindings: len(buffers),
		pipeline: pipeline,
	}, nil
}

// computeOp dispatches block kernels.
type computeOp struct {
	b     *Backend
	label string
}

// Processor implements backend.Operation.
func (op *computeOp) Processor() backend.Processor {
	return newComputeProcessor(op.b, op.label)
}

// Run implements backend.Operation.
func (op *computeOp) Run(ctx context.Context, call func(backend.Pass) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(computePass{b: op.b, label: op.label})
}

type computePass struct {
	b     *Backend
	label string
}

// Run encodes one compute pass over the kernel and submits it.
func (p computePass) Run(artifact backend.Node) error {
	k, ok := artifact.(*kernel)
	if !ok {
		return backend.Wrap("compute", fmt.Errorf("block %q: unexpected artifact %T", p.label, artifact))
	}
	if k.count == 0 {
		return nil
	}

	err := p.b.device.Encode(p.label, func(e gpu.Encoder) {
		e.Dispatch(k.pipeline, workgroups(k.count))
	})
	return backend.Wrap("compute", err)
}
