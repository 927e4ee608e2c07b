package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
)

// computeOp runs compiled block programs.
type computeOp struct {
	b     *Backend
	label string
}

// Processor implements backend.Operation.
func (op *computeOp) Processor() backend.Processor {
	return &computeProcessor{cfg: op.b.cfg}
}

// Run implements backend.Operation.
func (op *computeOp) Run(ctx context.Context, call func(backend.Pass) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(computePass{label: op.label})
}

type computePass struct {
	label string
}

// Run evaluates the program's statements in declaration order.
func (p computePass) Run(artifact backend.Node) error {
	prog, ok := artifact.(*program)
	if !ok {
		return backend.Wrap("compute", fmt.Errorf("block %q: unexpected artifact %T", p.label, artifact))
	}
	prog.run()
	return nil
}

// propagateOp copies linked tensors slice to slice.
type propagateOp struct {
	label string
}

// Processor implements backend.Operation.
func (op *propagateOp) Processor() backend.Processor {
	return propagateProcessor{}
}

// Run implements backend.Operation.
func (op *propagateOp) Run(ctx context.Context, call func(backend.Pass) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(propagatePass{label: op.label})
}

type propagatePass struct {
	label string
}

// Run applies every recorded copy.
func (p propagatePass) Run(artifact backend.Node) error {
	if artifact == nil {
		return nil
	}
	copies, ok := artifact.([]linkCopy)
	if !ok {
		return backend.Wrap("propagate", fmt.Errorf("%s: unexpected artifact %T", p.label, artifact))
	}
	for _, c := range copies {
		copy(c.to.data, c.from.data)
	}
	return nil
}

// readoutOp has nothing to stage on the CPU.
type readoutOp struct{}

// Processor implements backend.Operation.
func (readoutOp) Processor() backend.Processor {
	return readoutProcessor{}
}

// Run implements backend.Operation.
func (readoutOp) Run(ctx context.Context, call func(backend.Pass) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(readoutPass{})
}

type readoutPass struct{}

// Run implements backend.Pass.
func (readoutPass) Run(backend.Node) error { return nil }
