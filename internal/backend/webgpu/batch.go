package webgpu

import (
	"context"
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/gpu"
)

// bufferCopy is one buffer to buffer copy waiting to be encoded.
type bufferCopy struct {
	src, dst gpu.Buffer
	size     uint64
}

// copyBatch accumulates buffer copies for a single submission.
type copyBatch struct {
	copies []bufferCopy
}

// Add appends a copy to the batch.
func (batch *copyBatch) Add(src, dst gpu.Buffer, size uint64) *copyBatch {
	batch.copies = append(batch.copies, bufferCopy{src: src, dst: dst, size: size})
	return batch
}

// Count returns the number of copies in the batch.
func (batch *copyBatch) Count() int {
	return len(batch.copies)
}

// Submit encodes every copy into one command buffer and submits it.
// An empty batch submits nothing.
func (batch *copyBatch) Submit(device gpu.Device, label string) error {
	if batch == nil || len(batch.copies) == 0 {
		return nil
	}
	return device.Encode(label, func(e gpu.Encoder) {
		for _, c := range batch.copies {
			e.Copy(c.src, c.dst, c.size)
		}
	})
}

// propagateProcessor turns links into buffer copies.
type propagateProcessor struct {
	backend.NopProcessor
}

// Link implements backend.Processor.
func (propagateProcessor) Link(from, to backend.Tensor) backend.Node {
	src, dst := asTensor(from), asTensor(to)
	return bufferCopy{src: src.buffer, dst: dst.buffer, size: min(src.ByteSize(), dst.ByteSize())}
}

// Block implements backend.Processor.
func (propagateProcessor) Block(nodes []backend.Node) (backend.Node, error) {
	batch := &copyBatch{}
	for _, n := range nodes {
		c, ok := n.(bufferCopy)
		if !ok {
			return nil, backend.Wrap("propagate", fmt.Errorf("expected link, got %T", n))
		}
		batch.Add(c.src, c.dst, c.size)
	}
	return batch, nil
}

// readoutProcessor stages every tensor a block exposes for retrieval.
type readoutProcessor struct {
	backend.NopProcessor
}

// Var implements backend.Processor.
func (readoutProcessor) Var(t backend.Tensor) backend.Node {
	gt := asTensor(t)
	return bufferCopy{src: gt.buffer, dst: gt.stagingBuffer(), size: gt.ByteSize()}
}

// Block implements backend.Processor.
func (readoutProcessor) Block(nodes []backend.Node) (backend.Node, error) {
	batch := &copyBatch{}
	for _, n := range nodes {
		c, ok := n.(bufferCopy)
		if !ok {
			return nil, backend.Wrap("readout", fmt.Errorf("expected tensor, got %T", n))
		}
		batch.Add(c.src, c.dst, c.size)
	}
	return batch, nil
}

// batchOp submits the copy batch built by its processor.
type batchOp struct {
	b         *Backend
	op        string
	label     string
	processor backend.Processor
}

// Processor implements backend.Operation.
func (op *batchOp) Processor() backend.Processor {
	return op.processor
}

// Run implements backend.Operation.
func (op *batchOp) Run(ctx context.Context, call func(backend.Pass) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return call(batchPass{op: op})
}

type batchPass struct {
	op *batchOp
}

// Run submits the batch in one command buffer.
func (p batchPass) Run(artifact backend.Node) error {
	if artifact == nil {
		return nil
	}
	batch, ok := artifact.(*copyBatch)
	if !ok {
		return backend.Wrap(p.op.op, fmt.Errorf("%s: unexpected artifact %T", p.op.label, artifact))
	}
	return backend.Wrap(p.op.op, batch.Submit(p.op.b.device, p.op.label))
}
