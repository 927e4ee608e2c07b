package graph

import (
	"context"
	"errors"

	"github.com/born-ml/tengu/internal/backend"
)

// linksLabel names the propagate operation of a graph.
const linksLabel = "links"

type compiled struct {
	block    *Block
	artifact backend.Node
}

// executor holds what one driver call needs: the blocks in order, the
// resolved links and one compute artifact per block, built once.
type executor struct {
	g      *Graph
	blocks []compiled
	links  []*Link
}

func (g *Graph) executor() (*executor, error) {
	ex := &executor{g: g, links: g.Links()}
	for _, b := range g.Blocks() {
		artifact, err := b.compile(g.backend.Compute(b.label))
		if err != nil {
			ex.release()
			return nil, &Error{Kind: KindBackend, Subject: "compile block " + b.label, Err: err}
		}
		ex.blocks = append(ex.blocks, compiled{block: b, artifact: artifact})
	}
	return ex, nil
}

// release frees backend resources held by the compute artifacts.
func (ex *executor) release() {
	for _, c := range ex.blocks {
		if r, ok := c.artifact.(interface{ Release() }); ok {
			r.Release()
		}
	}
	ex.blocks = nil
}

func run(ctx context.Context, op backend.Operation, artifact backend.Node) error {
	return op.Run(ctx, func(pass backend.Pass) error {
		return pass.Run(artifact)
	})
}

// stepError wraps a phase failure. Context errors pass through unchanged.
func stepError(kind ErrorKind, subject string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// step runs compute, propagate, readout and retrieve.
func (ex *executor) step(ctx context.Context) error {
	b := ex.g.backend

	for _, c := range ex.blocks {
		if err := run(ctx, b.Compute(c.block.label), c.artifact); err != nil {
			return stepError(KindBackend, "compute block "+c.block.label, err)
		}
	}

	if len(ex.links) > 0 {
		op := b.Propagate(linksLabel)
		p := op.Processor()
		nodes := make([]backend.Node, 0, len(ex.links))
		for _, l := range ex.links {
			nodes = append(nodes, l.visit(p))
		}
		artifact, err := p.Block(nodes)
		if err == nil {
			err = run(ctx, op, artifact)
		}
		if err != nil {
			return stepError(KindBackend, "propagate", err)
		}
	}

	staged := make([][]*tensorNode, len(ex.blocks))
	for i, c := range ex.blocks {
		op := b.Readout(c.block.label)
		artifact, sources, err := c.block.readout(op)
		if err == nil {
			err = run(ctx, op, artifact)
		}
		if err != nil {
			return stepError(KindBackend, "readout block "+c.block.label, err)
		}
		staged[i] = sources
	}

	for i, c := range ex.blocks {
		for _, t := range staged[i] {
			if err := ex.retrieve(ctx, c.block, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// retrieve reads a staged tensor into its probe channel unless the probe
// still holds the previous value.
func (ex *executor) retrieve(ctx context.Context, b *Block, t *tensorNode) error {
	if t.ch == nil {
		return nil
	}
	if t.ch.full() {
		ex.g.logger.Debug("probe full, skipping retrieve", "block", b.label, "tensor", t.label())
		return nil
	}

	data, err := t.t.Retrieve(ctx)
	if err != nil {
		return stepError(KindTensor, "retrieve "+b.label+"/"+t.label(), err)
	}
	t.ch.send(data)
	return nil
}
