// Package graph implements the Tengu expression graph: typed expressions
// over backend tensors, blocks of statements, links between blocks, probes,
// and the step loop that drives a backend.
//
// One step runs four phases in order:
//
//	compute   every block's artifact is run by its Compute operation
//	propagate every link copies its source into its destination
//	readout   probed tensors are staged for the host
//	retrieve  staged data is read and handed to the probes
//
// The retrieve phase skips a tensor whose probe still holds an unconsumed
// value, so slow consumers never stall the graph.
package graph

import (
	"context"
	"log/slog"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/tengu/internal/backend"
)

// Graph is a set of blocks keyed by label and the links between them.
// A Graph is not safe for concurrent use; drivers run on the calling
// goroutine.
type Graph struct {
	backend backend.Backend
	logger  *slog.Logger
	blocks  *orderedmap.OrderedMap[string, *Block]
	links   []*Link
}

// New creates an empty graph on b.
func New(b backend.Backend, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		backend: b,
		logger:  logger,
		blocks:  orderedmap.New[string, *Block](),
	}
}

// AddBlock creates a block. Labels are unique within a graph and must be
// usable as the first part of a "block/tensor" path.
func (g *Graph) AddBlock(label string) (*Block, error) {
	if label == "" || strings.Contains(label, "/") {
		return nil, newError(KindInvalidLinkPath, "block label %q", label)
	}
	if _, ok := g.blocks.Get(label); ok {
		return nil, newError(KindBlockAlreadyExists, "%q", label)
	}
	b := newBlock(label, g.backend, g.logger)
	g.blocks.Set(label, b)
	return b, nil
}

// Block returns the block labeled label.
func (g *Graph) Block(label string) (*Block, error) {
	b, ok := g.blocks.Get(label)
	if !ok {
		return nil, newError(KindBlockNotFound, "%q", label)
	}
	return b, nil
}

// Blocks returns the blocks in insertion order.
func (g *Graph) Blocks() []*Block {
	blocks := make([]*Block, 0, g.blocks.Len())
	for pair := g.blocks.Oldest(); pair != nil; pair = pair.Next() {
		blocks = append(blocks, pair.Value)
	}
	return blocks
}

// Links returns the links in insertion order.
func (g *Graph) Links() []*Link {
	return append([]*Link(nil), g.links...)
}

// Close closes every probe channel. Pending values can still be retrieved;
// afterwards probes report ErrChannelClosed.
func (g *Graph) Close() {
	for _, b := range g.Blocks() {
		for _, s := range b.statements {
			s.each(func(t *tensorNode) bool {
				if t.ch != nil {
					t.ch.close()
				}
				return true
			})
		}
	}
}

// Compute runs n steps.
func (g *Graph) Compute(ctx context.Context, n int) error {
	return g.run(ctx, n, func(context.Context, int) (bool, error) { return true, nil })
}

// Process runs n steps, calling call after each.
func (g *Graph) Process(ctx context.Context, n int, call func(i int)) error {
	return g.run(ctx, n, func(_ context.Context, i int) (bool, error) {
		call(i)
		return true, nil
	})
}

// ProcessAsync runs n steps, waiting for call after each. An error from call
// stops the loop and is returned.
func (g *Graph) ProcessAsync(ctx context.Context, n int, call func(ctx context.Context, i int) error) error {
	return g.run(ctx, n, func(ctx context.Context, i int) (bool, error) {
		return true, call(ctx, i)
	})
}

// ProcessWhile runs up to n steps, stopping early when call returns false.
func (g *Graph) ProcessWhile(ctx context.Context, n int, call func(i int) bool) error {
	return g.run(ctx, n, func(_ context.Context, i int) (bool, error) {
		return call(i), nil
	})
}

// ProcessWhileAsync runs up to n steps, stopping early when call returns
// false or an error.
func (g *Graph) ProcessWhileAsync(ctx context.Context, n int, call func(ctx context.Context, i int) (bool, error)) error {
	return g.run(ctx, n, call)
}

func (g *Graph) run(ctx context.Context, n int, call func(ctx context.Context, i int) (bool, error)) error {
	ex, err := g.executor()
	if err != nil {
		return err
	}
	defer ex.release()

	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ex.step(ctx); err != nil {
			g.logger.Debug("step failed", "step", i, "error", err)
			return err
		}
		ok, err := call(ctx, i)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}
