package graph

import (
	"fmt"
	"log/slog"

	"github.com/emirpasic/gods/v2/sets/linkedhashset"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/tensor"
)

// Block is a named group of statements evaluated together. On the GPU a
// block is one shader: every tensor its statements reference is a binding.
// Blocks do not share tensors; data crosses blocks through links.
type Block struct {
	label      string
	backend    backend.Backend
	logger     *slog.Logger
	statements []*statementNode
	probes     *linkedhashset.Set[string]
}

func newBlock(label string, b backend.Backend, logger *slog.Logger) *Block {
	return &Block{
		label:   label,
		backend: b,
		logger:  logger,
		probes:  linkedhashset.New[string](),
	}
}

// Label returns the block label.
func (b *Block) Label() string { return b.label }

// AddComputation allocates a zero tensor labeled label with the shape and
// element type of expr and appends the statement label = expr. It panics if
// label is already used by a tensor of the block or is not a valid tensor
// label.
func (b *Block) AddComputation(label string, expr Expression) *Block {
	if err := tensor.ValidateLabel(label); err != nil {
		panic(fmt.Sprintf("add computation: %v", err))
	}
	rhs := expr.root()
	if b.source(label) != nil || find(rhs, label) != nil {
		panic(fmt.Sprintf("add computation: label %q already used in block %q", label, b.label))
	}

	out := &tensorNode{t: b.backend.Zero(label, rhs.shape(), rhs.dtype())}
	b.statements = append(b.statements, newStatement(out, rhs))
	return b
}

// AddProbe marks the tensor labeled label for readout and retrieval.
func (b *Block) AddProbe(label string) *Block {
	b.probes.Add(label)
	return b
}

// Probes returns the probed labels in insertion order.
func (b *Block) Probes() []string {
	return b.probes.Values()
}

// Source reports whether a tensor labeled label is reachable from the
// block's statements.
func (b *Block) Source(label string) bool {
	return b.source(label) != nil
}

func (b *Block) source(label string) *tensorNode {
	for _, s := range b.statements {
		if t := find(s, label); t != nil {
			return t
		}
	}
	return nil
}

// compile drives the statements through the operation's processor and
// finalizes the block artifact.
func (b *Block) compile(op backend.Operation) (backend.Node, error) {
	p := op.Processor()
	nodes := make([]backend.Node, 0, len(b.statements))
	for _, s := range b.statements {
		nodes = append(nodes, s.visit(p))
	}
	return p.Block(nodes)
}

// collect returns the probed tensors in first-seen order, each once.
func (b *Block) collect() []*tensorNode {
	if b.probes.Empty() {
		return nil
	}

	seen := linkedhashset.New[string]()
	var sources []*tensorNode
	for _, s := range b.statements {
		s.each(func(t *tensorNode) bool {
			label := t.label()
			if b.probes.Contains(label) && !seen.Contains(label) {
				seen.Add(label)
				sources = append(sources, t)
			}
			return true
		})
	}
	return sources
}

// readout stages the probed tensors through the operation's processor.
func (b *Block) readout(op backend.Operation) (backend.Node, []*tensorNode, error) {
	sources := b.collect()
	p := op.Processor()
	nodes := make([]backend.Node, 0, len(sources))
	for _, t := range sources {
		nodes = append(nodes, t.visit(p))
	}
	artifact, err := p.Block(nodes)
	return artifact, sources, err
}
