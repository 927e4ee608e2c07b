package graph

import (
	"github.com/born-ml/tengu/internal/backend"
)

// Link copies a tensor of one block into a tensor of another after every
// compute phase. Both ends have the same element type and shape.
type Link struct {
	from, to string
	src, dst *tensorNode
}

// From returns the source path.
func (l *Link) From() string { return l.from }

// To returns the destination path.
func (l *Link) To() string { return l.to }

// visit records the copy with the processor.
func (l *Link) visit(p backend.Processor) backend.Node {
	return p.Link(l.src.t, l.dst.t)
}

func (g *Graph) resolve(path string) (*tensorNode, error) {
	blockLabel, tensorLabel, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	b, err := g.Block(blockLabel)
	if err != nil {
		return nil, err
	}
	t := b.source(tensorLabel)
	if t == nil {
		return nil, newError(KindSourceNotFound, "%s", path)
	}
	return t, nil
}

// AddLink links the tensor at from into the tensor at to. Paths have the
// form "block/tensor". The graph is unchanged when an error is returned.
func (g *Graph) AddLink(from, to string) (*Link, error) {
	src, err := g.resolve(from)
	if err != nil {
		return nil, err
	}
	dst, err := g.resolve(to)
	if err != nil {
		return nil, err
	}

	if src.dtype() != dst.dtype() {
		return nil, newError(KindTypeMismatch, "link %s -> %s: %s vs %s", from, to, src.dtype(), dst.dtype())
	}
	if !src.shape().Equal(dst.shape()) {
		return nil, newError(KindShapeMismatch, "link %s -> %s: %v vs %v", from, to, src.shape(), dst.shape())
	}

	l := &Link{from: from, to: to, src: src, dst: dst}
	g.links = append(g.links, l)
	g.logger.Debug("link added", "from", from, "to", to)
	return l, nil
}
