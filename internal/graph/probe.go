package graph

import (
	"context"
	"strings"

	"github.com/born-ml/tengu/internal/tensor"
)

// Probe receives the latest values of one tensor, at most one pending value
// at a time. Values produced while a previous one is still pending are
// dropped at the source.
type Probe[T tensor.IOType] struct {
	path string
	ch   *channel
}

// Path returns the probed "block/tensor" path.
func (p *Probe[T]) Path() string { return p.path }

// Retrieve waits for the next value. It returns ErrChannelClosed once the
// probe has been replaced or the graph closed, and ctx.Err() when ctx is done
// first.
func (p *Probe[T]) Retrieve(ctx context.Context) ([]T, error) {
	data, err := p.ch.recv(ctx)
	if err != nil {
		return nil, err
	}
	return tensor.FromBytes[T](data), nil
}

// TryRetrieve returns the pending value without waiting.
func (p *Probe[T]) TryRetrieve() ([]T, bool) {
	data, ok := p.ch.tryRecv()
	if !ok {
		return nil, false
	}
	return tensor.FromBytes[T](data), true
}

// AddProbe subscribes to the tensor at path ("block/tensor"). The tensor's
// host type must be T; bool tensors are probed as uint32. Subscribing again
// to the same tensor replaces the previous probe.
func AddProbe[T tensor.IOType](g *Graph, path string) (*Probe[T], error) {
	blockLabel, tensorLabel, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	b, err := g.Block(blockLabel)
	if err != nil {
		return nil, err
	}
	src := b.source(tensorLabel)
	if src == nil {
		return nil, newError(KindSourceNotFound, "%s", path)
	}
	if want := tensor.Of[T](); src.dtype().Host() != want {
		return nil, newError(KindTypeMismatch, "%s: tensor is %s, probe is %s", path, src.dtype(), want)
	}

	b.probes.Add(tensorLabel)
	g.logger.Debug("probe added", "path", path, "dtype", src.dtype())
	return &Probe[T]{path: path, ch: src.subscribe()}, nil
}

// splitPath splits "block/tensor" into its labels.
func splitPath(path string) (string, string, error) {
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return "", "", newError(KindInvalidLinkPath, "%q", path)
	}
	return parts[0], parts[1], nil
}
