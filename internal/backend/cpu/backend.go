// Package cpu implements the Tengu backend that evaluates expressions in host
// memory.
package cpu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// Name is the registry name of the CPU backend.
const Name = "cpu"

func init() {
	backend.Register(Name, func(_ context.Context, opts backend.Options) (backend.Backend, error) {
		return New(opts), nil
	})
}

// Backend evaluates blocks directly on host buffers.
type Backend struct {
	cfg    parallel.Config
	logger *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New(opts backend.Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Parallel
	if cfg.NumWorkers == 0 {
		cfg = parallel.DefaultConfig()
	}
	logger.Debug("cpu backend ready", "workers", cfg.NumWorkers, "parallel", cfg.Enabled)
	return &Backend{cfg: cfg, logger: logger}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Limits returns the CPU limits: none.
func (b *Backend) Limits() backend.Limits {
	return backend.Limits{}
}

// Zero allocates a zero-initialized tensor.
func (b *Backend) Zero(label string, shape tensor.Shape, dtype tensor.DataType) backend.Tensor {
	return newTensor(label, shape, dtype)
}

// Tensor allocates a tensor initialized from host bytes.
func (b *Backend) Tensor(label string, shape tensor.Shape, dtype tensor.DataType, data []byte) backend.Tensor {
	t := newTensor(label, shape, dtype)
	if len(data) != len(t.data) {
		panic(fmt.Sprintf("tensor: %d bytes for %d elements of %s", len(data), t.count, dtype))
	}
	copy(t.data, data)
	return t
}

// Compute returns the compute operation for a block.
func (b *Backend) Compute(label string) backend.Operation {
	return &computeOp{b: b, label: label}
}

// Propagate returns the link propagation operation.
func (b *Backend) Propagate(label string) backend.Operation {
	return &propagateOp{label: label}
}

// Readout returns the readout operation for a block.
func (b *Backend) Readout(string) backend.Operation {
	return readoutOp{}
}

// Close releases backend resources. The CPU backend holds none.
func (b *Backend) Close() error {
	return nil
}
