// Package backend defines the contract between the Tengu graph and the
// devices that execute it.
//
// A backend allocates tensors and hands out three operations per block or
// link: Compute, Propagate and Readout. Each operation exposes a Processor
// that interprets the graph's expression tree in a backend specific way and a
// Run method that executes the resulting artifact on the device.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// Tensor is a backend allocated tensor.
type Tensor interface {
	Label() string
	Shape() tensor.Shape
	Count() int
	DataType() tensor.DataType

	// Retrieve reads the latest staged contents of the tensor into host
	// memory. Bool tensors are returned as 0/1 uint32 words.
	Retrieve(ctx context.Context) ([]byte, error)
}

// Limits describes device resource ceilings. Zero means unlimited.
type Limits struct {
	MaxStorageBuffers int // Storage buffers per shader stage.
}

// Backend allocates tensors and creates operations.
type Backend interface {
	Name() string
	Limits() Limits

	// Zero allocates a zero-initialized, writable tensor.
	Zero(label string, shape tensor.Shape, dtype tensor.DataType) Tensor

	// Tensor allocates a tensor initialized from host bytes.
	Tensor(label string, shape tensor.Shape, dtype tensor.DataType, data []byte) Tensor

	Compute(label string) Operation
	Propagate(label string) Operation
	Readout(label string) Operation

	Close() error
}

// Options configures a backend at creation.
type Options struct {
	Logger   *slog.Logger
	Parallel parallel.Config
}

// DefaultOptions returns options with the default logger and CPU parallelism.
func DefaultOptions() Options {
	return Options{
		Logger:   slog.Default(),
		Parallel: parallel.DefaultConfig(),
	}
}

// Factory creates a backend.
type Factory func(ctx context.Context, opts Options) (Backend, error)

var (
	mu       sync.RWMutex
	backends = make(map[string]Factory)
)

// Register registers a backend factory under name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := backends[name]; ok {
		panic("backend: backend already registered: " + name)
	}
	backends[name] = f
}

// New creates the backend registered under name.
func New(ctx context.Context, name string, opts Options) (Backend, error) {
	mu.RLock()
	f, ok := backends[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported backend %q (registered: %v)", name, Names())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return f(ctx, opts)
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
