// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tengu

import (
	"context"
	"log/slog"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/backend/cpu"
	"github.com/born-ml/tengu/internal/backend/webgpu"
	"github.com/born-ml/tengu/internal/graph"
	"github.com/born-ml/tengu/internal/parallel"
)

// Backend is the interface implemented by the cpu and wgpu backends.
type Backend = backend.Backend

// ParallelConfig controls how the CPU backend splits large tensors across
// goroutines.
type ParallelConfig = parallel.Config

// Kind selects a backend.
type Kind string

// Backend kinds.
const (
	KindCPU  Kind = cpu.Name
	KindWGPU Kind = webgpu.Name
)

type config struct {
	kind     Kind
	logger   *slog.Logger
	parallel ParallelConfig
}

// Option configures a Tengu handle.
type Option func(*config)

// WithLogger sets the logger used by the backend and graphs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithParallel sets the CPU parallelism.
func WithParallel(cfg ParallelConfig) Option {
	return func(c *config) { c.parallel = cfg }
}

// WithBackend selects the backend kind used by New. The default is KindCPU.
func WithBackend(kind Kind) Option {
	return func(c *config) { c.kind = kind }
}

func newConfig(opts []Option) config {
	c := config{
		kind:     KindCPU,
		logger:   slog.Default(),
		parallel: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Tengu is the entry point: it owns a backend and creates tensors and graphs
// on it.
type Tengu struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a handle on the backend selected with WithBackend.
func New(ctx context.Context, opts ...Option) (*Tengu, error) {
	c := newConfig(opts)
	b, err := backend.New(ctx, string(c.kind), backend.Options{Logger: c.logger, Parallel: c.parallel})
	if err != nil {
		return nil, err
	}
	return &Tengu{backend: b, logger: c.logger}, nil
}

// CPU creates a handle on the CPU backend. It cannot fail.
func CPU(opts ...Option) *Tengu {
	c := newConfig(opts)
	return &Tengu{
		backend: cpu.New(backend.Options{Logger: c.logger, Parallel: c.parallel}),
		logger:  c.logger,
	}
}

// WGPU creates a handle on the default WebGPU device.
func WGPU(ctx context.Context, opts ...Option) (*Tengu, error) {
	return New(ctx, append(opts, WithBackend(KindWGPU))...)
}

// FromBackend creates a handle on an existing backend.
func FromBackend(b Backend, opts ...Option) *Tengu {
	c := newConfig(opts)
	return &Tengu{backend: b, logger: c.logger}
}

// Backend returns the handle's backend.
func (t *Tengu) Backend() Backend { return t.backend }

// Tensor returns a builder for tensors of the given shape.
func (t *Tengu) Tensor(shape ...int) *Builder {
	return graph.NewBuilder(t.backend, shape...)
}

// Like returns a builder for tensors shaped like expr.
func (t *Tengu) Like(expr Expression) *Builder {
	return graph.Like(t.backend, expr)
}

// Graph creates an empty graph.
func (t *Tengu) Graph() *Graph {
	return graph.New(t.backend, t.logger)
}

// Close releases the backend.
func (t *Tengu) Close() error {
	return t.backend.Close()
}
