// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the backend that evaluates Tengu graphs in host
// memory.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/tengu"
//	    "github.com/born-ml/tengu/backend/cpu"
//	)
//
//	func main() {
//	    t := tengu.FromBackend(cpu.New())
//	    x := tengu.Zero[float32](t.Tensor(2, 3))
//	}
//
// Elementwise kernels broadcast operands to the statement's shape and split
// large tensors across goroutines.
package cpu

import (
	"github.com/born-ml/tengu"
	"github.com/born-ml/tengu/internal/backend"
	internalcpu "github.com/born-ml/tengu/internal/backend/cpu"
)

// Backend is the CPU backend.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tengu.Backend.
var _ tengu.Backend = (*Backend)(nil)

// New creates a CPU backend with the default logger and parallelism.
func New() *Backend {
	return internalcpu.New(backend.DefaultOptions())
}

// NewWithConfig creates a CPU backend with the given parallelism.
func NewWithConfig(cfg tengu.ParallelConfig) *Backend {
	opts := backend.DefaultOptions()
	opts.Parallel = cfg
	return internalcpu.New(opts)
}
