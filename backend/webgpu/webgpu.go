// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the backend that compiles every Tengu block into
// a WGSL compute shader.
//
// The native WebGPU library is loaded without CGO on Windows. On other
// platforms New reports tengu.ErrUnavailable.
//
// Example:
//
//	import (
//	    "github.com/born-ml/tengu"
//	    "github.com/born-ml/tengu/backend/webgpu"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    t := tengu.FromBackend(gpu)
//	    defer t.Close()
//	}
package webgpu

import (
	"context"

	"github.com/born-ml/tengu"
	"github.com/born-ml/tengu/internal/backend"
	internalwebgpu "github.com/born-ml/tengu/internal/backend/webgpu"
)

// Backend is the WebGPU backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tengu.Backend.
var _ tengu.Backend = (*Backend)(nil)

// New opens the default WebGPU device.
func New(ctx context.Context) (*Backend, error) {
	return internalwebgpu.New(ctx, backend.DefaultOptions())
}
