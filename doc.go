// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tengu is a small embedded tensor engine.
//
// # Overview
//
// A program builds typed, elementwise expressions over tensors, groups them
// into named blocks, links block outputs into other blocks' inputs and
// subscribes probes to the tensors it wants to observe. The graph is then
// stepped N times on a backend:
//   - cpu: evaluates blocks in host memory
//   - wgpu: compiles every block into one WGSL compute shader
//
// # Basic Usage
//
//	import "github.com/born-ml/tengu"
//
//	func main() {
//	    ctx := context.Background()
//	    t := tengu.CPU()
//
//	    a := tengu.Init(t.Tensor(2, 2).Label("a"), []float32{1, 2, 3, 4})
//	    b := tengu.Init(t.Tensor(2, 2).Label("b"), []float32{5, 6, 7, 8})
//
//	    g := t.Graph()
//	    blk, _ := g.AddBlock("main")
//	    blk.AddComputation("c", a.Mul(b).Add(tengu.Scalar[float32](1)))
//
//	    probe, _ := tengu.AddProbe[float32](g, "main/c")
//	    _ = g.Compute(ctx, 1)
//	    values, _ := probe.Retrieve(ctx) // [6 13 22 33]
//	}
//
// # Probes
//
// A probe holds at most one pending value. When the consumer has not taken
// the previous value, the next step skips reading the tensor from the device,
// so probes always deliver a recent value and never slow the graph down.
//
// # Errors
//
// Building a malformed expression (mismatched shapes, exp on integers, wrong
// data length) panics. Graph lookups and runtime failures return *Error
// values that match the Err* sentinels through errors.Is.
package tengu
