// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu_test

import (
	"context"
	"testing"

	"github.com/born-ml/tengu"
	"github.com/born-ml/tengu/backend/cpu"
)

func TestNew(t *testing.T) {
	tg := tengu.FromBackend(cpu.NewWithConfig(tengu.ParallelConfig{NumWorkers: 1, MinChunkSize: 1}))
	if got := tg.Backend().Name(); got != "cpu" {
		t.Fatalf("Name() = %q, want cpu", got)
	}

	x := tengu.Init(tg.Tensor(3).Label("x"), []int32{1, 2, 3})
	g := tg.Graph()
	blk, err := g.AddBlock("main")
	if err != nil {
		t.Fatal(err)
	}
	blk.AddComputation("y", x.Mul(x))
	probe, err := tengu.AddProbe[int32](g, "main/y")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := g.Compute(ctx, 1); err != nil {
		t.Fatal(err)
	}
	got, err := probe.Retrieve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{1, 4, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("y[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
