// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tengu_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tengu"
	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/backend/webgpu"
	"github.com/born-ml/tengu/internal/gpu/gputest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	tg, err := tengu.New(ctx, tengu.WithLogger(quietLogger()), tengu.WithParallel(tengu.ParallelConfig{NumWorkers: 1, MinChunkSize: 1}))
	require.NoError(t, err)
	assert.Equal(t, "cpu", tg.Backend().Name())
	require.NoError(t, tg.Close())

	_, err = tengu.New(ctx, tengu.WithBackend("tpu"))
	assert.Error(t, err)
}

func TestWGPU(t *testing.T) {
	tg, err := tengu.WGPU(context.Background(), tengu.WithLogger(quietLogger()))
	if err != nil {
		assert.ErrorIs(t, err, tengu.ErrUnavailable)
		t.Skipf("WebGPU not available: %v", err)
	}
	defer tg.Close()
	assert.Equal(t, "wgpu", tg.Backend().Name())
}

// buildLinked builds the two-block graph fst/out = a + 1, snd/out = b + 1
// with b linked from fst/out.
func buildLinked(t *testing.T, tg *tengu.Tengu) (*tengu.Graph, *tengu.Probe[float32]) {
	t.Helper()

	a := tengu.Init(tg.Tensor(2, 2).Label("a"), []float32{1, 2, 3, 4})
	b := tengu.Zero[float32](tg.Like(a).Label("b"))

	g := tg.Graph()
	fst, err := g.AddBlock("fst")
	require.NoError(t, err)
	fst.AddComputation("out", a.Add(tengu.Scalar[float32](1)))

	snd, err := g.AddBlock("snd")
	require.NoError(t, err)
	snd.AddComputation("out", b.Add(tengu.Scalar[float32](1)))

	_, err = g.AddLink("fst/out", "snd/b")
	require.NoError(t, err)

	probe, err := tengu.AddProbe[float32](g, "snd/out")
	require.NoError(t, err)
	return g, probe
}

func TestLinkedBlocks(t *testing.T) {
	ctx := context.Background()
	g, probe := buildLinked(t, tengu.CPU(tengu.WithLogger(quietLogger())))

	var last []float32
	err := g.ProcessAsync(ctx, 2, func(ctx context.Context, _ int) error {
		v, err := probe.Retrieve(ctx)
		last = v
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5, 6}, last)
}

func TestGPUGraphWithTestDevice(t *testing.T) {
	ctx := context.Background()
	dev := gputest.New(8)
	tg := tengu.FromBackend(webgpu.NewWithDevice(dev, backend.Options{Logger: quietLogger()}))
	g, probe := buildLinked(t, tg)

	require.NoError(t, g.Compute(ctx, 2))

	// One shader per block, rebuilt per driver call.
	require.Len(t, dev.Pipelines, 2)
	assert.Contains(t, dev.Pipelines[0].Code, "out[idx] = (a[idx] + 1.0);")
	assert.Contains(t, dev.Pipelines[1].Code, "out[idx] = (b[idx] + 1.0);")

	// The link became a copy from fst/out into snd/b.
	var copies int
	for _, s := range dev.Submissions {
		for _, c := range s.Commands {
			if !c.IsDispatch() && c.Dst.Label() == "b" {
				copies++
			}
		}
	}
	assert.Equal(t, 2, copies)

	_, ok := probe.TryRetrieve()
	assert.True(t, ok)
	require.NoError(t, tg.Close())
	assert.True(t, dev.Closed)
}

func TestErrors(t *testing.T) {
	tg := tengu.CPU(tengu.WithLogger(quietLogger()))
	g := tg.Graph()

	_, err := g.AddBlock("main")
	require.NoError(t, err)
	_, err = g.AddBlock("main")

	var terr *tengu.Error
	require.True(t, errors.As(err, &terr))
	assert.ErrorIs(t, err, tengu.ErrBlockAlreadyExists)

	_, err = tengu.Normal[float32](tg.Tensor(3), 0, -1)
	assert.ErrorIs(t, err, tengu.ErrParameter)

	_, err = tengu.Unify(tengu.Shape{3, 4}, tengu.Shape{3, 5})
	assert.ErrorIs(t, err, tengu.ErrShapeMismatch)
}

func Example() {
	ctx := context.Background()
	tg := tengu.CPU(tengu.WithLogger(quietLogger()))

	a := tengu.Init(tg.Tensor(2, 2).Label("a"), []float32{1, 2, 3, 4})
	b := tengu.Init(tg.Tensor(2, 2).Label("b"), []float32{1, 6, 3, 8})

	g := tg.Graph()
	blk, _ := g.AddBlock("main")
	blk.AddComputation("addmul", a.Mul(b).Add(tengu.Scalar[float32](1))).
		AddComputation("rel", tengu.Cast[uint32](a.Eq(b)))

	addmul, _ := tengu.AddProbe[float32](g, "main/addmul")
	rel, _ := tengu.AddProbe[uint32](g, "main/rel")

	if err := g.Compute(ctx, 1); err != nil {
		fmt.Println(err)
		return
	}

	x, _ := addmul.Retrieve(ctx)
	y, _ := rel.Retrieve(ctx)
	fmt.Println(x, y)
	// Output: [2 13 10 33] [1 0 1 0]
}
