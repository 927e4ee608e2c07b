package cpu

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

func newTestBackend() *Backend {
	return New(backend.Options{Parallel: parallel.Sequential()})
}

func f32(b *Backend, label string, shape tensor.Shape, data ...float32) *Tensor {
	return asTensor(b.Tensor(label, shape, tensor.Float32, tensor.ToBytes(data)))
}

// runBlock compiles one statement out = build(p) and runs a compute pass.
func runBlock(t *testing.T, b *Backend, out backend.Tensor, build func(p backend.Processor) backend.Node) {
	t.Helper()
	op := b.Compute("main")
	p := op.Processor()
	rhs := build(p)
	stmt := p.Statement(p.Var(out), rhs)
	artifact, err := p.Block([]backend.Node{stmt})
	require.NoError(t, err)
	require.NoError(t, op.Run(context.Background(), func(pass backend.Pass) error {
		return pass.Run(artifact)
	}))
}

func TestCompute_Arithmetic(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2, 2}, 1, 2, 3, 4)
	c := f32(b, "b", tensor.Shape{2, 2}, 5, 6, 7, 8)

	tests := []struct {
		name string
		op   backend.ArithOp
		want []float32
	}{
		{"add", backend.Add, []float32{6, 8, 10, 12}},
		{"sub", backend.Sub, []float32{-4, -4, -4, -4}},
		{"mul", backend.Mul, []float32{5, 12, 21, 32}},
		{"div", backend.Div, []float32{0.2, 2.0 / 6, 3.0 / 7, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := b.Zero("out", tensor.Shape{2, 2}, tensor.Float32)
			runBlock(t, b, out, func(p backend.Processor) backend.Node {
				return p.Arithmetic(p.Var(a), p.Var(c), tt.op)
			})
			got := tensor.FromBytes[float32](asTensor(out).Data())
			assert.InDeltaSlice(t, tt.want, got, 1e-6)
		})
	}
}

func TestCompute_ScenarioAddMul(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2, 2}, 1, 2, 3, 4)
	c := f32(b, "b", tensor.Shape{2, 2}, 5, 6, 7, 8)
	out := b.Zero("addmul", tensor.Shape{2, 2}, tensor.Float32)

	runBlock(t, b, out, func(p backend.Processor) backend.Node {
		prod := p.Arithmetic(p.Var(a), p.Var(c), backend.Mul)
		return p.Arithmetic(prod, p.Scalar(float32(1), tensor.Float32), backend.Add)
	})

	assert.Equal(t, []float32{6, 13, 22, 33}, tensor.FromBytes[float32](asTensor(out).Data()))
}

func TestCompute_Broadcast(t *testing.T) {
	b := newTestBackend()
	m := asTensor(b.Tensor("m", tensor.Shape{2, 3}, tensor.Int32, tensor.ToBytes([]int32{1, 2, 3, 4, 5, 6})))
	row := asTensor(b.Tensor("row", tensor.Shape{3}, tensor.Int32, tensor.ToBytes([]int32{10, 20, 30})))
	col := asTensor(b.Tensor("col", tensor.Shape{2, 1}, tensor.Int32, tensor.ToBytes([]int32{100, 200})))

	out := b.Zero("out", tensor.Shape{2, 3}, tensor.Int32)
	runBlock(t, b, out, func(p backend.Processor) backend.Node {
		sum := p.Arithmetic(p.Var(m), p.Var(row), backend.Add)
		return p.Arithmetic(sum, p.Var(col), backend.Add)
	})

	assert.Equal(t, []int32{111, 122, 133, 214, 225, 236}, tensor.FromBytes[int32](asTensor(out).Data()))
}

func TestCompute_RelationCast(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2, 2}, 1, 2, 3, 4)
	c := f32(b, "b", tensor.Shape{2, 2}, 1, 6, 3, 8)

	eq := b.Zero("eq", tensor.Shape{2, 2}, tensor.Uint32)
	runBlock(t, b, eq, func(p backend.Processor) backend.Node {
		return p.Cast(p.Relation(p.Var(a), p.Var(c), backend.Eq), tensor.Uint32)
	})
	assert.Equal(t, []uint32{1, 0, 1, 0}, tensor.FromBytes[uint32](asTensor(eq).Data()))

	neq := b.Zero("neq", tensor.Shape{2, 2}, tensor.Bool)
	runBlock(t, b, neq, func(p backend.Processor) backend.Node {
		return p.Relation(p.Var(a), p.Var(c), backend.Neq)
	})
	assert.Equal(t, []uint32{0, 1, 0, 1}, tensor.FromBytes[uint32](asTensor(neq).Data()))
}

func TestCompute_ExpLog(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2, 2}, 1, 2, 3, 4)
	c := f32(b, "b", tensor.Shape{2, 2}, 5, 6, 7, 8)
	out := b.Zero("explog", tensor.Shape{2, 2}, tensor.Uint32)

	runBlock(t, b, out, func(p backend.Processor) backend.Node {
		sum := p.Arithmetic(p.UnaryFn(p.Var(a), backend.Exp), p.UnaryFn(p.Var(c), backend.Log), backend.Add)
		return p.Cast(sum, tensor.Uint32)
	})

	assert.Equal(t, []uint32{4, 9, 22, 56}, tensor.FromBytes[uint32](asTensor(out).Data()))
}

func TestCompute_LogNonPositive(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2}, 0, -1)
	out := b.Zero("out", tensor.Shape{2}, tensor.Float32)

	runBlock(t, b, out, func(p backend.Processor) backend.Node {
		return p.UnaryFn(p.Var(a), backend.Log)
	})

	got := tensor.FromBytes[float32](asTensor(out).Data())
	assert.True(t, math.IsInf(float64(got[0]), -1))
	assert.True(t, math.IsNaN(float64(got[1])))
}

func TestCompute_ReevaluatesEachPass(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2}, 1, 2)
	out := b.Zero("out", tensor.Shape{2}, tensor.Float32)

	op := b.Compute("main")
	p := op.Processor()
	stmt := p.Statement(p.Var(out), p.Arithmetic(p.Var(a), p.Scalar(float32(1), tensor.Float32), backend.Add))
	artifact, err := p.Block([]backend.Node{stmt})
	require.NoError(t, err)

	run := func() {
		require.NoError(t, op.Run(context.Background(), func(pass backend.Pass) error {
			return pass.Run(artifact)
		}))
	}

	run()
	assert.Equal(t, []float32{2, 3}, tensor.FromBytes[float32](out.(*Tensor).Data()))

	copy(a.Data(), tensor.ToBytes([]float32{10, 20}))
	run()
	assert.Equal(t, []float32{11, 21}, tensor.FromBytes[float32](out.(*Tensor).Data()))
}

func TestCompute_IntegerDivisionByZeroPanics(t *testing.T) {
	b := newTestBackend()
	a := asTensor(b.Tensor("a", tensor.Shape{1}, tensor.Int32, tensor.ToBytes([]int32{1})))
	z := asTensor(b.Tensor("z", tensor.Shape{1}, tensor.Int32, tensor.ToBytes([]int32{0})))
	out := b.Zero("out", tensor.Shape{1}, tensor.Int32)

	assert.Panics(t, func() {
		runBlock(t, b, out, func(p backend.Processor) backend.Node {
			return p.Arithmetic(p.Var(a), p.Var(z), backend.Div)
		})
	})
}

func TestCompute_UnaryOnIntegerPanics(t *testing.T) {
	b := newTestBackend()
	a := asTensor(b.Tensor("a", tensor.Shape{1}, tensor.Int32, tensor.ToBytes([]int32{1})))
	out := b.Zero("out", tensor.Shape{1}, tensor.Int32)

	assert.Panics(t, func() {
		runBlock(t, b, out, func(p backend.Processor) backend.Node {
			return p.UnaryFn(p.Var(a), backend.Exp)
		})
	})
}

func TestCompute_BlockRejectsNonStatements(t *testing.T) {
	b := newTestBackend()
	p := b.Compute("main").Processor()
	a := f32(b, "a", tensor.Shape{1}, 1)

	_, err := p.Block([]backend.Node{p.Var(a)})
	assert.Error(t, err)
}

func TestPropagate_CopiesLinks(t *testing.T) {
	b := newTestBackend()
	src := f32(b, "src", tensor.Shape{3}, 1, 2, 3)
	dst := b.Zero("dst", tensor.Shape{3}, tensor.Float32)

	op := b.Propagate("links")
	p := op.Processor()
	assert.Nil(t, p.Var(src), "propagate ignores vars")

	artifact, err := p.Block([]backend.Node{p.Link(src, dst)})
	require.NoError(t, err)
	require.NoError(t, op.Run(context.Background(), func(pass backend.Pass) error {
		return pass.Run(artifact)
	}))

	assert.Equal(t, []float32{1, 2, 3}, tensor.FromBytes[float32](asTensor(dst).Data()))
}

func TestComputePass_RejectsForeignArtifact(t *testing.T) {
	b := newTestBackend()
	err := b.Compute("main").Run(context.Background(), func(pass backend.Pass) error {
		return pass.Run("not a program")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrBackend))
}

func TestReadout_NoOp(t *testing.T) {
	b := newTestBackend()
	op := b.Readout("main")
	p := op.Processor()
	a := f32(b, "a", tensor.Shape{1}, 1)

	artifact, err := p.Block([]backend.Node{p.Var(a)})
	require.NoError(t, err)
	assert.NoError(t, op.Run(context.Background(), func(pass backend.Pass) error {
		return pass.Run(artifact)
	}))
}

func TestTensor_Retrieve(t *testing.T) {
	b := newTestBackend()
	a := f32(b, "a", tensor.Shape{2}, 1, 2)

	data, err := a.Retrieve(context.Background())
	require.NoError(t, err)
	data[0] = 0xff
	assert.Equal(t, []float32{1, 2}, tensor.FromBytes[float32](a.Data()), "retrieve must copy")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Retrieve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackend_Basics(t *testing.T) {
	b := newTestBackend()
	assert.Equal(t, "cpu", b.Name())
	assert.Equal(t, backend.Limits{}, b.Limits())
	assert.NoError(t, b.Close())

	assert.Panics(t, func() {
		b.Tensor("bad", tensor.Shape{2}, tensor.Float32, []byte{1, 2, 3, 4})
	})
}

func TestShapeIsCopy(t *testing.T) {
	b := newTestBackend()
	x := b.Zero("x", tensor.Shape{2, 3}, tensor.Float32)

	s := x.Shape()
	s[0] = 7
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, 6, x.Shape().NumElements())
}
