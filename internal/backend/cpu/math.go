package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// unary applies fn element-wise. Only float32 is supported; log of a
// non-positive value yields -Inf or NaN as on the GPU.
func unary(fn backend.UnaryFunc, dtype tensor.DataType, dst, src []byte, cfg parallel.Config) {
	if dtype != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", fn, dtype))
	}

	var f func(float64) float64
	switch fn {
	case backend.Exp:
		f = math.Exp
	case backend.Log:
		f = math.Log
	default:
		panic(fmt.Sprintf("unary: unknown function %d", fn))
	}

	out := tensor.View[float32](dst)
	in := tensor.View[float32](src)
	parallel.Chunks(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = float32(f(float64(in[i])))
		}
	}, cfg)
}
