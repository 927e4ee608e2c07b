package cpu

import (
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// Comparison operations - write 0/1 words.

// relation computes dst = a op b where a and b hold elements of dtype and
// dst receives Bool words.
func relation(op backend.RelOp, dtype tensor.DataType, dst, a, b []byte, ai, bi []int, cfg parallel.Config) {
	out := tensor.View[uint32](dst)
	switch dtype {
	case tensor.Float32:
		relationTyped(op, out, tensor.View[float32](a), tensor.View[float32](b), ai, bi, cfg)
	case tensor.Uint32, tensor.Bool:
		relationTyped(op, out, tensor.View[uint32](a), tensor.View[uint32](b), ai, bi, cfg)
	case tensor.Int32:
		relationTyped(op, out, tensor.View[int32](a), tensor.View[int32](b), ai, bi, cfg)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, dtype))
	}
}

func relationTyped[T number](op backend.RelOp, dst []uint32, a, b []T, ai, bi []int, cfg parallel.Config) {
	want := true
	switch op {
	case backend.Eq:
	case backend.Neq:
		want = false
	default:
		panic(fmt.Sprintf("relation: unknown operator %d", op))
	}

	parallel.Chunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			if (a[at(ai, i)] == b[at(bi, i)]) == want {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}, cfg)
}
