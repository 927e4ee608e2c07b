package cpu

import (
	"fmt"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

type number interface {
	~float32 | ~uint32 | ~int32
}

// arithmetic computes dst = a op b over word buffers of the given type.
// ai and bi are optional broadcast indexes (see broadcastIndex).
func arithmetic(op backend.ArithOp, dtype tensor.DataType, dst, a, b []byte, ai, bi []int, cfg parallel.Config) {
	switch dtype {
	case tensor.Float32:
		arithmeticTyped(op, tensor.View[float32](dst), tensor.View[float32](a), tensor.View[float32](b), ai, bi, cfg)
	case tensor.Uint32:
		arithmeticTyped(op, tensor.View[uint32](dst), tensor.View[uint32](a), tensor.View[uint32](b), ai, bi, cfg)
	case tensor.Int32:
		arithmeticTyped(op, tensor.View[int32](dst), tensor.View[int32](a), tensor.View[int32](b), ai, bi, cfg)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, dtype))
	}
}

func arithmeticTyped[T number](op backend.ArithOp, dst, a, b []T, ai, bi []int, cfg parallel.Config) {
	var f func(x, y T) T
	switch op {
	case backend.Add:
		f = func(x, y T) T { return x + y }
	case backend.Sub:
		f = func(x, y T) T { return x - y }
	case backend.Mul:
		f = func(x, y T) T { return x * y }
	case backend.Div:
		// Integer division by zero panics like any Go integer division.
		f = func(x, y T) T { return x / y }
	default:
		panic(fmt.Sprintf("arithmetic: unknown operator %d", op))
	}

	if ai == nil && bi == nil {
		parallel.Chunks(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(a[i], b[i])
			}
		}, cfg)
		return
	}

	parallel.Chunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = f(a[at(ai, i)], b[at(bi, i)])
		}
	}, cfg)
}
