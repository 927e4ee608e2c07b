package cpu

import (
	"github.com/born-ml/tengu/internal/parallel"
	"github.com/born-ml/tengu/internal/tensor"
)

// cast converts src words of type from into dst words of type to.
func cast(dst, src []byte, from, to tensor.DataType, cfg parallel.Config) {
	out := tensor.View[uint32](dst)
	in := tensor.View[uint32](src)

	if from == to {
		copy(out, in)
		return
	}

	parallel.Chunks(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = tensor.CastWord(in[i], from, to)
		}
	}, cfg)
}
