package cpu

import (
	"github.com/born-ml/tengu/internal/tensor"
)

// broadcastIndex precomputes, for every flat index of outShape, the flat
// index to read from an operand of shape inShape. It returns nil when the
// operand already has the output shape.
func broadcastIndex(inShape, outShape tensor.Shape) []int {
	if inShape.Equal(outShape) {
		return nil
	}

	n := outShape.NumElements()
	index := make([]int, n)
	if inShape.NumElements() == 1 {
		return index
	}

	outStrides := outShape.ComputeStrides()
	inStrides := tensor.BroadcastStrides(inShape, outShape)
	for i := range index {
		index[i] = tensor.FlatIndex(i, outStrides, inStrides)
	}
	return index
}

// at resolves an output position through an optional broadcast index.
func at(index []int, i int) int {
	if index == nil {
		return i
	}
	return index[i]
}
