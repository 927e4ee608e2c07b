package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two shapes cannot be unified.
var ErrShapeMismatch = errors.New("shape mismatch")

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Unify combines two shapes using right-aligned broadcasting.
//
// Dimensions are paired from the right. A pair yields the common extent when
// both sides agree, the other side when one side is 1, and fails otherwise.
// Surplus leading dimensions of the longer shape pass through unchanged.
//
//	[4, 1, 3] + [2, 3] → [4, 2, 3]
//	[3, 1]    + [3, 5] → [3, 5]
//	[3, 4]    + [3, 5] → error
func Unify(a, b Shape) (Shape, error) {
	n := max(len(a), len(b))
	result := make(Shape, n)

	for i := 0; i < n; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[n-1-i] = aDim
		case aDim == 1:
			result[n-1-i] = bDim
		case bDim == 1:
			result[n-1-i] = aDim
		default:
			return nil, fmt.Errorf("%w: %v vs %v (dimension %d: %d vs %d)",
				ErrShapeMismatch, a, b, n-1-i, aDim, bDim)
		}
	}

	return result, nil
}

// BroadcastStrides computes strides for reading a tensor of shape in while
// iterating over shape out. Padded and size-1 dimensions get stride 0.
func BroadcastStrides(in, out Shape) []int {
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	inStrides := in.ComputeStrides()

	for i := range out {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case in[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = inStrides[inIdx]
		}
	}

	return strides
}

// FlatIndex maps a flat index over the output shape to a flat index in a
// broadcast operand, given the output strides and the operand's broadcast
// strides.
func FlatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}
