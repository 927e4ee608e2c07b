package tensor

import (
	"fmt"
	"unsafe"
)

// View interprets a byte buffer as a slice of T without copying.
// The buffer length must be a multiple of the element size.
func View[T IOType](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(data)%size != 0 {
		panic(fmt.Sprintf("view: buffer of %d bytes is not a multiple of %d", len(data), size))
	}
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked above
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), len(data)/size)
}

// ToBytes returns a copy of data in host byte order.
func ToBytes[T IOType](data []T) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	var zero T
	size := len(data) * int(unsafe.Sizeof(zero))
	//nolint:gosec // unsafe.Slice for zero-copy conversion, copied right away
	src := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), size)
	out := make([]byte, size)
	copy(out, src)
	return out
}

// FromBytes returns a copy of data decoded as a slice of T.
func FromBytes[T IOType](data []byte) []T {
	view := View[T](data)
	out := make([]T, len(view))
	copy(out, view)
	return out
}

// BoolWords packs booleans into 0/1 uint32 words, the layout used for Bool
// tensors on every backend.
func BoolWords(data []bool) []uint32 {
	out := make([]uint32, len(data))
	for i, v := range data {
		if v {
			out[i] = 1
		}
	}
	return out
}
