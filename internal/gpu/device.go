// Package gpu is a thin layer over a WebGPU device: buffers, compute
// pipelines with their bind group, command encoders and staging reads.
//
// The webgpu backend only talks to the Device interface. The go-webgpu
// implementation is built on windows, where the native library is loaded
// without CGO; other platforms get an Open that reports ErrUnavailable.
// Tests use the in-memory device from package gputest.
package gpu

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Open when no WebGPU device can be created.
var ErrUnavailable = errors.New("webgpu device not available")

// Usage selects how a buffer is created and bound.
type Usage int

// Buffer usages.
const (
	// Read buffers are storage buffers bound with read access. Copies may
	// still write them, which is how links feed block inputs.
	Read Usage = iota
	// ReadWrite buffers are storage buffers bound with read_write access.
	// They may be the source or destination of copies.
	ReadWrite
	// Staging buffers are mappable for reading and receive copies.
	Staging
)

// Access returns the WGSL access mode for a storage binding.
func (u Usage) Access() string {
	if u == Read {
		return "read"
	}
	return "read_write"
}

func (u Usage) String() string {
	switch u {
	case Read:
		return "read"
	case ReadWrite:
		return "read_write"
	case Staging:
		return "staging"
	default:
		return "unknown"
	}
}

// Buffer is a device buffer.
type Buffer interface {
	Label() string
	Size() uint64
	Usage() Usage
	Release()
}

// Pipeline is a compute pipeline bound to a fixed set of storage buffers
// (bind group 0, bindings in slice order).
type Pipeline interface {
	Release()
}

// Encoder records commands for one submission.
type Encoder interface {
	// Dispatch records a compute pass running p with x workgroups.
	Dispatch(p Pipeline, x uint32)
	// Copy records a buffer to buffer copy of size bytes.
	Copy(src, dst Buffer, size uint64)
}

// Limits reports device limits.
type Limits struct {
	MaxStorageBuffersPerShaderStage int
}

// Device is a WebGPU device with its queue.
type Device interface {
	// Info describes the adapter.
	Info() string
	Limits() Limits

	// CreateBuffer creates a buffer initialized with data.
	CreateBuffer(label string, usage Usage, data []byte) Buffer
	// CreateZeroBuffer creates a zero-filled buffer of size bytes.
	CreateZeroBuffer(label string, usage Usage, size uint64) Buffer

	// CreatePipeline compiles code (entry point "main") and binds buffers
	// to group 0 in order.
	CreatePipeline(label, code string, buffers []Buffer) (Pipeline, error)

	// Encode records commands with record and submits them to the queue.
	Encode(label string, record func(Encoder)) error

	// Read maps a staging buffer and returns a copy of its contents.
	Read(ctx context.Context, b Buffer) ([]byte, error)

	Release()
}
