// Package webgpu implements the Tengu backend on WebGPU.
//
// Each block is compiled into one WGSL compute shader whose storage bindings
// are the block's tensors. Links become buffer to buffer copies and readout
// copies output buffers into per-tensor staging buffers that the host maps on
// retrieval.
package webgpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/gpu"
	"github.com/born-ml/tengu/internal/tensor"
)

// Name is the registry name of the WebGPU backend.
const Name = "wgpu"

func init() {
	backend.Register(Name, func(ctx context.Context, opts backend.Options) (backend.Backend, error) {
		return New(ctx, opts)
	})
}

// MemoryStats reports buffer allocations made by the backend.
type MemoryStats struct {
	TotalAllocatedBytes uint64
	ActiveTensors       int
}

// Backend executes blocks on a WebGPU device.
type Backend struct {
	device gpu.Device
	logger *slog.Logger

	mu      sync.Mutex
	tensors []*Tensor
	stats   MemoryStats
}

var _ backend.Backend = (*Backend)(nil)

// New opens the default WebGPU device and creates a backend on it.
// Returns an error wrapping backend.ErrUnavailable when no device exists.
func New(ctx context.Context, opts backend.Options) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dev, err := gpu.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrUnavailable, err)
	}
	return NewWithDevice(dev, opts), nil
}

// NewWithDevice creates a backend on an already opened device. The backend
// takes ownership of the device and releases it on Close.
func NewWithDevice(dev gpu.Device, opts backend.Options) *Backend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("wgpu backend ready", "device", dev.Info(), "max_storage_buffers", dev.Limits().MaxStorageBuffersPerShaderStage)
	return &Backend{device: dev, logger: logger}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Limits returns the device limits that constrain shader synthesis.
func (b *Backend) Limits() backend.Limits {
	return backend.Limits{MaxStorageBuffers: b.device.Limits().MaxStorageBuffersPerShaderStage}
}

// Device returns the underlying device.
func (b *Backend) Device() gpu.Device {
	return b.device
}

// MemoryStats returns a snapshot of the allocation counters.
func (b *Backend) MemoryStats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *Backend) track(t *Tensor) *Tensor {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tensors = append(b.tensors, t)
	b.stats.TotalAllocatedBytes += t.ByteSize()
	b.stats.ActiveTensors++
	return t
}

// Zero allocates a zero-initialized read_write tensor.
func (b *Backend) Zero(label string, shape tensor.Shape, dtype tensor.DataType) backend.Tensor {
	count := shape.NumElements()
	size := uint64(count * dtype.Size()) //nolint:gosec // G115: count is positive
	return b.track(&Tensor{
		label:  label,
		shape:  shape.Clone(),
		count:  count,
		dtype:  dtype,
		device: b.device,
		buffer: b.device.CreateZeroBuffer(label, gpu.ReadWrite, size),
	})
}

// Tensor allocates a read-only tensor initialized from host bytes.
func (b *Backend) Tensor(label string, shape tensor.Shape, dtype tensor.DataType, data []byte) backend.Tensor {
	count := shape.NumElements()
	if len(data) != count*dtype.Size() {
		panic(fmt.Sprintf("tensor: %d bytes for %d elements of %s", len(data), count, dtype))
	}
	return b.track(&Tensor{
		label:  label,
		shape:  shape.Clone(),
		count:  count,
		dtype:  dtype,
		device: b.device,
		buffer: b.device.CreateBuffer(label, gpu.Read, data),
	})
}

// Compute returns the compute operation for a block.
func (b *Backend) Compute(label string) backend.Operation {
	return &computeOp{b: b, label: label}
}

// Propagate returns the link propagation operation.
func (b *Backend) Propagate(label string) backend.Operation {
	return &batchOp{b: b, op: "propagate", label: label, processor: propagateProcessor{}}
}

// Readout returns the staging operation for a block.
func (b *Backend) Readout(label string) backend.Operation {
	return &batchOp{b: b, op: "readout", label: label, processor: readoutProcessor{}}
}

// Close releases every tensor buffer and the device.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.tensors {
		t.Release()
	}
	b.tensors = nil
	b.stats.ActiveTensors = 0
	b.device.Release()
	return nil
}
