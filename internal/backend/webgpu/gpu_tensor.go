package webgpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/gpu"
	"github.com/born-ml/tengu/internal/tensor"
)

// Tensor holds tensor data in a device buffer. The buffer is shared by every
// expression that references the tensor; the staging buffer used for
// retrieval is created on first readout and reused afterwards.
type Tensor struct {
	label  string
	shape  tensor.Shape
	count  int
	dtype  tensor.DataType
	device gpu.Device
	buffer gpu.Buffer

	mu      sync.Mutex
	staging gpu.Buffer
}

var _ backend.Tensor = (*Tensor)(nil)

// Label returns the tensor label, which is also its WGSL identifier.
func (t *Tensor) Label() string { return t.label }

// Shape returns the tensor's shape.
func (t *Tensor) Shape() tensor.Shape { return t.shape.Clone() }

// Count returns the number of elements.
func (t *Tensor) Count() int { return t.count }

// DataType returns the tensor's data type.
func (t *Tensor) DataType() tensor.DataType { return t.dtype }

// Usage returns the binding usage of the tensor's buffer.
func (t *Tensor) Usage() gpu.Usage { return t.buffer.Usage() }

// Buffer returns the underlying device buffer.
func (t *Tensor) Buffer() gpu.Buffer { return t.buffer }

// ByteSize returns the buffer size in bytes.
func (t *Tensor) ByteSize() uint64 {
	return uint64(t.count * t.dtype.Size()) //nolint:gosec // G115: count is positive
}

// stagingBuffer returns the staging buffer, creating it on first use.
func (t *Tensor) stagingBuffer() gpu.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.staging == nil {
		t.staging = t.device.CreateZeroBuffer(t.label+"_staging", gpu.Staging, t.ByteSize())
	}
	return t.staging
}

// Retrieve maps the staging buffer filled by the last readout and returns
// its contents.
func (t *Tensor) Retrieve(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	staging := t.staging
	t.mu.Unlock()

	if staging == nil {
		return nil, backend.Wrap("retrieve", fmt.Errorf("%s: %w", t.label, backend.ErrNotRetrieved))
	}

	data, err := t.device.Read(ctx, staging)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, backend.Wrap("retrieve", fmt.Errorf("%s: %w", t.label, err))
	}
	return data, nil
}

// Release releases the device buffers.
func (t *Tensor) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buffer != nil {
		t.buffer.Release()
		t.buffer = nil
	}
	if t.staging != nil {
		t.staging.Release()
		t.staging = nil
	}
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("webgpu.Tensor(%s, %v, %s)", t.label, t.shape, t.dtype)
}

func asTensor(t backend.Tensor) *Tensor {
	gt, ok := t.(*Tensor)
	if !ok {
		panic(fmt.Sprintf("webgpu: foreign tensor %T", t))
	}
	return gt
}
