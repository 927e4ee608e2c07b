//go:build windows

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// defaultMaxStorageBuffers is the WebGPU default for
// maxStorageBuffersPerShaderStage. Devices are requested with default
// limits, so this is the ceiling that applies.
const defaultMaxStorageBuffers = 8

type device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     string
	logger   *slog.Logger
}

// Open creates a WebGPU device on the high performance adapter.
// Returns ErrUnavailable if the native library cannot be loaded.
func Open(logger *slog.Logger) (d Device, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrUnavailable, r)
		}
	}()

	if logger == nil {
		logger = slog.Default()
	}

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrUnavailable, err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrUnavailable, err)
	}

	info := "unknown adapter"
	if ai, err := adapter.GetInfo(); err == nil && ai != nil {
		info = fmt.Sprintf("%s %s (%s)", ai.Vendor, ai.Device, ai.Description)
	}

	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrUnavailable, err)
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to get queue", ErrUnavailable)
	}

	d = &device{
		instance: instance,
		adapter:  adapter,
		device:   dev,
		queue:    queue,
		info:     info,
		logger:   logger,
	}
	logger.Debug("webgpu device ready", "adapter", d.Info())
	return d, nil
}

func (d *device) Info() string { return d.info }

func (d *device) Limits() Limits {
	return Limits{MaxStorageBuffersPerShaderStage: defaultMaxStorageBuffers}
}

type buffer struct {
	label  string
	size   uint64
	usage  Usage
	handle *wgpu.Buffer

	maps mapState
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() uint64  { return b.size }
func (b *buffer) Usage() Usage  { return b.usage }

func (b *buffer) Release() {
	_ = b.maps.settle(context.Background())
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}

func wgpuUsage(u Usage) wgpu.BufferUsage {
	switch u {
	case Read, ReadWrite:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	case Staging:
		return wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
	default:
		panic(fmt.Sprintf("gpu: unknown usage %d", u))
	}
}

func (d *device) CreateBuffer(label string, usage Usage, data []byte) Buffer {
	size := uint64(len(data))

	// Create buffer with MappedAtCreation for initial data upload
	handle := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpuUsage(usage),
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := handle.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	handle.Unmap()

	return &buffer{label: label, size: size, usage: usage, handle: handle}
}

func (d *device) CreateZeroBuffer(label string, usage Usage, size uint64) Buffer {
	// WebGPU zero-initializes new buffers.
	handle := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpuUsage(usage),
		Size:  size,
	})
	return &buffer{label: label, size: size, usage: usage, handle: handle}
}

type pipeline struct {
	shader    *wgpu.ShaderModule
	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup
}

func (p *pipeline) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.shader != nil {
		p.shader.Release()
	}
}

func (d *device) CreatePipeline(label, code string, buffers []Buffer) (Pipeline, error) {
	shader := d.device.CreateShaderModuleWGSL(code)
	if shader == nil {
		return nil, fmt.Errorf("gpu: compile shader %q failed", label)
	}

	// Auto layout (nil layout) derived from the shader's declarations.
	cp := d.device.CreateComputePipelineSimple(nil, shader, "main")
	if cp == nil {
		shader.Release()
		return nil, fmt.Errorf("gpu: create pipeline %q failed", label)
	}

	entries := make([]wgpu.BindGroupEntry, len(buffers))
	for i, b := range buffers {
		buf := asBuffer(b)
		entries[i] = wgpu.BufferBindingEntry(uint32(i), buf.handle, 0, buf.size) //nolint:gosec // binding count is bounded by device limits
	}
	bindGroup := d.device.CreateBindGroupSimple(cp.GetBindGroupLayout(0), entries)
	if bindGroup == nil {
		cp.Release()
		shader.Release()
		return nil, fmt.Errorf("gpu: create bind group %q failed", label)
	}

	return &pipeline{shader: shader, pipeline: cp, bindGroup: bindGroup}, nil
}

type encoder struct {
	enc *wgpu.CommandEncoder
}

func (e *encoder) Dispatch(p Pipeline, x uint32) {
	pl, ok := p.(*pipeline)
	if !ok {
		panic(fmt.Sprintf("gpu: foreign pipeline %T", p))
	}
	pass := e.enc.BeginComputePass(nil)
	pass.SetPipeline(pl.pipeline)
	pass.SetBindGroup(0, pl.bindGroup, nil)
	pass.DispatchWorkgroups(x, 1, 1)
	pass.End()
}

func (e *encoder) Copy(src, dst Buffer, size uint64) {
	// MapAsync polls the device until its callback fires, so this wait ends.
	_ = asBuffer(dst).maps.settle(context.Background())
	e.enc.CopyBufferToBuffer(asBuffer(src).handle, 0, asBuffer(dst).handle, 0, size)
}

func (d *device) Encode(label string, record func(Encoder)) (err error) {
	// go-webgpu reports validation failures by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gpu: submit %q: %v", label, r)
		}
	}()

	enc := d.device.CreateCommandEncoder(nil)
	record(&encoder{enc: enc})
	cmdBuffer := enc.Finish(nil)
	d.queue.Submit(cmdBuffer)
	return nil
}

func (d *device) Read(ctx context.Context, b Buffer) ([]byte, error) {
	buf := asBuffer(b)
	if buf.usage != Staging {
		return nil, fmt.Errorf("gpu: read from non-staging buffer %q", buf.label)
	}

	if err := buf.maps.settle(ctx); err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	finished := buf.maps.begin()

	go func() {
		defer finished()
		err := buf.handle.MapAsync(d.device, wgpu.MapModeRead, 0, buf.size)
		if err != nil {
			done <- result{err: fmt.Errorf("failed to map staging buffer: %w", err)}
			return
		}

		mappedPtr := buf.handle.GetMappedRange(0, buf.size)
		//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
		mappedSlice := unsafe.Slice((*byte)(mappedPtr), buf.size)
		data := make([]byte, buf.size)
		copy(data, mappedSlice)
		buf.handle.Unmap()

		done <- result{data: data}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *device) Release() {
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

func asBuffer(b Buffer) *buffer {
	buf, ok := b.(*buffer)
	if !ok {
		panic(fmt.Sprintf("gpu: foreign buffer %T", b))
	}
	return buf
}
