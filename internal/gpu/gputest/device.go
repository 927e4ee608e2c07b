// Package gputest provides an in-memory gpu.Device for tests.
//
// Buffers live in host memory, copies are applied at submission time and
// dispatches are recorded. Shaders are not executed; tests that need kernel
// side effects install OnDispatch.
package gputest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/tengu/internal/gpu"
)

// Buffer is an in-memory device buffer.
type Buffer struct {
	label    string
	usage    gpu.Usage
	Data     []byte
	Released bool
}

// Label implements gpu.Buffer.
func (b *Buffer) Label() string { return b.label }

// Size implements gpu.Buffer.
func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

// Usage implements gpu.Buffer.
func (b *Buffer) Usage() gpu.Usage { return b.usage }

// Release implements gpu.Buffer.
func (b *Buffer) Release() { b.Released = true }

// Pipeline records what a compute pipeline was built from.
type Pipeline struct {
	Label    string
	Code     string
	Buffers  []*Buffer
	Released bool
}

// Release implements gpu.Pipeline.
func (p *Pipeline) Release() { p.Released = true }

// Command is one recorded encoder command.
type Command struct {
	Pipeline   *Pipeline // Set for dispatches.
	Workgroups uint32
	Src, Dst   *Buffer // Set for copies.
	Size       uint64
}

// IsDispatch reports whether the command is a compute dispatch.
func (c Command) IsDispatch() bool { return c.Pipeline != nil }

// Submission is one Encode call.
type Submission struct {
	Label    string
	Commands []Command
}

// Device is an in-memory gpu.Device. The zero value is not usable; use New.
type Device struct {
	mu sync.Mutex

	limits gpu.Limits

	Buffers     []*Buffer
	Pipelines   []*Pipeline
	Submissions []Submission
	Reads       int

	// OnDispatch, when set, runs at submission for every dispatch.
	OnDispatch func(p *Pipeline)
	// SubmitErr, when set, fails every Encode.
	SubmitErr error
	// ReadGate, when set, blocks Read until a value is received or the
	// context is done.
	ReadGate chan struct{}
	// Closed is set by Release.
	Closed bool
}

var _ gpu.Device = (*Device)(nil)

// New returns a device with the given storage buffer limit.
func New(maxStorageBuffers int) *Device {
	return &Device{limits: gpu.Limits{MaxStorageBuffersPerShaderStage: maxStorageBuffers}}
}

// Info implements gpu.Device.
func (d *Device) Info() string { return "gputest" }

// Limits implements gpu.Device.
func (d *Device) Limits() gpu.Limits { return d.limits }

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(label string, usage gpu.Usage, data []byte) gpu.Buffer {
	b := &Buffer{label: label, usage: usage, Data: append([]byte(nil), data...)}
	d.mu.Lock()
	d.Buffers = append(d.Buffers, b)
	d.mu.Unlock()
	return b
}

// CreateZeroBuffer implements gpu.Device.
func (d *Device) CreateZeroBuffer(label string, usage gpu.Usage, size uint64) gpu.Buffer {
	return d.CreateBuffer(label, usage, make([]byte, size))
}

// CreatePipeline implements gpu.Device.
func (d *Device) CreatePipeline(label, code string, buffers []gpu.Buffer) (gpu.Pipeline, error) {
	p := &Pipeline{Label: label, Code: code}
	for _, b := range buffers {
		buf, err := asBuffer(b)
		if err != nil {
			return nil, err
		}
		p.Buffers = append(p.Buffers, buf)
	}
	d.mu.Lock()
	d.Pipelines = append(d.Pipelines, p)
	d.mu.Unlock()
	return p, nil
}

type encoder struct {
	commands []Command
	err      error
}

func (e *encoder) Dispatch(p gpu.Pipeline, x uint32) {
	pl, ok := p.(*Pipeline)
	if !ok {
		e.err = fmt.Errorf("gputest: foreign pipeline %T", p)
		return
	}
	e.commands = append(e.commands, Command{Pipeline: pl, Workgroups: x})
}

func (e *encoder) Copy(src, dst gpu.Buffer, size uint64) {
	s, err := asBuffer(src)
	if err != nil {
		e.err = err
		return
	}
	t, err := asBuffer(dst)
	if err != nil {
		e.err = err
		return
	}
	e.commands = append(e.commands, Command{Src: s, Dst: t, Size: size})
}

// Encode implements gpu.Device.
func (d *Device) Encode(label string, record func(gpu.Encoder)) error {
	if d.SubmitErr != nil {
		return d.SubmitErr
	}

	enc := &encoder{}
	record(enc)
	if enc.err != nil {
		return enc.err
	}

	for _, c := range enc.commands {
		switch {
		case c.IsDispatch():
			if d.OnDispatch != nil {
				d.OnDispatch(c.Pipeline)
			}
		default:
			if c.Dst.usage == gpu.Staging && c.Src.usage == gpu.Staging {
				return fmt.Errorf("gputest: copy between staging buffers %q and %q", c.Src.label, c.Dst.label)
			}
			copy(c.Dst.Data[:c.Size], c.Src.Data[:c.Size])
		}
	}

	d.mu.Lock()
	d.Submissions = append(d.Submissions, Submission{Label: label, Commands: enc.commands})
	d.mu.Unlock()
	return nil
}

// Read implements gpu.Device.
func (d *Device) Read(ctx context.Context, b gpu.Buffer) ([]byte, error) {
	buf, err := asBuffer(b)
	if err != nil {
		return nil, err
	}
	if buf.usage != gpu.Staging {
		return nil, fmt.Errorf("gputest: read from non-staging buffer %q", buf.label)
	}

	if d.ReadGate != nil {
		select {
		case <-d.ReadGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	d.Reads++
	d.mu.Unlock()
	return append([]byte(nil), buf.Data...), nil
}

// Release implements gpu.Device.
func (d *Device) Release() { d.Closed = true }

// Buffer returns the most recently created buffer with the given label.
func (d *Device) Buffer(label string) *Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.Buffers) - 1; i >= 0; i-- {
		if d.Buffers[i].label == label {
			return d.Buffers[i]
		}
	}
	return nil
}

// ReadCount returns the number of completed reads.
func (d *Device) ReadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Reads
}

var errForeign = errors.New("gputest: foreign buffer")

func asBuffer(b gpu.Buffer) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w %T", errForeign, b)
	}
	return buf, nil
}
