// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt"
)

// Renderer draws particle fields to a Target.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	ref    DeviceRef
	target Target
	opts   options

	device hal.Device
	queue  hal.Queue
	pipe   *particlePipeline

	// scratch holds uploads for DrawValues, grown on demand.
	scratch [4]scratchBuffer

	frames uint64
	closed bool
}

type scratchBuffer struct {
	buf  hal.Buffer
	size uint64
}

// New opens a device through target and returns a Renderer that owns it.
func New(target Target, opts ...Option) (*Renderer, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", gpurt.ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	dev, err := target.OpenDevice(o.deviceOpts...)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(Owned(dev), target, o)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return r, nil
}

// Attach returns a Renderer that borrows dev. Close the Renderer before dev.
func Attach(dev *gpurt.Device, target Target, opts ...Option) (*Renderer, error) {
	if dev == nil || target == nil {
		return nil, fmt.Errorf("%w: nil device or target", gpurt.ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newRenderer(Borrowed(dev), target, o)
}

func newRenderer(ref DeviceRef, target Target, o options) (*Renderer, error) {
	device, queue := ref.Device().Hal()
	if device == nil {
		return nil, gpurt.ErrDeviceClosed
	}
	if err := target.Bind(device, queue); err != nil {
		return nil, err
	}
	pipe, err := newParticlePipeline(device, target.Format())
	if err != nil {
		target.Release()
		return nil, err
	}
	gpurt.Logger().Debug("render: renderer ready",
		"mode", ref.Mode().String(), "adapter", ref.Device().AdapterName())
	return &Renderer{
		ref:    ref,
		target: target,
		opts:   o,
		device: device,
		queue:  queue,
		pipe:   pipe,
	}, nil
}

// Device returns the device the Renderer draws with.
func (r *Renderer) Device() *gpurt.Device { return r.ref.Device() }

// Mode reports whether the device is owned or borrowed.
func (r *Renderer) Mode() DeviceMode { return r.ref.Mode() }

// Frames returns the number of frames presented.
func (r *Renderer) Frames() uint64 { return r.frames }

func (r *Renderer) done() bool { return r.closed || r.target.Closed() }

// DrawValues uploads host arrays and draws them. The four slices must have
// the same length.
func (r *Renderer) DrawValues(posX, posY, velX, velY []float32) error {
	if r.done() {
		return nil
	}
	n := len(posX)
	if len(posY) != n || len(velX) != n || len(velY) != n {
		return fmt.Errorf("%w: %d/%d/%d/%d particles", gpurt.ErrSizeMismatch,
			len(posX), len(posY), len(velX), len(velY))
	}
	var srcs [4]particleSource
	if n > 0 {
		for i, vals := range [4][]float32{posX, posY, velX, velY} {
			src, err := r.upload(i, vals)
			if err != nil {
				return err
			}
			srcs[i] = src
		}
	}
	return r.present(srcs, n)
}

func (r *Renderer) upload(slot int, vals []float32) (particleSource, error) {
	size := uint64(len(vals)) * 4 //nolint:gosec // G115: length is non-negative
	s := &r.scratch[slot]
	if s.buf == nil || s.size < size {
		if s.buf != nil {
			r.device.DestroyBuffer(s.buf)
			s.buf = nil
		}
		buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("particles_scratch_%d", slot),
			Size:  size,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return particleSource{}, fmt.Errorf("create scratch buffer: %w", err)
		}
		s.buf, s.size = buf, size
	}
	data := make([]byte, size)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	if err := r.queue.WriteBuffer(s.buf, 0, data); err != nil {
		return particleSource{}, fmt.Errorf("upload particle slot %d: %w", slot, err)
	}
	return particleSource{buf: s.buf, size: size}, nil
}

// DrawHandles draws directly from buffers registered on dev without
// copying them. dev must be the Renderer's device; the buffers must be
// float32 arrays of equal length.
func (r *Renderer) DrawHandles(dev *gpurt.Device, posX, posY, velX, velY gpurt.Handle) error {
	if r.done() {
		return nil
	}
	if dev != r.ref.Device() {
		return fmt.Errorf("%w: handles belong to another device", gpurt.ErrCrossDevice)
	}
	var (
		srcs [4]particleSource
		n    = -1
	)
	for i, h := range [4]gpurt.Handle{posX, posY, velX, velY} {
		b, err := dev.Buffer(h)
		if err != nil {
			return err
		}
		if b.IsScalar() {
			return fmt.Errorf("%w: handle %d", gpurt.ErrScalarBuffer, h)
		}
		if n >= 0 && b.Len() != n {
			return fmt.Errorf("%w: handle %d has %d elements, want %d", gpurt.ErrSizeMismatch, h, b.Len(), n)
		}
		n = b.Len()
		if b.Type() != gpurt.Float32 {
			return fmt.Errorf("%w: handle %d is %s, want float", gpurt.ErrInvalidArgument, h, b.Type())
		}
		srcs[i] = particleSource{buf: b.Raw(), size: uint64(b.Len()) * 4} //nolint:gosec // G115: non-negative
	}
	return r.present(srcs, n)
}

func (r *Renderer) present(srcs [4]particleSource, n int) error {
	err := r.target.Present(func(view hal.TextureView, w, h uint32) error {
		return r.pipe.draw(r.queue, view, &r.opts, w, h, srcs, n)
	})
	if err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	r.frames++
	return nil
}

// Poll drains pending events and reports whether the target is still open.
func (r *Renderer) Poll() bool {
	if r.closed {
		return false
	}
	return r.target.Poll()
}

// IsOpen reports whether draws still reach the target.
func (r *Renderer) IsOpen() bool { return !r.done() }

// Close releases the pipeline and the target, and closes the device if it
// is owned. It is safe to call more than once.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for i := range r.scratch {
		if r.scratch[i].buf != nil {
			r.device.DestroyBuffer(r.scratch[i].buf)
			r.scratch[i] = scratchBuffer{}
		}
	}
	r.pipe.destroy()
	r.target.Release()
	return r.ref.release()
}
