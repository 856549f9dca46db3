// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt"
)

// ErrNoSnapshot is returned by Snapshot before the first frame.
var ErrNoSnapshot = errors.New("render: no frame rendered yet")

// DrawFunc encodes and submits one frame into view.
type DrawFunc func(view hal.TextureView, width, height uint32) error

// Target is where a Renderer presents frames.
type Target interface {
	// OpenDevice opens a device able to render to this target. Used when
	// the Renderer owns its device.
	OpenDevice(opts ...gpurt.DeviceOption) (*gpurt.Device, error)

	// Bind prepares the target for rendering with device. It fails with
	// gpurt.ErrCrossDevice if the target cannot be drawn from device.
	Bind(device hal.Device, queue hal.Queue) error

	// Format is the color format of the views passed to DrawFunc.
	Format() gputypes.TextureFormat

	// Size returns the current size in pixels.
	Size() (width, height int)

	// Present runs draw for one frame and blocks until it has returned.
	Present(draw DrawFunc) error

	// Poll drains pending events without blocking and reports whether the
	// target is still open.
	Poll() bool

	// Closed reports whether the target has been closed.
	Closed() bool

	// Release frees the GPU objects created by Bind.
	Release()
}

// OffscreenTarget renders into a texture that can be read back with
// Snapshot. It works on every backend, including the no-op device.
type OffscreenTarget struct {
	width, height int

	device   hal.Device
	queue    hal.Queue
	tex      hal.Texture
	view     hal.TextureView
	rendered bool
	closed   bool
}

// NewOffscreenTarget returns a width x height offscreen target.
func NewOffscreenTarget(width, height int) *OffscreenTarget {
	return &OffscreenTarget{width: max(width, 1), height: max(height, 1)}
}

// OpenDevice opens a new device with opts.
func (t *OffscreenTarget) OpenDevice(opts ...gpurt.DeviceOption) (*gpurt.Device, error) {
	return gpurt.NewDevice(opts...)
}

// Bind creates the color texture on device.
func (t *OffscreenTarget) Bind(device hal.Device, queue hal.Queue) error {
	if t.device != nil {
		if t.device != device {
			return fmt.Errorf("%w: offscreen target already bound", gpurt.ErrCrossDevice)
		}
		return nil
	}
	//nolint:gosec // G115: dimensions are positive and small
	size := hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "particles_offscreen",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.Format(),
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "particles_offscreen_view"})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("create offscreen view: %w", err)
	}
	t.device, t.queue, t.tex, t.view = device, queue, tex, view
	return nil
}

// Format returns BGRA8Unorm.
func (t *OffscreenTarget) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

// Size returns the target size.
func (t *OffscreenTarget) Size() (int, int) { return t.width, t.height }

// Present draws into the offscreen texture.
func (t *OffscreenTarget) Present(draw DrawFunc) error {
	if t.view == nil {
		return fmt.Errorf("%w: offscreen target not bound", gpurt.ErrInvalidArgument)
	}
	//nolint:gosec // G115: dimensions are positive and small
	if err := draw(t.view, uint32(t.width), uint32(t.height)); err != nil {
		return err
	}
	t.rendered = true
	return nil
}

// Poll reports whether the target is open. Offscreen targets have no events.
func (t *OffscreenTarget) Poll() bool { return !t.closed }

// Closed reports whether Close was called.
func (t *OffscreenTarget) Closed() bool { return t.closed }

// Close marks the target closed; later draws become no-ops.
func (t *OffscreenTarget) Close() { t.closed = true }

// Release destroys the texture.
func (t *OffscreenTarget) Release() {
	if t.device == nil {
		return
	}
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
	}
	t.device, t.queue, t.tex, t.view = nil, nil, nil, nil
	t.rendered = false
}

// Snapshot reads the last rendered frame back into an RGBA image.
func (t *OffscreenTarget) Snapshot() (*image.RGBA, error) {
	if t.tex == nil || !t.rendered {
		return nil, ErrNoSnapshot
	}
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // G115: positive dimensions

	// Copies require BytesPerRow aligned to 256 bytes.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "particles_snapshot_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer t.device.DestroyBuffer(staging)

	encoder, err := beginEncoder(t.device, "particles_snapshot")
	if err != nil {
		return nil, err
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := submitAndWait(t.device, t.queue, encoder); err != nil {
		return nil, err
	}

	m, err := t.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map snapshot: %w", err)
	}
	readback := make([]byte, stagingSize)
	copy(readback, unsafe.Slice((*byte)(m.Ptr), stagingSize))
	if err := t.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap snapshot: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		src := readback[y*int(alignedBytesPerRow):]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < t.width; x++ {
			// BGRA -> RGBA
			dst[x*4+0] = src[x*4+2]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+0]
			dst[x*4+3] = src[x*4+3]
		}
	}
	return img, nil
}

var _ Target = (*OffscreenTarget)(nil)
