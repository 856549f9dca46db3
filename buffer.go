package gpurt

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// minAllocation is the smallest device allocation. Zero-length arrays still
// get backing memory so they can be bound.
const minAllocation = 16

// bufferUsage lets any buffer be bound as storage or uniform, drawn from
// as a vertex source, and copied in either direction.
const bufferUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageUniform |
	gputypes.BufferUsageVertex | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst

// Buffer is a typed device buffer. Type, length and scalar-ness are fixed
// at creation; only the contents change.
type Buffer struct {
	raw    hal.Buffer
	typ    ElementType
	count  int
	scalar bool
	label  string
}

// BufferInfo describes a registered buffer.
type BufferInfo struct {
	Type   ElementType
	Len    int
	Scalar bool
}

func (b *Buffer) info() BufferInfo {
	return BufferInfo{Type: b.typ, Len: b.count, Scalar: b.scalar}
}

// byteSize is the size of the element data.
func (b *Buffer) byteSize() uint64 {
	return uint64(b.count) * elementSize //nolint:gosec // G115: count is non-negative
}

// bindSize is the range bound to a kernel slot. Empty arrays bind one
// element so the binding is never zero-sized.
func (b *Buffer) bindSize() uint64 {
	if b.count == 0 {
		return elementSize
	}
	return b.byteSize()
}

// Type returns the element type.
func (b *Buffer) Type() ElementType { return b.typ }

// Len returns the element count; 1 for scalars.
func (b *Buffer) Len() int { return b.count }

// IsScalar reports whether the buffer is a scalar.
func (b *Buffer) IsScalar() bool { return b.scalar }

// Raw returns the underlying HAL buffer for interop with other HAL users
// on the same device, such as the particle renderer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

func allocationSize(count int) uint64 {
	size := uint64(count) * elementSize //nolint:gosec // G115: count is non-negative
	if size < minAllocation {
		return minAllocation
	}
	return size
}

// allocate creates device memory for count elements of type t. When init is
// nil the contents are zeroed.
func (d *Device) allocate(label string, t ElementType, count int, scalar bool, init []byte) (*Buffer, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: element type %v", ErrInvalidArgument, t)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative buffer size %d", ErrInvalidArgument, count)
	}
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  allocationSize(count),
		Usage: bufferUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	if init == nil {
		init = make([]byte, allocationSize(count))
	}
	if len(init) > 0 {
		if err := d.queue.WriteBuffer(raw, 0, init); err != nil {
			d.device.DestroyBuffer(raw)
			return nil, fmt.Errorf("initialize buffer %s: %w", label, err)
		}
	}
	b := &Buffer{raw: raw, typ: t, count: count, scalar: scalar, label: label}
	d.live++
	Logger().Debug("gpurt: buffer allocated",
		"label", label, "type", t, "len", count, "scalar", scalar)
	return b, nil
}

// release frees the device memory of b.
func (d *Device) release(b *Buffer) {
	if b == nil || b.raw == nil {
		return
	}
	d.device.DestroyBuffer(b.raw)
	b.raw = nil
	d.live--
}

// write replaces the contents of b with values converted to its type.
func (d *Device) write(b *Buffer, values []float64) error {
	if len(values) == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(b.raw, 0, encodeValues(b.typ, values)); err != nil {
		return fmt.Errorf("write buffer %s: %w", b.label, err)
	}
	return nil
}

// read copies the contents of b back to the host through a staging buffer
// and widens every element to float64.
func (d *Device) read(b *Buffer) ([]float64, error) {
	if b.count == 0 {
		return []float64{}, nil
	}
	size := b.byteSize()
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.beginEncoder(b.label + "_readback")
	if err != nil {
		return nil, err
	}
	encoder.CopyBufferToBuffer(b.raw, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	data, err := mapRead(d.device, staging, size)
	if err != nil {
		return nil, fmt.Errorf("readback %s: %w", b.label, err)
	}
	return decodeValues(b.typ, data), nil
}

// mapRead copies the first size bytes of a MapRead staging buffer to the
// host.
func mapRead(device hal.Device, staging hal.Buffer, size uint64) ([]byte, error) {
	m, err := device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, err
	}
	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(m.Ptr), size))
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, err
	}
	return data, nil
}
