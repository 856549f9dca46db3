package gpurt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newNoopDevice opens a Device on the HAL no-op backend. Commands complete
// immediately, so it exercises plumbing and validation but not results.
func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := NewDevice(WithBackend(BackendNoop), WithWaitInterval(defaultTestWait))
	if err != nil {
		t.Fatalf("NewDevice(noop): %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

// newGPUDevice opens a hardware device or skips the test.
func newGPUDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := NewDevice()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

func TestNewDeviceUnknownBackend(t *testing.T) {
	_, err := NewDevice(WithBackend("metal2"))
	if !errors.Is(err, ErrNoDeviceFound) || !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewDevice(unknown) = %v, want ErrNoDeviceFound wrapping ErrInvalidArgument", err)
	}
}

func TestNewDeviceNoMatchingAdapter(t *testing.T) {
	_, err := NewDevice(WithBackend(BackendNoop), WithAdapter("no-such-adapter-name"))
	if !errors.Is(err, ErrNoDeviceFound) {
		t.Errorf("NewDevice = %v, want ErrNoDeviceFound", err)
	}
}

func TestDeviceHandlesMonotonic(t *testing.T) {
	dev := newNoopDevice(t)

	h1, err := dev.CreateBuffer(Float32, 4)
	require.NoError(t, err)
	h2, err := dev.CreateBufferWithData(Int32, []float64{1, 2, 3})
	require.NoError(t, err)
	h3, err := dev.CreateScalarBuffer(Uint32, 9)
	require.NoError(t, err)

	assert.Equal(t, Handle(1), h1)
	assert.Less(t, h1, h2)
	assert.Less(t, h2, h3)
	assert.Equal(t, 3, dev.Stats().Buffers)
}

func TestDeviceInfo(t *testing.T) {
	dev := newNoopDevice(t)

	arr, err := dev.CreateBufferWithData(Int32, []float64{3.7, -2.9})
	require.NoError(t, err)
	sc, err := dev.CreateScalarBuffer(Float32, 2)
	require.NoError(t, err)

	info, err := dev.Info(arr)
	require.NoError(t, err)
	assert.Equal(t, BufferInfo{Type: Int32, Len: 2, Scalar: false}, info)

	info, err = dev.Info(sc)
	require.NoError(t, err)
	assert.Equal(t, BufferInfo{Type: Float32, Len: 1, Scalar: true}, info)
}

func TestDeviceCreateInvalid(t *testing.T) {
	dev := newNoopDevice(t)

	_, err := dev.CreateBuffer(Float32, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = dev.CreateBufferWithData(ElementType(5), []float64{1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = dev.CreateScalarBuffer(ElementType(-1), 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, dev.Stats().Buffers, "failed creations must not register")
}

func TestDeviceScalarArrayMisuse(t *testing.T) {
	dev := newNoopDevice(t)

	arr, err := dev.CreateBuffer(Float32, 3)
	require.NoError(t, err)
	sc, err := dev.CreateScalarBuffer(Float32, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, dev.SetScalar(arr, 1), ErrNotScalar)
	assert.ErrorIs(t, dev.Upload(sc, []float64{1}), ErrNotArray)
	assert.ErrorIs(t, dev.Upload(arr, []float64{1, 2}), ErrSizeMismatch)
	assert.ErrorIs(t, dev.Upload(arr, []float64{1, 2, 3, 4}), ErrSizeMismatch)
	assert.NoError(t, dev.Upload(arr, []float64{1, 2, 3}))
	assert.NoError(t, dev.SetScalar(sc, 5))
}

func TestDeviceUnknownHandle(t *testing.T) {
	dev := newNoopDevice(t)

	for _, h := range []Handle{0, 1, -3, 42} {
		assert.ErrorIs(t, dev.Upload(h, nil), ErrUnknownHandle)
		assert.ErrorIs(t, dev.SetScalar(h, 0), ErrUnknownHandle)
		_, err := dev.Download(h)
		assert.ErrorIs(t, err, ErrUnknownHandle)
		_, err = dev.Info(h)
		assert.ErrorIs(t, err, ErrUnknownHandle)
		assert.ErrorIs(t, dev.RunWithHandles(vectorAddSource, "add", 1, []Handle{h}), ErrUnknownHandle)
	}
}

func TestDeviceDownloadEmpty(t *testing.T) {
	dev := newNoopDevice(t)

	h, err := dev.CreateBuffer(Float32, 0)
	require.NoError(t, err)
	got, err := dev.Download(h)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestDeviceDownloadIdempotent(t *testing.T) {
	dev := newNoopDevice(t)

	h, err := dev.CreateBufferWithData(Float32, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	first, err := dev.Download(h)
	require.NoError(t, err)
	second, err := dev.Download(h)
	require.NoError(t, err)
	assert.Len(t, first, 4)
	assert.Equal(t, first, second)
}

// foreignBuffer is a HAL buffer the no-op queue refuses to write to.
type foreignBuffer struct{}

func (foreignBuffer) Destroy()              {}
func (foreignBuffer) NativeHandle() uintptr { return 0 }

func TestDeviceWriteErrors(t *testing.T) {
	dev := newNoopDevice(t)

	arr := dev.buffers.add(&Buffer{raw: foreignBuffer{}, typ: Float32, count: 2, label: "foreign_array"})
	scalar := dev.buffers.add(&Buffer{raw: foreignBuffer{}, typ: Int32, count: 1, scalar: true, label: "foreign_scalar"})
	dev.live += 2

	err := dev.Upload(arr, []float64{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign_array")

	err = dev.SetScalar(scalar, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign_scalar")

	// Empty uploads never reach the queue.
	empty := dev.buffers.add(&Buffer{raw: foreignBuffer{}, typ: Float32, label: "foreign_empty"})
	dev.live++
	assert.NoError(t, dev.Upload(empty, nil))
}

func TestDeviceClose(t *testing.T) {
	dev, err := NewDevice(WithBackend(BackendNoop))
	require.NoError(t, err)

	h, err := dev.CreateBuffer(Float32, 8)
	require.NoError(t, err)
	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close(), "Close must be idempotent")

	_, err = dev.Download(h)
	assert.ErrorIs(t, err, ErrDeviceClosed)
	_, err = dev.CreateBuffer(Float32, 1)
	assert.ErrorIs(t, err, ErrDeviceClosed)
	_, err = dev.Run(vectorAddSource, "add", 3, nil)
	assert.ErrorIs(t, err, ErrDeviceClosed)
}

func TestNewSharedDevice(t *testing.T) {
	owner := newNoopDevice(t)

	shared, err := NewSharedDevice(owner)
	require.NoError(t, err)
	assert.True(t, shared.Shared())
	assert.Equal(t, owner.HalDevice(), shared.HalDevice())

	h, err := shared.CreateBuffer(Float32, 4)
	require.NoError(t, err)
	assert.Equal(t, Handle(1), h, "shared device has its own registry")
	_, err = owner.Info(h)
	assert.ErrorIs(t, err, ErrUnknownHandle)

	require.NoError(t, shared.Close())
	// The owner's HAL device must survive the borrower closing.
	_, err = owner.CreateBuffer(Float32, 4)
	assert.NoError(t, err)
}

func TestNewSharedDeviceRejectsProvider(t *testing.T) {
	_, err := NewSharedDevice(struct{}{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListAdaptersNoop(t *testing.T) {
	adapters, err := ListAdapters(BackendNoop)
	require.NoError(t, err)
	require.NotEmpty(t, adapters)
	assert.Equal(t, BackendNoop, adapters[0].Backend)
}
