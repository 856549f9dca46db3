package gpurt

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/gpurt/internal/shader"
)

// Device owns a GPU queue and a registry of typed buffers.
//
// A Device either owns its HAL device (NewDevice) or borrows one from an
// external provider such as a gogpu window (NewSharedDevice). In both cases
// the buffer registry belongs to the Device alone.
//
// Device is not safe for concurrent use. Every operation blocks until the
// GPU has finished the work it submitted.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapter  string
	opts     deviceOptions
	buffers  *registry
	shaders  *shader.Translator
	live     int // allocations not yet released, registered or not
	closed   bool
	external bool // true when the HAL device is borrowed (don't destroy on Close)
}

// AdapterInfo describes an adapter reported by a backend.
type AdapterInfo struct {
	Name       string
	DeviceType string
	Backend    Backend
}

func openInstance(b Backend) (hal.Instance, error) {
	switch b {
	case BackendNoop:
		api := noop.API{}
		return api.CreateInstance(nil)
	case BackendVulkan, "":
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoDeviceFound)
		}
		return backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidArgument, b)
}

func selectAdapter(adapters []hal.ExposedAdapter, name string) *hal.ExposedAdapter {
	if name != "" {
		for i := range adapters {
			if strings.Contains(strings.ToLower(adapters[i].Info.Name), strings.ToLower(name)) {
				return &adapters[i]
			}
		}
		return nil
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	if len(adapters) == 0 {
		return nil
	}
	return &adapters[0]
}

// NewDevice opens a GPU device and returns a Device that owns it.
// It fails with ErrNoDeviceFound when no adapter can be opened.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	instance, err := openInstance(o.backend)
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoDeviceFound, err)
	}
	selected := selectAdapter(instance.EnumerateAdapters(nil), o.adapter)
	if selected == nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapter matches %q", ErrNoDeviceFound, o.adapter)
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open %s: %w", ErrNoDeviceFound, selected.Info.Name, err)
	}

	Logger().Info("gpurt: device opened",
		"adapter", selected.Info.Name, "type", selected.Info.DeviceType, "backend", o.backend)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		opts:     o,
		buffers:  newRegistry(),
		shaders:  shader.NewTranslator(o.shaderCache),
	}, nil
}

// NewSharedDevice returns a Device that borrows the HAL device and queue of
// provider, typically a gogpu window's GPU context provider. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
//
// Close releases the buffers of the Device but leaves the borrowed HAL
// device alive. The Device must be closed before the provider is.
func NewSharedDevice(provider any, opts ...DeviceOption) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrInvalidArgument)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrInvalidArgument)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrInvalidArgument)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	Logger().Info("gpurt: device shared from provider")
	return &Device{
		device:   device,
		queue:    queue,
		adapter:  "shared",
		opts:     o,
		buffers:  newRegistry(),
		shaders:  shader.NewTranslator(o.shaderCache),
		external: true,
	}, nil
}

// ListAdapters reports the adapters visible to a backend.
func ListAdapters(b Backend) ([]AdapterInfo, error) {
	instance, err := openInstance(b)
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	out := make([]AdapterInfo, 0, len(adapters))
	for i := range adapters {
		out = append(out, AdapterInfo{
			Name:       adapters[i].Info.Name,
			DeviceType: fmt.Sprint(adapters[i].Info.DeviceType),
			Backend:    b,
		})
	}
	return out, nil
}

// AdapterName returns the name of the adapter the device was opened on,
// or "shared" for borrowed devices.
func (d *Device) AdapterName() string { return d.adapter }

// Shared reports whether the HAL device is borrowed.
func (d *Device) Shared() bool { return d.external }

// Hal returns the HAL device and queue for components that encode their
// own commands against this device's buffers.
func (d *Device) Hal() (hal.Device, hal.Queue) { return d.device, d.queue }

// HalDevice returns the underlying HAL device. Together with HalQueue it
// lets another component share this device.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() any { return d.queue }

// Stats reports the buffers currently registered.
func (d *Device) Stats() Stats {
	s := d.buffers.stats()
	s.Live = d.live
	cs := d.shaders.Stats()
	s.Shaders, s.ShaderHits = cs.Len, cs.Hits
	return s
}

// Close releases every registered buffer, then the HAL device if the Device
// owns it. Close is idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	n := d.buffers.releaseAll(d.release)

	if !d.external {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	Logger().Info("gpurt: device closed", "released", n, "shared", d.external)
	return nil
}

func (d *Device) checkOpen() error {
	if d == nil || d.closed {
		return ErrDeviceClosed
	}
	return nil
}

func (d *Device) nextLabel(kind string) string {
	return fmt.Sprintf("%s_%s_%d", d.opts.label, kind, d.buffers.next)
}

// CreateBuffer allocates a zero-initialized array of size elements and
// returns its handle.
func (d *Device) CreateBuffer(t ElementType, size int) (Handle, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	b, err := d.allocate(d.nextLabel("array"), t, size, false, nil)
	if err != nil {
		return 0, err
	}
	return d.buffers.add(b), nil
}

// CreateBufferWithData allocates an array initialized from values, which
// are truncated to t.
func (d *Device) CreateBufferWithData(t ElementType, values []float64) (Handle, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	if !t.valid() {
		return 0, fmt.Errorf("%w: element type %v", ErrInvalidArgument, t)
	}
	b, err := d.allocate(d.nextLabel("array"), t, len(values), false, encodeValues(t, values))
	if err != nil {
		return 0, err
	}
	return d.buffers.add(b), nil
}

// CreateScalarBuffer allocates a single-element scalar holding value
// truncated to t.
func (d *Device) CreateScalarBuffer(t ElementType, value float64) (Handle, error) {
	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	if !t.valid() {
		return 0, fmt.Errorf("%w: element type %v", ErrInvalidArgument, t)
	}
	b, err := d.allocate(d.nextLabel("scalar"), t, 1, true, encodeValues(t, []float64{value}))
	if err != nil {
		return 0, err
	}
	return d.buffers.add(b), nil
}

// Upload replaces the contents of an array buffer. It fails with
// ErrNotArray for scalars and ErrSizeMismatch when len(values) differs
// from the buffer length.
func (d *Device) Upload(h Handle, values []float64) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	b, err := d.buffers.lookup(h)
	if err != nil {
		return err
	}
	if b.scalar {
		return fmt.Errorf("%w: handle %d", ErrNotArray, h)
	}
	if len(values) != b.count {
		return fmt.Errorf("%w: handle %d holds %d elements, got %d", ErrSizeMismatch, h, b.count, len(values))
	}
	return d.write(b, values)
}

// SetScalar replaces the value of a scalar buffer. It fails with
// ErrNotScalar for arrays.
func (d *Device) SetScalar(h Handle, value float64) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	b, err := d.buffers.lookup(h)
	if err != nil {
		return err
	}
	if !b.scalar {
		return fmt.Errorf("%w: handle %d", ErrNotScalar, h)
	}
	return d.write(b, []float64{value})
}

// Download copies a buffer back to the host, widening each element to
// float64. Repeated downloads without intervening writes return equal data.
func (d *Device) Download(h Handle) ([]float64, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	b, err := d.buffers.lookup(h)
	if err != nil {
		return nil, err
	}
	return d.read(b)
}

// Info describes a registered buffer.
func (d *Device) Info(h Handle) (BufferInfo, error) {
	if err := d.checkOpen(); err != nil {
		return BufferInfo{}, err
	}
	b, err := d.buffers.lookup(h)
	if err != nil {
		return BufferInfo{}, err
	}
	return b.info(), nil
}

// Buffer returns the registered buffer for h.
func (d *Device) Buffer(h Handle) (*Buffer, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return d.buffers.lookup(h)
}
