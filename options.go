package gpurt

import "time"

// Backend selects the HAL backend a Device opens.
type Backend string

const (
	// BackendVulkan opens a hardware adapter through Vulkan.
	BackendVulkan Backend = "vulkan"
	// BackendNoop opens the HAL no-op device. Commands complete immediately
	// and buffer contents are not computed; useful for plumbing tests and
	// dry runs on machines without a GPU.
	BackendNoop Backend = "noop"
)

// DefaultWaitInterval is how long a single fence wait blocks before the
// dispatch engine logs and waits again.
const DefaultWaitInterval = 5 * time.Second

// DeviceOption configures a Device during creation.
//
// Example:
//
//	dev, err := gpurt.NewDevice(
//	    gpurt.WithBackend(gpurt.BackendVulkan),
//	    gpurt.WithAdapter("NVIDIA"),
//	)
type DeviceOption func(*deviceOptions)

type deviceOptions struct {
	backend      Backend
	adapter      string
	label        string
	waitInterval time.Duration
	shaderCache  int
}

func defaultOptions() deviceOptions {
	return deviceOptions{
		backend:      BackendVulkan,
		label:        "gpurt",
		waitInterval: DefaultWaitInterval,
	}
}

// WithBackend selects the HAL backend. The default is BackendVulkan.
func WithBackend(b Backend) DeviceOption {
	return func(o *deviceOptions) {
		o.backend = b
	}
}

// WithAdapter restricts adapter selection to adapters whose name contains
// substr (case-insensitive). Without it, a discrete or integrated GPU is
// preferred, falling back to the first adapter.
func WithAdapter(substr string) DeviceOption {
	return func(o *deviceOptions) {
		o.adapter = substr
	}
}

// WithLabel sets the prefix used for GPU object labels.
func WithLabel(label string) DeviceOption {
	return func(o *deviceOptions) {
		if label != "" {
			o.label = label
		}
	}
}

// WithWaitInterval sets the per-wait fence timeout. Dispatches never fail
// on timeout; the interval only controls how often a long wait is logged.
func WithWaitInterval(d time.Duration) DeviceOption {
	return func(o *deviceOptions) {
		if d > 0 {
			o.waitInterval = d
		}
	}
}

// WithShaderCache keeps up to n recent WGSL translations, keyed by source
// text, so compiling the same kernel again skips naga and reflection.
// Pipelines are still built on every Compile. The default 0 disables it.
func WithShaderCache(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.shaderCache = max(n, 0)
	}
}
