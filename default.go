package gpurt

import "sync"

var (
	defaultMu   sync.Mutex
	defaultDev  *Device
	defaultOpts []DeviceOption
)

// Default returns the process-wide Device, opening it on first use with
// the options given to SetDefaultOptions.
//
// The default device is meant to be driven from one goroutine at a time;
// the mutex guards only its creation and replacement.
func Default() (*Device, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDev != nil && !defaultDev.closed {
		return defaultDev, nil
	}
	dev, err := NewDevice(defaultOpts...)
	if err != nil {
		return nil, err
	}
	defaultDev = dev
	return dev, nil
}

// SetDefaultOptions sets the options used when Default opens a device.
// It does not affect a device that is already open.
func SetDefaultOptions(opts ...DeviceOption) {
	defaultMu.Lock()
	defaultOpts = append([]DeviceOption(nil), opts...)
	defaultMu.Unlock()
}

// SetDefault replaces the process-wide Device. The previous device, if any
// and different, is closed. Pass nil to clear it without opening a new one.
func SetDefault(dev *Device) error {
	defaultMu.Lock()
	old := defaultDev
	defaultDev = dev
	defaultMu.Unlock()
	if old != nil && old != dev {
		return old.Close()
	}
	return nil
}

// CloseDefault closes and clears the process-wide Device.
func CloseDefault() error {
	return SetDefault(nil)
}
