// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/gpurt"

// DeviceMode says whether a Renderer owns its device.
type DeviceMode int

const (
	// ModeOwned means the Renderer created the device and closes it.
	ModeOwned DeviceMode = iota
	// ModeBorrowed means the caller owns the device. The Renderer must be
	// closed before the device.
	ModeBorrowed
)

// String returns the mode name.
func (m DeviceMode) String() string {
	if m == ModeBorrowed {
		return "borrowed"
	}
	return "owned"
}

// DeviceRef is a device together with its ownership mode. Construct it
// with Owned or Borrowed so every call site states which one it means.
type DeviceRef struct {
	dev  *gpurt.Device
	mode DeviceMode
}

// Owned wraps a device the Renderer takes ownership of.
func Owned(dev *gpurt.Device) DeviceRef { return DeviceRef{dev: dev, mode: ModeOwned} }

// Borrowed wraps a device that stays owned by the caller.
func Borrowed(dev *gpurt.Device) DeviceRef { return DeviceRef{dev: dev, mode: ModeBorrowed} }

// Device returns the wrapped device.
func (r DeviceRef) Device() *gpurt.Device { return r.dev }

// Mode returns the ownership mode.
func (r DeviceRef) Mode() DeviceMode { return r.mode }

// release closes the device if it is owned.
func (r DeviceRef) release() error {
	if r.mode == ModeOwned && r.dev != nil {
		return r.dev.Close()
	}
	return nil
}
