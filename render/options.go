// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpurt"
)

// Option configures a Renderer.
type Option func(*options)

type options struct {
	pointSize  float32
	maxSpeed   float32
	slow       [4]float32
	fast       [4]float32
	background gputypes.Color
	deviceOpts []gpurt.DeviceOption
}

func defaultOptions() options {
	return options{
		pointSize:  6,
		maxSpeed:   2,
		slow:       [4]float32{0.15, 0.45, 1.0, 1.0},
		fast:       [4]float32{1.0, 0.35, 0.1, 1.0},
		background: gputypes.Color{R: 0.02, G: 0.02, B: 0.05, A: 1},
	}
}

func toFloat4(c color.Color) [4]float32 {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return [4]float32{}
	}
	// Un-premultiply: the shader premultiplies after applying the mask.
	return [4]float32{
		float32(r) / float32(a),
		float32(g) / float32(a),
		float32(b) / float32(a),
		float32(a) / 0xffff,
	}
}

// WithPointSize sets the sprite diameter in pixels.
func WithPointSize(px float32) Option {
	return func(o *options) {
		if px > 0 {
			o.pointSize = px
		}
	}
}

// WithMaxSpeed sets the speed at which particles reach the fast color.
func WithMaxSpeed(v float32) Option {
	return func(o *options) {
		if v > 0 {
			o.maxSpeed = v
		}
	}
}

// WithColors sets the colors of resting and fast particles.
func WithColors(slow, fast color.Color) Option {
	return func(o *options) {
		o.slow = toFloat4(slow)
		o.fast = toFloat4(fast)
	}
}

// WithBackground sets the clear color.
func WithBackground(c color.Color) Option {
	return func(o *options) {
		f := toFloat4(c)
		o.background = gputypes.Color{
			R: float64(f[0] * f[3]), G: float64(f[1] * f[3]), B: float64(f[2] * f[3]), A: float64(f[3]),
		}
	}
}

// WithDeviceOptions passes options to the device New opens.
func WithDeviceOptions(opts ...gpurt.DeviceOption) Option {
	return func(o *options) {
		o.deviceOpts = append(o.deviceOpts, opts...)
	}
}
