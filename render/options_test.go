// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"image/color"
	"math"
	"testing"
)

func TestOptions(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithPointSize(10),
		WithPointSize(-1),
		WithMaxSpeed(4),
		WithMaxSpeed(0),
		WithColors(color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 128, 128}),
		WithBackground(color.RGBA{0, 0, 0, 0}),
	} {
		opt(&o)
	}
	if o.pointSize != 10 {
		t.Errorf("pointSize = %v, want 10", o.pointSize)
	}
	if o.maxSpeed != 4 {
		t.Errorf("maxSpeed = %v, want 4", o.maxSpeed)
	}
	if o.slow != [4]float32{1, 0, 0, 1} {
		t.Errorf("slow = %v, want opaque red", o.slow)
	}
	// Premultiplied input is stored straight.
	if o.fast[2] != 1 || math.Abs(float64(o.fast[3])-128.0/255) > 1e-3 {
		t.Errorf("fast = %v, want straight blue at half alpha", o.fast)
	}
	if o.background.A != 0 {
		t.Errorf("background alpha = %v, want 0", o.background.A)
	}
}

func TestEncodeParams(t *testing.T) {
	o := defaultOptions()
	buf := encodeParams(&o, 800, 600)
	if len(buf) != paramsSize {
		t.Fatalf("len = %d, want %d", len(buf), paramsSize)
	}
	at := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])) }
	if at(0) != 800 || at(1) != 600 {
		t.Errorf("viewport = %v,%v", at(0), at(1))
	}
	if at(2) != o.pointSize || at(3) != o.maxSpeed {
		t.Errorf("point size/max speed = %v,%v", at(2), at(3))
	}
	if at(4) != o.slow[0] || at(11) != o.fast[3] {
		t.Errorf("colors not packed in order")
	}
}

func TestDeviceMode(t *testing.T) {
	if ModeOwned.String() != "owned" || ModeBorrowed.String() != "borrowed" {
		t.Errorf("mode names = %q, %q", ModeOwned, ModeBorrowed)
	}
	if err := Borrowed(nil).release(); err != nil {
		t.Errorf("Borrowed(nil).release() = %v", err)
	}
	if err := Owned(nil).release(); err != nil {
		t.Errorf("Owned(nil).release() = %v", err)
	}
}
