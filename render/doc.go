// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws particle fields straight from gpurt device buffers.
//
// A Renderer presents one frame per draw call to a Target: an offscreen
// texture (OffscreenTarget, readable with Snapshot) or a window surface
// (see package window). Each particle i is a point sprite centered at
// (pos_x[i], pos_y[i]) in the unit square, mapped to the full viewport,
// with a circular mask, a soft alpha edge, and a color blended from slow
// to fast by the speed |(vel_x[i], vel_y[i])|.
//
// # Device modes
//
// A Renderer either owns its gpurt.Device (New) or borrows one (Attach).
// DrawHandles only accepts buffers from the Renderer's own device, because
// zero-copy drawing binds them straight into the render pipeline:
//
//	dev, _ := gpurt.NewDevice()
//	r, _ := render.Attach(dev, render.NewOffscreenTarget(800, 800))
//	defer r.Close() // before dev.Close()
//	defer dev.Close()
//
//	px, _ := dev.CreateBufferWithData(gpurt.Float32, xs)
//	...
//	err := r.DrawHandles(dev, px, py, vx, vy)
//
// A borrowed device must outlive the Renderer. This is not enforced; close
// the Renderer first.
//
// # Lifecycle
//
// Poll drains pending window events without blocking and reports whether
// the target is still open. Once the target or the Renderer is closed every
// draw is a no-op that returns nil.
package render
