// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sph runs a 2D smoothed particle hydrodynamics dam break on a
// gpurt device.
//
// A block of fluid fills [0, 0.3) x [0, 0.6) of the unit square and
// collapses under gravity. All state lives in persistent device buffers;
// each step rebuilds a 40x40 hash grid on the GPU and runs the density,
// force and integration kernels against the same handles, so a renderer
// can draw the particles without any readback.
//
// Constants (smoothing length 0.025, rest density 1000, stiffness 1000,
// viscosity 2, dt 1e-4) are baked into the kernels. The particle mass is a
// scalar buffer: rest density times spacing squared.
package sph
