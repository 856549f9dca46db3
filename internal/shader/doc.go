// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader compiles WGSL kernels to SPIR-V with naga and derives the
// compute interface (entry points, workgroup sizes, group 0 buffer
// bindings) that the dispatch engine needs to build layouts and bind groups.
package shader
