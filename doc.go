// Package gpurt is a small GPU compute runtime: typed device buffers, WGSL
// compute kernels dispatched over a 1-D grid, and zero-copy interop with a
// particle renderer.
//
// # Quick Start
//
//	dev, err := gpurt.NewDevice()
//	if err != nil {
//	    log.Fatal(err) // wraps gpurt.ErrNoDeviceFound
//	}
//	defer dev.Close()
//
//	out, err := dev.Run(addSource, "add", 3, []gpurt.BufferConfig{
//	    gpurt.Array("a", gpurt.Float32, 1, 2, 3),
//	    gpurt.Array("b", gpurt.Float32, 10, 20, 30),
//	    gpurt.Zeros("result", gpurt.Float32, 3),
//	})
//	// out["result"] == []float64{11, 22, 33}
//
// # Buffers
//
// Buffers hold float32, int32 or uint32 elements. Host values are float64
// and are truncated on upload (toward zero for integers) and widened on
// download; precision lost on upload is not recovered.
//
// Buffers are either arrays or scalars. Kernels see buffer i of a dispatch
// at @group(0) @binding(i); arrays are usually declared
// var<storage, read> or var<storage, read_write> and scalars var<uniform>.
//
// # Execution paths
//
// Device.Run is the one-shot path: it allocates ephemeral buffers from
// BufferConfigs, compiles, dispatches, downloads every non-scalar buffer
// and releases everything, even on failure.
//
// The persistent path keeps buffers alive across dispatches under integer
// handles: CreateBuffer, CreateBufferWithData, CreateScalarBuffer, Upload,
// SetScalar, Download and RunWithHandles. Handles start at 1 and are never
// reused; all buffers are released together by Device.Close.
//
// # Thread groups
//
// A kernel's thread-group width is min(@workgroup_size, gridSize). The
// dispatch covers the grid with ceil(gridSize / @workgroup_size)
// workgroups, so kernels must bounds-check their invocation id. A grid of
// zero submits no work and succeeds; a negative grid is an error.
//
// # Concurrency
//
// A Device is driven by one goroutine at a time and every call blocks
// until the GPU is done. The process-wide device returned by Default
// follows the same rule.
//
// # Logging
//
// gpurt is silent by default. Use SetLogger to route diagnostics to a
// slog.Logger.
package gpurt
