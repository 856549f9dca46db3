package gpurt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestWait = time.Second

const vectorAddSource = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

@compute @workgroup_size(64)
fn add(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i < arrayLength(&result)) {
        result[i] = a[i] + b[i];
    }
}
`

const saxpySource = `
@group(0) @binding(0) var<uniform> alpha: f32;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read> y: array<f32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

@compute @workgroup_size(64)
fn saxpy(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i < arrayLength(&result)) {
        result[i] = alpha * x[i] + y[i];
    }
}
`

const intSaxpySource = `
@group(0) @binding(0) var<uniform> a: i32;
@group(0) @binding(1) var<storage, read> x: array<i32>;
@group(0) @binding(2) var<storage, read> y: array<i32>;
@group(0) @binding(3) var<storage, read_write> result: array<i32>;
@group(0) @binding(4) var<uniform> n: u32;

@compute @workgroup_size(256)
fn saxpy(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i < n) {
        result[i] = a * x[i] + y[i];
    }
}
`

// requireCompiles skips when the WGSL compiler cannot handle src.
func requireCompiles(t *testing.T, dev *Device, src, entry string) {
	t.Helper()
	p, err := dev.Compile(src, entry)
	if errors.Is(err, ErrCompile) {
		t.Skipf("naga limitation: %v", err)
	}
	require.NoError(t, err)
	p.Destroy()
}

func TestRunVectorAdd(t *testing.T) {
	dev := newGPUDevice(t)

	out, err := dev.Run(vectorAddSource, "add", 3, []BufferConfig{
		Array("a", Float32, 1, 2, 3),
		Array("b", Float32, 10, 20, 30),
		Zeros("result", Float32, 3),
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11, 22, 33}, out["result"], 1e-6)
	assert.Len(t, out, 3, "every non-scalar buffer is returned")
}

func TestRunSaxpyOmitsScalar(t *testing.T) {
	dev := newGPUDevice(t)

	out, err := dev.Run(saxpySource, "saxpy", 3, []BufferConfig{
		Scalar("alpha", Float32, 2),
		Array("x", Float32, 1, 1, 1),
		Array("y", Float32, 0, 1, 2),
		Zeros("result", Float32, 3),
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 3, 4}, out["result"], 1e-6)
	assert.NotContains(t, out, "alpha")
}

func TestRunIntSaxpy(t *testing.T) {
	dev := newGPUDevice(t)

	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	y := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	out, err := dev.Run(intSaxpySource, "saxpy", len(x), []BufferConfig{
		Scalar("a", Int32, 3),
		Array("x", Int32, x...),
		Array("y", Int32, y...),
		Zeros("result", Int32, len(x)),
		Scalar("n", Uint32, float64(len(x))),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{13, 26, 39, 52, 65, 78, 91, 104}, out["result"])
}

func TestRunTruncatesBeforeDispatch(t *testing.T) {
	dev := newGPUDevice(t)

	out, err := dev.Run(intSaxpySource, "saxpy", 2, []BufferConfig{
		Scalar("a", Int32, 1.9),
		Array("x", Int32, 3.7, -2.9),
		Array("y", Int32, 0, 0),
		Zeros("result", Int32, 2),
		Scalar("n", Uint32, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -2}, out["x"])
	assert.Equal(t, []float64{3, -2}, out["result"])
}

func TestRunWithHandlesPipeline(t *testing.T) {
	dev := newGPUDevice(t)

	a, err := dev.CreateBufferWithData(Float32, []float64{1, 2, 3})
	require.NoError(t, err)
	b, err := dev.CreateBufferWithData(Float32, []float64{10, 20, 30})
	require.NoError(t, err)
	sum, err := dev.CreateBuffer(Float32, 3)
	require.NoError(t, err)
	twice, err := dev.CreateBuffer(Float32, 3)
	require.NoError(t, err)

	require.NoError(t, dev.RunWithHandles(vectorAddSource, "add", 3, []Handle{a, b, sum}))
	// Feed the first result into a second dispatch without a host round trip.
	require.NoError(t, dev.RunWithHandles(vectorAddSource, "add", 3, []Handle{sum, sum, twice}))

	got, err := dev.Download(twice)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{22, 44, 66}, got, 1e-6)

	require.NoError(t, dev.Upload(a, []float64{0, 0, 0}))
	require.NoError(t, dev.RunWithHandles(vectorAddSource, "add", 3, []Handle{a, b, sum}))
	got, err = dev.Download(sum)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, 20, 30}, got, 1e-6)
}

func TestRunZeroGrid(t *testing.T) {
	dev := newNoopDevice(t)
	requireCompiles(t, dev, vectorAddSource, "add")

	out, err := dev.Run(vectorAddSource, "add", 0, []BufferConfig{
		Array("a", Float32),
		Array("b", Float32),
		Zeros("result", Float32, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, out["result"])
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestRunNegativeGrid(t *testing.T) {
	dev := newNoopDevice(t)

	_, err := dev.Run(vectorAddSource, "add", -1, []BufferConfig{Zeros("result", Float32, 1)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRunInvalidConfig(t *testing.T) {
	dev := newNoopDevice(t)

	_, err := dev.Run(vectorAddSource, "add", 1, []BufferConfig{{Name: "x", Type: Float32}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestRunReleasesOnCompileError(t *testing.T) {
	dev := newNoopDevice(t)

	_, err := dev.Run("fn broken( {", "add", 3, []BufferConfig{
		Array("a", Float32, 1, 2, 3),
		Zeros("result", Float32, 3),
	})
	assert.ErrorIs(t, err, ErrCompile)
	var ce *CompileError
	if assert.ErrorAs(t, err, &ce) {
		assert.NotEmpty(t, ce.Diagnostic)
	}
	assert.Equal(t, 0, dev.Stats().Live, "ephemeral buffers must be released")
}

func TestRunEntryPointNotFound(t *testing.T) {
	dev := newNoopDevice(t)
	requireCompiles(t, dev, vectorAddSource, "add")

	_, err := dev.Run(vectorAddSource, "subtract", 3, []BufferConfig{
		Array("a", Float32, 1, 2, 3),
		Array("b", Float32, 1, 2, 3),
		Zeros("result", Float32, 3),
	})
	assert.ErrorIs(t, err, ErrEntryPointNotFound)
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestRunTooFewBuffers(t *testing.T) {
	dev := newNoopDevice(t)
	requireCompiles(t, dev, vectorAddSource, "add")

	_, err := dev.Run(vectorAddSource, "add", 3, []BufferConfig{
		Array("a", Float32, 1, 2, 3),
		Zeros("result", Float32, 3),
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestRunResultKeys(t *testing.T) {
	dev := newNoopDevice(t)
	requireCompiles(t, dev, saxpySource, "saxpy")

	out, err := dev.Run(saxpySource, "saxpy", 3, []BufferConfig{
		Scalar("alpha", Float32, 2),
		Array("x", Float32, 1, 1, 1),
		Array("y", Float32, 0, 1, 2),
		Zeros("result", Float32, 3),
		Zeros("extra", Float32, 5),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y", "result", "extra"}, keys(out))
	assert.Len(t, out["extra"], 5)
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestRunWithHandlesKeepsBuffers(t *testing.T) {
	dev := newNoopDevice(t)
	requireCompiles(t, dev, vectorAddSource, "add")

	a, _ := dev.CreateBufferWithData(Float32, []float64{1, 2, 3})
	b, _ := dev.CreateBufferWithData(Float32, []float64{1, 2, 3})
	r, _ := dev.CreateBuffer(Float32, 3)

	require.NoError(t, dev.RunWithHandles(vectorAddSource, "add", 3, []Handle{a, b, r}))
	assert.Equal(t, 3, dev.Stats().Live)
	assert.ErrorIs(t, dev.RunWithHandles(vectorAddSource, "add", -2, []Handle{a, b, r}), ErrInvalidArgument)
}

func TestRunWithHandlesNegativeGridBeforeCompile(t *testing.T) {
	dev := newNoopDevice(t)
	r, err := dev.CreateBuffer(Float32, 1)
	require.NoError(t, err)

	// The grid is rejected before the source is looked at.
	err = dev.RunWithHandles("fn broken( {", "add", -1, []Handle{r})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrCompile)
}

func keys(m map[string][]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
