// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package job

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gpurt"
)

const addKernel = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

@compute @workgroup_size(64)
fn add(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    if (i < arrayLength(&result)) {
        result[i] = a[i] + b[i];
    }
}
`

const saxpyJob = `
kernel: saxpy.wgsl
entry: saxpy
grid: 8
buffers:
  - {name: a, type: int, value: 3}
  - {name: x, type: int, data: [1, 2, 3, 4, 5, 6, 7, 8]}
  - {name: result, type: int, size: 8}
`

func TestParseSingleRun(t *testing.T) {
	j, err := Parse([]byte(saxpyJob))
	require.NoError(t, err)

	assert.Equal(t, "saxpy.wgsl", j.Kernel)
	assert.Equal(t, "saxpy", j.Entry)
	runs := j.AllRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, 8, runs[0].Grid)

	cfgs := runs[0].Configs()
	require.Len(t, cfgs, 3)
	assert.True(t, cfgs[0].IsScalar())
	assert.Equal(t, gpurt.Int32, cfgs[0].Type)
	assert.Equal(t, 3.0, *cfgs[0].Value)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, cfgs[1].Data)
	assert.Equal(t, 8, cfgs[2].Len())
}

func TestParseMultipleRuns(t *testing.T) {
	src := `
source: |
  @compute @workgroup_size(1) fn main() {}
runs:
  - name: small
    grid: 2
    buffers:
      - {name: out, type: float, size: 2}
  - name: empty
    grid: 0
    buffers:
      - {name: out, type: uint32, data: []}
`
	j, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "main", j.Entry, "entry defaults to main")

	runs := j.AllRuns()
	require.Len(t, runs, 2)
	assert.Equal(t, "small", runs[0].Name)
	empty := runs[1].Configs()[0]
	assert.Equal(t, gpurt.Uint32, empty.Type)
	assert.NotNil(t, empty.Data, "data: [] is a zero-length array")
	assert.Equal(t, 0, empty.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no kernel", "grid: 1\nbuffers: [{name: x, type: float, size: 1}]", ErrNoKernel},
		{"both kernel and source", "kernel: a.wgsl\nsource: x\ngrid: 1\nbuffers: [{name: x, type: float, size: 1}]", ErrAmbiguousKernel},
		{"no runs", "kernel: a.wgsl", ErrNoRuns},
		{"negative grid", "kernel: a.wgsl\ngrid: -1\nbuffers: [{name: x, type: float, size: 1}]", gpurt.ErrInvalidArgument},
		{"two initializers", "kernel: a.wgsl\ngrid: 1\nbuffers: [{name: x, type: float, size: 1, value: 2}]", gpurt.ErrInvalidArgument},
		{"missing type", "kernel: a.wgsl\ngrid: 1\nbuffers: [{name: x, size: 1}]", ErrNoType},
		{"missing type in run", "kernel: a.wgsl\nruns:\n  - grid: 1\n    buffers: [{name: x, type: int, size: 1}, {name: y, data: [1]}]", ErrNoType},
		{"duplicate names", "kernel: a.wgsl\ngrid: 1\nbuffers: [{name: x, type: float, size: 1}, {name: x, type: int, size: 1}]", gpurt.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := Parse([]byte("kernel: a.wgsl\ngrid: 1\nbuffers: [{name: x, type: double, size: 1}]"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")

	in := &Job{
		Kernel: "add.wgsl",
		Entry:  "add",
		Runs: []Run{{
			Name: "first",
			Grid: 3,
			Buffers: FromConfigs([]gpurt.BufferConfig{
				gpurt.Array("a", gpurt.Float32, 1, 2, 3),
				gpurt.Array("b", gpurt.Float32),
				gpurt.Zeros("result", gpurt.Float32, 3),
				gpurt.Scalar("k", gpurt.Uint32, 7),
			}),
		}},
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	require.Len(t, out.Runs, 1)
	cfgs := out.Runs[0].Configs()
	require.Len(t, cfgs, 4)
	assert.Equal(t, []float64{1, 2, 3}, cfgs[0].Data)
	assert.Equal(t, 0, cfgs[1].Len(), "empty array survives as size 0")
	assert.False(t, cfgs[1].IsScalar())
	assert.Equal(t, gpurt.Uint32, cfgs[3].Type)
	assert.Equal(t, 7.0, *cfgs[3].Value)
}

func TestLoadKernelRelativeToJob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "saxpy.wgsl"), []byte(addKernel), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.yaml"), []byte(saxpyJob), 0o600))

	j, err := Load(filepath.Join(dir, "job.yaml"))
	require.NoError(t, err)
	k, err := j.LoadKernel()
	require.NoError(t, err)
	assert.Equal(t, addKernel, k.Source)
	assert.Equal(t, "saxpy", k.EntryPoint)
	assert.Equal(t, filepath.Join(dir, "saxpy.wgsl"), k.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExecuteOnNoopDevice(t *testing.T) {
	dev, err := gpurt.NewDevice(gpurt.WithBackend(gpurt.BackendNoop), gpurt.WithWaitInterval(time.Second))
	require.NoError(t, err)
	defer dev.Close()

	j := &Job{
		Source: addKernel,
		Entry:  "add",
		Runs: []Run{
			{Name: "three", Grid: 3, Buffers: FromConfigs([]gpurt.BufferConfig{
				gpurt.Array("a", gpurt.Float32, 1, 2, 3),
				gpurt.Array("b", gpurt.Float32, 4, 5, 6),
				gpurt.Zeros("result", gpurt.Float32, 3),
			})},
			{Grid: 1, Buffers: FromConfigs([]gpurt.BufferConfig{
				gpurt.Array("a", gpurt.Float32, 1),
				gpurt.Array("b", gpurt.Float32, 1),
				gpurt.Zeros("result", gpurt.Float32, 1),
			})},
		},
	}
	require.NoError(t, j.Validate())

	results, err := j.Execute(dev)
	if errors.Is(err, gpurt.ErrCompile) {
		t.Skipf("naga limitation: %v", err)
	}
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "three", results[0].Name)
	assert.Equal(t, "run1", results[1].Name)

	keys := make([]string, 0, len(results[0].Outputs))
	for k := range results[0].Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b", "result"}, keys)
	assert.Len(t, results[0].Outputs["result"], 3)
	assert.Equal(t, 0, dev.Stats().Live)
}

func TestExecuteStopsAtFirstError(t *testing.T) {
	dev, err := gpurt.NewDevice(gpurt.WithBackend(gpurt.BackendNoop), gpurt.WithWaitInterval(time.Second))
	require.NoError(t, err)
	defer dev.Close()

	j := &Job{
		Source: addKernel,
		Entry:  "add",
		Runs: []Run{
			{Name: "short", Grid: 1, Buffers: FromConfigs([]gpurt.BufferConfig{
				gpurt.Zeros("result", gpurt.Float32, 1),
			})},
		},
	}
	results, err := j.Execute(dev)
	if errors.Is(err, gpurt.ErrCompile) {
		t.Skipf("naga limitation: %v", err)
	}
	assert.ErrorIs(t, err, gpurt.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "short")
	assert.Empty(t, results)
}
