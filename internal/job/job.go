// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package job reads and writes YAML descriptions of one-shot kernel runs.
//
// A job names a kernel (a WGSL file relative to the job file, or inline
// source) and one or more runs, each with a grid size and buffer list:
//
//	kernel: saxpy.wgsl
//	entry: saxpy
//	grid: 8
//	buffers:
//	  - {name: a, type: int, value: 3}
//	  - {name: x, type: int, data: [1, 2, 3, 4, 5, 6, 7, 8]}
//	  - {name: result, type: int, size: 8}
//
// Several runs against the same kernel go under runs: instead of the
// top-level grid and buffers.
package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpurt"
)

var (
	// ErrNoKernel is returned when a job has neither kernel nor source.
	ErrNoKernel = errors.New("job: no kernel or source")
	// ErrAmbiguousKernel is returned when a job has both kernel and source.
	ErrAmbiguousKernel = errors.New("job: both kernel and source set")
	// ErrNoRuns is returned when a job has no grid, buffers or runs.
	ErrNoRuns = errors.New("job: nothing to run")
	// ErrNoType is returned when a buffer omits its element type.
	ErrNoType = errors.New("job: buffer has no type")
)

// Buffer is one buffer of a run. Type is required; exactly one of Data,
// Size and Value is set.
type Buffer struct {
	Name  string             `yaml:"name"`
	Type  *gpurt.ElementType `yaml:"type"`
	Data  []float64          `yaml:"data,omitempty,flow"`
	Size  *int               `yaml:"size,omitempty"`
	Value *float64           `yaml:"value,omitempty"`
}

// Run is one dispatch of the job's kernel.
type Run struct {
	Name    string   `yaml:"name,omitempty"`
	Grid    int      `yaml:"grid"`
	Buffers []Buffer `yaml:"buffers"`
}

// Job is a kernel plus the runs to execute with it.
type Job struct {
	Kernel  string   `yaml:"kernel,omitempty"`
	Source  string   `yaml:"source,omitempty"`
	Entry   string   `yaml:"entry"`
	Grid    int      `yaml:"grid,omitempty"`
	Buffers []Buffer `yaml:"buffers,omitempty"`
	Runs    []Run    `yaml:"runs,omitempty"`

	// dir resolves Kernel; it is the directory of the loaded file.
	dir string
}

// Load reads a job file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	j, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	j.dir = filepath.Dir(path)
	return j, nil
}

// Parse decodes a job. A relative Kernel path resolves against the
// working directory.
func Parse(data []byte) (*Job, error) {
	j := &Job{Entry: "main"}
	if err := yaml.Unmarshal(data, j); err != nil {
		return nil, err
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Save writes j to path.
func Save(path string, j *Job) error {
	data, err := yaml.Marshal(j)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // G306: job files are not secret
}

// Validate checks the kernel reference and every run's buffers.
func (j *Job) Validate() error {
	switch {
	case j.Kernel == "" && j.Source == "":
		return ErrNoKernel
	case j.Kernel != "" && j.Source != "":
		return ErrAmbiguousKernel
	}
	runs := j.AllRuns()
	if len(runs) == 0 {
		return ErrNoRuns
	}
	for i, r := range runs {
		if r.Grid < 0 {
			return fmt.Errorf("run %d: %w: grid %d", i, gpurt.ErrInvalidArgument, r.Grid)
		}
		for _, b := range r.Buffers {
			if b.Type == nil {
				return fmt.Errorf("run %d: buffer %q: %w", i, b.Name, ErrNoType)
			}
		}
		if err := gpurt.ValidateConfigs(r.Configs()); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
	}
	return nil
}

// AllRuns returns the runs, treating a top-level grid and buffer list as a
// single unnamed run.
func (j *Job) AllRuns() []Run {
	if len(j.Runs) > 0 {
		return j.Runs
	}
	if j.Grid == 0 && len(j.Buffers) == 0 {
		return nil
	}
	return []Run{{Grid: j.Grid, Buffers: j.Buffers}}
}

// LoadKernel returns the job's kernel, reading it from disk if needed.
func (j *Job) LoadKernel() (*gpurt.Kernel, error) {
	if j.Source != "" {
		return gpurt.NewKernel(j.Source, j.Entry), nil
	}
	path := j.Kernel
	if !filepath.IsAbs(path) && j.dir != "" {
		path = filepath.Join(j.dir, path)
	}
	return gpurt.LoadKernel(path, j.Entry)
}

// Configs converts the run's buffers.
func (r Run) Configs() []gpurt.BufferConfig {
	out := make([]gpurt.BufferConfig, len(r.Buffers))
	for i, b := range r.Buffers {
		out[i] = gpurt.BufferConfig{Name: b.Name, Data: b.Data, Size: b.Size, Value: b.Value}
		if b.Type != nil {
			out[i].Type = *b.Type
		}
	}
	return out
}

// FromConfigs converts buffer configs to job buffers. Zero-length arrays
// become size: 0 so they survive a YAML round trip.
func FromConfigs(configs []gpurt.BufferConfig) []Buffer {
	out := make([]Buffer, len(configs))
	for i, c := range configs {
		typ := c.Type
		b := Buffer{Name: c.Name, Type: &typ, Data: c.Data, Size: c.Size, Value: c.Value}
		if c.Data != nil && len(c.Data) == 0 {
			zero := 0
			b.Data, b.Size = nil, &zero
		}
		out[i] = b
	}
	return out
}

// Result is the output of one run.
type Result struct {
	Name    string
	Grid    int
	Outputs map[string][]float64
}

// Execute compiles and runs every run of j on dev, stopping at the first
// error. Results of completed runs are returned with the error.
func (j *Job) Execute(dev *gpurt.Device) ([]Result, error) {
	k, err := j.LoadKernel()
	if err != nil {
		return nil, err
	}
	runs := j.AllRuns()
	results := make([]Result, 0, len(runs))
	for i, r := range runs {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("run%d", i)
		}
		gpurt.Logger().Debug("job: run", "name", name, "grid", r.Grid, "buffers", len(r.Buffers))
		out, err := k.Launch(dev, r.Grid, r.Configs())
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, Result{Name: name, Grid: r.Grid, Outputs: out})
	}
	return results, nil
}
