// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sph

import (
	"embed"
	"errors"
	"fmt"

	"github.com/gogpu/gpurt"
)

//go:embed kernels/*.wgsl
var kernelFS embed.FS

// Kernel entry points, in the order Step dispatches them.
var kernels = []struct {
	file, entry string
}{
	{"grid_count.wgsl", "count_cells"},
	{"grid_prefix.wgsl", "prefix_cells"},
	{"grid_scatter.wgsl", "scatter_cells"},
	{"density.wgsl", "compute_density"},
	{"forces.wgsl", "compute_forces"},
	{"integrate.wgsl", "integrate"},
}

const (
	kCount = iota
	kPrefix
	kScatter
	kDensity
	kForces
	kIntegrate
	numKernels
)

// ErrNoParticles is returned by New for an empty state.
var ErrNoParticles = errors.New("sph: no particles")

// Sim is a dam break whose state lives in persistent device buffers.
// Close releases the pipelines; the buffers belong to the device.
type Sim struct {
	dev   *gpurt.Device
	n     int
	steps int
	pipes [numKernels]*gpurt.Pipeline

	posX, posY, velX, velY gpurt.Handle
	density, acc           gpurt.Handle
	cellRange, sortedIdx   gpurt.Handle
	count, numCells, mass  gpurt.Handle
}

// KernelSource returns the WGSL source of the named kernel file.
func KernelSource(file string) (string, error) {
	b, err := kernelFS.ReadFile("kernels/" + file)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// New uploads s to dev and compiles the step kernels.
func New(dev *gpurt.Device, s State) (*Sim, error) {
	n := s.Len()
	if n == 0 {
		return nil, ErrNoParticles
	}
	if len(s.PosY) != n || len(s.VelX) != n || len(s.VelY) != n {
		return nil, fmt.Errorf("%w: state arrays differ in length", gpurt.ErrSizeMismatch)
	}
	sim := &Sim{dev: dev, n: n}
	if err := sim.compile(); err != nil {
		sim.Close()
		return nil, err
	}
	if err := sim.allocate(s); err != nil {
		sim.Close()
		return nil, err
	}
	gpurt.Logger().Info("sph: simulation ready", "particles", n, "cells", NumCells)
	return sim, nil
}

func (s *Sim) compile() error {
	for i, k := range kernels {
		src, err := KernelSource(k.file)
		if err != nil {
			return err
		}
		p, err := gpurt.NewKernel(src, k.entry).Compile(s.dev)
		if err != nil {
			return fmt.Errorf("sph: %s: %w", k.entry, err)
		}
		s.pipes[i] = p
	}
	return nil
}

func (s *Sim) allocate(st State) error {
	arrays := []struct {
		h    *gpurt.Handle
		t    gpurt.ElementType
		data []float64
		size int
	}{
		{&s.posX, gpurt.Float32, st.PosX, 0},
		{&s.posY, gpurt.Float32, st.PosY, 0},
		{&s.velX, gpurt.Float32, st.VelX, 0},
		{&s.velY, gpurt.Float32, st.VelY, 0},
		{&s.density, gpurt.Float32, nil, s.n},
		{&s.acc, gpurt.Float32, nil, 2 * s.n},
		{&s.cellRange, gpurt.Int32, nil, 2 * NumCells},
		{&s.sortedIdx, gpurt.Int32, nil, s.n},
	}
	for _, a := range arrays {
		var err error
		if a.data != nil {
			*a.h, err = s.dev.CreateBufferWithData(a.t, a.data)
		} else {
			*a.h, err = s.dev.CreateBuffer(a.t, a.size)
		}
		if err != nil {
			return err
		}
	}
	var err error
	if s.count, err = s.dev.CreateScalarBuffer(gpurt.Uint32, float64(s.n)); err != nil {
		return err
	}
	if s.numCells, err = s.dev.CreateScalarBuffer(gpurt.Uint32, NumCells); err != nil {
		return err
	}
	s.mass, err = s.dev.CreateScalarBuffer(gpurt.Float32, ParticleMass)
	return err
}

// Len returns the particle count.
func (s *Sim) Len() int { return s.n }

// Steps returns the number of completed steps.
func (s *Sim) Steps() int { return s.steps }

// Handles returns the position and velocity buffers for drawing.
func (s *Sim) Handles() (posX, posY, velX, velY gpurt.Handle) {
	return s.posX, s.posY, s.velX, s.velY
}

// Step advances the simulation by one time step.
func (s *Sim) Step() error {
	passes := []struct {
		kernel int
		grid   int
		bufs   []gpurt.Handle
	}{
		{kCount, NumCells, []gpurt.Handle{s.posX, s.posY, s.cellRange, s.count, s.numCells}},
		{kPrefix, 1, []gpurt.Handle{s.cellRange, s.numCells}},
		{kScatter, NumCells, []gpurt.Handle{s.posX, s.posY, s.cellRange, s.sortedIdx, s.count, s.numCells}},
		{kDensity, s.n, []gpurt.Handle{s.posX, s.posY, s.density, s.cellRange, s.sortedIdx, s.mass, s.count}},
		{kForces, s.n, []gpurt.Handle{
			s.posX, s.posY, s.velX, s.velY, s.density, s.cellRange, s.sortedIdx, s.acc, s.mass, s.count,
		}},
		{kIntegrate, s.n, []gpurt.Handle{s.posX, s.posY, s.velX, s.velY, s.acc, s.count}},
	}
	for _, p := range passes {
		if err := s.dev.Dispatch(s.pipes[p.kernel], p.grid, p.bufs); err != nil {
			return fmt.Errorf("sph: step %d: %s: %w", s.steps, kernels[p.kernel].entry, err)
		}
	}
	s.steps++
	return nil
}

// Grid downloads the hash grid built by the last step.
func (s *Sim) Grid() (Grid, error) {
	ranges, err := s.dev.Download(s.cellRange)
	if err != nil {
		return Grid{}, err
	}
	sorted, err := s.dev.Download(s.sortedIdx)
	if err != nil {
		return Grid{}, err
	}
	g := Grid{
		Start:  make([]int, NumCells),
		Count:  make([]int, NumCells),
		Sorted: make([]int, len(sorted)),
	}
	for c := range NumCells {
		g.Start[c] = int(ranges[2*c])
		g.Count[c] = int(ranges[2*c+1])
	}
	for i, v := range sorted {
		g.Sorted[i] = int(v)
	}
	return g, nil
}

// State downloads the particle arrays.
func (s *Sim) State() (State, error) {
	var st State
	for _, f := range []struct {
		h   gpurt.Handle
		dst *[]float64
	}{
		{s.posX, &st.PosX},
		{s.posY, &st.PosY},
		{s.velX, &st.VelX},
		{s.velY, &st.VelY},
		{s.density, &st.Density},
	} {
		vals, err := s.dev.Download(f.h)
		if err != nil {
			return State{}, err
		}
		*f.dst = vals
	}
	return st, nil
}

// Summary downloads the state and summarizes it.
func (s *Sim) Summary() (Summary, error) {
	st, err := s.State()
	if err != nil {
		return Summary{}, err
	}
	return Summarize(s.steps, st), nil
}

// Close destroys the compiled pipelines. It is safe to call more than once.
func (s *Sim) Close() {
	for i, p := range s.pipes {
		if p != nil {
			p.Destroy()
			s.pipes[i] = nil
		}
	}
}
