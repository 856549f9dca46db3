// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sph

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Dam break setup.
const (
	Spacing     = 0.01
	RestDensity = 1000.0
	BlockWidth  = 0.30
	BlockHeight = 0.60
)

// ParticleMass makes a uniform lattice at Spacing sum to RestDensity.
const ParticleMass = RestDensity * Spacing * Spacing

// State is a host copy of the particle arrays.
type State struct {
	PosX, PosY []float64
	VelX, VelY []float64
	Density    []float64
}

// Len returns the particle count.
func (s State) Len() int { return len(s.PosX) }

// DamBreak returns particles on a lattice with the given spacing filling
// [0, BlockWidth) x [0, BlockHeight), at rest.
func DamBreak(spacing float64) State {
	var cols, rows []float64
	for c := spacing / 2; c < BlockWidth; c += spacing {
		cols = append(cols, c)
	}
	for r := spacing / 2; r < BlockHeight; r += spacing {
		rows = append(rows, r)
	}
	s := State{}
	for _, y := range rows {
		for _, x := range cols {
			s.PosX = append(s.PosX, x)
			s.PosY = append(s.PosY, y)
		}
	}
	n := len(s.PosX)
	s.VelX = make([]float64, n)
	s.VelY = make([]float64, n)
	s.Density = make([]float64, n)
	return s
}

// Summary is the per-report statistics line.
type Summary struct {
	Step       int
	CenterX    float64
	CenterY    float64
	AvgDensity float64
	MaxSpeed   float64
}

// Summarize computes the center of mass, mean density and top speed.
func Summarize(step int, s State) Summary {
	sum := Summary{Step: step}
	if s.Len() == 0 {
		return sum
	}
	sum.CenterX = stat.Mean(s.PosX, nil)
	sum.CenterY = stat.Mean(s.PosY, nil)
	if len(s.Density) > 0 {
		sum.AvgDensity = stat.Mean(s.Density, nil)
	}
	speeds := make([]float64, s.Len())
	for i := range speeds {
		speeds[i] = math.Hypot(s.VelX[i], s.VelY[i])
	}
	sum.MaxSpeed = floats.Max(speeds)
	return sum
}

func (s Summary) String() string {
	return fmt.Sprintf("Step %5d: center=(%.4f, %.4f)  avg_density=%.1f  max_vel=%.4f",
		s.Step, s.CenterX, s.CenterY, s.AvgDensity, s.MaxSpeed)
}

// Scatter draws particle positions in the unit square as '#' on a w x h
// character grid, y up.
func Scatter(posX, posY []float64, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	grid := make([][]byte, h)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", w))
	}
	for i := range posX {
		gx := min(max(int(posX[i]*float64(w-1)), 0), w-1)
		gy := min(max(int(posY[i]*float64(h-1)), 0), h-1)
		grid[h-1-gy][gx] = '#'
	}
	var b strings.Builder
	border := "+" + strings.Repeat("-", w) + "+\n"
	b.WriteString(border)
	for _, row := range grid {
		b.WriteByte('|')
		b.Write(row)
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}

// Plot charts the center of mass height and top speed over the reports.
func Plot(history []Summary) string {
	if len(history) < 2 {
		return ""
	}
	cy := make([]float64, len(history))
	speed := make([]float64, len(history))
	for i, s := range history {
		cy[i] = s.CenterY
		speed[i] = s.MaxSpeed
	}
	return asciigraph.Plot(cy,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("center of mass y")) +
		"\n\n" +
		asciigraph.Plot(speed,
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Caption("max speed"))
}
