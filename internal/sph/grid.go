// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sph

import "math"

// Hash grid geometry. The cell size equals the smoothing length so every
// neighbour of a particle lies in the 3x3 block around its cell.
const (
	SmoothingLength = 0.025
	GridWidth       = 40
	NumCells        = GridWidth * GridWidth
)

// CellOf returns the grid cell containing (x, y), clamped to the grid.
// It divides in float32 like the kernels do.
func CellOf(x, y float64) int {
	return cellCoord(y)*GridWidth + cellCoord(x)
}

func cellCoord(v float64) int {
	c := math.Floor(float64(float32(v) / float32(SmoothingLength)))
	return int(min(max(c, 0), GridWidth-1))
}

// Grid is a count-sorted particle index: the particles of cell c are
// Sorted[Start[c] : Start[c]+Count[c]], in ascending order.
type Grid struct {
	Start  []int
	Count  []int
	Sorted []int
}

// BuildGrid count-sorts particles into cells on the host. It produces the
// same layout as the GPU grid passes.
func BuildGrid(posX, posY []float64) Grid {
	n := len(posX)
	g := Grid{
		Start:  make([]int, NumCells),
		Count:  make([]int, NumCells),
		Sorted: make([]int, n),
	}
	cells := make([]int, n)
	for i := range n {
		c := CellOf(posX[i], posY[i])
		cells[i] = c
		g.Count[c]++
	}
	for c := 1; c < NumCells; c++ {
		g.Start[c] = g.Start[c-1] + g.Count[c-1]
	}
	next := make([]int, NumCells)
	copy(next, g.Start)
	for i, c := range cells {
		g.Sorted[next[c]] = i
		next[c]++
	}
	return g
}

// Ranges packs Start and Count as (start, count) pairs, the layout of the
// device cell range buffer.
func (g Grid) Ranges() []float64 {
	out := make([]float64, 2*len(g.Start))
	for c := range g.Start {
		out[2*c] = float64(g.Start[c])
		out[2*c+1] = float64(g.Count[c])
	}
	return out
}
