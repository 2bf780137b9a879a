// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package grid is the board model: a fixed cols x rows array of cells kept
// flat in row-major order, idx = row*cols + col.
//
// Positions are always occupied except between removal and refill inside a
// tumble, where removed positions are marked as holes.
package grid

import "fmt"

// Grid 盤面
type Grid struct {
	cols  int
	rows  int
	cells []Cell
	holes []bool
}

// New builds an all-stable grid of symbol 0. Non-positive dimensions are a
// caller bug and panic.
func New(cols, rows int) *Grid {
	if cols < 1 || rows < 1 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", cols, rows))
	}
	n := cols * rows
	return &Grid{
		cols:  cols,
		rows:  rows,
		cells: make([]Cell, n),
		holes: make([]bool, n),
	}
}

// FromSymbols builds a stable grid from a row-major symbol list.
func FromSymbols(cols, rows int, symbols []int) *Grid {
	g := New(cols, rows)
	if len(symbols) != g.Len() {
		panic(fmt.Sprintf("grid: %d symbols for %dx%d", len(symbols), cols, rows))
	}
	for i, s := range symbols {
		g.cells[i] = Cell{Symbol: s}
	}
	return g
}

func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Len() int  { return len(g.cells) }

func (g *Grid) Index(row, col int) int { return row*g.cols + col }

func (g *Grid) RowCol(idx int) (row, col int) { return idx / g.cols, idx % g.cols }

func (g *Grid) InBounds(idx int) bool { return idx >= 0 && idx < len(g.cells) }

// At returns the cell at idx. Reading a hole returns its stale content.
func (g *Grid) At(idx int) Cell { return g.cells[idx] }

// Set places c at idx and fills the hole if there was one.
func (g *Grid) Set(idx int, c Cell) {
	g.cells[idx] = c
	g.holes[idx] = false
}

// SetFlag changes only the lifecycle flag at idx.
func (g *Grid) SetFlag(idx int, f Flag) { g.cells[idx].Flag = f }

// SetFlags sets every cell's flag.
func (g *Grid) SetFlags(f Flag) {
	for i := range g.cells {
		g.cells[i].Flag = f
	}
}

// Vacate removes the cell at idx, leaving a hole.
func (g *Grid) Vacate(idx int) {
	g.cells[idx] = Cell{}
	g.holes[idx] = true
}

func (g *Grid) IsHole(idx int) bool { return g.holes[idx] }

// Holes counts empty positions.
func (g *Grid) Holes() int {
	n := 0
	for _, h := range g.holes {
		if h {
			n++
		}
	}
	return n
}

// Move relocates the cell at src to dst and leaves src as a hole.
func (g *Grid) Move(dst, src int) {
	if dst == src {
		return
	}
	g.cells[dst] = g.cells[src]
	g.holes[dst] = g.holes[src]
	g.cells[src] = Cell{}
	g.holes[src] = true
}

// Neighbors appends the in-bounds orthogonal neighbors of idx to dst in the
// order up, down, left, right.
func (g *Grid) Neighbors(idx int, dst []int) []int {
	r, c := g.RowCol(idx)
	if r > 0 {
		dst = append(dst, idx-g.cols)
	}
	if r < g.rows-1 {
		dst = append(dst, idx+g.cols)
	}
	if c > 0 {
		dst = append(dst, idx-1)
	}
	if c < g.cols-1 {
		dst = append(dst, idx+1)
	}
	return dst
}

// Snapshot returns a copy of the cells, safe to keep after the grid mutates.
func (g *Grid) Snapshot() []Cell {
	return append([]Cell(nil), g.cells...)
}

// Symbols returns the row-major symbol ids.
func (g *Grid) Symbols() []int {
	out := make([]int, len(g.cells))
	for i, c := range g.cells {
		out[i] = c.Symbol
	}
	return out
}

func (g *Grid) Clone() *Grid {
	return &Grid{
		cols:  g.cols,
		rows:  g.rows,
		cells: append([]Cell(nil), g.cells...),
		holes: append([]bool(nil), g.holes...),
	}
}
