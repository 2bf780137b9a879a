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

package ops

import (
	"slices"
	"testing"

	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// seqRoller hands out symbols 100, 101, ... so tests can see roll order.
type seqRoller struct{ next int }

func (s *seqRoller) RollCell(f grid.Flag) grid.Cell {
	c := grid.Cell{Symbol: 100 + s.next, Flag: f}
	s.next++
	return c
}

func TestPopKeepsSymbols(t *testing.T) {
	g := grid.FromSymbols(3, 1, []int{1, 2, 3})
	Pop(g, []int{0, 2, 99})
	if g.At(0).Flag != grid.Popping || g.At(2).Flag != grid.Popping || g.At(1).Flag != grid.Stable {
		t.Fatalf("unexpected flags: %v", g.Snapshot())
	}
	if !slices.Equal(g.Symbols(), []int{1, 2, 3}) {
		t.Fatalf("pop must not change symbols: %v", g.Symbols())
	}
}

func TestClear(t *testing.T) {
	g := grid.FromSymbols(3, 1, []int{1, 2, 3})
	Clear(g, []int{0, 2, 10})
	if !g.IsHole(0) || g.IsHole(1) || !g.IsHole(2) {
		t.Fatalf("unexpected holes")
	}
	if g.Holes() != 2 {
		t.Fatalf("holes = %d", g.Holes())
	}
}

func TestGravityPreservesOrder(t *testing.T) {
	// column 0 top-to-bottom: 1, hole, 2, hole -> hole, hole, 1, 2
	g := grid.FromSymbols(2, 4, []int{
		1, 5,
		9, 6,
		2, 7,
		9, 8,
	})
	Clear(g, []int{2, 6})
	fill := make([]int, 2)
	Gravity(g, fill)

	if fill[0] != 1 || fill[1] != -1 {
		t.Fatalf("fill idx = %v", fill)
	}
	if !g.IsHole(0) || !g.IsHole(2) {
		t.Fatalf("top of column 0 should be holes")
	}
	if g.At(4).Symbol != 1 || g.At(6).Symbol != 2 {
		t.Fatalf("column 0 order broken: %v", g.Symbols())
	}
	for i, want := range []int{5, 6, 7, 8} {
		if got := g.At(i*2 + 1).Symbol; got != want {
			t.Fatalf("full column moved: row %d got %d", i, got)
		}
	}
}

func TestRefillCellCountAndFlags(t *testing.T) {
	g := grid.FromSymbols(3, 3, []int{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	g.SetFlags(grid.Popping)
	Clear(g, []int{0, 4, 8})
	Gravity(g, nil)
	r := &seqRoller{}
	filled := Refill(g, r, nil)

	if len(filled) != 3 {
		t.Fatalf("filled %d positions, want 3", len(filled))
	}
	if g.Holes() != 0 || g.Len() != 9 {
		t.Fatalf("grid not full after refill")
	}
	for i := 0; i < g.Len(); i++ {
		c := g.At(i)
		isNew := slices.Contains(filled, i)
		if isNew && (c.Flag != grid.Spawning || c.Symbol < 100) {
			t.Fatalf("refilled cell %d = %+v", i, c)
		}
		if !isNew && c.Flag != grid.Stable {
			t.Fatalf("survivor %d flag = %s", i, c.Flag)
		}
	}
	// every column lost one cell, so every new cell sits in row 0
	for _, idx := range filled {
		if row, _ := g.RowCol(idx); row != 0 {
			t.Fatalf("new cell at row %d", row)
		}
	}
}
