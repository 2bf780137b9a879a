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

package grid

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNeighbors(t *testing.T) {
	g := New(10, 8)
	cases := []struct {
		idx  int
		want []int
	}{
		{0, []int{10, 1}},
		{9, []int{19, 8}},
		{70, []int{60, 71}},
		{79, []int{69, 78}},
		{15, []int{5, 25, 14, 16}},
		{40, []int{30, 50, 41}},
	}
	for _, c := range cases {
		got := g.Neighbors(c.idx, nil)
		if !slices.Equal(got, c.want) {
			t.Fatalf("Neighbors(%d) = %v want %v", c.idx, got, c.want)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	g := New(10, 8)
	for idx := 0; idx < g.Len(); idx++ {
		r, c := g.RowCol(idx)
		if g.Index(r, c) != idx {
			t.Fatalf("index round trip failed at %d", idx)
		}
	}
	if g.Len() != 80 {
		t.Fatalf("len = %d", g.Len())
	}
}

func TestInvalidDimensionsPanic(t *testing.T) {
	for _, d := range [][2]int{{0, 8}, {10, 0}, {-1, 3}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d,%d) should panic", d[0], d[1])
				}
			}()
			New(d[0], d[1])
		}()
	}
}

func TestMultOptional(t *testing.T) {
	var m Mult
	if m.Present() || m.Factor() != 1 {
		t.Fatalf("zero Mult should be absent with factor 1")
	}
	m = Some(8)
	if v, ok := m.Get(); !ok || v != 8 || m.Factor() != 8 {
		t.Fatalf("Some(8) = %v", m)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Some(1) should panic")
		}
	}()
	Some(1)
}

func TestCellJSON(t *testing.T) {
	cells := []Cell{
		{Symbol: 3, Mult: None(), Flag: Entering},
		{Symbol: 1, Mult: Some(16), Flag: Popping},
	}
	raw, err := json.Marshal(cells)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"symbol":3,"mult":null,"flag":"entering"},{"symbol":1,"mult":16,"flag":"popping"}]`
	if string(raw) != want {
		t.Fatalf("json = %s", raw)
	}
	var back []Cell
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !slices.Equal(back, cells) {
		t.Fatalf("round trip = %+v", back)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	g := FromSymbols(2, 1, []int{4, 5})
	snap := g.Snapshot()
	g.Set(0, Cell{Symbol: 9})
	if snap[0].Symbol != 4 {
		t.Fatalf("snapshot aliased the grid")
	}
	c := g.Clone()
	c.Vacate(1)
	if g.IsHole(1) {
		t.Fatalf("clone aliased the grid")
	}
}
