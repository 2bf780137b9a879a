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

package calc

import (
	"io/fs"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/gen"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

func fruitBlast(t testing.TB) *spec.GameSetting {
	t.Helper()
	raw, err := fs.ReadFile(demo_configs.FS, "fruit_blast_10x8.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	gs, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return gs
}

// checker fills a board with an alternating 1/2 pattern, which never has
// two equal neighbors.
func checker(cols, rows int) []int {
	s := make([]int, cols*rows)
	for i := range s {
		r, c := i/cols, i%cols
		s[i] = 1 + (r+c)%2
	}
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSingleFourCellCluster(t *testing.T) {
	gs := fruitBlast(t)
	syms := checker(10, 8)
	for _, idx := range []int{0, 1, 2, 3} {
		syms[idx] = 0
	}
	g := grid.FromSymbols(10, 8, syms)

	cls := NewDetector(4).Detect(g, nil)
	if len(cls) != 1 {
		t.Fatalf("want 1 cluster, got %d: %+v", len(cls), cls)
	}
	c := cls[0]
	got := slices.Clone(c.Indices)
	slices.Sort(got)
	if c.Symbol != 0 || !slices.Equal(got, []int{0, 1, 2, 3}) || c.MaxMult != 1 {
		t.Fatalf("cluster = %+v", c)
	}

	pt := NewPaytable(gs)
	win := pt.Payout(c, decimal.NewFromInt(1))
	want := pt.Base(0).Mul(pt.Tier(0, 4))
	if !win.Equal(want) || !win.Equal(dec("0.25")) {
		t.Fatalf("payout = %s want %s", win, want)
	}
}

func TestNoClusterBelowMin(t *testing.T) {
	syms := checker(10, 8)
	syms[0], syms[1], syms[2] = 0, 0, 0
	g := grid.FromSymbols(10, 8, syms)
	if cls := NewDetector(4).Detect(g, nil); len(cls) != 0 {
		t.Fatalf("three cells must not cluster: %+v", cls)
	}
}

func TestSeedOrderAndMaxMult(t *testing.T) {
	syms := checker(10, 8)
	// an L shape seeded at 21 and a vertical bar seeded at 8
	for _, idx := range []int{21, 31, 41, 42} {
		syms[idx] = 3
	}
	for _, idx := range []int{8, 18, 28, 38, 48} {
		syms[idx] = 4
	}
	g := grid.FromSymbols(10, 8, syms)
	g.Set(42, grid.Cell{Symbol: 3, Mult: grid.Some(16)})
	g.Set(31, grid.Cell{Symbol: 3, Mult: grid.Some(4)})

	cls := NewDetector(4).Detect(g, nil)
	if len(cls) != 2 {
		t.Fatalf("want 2 clusters, got %+v", cls)
	}
	if cls[0].Symbol != 4 || cls[0].Seed() != 8 || cls[0].Size() != 5 {
		t.Fatalf("first cluster = %+v", cls[0])
	}
	if cls[1].Symbol != 3 || cls[1].Seed() != 21 || cls[1].MaxMult != 16 {
		t.Fatalf("second cluster = %+v", cls[1])
	}
}

func TestHolesNeverCluster(t *testing.T) {
	g := grid.FromSymbols(4, 1, []int{0, 0, 0, 0})
	g.Vacate(1)
	if cls := NewDetector(2).Detect(g, nil); len(cls) != 1 || cls[0].Size() != 2 {
		t.Fatalf("hole should split the row: %+v", cls)
	}
}

func TestClustersDisjointOnRandomGrids(t *testing.T) {
	gs := fruitBlast(t)
	gg, err := gen.NewGridGenerator(core.NewCore(2025), gs)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	d := NewDetector(gs.Cluster.MinSize)
	b := grid.New(10, 8)
	var cls []Cluster
	for trial := 0; trial < 2000; trial++ {
		gg.RandomGrid(b, false)
		cls = d.Detect(b, cls[:0])
		seen := make([]bool, b.Len())
		lastSeed := -1
		for _, c := range cls {
			if c.Size() < 4 {
				t.Fatalf("cluster below min: %+v", c)
			}
			if c.Seed() <= lastSeed {
				t.Fatalf("clusters out of seed order")
			}
			lastSeed = c.Seed()
			for _, idx := range c.Indices {
				if seen[idx] {
					t.Fatalf("cell %d in two clusters", idx)
				}
				seen[idx] = true
				if b.At(idx).Symbol != c.Symbol {
					t.Fatalf("cell %d symbol mismatch", idx)
				}
				if b.At(idx).Mult.Factor() > c.MaxMult {
					t.Fatalf("max mult too small")
				}
			}
		}
	}
}

func TestTierTable(t *testing.T) {
	pt := NewPaytable(fruitBlast(t))
	want := map[int]string{
		0: "0", 1: "0", 3: "0",
		4: "1", 5: "1.5", 6: "2", 7: "3", 8: "4", 9: "5", 10: "10", 11: "10", 80: "10",
	}
	for size, w := range want {
		if got := pt.Tier(0, size); !got.Equal(dec(w)) {
			t.Fatalf("tier(%d) = %s want %s", size, got, w)
		}
	}
}

func TestPayoutMonotonic(t *testing.T) {
	pt := NewPaytable(fruitBlast(t))
	bets := []decimal.Decimal{dec("1"), dec("0.5"), dec("37")}
	for sym := 0; sym < 10; sym++ {
		for _, bet := range bets {
			for _, mult := range []int{1, 2, 200} {
				if w := pt.Win(sym, 3, mult, bet); !w.IsZero() {
					t.Fatalf("size 3 pays %s", w)
				}
				prev := decimal.Zero
				for size := 0; size <= 80; size++ {
					w := pt.Win(sym, size, mult, bet)
					if w.LessThan(prev) {
						t.Fatalf("sym %d bet %s mult %d: size %d pays %s < %s", sym, bet, mult, size, w, prev)
					}
					prev = w
				}
			}
		}
	}
}

func TestPayoutAppliesMultiplier(t *testing.T) {
	pt := NewPaytable(fruitBlast(t))
	// mango base 2, size 10 tier 10, bet 3, mult 8 -> 480
	c := Cluster{Symbol: 9, Indices: make([]int, 10), MaxMult: 8}
	if got := pt.Payout(c, dec("3")); !got.Equal(dec("480")) {
		t.Fatalf("payout = %s want 480", got)
	}
}

func BenchmarkDetect(b *testing.B) {
	gs := fruitBlast(b)
	gg, _ := gen.NewGridGenerator(core.NewCore(1), gs)
	g := gg.RandomGrid(nil, false)
	d := NewDetector(4)
	var cls []Cluster
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cls = d.Detect(g, cls[:0])
	}
}
