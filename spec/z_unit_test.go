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

package spec

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
)

func loadDemo(t *testing.T, name string) *GameSetting {
	t.Helper()
	raw, err := fs.ReadFile(demo_configs.FS, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	gs, err := GetGameSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return gs
}

func TestFruitBlastConfig(t *testing.T) {
	gs := loadDemo(t, "fruit_blast_10x8.yaml")
	if gs.Grid.Columns != 10 || gs.Grid.Rows != 8 || gs.Grid.Size != 80 {
		t.Fatalf("grid = %+v", gs.Grid)
	}
	if gs.Symbols.Count != 10 {
		t.Fatalf("symbols = %d", gs.Symbols.Count)
	}
	if !gs.Symbols.Symbols[0].BaseDec.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("apple base = %s", gs.Symbols.Symbols[0].BaseDec)
	}
	if gs.Cluster.MinSize != 4 || gs.Cascade.SafetyCap != 60 {
		t.Fatalf("cluster/cascade = %+v %+v", gs.Cluster, gs.Cascade)
	}
	if gs.Multiplier.Prob != 0.10 || gs.Multiplier.Fallback != 2 || gs.Multiplier.Span != 100 {
		t.Fatalf("multiplier = %+v", gs.Multiplier)
	}
	if !gs.Symbols.Uniform() {
		t.Fatalf("fruit blast draws symbols uniformly")
	}
}

func TestDefaultsApplied(t *testing.T) {
	gs := loadDemo(t, "fruit_blast_6x5.yaml")
	if gs.Multiplier.Span != DefaultMultSpan || len(gs.Multiplier.Values) != 8 {
		t.Fatalf("multiplier defaults not applied: %+v", gs.Multiplier)
	}
	if gs.Pacing.DropMs != 1000 || gs.Pacing.Speed != SpeedTurbo {
		t.Fatalf("pacing = %+v", gs.Pacing)
	}
	if got := gs.Symbols.TiersOf(5); got[len(got)-1].MinSize != 12 || got[0].Factor != 2 {
		t.Fatalf("mango should use its own tiers: %+v", got)
	}
	if got := gs.Symbols.TiersOf(0); got[0].MinSize != 5 {
		t.Fatalf("apple should use shared tiers: %+v", got)
	}
	if gs.Symbols.Uniform() {
		t.Fatalf("6x5 has skewed weights")
	}
}

const minimalYAML = `
game_name: t
game_id: 7
symbols:
  list:
    - { name: a, base: 1 }
    - { name: b, base: 1 }
    - { name: c, base: 1 }
    - { name: d, base: 1 }
    - { name: e, base: 1 }
    - { name: f, base: 1 }
`

func TestMinimalConfigGetsDefaults(t *testing.T) {
	gs, err := GetGameSettingByYAML([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gs.Grid.Size != 80 || gs.Cluster.MinSize != 4 || gs.Cascade.SafetyCap != 60 {
		t.Fatalf("defaults missing: %+v %+v %+v", gs.Grid, gs.Cluster, gs.Cascade)
	}
	if len(gs.Symbols.Tiers) != 7 {
		t.Fatalf("default tiers missing")
	}
	if !gs.Bet.BalanceDec.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("initial balance = %s", gs.Bet.BalanceDec)
	}
}

func TestInvalidConfigs(t *testing.T) {
	cases := map[string]string{
		"too few symbols": "game_name: t\nsymbols:\n  list:\n    - { name: a, base: 1 }\n",
		"bad grid":        strings.Replace(minimalYAML, "symbols:", "grid: { columns: -1, rows: 8 }\nsymbols:", 1),
		"zero base":       strings.Replace(minimalYAML, "{ name: a, base: 1 }", "{ name: a, base: 0 }", 1),
		"dup name":        strings.Replace(minimalYAML, "{ name: b, base: 1 }", "{ name: a, base: 1 }", 1),
		"tier below min":  minimalYAML + "  tiers: [ { min_size: 3, factor: 1 } ]\n",
		"tier decreasing": minimalYAML + "  tiers: [ { min_size: 4, factor: 2 }, { min_size: 5, factor: 1 } ]\n",
		"prob > 1":        minimalYAML + "multiplier: { prob: 1.5 }\n",
		"bet range":       minimalYAML + "bet: { min: 10, max: 5 }\n",
		"speed":           minimalYAML + "pacing: { speed: warp }\n",
		"cluster > grid":  minimalYAML + "grid: { columns: 2, rows: 1 }\n",
	}
	for name, raw := range cases {
		if _, err := GetGameSettingByYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBetClamp(t *testing.T) {
	bs := BetSetting{}
	if err := bs.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if got := bs.Clamp(decimal.Zero); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("clamp low = %s", got)
	}
	if got := bs.Clamp(decimal.NewFromInt(2_000_000_000)); !got.Equal(decimal.NewFromInt(1_000_000_000)) {
		t.Fatalf("clamp high = %s", got)
	}
	if got := bs.Clamp(decimal.NewFromInt(5)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("clamp mid = %s", got)
	}
}

func TestPacingSpeed(t *testing.T) {
	ps := PacingSetting{}
	_ = ps.Init()
	if ps.Drop(SpeedNormal) != 2*ps.Drop(SpeedTurbo) {
		t.Fatalf("normal should be twice turbo")
	}
}
