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
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
)

// MinSymbols is the smallest catalog a game may declare.
const MinSymbols = 6

// SymbolSetting is the symbol catalog: an ordered list whose index is the
// symbol id, plus the payout tier table shared by symbols that do not bring
// their own.
type SymbolSetting struct {
	Symbols []SymbolDef   `yaml:"list"  json:"list"`
	Tiers   []TierSetting `yaml:"tiers" json:"tiers"`

	Count    int   `yaml:"-" json:"-"`
	Weights  []int `yaml:"-" json:"-"` // draw weight per id
	initFlag bool
}

// SymbolDef is one catalog entry. Name is display metadata only.
type SymbolDef struct {
	Name   string        `yaml:"name"             json:"name"`
	Base   float64       `yaml:"base"             json:"base"`
	Weight int           `yaml:"weight,omitempty" json:"weight,omitempty"`
	Tiers  []TierSetting `yaml:"tiers,omitempty"  json:"tiers,omitempty"`

	BaseDec decimal.Decimal `yaml:"-" json:"-"`
}

// TierSetting is one step of the payout tier function: clusters of at least
// MinSize pay Factor times the symbol base.
type TierSetting struct {
	MinSize int     `yaml:"min_size" json:"min_size"`
	Factor  float64 `yaml:"factor"   json:"factor"`

	FactorDec decimal.Decimal `yaml:"-" json:"-"`
}

// DefaultTiers 4→1, 5→1.5, 6→2, 7→3, 8→4, 9→5, 10+→10
func DefaultTiers() []TierSetting {
	return []TierSetting{
		{MinSize: 4, Factor: 1},
		{MinSize: 5, Factor: 1.5},
		{MinSize: 6, Factor: 2},
		{MinSize: 7, Factor: 3},
		{MinSize: 8, Factor: 4},
		{MinSize: 9, Factor: 5},
		{MinSize: 10, Factor: 10},
	}
}

func (ss *SymbolSetting) Init(minCluster int) error {
	if ss.initFlag {
		return nil
	}
	if len(ss.Symbols) < MinSymbols {
		return errs.NewFatal(fmt.Sprintf("symbols: need at least %d symbols, got %d", MinSymbols, len(ss.Symbols)))
	}
	if len(ss.Tiers) == 0 {
		ss.Tiers = DefaultTiers()
	}
	if err := initTiers(ss.Tiers, minCluster); err != nil {
		return errs.Wrap(err, "symbols.tiers")
	}
	seen := map[string]struct{}{}
	ss.Weights = make([]int, len(ss.Symbols))
	for i := range ss.Symbols {
		sd := &ss.Symbols[i]
		if sd.Name == "" {
			return errs.Fatalf("symbols[%d]: name required", i)
		}
		if _, ok := seen[sd.Name]; ok {
			return errs.Fatalf("symbols[%d]: duplicate name %q", i, sd.Name)
		}
		seen[sd.Name] = struct{}{}
		if !(sd.Base > 0) {
			return errs.Fatalf("symbols[%d] %s: base must be > 0, got %v", i, sd.Name, sd.Base)
		}
		sd.BaseDec = decimal.NewFromFloat(sd.Base)
		if sd.Weight < 0 {
			return errs.Fatalf("symbols[%d] %s: negative weight", i, sd.Name)
		}
		if sd.Weight == 0 {
			sd.Weight = 1
		}
		ss.Weights[i] = sd.Weight
		if len(sd.Tiers) > 0 {
			if err := initTiers(sd.Tiers, minCluster); err != nil {
				return errs.Wrap(err, fmt.Sprintf("symbols[%d] %s tiers", i, sd.Name))
			}
		}
	}
	ss.Count = len(ss.Symbols)
	ss.initFlag = true
	return nil
}

// TiersOf returns the tier table that applies to symbol id.
func (ss *SymbolSetting) TiersOf(id int) []TierSetting {
	if t := ss.Symbols[id].Tiers; len(t) > 0 {
		return t
	}
	return ss.Tiers
}

// Uniform reports whether every symbol has the same draw weight.
func (ss *SymbolSetting) Uniform() bool {
	for _, w := range ss.Weights {
		if w != ss.Weights[0] {
			return false
		}
	}
	return true
}

// initTiers sorts by MinSize and checks the table is a non-decreasing step
// function that never pays below the minimum cluster size.
func initTiers(tiers []TierSetting, minCluster int) error {
	slices.SortFunc(tiers, func(a, b TierSetting) int { return a.MinSize - b.MinSize })
	prev := 0.0
	for i := range tiers {
		t := &tiers[i]
		if t.MinSize < minCluster {
			return errs.Fatalf("tier min_size %d below cluster min_size %d", t.MinSize, minCluster)
		}
		if i > 0 && t.MinSize == tiers[i-1].MinSize {
			return errs.Fatalf("duplicate tier min_size %d", t.MinSize)
		}
		if !(t.Factor > 0) {
			return errs.Fatalf("tier min_size %d: factor must be > 0", t.MinSize)
		}
		if t.Factor < prev {
			return errs.Fatalf("tier min_size %d: factor %v decreases from %v", t.MinSize, t.Factor, prev)
		}
		prev = t.Factor
		t.FactorDec = decimal.NewFromFloat(t.Factor)
	}
	return nil
}
