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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/spec"
)

// Paytable prices clusters: base(symbol) x tier(size) x bet x maxMult.
type Paytable struct {
	minSize int
	base    []decimal.Decimal
	// tiers[sym] is ascending by min size
	tiers [][]tier
}

type tier struct {
	minSize int
	factor  decimal.Decimal
}

// NewPaytable reads an initialized game setting.
func NewPaytable(gs *spec.GameSetting) *Paytable {
	ss := &gs.Symbols
	p := &Paytable{
		minSize: gs.Cluster.MinSize,
		base:    make([]decimal.Decimal, ss.Count),
		tiers:   make([][]tier, ss.Count),
	}
	for id := 0; id < ss.Count; id++ {
		p.base[id] = ss.Symbols[id].BaseDec
		for _, t := range ss.TiersOf(id) {
			p.tiers[id] = append(p.tiers[id], tier{minSize: t.MinSize, factor: t.FactorDec})
		}
	}
	return p
}

// Tier is the step factor for a cluster of size on symbol: the factor of the
// largest threshold not above size, zero below the minimum cluster size or
// the first threshold.
func (p *Paytable) Tier(symbol, size int) decimal.Decimal {
	if size < p.minSize {
		return decimal.Zero
	}
	f := decimal.Zero
	for _, t := range p.tiers[symbol] {
		if size < t.minSize {
			break
		}
		f = t.factor
	}
	return f
}

// Base is the catalog base weight of symbol.
func (p *Paytable) Base(symbol int) decimal.Decimal { return p.base[symbol] }

// Win prices a cluster of size cells on symbol carrying maxMult at bet.
func (p *Paytable) Win(symbol, size, maxMult int, bet decimal.Decimal) decimal.Decimal {
	t := p.Tier(symbol, size)
	if t.IsZero() {
		return decimal.Zero
	}
	if maxMult < 1 {
		maxMult = 1
	}
	return p.base[symbol].Mul(t).Mul(bet).Mul(decimal.NewFromInt(int64(maxMult)))
}

// Payout prices c at bet.
func (p *Paytable) Payout(c Cluster, bet decimal.Decimal) decimal.Decimal {
	return p.Win(c.Symbol, c.Size(), c.MaxMult, bet)
}
