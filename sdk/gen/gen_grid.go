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

// Package gen rolls fresh cells and whole boards.
package gen

import (
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/sdk/sampler"
	"github.com/zintix-labs/tumblelab/spec"
)

// GridGenerator 保存生成盤面所需的狀態
//
// Every cell is rolled independently: a symbol (uniform unless the config
// skews weights) and an optional multiplier.
type GridGenerator struct {
	core     *core.Core
	nSymbols int
	uniform  bool
	symLUT   sampler.LUT
	multProb float64
	multTab  *sampler.CumTable
	cols     int
	rows     int
}

// NewGridGenerator builds a generator for an initialized setting.
func NewGridGenerator(c *core.Core, gs *spec.GameSetting) (*GridGenerator, error) {
	if c == nil {
		return nil, errs.NewFatal("gen: core required")
	}
	if err := gs.Init(); err != nil {
		return nil, err
	}
	ms := &gs.Multiplier
	tab, err := sampler.BuildCumTable(ms.Values, ms.Weights, ms.Span, ms.Fallback)
	if err != nil {
		return nil, errs.Wrap(err, "gen: multiplier table")
	}
	g := &GridGenerator{
		core:     c,
		nSymbols: gs.Symbols.Count,
		uniform:  gs.Symbols.Uniform(),
		multProb: ms.Prob,
		multTab:  tab,
		cols:     gs.Grid.Columns,
		rows:     gs.Grid.Rows,
	}
	if !g.uniform {
		g.symLUT = sampler.BuildLUT(gs.Symbols.Weights)
	}
	return g, nil
}

// Symbol draws a symbol id.
func (g *GridGenerator) Symbol() int {
	if g.uniform {
		return g.core.UniformInt(0, g.nSymbols-1)
	}
	return g.symLUT.Pick(g.core)
}

// WeightedMultiplier draws a multiplier value from the table, fallback
// included.
func (g *GridGenerator) WeightedMultiplier() int {
	return g.multTab.Draw(g.core)
}

// CellMultiplier fires the multiplier trigger and, on a hit, draws a value.
// A miss returns the absent multiplier.
func (g *GridGenerator) CellMultiplier() grid.Mult {
	if !g.core.Bernoulli(g.multProb) {
		return grid.None()
	}
	return grid.Some(g.WeightedMultiplier())
}

// RollCell implements ops.Roller.
func (g *GridGenerator) RollCell(flag grid.Flag) grid.Cell {
	sym := g.Symbol()
	return grid.Cell{Symbol: sym, Mult: g.CellMultiplier(), Flag: flag}
}

// RandomGrid fills dst (allocating when nil) with fresh cells, flagged
// entering or stable.
func (g *GridGenerator) RandomGrid(dst *grid.Grid, entering bool) *grid.Grid {
	if dst == nil {
		dst = grid.New(g.cols, g.rows)
	}
	flag := grid.Stable
	if entering {
		flag = grid.Entering
	}
	for i := 0; i < dst.Len(); i++ {
		dst.Set(i, g.RollCell(flag))
	}
	return dst
}

// MultTable exposes the multiplier table for reporting.
func (g *GridGenerator) MultTable() *sampler.CumTable { return g.multTab }
