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

package sampler

import (
	"fmt"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/core"
)

// CumTable draws a value by cumulative-weight thresholding over a uniform
// draw in [0, Span).
//
// The weights do not have to cover the whole span. A draw that lands past
// the last threshold returns Fallback. With the default multiplier table
// (weights summing to 85 over a span of 100) that is 15% of all draws, and
// those draws all become the fallback value.
type CumTable struct {
	values   []int
	cum      []float64
	span     float64
	fallback int
}

// BuildCumTable validates and builds a CumTable.
func BuildCumTable[T Numbers](values []int, weights []T, span float64, fallback int) (*CumTable, error) {
	if len(values) == 0 {
		return nil, errs.NewFatal("cum table: values required")
	}
	if len(values) != len(weights) {
		return nil, errs.Fatalf("cum table: %d values but %d weights", len(values), len(weights))
	}
	if span <= 0 {
		return nil, errs.Fatalf("cum table: span must be > 0, got %v", span)
	}
	cum := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, errs.Fatalf("cum table: negative weight at %d", i)
		}
		acc += float64(w)
		cum[i] = acc
	}
	if acc > span {
		return nil, errs.NewFatal(fmt.Sprintf("cum table: weights sum %v exceeds span %v", acc, span))
	}
	return &CumTable{
		values:   append([]int(nil), values...),
		cum:      cum,
		span:     span,
		fallback: fallback,
	}, nil
}

// Draw returns one value.
func (t *CumTable) Draw(c *core.Core) int {
	return t.Lookup(c.Float64() * t.span)
}

// Lookup maps a raw draw r in [0, Span) to its value.
func (t *CumTable) Lookup(r float64) int {
	for i, th := range t.cum {
		if r < th {
			return t.values[i]
		}
	}
	return t.fallback
}

// Values returns the table values followed by nothing else; the fallback is
// reported separately.
func (t *CumTable) Values() []int { return append([]int(nil), t.values...) }

func (t *CumTable) Fallback() int { return t.fallback }

func (t *CumTable) Span() float64 { return t.span }

// Covered is the sum of all weights, the part of the span that resolves
// through the table.
func (t *CumTable) Covered() float64 {
	return t.cum[len(t.cum)-1]
}

// Prob is the exact probability of drawing v, fallback mass included.
func (t *CumTable) Prob(v int) float64 {
	p := 0.0
	prev := 0.0
	for i, th := range t.cum {
		if t.values[i] == v {
			p += th - prev
		}
		prev = th
	}
	if v == t.fallback {
		p += t.span - t.Covered()
	}
	return p / t.span
}
