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

// Package ops holds the in-place board mutations of one tumble: mark,
// clear, collapse and refill.
package ops

import "github.com/zintix-labs/tumblelab/sdk/grid"

// Pop flags every listed position as popping. Symbols stay in place so the
// pre-removal board can still be read.
func Pop(g *grid.Grid, hits []int) {
	for _, idx := range hits {
		if g.InBounds(idx) {
			g.SetFlag(idx, grid.Popping)
		}
	}
}

// Clear removes every listed position, leaving holes.
func Clear(g *grid.Grid, hits []int) {
	for _, idx := range hits {
		if g.InBounds(idx) {
			g.Vacate(idx)
		}
	}
}
