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

import "github.com/zintix-labs/tumblelab/sdk/grid"

// Roller produces a freshly rolled cell with the given flag.
type Roller interface {
	RollCell(flag grid.Flag) grid.Cell
}

// Refill puts a fresh spawning cell in every hole and resets every survivor
// to stable. It returns the refilled positions in bottom-up, left-to-right
// column order, which is also the order cells were rolled in.
func Refill(g *grid.Grid, r Roller, dst []int) []int {
	cols, rows := g.Cols(), g.Rows()
	for c := 0; c < cols; c++ {
		for row := rows - 1; row >= 0; row-- {
			idx := row*cols + c
			if g.IsHole(idx) {
				g.Set(idx, r.RollCell(grid.Spawning))
				dst = append(dst, idx)
				continue
			}
			g.SetFlag(idx, grid.Stable)
		}
	}
	return dst
}
