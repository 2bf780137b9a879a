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

// Gravity collapses every column.
//
// fillIdxBuf, when long enough, receives per column the lowest row index
// left empty (-1 for a full column), so a caller can refill from there up.
func Gravity(g *grid.Grid, fillIdxBuf []int) {
	for c := 0; c < g.Cols(); c++ {
		top := CollapseColumn(g, c)
		if fillIdxBuf != nil && c < len(fillIdxBuf) {
			fillIdxBuf[c] = top
		}
	}
}

// CollapseColumn compacts the surviving cells of column c toward the bottom
// row, keeping their top-to-bottom order, and returns the row of the lowest
// hole left at the top (-1 when the column is full).
//
// Two pointers walk the column bottom-up: the read pointer visits every
// row, the write pointer only moves past survivors.
func CollapseColumn(g *grid.Grid, c int) int {
	cols := g.Cols()
	wr := g.Rows() - 1
	for r := g.Rows() - 1; r >= 0; r-- {
		rp := r*cols + c
		if g.IsHole(rp) {
			continue
		}
		if r != wr {
			g.Move(wr*cols+c, rp)
		}
		wr--
	}
	return wr
}
