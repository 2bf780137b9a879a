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

// Package calc finds clusters on a board and prices them.
package calc

import (
	"fmt"

	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// Cluster is a maximal same-symbol 4-connected component of qualifying size.
type Cluster struct {
	Symbol  int   `json:"symbol"`
	Indices []int `json:"indices"` // BFS order from the seed
	MaxMult int   `json:"max_mult"`
}

func (c Cluster) Size() int { return len(c.Indices) }

// Seed is the lowest-index cell of the cluster, the one the scan started from.
func (c Cluster) Seed() int { return c.Indices[0] }

// Detector runs the flood fill. It keeps its BFS buffers between calls, so
// one Detector must not be shared across goroutines.
type Detector struct {
	minSize int

	visited []bool
	q       []int
	nb      []int
}

// NewDetector panics on minSize < 1; that is a config error Init rejects.
func NewDetector(minSize int) *Detector {
	if minSize < 1 {
		panic(fmt.Sprintf("calc: min cluster size %d", minSize))
	}
	return &Detector{minSize: minSize, nb: make([]int, 0, 4)}
}

func (d *Detector) MinSize() int { return d.minSize }

// resetSizes 只調整容量，不清內容
func (d *Detector) resetSizes(n int) {
	if cap(d.visited) < n {
		d.visited = make([]bool, n)
	} else {
		d.visited = d.visited[:n]
	}
	if cap(d.q) < n {
		d.q = make([]int, 0, n)
	}
}

// Detect appends every cluster of g to dst and returns it.
//
// Cells are scanned in row-major order; an unvisited cell seeds a BFS
// through same-symbol orthogonal neighbors. Components below the minimum
// size are dropped but stay visited, so every cell is examined once and the
// returned clusters are disjoint and ordered by seed index. Holes never
// join a cluster.
func (d *Detector) Detect(g *grid.Grid, dst []Cluster) []Cluster {
	n := g.Len()
	d.resetSizes(n)
	clear(d.visited)

	for i := 0; i < n; i++ {
		if d.visited[i] || g.IsHole(i) {
			continue
		}
		sym := g.At(i).Symbol

		d.q = d.q[:0]
		d.q = append(d.q, i)
		d.visited[i] = true
		maxMult := 1

		for head := 0; head < len(d.q); head++ {
			curr := d.q[head]
			if f := g.At(curr).Mult.Factor(); f > maxMult {
				maxMult = f
			}
			d.nb = g.Neighbors(curr, d.nb[:0])
			for _, next := range d.nb {
				if d.visited[next] || g.IsHole(next) || g.At(next).Symbol != sym {
					continue
				}
				d.visited[next] = true
				d.q = append(d.q, next)
			}
		}

		if len(d.q) < d.minSize {
			continue
		}
		if len(d.q) > n {
			panic(fmt.Sprintf("calc: cluster of %d cells on a %d cell grid", len(d.q), n))
		}
		dst = append(dst, Cluster{
			Symbol:  sym,
			Indices: append([]int(nil), d.q...),
			MaxMult: maxMult,
		})
	}
	return dst
}
