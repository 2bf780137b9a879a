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

// Package sampler holds the weighted draws used when a cell is rolled.
//
// lut.go is the look-up table draw used for symbol selection: weights are
// expanded into a flat table and a draw is a single IntN. Equal weights give
// the uniform symbol draw; a config may skew them.
package sampler

import (
	"fmt"
	"math"

	"github.com/zintix-labs/tumblelab/sdk/core"
)

const maxLUTCap uint64 = 10_000_000

// LUT is an expanded weight table.
//
// Weights [3,5,0] expand to [0,0,0,1,1,1,1,1]; picking a uniform slot picks
// index 0 with probability 3/8 and index 2 never.
type LUT []int

// BuildLUT expands src into a LUT. It panics on negative weights, an all
// zero table or a table larger than maxLUTCap: all are config bugs caught
// at load time.
func BuildLUT[T Integers](src []T) LUT {
	if len(src) == 0 {
		return []int{}
	}

	acc := uint64(0)
	for _, v := range src {
		if v < 0 {
			panic("lut: negative value encountered")
		}
		uv := uint64(v)
		if acc > math.MaxUint64-uv {
			panic("lut: total weight overflow uint64 range")
		}
		acc += uv
	}

	if acc == 0 {
		panic("lut: all weights are zero")
	}
	if acc > maxLUTCap {
		panic(fmt.Sprintf("lut: total weight %d exceeds limit %d", acc, maxLUTCap))
	}

	lut := make([]int, 0, int(acc))
	for i, v := range src {
		for j := T(0); j < v; j++ {
			lut = append(lut, i)
		}
	}
	return lut
}

// UniformLUT is BuildLUT over n equal weights.
func UniformLUT(n int) LUT {
	lut := make([]int, n)
	for i := range lut {
		lut[i] = i
	}
	return lut
}

// Pick draws one index; -1 for an empty table.
func (l LUT) Pick(c *core.Core) int {
	return c.Pick(l)
}
