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

package stats

import "sort"

// WinBuckets maps a spin's win, in bet multiples, to its distribution slot.
type WinBuckets struct {
	edges  []float64
	labels []string
}

// Buckets 贏倍區間 [0,0], (0,1), [1,2), [2,5), ..., [2000,10000), [10000,+inf)
//
// 請勿修改預設值
var Buckets = &WinBuckets{
	edges:  []float64{0, 1, 2, 5, 10, 20, 50, 100, 300, 500, 1000, 2000, 10000},
	labels: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,300)", "[300,500)", "[500,1000)", "[1000,2000)", "[2000,10000)", "[10000,+inf)"},
}

func (b *WinBuckets) WinBucketStr() []string {
	return b.labels
}

func (b *WinBuckets) Len() int { return len(b.labels) }

// Index returns the slot of a win of mult bet multiples. Zero and negative
// wins land in slot 0; a positive win lands after every edge it reaches.
func (b *WinBuckets) Index(mult float64) int {
	if mult <= 0 {
		return 0
	}
	return sort.Search(len(b.edges), func(i int) bool { return b.edges[i] > mult })
}
