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

package core

import (
	"math"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := NewCore(7)
	c2 := NewCore(7)
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.UniformInt(1, 10) != c2.UniformInt(1, 10) {
		t.Fatalf("UniformInt mismatch")
	}
	if c1.Bernoulli(0.5) != c2.Bernoulli(0.5) {
		t.Fatalf("Bernoulli mismatch")
	}
}

func TestUniformIntInclusive(t *testing.T) {
	c := NewCore(3)
	seen := map[int]int{}
	for i := 0; i < 20000; i++ {
		v := c.UniformInt(2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("out of range: %d", v)
		}
		seen[v]++
	}
	for v := 2; v <= 5; v++ {
		if seen[v] == 0 {
			t.Fatalf("value %d never drawn", v)
		}
	}
	if got := c.UniformInt(4, 4); got != 4 {
		t.Fatalf("degenerate range should return bound, got %d", got)
	}
	if got := c.UniformInt(9, 9); got != 9 {
		t.Fatalf("degenerate range should return bound, got %d", got)
	}
	v := c.UniformInt(5, 2)
	if v < 2 || v > 5 {
		t.Fatalf("swapped bounds out of range: %d", v)
	}
}

func TestBernoulliRate(t *testing.T) {
	c := NewCore(11)
	if c.Bernoulli(0) {
		t.Fatalf("p=0 fired")
	}
	if !c.Bernoulli(1) {
		t.Fatalf("p=1 did not fire")
	}
	n, hit := 200000, 0
	for i := 0; i < n; i++ {
		if c.Bernoulli(0.1) {
			hit++
		}
	}
	rate := float64(hit) / float64(n)
	if math.Abs(rate-0.1) > 0.005 {
		t.Fatalf("bernoulli(0.1) rate %.4f", rate)
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := NewCore(42)
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	a := []int{c.IntN(100), c.IntN(100), c.IntN(100)}
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := range a {
		if got := c.IntN(100); got != a[i] {
			t.Fatalf("replay mismatch at %d: %d vs %d", i, got, a[i])
		}
	}
}

func TestPick(t *testing.T) {
	c := NewCore(9)
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}
	if got := c.Pick([]int{7}); got != 7 {
		t.Fatalf("single pick got %d", got)
	}
}
