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

// Package core holds the random source every grid, cell and multiplier draw
// goes through.
//
// A Core wraps a seeded PRNG. Same seed, same draws: the cascade tests and
// the simulator both rely on that to replay spins exactly.
package core

// PRNG is the random source a Core needs: sampling plus state save/restore.
type PRNG interface {
	RAND
	Restorable
}

// Restorable can snapshot and restore its internal state.
type Restorable interface {
	Snapshot() ([]byte, error)
	Restore([]byte) error
}

// RAND is the sampling surface.
//
// Implementations provide bounded draws themselves so a 32-bit generator
// does not have to go through a 64-bit path.
type RAND interface {
	// Uint64 returns a uniformly distributed uint64.
	Uint64() uint64
	// Float64 returns a float in [0,1).
	Float64() float64
	// UintN returns a uint in [0,max); 0 when max == 0.
	UintN(uint) uint
	// IntN returns an int in [0,max); -1 when max <= 0.
	IntN(int) int
}

// PRNGFactory builds a PRNG from a seed.
//
// New(seed) must be deterministic for a given implementation and version.
type PRNGFactory interface {
	New(int64) PRNG
}

// DefaultPRNG is the PCG64 factory.
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core wraps a PRNG with the draws the game needs.
type Core struct {
	PRNG
}

// New wraps an externally supplied PRNG.
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewCore is New(Default().New(seed)).
func NewCore(seed int64) *Core {
	return New(Default().New(seed))
}

// UniformInt returns an integer in [min, max], both ends inclusive.
// Swapped bounds are normalized.
func (c *Core) UniformInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	if min == max {
		return min
	}
	return min + c.IntN(max-min+1)
}

// Bernoulli reports true with probability p. p <= 0 never fires and p >= 1
// always fires without consuming a draw.
func (c *Core) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return c.Float64() < p
}

// Pick returns a random element of src, -1 when src is empty.
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	return src[c.IntN(len(src))]
}
