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

package grid

import (
	"encoding/json"
	"fmt"
)

// Flag is the lifecycle hint carried by a cell. It only drives presentation;
// cluster detection and payout never read it.
type Flag uint8

const (
	Stable Flag = iota
	Entering
	Spawning
	Popping
)

var flagNames = [...]string{"stable", "entering", "spawning", "popping"}

func (f Flag) String() string {
	if int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("flag(%d)", f)
}

func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Flag) UnmarshalText(b []byte) error {
	for i, n := range flagNames {
		if n == string(b) {
			*f = Flag(i)
			return nil
		}
	}
	return fmt.Errorf("grid: unknown flag %q", b)
}

// Mult is an optional cell multiplier. The zero value is "no multiplier",
// which is different from a multiplier of 1: only Factor folds the two
// together, for payout math.
type Mult struct {
	value int
	ok    bool
}

// MinMult is the smallest multiplier a cell can carry.
const MinMult = 2

// Some returns a present multiplier. It panics below MinMult.
func Some(v int) Mult {
	if v < MinMult {
		panic(fmt.Sprintf("grid: multiplier %d below %d", v, MinMult))
	}
	return Mult{value: v, ok: true}
}

// None returns the absent multiplier.
func None() Mult { return Mult{} }

// Get returns the value and whether it is present.
func (m Mult) Get() (int, bool) { return m.value, m.ok }

func (m Mult) Present() bool { return m.ok }

// Factor is the value used in payout math: the multiplier, or 1 when absent.
func (m Mult) Factor() int {
	if !m.ok {
		return 1
	}
	return m.value
}

func (m Mult) String() string {
	if !m.ok {
		return "-"
	}
	return fmt.Sprintf("x%d", m.value)
}

// MarshalJSON writes null when absent.
func (m Mult) MarshalJSON() ([]byte, error) {
	if !m.ok {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Mult) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = None()
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v < MinMult {
		return fmt.Errorf("grid: multiplier %d below %d", v, MinMult)
	}
	*m = Some(v)
	return nil
}

// Cell is one grid position.
type Cell struct {
	Symbol int  `json:"symbol"`
	Mult   Mult `json:"mult"`
	Flag   Flag `json:"flag"`
}
