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

package spec

import (
	"slices"

	"github.com/zintix-labs/tumblelab/errs"
)

// MultiplierSetting controls the per-cell multiplier roll.
//
// A new cell carries a multiplier with probability Prob. The value is drawn
// by cumulative thresholding over [0, Span); draws past the summed weights
// return Fallback.
type MultiplierSetting struct {
	Prob     float64   `yaml:"prob"     json:"prob"`
	Values   []int     `yaml:"values"   json:"values"`
	Weights  []float64 `yaml:"weights"  json:"weights"`
	Span     float64   `yaml:"span"     json:"span"`
	Fallback int       `yaml:"fallback" json:"fallback"`
	Disabled bool      `yaml:"disabled" json:"disabled"`
	initFlag bool
}

const (
	DefaultMultProb     = 0.10
	DefaultMultSpan     = 100.0
	DefaultMultFallback = 2
)

// DefaultMultValues 2..200
func DefaultMultValues() []int { return []int{2, 4, 8, 16, 32, 64, 128, 200} }

// DefaultMultWeights sums to 85, leaving 15 of the 100 span to the fallback.
func DefaultMultWeights() []float64 { return []float64{25, 20, 15, 10, 8, 4, 2, 1} }

func (ms *MultiplierSetting) Init() error {
	if ms.initFlag {
		return nil
	}
	if ms.Disabled {
		ms.Prob = 0
	} else if ms.Prob == 0 {
		ms.Prob = DefaultMultProb
	}
	if len(ms.Values) == 0 && len(ms.Weights) == 0 {
		ms.Values = DefaultMultValues()
		ms.Weights = DefaultMultWeights()
	}
	if ms.Span == 0 {
		ms.Span = DefaultMultSpan
	}
	if ms.Fallback == 0 {
		ms.Fallback = DefaultMultFallback
	}
	if ms.Prob < 0 || ms.Prob > 1 {
		return errs.Fatalf("multiplier.prob must be in [0,1], got %v", ms.Prob)
	}
	if len(ms.Values) != len(ms.Weights) {
		return errs.Fatalf("multiplier: %d values but %d weights", len(ms.Values), len(ms.Weights))
	}
	for _, v := range append(slices.Clone(ms.Values), ms.Fallback) {
		if v < 2 {
			return errs.Fatalf("multiplier value %d below 2", v)
		}
	}
	ms.initFlag = true
	return nil
}
