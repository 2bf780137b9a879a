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
	"time"

	"github.com/zintix-labs/tumblelab/errs"
)

// Speed scales every pacing delay.
type Speed string

const (
	SpeedNormal Speed = "normal"
	SpeedTurbo  Speed = "turbo"
)

// Factor normal 兩倍慢於 turbo
func (s Speed) Factor() int {
	if s == SpeedTurbo {
		return 1
	}
	return 2
}

// PacingSetting is the base delay of each suspension point of a spin, in
// turbo units. Only presentation hosts wait on them.
type PacingSetting struct {
	DropMs     int   `yaml:"drop_ms"     json:"drop_ms"`
	PopMs      int   `yaml:"pop_ms"      json:"pop_ms"`
	CollapseMs int   `yaml:"collapse_ms" json:"collapse_ms"`
	Speed      Speed `yaml:"speed"       json:"speed"`
	initFlag   bool
}

func (ps *PacingSetting) Init() error {
	if ps.initFlag {
		return nil
	}
	if ps.DropMs == 0 {
		ps.DropMs = 1000
	}
	if ps.PopMs == 0 {
		ps.PopMs = 360
	}
	if ps.CollapseMs == 0 {
		ps.CollapseMs = 520
	}
	if ps.Speed == "" {
		ps.Speed = SpeedNormal
	}
	if ps.Speed != SpeedNormal && ps.Speed != SpeedTurbo {
		return errs.Fatalf("pacing: unknown speed %q", ps.Speed)
	}
	if ps.DropMs < 0 || ps.PopMs < 0 || ps.CollapseMs < 0 {
		return errs.NewFatal("pacing: negative delay")
	}
	ps.initFlag = true
	return nil
}

func (ps *PacingSetting) Drop(s Speed) time.Duration {
	return time.Duration(ps.DropMs*s.Factor()) * time.Millisecond
}

func (ps *PacingSetting) Pop(s Speed) time.Duration {
	return time.Duration(ps.PopMs*s.Factor()) * time.Millisecond
}

func (ps *PacingSetting) Collapse(s Speed) time.Duration {
	return time.Duration(ps.CollapseMs*s.Factor()) * time.Millisecond
}
