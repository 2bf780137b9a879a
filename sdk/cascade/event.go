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

package cascade

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/calc"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// Phase names the board moment a Frame shows.
type Phase string

const (
	PhaseDrop   Phase = "drop"   // fresh board, every cell entering
	PhaseSettle Phase = "settle" // entering cleared
	PhasePop    Phase = "pop"    // clustered cells flagged popping
	PhaseRefill Phase = "refill" // collapsed and refilled
)

// Frame is one renderable board state.
type Frame struct {
	Round    int            `json:"round"`
	Phase    Phase          `json:"phase"`
	Grid     []grid.Cell    `json:"grid"`
	Popping  []int          `json:"popping,omitempty"`
	Clusters []calc.Cluster `json:"clusters,omitempty"`
}

// BurstEntry is the audit record of one paid cluster. Exactly one is made
// per cluster per round.
type BurstEntry struct {
	ID     string          `json:"id"`
	Round  int             `json:"round"`
	Symbol int             `json:"symbol"`
	Count  int             `json:"count"`
	Mult   int             `json:"mult"`
	Win    decimal.Decimal `json:"win"`
}

// BetEntry is the audit record of one accepted spin. Result is the total
// win with the bet not subtracted.
type BetEntry struct {
	ID         string          `json:"id"`
	Bet        decimal.Decimal `json:"bet"`
	Result     decimal.Decimal `json:"result"`
	Tumbles    int             `json:"tumbles"`
	CapReached bool            `json:"cap_reached,omitempty"`
	Bursts     []BurstEntry    `json:"bursts"`
	At         time.Time       `json:"at"`
}

// Observer receives a spin's output stream in order: frames and bursts as
// they happen, then exactly one settle for an accepted spin.
type Observer interface {
	OnFrame(Frame)
	OnBurst(BurstEntry)
	OnSettle(BetEntry)
}

// Hooks adapts plain functions to Observer. Nil fields are skipped.
type Hooks struct {
	Frame  func(Frame)
	Burst  func(BurstEntry)
	Settle func(BetEntry)
}

func (h Hooks) OnFrame(f Frame) {
	if h.Frame != nil {
		h.Frame(f)
	}
}

func (h Hooks) OnBurst(b BurstEntry) {
	if h.Burst != nil {
		h.Burst(b)
	}
}

func (h Hooks) OnSettle(b BetEntry) {
	if h.Settle != nil {
		h.Settle(b)
	}
}

// Recorder is an Observer that keeps everything, handy for tests and for
// hosts that replay a spin after the fact.
type Recorder struct {
	Frames []Frame
	Bursts []BurstEntry
	Bets   []BetEntry
}

func (r *Recorder) OnFrame(f Frame)      { r.Frames = append(r.Frames, f) }
func (r *Recorder) OnBurst(b BurstEntry) { r.Bursts = append(r.Bursts, b) }
func (r *Recorder) OnSettle(b BetEntry)  { r.Bets = append(r.Bets, b) }

// Multi fans out to several observers in order.
type Multi []Observer

func (m Multi) OnFrame(f Frame) {
	for _, o := range m {
		o.OnFrame(f)
	}
}

func (m Multi) OnBurst(b BurstEntry) {
	for _, o := range m {
		o.OnBurst(b)
	}
}

func (m Multi) OnSettle(b BetEntry) {
	for _, o := range m {
		o.OnSettle(b)
	}
}
