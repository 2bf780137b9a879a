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
	"context"

	"github.com/shopspring/decimal"
)

// StopReason tells why an autospin run ended.
type StopReason string

const (
	StopCompleted    StopReason = "completed"
	StopRequested    StopReason = "stopped"
	StopInsufficient StopReason = "insufficient_balance"
	StopBusy         StopReason = "busy"
	StopInvalidBet   StopReason = "invalid_bet"
)

// AutoResult sums an autospin run.
type AutoResult struct {
	Requested int             `json:"requested"`
	Played    int             `json:"played"`
	TotalBet  decimal.Decimal `json:"total_bet"`
	TotalWin  decimal.Decimal `json:"total_win"`
	CapHits   int             `json:"cap_hits"`
	Stop      StopReason      `json:"stop"`
	Spins     []SpinResult    `json:"spins,omitempty"`
}

// Autospin plays up to n spins for s, one after another. Each spin starts
// only after the previous one is back to Idle.
//
// Cancelling ctx or calling StopAutospin prevents the next spin from being
// scheduled; the spin in flight always finishes with its normal pacing. A
// rejected spin ends the run. keep controls whether per-spin results are
// returned.
func (e *Engine) Autospin(ctx context.Context, s *Session, n int, obs Observer, keep bool) AutoResult {
	out := AutoResult{Requested: n, TotalBet: decimal.Zero, TotalWin: decimal.Zero, Stop: StopCompleted}
	if !e.auto.CompareAndSwap(false, true) {
		out.Stop = StopBusy
		return out
	}
	defer func() {
		e.autoStop.Store(false)
		e.auto.Store(false)
	}()

	spinCtx := context.WithoutCancel(ctx)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil || e.autoStop.Load() {
			out.Stop = StopRequested
			break
		}
		r := e.spin(spinCtx, s, obs)
		if !r.Accepted() {
			out.Stop = stopFor(r.Rejected)
			break
		}
		out.Played++
		out.TotalBet = out.TotalBet.Add(r.Bet)
		out.TotalWin = out.TotalWin.Add(r.TotalWin)
		if r.CapReached {
			out.CapHits++
		}
		if keep {
			out.Spins = append(out.Spins, r)
		}
	}
	e.log.Info("autospin done",
		"game", e.gs.GameName,
		"requested", n,
		"played", out.Played,
		"stop", string(out.Stop),
		"total_win", out.TotalWin.String(),
	)
	return out
}

// StopAutospin asks the running autospin to stop after the current spin.
// It is a no-op when no autospin is running.
func (e *Engine) StopAutospin() {
	if e.auto.Load() {
		e.autoStop.Store(true)
	}
}

func stopFor(r Reject) StopReason {
	switch r {
	case RejectInsufficientBalance:
		return StopInsufficient
	case RejectInvalidBet:
		return StopInvalidBet
	}
	return StopBusy
}
