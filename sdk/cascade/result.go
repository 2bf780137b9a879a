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
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/calc"
	"github.com/zintix-labs/tumblelab/sdk/grid"
)

// RoundResult is one tumble: the clusters paid, their summed win and the
// board after collapse and refill. Grid is nil when the engine runs lite.
type RoundResult struct {
	Round    int             `json:"round"`
	Clusters []calc.Cluster  `json:"clusters"`
	Win      decimal.Decimal `json:"win"`
	Grid     []grid.Cell     `json:"grid,omitempty"`
}

// SpinResult aggregates one spin request.
//
// A rejected request carries only Rejected, Bet and the untouched balance.
type SpinResult struct {
	Rejected      Reject          `json:"rejected,omitempty"`
	Bet           decimal.Decimal `json:"bet"`
	Rounds        []RoundResult   `json:"rounds,omitempty"`
	TotalWin      decimal.Decimal `json:"total_win"`
	Tumbles       int             `json:"tumbles"`
	CapReached    bool            `json:"cap_reached,omitempty"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Entry         *BetEntry       `json:"entry,omitempty"`
}

func (r *SpinResult) Accepted() bool { return r.Rejected == Accepted }

// Net is win minus bet for an accepted spin, zero otherwise.
func (r *SpinResult) Net() decimal.Decimal {
	if !r.Accepted() {
		return decimal.Zero
	}
	return r.TotalWin.Sub(r.Bet)
}

// Rejected builds the result of a request that did not run for s.
func Rejected(s *Session, r Reject) SpinResult {
	return SpinResult{
		Rejected:      r,
		Bet:           s.Bet,
		TotalWin:      decimal.Zero,
		BalanceBefore: s.Balance,
		BalanceAfter:  s.Balance,
	}
}
