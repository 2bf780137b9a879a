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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/spec"
)

// BurstHistoryCap is how many burst entries a session keeps, newest first.
const BurstHistoryCap = 50

// Session is the per-player state a spin reads and writes: balance, bet and
// the derived history. It is passed into the engine explicitly and must
// only be touched by one spin at a time.
type Session struct {
	ID          string          `json:"id"`
	Balance     decimal.Decimal `json:"balance"`
	Bet         decimal.Decimal `json:"bet"`
	LastWin     decimal.Decimal `json:"last_win"`
	TumbleCount int             `json:"tumble_count"`

	// Bets is every settled spin, oldest first. BetLimit > 0 keeps only the
	// newest BetLimit entries.
	Bets     []BetEntry `json:"bets"`
	BetLimit int        `json:"-"`
	// Bursts is the current spin's bursts, newest first, at most
	// BurstHistoryCap long. It is reset when a spin starts.
	Bursts []BurstEntry `json:"bursts"`

	limits *spec.BetSetting
}

// NewSession opens a session at the configured initial balance and default
// bet.
func NewSession(bs *spec.BetSetting) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Balance: bs.BalanceDec,
		Bet:     bs.DefaultDec,
		limits:  bs,
	}
}

// SetBet stores bet clamped to the configured limits and returns the stored
// value. Without limits the bet is stored as given.
func (s *Session) SetBet(bet decimal.Decimal) decimal.Decimal {
	if s.limits != nil {
		bet = s.limits.Clamp(bet)
	}
	s.Bet = bet
	return bet
}

// CanAfford reports whether the balance covers the current bet.
func (s *Session) CanAfford() bool {
	return s.Balance.GreaterThanOrEqual(s.Bet)
}

func (s *Session) startSpin(bet decimal.Decimal) {
	s.Balance = s.Balance.Sub(bet)
	s.LastWin = decimal.Zero
	s.TumbleCount = 0
	s.Bursts = []BurstEntry{}
}

func (s *Session) pushBurst(b BurstEntry) {
	if len(s.Bursts) < BurstHistoryCap {
		s.Bursts = append(s.Bursts, BurstEntry{})
	}
	copy(s.Bursts[1:], s.Bursts[:len(s.Bursts)-1])
	s.Bursts[0] = b
}

func (s *Session) settle(e BetEntry) {
	if e.Result.IsPositive() {
		s.Balance = s.Balance.Add(e.Result)
	}
	s.LastWin = e.Result
	s.Bets = append(s.Bets, e)
	if s.BetLimit > 0 && len(s.Bets) > s.BetLimit {
		s.Bets = append(s.Bets[:0], s.Bets[len(s.Bets)-s.BetLimit:]...)
	}
}
