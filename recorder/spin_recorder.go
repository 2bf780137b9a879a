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

// Package recorder accumulates spin results into plain sums during a
// simulation and hands them to package stats when it is done.
package recorder

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
)

const (
	tumbleSlots = 16 // 0..14, 15+
	sizeSlots   = 17 // min..min+15, min+16+
	// cashoutMult 離場條件（本金倍數）
	cashoutMult = 3
)

// SpinRecorder 遊戲紀錄員
//
// SpinRecorder records spins played at one fixed bet and produces the
// report with Done. Wins are kept in bet multiples so the hot path is
// float arithmetic; one decimal division per spin converts the result.
type SpinRecorder struct {
	GameName   string
	GameId     spec.GID
	Bet        decimal.Decimal
	InitBets   int
	MinCluster int
	Symbols    []string
	Basic      *BasicRecord
	Dist       *DistRecord
	Cascade    *CascadeRecord
	Player     *PlayerRecord

	betF float64
}

// BasicRecord 基本遊戲資料紀錄（贏分以下注倍數計）
type BasicRecord struct {
	TotalWinMult      float64
	TotalWinMultSqSum float64 // 平方和
	MaxWinMult        float64
	LongChains        int
	CapHits           int
	NoWin             int
	Rounds            int
}

// DistRecord 分數區間落點統計
type DistRecord struct {
	TotalWinCollect []int
}

// CascadeRecord counts tumbles, clusters and multipliers.
type CascadeRecord struct {
	TumbleCollect []int
	TumbleSum     int
	MaxTumbles    int
	Clusters      int
	SizeSum       int
	SizeCollect   []int
	MultCollect   map[int]int
	SymbolWinMult []float64
}

// PlayerRecord 玩家統計（以下注額為單位）
type PlayerRecord struct {
	leaveLine   float64
	InitBalance float64
	Balance     float64
	MaxBalance  float64
	MinBalance  float64
	Bust        bool
	Cashout     bool
}

// NewSpinRecorder builds a recorder for gs at bet. initBets is the player
// bankroll in bets; 0 disables the player path.
func NewSpinRecorder(gs *spec.GameSetting, bet decimal.Decimal, initBets int) (*SpinRecorder, error) {
	if gs == nil {
		return nil, errs.NewFatal("recorder: game setting required")
	}
	if !bet.IsPositive() {
		return nil, errs.NewFatal(fmt.Sprintf("recorder: bet must be positive, got %s", bet))
	}
	if initBets < 0 {
		return nil, errs.NewFatal(fmt.Sprintf("init bets must not negative integer, got: %d", initBets))
	}
	names := make([]string, len(gs.Symbols.Symbols))
	for i, sd := range gs.Symbols.Symbols {
		names[i] = sd.Name
	}
	s := &SpinRecorder{
		GameName:   gs.GameName,
		GameId:     gs.GameID,
		Bet:        bet,
		InitBets:   initBets,
		MinCluster: gs.Cluster.MinSize,
		Symbols:    names,
		Basic:      new(BasicRecord),
		Dist:       &DistRecord{TotalWinCollect: make([]int, stats.Buckets.Len())},
		Cascade:    newCascadeRecord(len(names)),
		Player:     newPlayerRecord(initBets),
		betF:       bet.InexactFloat64(),
	}
	return s, nil
}

// MergeSpinRecorder sums recorders of the same game, bet and bankroll.
// Player paths are not merged.
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : nothing to merge")
	}
	r0 := r[0]
	s := &SpinRecorder{
		GameName:   r0.GameName,
		GameId:     r0.GameId,
		Bet:        r0.Bet,
		InitBets:   r0.InitBets,
		MinCluster: r0.MinCluster,
		Symbols:    r0.Symbols,
		Basic:      new(BasicRecord),
		Dist:       &DistRecord{TotalWinCollect: make([]int, stats.Buckets.Len())},
		Cascade:    newCascadeRecord(len(r0.Symbols)),
		Player:     newPlayerRecord(r0.InitBets),
		betF:       r0.betF,
	}
	for _, v := range r {
		if v.GameName != r0.GameName {
			return s, errs.NewFatal("merge spin record err : different game name")
		}
		if !v.Bet.Equal(r0.Bet) {
			return s, errs.NewFatal("merge spin record err : different bet")
		}
		if v.InitBets != r0.InitBets {
			return s, errs.NewFatal("merge spin record err : different init bets")
		}
		b := s.Basic
		b.TotalWinMult += v.Basic.TotalWinMult
		b.TotalWinMultSqSum += v.Basic.TotalWinMultSqSum
		b.MaxWinMult = max(b.MaxWinMult, v.Basic.MaxWinMult)
		b.LongChains += v.Basic.LongChains
		b.CapHits += v.Basic.CapHits
		b.NoWin += v.Basic.NoWin
		b.Rounds += v.Basic.Rounds

		for i, c := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += c
		}

		c := s.Cascade
		for i, n := range v.Cascade.TumbleCollect {
			c.TumbleCollect[i] += n
		}
		c.TumbleSum += v.Cascade.TumbleSum
		c.MaxTumbles = max(c.MaxTumbles, v.Cascade.MaxTumbles)
		c.Clusters += v.Cascade.Clusters
		c.SizeSum += v.Cascade.SizeSum
		for i, n := range v.Cascade.SizeCollect {
			c.SizeCollect[i] += n
		}
		for m, n := range v.Cascade.MultCollect {
			c.MultCollect[m] += n
		}
		for i, w := range v.Cascade.SymbolWinMult {
			c.SymbolWinMult[i] += w
		}
	}
	return s, nil
}

// Record adds one spin. Rejected spins are ignored.
func (s *SpinRecorder) Record(sr *cascade.SpinResult) {
	if !sr.Accepted() {
		return
	}
	s.recordBasic(sr)
	s.recordCascade(sr)
}

// RecordWithPlayer is Record plus the bankroll path. It reports whether the
// player leaves: bust before the spin (which is then not recorded), bust
// after it, or cashed out at the target.
func (s *SpinRecorder) RecordWithPlayer(sr *cascade.SpinResult) bool {
	if s.Player.Balance < 1 {
		s.Player.Bust = true
		return true
	}
	if !sr.Accepted() {
		return true
	}
	s.recordBasic(sr)
	s.recordCascade(sr)
	return s.recordPlayer(s.winMult(sr))
}

// CanPlay reports whether the player bankroll still covers a bet.
func (s *SpinRecorder) CanPlay() bool {
	return s.Player.Balance >= 1
}

// Done builds the finished report.
func (s *SpinRecorder) Done() *stats.StatReport {
	rounds := s.Basic.Rounds
	c := s.Cascade
	mc := make(map[int]int, len(c.MultCollect))
	for k, v := range c.MultCollect {
		mc[k] = v
	}
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:    s.GameName,
			GameId:      s.GameId,
			Bet:         s.betF,
			TotalBet:    float64(rounds) * s.betF,
			TotalWin:    s.Basic.TotalWinMult * s.betF,
			LongChains:  s.Basic.LongChains,
			CapHits:     s.Basic.CapHits,
			NoWinRounds: s.Basic.NoWin,
			Rounds:      rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      s.Basic.TotalWinMult,
			TotalWinMultSqSum: s.Basic.TotalWinMultSqSum,
			MaxWinMult:        s.Basic.MaxWinMult,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: append([]int(nil), s.Dist.TotalWinCollect...),
		},
		Cascade: &stats.CascadeReport{
			TumbleLabel:        stats.TumbleLabels(tumbleSlots),
			TumbleCollect:      append([]int(nil), c.TumbleCollect...),
			MaxTumbles:         c.MaxTumbles,
			MinCluster:         s.MinCluster,
			Clusters:           c.Clusters,
			ClusterSizeLabel:   stats.ClusterSizeLabels(s.MinCluster, sizeSlots),
			ClusterSizeCollect: append([]int(nil), c.SizeCollect...),
			MultCollect:        mc,
			Symbols:            s.Symbols,
			SymbolWinMult:      append([]float64(nil), c.SymbolWinMult...),
			SizeSum:            c.SizeSum,
			TumbleSum:          c.TumbleSum,
		},
	}
	if s.InitBets > 0 {
		report.Player = &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
		}
	}
	return report
}

func (s *SpinRecorder) winMult(sr *cascade.SpinResult) float64 {
	if sr.TotalWin.IsZero() {
		return 0
	}
	return sr.TotalWin.Div(s.Bet).InexactFloat64()
}

func (s *SpinRecorder) recordBasic(sr *cascade.SpinResult) {
	w := s.winMult(sr)
	b := s.Basic
	b.TotalWinMult += w
	b.TotalWinMultSqSum += w * w
	if w > b.MaxWinMult {
		b.MaxWinMult = w
	}
	if w == 0 {
		b.NoWin++
	}
	if sr.Tumbles >= stats.LongChain {
		b.LongChains++
	}
	if sr.CapReached {
		b.CapHits++
	}
	b.Rounds++
	s.Dist.TotalWinCollect[stats.Buckets.Index(w)]++
}

func (s *SpinRecorder) recordCascade(sr *cascade.SpinResult) {
	c := s.Cascade
	c.TumbleCollect[min(sr.Tumbles, tumbleSlots-1)]++
	c.TumbleSum += sr.Tumbles
	c.MaxTumbles = max(c.MaxTumbles, sr.Tumbles)
	if sr.Entry == nil {
		return
	}
	for _, b := range sr.Entry.Bursts {
		c.Clusters++
		c.SizeSum += b.Count
		c.SizeCollect[min(max(b.Count-s.MinCluster, 0), sizeSlots-1)]++
		c.MultCollect[b.Mult]++
		if b.Symbol >= 0 && b.Symbol < len(c.SymbolWinMult) && !b.Win.IsZero() {
			c.SymbolWinMult[b.Symbol] += b.Win.Div(s.Bet).InexactFloat64()
		}
	}
}

func (s *SpinRecorder) recordPlayer(w float64) bool {
	p := s.Player
	p.Balance += w - 1
	if p.Balance > p.MaxBalance {
		p.MaxBalance = p.Balance
	}
	if p.Balance < p.MinBalance {
		p.MinBalance = p.Balance
	}
	leave := false
	if p.Balance < 1 {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newCascadeRecord(nSymbols int) *CascadeRecord {
	return &CascadeRecord{
		TumbleCollect: make([]int, tumbleSlots),
		SizeCollect:   make([]int, sizeSlots),
		MultCollect:   make(map[int]int),
		SymbolWinMult: make([]float64, nSymbols),
	}
}

func newPlayerRecord(initBets int) *PlayerRecord {
	b := float64(initBets)
	return &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   cashoutMult * b,
	}
}
