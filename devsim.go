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

package tumblelab

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/corefmt"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/stats"
)

const (
	maxDevSpins = 5000
	maxDevSim   = 3_000_000
)

// DevSimulator
//
// 只提供給 Dev 模式使用的模擬器，單線（不併發），重點在可審計、可重現：
// 每份報表都帶有開始與結束的 Core 快照，拿開始快照 Restore 之後可以一局不差地重跑。
type DevSimulator struct {
	sim      *Simulator
	m        *Machine
	before64 string
	after64  string
}

type DevSpinReport struct {
	Before   string          `json:"start_b64u"`
	After    string          `json:"after_b64u"`
	Round    int             `json:"round"`
	Rtp      float64         `json:"rtp"`
	TotalBet decimal.Decimal `json:"total_bet"`
	TotalWin decimal.Decimal `json:"total_win"`
	Tumbles  int             `json:"tumbles"`
	CapHits  int             `json:"cap_hits"`
	Results  []SpinOutcome   `json:"results"`
}

// Spins plays round spins at bet on the dev machine and keeps every result.
func (d *DevSimulator) Spins(bet decimal.Decimal, round int) (DevSpinReport, error) {
	if round < 1 || round > maxDevSpins {
		return DevSpinReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	if err := d.sim.validBet(bet); err != nil {
		return DevSpinReport{}, err
	}
	ss := d.sim.session(bet)
	ds := make([]SpinOutcome, 0, round)
	for range round {
		ss.Balance = ss.Bet
		r, err := d.m.Spin(context.Background(), ss, nil)
		if err != nil {
			return DevSpinReport{}, errs.Wrap(err, "spin error")
		}
		ds = append(ds, r)
	}

	de := DevSpinReport{
		Before:   ds[0].Start64,
		After:    ds[len(ds)-1].After64,
		Round:    len(ds),
		TotalBet: decimal.Zero,
		TotalWin: decimal.Zero,
		Results:  ds,
	}
	for _, r := range ds {
		de.TotalBet = de.TotalBet.Add(r.Bet)
		de.TotalWin = de.TotalWin.Add(r.TotalWin)
		de.Tumbles += r.Tumbles
		if r.CapReached {
			de.CapHits++
		}
	}
	de.Rtp = 100 * de.TotalWin.Div(de.TotalBet).InexactFloat64()
	d.before64, d.after64 = de.Before, de.After
	return de, nil
}

// RestoreSpins restores the dev machine to the base64url snapshot be64 and
// plays Spins from there.
func (d *DevSimulator) RestoreSpins(be64 string, bet decimal.Decimal, round int) (DevSpinReport, error) {
	if round < 1 || round > maxDevSpins {
		return DevSpinReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSpinReport{}, errs.NewWarn("decode seed failed " + err.Error())
	}
	if err := d.m.RestoreCore(be); err != nil {
		return DevSpinReport{}, errs.NewWarn("machine restore failed")
	}
	return d.Spins(bet, round)
}

// ReplaySpin replays exactly one spin from its start snapshot without moving
// the dev machine.
func (d *DevSimulator) ReplaySpin(be64 string, bet decimal.Decimal, obs cascade.Observer) (SpinOutcome, error) {
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return SpinOutcome{}, errs.NewWarn("decode seed failed " + err.Error())
	}
	if err := d.sim.validBet(bet); err != nil {
		return SpinOutcome{}, err
	}
	ss := d.sim.session(bet)
	ss.Balance = ss.Bet
	return d.m.Replay(context.Background(), be, ss, obs)
}

type DevSimReport struct {
	Before string            `json:"before"`
	After  string            `json:"after"`
	Stat   *stats.StatReport `json:"statistic"`
}

// Sim runs the single-machine simulator and brackets it with snapshots.
func (d *DevSimulator) Sim(bet decimal.Decimal, round int) (DevSimReport, error) {
	if round < 1 || round > maxDevSim {
		return DevSimReport{}, errs.NewWarn("round must be between 1 and 3,000,000")
	}
	m := d.sim.mBuf[0]
	be, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	d.before64 = corefmt.EncodeBase64URL(be)

	stat, _, err := d.sim.Sim(bet, round, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	af, err := m.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	d.after64 = corefmt.EncodeBase64URL(af)

	return DevSimReport{
		Before: d.before64,
		After:  d.after64,
		Stat:   stat,
	}, nil
}

// RestoreSim restores the simulator machine to be64 and runs Sim.
func (d *DevSimulator) RestoreSim(be64 string, bet decimal.Decimal, round int) (DevSimReport, error) {
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode seed failed")
	}
	if err := d.sim.mBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}
	return d.Sim(bet, round)
}

// Snapshots returns the base64url snapshots bracketing the last run.
func (d *DevSimulator) Snapshots() (before, after string) {
	return d.before64, d.after64
}
