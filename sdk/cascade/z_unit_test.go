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
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/spec"
)

func loadGame(t testing.TB, name string) *spec.GameSetting {
	t.Helper()
	raw, err := fs.ReadFile(demo_configs.FS, name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	gs, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return gs
}

// alwaysMatch 幾乎整盤同一符號，每輪都會消除
const alwaysMatch = `
game_name: always_match
grid: { columns: 4, rows: 4 }
symbols:
  list:
    - { name: a, base: 1, weight: 100000 }
    - { name: b, base: 1 }
    - { name: c, base: 1 }
    - { name: d, base: 1 }
    - { name: e, base: 1 }
    - { name: f, base: 1 }
multiplier: { disabled: true }
cascade: { safety_cap: 3 }
`

func newEngine(t testing.TB, gs *spec.GameSetting, seed int64, opts ...Option) *Engine {
	t.Helper()
	e, err := NewWithSeed(gs, seed, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestInsufficientBalanceRejected(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 1)
	s := NewSession(&gs.Bet)
	s.Balance = dec("0.5")
	rec := &Recorder{}

	r := e.RequestSpin(context.Background(), s, rec)
	if r.Rejected != RejectInsufficientBalance {
		t.Fatalf("want insufficient balance, got %q", r.Rejected)
	}
	if !s.Balance.Equal(dec("0.5")) || !r.BalanceAfter.Equal(dec("0.5")) {
		t.Fatalf("balance changed: %s / %s", s.Balance, r.BalanceAfter)
	}
	if !r.TotalWin.IsZero() || r.Tumbles != 0 || r.Entry != nil {
		t.Fatalf("rejected spin must carry nothing: %+v", r)
	}
	if len(rec.Frames)+len(rec.Bursts)+len(rec.Bets) != 0 || len(s.Bets) != 0 {
		t.Fatalf("rejected spin emitted events")
	}
	if e.State() != Idle {
		t.Fatalf("engine left in %s", e.State())
	}
}

func TestInvalidBetRejected(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 1)
	s := NewSession(&gs.Bet)
	s.Bet = decimal.Zero
	if r := e.RequestSpin(context.Background(), s, nil); r.Rejected != RejectInvalidBet {
		t.Fatalf("want invalid bet, got %q", r.Rejected)
	}
}

func TestConcurrentSpinRejected(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	sp := NewStepPacer()
	e := newEngine(t, gs, 7, WithPacer(sp))
	s1 := NewSession(&gs.Bet)
	s2 := NewSession(&gs.Bet)
	ctx := context.Background()

	done := make(chan SpinResult, 1)
	go func() { done <- e.RequestSpin(ctx, s1, nil) }()

	if p := <-sp.Pauses(); p != PauseDrop {
		t.Fatalf("first pause should be drop, got %s", p)
	}
	if e.State() == Idle {
		t.Fatalf("engine idle while a spin is held")
	}
	r2 := e.RequestSpin(ctx, s2, nil)
	if r2.Rejected != RejectBusy {
		t.Fatalf("want busy, got %q", r2.Rejected)
	}
	if !s2.Balance.Equal(gs.Bet.BalanceDec) {
		t.Fatalf("busy rejection touched balance: %s", s2.Balance)
	}

	sp.Resume()
	for {
		select {
		case <-sp.Pauses():
			sp.Resume()
		case r1 := <-done:
			if !r1.Accepted() {
				t.Fatalf("held spin should complete, got %q", r1.Rejected)
			}
			if e.State() != Idle {
				t.Fatalf("engine not idle after spin: %s", e.State())
			}
			return
		}
	}
}

// TestSpinInvariants walks many seeds and checks the accounting and board
// rules of every spin.
func TestSpinInvariants(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	n := gs.Grid.Size
	for seed := int64(1); seed <= 200; seed++ {
		e := newEngine(t, gs, seed)
		s := NewSession(&gs.Bet)
		rec := &Recorder{}
		r := e.RequestSpin(context.Background(), s, rec)
		if !r.Accepted() {
			t.Fatalf("seed %d rejected: %q", seed, r.Rejected)
		}

		want := r.BalanceBefore.Sub(r.Bet).Add(r.TotalWin)
		if !r.BalanceAfter.Equal(want) || !s.Balance.Equal(want) {
			t.Fatalf("seed %d: balance %s want %s", seed, r.BalanceAfter, want)
		}
		if r.Tumbles != len(r.Rounds) || r.Tumbles > gs.Cascade.SafetyCap {
			t.Fatalf("seed %d: tumbles %d rounds %d", seed, r.Tumbles, len(r.Rounds))
		}

		sum := decimal.Zero
		nClusters := 0
		for _, rr := range r.Rounds {
			nClusters += len(rr.Clusters)
			sum = sum.Add(rr.Win)
			if len(rr.Grid) != n {
				t.Fatalf("seed %d round %d: %d cells", seed, rr.Round, len(rr.Grid))
			}
		}
		if len(rec.Bursts) != nClusters || len(r.Entry.Bursts) != nClusters {
			t.Fatalf("seed %d: %d bursts for %d clusters", seed, len(rec.Bursts), nClusters)
		}
		bsum := decimal.Zero
		for _, b := range rec.Bursts {
			bsum = bsum.Add(b.Win)
		}
		if !sum.Equal(r.TotalWin) || !bsum.Equal(r.TotalWin) {
			t.Fatalf("seed %d: rounds %s bursts %s total %s", seed, sum, bsum, r.TotalWin)
		}
		if len(rec.Bets) != 1 || !rec.Bets[0].Result.Equal(r.TotalWin) {
			t.Fatalf("seed %d: settle event missing", seed)
		}
		if s.TumbleCount != r.Tumbles || !s.LastWin.Equal(r.TotalWin) {
			t.Fatalf("seed %d: session not updated", seed)
		}
		checkFrames(t, rec.Frames, n)
	}
}

func checkFrames(t *testing.T, frames []Frame, n int) {
	t.Helper()
	if len(frames) < 2 || frames[0].Phase != PhaseDrop || frames[1].Phase != PhaseSettle {
		t.Fatalf("spin must open with drop and settle frames")
	}
	for _, c := range frames[0].Grid {
		if c.Flag != grid.Entering {
			t.Fatalf("drop frame cell flagged %s", c.Flag)
		}
	}
	for _, c := range frames[1].Grid {
		if c.Flag != grid.Stable {
			t.Fatalf("settle frame cell flagged %s", c.Flag)
		}
	}
	for _, f := range frames {
		if len(f.Grid) != n {
			t.Fatalf("frame %s round %d has %d cells", f.Phase, f.Round, len(f.Grid))
		}
		if f.Phase == PhaseRefill {
			for _, c := range f.Grid {
				if c.Flag != grid.Stable && c.Flag != grid.Spawning {
					t.Fatalf("refill frame cell flagged %s", c.Flag)
				}
			}
		}
	}
}

// TestPaidFromPreRemovalBoard checks every burst against the pop frame,
// which is the board before anything was removed.
func TestPaidFromPreRemovalBoard(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	bet := dec("2")
	seen := 0
	for seed := int64(1); seed <= 300 && seen < 50; seed++ {
		e := newEngine(t, gs, seed)
		s := NewSession(&gs.Bet)
		s.Balance = dec("1000")
		s.SetBet(bet)
		rec := &Recorder{}
		e.RequestSpin(context.Background(), s, rec)

		bi := 0
		for _, f := range rec.Frames {
			if f.Phase != PhasePop {
				continue
			}
			for _, c := range f.Clusters {
				maxMult := 1
				for _, idx := range c.Indices {
					cell := f.Grid[idx]
					if cell.Symbol != c.Symbol || cell.Flag != grid.Popping {
						t.Fatalf("seed %d: cluster cell %d is %+v", seed, idx, cell)
					}
					if m := cell.Mult.Factor(); m > maxMult {
						maxMult = m
					}
				}
				b := rec.Bursts[bi]
				bi++
				if b.Round != f.Round || b.Symbol != c.Symbol || b.Count != c.Size() || b.Mult != maxMult {
					t.Fatalf("seed %d: burst %+v does not match cluster %+v", seed, b, c)
				}
				if !b.Win.Equal(e.Paytable().Win(c.Symbol, c.Size(), maxMult, bet)) {
					t.Fatalf("seed %d: burst win %s", seed, b.Win)
				}
				seen++
			}
		}
		if bi != len(rec.Bursts) {
			t.Fatalf("seed %d: %d bursts not shown in pop frames", seed, len(rec.Bursts)-bi)
		}
	}
	if seen == 0 {
		t.Fatalf("no clusters in 300 seeds")
	}
}

func TestSafetyCap(t *testing.T) {
	gs, err := spec.GetGameSettingByYAML([]byte(alwaysMatch))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, nil))
	e := newEngine(t, gs, 3, WithLogger(log))
	s := NewSession(&gs.Bet)

	r := e.RequestSpin(context.Background(), s, nil)
	if !r.Accepted() {
		t.Fatalf("rejected: %q", r.Rejected)
	}
	if !r.CapReached || r.Tumbles != 3 || !r.Entry.CapReached {
		t.Fatalf("want cap after 3 tumbles, got cap=%v tumbles=%d", r.CapReached, r.Tumbles)
	}
	if !r.TotalWin.IsPositive() {
		t.Fatalf("capped spin keeps its win, got %s", r.TotalWin)
	}
	if !strings.Contains(logBuf.String(), "safety cap") || !strings.Contains(logBuf.String(), "level=WARN") {
		t.Fatalf("cap must be logged as a warning: %q", logBuf.String())
	}
	if e.State() != Idle {
		t.Fatalf("engine left in %s", e.State())
	}
}

func TestDeterministicBySeed(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	run := func() ([]SpinResult, []grid.Cell) {
		e := newEngine(t, gs, 2024, WithIDFunc(func() string { return "x" }))
		s := NewSession(&gs.Bet)
		s.Balance = dec("100000")
		out := make([]SpinResult, 0, 20)
		for i := 0; i < 20; i++ {
			out = append(out, e.RequestSpin(context.Background(), s, nil))
		}
		return out, e.Board()
	}
	a, boardA := run()
	b, boardB := run()
	for i := range a {
		if !a[i].TotalWin.Equal(b[i].TotalWin) || a[i].Tumbles != b[i].Tumbles {
			t.Fatalf("spin %d differs: %s/%d vs %s/%d", i, a[i].TotalWin, a[i].Tumbles, b[i].TotalWin, b[i].Tumbles)
		}
	}
	for i := range boardA {
		if boardA[i] != boardB[i] {
			t.Fatalf("final board differs at %d", i)
		}
	}
}

func TestLiteSkipsFrames(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 5, WithLite(true))
	s := NewSession(&gs.Bet)
	s.Balance = dec("1000")
	rec := &Recorder{}
	for i := 0; i < 30; i++ {
		r := e.RequestSpin(context.Background(), s, rec)
		for _, rr := range r.Rounds {
			if rr.Grid != nil {
				t.Fatalf("lite round carries a grid")
			}
		}
	}
	if len(rec.Frames) != 0 || len(rec.Bets) != 30 {
		t.Fatalf("lite: frames=%d bets=%d", len(rec.Frames), len(rec.Bets))
	}
}

func TestBurstHistoryCap(t *testing.T) {
	s := &Session{}
	for i := 0; i < BurstHistoryCap+10; i++ {
		s.pushBurst(BurstEntry{Round: i})
	}
	if len(s.Bursts) != BurstHistoryCap {
		t.Fatalf("want %d bursts, got %d", BurstHistoryCap, len(s.Bursts))
	}
	if s.Bursts[0].Round != BurstHistoryCap+9 || s.Bursts[BurstHistoryCap-1].Round != 10 {
		t.Fatalf("want newest first, got %d..%d", s.Bursts[0].Round, s.Bursts[BurstHistoryCap-1].Round)
	}
	s.startSpin(decimal.Zero)
	if len(s.Bursts) != 0 {
		t.Fatalf("burst history must reset per spin")
	}
}

func TestBetHistoryLimit(t *testing.T) {
	s := &Session{BetLimit: 3}
	for i := 0; i < 5; i++ {
		s.settle(BetEntry{Tumbles: i, Result: decimal.Zero})
	}
	if len(s.Bets) != 3 || s.Bets[0].Tumbles != 2 || s.Bets[2].Tumbles != 4 {
		t.Fatalf("bet history %+v", s.Bets)
	}
}

func TestSetBetClamps(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	s := NewSession(&gs.Bet)
	cases := []struct{ in, want string }{
		{"0.2", "1"},
		{"5", "5"},
		{"5000000000", "1000000000"},
	}
	for _, c := range cases {
		if got := s.SetBet(dec(c.in)); !got.Equal(dec(c.want)) || !s.Bet.Equal(dec(c.want)) {
			t.Fatalf("SetBet(%s) = %s want %s", c.in, got, c.want)
		}
	}
}

func TestAutospinRuns(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 11)
	s := NewSession(&gs.Bet)
	s.Balance = dec("10000")

	r := e.Autospin(context.Background(), s, 25, nil, true)
	if r.Played != 25 || r.Stop != StopCompleted || len(r.Spins) != 25 {
		t.Fatalf("autospin %+v", r)
	}
	if len(s.Bets) != 25 || !r.TotalBet.Equal(dec("25")) {
		t.Fatalf("bets=%d total_bet=%s", len(s.Bets), r.TotalBet)
	}
	if e.Autospinning() || e.State() != Idle {
		t.Fatalf("engine still busy after autospin")
	}
}

func TestAutospinStopsOnBalance(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 11)
	s := NewSession(&gs.Bet)
	s.Balance = decimal.Zero

	r := e.Autospin(context.Background(), s, 5, nil, false)
	if r.Played != 0 || r.Stop != StopInsufficient {
		t.Fatalf("autospin %+v", r)
	}
}

func TestAutospinCancelledBeforeStart(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 11)
	s := NewSession(&gs.Bet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := e.Autospin(ctx, s, 5, nil, false)
	if r.Played != 0 || r.Stop != StopRequested || len(s.Bets) != 0 {
		t.Fatalf("autospin %+v", r)
	}
}

// TestAutospinStopFinishesCurrentSpin stops a run while its first spin is
// held, then checks that spin still completed and settled.
func TestAutospinStopFinishesCurrentSpin(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	sp := NewStepPacer()
	e := newEngine(t, gs, 11, WithPacer(sp))
	s := NewSession(&gs.Bet)
	s.Balance = dec("1000")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan AutoResult, 1)
	go func() { done <- e.Autospin(ctx, s, 10, nil, false) }()

	<-sp.Pauses()
	if r := e.RequestSpin(ctx, NewSession(&gs.Bet), nil); r.Rejected != RejectBusy {
		t.Fatalf("manual spin during autospin: want busy, got %q", r.Rejected)
	}
	if r := e.Autospin(ctx, NewSession(&gs.Bet), 1, nil, false); r.Stop != StopBusy {
		t.Fatalf("second autospin: want busy, got %q", r.Stop)
	}
	e.StopAutospin()
	sp.Resume()

	for {
		select {
		case <-sp.Pauses():
			sp.Resume()
		case r := <-done:
			if r.Played != 1 || r.Stop != StopRequested {
				t.Fatalf("autospin %+v", r)
			}
			if len(s.Bets) != 1 {
				t.Fatalf("held spin must settle, bets=%d", len(s.Bets))
			}
			return
		}
	}
}

func TestStream(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	e := newEngine(t, gs, 9)
	s := NewSession(&gs.Bet)

	var kinds []EventKind
	var last Event
	bursts := 0
	for ev := range Stream(context.Background(), e, s, 4) {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventBurst {
			bursts++
		}
		last = ev
	}
	if len(kinds) < 4 || kinds[0] != EventFrame || kinds[len(kinds)-2] != EventSettle {
		t.Fatalf("unexpected event order %v", kinds)
	}
	if last.Kind != EventResult || last.Result == nil || !last.Result.Accepted() {
		t.Fatalf("stream must end with an accepted result")
	}
	if bursts != len(last.Result.Entry.Bursts) {
		t.Fatalf("streamed %d bursts, result has %d", bursts, len(last.Result.Entry.Bursts))
	}
}

func TestTimedPacerHonoursCancel(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	tp := TimedPacer{Setting: &gs.Pacing, Speed: spec.SpeedNormal}
	if d := tp.delay(PauseDrop); d != 2*time.Second {
		t.Fatalf("normal drop delay %s", d)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	tp.Wait(ctx, PauseDrop)
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("cancelled wait blocked")
	}
}

func TestUnaffordableRequestDoesNotTakeEngine(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	sp := NewStepPacer()
	e := newEngine(t, gs, 7, WithPacer(sp))
	ctx := context.Background()

	// Idle engine: the rejection leaves it idle and free for the next player.
	poor := NewSession(&gs.Bet)
	poor.Balance = dec("0.5")
	if r := e.RequestSpin(ctx, poor, nil); r.Rejected != RejectInsufficientBalance {
		t.Fatalf("want insufficient balance, got %q", r.Rejected)
	}
	if e.State() != Idle {
		t.Fatalf("engine left in %s", e.State())
	}

	// Busy engine: the balance check comes first, so the poor player is told
	// why, and the held spin is untouched.
	rich := NewSession(&gs.Bet)
	done := make(chan SpinResult, 1)
	go func() { done <- e.RequestSpin(ctx, rich, nil) }()
	<-sp.Pauses()
	if r := e.RequestSpin(ctx, poor, nil); r.Rejected != RejectInsufficientBalance {
		t.Fatalf("want insufficient balance while busy, got %q", r.Rejected)
	}
	sp.Resume()
	for {
		select {
		case <-sp.Pauses():
			sp.Resume()
		case r := <-done:
			if !r.Accepted() {
				t.Fatalf("held spin rejected: %q", r.Rejected)
			}
			if !poor.Balance.Equal(dec("0.5")) || len(poor.Bets) != 0 {
				t.Fatalf("poor session touched: %s bets=%d", poor.Balance, len(poor.Bets))
			}
			return
		}
	}
}

// popPanic panics on the first pop frame, after that round's bursts are out.
type popPanic struct{ Recorder }

func (p *popPanic) OnFrame(f Frame) {
	if f.Phase == PhasePop {
		panic("renderer exploded")
	}
	p.Recorder.OnFrame(f)
}

func TestObserverPanicSettlesSpin(t *testing.T) {
	gs := loadGame(t, "fruit_blast_10x8.yaml")
	for seed := int64(1); seed <= 500; seed++ {
		e := newEngine(t, gs, seed)
		s := NewSession(&gs.Bet)
		before := s.Balance
		obs := &popPanic{}

		panicked := func() (p bool) {
			defer func() { p = recover() != nil }()
			e.RequestSpin(context.Background(), s, obs)
			return false
		}()
		if !panicked {
			continue
		}

		if e.State() != Idle {
			t.Fatalf("engine left in %s", e.State())
		}
		if len(s.Bets) != 1 {
			t.Fatalf("aborted spin must settle once, bets=%d", len(s.Bets))
		}
		if len(obs.Bursts) == 0 {
			t.Fatalf("pop frame without bursts")
		}
		win := decimal.Zero
		for _, b := range obs.Bursts {
			win = win.Add(b.Win)
		}
		got := s.Bets[0]
		if !got.Result.Equal(win) || len(got.Bursts) != len(obs.Bursts) {
			t.Fatalf("settled %s over %d bursts, announced %s over %d", got.Result, len(got.Bursts), win, len(obs.Bursts))
		}
		if want := before.Sub(gs.Bet.DefaultDec).Add(win); !s.Balance.Equal(want) {
			t.Fatalf("balance %s want %s", s.Balance, want)
		}
		if !s.LastWin.Equal(win) {
			t.Fatalf("last win %s want %s", s.LastWin, win)
		}
		return
	}
	t.Fatalf("no seed produced a winning spin")
}
