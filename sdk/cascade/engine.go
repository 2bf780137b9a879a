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

// Package cascade runs the tumble state machine: drop a fresh board, pay
// and pop every cluster, collapse, refill, and repeat until the board is
// quiet or the safety cap is hit.
package cascade

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/calc"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/gen"
	"github.com/zintix-labs/tumblelab/sdk/grid"
	"github.com/zintix-labs/tumblelab/sdk/ops"
	"github.com/zintix-labs/tumblelab/spec"
)

// Engine owns one board and plays one spin at a time on it.
//
// RequestSpin may be called from any goroutine; a request that arrives
// while a spin or an autospin run is in progress is rejected, never queued.
type Engine struct {
	gs   *spec.GameSetting
	core *core.Core
	gen  *gen.GridGenerator
	det  *calc.Detector
	pay  *calc.Paytable

	board   *grid.Grid
	fillBuf []int
	popBuf  []int

	state    atomic.Int32
	auto     atomic.Bool
	autoStop atomic.Bool

	pacer Pacer
	log   *slog.Logger
	lite  bool
	clock func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPacer sets the pacer used at every suspension point. Default NoPacer.
func WithPacer(p Pacer) Option {
	return func(e *Engine) {
		if p != nil {
			e.pacer = p
		}
	}
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithLite skips board snapshots: no frames are emitted and RoundResult.Grid
// stays nil. Simulation runs this way.
func WithLite(lite bool) Option {
	return func(e *Engine) { e.lite = lite }
}

// WithClock overrides time.Now for BetEntry.At.
func WithClock(f func() time.Time) Option {
	return func(e *Engine) {
		if f != nil {
			e.clock = f
		}
	}
}

// WithIDFunc overrides the id source for bet and burst entries.
func WithIDFunc(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

// New builds an engine for gs drawing from c.
func New(gs *spec.GameSetting, c *core.Core, opts ...Option) (*Engine, error) {
	if gs == nil {
		return nil, errs.NewFatal("cascade: game setting required")
	}
	g, err := gen.NewGridGenerator(c, gs)
	if err != nil {
		return nil, errs.Wrap(err, "cascade: new engine")
	}
	e := &Engine{
		gs:      gs,
		core:    c,
		gen:     g,
		det:     calc.NewDetector(gs.Cluster.MinSize),
		pay:     calc.NewPaytable(gs),
		board:   grid.New(gs.Grid.Columns, gs.Grid.Rows),
		fillBuf: make([]int, 0, gs.Grid.Size),
		popBuf:  make([]int, 0, gs.Grid.Size),
		pacer:   NoPacer{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewWithSeed is New over a fresh PCG64 core.
func NewWithSeed(gs *spec.GameSetting, seed int64, opts ...Option) (*Engine, error) {
	return New(gs, core.NewCore(seed), opts...)
}

func (e *Engine) Setting() *spec.GameSetting    { return e.gs }
func (e *Engine) Core() *core.Core              { return e.core }
func (e *Engine) Paytable() *calc.Paytable      { return e.pay }
func (e *Engine) Generator() *gen.GridGenerator { return e.gen }

// State reports the current state. It is Idle between spins.
func (e *Engine) State() State { return State(e.state.Load()) }

// Autospinning reports whether an autospin run owns the engine.
func (e *Engine) Autospinning() bool { return e.auto.Load() }

// Board returns a copy of the current board.
func (e *Engine) Board() []grid.Cell { return e.board.Snapshot() }

// RequestSpin plays one spin for s and reports it on obs (nil is fine).
//
// A rejected request changes nothing: no deduction, no events, zero win.
// An accepted spin deducts the bet before the board drops and credits the
// total win after the last round. s must not be touched by anyone else for
// the duration of the call.
//
// If obs panics, the spin is settled on s with the bursts announced so far
// and the panic is passed on to the caller.
func (e *Engine) RequestSpin(ctx context.Context, s *Session, obs Observer) SpinResult {
	if e.auto.Load() {
		return e.reject(s, RejectBusy)
	}
	return e.spin(ctx, s, obs)
}

func (e *Engine) reject(s *Session, r Reject) SpinResult {
	e.log.Debug("spin rejected", "reason", r.String(), "bet", s.Bet.String(), "balance", s.Balance.String())
	return Rejected(s, r)
}

func (e *Engine) spin(ctx context.Context, s *Session, obs Observer) SpinResult {
	bet := s.Bet
	if !bet.IsPositive() {
		return e.reject(s, RejectInvalidBet)
	}
	if !s.CanAfford() {
		return e.reject(s, RejectInsufficientBalance)
	}
	if !e.state.CompareAndSwap(int32(Idle), int32(Dropping)) {
		return e.reject(s, RejectBusy)
	}
	defer e.state.Store(int32(Idle))
	if obs == nil {
		obs = Hooks{}
	}

	res := SpinResult{
		Bet:           bet,
		TotalWin:      decimal.Zero,
		BalanceBefore: s.Balance,
	}
	entry := BetEntry{ID: e.newID(), Bet: bet}
	s.startSpin(bet)
	settled := false
	defer func() {
		if settled {
			return
		}
		if p := recover(); p != nil {
			e.settleAborted(s, &entry, res)
			panic(p)
		}
	}()

	// Dropping
	e.gen.RandomGrid(e.board, true)
	e.frame(obs, Frame{Round: 0, Phase: PhaseDrop})
	e.pacer.Wait(ctx, PauseDrop)
	e.board.SetFlags(grid.Stable)
	e.frame(obs, Frame{Round: 0, Phase: PhaseSettle})

	capN := e.gs.Cascade.SafetyCap
	for round := 1; ; round++ {
		e.state.Store(int32(Evaluating))
		clusters := e.det.Detect(e.board, nil)
		if len(clusters) == 0 {
			break
		}
		if round > capN {
			res.CapReached = true
			e.log.Warn("cascade safety cap reached",
				"game", e.gs.GameName,
				"bet_id", entry.ID,
				"cap", capN,
				"pending_clusters", len(clusters),
				"total_win", res.TotalWin.String(),
			)
			break
		}

		// Resolving: pay from the board as it stands, before anything moves.
		e.state.Store(int32(Resolving))
		rr := RoundResult{Round: round, Clusters: clusters, Win: decimal.Zero}
		e.popBuf = e.popBuf[:0]
		for _, c := range clusters {
			win := e.pay.Payout(c, bet)
			b := BurstEntry{
				ID:     e.newID(),
				Round:  round,
				Symbol: c.Symbol,
				Count:  c.Size(),
				Mult:   c.MaxMult,
				Win:    win,
			}
			rr.Win = rr.Win.Add(win)
			entry.Bursts = append(entry.Bursts, b)
			s.pushBurst(b)
			obs.OnBurst(b)
			e.popBuf = append(e.popBuf, c.Indices...)
		}
		ops.Pop(e.board, e.popBuf)
		e.frame(obs, Frame{
			Round:    round,
			Phase:    PhasePop,
			Popping:  append([]int(nil), e.popBuf...),
			Clusters: clusters,
		})
		e.pacer.Wait(ctx, PausePop)

		// Collapsing
		e.state.Store(int32(Collapsing))
		ops.Clear(e.board, e.popBuf)
		ops.Gravity(e.board, nil)
		e.fillBuf = ops.Refill(e.board, e.gen, e.fillBuf[:0])
		if e.board.Holes() != 0 {
			panic("cascade: holes left after refill")
		}
		res.TotalWin = res.TotalWin.Add(rr.Win)
		res.Tumbles++
		s.TumbleCount = res.Tumbles
		if !e.lite {
			rr.Grid = e.board.Snapshot()
		}
		res.Rounds = append(res.Rounds, rr)
		e.frame(obs, Frame{Round: round, Phase: PhaseRefill})
		e.pacer.Wait(ctx, PauseCollapse)
	}

	entry.Result = res.TotalWin
	entry.Tumbles = res.Tumbles
	entry.CapReached = res.CapReached
	entry.At = e.clock()
	s.settle(entry)
	settled = true

	res.BalanceAfter = s.Balance
	res.Entry = &entry
	obs.OnSettle(entry)
	return res
}

// settleAborted closes a spin that panicked after the bet was taken, most
// often inside an Observer. Every burst already announced is paid, so the
// session stays consistent with what the player was shown.
func (e *Engine) settleAborted(s *Session, entry *BetEntry, res SpinResult) {
	win := decimal.Zero
	for _, b := range entry.Bursts {
		win = win.Add(b.Win)
	}
	entry.Result = win
	entry.Tumbles = res.Tumbles
	entry.CapReached = res.CapReached
	entry.At = e.clock()
	s.settle(*entry)
	e.log.Error("spin aborted by panic",
		"game", e.gs.GameName,
		"bet_id", entry.ID,
		"bursts", len(entry.Bursts),
		"win", win.String(),
	)
}

// frame fills the board snapshot and emits f. Lite engines emit nothing.
func (e *Engine) frame(obs Observer, f Frame) {
	if e.lite {
		return
	}
	f.Grid = e.board.Snapshot()
	obs.OnFrame(f)
}
