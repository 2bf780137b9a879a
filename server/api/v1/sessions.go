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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/history"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
	"github.com/zintix-labs/tumblelab/spec"
)

var errBusy = errs.Wrap(httperr.ErrConflict, "a spin is already running for this session")

// liveSession is a player session held by the server. mu is held for the
// whole of a spin or an autospin run; a second request gets 409.
type liveSession struct {
	gid spec.GID
	mu  sync.Mutex
	s   *cascade.Session

	// view is what GET returns; it is refreshed after every request that
	// changed the session so reads never wait on a running spin.
	viewMu sync.RWMutex
	view   sessionView

	stopMu sync.Mutex
	stop   func()
}

type sessionView struct {
	ID          string               `json:"id"`
	GID         spec.GID             `json:"gid"`
	Balance     decimal.Decimal      `json:"balance"`
	Bet         decimal.Decimal      `json:"bet"`
	LastWin     decimal.Decimal      `json:"last_win"`
	TumbleCount int                  `json:"tumble_count"`
	Bursts      []cascade.BurstEntry `json:"bursts"`
	Spins       int                  `json:"spins"`
}

// refresh copies the session into view. Call with mu held.
func (ls *liveSession) refresh() sessionView {
	v := sessionView{
		ID:          ls.s.ID,
		GID:         ls.gid,
		Balance:     ls.s.Balance,
		Bet:         ls.s.Bet,
		LastWin:     ls.s.LastWin,
		TumbleCount: ls.s.TumbleCount,
		Bursts:      slices.Clone(ls.s.Bursts),
		Spins:       len(ls.s.Bets),
	}
	ls.viewMu.Lock()
	ls.view = v
	ls.viewMu.Unlock()
	return v
}

func (ls *liveSession) snapshot() sessionView {
	ls.viewMu.RLock()
	defer ls.viewMu.RUnlock()
	return ls.view
}

func (ls *liveSession) setStop(f func()) {
	ls.stopMu.Lock()
	ls.stop = f
	ls.stopMu.Unlock()
}

// requestStop reports whether an autospin run was there to stop.
func (ls *liveSession) requestStop() bool {
	ls.stopMu.Lock()
	defer ls.stopMu.Unlock()
	if ls.stop == nil {
		return false
	}
	ls.stop()
	return true
}

// SessionHandler serves the player-facing API: open a session, set the bet,
// spin, autospin and read bet history.
type SessionHandler struct {
	rt         *tumblelab.Runtime
	store      history.Store
	log        *slog.Logger
	betHistory int
	maxAuto    int

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

func NewSessionHandler(rt *tumblelab.Runtime, sc *svrcfg.SvrCfg) (*SessionHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &SessionHandler{
		rt:         rt,
		store:      sc.Store,
		log:        sc.Log,
		betHistory: sc.BetHistory,
		maxAuto:    sc.MaxAuto,
		sessions:   make(map[string]*liveSession),
	}, nil
}

func (sh *SessionHandler) lookup(r *http.Request) (*liveSession, error) {
	id := netsvr.URLParam(r, "id")
	sh.mu.RLock()
	ls, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, errs.WrapWithExtra(httperr.ErrNotFound, "session not found", id)
	}
	return ls, nil
}

// Create handles POST /v1/sessions {gid, balance?}. Without balance the
// session opens at the game's initial balance.
func (sh *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GID     spec.GID         `json:"gid"`
		Balance *decimal.Decimal `json:"balance,omitempty"`
	}
	if err := decodeJSON(w, r, maxBody, &req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if !slices.Contains(sh.rt.IDs(), req.GID) {
		httperr.Errs(w, errs.Wrap(httperr.ErrNotFound, "gid not found"))
		return
	}
	gs, err := sh.rt.Setting(req.GID)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	s := cascade.NewSession(&gs.Bet)
	s.BetLimit = sh.betHistory
	if req.Balance != nil {
		if req.Balance.IsNegative() {
			httperr.Errs(w, errs.NewWarn("balance must not be negative"))
			return
		}
		s.Balance = *req.Balance
	}
	ls := &liveSession{gid: req.GID, s: s}
	v := ls.refresh()

	sh.mu.Lock()
	sh.sessions[s.ID] = ls
	sh.mu.Unlock()
	sh.log.Info("session opened", slog.String("session", s.ID), slog.Uint64("gid", uint64(req.GID)))
	httperr.JSON(w, http.StatusCreated, v)
}

// Get handles GET /v1/sessions/{id}.
func (sh *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, ls.snapshot())
}

// Delete handles DELETE /v1/sessions/{id}. A session with a spin running
// cannot be closed.
func (sh *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if !ls.mu.TryLock() {
		httperr.Errs(w, errBusy)
		return
	}
	defer ls.mu.Unlock()
	sh.mu.Lock()
	delete(sh.sessions, ls.s.ID)
	sh.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// SetBet handles POST /v1/sessions/{id}/bet {bet}. The stored bet is
// clamped to the game limits and returned.
func (sh *SessionHandler) SetBet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bet decimal.Decimal `json:"bet"`
	}
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := decodeJSON(w, r, maxBody, &req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if !req.Bet.IsPositive() {
		httperr.Errs(w, errs.NewWarn("bet must be positive"))
		return
	}
	if !ls.mu.TryLock() {
		httperr.Errs(w, errBusy)
		return
	}
	defer ls.mu.Unlock()
	ls.s.SetBet(req.Bet)
	httperr.JSON(w, http.StatusOK, ls.refresh())
}

type spinResponse struct {
	Session sessionView           `json:"session"`
	Spin    tumblelab.SpinOutcome `json:"spin"`
	Frames  []cascade.Frame       `json:"frames,omitempty"`
}

// Spin handles POST /v1/sessions/{id}/spin. ?frames=1 adds every board
// frame of the spin to the response. An unaffordable bet is a 200 with
// "rejected" set.
func (sh *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	withFrames := newQuery(r).bool("frames")
	if !ls.mu.TryLock() {
		httperr.Errs(w, errBusy)
		return
	}
	defer ls.mu.Unlock()

	var obs cascade.Observer = sh.sink(r.Context(), ls)
	rec := new(cascade.Recorder)
	if withFrames {
		obs = cascade.Multi{obs, rec}
	}
	out, err := sh.rt.Spin(r.Context(), ls.gid, ls.s, obs)
	if err != nil {
		httperr.Log(sh.log, "spin", err)
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, spinResponse{Session: ls.refresh(), Spin: out, Frames: rec.Frames})
}

type autoResponse struct {
	Session sessionView        `json:"session"`
	Auto    cascade.AutoResult `json:"auto"`
}

// Autospin handles POST /v1/sessions/{id}/autospin {count, keep}. Spins run
// one after another; the response comes when the run ends.
func (sh *SessionHandler) Autospin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int  `json:"count"`
		Keep  bool `json:"keep"`
	}
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := decodeJSON(w, r, maxBody, &req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Count < 1 || req.Count > sh.maxAuto {
		httperr.Errs(w, errs.Warnf("count must be between 1 and %d", sh.maxAuto))
		return
	}
	if !ls.mu.TryLock() {
		httperr.Errs(w, errBusy)
		return
	}
	defer ls.mu.Unlock()
	defer ls.setStop(nil)

	out, err := sh.rt.Autospin(r.Context(), ls.gid, ls.s, req.Count, sh.sink(r.Context(), ls), req.Keep, ls.setStop)
	if err != nil {
		httperr.Log(sh.log, "autospin", err)
		httperr.Errs(w, err)
		return
	}
	sh.log.Debug("autospin done",
		slog.String("session", ls.s.ID),
		slog.Int("played", out.Played),
		slog.String("stop", string(out.Stop)),
	)
	httperr.JSON(w, http.StatusOK, autoResponse{Session: ls.refresh(), Auto: out})
}

// StopAutospin handles POST /v1/sessions/{id}/autospin/stop. The spin in
// flight finishes; no further spin is scheduled.
func (sh *SessionHandler) StopAutospin(w http.ResponseWriter, r *http.Request) {
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, map[string]bool{"stopping": ls.requestStop()})
}

// History handles GET /v1/sessions/{id}/history?limit=, newest first.
func (sh *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	ls, err := sh.lookup(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	q := newQuery(r)
	limit := q.int("limit", history.DefaultListLimit)
	if q.err != nil {
		httperr.Errs(w, q.err)
		return
	}
	recs, err := sh.store.List(r.Context(), ls.s.ID, limit)
	if err != nil {
		httperr.Log(sh.log, "history list", err)
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, recs)
}

// sink appends every settled bet of ls to the history store. A failed
// append is logged; the spin has already settled.
func (sh *SessionHandler) sink(ctx context.Context, ls *liveSession) cascade.Observer {
	ctx = context.WithoutCancel(ctx)
	return cascade.Hooks{Settle: func(e cascade.BetEntry) {
		rec := history.Record{SessionID: ls.s.ID, GameID: ls.gid, Entry: e}
		if err := sh.store.Append(ctx, rec); err != nil {
			sh.log.Warn("history append failed", slog.String("session", ls.s.ID), slog.Any("err", err))
		}
	}}
}
