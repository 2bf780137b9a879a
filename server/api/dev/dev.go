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

// Package dev serves the reproducibility tools: seeded spin runs that come
// back with core snapshots, and single-spin replay from a snapshot.
package dev

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/spec"
)

// devRequest 是 dev 工具共用的輸入。
//   - gid 與 game（名稱或數字字串）擇一，gid 優先。
//   - seed 為 int64 字串，空字串自動產生。
//   - snap 為 base64url 的 core 快照；有 snap 時以 snap 為準。
type devRequest struct {
	GID   int64           `json:"gid"`
	Game  string          `json:"game"`
	Bet   decimal.Decimal `json:"bet"`
	Round int             `json:"round"`
	Seed  string          `json:"seed"`
	Snap  string          `json:"snap"`
}

// Register mounts /dev/meta, /dev/spin, /dev/sim and /dev/replay.
func Register(svr netsvr.NetRouter, lab *tumblelab.Lab) {
	svr.Group("/dev", func(d netsvr.NetRouter) {
		d.Get("/meta", devMeta(lab))
		d.Post("/spin", devSpin(lab))
		d.Post("/sim", devSim(lab))
		d.Post("/replay", devReplay(lab))
	})
}

func devMeta(lab *tumblelab.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := lab.Summary()
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		httperr.JSON(w, http.StatusOK, sum)
	}
}

// prepare decodes the request and builds a DevSimulator for it.
func prepare(w http.ResponseWriter, r *http.Request, lab *tumblelab.Lab) (*devRequest, *tumblelab.DevSimulator, error) {
	req := new(devRequest)
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, nil, errs.NewWarn("invalid json: " + err.Error())
	}
	sum, err := resolveSummary(lab, req)
	if err != nil {
		return nil, nil, err
	}
	if req.Bet.IsZero() {
		req.Bet, _ = decimal.NewFromString(sum.DefaultBet)
	}
	req.Snap = strings.TrimSpace(req.Snap)
	seed, err := resolveSeed(req.Seed)
	if err != nil {
		return nil, nil, err
	}
	ds, err := lab.NewDevSimulator(sum.GID, seed)
	if err != nil {
		return nil, nil, err
	}
	return req, ds, nil
}

// devSpin plays round spins and returns each of them with the snapshots
// bracketing the run. With snap the run starts from that snapshot.
func devSpin(lab *tumblelab.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ds, err := prepare(w, r, lab)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report tumblelab.DevSpinReport
		if req.Snap != "" {
			report, err = ds.RestoreSpins(req.Snap, req.Bet, req.Round)
		} else {
			report, err = ds.Spins(req.Bet, req.Round)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		httperr.JSON(w, http.StatusOK, report)
	}
}

// devSim is devSpin without per-spin results: statistics only.
func devSim(lab *tumblelab.Lab) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ds, err := prepare(w, r, lab)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		var report tumblelab.DevSimReport
		if req.Snap != "" {
			report, err = ds.RestoreSim(req.Snap, req.Bet, req.Round)
		} else {
			report, err = ds.Sim(req.Bet, req.Round)
		}
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		httperr.JSON(w, http.StatusOK, report)
	}
}

// devReplay replays the one spin that started at snap, with every frame.
func devReplay(lab *tumblelab.Lab) http.HandlerFunc {
	type response struct {
		Spin   tumblelab.SpinOutcome `json:"spin"`
		Frames []cascade.Frame       `json:"frames"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req, ds, err := prepare(w, r, lab)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		if req.Snap == "" {
			httperr.Errs(w, errs.NewWarn("snap is required"))
			return
		}
		rec := new(cascade.Recorder)
		out, err := ds.ReplaySpin(req.Snap, req.Bet, rec)
		if err != nil {
			httperr.Errs(w, err)
			return
		}
		httperr.JSON(w, http.StatusOK, response{Spin: out, Frames: rec.Frames})
	}
}

// resolveSummary finds the game by gid, then by case-insensitive name, then
// by game parsed as a number.
func resolveSummary(lab *tumblelab.Lab, req *devRequest) (catalog.Summary, error) {
	sums, err := lab.Summary()
	if err != nil {
		return catalog.Summary{}, err
	}
	byID := func(gid spec.GID) (catalog.Summary, bool) {
		for _, s := range sums {
			if s.GID == gid {
				return s, true
			}
		}
		return catalog.Summary{}, false
	}
	if req.GID > 0 {
		if s, ok := byID(spec.GID(req.GID)); ok {
			return s, nil
		}
		return catalog.Summary{}, errs.Wrap(httperr.ErrNotFound, "gid not found")
	}
	name := strings.TrimSpace(req.Game)
	if name == "" {
		return catalog.Summary{}, errs.NewWarn("game is required")
	}
	for _, s := range sums {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	if gid, err := strconv.ParseUint(name, 10, 64); err == nil {
		if s, ok := byID(spec.GID(gid)); ok {
			return s, nil
		}
	}
	return catalog.Summary{}, errs.Wrap(httperr.ErrNotFound, "game not found")
}

// resolveSeed parses an int64 seed; empty picks one from crypto/rand.
func resolveSeed(seed string) (int64, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return 0, errs.Wrap(err, "seed generate failed")
		}
		return rnd.Int64(), nil
	}
	v, err := strconv.ParseInt(seed, 10, 64)
	if err != nil {
		return 0, errs.NewWarn("seed must be int64")
	}
	return v, nil
}
