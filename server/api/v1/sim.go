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
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
)

const (
	maxSimRounds  = 1_000_000
	maxSimPlayers = 100_000
	maxCfgBody    = 5 << 20
)

// SimHandler runs Monte-Carlo simulations on demand. Each request builds its
// own Simulator so runs never share machines with live sessions.
type SimHandler struct {
	lab *tumblelab.Lab
}

func NewSimHandler(lab *tumblelab.Lab) (*SimHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &SimHandler{lab: lab}, nil
}

type simRequest struct {
	GID   spec.GID        `json:"gid"`
	Bet   decimal.Decimal `json:"bet"`
	Round int             `json:"round"`
	MP    int             `json:"mp"`
	Seed  *int64          `json:"seed,omitempty"`
}

type simResponse struct {
	Seed     int64                   `json:"seed"`
	Stats    *stats.StatReport       `json:"stats"`
	Players  *stats.EstimatorPlayers `json:"est,omitempty"`
	UsedTime int64                   `json:"used_ms"`
}

func (req *simRequest) fromQuery(q *query) {
	req.GID = q.gid("gid")
	req.Bet = q.dec("bet")
	req.Round = q.int("round", 0)
	req.MP = q.int("mp", 1)
	req.Seed = q.seed("seed")
}

func (req *simRequest) valid() error {
	if req.Round < 1 || req.Round > maxSimRounds {
		return errs.NewWarn("round must be between 1 and 1,000,000")
	}
	if req.Bet.IsNegative() {
		return errs.NewWarn("bet must be positive")
	}
	req.MP = min(max(req.MP, 1), runtime.NumCPU())
	return nil
}

func (sh *SimHandler) build(req *simRequest) (*tumblelab.Simulator, int64, error) {
	if _, ok := sh.lab.EntryById(req.GID); !ok {
		return nil, 0, errs.Wrap(httperr.ErrNotFound, "gid not found")
	}
	seed, err := seedOrRandom(req.Seed)
	if err != nil {
		return nil, 0, err
	}
	sim, err := sh.lab.NewSimulatorWithSeed(req.GID, seed)
	if err != nil {
		return nil, 0, errs.Wrap(err, "build simulator")
	}
	req.Bet = betOrDefault(req.Bet, sim.Setting())
	return sim, seed, nil
}

// Sim handles GET /v1/sim?gid=&bet=&round=&mp=&seed= and the same fields
// as a POST JSON body.
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req := new(simRequest)
	if r.Method == http.MethodGet {
		q := newQuery(r)
		req.fromQuery(q)
		if q.err != nil {
			httperr.Errs(w, q.err)
			return
		}
	} else if err := decodeJSON(w, r, maxBody, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := req.valid(); err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, seed, err := sh.build(req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, used, err := sim.SimMP(req.Bet, req.Round, req.MP, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate"))
		return
	}
	httperr.JSON(w, http.StatusOK, simResponse{Seed: seed, Stats: st, UsedTime: used.Milliseconds()})
}

type simPlayersRequest struct {
	simRequest
	Players int `json:"player"`
	Bets    int `json:"bets"`
}

// SimPlayers handles /v1/simplayer: players each start with bets stakes and
// play round spins or until they bust or cash out.
func (sh *SimHandler) SimPlayers(w http.ResponseWriter, r *http.Request) {
	req := new(simPlayersRequest)
	if r.Method == http.MethodGet {
		q := newQuery(r)
		req.fromQuery(q)
		req.Players = q.int("player", 0)
		req.Bets = q.int("bets", 0)
		if q.err != nil {
			httperr.Errs(w, q.err)
			return
		}
	} else if err := decodeJSON(w, r, maxBody, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := req.valid(); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Players < 1 || req.Players > maxSimPlayers {
		httperr.Errs(w, errs.NewWarn("player must be between 1 and 100,000"))
		return
	}
	if req.Bets < 1 {
		httperr.Errs(w, errs.NewWarn("bets must be at least 1"))
		return
	}
	sim, seed, err := sh.build(&req.simRequest)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, est, used, err := sim.SimPlayers(req.MP, req.Players, req.Bets, req.Bet, req.Round, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, "simulate players"))
		return
	}
	httperr.JSON(w, http.StatusOK, simResponse{Seed: seed, Stats: st, Players: est, UsedTime: used.Milliseconds()})
}

// SimByCfg handles POST /v1/simbycfg: simulate an ad-hoc game setting given
// as JSON (cfg) or YAML text (cfg_yaml) without registering it.
func (sh *SimHandler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	type request struct {
		simRequest
		CfgJSON json.RawMessage `json:"cfg"`
		CfgYAML string          `json:"cfg_yaml"`
	}
	req := new(request)
	if err := decodeJSON(w, r, maxCfgBody, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := req.valid(); err != nil {
		httperr.Errs(w, err)
		return
	}
	seed, err := seedOrRandom(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var sim *tumblelab.Simulator
	switch {
	case len(req.CfgJSON) > 0:
		sim, err = sh.lab.NewSimulatorByJSON(req.CfgJSON, seed)
	case req.CfgYAML != "":
		sim, err = sh.lab.NewSimulatorByYAML([]byte(req.CfgYAML), seed)
	default:
		httperr.Errs(w, errs.NewWarn("cfg or cfg_yaml is required"))
		return
	}
	if err != nil {
		// A bad client config is a bad request, whatever level the parser used.
		httperr.Errs(w, &errs.E{Message: "invalid cfg", Cause: err, ErrLv: errs.Warn})
		return
	}
	bet := betOrDefault(req.Bet, sim.Setting())
	st, used, err := sim.SimMP(bet, req.Round, req.MP, false)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, simResponse{Seed: seed, Stats: st, UsedTime: used.Milliseconds()})
}
