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

package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/history"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	lab, err := tumblelab.NewAuto(core.Default(), tumblelab.Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	sc := &svrcfg.SvrCfg{
		Log:      slog.New(slog.DiscardHandler),
		PoolSize: 2,
		Lab:      lab,
		Store:    history.NewMemStore(0),
	}
	if err := sc.Vaild(); err != nil {
		t.Fatalf("cfg: %v", err)
	}
	rt, err := lab.BuildRuntime(sc.PoolSize)
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	t.Cleanup(rt.Close)
	svr := netsvr.NewChiServer(":0")
	if err := RegisterRoutes(svr, sc, rt); err != nil {
		t.Fatalf("routes: %v", err)
	}
	return svr.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type session struct {
	ID      string          `json:"id"`
	Balance decimal.Decimal `json:"balance"`
	Bet     decimal.Decimal `json:"bet"`
	LastWin decimal.Decimal `json:"last_win"`
	Spins   int             `json:"spins"`
}

type spin struct {
	Rejected     string          `json:"rejected"`
	TotalWin     decimal.Decimal `json:"total_win"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Start64      string          `json:"start_b64u"`
}

func TestGames(t *testing.T) {
	h := newHandler(t)
	var games []struct {
		GID  uint   `json:"gid"`
		Name string `json:"name"`
	}
	if code := do(t, h, http.MethodGet, "/v1/games", nil, &games); code != 200 || len(games) != 2 {
		t.Fatalf("games %d %+v", code, games)
	}
	if code := do(t, h, http.MethodGet, "/v1/games/1001", nil, nil); code != 200 {
		t.Fatalf("get game %d", code)
	}
	if code := do(t, h, http.MethodGet, "/v1/games/9", nil, nil); code != 404 {
		t.Fatalf("unknown game %d", code)
	}
	if code := do(t, h, http.MethodGet, "/healthz", nil, nil); code != 204 {
		t.Fatalf("healthz %d", code)
	}
}

func TestSessionSpinFlow(t *testing.T) {
	h := newHandler(t)
	var s session
	if code := do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"gid": 1001}, &s); code != 201 {
		t.Fatalf("create %d", code)
	}
	if !s.Balance.Equal(decimal.NewFromInt(100)) || !s.Bet.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("new session %+v", s)
	}

	var resp struct {
		Session session          `json:"session"`
		Spin    spin             `json:"spin"`
		Frames  []map[string]any `json:"frames"`
	}
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/spin?frames=1", nil, &resp); code != 200 {
		t.Fatalf("spin %d", code)
	}
	if resp.Spin.Rejected != "" || resp.Spin.Start64 == "" {
		t.Fatalf("spin %+v", resp.Spin)
	}
	want := decimal.NewFromInt(99).Add(resp.Spin.TotalWin)
	if !resp.Session.Balance.Equal(want) || !resp.Spin.BalanceAfter.Equal(want) {
		t.Fatalf("balance %s want %s", resp.Session.Balance, want)
	}
	if len(resp.Frames) < 2 || resp.Frames[0]["phase"] != "drop" {
		t.Fatalf("frames %d", len(resp.Frames))
	}

	var got session
	do(t, h, http.MethodGet, "/v1/sessions/"+s.ID, nil, &got)
	if got.Spins != 1 || !got.Balance.Equal(want) {
		t.Fatalf("get %+v", got)
	}

	var recs []history.Record
	if code := do(t, h, http.MethodGet, "/v1/sessions/"+s.ID+"/history", nil, &recs); code != 200 || len(recs) != 1 {
		t.Fatalf("history %d %d", code, len(recs))
	}
	if recs[0].GameID != 1001 || !recs[0].Entry.Result.Equal(resp.Spin.TotalWin) {
		t.Fatalf("record %+v", recs[0])
	}

	if code := do(t, h, http.MethodDelete, "/v1/sessions/"+s.ID, nil, nil); code != 204 {
		t.Fatalf("delete %d", code)
	}
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/spin", nil, nil); code != 404 {
		t.Fatalf("spin after delete %d", code)
	}
}

func TestSessionInsufficientBalance(t *testing.T) {
	h := newHandler(t)
	var s session
	do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"gid": 1001, "balance": "0.5"}, &s)

	var resp struct {
		Session session `json:"session"`
		Spin    spin    `json:"spin"`
	}
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/spin", nil, &resp); code != 200 {
		t.Fatalf("spin %d", code)
	}
	if resp.Spin.Rejected != "insufficient_balance" || !resp.Session.Balance.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("got %+v", resp)
	}
	var recs []history.Record
	do(t, h, http.MethodGet, "/v1/sessions/"+s.ID+"/history", nil, &recs)
	if len(recs) != 0 {
		t.Fatalf("rejected spin recorded")
	}
}

func TestSessionSetBetClamps(t *testing.T) {
	h := newHandler(t)
	var s session
	do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"gid": 1001}, &s)
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", map[string]any{"bet": "5000000000"}, &s); code != 200 {
		t.Fatalf("bet %d", code)
	}
	if !s.Bet.Equal(decimal.NewFromInt(1_000_000_000)) {
		t.Fatalf("bet %s", s.Bet)
	}
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/bet", map[string]any{"bet": "-1"}, nil); code != 400 {
		t.Fatalf("negative bet %d", code)
	}
}

func TestAutospin(t *testing.T) {
	h := newHandler(t)
	var s session
	do(t, h, http.MethodPost, "/v1/sessions", map[string]any{"gid": 1001}, &s)

	var resp struct {
		Session session `json:"session"`
		Auto    struct {
			Played int    `json:"played"`
			Stop   string `json:"stop"`
			Spins  []spin `json:"spins"`
		} `json:"auto"`
	}
	code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/autospin", map[string]any{"count": 5, "keep": true}, &resp)
	if code != 200 || resp.Auto.Played != 5 || resp.Auto.Stop != "completed" || len(resp.Auto.Spins) != 5 {
		t.Fatalf("autospin %d %+v", code, resp.Auto)
	}
	if !resp.Session.Balance.Equal(resp.Auto.Spins[4].BalanceAfter) {
		t.Fatalf("balance %s last %s", resp.Session.Balance, resp.Auto.Spins[4].BalanceAfter)
	}
	var recs []history.Record
	do(t, h, http.MethodGet, "/v1/sessions/"+s.ID+"/history?limit=3", nil, &recs)
	if len(recs) != 3 {
		t.Fatalf("history %d", len(recs))
	}
	if code := do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/autospin", map[string]any{"count": 0}, nil); code != 400 {
		t.Fatalf("count 0: %d", code)
	}
	var stop map[string]bool
	do(t, h, http.MethodPost, "/v1/sessions/"+s.ID+"/autospin/stop", nil, &stop)
	if stop["stopping"] {
		t.Fatalf("stop reported a run that is not there")
	}
}

func TestSim(t *testing.T) {
	h := newHandler(t)
	var resp struct {
		Seed  int64          `json:"seed"`
		Stats map[string]any `json:"stats"`
	}
	if code := do(t, h, http.MethodGet, "/v1/sim?gid=1001&round=200&seed=5", nil, &resp); code != 200 || resp.Seed != 5 || resp.Stats == nil {
		t.Fatalf("sim %d %+v", code, resp)
	}
	if code := do(t, h, http.MethodGet, "/v1/sim?gid=1001&round=0", nil, nil); code != 400 {
		t.Fatalf("round 0: %d", code)
	}
	if code := do(t, h, http.MethodGet, "/v1/sim?round=10", nil, nil); code != 400 {
		t.Fatalf("missing gid: %d", code)
	}
	body := map[string]any{"gid": 1001, "round": 50, "player": 4, "bets": 20, "seed": 3}
	if code := do(t, h, http.MethodPost, "/v1/simplayer", body, nil); code != 200 {
		t.Fatalf("simplayer %d", code)
	}
}

func TestDevReplay(t *testing.T) {
	h := newHandler(t)
	var report struct {
		Results []spin `json:"results"`
	}
	if code := do(t, h, http.MethodPost, "/dev/spin", map[string]any{"game": "fruit_blast_10x8", "seed": "7", "round": 3}, &report); code != 200 || len(report.Results) != 3 {
		t.Fatalf("dev spin %d", code)
	}
	first := report.Results[0]
	var replay struct {
		Spin   spin             `json:"spin"`
		Frames []map[string]any `json:"frames"`
	}
	if code := do(t, h, http.MethodPost, "/dev/replay", map[string]any{"gid": 1001, "snap": first.Start64}, &replay); code != 200 {
		t.Fatalf("replay %d", code)
	}
	if !replay.Spin.TotalWin.Equal(first.TotalWin) || len(replay.Frames) == 0 {
		t.Fatalf("replay win %s want %s", replay.Spin.TotalWin, first.TotalWin)
	}
	if code := do(t, h, http.MethodPost, "/dev/replay", map[string]any{"gid": 1001}, nil); code != 400 {
		t.Fatalf("replay without snap %d", code)
	}
}
