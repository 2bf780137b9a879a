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

// Package api wires handlers and middleware onto a NetSvr.
package api

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/server/api/dev"
	v1 "github.com/zintix-labs/tumblelab/server/api/v1"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/netsvr/middleware"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// RegisterRoutes mounts middleware, the index, the dev tools and /v1.
// sCfg must already be validated.
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *tumblelab.Runtime) error {
	registerMiddleware(svr, sCfg.Log)
	registerIndex(svr)
	dev.Register(svr, sCfg.Lab)
	return registerV1API(svr, sCfg, rt)
}

func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func registerIndex(svr netsvr.NetSvr) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httperr.JSON(w, http.StatusOK, map[string]string{"service": "tumblelab", "api": "/v1"})
	})
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, rt *tumblelab.Runtime) error {
	gh, err := v1.NewGameHandler(rt)
	if err != nil {
		return err
	}
	sh, err := v1.NewSessionHandler(rt, sCfg)
	if err != nil {
		return err
	}
	sim, err := v1.NewSimHandler(sCfg.Lab)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/games", gh.List)
		vOne.Get("/games/{gid}", gh.Get)
		vOne.Get("/metrics", gh.Metrics)

		vOne.Post("/sessions", sh.Create)
		vOne.Get("/sessions/{id}", sh.Get)
		vOne.Delete("/sessions/{id}", sh.Delete)
		vOne.Post("/sessions/{id}/bet", sh.SetBet)
		vOne.Post("/sessions/{id}/spin", sh.Spin)
		vOne.Post("/sessions/{id}/autospin", sh.Autospin)
		vOne.Post("/sessions/{id}/autospin/stop", sh.StopAutospin)
		vOne.Get("/sessions/{id}/history", sh.History)

		vOne.Get("/sim", sim.Sim)
		vOne.Post("/sim", sim.Sim)
		vOne.Get("/simplayer", sim.SimPlayers)
		vOne.Post("/simplayer", sim.SimPlayers)
		vOne.Post("/simbycfg", sim.SimByCfg)
	})
	return nil
}
