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

// Package server assembles the HTTP service: runtime, routes, lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/api"
	"github.com/zintix-labs/tumblelab/server/app"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// Run validates sCfg, builds the runtime, serves on sCfg.Addr and blocks
// until SIGINT/SIGTERM or a component fails.
//
// Run takes no file paths or env; everything comes in through sCfg.
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr is Run on a caller-provided NetSvr.
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	return RunContext(context.Background(), sCfg, svr)
}

// RunContext is RunWithSvr that also stops when ctx is done.
func RunContext(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}

	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return errs.Wrap(err, "build runtime")
	}
	if err := api.RegisterRoutes(svr, sCfg, rt); err != nil {
		rt.Close()
		return errs.Wrap(err, "register routes")
	}

	// Server first: it stops taking requests before the pools and the
	// store go away.
	a := app.NewWith(sCfg.Log,
		svr,
		app.NewCloser("runtime", func() error { rt.Close(); return nil }),
		app.NewCloser("history", sCfg.Store.Close),
	)
	if c, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[tumblelab] listening on http://localhost" + c.Address())
	}
	if err = a.Run(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	return err
}
