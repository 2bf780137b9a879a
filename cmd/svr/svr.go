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

// Command svr runs the tumblelab HTTP server.
//
// Every flag defaults from its TUMBLE_* environment variable, so
//
//	TUMBLE_DB=bets.db go run ./cmd/svr -addr :8080
//
// serves the embedded demo games with SQLite bet history on :8080.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/history"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/server"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

func main() {
	sCfg, closeLog, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = server.Run(sCfg)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*svrcfg.SvrCfg, func(), error) {
	env, err := svrcfg.LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	flag.StringVar(&env.Addr, "addr", env.Addr, "listen address")
	flag.StringVar(&env.LogMode, "log-mode", env.LogMode, "log mode: dev|prod|silence")
	flag.StringVar(&env.DB, "db", env.DB, "SQLite bet history path; empty keeps history in memory")
	flag.StringVar(&env.ConfigDir, "config", env.ConfigDir, "extra directory of game configs")
	flag.IntVar(&env.PoolSize, "pool", env.PoolSize, "machines per game")
	flag.IntVar(&env.BetHistory, "bet-history", env.BetHistory, "bets a live session keeps in memory")
	flag.IntVar(&env.MaxAuto, "max-auto", env.MaxAuto, "largest autospin count per request")
	flag.Parse()

	mode, err := logger.ParseMode(env.LogMode)
	if err != nil {
		return nil, nil, err
	}
	log, ah := logger.NewAsync(4096, mode)

	cfgs := []fs.FS{demo_configs.FS}
	if env.ConfigDir != "" {
		cfgs = append(cfgs, os.DirFS(env.ConfigDir))
	}
	lab, err := tumblelab.NewAuto(core.Default(), tumblelab.Configs(cfgs...), tumblelab.WithLogger(log))
	if err != nil {
		ah.Close()
		return nil, nil, err
	}

	var store history.Store
	if env.DB != "" {
		if store, err = history.OpenSQLite(env.DB); err != nil {
			ah.Close()
			return nil, nil, err
		}
		log.Info("bet history on sqlite", "path", env.DB)
	}

	return &svrcfg.SvrCfg{
		Log:        log,
		Addr:       env.Addr,
		PoolSize:   env.PoolSize,
		BetHistory: env.BetHistory,
		MaxAuto:    env.MaxAuto,
		Lab:        lab,
		Store:      store,
	}, ah.Close, nil
}
