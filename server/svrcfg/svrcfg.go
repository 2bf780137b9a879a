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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/history"
	"github.com/zintix-labs/tumblelab/server/logger"
)

// SvrCfg is everything the HTTP layer needs, already assembled.
type SvrCfg struct {
	Log        *slog.Logger
	Addr       string
	PoolSize   int            // machines per game
	BetHistory int            // bet entries a live session keeps in memory
	MaxAuto    int            // upper bound of one autospin request
	Lab        *tumblelab.Lab // frozen lab
	Store      history.Store  // bet history; MemStore when nil
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	sc.PoolSize = min(10, max(1, sc.PoolSize))
	if sc.BetHistory <= 0 {
		sc.BetHistory = DefaultBetHistory
	}
	if sc.MaxAuto <= 0 {
		sc.MaxAuto = DefaultMaxAuto
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Store == nil {
		sc.Store = history.NewMemStore(sc.BetHistory * 10)
	}
	return nil
}
