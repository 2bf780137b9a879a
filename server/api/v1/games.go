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
	"net/http"
	"strconv"

	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/server/httperr"
	"github.com/zintix-labs/tumblelab/server/netsvr"
	"github.com/zintix-labs/tumblelab/spec"
)

// GameHandler lists the games the runtime serves and its pool metrics.
type GameHandler struct {
	rt *tumblelab.Runtime
}

func NewGameHandler(rt *tumblelab.Runtime) (*GameHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &GameHandler{rt: rt}, nil
}

// List handles GET /v1/games.
func (gh *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	sum, err := gh.rt.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, sum)
}

// Get handles GET /v1/games/{gid}.
func (gh *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := strconv.ParseUint(netsvr.URLParam(r, "gid"), 10, 64)
	if err != nil {
		httperr.Errs(w, errs.NewWarn("gid must be non-negative integer"))
		return
	}
	sum, err := gh.rt.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	for _, s := range sum {
		if s.GID == spec.GID(u) {
			httperr.JSON(w, http.StatusOK, s)
			return
		}
	}
	httperr.Errs(w, errs.Wrap(httperr.ErrNotFound, "gid not found"))
}

// Metrics handles GET /v1/metrics.
func (gh *GameHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusOK, gh.rt.Metrics())
}
