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

package tumblelab

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/spec"
)

// Runtime routes spins to one MachinePool per game.
type Runtime struct {
	lab *Lab

	pools map[spec.GID]*MachinePool
	ids   []spec.GID // 固定順序，用於觀測/列舉

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	poolSize int
}

func (rt *Runtime) check(ctx context.Context, gid spec.GID) (*MachinePool, error) {
	select {
	case <-ctx.Done():
		return nil, errs.NewWarn("spin canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		rt.closed.Store(true)
		return nil, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}
	mp, ok := rt.pools[gid]
	if !ok {
		return nil, errs.NewWarn("game id not found")
	}
	return mp, nil
}

// Spin plays one spin of game gid for s.
func (rt *Runtime) Spin(ctx context.Context, gid spec.GID, s *cascade.Session, obs cascade.Observer) (SpinOutcome, error) {
	mp, err := rt.check(ctx, gid)
	if err != nil {
		return SpinOutcome{}, err
	}
	return mp.Spin(ctx, s, obs)
}

// Autospin runs up to n spins of game gid for s on one machine.
func (rt *Runtime) Autospin(ctx context.Context, gid spec.GID, s *cascade.Session, n int, obs cascade.Observer, keep bool, stop func(func())) (cascade.AutoResult, error) {
	mp, err := rt.check(ctx, gid)
	if err != nil {
		return cascade.AutoResult{}, err
	}
	return mp.Autospin(ctx, s, n, obs, keep, stop)
}

// Setting returns a fresh copy of the setting of gid.
func (rt *Runtime) Setting(gid spec.GID) (*spec.GameSetting, error) {
	return rt.lab.cat.GameSettingById(gid)
}

func (rt *Runtime) IDs() []spec.GID { return append([]spec.GID(nil), rt.ids...) }

func (rt *Runtime) Summary() ([]catalog.Summary, error) { return rt.lab.Summary() }

func (rt *Runtime) Lab() *Lab { return rt.lab }

// Metrics returns one snapshot per pool in id order.
func (rt *Runtime) Metrics() []MachinePoolMetrics {
	out := make([]MachinePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		out = append(out, rt.pools[id].Metrics())
	}
	return out
}

// Close closes the runtime and every pool. Safe to call more than once.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, p := range rt.pools {
			p.closeWithReason(reason)
		}
	})
}

func (rt *Runtime) Closed() bool { return rt.closed.Load() }

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
