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
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/spec"
)

// MachinePool 專門管理「某一款遊戲」的所有機台實例。
// 它透過兩個通道管理機台生命週期：
//  1. pool：健康且可用的機台，供 Spin() 借出 / 歸還。
//  2. broken：在運作過程中 panic 或快照失敗的壞機台，送往此通道後丟棄。
//
// 壞機台送走後立即補上一台新機以維持容量。
type MachinePool struct {
	gameName      string
	gameId        spec.GID
	gs            *spec.GameSetting
	cf            core.PRNGFactory
	opts          []cascade.Option
	log           *slog.Logger
	initSeed      int64
	seedMaker     *seedMaker
	pool          chan *Machine // 可用機台
	broken        chan *Machine // 壞機台
	done          chan struct{} // 關閉訊號：關閉後不再允許借機/歸還/補機
	closeOnce     sync.Once
	poolsize      int
	rebuild       atomic.Int32 // 補機次數
	inflight      atomic.Int32 // 使用中
	panics        atomic.Int32 // panic 次數
	fatals        atomic.Int32 // fatal 次數（機台狀態不可信）
	spins         atomic.Int64 // 已完成且被接受的局數
	capHits       atomic.Int64 // 觸發安全上限的局數
	closeReason   atomic.Value // string
	closeInflight atomic.Int32 // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32 // 關閉當下 pool 可用數量
	closeBroken   atomic.Int32 // 關閉當下 broken backlog
}

// newMachinePool 建立指定遊戲的機台池，預先上架 n 台（至少 1 台）。
func newMachinePool(n int, gs *spec.GameSetting, cf core.PRNGFactory, seed int64, log *slog.Logger, opts ...cascade.Option) (*MachinePool, error) {
	n = max(1, n)
	p := &MachinePool{
		gameName:  gs.GameName,
		gameId:    gs.GameID,
		gs:        gs,
		cf:        cf,
		opts:      opts,
		log:       log,
		initSeed:  seed,
		seedMaker: newSeedMaker(seed),
		pool:      make(chan *Machine, n),
		broken:    make(chan *Machine, 100),
		done:      make(chan struct{}),
		poolsize:  n,
	}
	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		m, err := newMachineWithSeed(gs, cf, p.seedMaker.next(), opts...)
		if err != nil {
			return nil, err
		}
		p.pool <- m
	}
	return p, nil
}

// Close 進入關閉狀態：之後所有 Spin() 直接回 error。
func (p *MachinePool) Close() {
	p.closeWithReason("closed")
}

func (p *MachinePool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（reason 只會被寫入一次）。
func (p *MachinePool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
		p.log.Warn("machine pool closed", "game", p.gameName, "reason", reason)
	})
}

// isFatalErr 判斷錯誤是否代表「機台狀態不可信」需要淘汰/補機。
// 只有錯誤本身宣告 fatal 時才算；一般請求錯誤不淘汰機台。
func isFatalErr(err error) bool {
	if err == nil {
		return false
	}
	return errs.Level(err) == errs.Fatal
}

// Spin borrows a machine, plays one spin for s on it and returns the machine.
func (p *MachinePool) Spin(ctx context.Context, s *cascade.Session, obs cascade.Observer) (SpinOutcome, error) {
	var out SpinOutcome
	err := p.with(ctx, func(m *Machine) error {
		var err error
		out, err = m.Spin(ctx, s, obs)
		if err == nil && out.Accepted() {
			p.spins.Add(1)
			if out.CapReached {
				p.capHits.Add(1)
			}
		}
		return err
	})
	return out, err
}

// Autospin borrows a machine for a whole autospin run. stop, when not nil,
// is handed a function that ends the run after the spin in flight. It works
// from the moment it is handed over, even before the first spin starts.
func (p *MachinePool) Autospin(ctx context.Context, s *cascade.Session, n int, obs cascade.Observer, keep bool, stop func(func())) (cascade.AutoResult, error) {
	var out cascade.AutoResult
	err := p.with(ctx, func(m *Machine) error {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if stop != nil {
			stop(cancel)
		}
		out = m.Autospin(runCtx, s, n, obs, keep)
		p.spins.Add(int64(out.Played))
		p.capHits.Add(int64(out.CapHits))
		return nil
	})
	return out, err
}

// with runs fn on a borrowed machine. A panic or a fatal error retires the
// machine and a fresh one takes its slot.
func (p *MachinePool) with(ctx context.Context, fn func(m *Machine) error) (err error) {
	var m *Machine
	select {
	case <-p.done:
		return errs.NewFatal("machine pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return errs.NewWarn("spin canceled/timeout: " + ctx.Err().Error())
	case m = <-p.pool:
		p.inflight.Add(1)
	}
	if m == nil {
		return errs.NewFatal("machine pool got nil machine")
	}

	var isPanic bool
	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			err = errs.NewFatal(fmt.Sprintf("machine %s panic : %v", m.gameName, r))
			p.log.Error("machine panic", "game", p.gameName, "seed", m.initseed, "panic", fmt.Sprint(r))
		}
		if p.Closed() {
			return
		}
		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- m:
			default:
				p.closeWithReason("overwhelmed_by_failures")
				if err == nil {
					err = errs.NewFatal("machine pool overwhelmed by failures")
				}
				return
			}
			fresh, buildErr := newMachineWithSeed(p.gs, p.cf, p.seedMaker.next(), p.opts...)
			p.rebuild.Add(1)
			if buildErr != nil {
				err = errs.NewFatal(fmt.Sprintf("machine %s can not build", p.gameName))
				p.closeWithReason("rebuild_failed")
				return
			}
			select {
			case <-p.done:
			case p.pool <- fresh:
			}
			return
		}
		select {
		case <-p.done:
		case p.pool <- m:
		}
	}()

	return fn(m)
}

func (p *MachinePool) PoolSize() int  { return p.poolsize }
func (p *MachinePool) Inflight() int  { return int(p.inflight.Load()) }
func (p *MachinePool) ReBuild() int   { return int(p.rebuild.Load()) }
func (p *MachinePool) Panics() int    { return int(p.panics.Load()) }
func (p *MachinePool) Fatals() int    { return int(p.fatals.Load()) }
func (p *MachinePool) Available() int { return len(p.pool) }

func (p *MachinePool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MachinePoolMetrics 是拉取式的觀測快照；Available/BrokenBacklog 來自 len(chan)，高併發下為近似值。
type MachinePoolMetrics struct {
	GameName string   `json:"game_name"`
	GameID   spec.GID `json:"game_id"`

	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Spins         int64  `json:"spins"`
	CapHits       int64  `json:"cap_hits"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"` // -1 表示尚未關閉
	CloseAvail    int `json:"close_avail"`
	CloseBroken   int `json:"close_broken"`
}

func (p *MachinePool) Metrics() MachinePoolMetrics {
	return MachinePoolMetrics{
		GameName:      p.gameName,
		GameID:        p.gameId,
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Spins:         p.spins.Load(),
		CapHits:       p.capHits.Load(),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
