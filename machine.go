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
	"crypto/rand"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/tumblelab/corefmt"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/spec"
)

// Machine 封裝一台「可對外提供 Spin」的機台：一個 cascade.Engine 加上它的 RNG 核心。
//
// 並發語意：
//   - 同一台 Machine 同時只跑一局；第二個請求直接回 busy，不排隊。
//   - 要併發就建多台 Machine（MachinePool / Simulator 負責）。
//
// 每局前後都會取 Core 快照，讓任何一局都能被 Replay 重現。
type Machine struct {
	gameName string
	gameId   spec.GID
	core     *core.Core
	eng      *cascade.Engine
	mu       sync.Mutex
	initseed int64 // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// SpinOutcome is one spin played on a machine, with the core state before
// and after it.
type SpinOutcome struct {
	GameName string   `json:"game_name"`
	GameId   spec.GID `json:"game_id"`
	cascade.SpinResult
	StartCoreSnap []byte `json:"-"`
	AfterCoreSnap []byte `json:"-"`
	Start64       string `json:"start_b64u"`
	After64       string `json:"after_b64u"`
}

func newMachine(gs *spec.GameSetting, cf core.PRNGFactory, opts ...cascade.Option) (*Machine, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newMachineWithSeed(gs, cf, seed.Int64(), opts...)
}

// newMachineWithSeed 以指定 seed 建立 Machine；同一份 GameSetting + 同一個 seed 得到同一串盤面。
func newMachineWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, opts ...cascade.Option) (*Machine, error) {
	c := core.New(cf.New(seed))
	eng, err := cascade.New(gs, c, opts...)
	if err != nil {
		return nil, err
	}
	return &Machine{
		gameName: gs.GameName,
		gameId:   gs.GameID,
		core:     c,
		eng:      eng,
		initseed: seed,
	}, nil
}

func (m *Machine) GameName() string           { return m.gameName }
func (m *Machine) GameId() spec.GID           { return m.gameId }
func (m *Machine) InitSeed() int64            { return m.initseed }
func (m *Machine) Engine() *cascade.Engine    { return m.eng }
func (m *Machine) Setting() *spec.GameSetting { return m.eng.Setting() }

// Spin plays one spin for s. A machine already busy with another spin or an
// autospin run answers with a busy rejection.
//
// The error is reserved for core snapshot failures, which leave the machine
// in a state that can no longer be audited.
func (m *Machine) Spin(ctx context.Context, s *cascade.Session, obs cascade.Observer) (SpinOutcome, error) {
	if !m.mu.TryLock() {
		return m.outcome(cascade.Rejected(s, cascade.RejectBusy)), nil
	}
	defer m.mu.Unlock()
	return m.spinLocked(ctx, s, obs)
}

// Replay restores the core to snap, plays one spin for s and puts the core
// back where it was. Replaying the start snapshot of a recorded spin with the
// same bet reproduces it exactly.
func (m *Machine) Replay(ctx context.Context, snap []byte, s *cascade.Session, obs cascade.Observer) (SpinOutcome, error) {
	if len(snap) == 0 {
		return SpinOutcome{}, errs.NewWarn("replay snapshot required")
	}
	if !m.mu.TryLock() {
		return m.outcome(cascade.Rejected(s, cascade.RejectBusy)), nil
	}
	defer m.mu.Unlock()

	rem, err := m.SnapshotCore()
	if err != nil {
		return SpinOutcome{}, errs.Wrap(err, "snapshot before replay")
	}
	if err := m.RestoreCore(snap); err != nil {
		return SpinOutcome{}, errs.NewWarn("restore core err " + err.Error())
	}
	out, err := m.spinLocked(ctx, s, obs)
	if rerr := m.RestoreCore(rem); rerr != nil {
		return SpinOutcome{}, errs.Wrap(rerr, "restore core back")
	}
	return out, err
}

// Autospin runs an autospin on the machine engine. The machine stays busy
// for the whole run.
func (m *Machine) Autospin(ctx context.Context, s *cascade.Session, n int, obs cascade.Observer, keep bool) cascade.AutoResult {
	if !m.mu.TryLock() {
		return cascade.AutoResult{Requested: n, Stop: cascade.StopBusy}
	}
	defer m.mu.Unlock()
	return m.eng.Autospin(ctx, s, n, obs, keep)
}

// StopAutospin stops a running autospin after its current spin.
func (m *Machine) StopAutospin() { m.eng.StopAutospin() }

// SpinInternal 直接跑一局不取快照；給模擬器用。
//
// 請勿在正式環境使用
func (m *Machine) SpinInternal(s *cascade.Session) cascade.SpinResult {
	return m.eng.RequestSpin(context.Background(), s, nil)
}

func (m *Machine) spinLocked(ctx context.Context, s *cascade.Session, obs cascade.Observer) (SpinOutcome, error) {
	start, err := m.SnapshotCore()
	if err != nil {
		return SpinOutcome{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	sr := m.eng.RequestSpin(ctx, s, obs)
	after, err := m.SnapshotCore()
	if err != nil {
		return SpinOutcome{}, errs.NewFatal("after snapshot error " + err.Error())
	}
	out := m.outcome(sr)
	out.StartCoreSnap = start
	out.AfterCoreSnap = after
	out.Start64 = corefmt.EncodeBase64URL(start)
	out.After64 = corefmt.EncodeBase64URL(after)
	return out, nil
}

func (m *Machine) outcome(sr cascade.SpinResult) SpinOutcome {
	return SpinOutcome{GameName: m.gameName, GameId: m.gameId, SpinResult: sr}
}

// SnapshotCore 取得 Core 狀態暫存
func (m *Machine) SnapshotCore() ([]byte, error) {
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存
func (m *Machine) RestoreCore(src []byte) error {
	return m.core.Restore(src)
}
