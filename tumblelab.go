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

// Package tumblelab 是 tumble 引擎的「組裝入口」與「運行入口」。
//
// Lab 把兩個地基組裝在一起，並提供建立 Machine / Simulator / Runtime 的入口：
//  1. Catalog：遊戲目錄，定義有哪些遊戲、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證可重現與可審計。
//
// Lab 不綁定任何檔案路徑：設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
//
// 使用流程分兩階段：
//   - 註冊階段：New 之後 Register / RegisterAll，最後 Freeze。
//   - 執行階段：依遊戲 ID 建 Machine、Simulator 或整個 Runtime。
//
//	lab, _ := tumblelab.NewAuto(core.Default(), tumblelab.Configs(demo_configs.FS))
//	m, _ := lab.NewMachine(1001)
//	s := cascade.NewSession(&m.Setting().Bet)
//	out, _ := m.Spin(ctx, s, nil)
package tumblelab

import (
	"crypto/rand"
	"io/fs"
	"log/slog"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/corefmt"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 持有 Catalog 與 PRNGFactory，並記住建機台時要套用的引擎選項。
//
// Catalog 的 ID 唯一性只保證在同一個 Lab 內。
type Lab struct {
	cat  *catalog.Catalog
	cf   core.PRNGFactory
	opts []cascade.Option
	log  *slog.Logger
	mu   sync.Mutex
	sum  []catalog.Summary
}

// LabOption configures a Lab.
type LabOption func(*Lab)

// WithEngineOptions applies opts to every engine the lab builds.
func WithEngineOptions(opts ...cascade.Option) LabOption {
	return func(p *Lab) { p.opts = append(p.opts, opts...) }
}

// WithLogger sets the lab logger; engines built by the lab log through it
// too.
func WithLogger(l *slog.Logger) LabOption {
	return func(p *Lab) {
		if l != nil {
			p.log = l
		}
	}
}

// New 建立一個 Lab（註冊階段）。cf 不能為 nil，cfgs 至少一個。
func New(cf core.PRNGFactory, cfgs []fs.FS, opts ...LabOption) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Lab{
		cat: cata,
		cf:  cf,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(lab)
	}
	return lab, nil
}

// NewAuto 建立一個註冊完全部設定檔並已 Freeze 的 Lab。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, opts ...LabOption) (*Lab, error) {
	lab, err := New(cf, cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Lab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll 掃描全部設定檔來源，解析每個設定檔並以其 GameID/GameName 一次註冊。
//
// Fail-fast 且原子：任何一個檔案失敗就整批不註冊。
func (p *Lab) RegisterAll() error {
	entries, err := p.cat.Discover()
	if err != nil {
		return err
	}
	return p.cat.Register(entries...)
}

func (p *Lab) Freeze() { p.cat.Freeze() }

func (p *Lab) EntryById(id spec.GID) (catalog.Entry, bool)       { return p.cat.GetByID(id) }
func (p *Lab) EntryByName(name string) (catalog.Entry, bool)     { return p.cat.GetByName(name) }
func (p *Lab) IDs() []spec.GID                                   { return p.cat.IDs() }
func (p *Lab) All() []catalog.Entry                              { return p.cat.All() }
func (p *Lab) Setting(id spec.GID) (*spec.GameSetting, error)    { return p.cat.GameSettingById(id) }
func (p *Lab) SettingByName(n string) (*spec.GameSetting, error) { return p.cat.GameSettingByName(n) }

// Summary lists every registered game in id order. The catalog must be
// frozen.
func (p *Lab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse game setting failed")
		}
		cs = append(cs, catalog.SummaryOf(gs))
	}
	p.sum = cs
	return p.sum, nil
}

func (p *Lab) engineOpts() []cascade.Option {
	return append([]cascade.Option{cascade.WithLogger(p.log)}, p.opts...)
}

func (p *Lab) frozenSetting(id spec.GID) (*spec.GameSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return p.cat.GameSettingById(id)
}

// NewMachine 依 Catalog 內的遊戲 ID 建立一台 Machine，seed 由 crypto/rand 產生。
func (p *Lab) NewMachine(id spec.GID) (*Machine, error) {
	gs, err := p.frozenSetting(id)
	if err != nil {
		return nil, err
	}
	return newMachine(gs, p.cf, p.engineOpts()...)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
func (p *Lab) NewMachineWithSeed(id spec.GID, seed int64) (*Machine, error) {
	gs, err := p.frozenSetting(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(gs, p.cf, seed, p.engineOpts()...)
}

// NewMachineByJSON builds a machine from an ad-hoc setting of a registered
// game, for tuning runs.
func (p *Lab) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	cfg, err := p.adhoc(spec.GetGameSettingByJSON, raw)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.cf, seed, p.engineOpts()...)
}

func (p *Lab) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	cfg, err := p.adhoc(spec.GetGameSettingByYAML, raw)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(cfg, p.cf, seed, p.engineOpts()...)
}

func (p *Lab) adhoc(parse func([]byte) (*spec.GameSetting, error), raw []byte) (*spec.GameSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *Lab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := p.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

func (p *Lab) NewSimulator(id spec.GID) (*Simulator, error) {
	gs, err := p.frozenSetting(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(gs, p.cf, p.engineOpts()...)
}

func (p *Lab) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	gs, err := p.frozenSetting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, p.cf, seed, p.engineOpts()...)
}

func (p *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	cfg, err := p.adhoc(spec.GetGameSettingByJSON, raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed, p.engineOpts()...)
}

func (p *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	cfg, err := p.adhoc(spec.GetGameSettingByYAML, raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed, p.engineOpts()...)
}

// BuildRuntime freezes the catalog and builds one pool of poolSize machines
// per registered game.
func (p *Lab) BuildRuntime(poolSize int, opts ...cascade.Option) (*Runtime, error) {
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}
	rt := &Runtime{
		lab:      p,
		pools:    make(map[spec.GID]*MachinePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	eopts := append(p.engineOpts(), opts...)
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, err
		}
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return nil, errs.Wrap(err, "new crypto seed error in go std lib")
		}
		mp, err := newMachinePool(rt.poolSize, gs, p.cf, seed.Int64(), p.log, eopts...)
		if err != nil {
			return nil, err
		}
		rt.pools[id] = mp
	}
	p.log.Info("runtime built", "games", len(ids), "pool_size", rt.poolSize)
	return rt, nil
}

// NewDevSimulator 只提供給 Dev 模式使用：模擬器與審計機台用同一個 seed 出生，
// 兩者的 Core 快照一開始必須相同。
func (p *Lab) NewDevSimulator(gid spec.GID, seed int64) (*DevSimulator, error) {
	sim, err := p.NewSimulatorWithSeed(gid, seed)
	if err != nil {
		return nil, err
	}
	m, err := p.NewMachineWithSeed(gid, seed)
	if err != nil {
		return nil, err
	}
	simBe, err := sim.mBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	mBe, err := m.SnapshotCore()
	if err != nil {
		return nil, err
	}
	simBe64 := corefmt.EncodeBase64URL(simBe)
	mBe64 := corefmt.EncodeBase64URL(mBe)
	if mBe64 != simBe64 {
		return nil, errs.NewFatal("seeds are not equal")
	}
	return &DevSimulator{
		sim:      sim,
		m:        m,
		before64: mBe64,
	}, nil
}
