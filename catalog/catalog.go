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

// Package catalog is the game directory: which games exist, which config
// file each one comes from, and how to load its setting. Config sources are
// flat fs.FS values (go:embed or os.DirFS); the catalog never deals in
// paths.
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate game id")
	ErrDupName = errs.NewFatal("duplicate game name")
)

type Entry struct {
	GID        spec.GID `json:"gid"`
	Name       string   `json:"name"`
	ConfigName string   `json:"config"`
}

// Summary is what a client needs to list a game.
type Summary struct {
	GID        spec.GID `json:"gid"`
	Name       string   `json:"name"`
	Columns    int      `json:"columns"`
	Rows       int      `json:"rows"`
	Symbols    []string `json:"symbols"`
	MinCluster int      `json:"min_cluster"`
	SafetyCap  int      `json:"safety_cap"`
	MinBet     string   `json:"min_bet"`
	MaxBet     string   `json:"max_bet"`
	DefaultBet string   `json:"default_bet"`
}

// SummaryOf builds the listing entry of an initialized setting.
func SummaryOf(gs *spec.GameSetting) Summary {
	names := make([]string, len(gs.Symbols.Symbols))
	for i, sd := range gs.Symbols.Symbols {
		names[i] = sd.Name
	}
	return Summary{
		GID:        gs.GameID,
		Name:       gs.GameName,
		Columns:    gs.Grid.Columns,
		Rows:       gs.Grid.Rows,
		Symbols:    names,
		MinCluster: gs.Cluster.MinSize,
		SafetyCap:  gs.Cascade.SafetyCap,
		MinBet:     gs.Bet.MinDec.String(),
		MaxBet:     gs.Bet.MaxDec.String(),
		DefaultBet: gs.Bet.DefaultDec.String(),
	}
}

type Catalog struct {
	byID   map[spec.GID]Entry
	byName map[string]Entry
	ids    []spec.GID          // 用來穩定排序
	unique map[string]struct{} // 一組遊戲，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.GID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.GID, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Register adds entries atomically: either all of them are valid and
// added, or none is.
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.GID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("game name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.GID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[meta.GID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.GID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.GID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.GID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// Discover parses every config in every source, in file name order, and
// returns one entry per game. It fails on the first unreadable or invalid
// file and on duplicate ids or names, so a caller can Register the result
// in one call.
func (c *Catalog) Discover() ([]Entry, error) {
	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	seenID := map[spec.GID]string{}
	seenName := map[string]string{}
	for _, base := range names {
		if strings.HasPrefix(base, ".") {
			continue
		}
		gs, err := c.load(base)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "parse gamesetting failed", base)
		}
		if prev, ok := seenID[gs.GameID]; ok {
			return nil, errs.NewFatal(fmt.Sprintf("duplicate game id: %d (config=%s and %s)", gs.GameID, prev, base))
		}
		seenID[gs.GameID] = base
		key := strings.ToLower(strings.TrimSpace(gs.GameName))
		if prev, ok := seenName[key]; ok {
			return nil, errs.NewFatal(fmt.Sprintf("duplicate game name: %s (config=%s and %s)", key, prev, base))
		}
		seenName[key] = base
		entries = append(entries, Entry{GID: gs.GameID, Name: gs.GameName, ConfigName: base})
	}
	if len(entries) == 0 {
		return nil, errs.NewFatal("no config files found to register")
	}
	return entries, nil
}

func (c *Catalog) GetByID(id spec.GID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *Catalog) IDs() []spec.GID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]spec.GID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		m = append(m, c.byID[id])
	}
	return m
}

func (c *Catalog) Freeze()        { c.frozen = true }
func (c *Catalog) IsFrozen() bool { return c.frozen }

// GameSettingById loads, initializes and validates the setting of id.
// Every call returns a fresh setting.
func (c *Catalog) GameSettingById(id spec.GID) (*spec.GameSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("game id %d does not exist in catalog", id))
	}
	return c.load(e.ConfigName)
}

// GameSettingByName is GameSettingById keyed by name.
func (c *Catalog) GameSettingByName(name string) (*spec.GameSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWarn(fmt.Sprintf("game %q does not exist in catalog", name))
	}
	return c.load(e.ConfigName)
}

func (c *Catalog) load(configName string) (*spec.GameSetting, error) {
	src, ok := c.config.GetFS(configName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, configName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parseGameSettingByExt(configName, raw)
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename)", file))
	}
	if !isConfigName(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parseGameSettingByExt(filename string, raw []byte) (*spec.GameSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetGameSettingByYAML(raw)
	case ".json":
		return spec.GetGameSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// multiFS indexes several flat config sources by file name.
type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	m := &multiFS{src: src, index: make(map[string]int, 16)}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
		err := fs.WalkDir(s, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if !isConfigName(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}
