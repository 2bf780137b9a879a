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

// Package spec holds the game configuration: everything a cascade game can
// tune is decoded from a YAML/JSON file into a GameSetting, defaulted and
// validated once by Init, and read-only afterwards.
package spec

import (
	"fmt"

	"github.com/zintix-labs/tumblelab/errs"
)

// GID 遊戲 ID
type GID uint

// GameSetting is one game's full configuration.
type GameSetting struct {
	GameName   string            `yaml:"game_name"   json:"game_name"`
	GameID     GID               `yaml:"game_id"     json:"game_id"`
	Grid       GridSetting       `yaml:"grid"        json:"grid"`
	Symbols    SymbolSetting     `yaml:"symbols"     json:"symbols"`
	Cluster    ClusterSetting    `yaml:"cluster"     json:"cluster"`
	Multiplier MultiplierSetting `yaml:"multiplier"  json:"multiplier"`
	Cascade    CascadeSetting    `yaml:"cascade"     json:"cascade"`
	Bet        BetSetting        `yaml:"bet"         json:"bet"`
	Pacing     PacingSetting     `yaml:"pacing"      json:"pacing"`
	initFlag   bool
}

// ClusterSetting 消除條件
type ClusterSetting struct {
	MinSize int `yaml:"min_size" json:"min_size"`
}

// CascadeSetting bounds one spin.
type CascadeSetting struct {
	SafetyCap int `yaml:"safety_cap" json:"safety_cap"`
}

const (
	DefaultMinClusterSize = 4
	DefaultSafetyCap      = 60
)

// Init fills defaults, initializes every sub setting and validates the
// whole. It is idempotent.
func (gs *GameSetting) Init() error {
	if gs.initFlag {
		return nil
	}
	if gs.Cluster.MinSize == 0 {
		gs.Cluster.MinSize = DefaultMinClusterSize
	}
	if gs.Cascade.SafetyCap == 0 {
		gs.Cascade.SafetyCap = DefaultSafetyCap
	}
	if err := gs.Grid.Init(); err != nil {
		return err
	}
	if err := gs.Symbols.Init(gs.Cluster.MinSize); err != nil {
		return err
	}
	if err := gs.Multiplier.Init(); err != nil {
		return err
	}
	if err := gs.Bet.Init(); err != nil {
		return err
	}
	if err := gs.Pacing.Init(); err != nil {
		return err
	}
	if err := gs.valid(); err != nil {
		return err
	}
	gs.initFlag = true
	return nil
}

func (gs *GameSetting) valid() error {
	if gs.GameName == "" {
		return errs.NewFatal("game_name required")
	}
	if gs.Cluster.MinSize < 1 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err: cluster.min_size must be >= 1, got %d", gs.GameName, gs.Cluster.MinSize))
	}
	if gs.Cluster.MinSize > gs.Grid.Size {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err: cluster.min_size %d larger than grid %d", gs.GameName, gs.Cluster.MinSize, gs.Grid.Size))
	}
	if gs.Cascade.SafetyCap < 1 {
		return errs.NewFatal(fmt.Sprintf("game_name: %s err: cascade.safety_cap must be >= 1", gs.GameName))
	}
	return nil
}
