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

// Package demo wires the embedded demo games into ready-to-use values.
package demo

import (
	"log/slog"

	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/catalog"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/server/logger"
	"github.com/zintix-labs/tumblelab/server/svrcfg"
)

// New returns a catalog over the embedded configs, nothing registered yet.
func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab returns a frozen lab serving every embedded game.
func NewLab(opts ...tumblelab.LabOption) (*tumblelab.Lab, error) {
	return tumblelab.NewAuto(core.Default(), tumblelab.Configs(demo_configs.FS), opts...)
}

// NewServerConfig is a dev server over the demo games with in-memory history.
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	log := logger.NewDefaultAsyncLogger(logger.ModeDev)
	lab, err := NewLab(tumblelab.WithLogger(log.With(slog.String("component", "engine"))))
	if err != nil {
		return nil, errs.Wrap(err, "new lab")
	}
	sCfg := &svrcfg.SvrCfg{Log: log, Lab: lab, PoolSize: 2}
	if err := sCfg.Vaild(); err != nil {
		return nil, err
	}
	return sCfg, nil
}
