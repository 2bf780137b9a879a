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

package spec

import "github.com/zintix-labs/tumblelab/errs"

// GridSetting 盤面尺寸
type GridSetting struct {
	Columns  int `yaml:"columns" json:"columns"`
	Rows     int `yaml:"rows"    json:"rows"`
	Size     int `yaml:"-"       json:"-"`
	initFlag bool
}

const (
	DefaultColumns = 10
	DefaultRows    = 8
)

func (gs *GridSetting) Init() error {
	if gs.initFlag {
		return nil
	}
	if gs.Columns == 0 && gs.Rows == 0 {
		gs.Columns, gs.Rows = DefaultColumns, DefaultRows
	}
	if gs.Columns <= 0 || gs.Rows <= 0 {
		return errs.Fatalf("invalid grid dimensions: cols=%d rows=%d", gs.Columns, gs.Rows)
	}
	gs.Size = gs.Columns * gs.Rows
	gs.initFlag = true
	return nil
}
