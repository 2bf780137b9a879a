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

package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/spec"
)

func TestDiscoverDemoConfigs(t *testing.T) {
	c, err := New(demo_configs.FS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ents, err := c.Discover()
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if err := c.Register(ents...); err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Freeze()
	if err := c.Register(Entry{GID: 9, Name: "x", ConfigName: "x.yaml"}); err == nil {
		t.Fatalf("frozen catalog accepted a register")
	}

	ids := c.IDs()
	if len(ids) != 2 || ids[0] != 1001 || ids[1] != 1002 {
		t.Fatalf("ids %v", ids)
	}
	gs, err := c.GameSettingByName("FRUIT_BLAST_10X8")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	sum := SummaryOf(gs)
	if sum.Columns != 10 || sum.Rows != 8 || len(sum.Symbols) != 10 || sum.MinBet != "1" {
		t.Fatalf("summary %+v", sum)
	}
	if _, err := c.GameSettingById(spec.GID(42)); err == nil {
		t.Fatalf("unknown id must fail")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c, err := New(demo_configs.FS)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = c.Register(
		Entry{GID: 1, Name: "a", ConfigName: "fruit_blast_10x8.yaml"},
		Entry{GID: 1, Name: "b", ConfigName: "fruit_blast_6x5.yaml"},
	)
	if err != ErrDupID {
		t.Fatalf("want ErrDupID, got %v", err)
	}
	if len(c.IDs()) != 0 {
		t.Fatalf("failed register must add nothing")
	}
	if err := c.Register(Entry{GID: 1, Name: "a", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("missing config accepted")
	}
	if err := c.Register(Entry{GID: 1, Name: "a", ConfigName: "../x.yaml"}); err == nil {
		t.Fatalf("path config name accepted")
	}
}

func TestMultiFS(t *testing.T) {
	a := fstest.MapFS{"g.yaml": {Data: []byte("x")}, "README.md": {Data: []byte("x")}}
	b := fstest.MapFS{"g.yaml": {Data: []byte("y")}}
	if _, err := New(a, b); err == nil {
		t.Fatalf("duplicate file across sources accepted")
	}
	nested := fstest.MapFS{"sub/g.yaml": {Data: []byte("x")}}
	if _, err := New(nested); err == nil {
		t.Fatalf("nested config FS accepted")
	}
	c, err := New(a)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.Discover(); err == nil {
		t.Fatalf("unparsable config must fail discovery")
	}
}
