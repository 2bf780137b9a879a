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

package svrcfg

import (
	"testing"

	"github.com/zintix-labs/tumblelab/errs"
)

func TestLoadEnvDefaults(t *testing.T) {
	e, err := LoadEnvFrom(map[string]string{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Addr != DefaultAddr || e.LogMode != "dev" || e.PoolSize != 2 || e.BetHistory != DefaultBetHistory || e.DB != "" {
		t.Fatalf("defaults %+v", e)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	e, err := LoadEnvFrom(map[string]string{
		"TUMBLE_ADDR":      ":9000",
		"TUMBLE_LOG_MODE":  "prod",
		"TUMBLE_DB":        "/tmp/h.db",
		"TUMBLE_POOL_SIZE": "4",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Addr != ":9000" || e.LogMode != "prod" || e.DB != "/tmp/h.db" || e.PoolSize != 4 {
		t.Fatalf("overrides %+v", e)
	}
	if _, err := LoadEnvFrom(map[string]string{"TUMBLE_POOL_SIZE": "x"}); errs.Level(err) != errs.Fatal {
		t.Fatalf("bad int: %v", err)
	}
}

func TestVaildRequiresLab(t *testing.T) {
	sc := &SvrCfg{}
	if err := sc.Vaild(); err == nil {
		t.Fatalf("missing lab accepted")
	}
	if sc.PoolSize != 1 || sc.Addr != DefaultAddr || sc.Log == nil {
		t.Fatalf("defaults not filled: %+v", sc)
	}
}
