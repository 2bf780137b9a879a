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
	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/tumblelab/errs"
)

const (
	DefaultAddr       = ":5808"
	DefaultBetHistory = 200
	DefaultMaxAuto    = 1000
)

// Env is the process configuration read from the environment. Flags in
// cmd/svr default to these values.
type Env struct {
	Addr       string `env:"TUMBLE_ADDR"        envDefault:":5808"`
	LogMode    string `env:"TUMBLE_LOG_MODE"    envDefault:"dev"`
	DB         string `env:"TUMBLE_DB"`
	ConfigDir  string `env:"TUMBLE_CONFIG_DIR"`
	PoolSize   int    `env:"TUMBLE_POOL_SIZE"   envDefault:"2"`
	BetHistory int    `env:"TUMBLE_BET_HISTORY" envDefault:"200"`
	MaxAuto    int    `env:"TUMBLE_MAX_AUTO"    envDefault:"1000"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errs.Wrap(err, "parse env")
	}
	return e, nil
}

// LoadEnvFrom parses Env from the given variables only.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, errs.Wrap(err, "parse env")
	}
	return e, nil
}
