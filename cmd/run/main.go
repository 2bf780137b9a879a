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

// Command run is the simulator CLI.
//
//	go run ./cmd/run -game 1001 -spins 1000000 -worker 8
//	go run ./cmd/run -game 1001 -player 1000 -bets 200 -spins 1500
//	go run ./cmd/run -game 1001 -format yaml -p cpu
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab"
	"github.com/zintix-labs/tumblelab/demo/demo_configs"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/sdk/perf"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg = new(config)

type config struct {
	id        spec.GID
	name      string
	worker    int
	player    int
	bets      int
	spins     int
	bet       string
	seed      int64
	format    string
	configDir string
	pprofmode string
	pprofDir  string
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return fmt.Sprint(uint(*f.p))
}

func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	cfg.id = 1001
	flag.Var(gidFlag{&cfg.id}, "game", "target game id")
	flag.StringVar(&cfg.name, "name", "", "target game name (overrides -game)")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "player", 1, "number of players; > 1 simulates bankrolls")
	flag.IntVar(&cfg.bets, "bets", 200, "player bankroll in bets")
	flag.IntVar(&cfg.spins, "spins", 1_000_000, "spins per worker, or per player")
	flag.StringVar(&cfg.bet, "bet", "", "bet per spin (default: the game default)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed; < 1 picks a random one")
	flag.StringVar(&cfg.format, "format", "table", "report format: table, json, yaml")
	flag.StringVar(&cfg.configDir, "config", "", "extra directory of game configs")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.StringVar(&cfg.pprofDir, "pdir", perf.DefaultDir, "pprof output directory")
	flag.Parse()

	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

func main() {
	bindVar()
	mode, err := perf.ParseMode(cfg.pprofmode)
	if err != nil {
		log.Fatal(err)
	}
	path, err := perf.Run(executeSimulator, mode, cfg.pprofDir)
	if err != nil {
		log.Fatal(err)
	}
	if path != "" {
		fmt.Fprintln(os.Stderr, "profile written to", path)
	}
}

func executeSimulator() {
	cfg.valid()

	cfgs := []fs.FS{demo_configs.FS}
	if cfg.configDir != "" {
		cfgs = append(cfgs, os.DirFS(cfg.configDir))
	}
	lab, err := tumblelab.NewAuto(core.Default(), tumblelab.Configs(cfgs...))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.name != "" {
		ent, ok := lab.EntryByName(cfg.name)
		if !ok {
			log.Fatalf("game %q not found", cfg.name)
		}
		cfg.id = ent.GID
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	bet := s.Setting().Bet.DefaultDec
	if cfg.bet != "" {
		if bet, err = decimal.NewFromString(cfg.bet); err != nil {
			log.Fatalf("bet: %v", err)
		}
	}

	green, reset := "\033[1;32m", "\033[0m"
	p := message.NewPrinter(language.English)
	table := cfg.format == "table"
	if table {
		p.Printf("%s[GAME:%s] [SEED:%d] [BET:%s]%s\n", green, s.GameName, cfg.seed, bet, reset)
	}

	var (
		st   *stats.StatReport
		est  *stats.EstimatorPlayers
		used time.Duration
	)
	switch {
	case cfg.player > 1:
		if table {
			p.Printf("%s[WORKERS:%d] [PLAYERS:%d BANKROLL:%d bets SPINS:%d]%s\n", green, cfg.worker, cfg.player, cfg.bets, cfg.spins, reset)
		}
		st, est, used, err = s.SimPlayers(cfg.worker, cfg.player, cfg.bets, bet, cfg.spins, table)
	case cfg.worker > 1:
		if table {
			p.Printf("%s[WORKERS:%d] [SPINS:%d]%s\n", green, cfg.worker, cfg.worker*cfg.spins, reset)
		}
		st, used, err = s.SimMP(bet, cfg.spins, cfg.worker, table)
	default:
		st, used, err = s.Sim(bet, cfg.spins, table)
	}
	if err != nil {
		log.Fatal(err)
	}

	if table {
		st.StdOut(used)
		if est != nil {
			est.Out()
		}
		return
	}
	if err := st.WriteWith(os.Stdout, stats.RenderFor(cfg.format)); err != nil {
		log.Fatal(err)
	}
	if est != nil {
		var er stats.EstimatorRender = &stats.JsonEstimatorRender{}
		if cfg.format != "json" {
			er = &stats.YAMLEstimatorRender{}
		}
		if err := er.Write(os.Stdout, est); err != nil {
			log.Fatal(err)
		}
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	if cfg.player < 1 {
		log.Fatal("value err : player must > 0")
	}
	if cfg.player > 100_000 {
		p.Printf("too many players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100_000
	}
	if cfg.player > 1 && cfg.bets < 1 {
		log.Fatal("value err : bets must >= 1")
	}
	if cfg.spins < 1 {
		log.Fatal("value err : spins must > 0")
	}
	// 15k spins is about ten hours of play; longer runs belong to the machine view.
	if cfg.player > 1 && cfg.spins > 15_000 {
		p.Printf("too many spins per player: %d resized to 15k\n", cfg.spins)
		cfg.spins = 15_000
	}
	switch cfg.format {
	case "table", "json", "yaml", "yml":
	default:
		log.Fatalf("value err : unknown format %q", cfg.format)
	}
}
