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
	"crypto/rand"
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/recorder"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/sdk/core"
	"github.com/zintix-labs/tumblelab/spec"
	"github.com/zintix-labs/tumblelab/stats"
)

const capPrepare int = 100

// Simulator 用於模擬遊戲行為，可建立多台機台並平行紀錄統計。
//
// 模擬用的機台跑 lite 模式（不產生 frame 與盤面快照），每局前把餘額補到剛好一注，
// 玩家資金曲線由 recorder 以注數計算。
type Simulator struct {
	GameName  string                   // 遊戲名稱
	GameId    spec.GID                 // 遊戲 ID
	initBets  int                      // 玩家帶的錢（以注數計）
	gs        *spec.GameSetting        // 方便重用建立 recorder
	cf        core.PRNGFactory         // 亂數生成器
	opts      []cascade.Option         // 建機台用的引擎選項
	initSeed  int64                    // 初始種子
	seedmaker *seedMaker               // 種子生成器
	mBuf      []*Machine               // 併發執行機台實例
	rBuf      []*recorder.SpinRecorder // 併發遊戲紀錄員
	sBuf      []*stats.StatReport      // 併發統計結果報表(僅Players需要)
}

func newSimulator(gs *spec.GameSetting, cf core.PRNGFactory, opts ...cascade.Option) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(gs, cf, seed.Int64(), opts...)
}

func newSimulatorWithSeed(gs *spec.GameSetting, cf core.PRNGFactory, seed int64, opts ...cascade.Option) (*Simulator, error) {
	opts = append(append([]cascade.Option(nil), opts...), cascade.WithLite(true))
	s := &Simulator{
		GameName:  gs.GameName,
		GameId:    gs.GameID,
		gs:        gs,
		cf:        cf,
		opts:      opts,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	m, err := newMachineWithSeed(gs, cf, s.initSeed, s.opts...)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

// Setting returns the game setting the simulator plays.
func (s *Simulator) Setting() *spec.GameSetting { return s.gs }

// Sim 單線模擬器：以一台機台連續跑指定 round 並回傳統計結果與用時
func (s *Simulator) Sim(bet decimal.Decimal, round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if err := s.validBet(bet); err != nil {
		return nil, 0, err
	}
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepareRecorders(1, bet); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	m := s.mBuf[0]
	ss := s.session(bet)

	bar := pb.StartNew(round)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < round; i++ {
		ss.Balance = ss.Bet
		sr := m.SpinInternal(ss)
		r.Record(&sr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個機台，總計 rounds*mp 次 spin，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(bet decimal.Decimal, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if err := s.validBet(bet); err != nil {
		return nil, 0, err
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepareMachines(mp); err != nil {
		return nil, 0, err
	}
	if err := s.prepareRecorders(mp, bet); err != nil {
		return nil, 0, err
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			g := s.mBuf[i]
			st := s.rBuf[i]
			ss := s.session(bet)
			for r := 0; r < rounds; r++ {
				ss.Balance = ss.Bet
				sr := g.SpinInternal(ss)
				st.Record(&sr)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeSpinRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶入 initBets 注的籌碼，每人最多玩 rounds 局，
// 產出機台報表與玩家報表。
func (s *Simulator) SimPlayers(mp int, players int, initBets int, bet decimal.Decimal, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBets < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	if err := s.validBet(bet); err != nil {
		return nil, nil, 0, err
	}
	s.initBets = initBets

	if err := s.prepareMachines(mp); err != nil {
		return nil, nil, 0, err
	}
	s.sBuf = make([]*stats.StatReport, players)
	if err := s.prepareRecorders(players, bet); err != nil {
		return nil, nil, 0, err
	}
	// 緩衝 channel 讓玩家依序被機台領走
	jobs := make(chan *recorder.SpinRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp)

	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for w := 0; w < mp; w++ {
		go sim(wg, s.mBuf[w], s.session(bet), jobs, rounds, bar)
	}
	for _, j := range s.rBuf[:players] {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	record, err := recorder.MergeSpinRecorder(s.rBuf[:players])
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Done()

	for i, r := range s.rBuf[:players] {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func sim(wg *sync.WaitGroup, m *Machine, ss *cascade.Session, jobs chan *recorder.SpinRecorder, rounds int, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs {
		for range rounds {
			ss.Balance = ss.Bet
			sr := m.SpinInternal(ss)
			if j.RecordWithPlayer(&sr) {
				break
			}
		}
		bar.Increment()
	}
}

func (s *Simulator) validBet(bet decimal.Decimal) error {
	if !bet.IsPositive() {
		return errs.NewWarn("bet must > 0")
	}
	if !s.gs.Bet.Clamp(bet).Equal(bet) {
		return errs.NewWarn("bet out of range: " + bet.String())
	}
	return nil
}

// session builds a scratch session that only keeps the last bet entry.
func (s *Simulator) session(bet decimal.Decimal) *cascade.Session {
	ss := cascade.NewSession(&s.gs.Bet)
	ss.BetLimit = 1
	ss.SetBet(bet)
	return ss
}

func (s *Simulator) prepareMachines(n int) error {
	for len(s.mBuf) < n {
		m, err := newMachineWithSeed(s.gs, s.cf, s.seedmaker.next(), s.opts...)
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	return nil
}

func (s *Simulator) prepareRecorders(n int, bet decimal.Decimal) error {
	for len(s.rBuf) < n {
		r, err := recorder.NewSpinRecorder(s.gs, bet, s.initBets)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
	s.initBets = 0
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 走全週期 LCG（不重複），再用可逆 mix63 打散；可被多 goroutine 同時呼叫。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
