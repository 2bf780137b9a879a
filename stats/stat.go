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

// Package stats holds the simulation report: RTP and its confidence
// interval, the win distribution, the cascade profile (tumble chains,
// cluster sizes, multipliers, safety cap hits) and, for player runs, the
// bankroll path. Recording happens in package recorder; this package only
// turns sums into numbers and renders them.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/tumblelab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat/distuv"
)

var lang language.Tag = language.English

// LongChain is the tumble count from which a spin counts as a long chain.
const LongChain = 5

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// StatReport 遊戲統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary" yaml:"Summary"`
	Mult    *MultReport    `json:"Mult"    yaml:"Mult"`
	Dist    *DistReport    `json:"Dist"    yaml:"Dist"`
	Cascade *CascadeReport `json:"Cascade" yaml:"Cascade"`
	Player  *PlayerReport  `json:"Player,omitzero" yaml:"Player,omitempty"`
	isDone  bool
}

// SummaryReport is money-level totals. Bet and win sums are in currency
// units; RTP and its interval are ratios.
type SummaryReport struct {
	GameName    string   `json:"GameName"    yaml:"GameName"`
	GameId      spec.GID `json:"GameId"      yaml:"GameId"`
	Bet         float64  `json:"Bet"         yaml:"Bet"`
	TotalBet    float64  `json:"TotalBet"    yaml:"TotalBet"`
	TotalWin    float64  `json:"TotalWin"    yaml:"TotalWin"`
	RTP         float64  `json:"RTP"         yaml:"RTP"`
	RtpCI       CI       `json:"RtpCI"       yaml:"RtpCI"`
	Std         float64  `json:"Std"         yaml:"Std"`
	Cv          float64  `json:"Cv"          yaml:"Cv"`
	LongChains  int      `json:"LongChains"  yaml:"LongChains"`
	CapHits     int      `json:"CapHits"     yaml:"CapHits"`
	NoWinRounds int      `json:"NoWinRounds" yaml:"NoWinRounds"`
	HitRate     float64  `json:"HitRate"     yaml:"HitRate"`
	Rounds      int      `json:"Rounds"      yaml:"Rounds"`
}

// MultReport 贏倍統計（以下注額為單位）
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"      yaml:"TotalWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum" yaml:"TotalWinMultSqSum"` // 平方和
	MaxWinMult        float64 `json:"MaxWinMult"        yaml:"MaxWinMult"`
}

// DistReport 分數區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"       yaml:"WinBucket"`
	TotalWinCollect []int     `json:"TotalWinCollect" yaml:"TotalWinCollect"`
	TotalWinDist    []float64 `json:"TotalWinDist"    yaml:"TotalWinDist"`
}

// CascadeReport profiles the tumble chains behind the wins.
//
// TumbleCollect[i] counts spins with exactly i tumbles, the last slot
// collecting everything longer. ClusterSizeCollect[i] counts clusters of
// MinCluster+i cells, the last slot again open ended. MultCollect counts
// paid clusters by the multiplier applied, 1 meaning none.
type CascadeReport struct {
	TumbleLabel        []string       `json:"TumbleLabel"        yaml:"TumbleLabel"`
	TumbleCollect      []int          `json:"TumbleCollect"      yaml:"TumbleCollect"`
	TumbleDist         []float64      `json:"TumbleDist"         yaml:"TumbleDist"`
	AvgTumbles         float64        `json:"AvgTumbles"         yaml:"AvgTumbles"`
	MaxTumbles         int            `json:"MaxTumbles"         yaml:"MaxTumbles"`
	MinCluster         int            `json:"MinCluster"         yaml:"MinCluster"`
	Clusters           int            `json:"Clusters"           yaml:"Clusters"`
	AvgClusterSize     float64        `json:"AvgClusterSize"     yaml:"AvgClusterSize"`
	ClusterSizeLabel   []string       `json:"ClusterSizeLabel"   yaml:"ClusterSizeLabel"`
	ClusterSizeCollect []int          `json:"ClusterSizeCollect" yaml:"ClusterSizeCollect"`
	MultCollect        map[int]int    `json:"MultCollect"        yaml:"MultCollect"`
	Symbols            []string       `json:"Symbols"            yaml:"Symbols"`
	SymbolWinMult      []float64      `json:"SymbolWinMult"      yaml:"SymbolWinMult"`
	SymbolRTP          []float64      `json:"SymbolRTP"          yaml:"SymbolRTP"`
	SizeSum            int            `json:"-"                  yaml:"-"`
	TumbleSum          int            `json:"-"                  yaml:"-"`
}

// PlayerReport 玩家統計，以下注額為單位
//
// 需使用 RecordWithPlayer 才會統計
type PlayerReport struct {
	InitBalance float64 `json:"InitBalance" yaml:"InitBalance"`
	Balance     float64 `json:"Balance"     yaml:"Balance"`
	MaxBalance  float64 `json:"MaxBalance"  yaml:"MaxBalance"`
	MinBalance  float64 `json:"MinBalance"  yaml:"MinBalance"`
	Bust        bool    `json:"Bust"        yaml:"Bust"`
	Cashout     bool    `json:"Cashout"     yaml:"Cashout"`
	Alive       bool    `json:"Alive"       yaml:"Alive"`
}

// TumbleLabels returns n labels "0".."n-2" and "n-1+".
func TumbleLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	out[n-1] += "+"
	return out
}

// ClusterSizeLabels labels n slots starting at minSize, the last open ended.
func ClusterSizeLabels(minSize, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(minSize + i)
	}
	out[n-1] += "+"
	return out
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done turns the accumulated sums into the final figures. Recording only
// adds numbers for speed; call Done once everything is recorded. It is
// idempotent.
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Rounds > 0 {
		s.Summary.HitRate = 1.0 - float64(s.Summary.NoWinRounds)/float64(s.Summary.Rounds)
	}

	if s.Dist != nil {
		s.Dist.TotalWinDist = ratios(s.Dist.TotalWinCollect, s.Summary.Rounds)
	}
	if c := s.Cascade; c != nil {
		c.TumbleDist = ratios(c.TumbleCollect, s.Summary.Rounds)
		if s.Summary.Rounds > 0 {
			c.AvgTumbles = float64(c.TumbleSum) / float64(s.Summary.Rounds)
		}
		if c.Clusters > 0 {
			c.AvgClusterSize = float64(c.SizeSum) / float64(c.Clusters)
		}
		c.SymbolRTP = make([]float64, len(c.SymbolWinMult))
		if s.Summary.Rounds > 0 {
			for i, w := range c.SymbolWinMult {
				c.SymbolRTP[i] = w / float64(s.Summary.Rounds)
			}
		}
	}
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}
	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return s.Summary.TotalWin / s.Summary.TotalBet
}

// Std is the per-spin standard deviation of the win in bet multiples.
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)
	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單局贏分的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	if rtp <= 0 {
		return 0
	}
	return s.Std() / rtp
}

// Ci returns the 95% normal-approximation interval of the RTP.
func (s *StatReport) Ci() CI {
	return s.CiAt(0.95)
}

// CiAt is Ci at the given confidence level.
func (s *StatReport) CiAt(confidence float64) CI {
	rtp := s.Rtp()
	se := 0.0
	if s.Summary.Rounds > 1 {
		se = s.Std() / math.Sqrt(float64(s.Summary.Rounds))
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	return CI{Lo: max(rtp-z*se, 0.0), Hi: rtp + z*se}
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut prints the timing line and the summary and cascade tables.
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Rounds))
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.GameName, sk, sm))
	ck, cm := s.fmtCascade()
	fmt.Println(fmtTable("Cascade", ck, cm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func ratios(collect []int, rounds int) []float64 {
	out := make([]float64, len(collect))
	if rounds == 0 {
		return out
	}
	rf := float64(rounds)
	for i, c := range collect {
		out[i] = float64(c) / rf
	}
	return out
}

func formatDuration(d time.Duration, spins int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
	}
	sx := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nsps : %d spins/sec\n", m, sx, sps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, sx, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", s.Summary.GameName),
		"Game ID":      fmt.Sprintf("%d", s.Summary.GameId),
		"Total Rounds": p.Sprintf("%d", s.Summary.Rounds),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Bet":          p.Sprintf("%v", s.Summary.Bet),
		"Total Bet":    p.Sprintf("%.2f", s.Summary.TotalBet),
		"Total Win":    p.Sprintf("%.2f", s.Summary.TotalWin),
		"Hit Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"NoWin Rounds": p.Sprintf("%d", s.Summary.NoWinRounds),
		"Max Win":      p.Sprintf("%.2f x", s.Mult.MaxWinMult),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Game Name", "Game ID", "Total Rounds", "Total RTP", "RTP 95% CI", "Bet", "Total Bet", "Total Win", "Hit Rate", "NoWin Rounds", "Max Win", "STD", "CV"}
	return keys, basic
}

func (s *StatReport) fmtCascade() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	c := s.Cascade
	msg := map[string]string{
		"Avg Tumbles":      p.Sprintf("%.3f", c.AvgTumbles),
		"Max Tumbles":      p.Sprintf("%d", c.MaxTumbles),
		"Long Chains":      p.Sprintf("%d (>= %d)", s.Summary.LongChains, LongChain),
		"Safety Cap Hits":  p.Sprintf("%d", s.Summary.CapHits),
		"Clusters":         p.Sprintf("%d", c.Clusters),
		"Avg Cluster Size": p.Sprintf("%.2f", c.AvgClusterSize),
	}
	keys := []string{"Avg Tumbles", "Max Tumbles", "Long Chains", "Safety Cap Hits", "Clusters", "Avg Cluster Size"}
	for i, name := range c.Symbols {
		k := "RTP " + name
		msg[k] = p.Sprintf("%.2f %%", 100.0*c.SymbolRTP[i])
		keys = append(keys, k)
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
