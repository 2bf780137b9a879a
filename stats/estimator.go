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

package stats

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 用戶體驗評估
type EstimatorPlayers struct {
	RtpStat     RtpStat
	EventStat   EventStat
	SessionStat SessionStat
}

// Rtp敘事
type RtpStat struct {
	ExpMedian PointStat // 描述體驗的中位數
	ExpPerc   ExpPerc   // 描述玩家的分布(對應RTP)
	RtpPerc   RtpPerc   // 描述Rtp的分布(對應多少比例的玩家)
}

// 用玩家體驗分位數視角看: 最差10％玩家的RTP 最差33%玩家的RTP ...
type ExpPerc struct {
	ExpP10 PointStat
	ExpP33 PointStat
	ExpP67 PointStat
	ExpP90 PointStat
}

// 用Rtp分位數視角看玩家: 有多少玩家體驗到了30%RTP 有多少玩家體驗到了50%RTP ...
type RtpPerc struct {
	Rtp30  PointStat
	Rtp50  PointStat
	Rtp70  PointStat
	Rtp100 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 事件敘事
//
// Every count is per player: the share of players who saw the event 0, 1,
// 2 or 3+ times over their session.
//   - LongChain: spins that tumbled at least LongChain times.
//   - CapHit: spins stopped by the cascade safety cap.
//   - BigMult: clusters paid with a multiplier of BigMult or more.
type EventStat struct {
	LongChain EventCount
	CapHit    EventCount
	BigMult   EventCount
	Bucket    BucketEvent
}

// BigMult is the cell multiplier from which a paid cluster counts as a
// big-multiplier event.
const BigMult = 64

// 事件點估計
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// 對應分桶的統計
type BucketEvent struct {
	BucketLable []string     // 分桶標籤
	BucketCount []EventCount // 分桶事件點估計
}

// 對應結果敘事
type SessionStat struct {
	Bust    PointStat // 破產
	Cashout PointStat // 贏滿離場
	Alive   PointStat // 活到最後
}

// ============================================================
// ** 對外 : 用戶體驗評估 **
// ============================================================

// EstimatorPlayerExp 用戶體驗評估
//
// It reads one finished StatReport per simulated player and describes:
//   - RTP: the spread of the RTP players actually experienced.
//   - Events: how often a player saw a long tumble chain, a capped spin, a
//     big multiplier or a win in each bucket.
//   - Session: how players left (bust, cashed out at the target, or still
//     playing when the spin budget ran out).
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{}
	if n == 0 {
		return out
	}

	// 1) RTP 敘事
	rtp := make([]float64, n)
	for i, s := range sts {
		rtp[i] = s.Rtp()
	}
	out.RtpStat = RtpStat{
		ExpMedian: quantileStat(rtp, 0.5),
		ExpPerc: ExpPerc{
			ExpP10: quantileStat(rtp, 0.10),
			ExpP33: quantileStat(rtp, 1.0/3.0),
			ExpP67: quantileStat(rtp, 2.0/3.0),
			ExpP90: quantileStat(rtp, 0.90),
		},
		RtpPerc: RtpPerc{
			Rtp30:  shareAtMost(rtp, 0.30),
			Rtp50:  shareAtMost(rtp, 0.50),
			Rtp70:  shareAtMost(rtp, 0.70),
			Rtp100: shareAtMost(rtp, 1.00),
		},
	}

	// 2) Event 敘事
	out.EventStat.LongChain = eventCount(sts, func(s *StatReport) int { return s.Summary.LongChains })
	out.EventStat.CapHit = eventCount(sts, func(s *StatReport) int { return s.Summary.CapHits })
	out.EventStat.BigMult = eventCount(sts, bigMultHits)

	labels := Buckets.WinBucketStr()
	out.EventStat.Bucket = BucketEvent{BucketLable: labels, BucketCount: make([]EventCount, len(labels))}
	for bi := range labels {
		out.EventStat.Bucket.BucketCount[bi] = eventCount(sts, func(s *StatReport) int {
			if s.Dist == nil || bi >= len(s.Dist.TotalWinCollect) {
				return 0
			}
			return s.Dist.TotalWinCollect[bi]
		})
	}

	// 3) Session 敘事
	var bustK, cashK, aliveK int
	for _, s := range sts {
		if s.Player == nil {
			continue
		}
		if s.Player.Bust {
			bustK++
		}
		if s.Player.Cashout {
			cashK++
		}
		if s.Player.Alive {
			aliveK++
		}
	}
	out.SessionStat = SessionStat{
		Bust:    proportionStat(bustK, n),
		Cashout: proportionStat(cashK, n),
		Alive:   proportionStat(aliveK, n),
	}
	return out
}

// bigMultHits counts the clusters of s paid at BigMult or more.
func bigMultHits(s *StatReport) int {
	if s.Cascade == nil {
		return 0
	}
	k := 0
	for m, c := range s.Cascade.MultCollect {
		if m >= BigMult {
			k += c
		}
	}
	return k
}

// eventCount buckets players by how many times count reports the event.
func eventCount(sts []*StatReport, count func(*StatReport) int) EventCount {
	var k [4]int
	for _, s := range sts {
		k[min(count(s), 3)]++
	}
	n := len(sts)
	return EventCount{
		Zero: proportionStat(k[0], n),
		One:  proportionStat(k[1], n),
		Two:  proportionStat(k[2], n),
		More: proportionStat(k[3], n),
	}
}

func proportionStat(k, n int) PointStat {
	hat, ci := proportionCICP(k, n, 0.95)
	return PointStat{Hat: hat, CI: ci}
}

func quantileStat(data []float64, q float64) PointStat {
	lo, hi := quantileCI(data, q, 0.95)
	return PointStat{Hat: quantilePoint(data, q), CI: CI{Lo: lo, Hi: hi}}
}

func shareAtMost(data []float64, x0 float64) PointStat {
	hat, ci := percentileCIForValue(data, x0, 0.95)
	return PointStat{Hat: hat, CI: ci}
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 問題：給定樣本 data 與門檻 x0，估計 p = P(X ≤ x0) 的點估計與 CI 區間
// 回傳 (pHat, CI)
func percentileCIForValue(data []float64, x0 float64, confidence float64) (pHat float64, ci CI) {
	n := len(data)
	if n == 0 {
		return 0, CI{Lo: 0, Hi: 0}
	}
	// k = 數到 <= x0 的個數
	k := 0
	for _, v := range data {
		if v <= x0 {
			k++
		}
	}
	return proportionCICP(k, n, confidence)
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

// Out prints the estimate to stdout.
func (est *EstimatorPlayers) Out() { est.WriteText(os.Stdout) }

// WriteText writes the estimate as plain text tables.
func (est *EstimatorPlayers) WriteText(w io.Writer) {
	// 1) RTP (Player Experience)
	fmt.Fprintln(w, "=== RTP (Player Experience) ===")
	rtpKeys := []string{
		"Median RTP",
		"P10 RTP",
		"P33 RTP",
		"P67 RTP",
		"P90 RTP",
		"≤30% RTP (players)",
		"≤50% RTP (players)",
		"≤70% RTP (players)",
		"≤100% RTP (players)",
	}
	rtpMsg := map[string]string{
		"Median RTP":          fmtPoint(est.RtpStat.ExpMedian),
		"P10 RTP":             fmtPoint(est.RtpStat.ExpPerc.ExpP10),
		"P33 RTP":             fmtPoint(est.RtpStat.ExpPerc.ExpP33),
		"P67 RTP":             fmtPoint(est.RtpStat.ExpPerc.ExpP67),
		"P90 RTP":             fmtPoint(est.RtpStat.ExpPerc.ExpP90),
		"≤30% RTP (players)":  fmtPoint(est.RtpStat.RtpPerc.Rtp30),
		"≤50% RTP (players)":  fmtPoint(est.RtpStat.RtpPerc.Rtp50),
		"≤70% RTP (players)":  fmtPoint(est.RtpStat.RtpPerc.Rtp70),
		"≤100% RTP (players)": fmtPoint(est.RtpStat.RtpPerc.Rtp100),
	}
	printTable(w, "RTP (Player Experience)", rtpKeys, rtpMsg)

	// 2) Events per player
	fmt.Fprintln(w, "\n=== Events per player ===")
	eventKeys := []string{
		fmt.Sprintf("Spins with %d+ tumbles", LongChain),
		"Spins stopped by cap",
		fmt.Sprintf("Clusters at x%d+", BigMult),
	}
	eventMsg := map[string]string{
		eventKeys[0]: fmtEventCount(est.EventStat.LongChain),
		eventKeys[1]: fmtEventCount(est.EventStat.CapHit),
		eventKeys[2]: fmtEventCount(est.EventStat.BigMult),
	}
	printTable(w, "Events per player", eventKeys, eventMsg)

	// 3) Events: Buckets (per player hits in bucket)
	fmt.Fprintln(w, "\n=== Events: Buckets (per player hits in bucket) ===")
	for i, label := range est.EventStat.Bucket.BucketLable {
		ec := est.EventStat.Bucket.BucketCount[i]
		fmt.Fprintf(w, "%-20s : %s\n", label, fmtEventCount(ec))
	}

	// 4) Session Outcome
	fmt.Fprintln(w, "\n=== Session Outcome ===")
	sessionKeys := []string{"Bust", "Cashout", "Alive"}
	sessionMsg := map[string]string{
		"Bust":    fmtPoint(est.SessionStat.Bust),
		"Cashout": fmtPoint(est.SessionStat.Cashout),
		"Alive":   fmtPoint(est.SessionStat.Alive),
	}
	printTable(w, "Session Outcome", sessionKeys, sessionMsg)
}

func printTable(w io.Writer, title string, keys []string, msg map[string]string) {
	fmt.Fprintln(w, title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtPoint(p PointStat) string { return fmtHatCIpct01(p.Hat, p.CI) }

func fmtEventCount(ec EventCount) string {
	return fmt.Sprintf("0x: %s | 1x: %s | 2x: %s | 3+x: %s",
		fmtPoint(ec.Zero),
		fmtPoint(ec.One),
		fmtPoint(ec.Two),
		fmtPoint(ec.More),
	)
}
