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

import (
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
)

// BetSetting bounds the stake and seeds a new session.
type BetSetting struct {
	Min            float64 `yaml:"min"             json:"min"`
	Max            float64 `yaml:"max"             json:"max"`
	Default        float64 `yaml:"default"         json:"default"`
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`

	MinDec     decimal.Decimal `yaml:"-" json:"-"`
	MaxDec     decimal.Decimal `yaml:"-" json:"-"`
	DefaultDec decimal.Decimal `yaml:"-" json:"-"`
	BalanceDec decimal.Decimal `yaml:"-" json:"-"`
	initFlag   bool
}

const (
	DefaultMinBet         = 1
	DefaultMaxBet         = 1_000_000_000
	DefaultInitialBalance = 100
)

func (bs *BetSetting) Init() error {
	if bs.initFlag {
		return nil
	}
	if bs.Min == 0 {
		bs.Min = DefaultMinBet
	}
	if bs.Max == 0 {
		bs.Max = DefaultMaxBet
	}
	if bs.Default == 0 {
		bs.Default = bs.Min
	}
	if bs.InitialBalance == 0 {
		bs.InitialBalance = DefaultInitialBalance
	}
	if !(bs.Min > 0) || bs.Max < bs.Min {
		return errs.Fatalf("bet: invalid range [%v,%v]", bs.Min, bs.Max)
	}
	if bs.Default < bs.Min || bs.Default > bs.Max {
		return errs.Fatalf("bet: default %v outside [%v,%v]", bs.Default, bs.Min, bs.Max)
	}
	if bs.InitialBalance < 0 {
		return errs.Fatalf("bet: negative initial_balance %v", bs.InitialBalance)
	}
	bs.MinDec = decimal.NewFromFloat(bs.Min)
	bs.MaxDec = decimal.NewFromFloat(bs.Max)
	bs.DefaultDec = decimal.NewFromFloat(bs.Default)
	bs.BalanceDec = decimal.NewFromFloat(bs.InitialBalance)
	bs.initFlag = true
	return nil
}

// Clamp returns bet limited to [Min, Max].
func (bs *BetSetting) Clamp(bet decimal.Decimal) decimal.Decimal {
	if bet.LessThan(bs.MinDec) {
		return bs.MinDec
	}
	if bet.GreaterThan(bs.MaxDec) {
		return bs.MaxDec
	}
	return bet
}
