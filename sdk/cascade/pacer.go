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

package cascade

import (
	"context"
	"time"

	"github.com/zintix-labs/tumblelab/spec"
)

// Pause names a suspension point of a spin.
type Pause uint8

const (
	PauseDrop     Pause = iota // after the starting board is shown
	PausePop                   // after clustered cells are flagged popping
	PauseCollapse              // after collapse and refill
)

func (p Pause) String() string {
	switch p {
	case PauseDrop:
		return "drop"
	case PausePop:
		return "pop"
	case PauseCollapse:
		return "collapse"
	}
	return "pause"
}

// Pacer is called at every suspension point. The next board is already
// computed when Wait is called; Wait only decides how long the spin holds
// it. A cancelled ctx must make Wait return promptly; the spin then runs to
// completion without further delay.
type Pacer interface {
	Wait(ctx context.Context, p Pause)
}

// NoPacer never waits. Simulation and tests use it.
type NoPacer struct{}

func (NoPacer) Wait(context.Context, Pause) {}

// TimedPacer sleeps the configured delay scaled by speed.
type TimedPacer struct {
	Setting *spec.PacingSetting
	Speed   spec.Speed
}

func (tp TimedPacer) Wait(ctx context.Context, p Pause) {
	d := tp.delay(p)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (tp TimedPacer) delay(p Pause) time.Duration {
	switch p {
	case PauseDrop:
		return tp.Setting.Drop(tp.Speed)
	case PausePop:
		return tp.Setting.Pop(tp.Speed)
	case PauseCollapse:
		return tp.Setting.Collapse(tp.Speed)
	}
	return 0
}

// StepPacer hands every suspension point to a host goroutine and blocks
// until the host calls Resume. It lets a renderer drive the spin at its
// own pace, and lets tests hold a spin mid-flight.
type StepPacer struct {
	c   chan Pause
	ack chan struct{}
}

func NewStepPacer() *StepPacer {
	return &StepPacer{c: make(chan Pause), ack: make(chan struct{})}
}

// Pauses delivers suspension points as the spin reaches them.
func (sp *StepPacer) Pauses() <-chan Pause { return sp.c }

// Resume releases the spin from its current suspension point.
func (sp *StepPacer) Resume() { sp.ack <- struct{}{} }

func (sp *StepPacer) Wait(ctx context.Context, p Pause) {
	select {
	case sp.c <- p:
	case <-ctx.Done():
		return
	}
	select {
	case <-sp.ack:
	case <-ctx.Done():
	}
}
