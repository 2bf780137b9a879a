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

import "context"

// EventKind tags an Event.
type EventKind string

const (
	EventFrame  EventKind = "frame"
	EventBurst  EventKind = "burst"
	EventSettle EventKind = "settle"
	EventResult EventKind = "result"
)

// Event is one item of a streamed spin. Exactly one pointer is set,
// matching Kind.
type Event struct {
	Kind   EventKind   `json:"kind"`
	Frame  *Frame      `json:"frame,omitempty"`
	Burst  *BurstEntry `json:"burst,omitempty"`
	Bet    *BetEntry   `json:"bet,omitempty"`
	Result *SpinResult `json:"result,omitempty"`
}

// Stream runs one spin on its own goroutine and delivers its output on the
// returned channel, ending with an EventResult. The channel is closed after
// the result. A slow reader holds the spin back at the next send.
//
// If ctx is cancelled the remaining events are dropped, but the spin still
// runs to completion so the session is never left half settled.
func Stream(ctx context.Context, e *Engine, s *Session, buf int) <-chan Event {
	ch := make(chan Event, buf)
	send := func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	go func() {
		defer close(ch)
		obs := Hooks{
			Frame:  func(f Frame) { send(Event{Kind: EventFrame, Frame: &f}) },
			Burst:  func(b BurstEntry) { send(Event{Kind: EventBurst, Burst: &b}) },
			Settle: func(b BetEntry) { send(Event{Kind: EventSettle, Bet: &b}) },
		}
		res := e.RequestSpin(ctx, s, obs)
		send(Event{Kind: EventResult, Result: &res})
	}()
	return ch
}
