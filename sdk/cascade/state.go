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

import "fmt"

// State is where the engine is inside a spin.
//
//	Idle -> Dropping -> Evaluating -> (Resolving -> Collapsing -> Evaluating)* -> Idle
type State int32

const (
	Idle State = iota
	Dropping
	Evaluating
	Resolving
	Collapsing
)

var stateNames = [...]string{"idle", "dropping", "evaluating", "resolving", "collapsing"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Reject explains why a spin request did not run.
type Reject uint8

const (
	Accepted Reject = iota
	RejectInsufficientBalance
	RejectBusy
	RejectInvalidBet
)

var rejectNames = [...]string{"", "insufficient_balance", "busy", "invalid_bet"}

func (r Reject) String() string {
	if int(r) < len(rejectNames) {
		return rejectNames[r]
	}
	return fmt.Sprintf("reject(%d)", r)
}

func (r Reject) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
