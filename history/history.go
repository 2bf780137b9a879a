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

// Package history keeps settled bets per session for the host. The engine
// never writes here; the server appends each BetEntry after a spin.
package history

import (
	"context"
	"sync"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/spec"
)

// DefaultListLimit caps List when the caller passes limit <= 0.
const DefaultListLimit = 100

var ErrNoSession = errs.NewWarn("history: session id required")

// Record is one stored bet.
type Record struct {
	SessionID string           `json:"session_id"`
	GameID    spec.GID         `json:"game_id"`
	Entry     cascade.BetEntry `json:"entry"`
}

// Store persists bet entries. List returns newest first.
type Store interface {
	Append(ctx context.Context, r Record) error
	List(ctx context.Context, sessionID string, limit int) ([]Record, error)
	Close() error
}

// MemStore is an in-process Store keeping at most PerSession records for
// each session.
type MemStore struct {
	mu         sync.RWMutex
	data       map[string][]Record
	perSession int
}

// NewMemStore returns a MemStore. perSession <= 0 keeps everything.
func NewMemStore(perSession int) *MemStore {
	return &MemStore{data: make(map[string][]Record), perSession: perSession}
}

func (m *MemStore) Append(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := append(m.data[r.SessionID], r)
	if m.perSession > 0 && len(rs) > m.perSession {
		rs = append(rs[:0], rs[len(rs)-m.perSession:]...)
	}
	m.data[r.SessionID] = rs
	return nil
}

func (m *MemStore) List(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs := m.data[sessionID]
	n := min(limit, len(rs))
	out := make([]Record, 0, n)
	for i := len(rs) - 1; i >= len(rs)-n; i-- {
		out = append(out, rs[i])
	}
	return out, nil
}

func (m *MemStore) Close() error { return nil }
