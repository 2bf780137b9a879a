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

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
	"github.com/zintix-labs/tumblelab/spec"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS bets (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	session_id  TEXT NOT NULL,
	game_id     INTEGER NOT NULL,
	bet         TEXT NOT NULL,
	result      TEXT NOT NULL,
	tumbles     INTEGER NOT NULL,
	cap_reached INTEGER NOT NULL,
	bursts_json TEXT NOT NULL,
	at_ms       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bets_session ON bets(session_id, seq);
`

// SQLiteStore persists bets in one SQLite table. Money is stored as decimal
// text so nothing is rounded through float.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.NewFatal("history: sqlite path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.Clean(path))
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(err, "history: open sqlite db")
	}
	// one writer; also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "history: ping sqlite db")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "history: create schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	if r.SessionID == "" {
		return ErrNoSession
	}
	bursts, err := json.Marshal(r.Entry.Bursts)
	if err != nil {
		return errs.Wrap(err, "history: encode bursts")
	}
	capReached := 0
	if r.Entry.CapReached {
		capReached = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bets (id, session_id, game_id, bet, result, tumbles, cap_reached, bursts_json, at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Entry.ID,
		r.SessionID,
		int64(r.GameID),
		r.Entry.Bet.String(),
		r.Entry.Result.String(),
		r.Entry.Tumbles,
		capReached,
		string(bursts),
		r.Entry.At.UnixMilli(),
	)
	if err != nil {
		return errs.Wrap(err, "history: insert bet")
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, bet, result, tumbles, cap_reached, bursts_json, at_ms
		 FROM bets WHERE session_id = ? ORDER BY seq DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, errs.Wrap(err, "history: list bets")
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec         = Record{SessionID: sessionID}
			gid         int64
			bet, result string
			capReached  int
			bursts      string
			atMs        int64
		)
		if err := rows.Scan(&rec.Entry.ID, &gid, &bet, &result, &rec.Entry.Tumbles, &capReached, &bursts, &atMs); err != nil {
			return nil, errs.Wrap(err, "history: scan bet")
		}
		rec.GameID = spec.GID(gid)
		if rec.Entry.Bet, err = decimal.NewFromString(bet); err != nil {
			return nil, errs.Wrap(err, "history: decode bet")
		}
		if rec.Entry.Result, err = decimal.NewFromString(result); err != nil {
			return nil, errs.Wrap(err, "history: decode result")
		}
		rec.Entry.CapReached = capReached != 0
		rec.Entry.Bursts = []cascade.BurstEntry{}
		if err := json.Unmarshal([]byte(bursts), &rec.Entry.Bursts); err != nil {
			return nil, errs.Wrap(err, "history: decode bursts")
		}
		rec.Entry.At = time.UnixMilli(atMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "history: iterate bets")
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
