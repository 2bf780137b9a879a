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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/sdk/cascade"
)

func entry(i int) cascade.BetEntry {
	return cascade.BetEntry{
		ID:      fmt.Sprintf("bet-%d", i),
		Bet:     decimal.RequireFromString("1.5"),
		Result:  decimal.RequireFromString(fmt.Sprintf("%d.25", i)),
		Tumbles: i % 3,
		Bursts: []cascade.BurstEntry{
			{ID: fmt.Sprintf("burst-%d", i), Round: 1, Symbol: 2, Count: 5, Mult: 4, Win: decimal.RequireFromString("0.75")},
		},
		CapReached: i == 2,
		At:         time.UnixMilli(1_700_000_000_000 + int64(i)).UTC(),
	}
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := st.Append(ctx, Record{SessionID: "s1", GameID: 1001, Entry: entry(i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := st.Append(ctx, Record{SessionID: "s2", GameID: 1002, Entry: entry(9)}); err != nil {
		t.Fatalf("append s2: %v", err)
	}

	got, err := st.List(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len %d", len(got))
	}
	want := entry(4)
	e := got[0].Entry
	if e.ID != want.ID || !e.Result.Equal(want.Result) || !e.Bet.Equal(want.Bet) || !e.At.Equal(want.At) {
		t.Fatalf("newest entry %+v", e)
	}
	if len(e.Bursts) != 1 || e.Bursts[0].Mult != 4 || !e.Bursts[0].Win.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("bursts %+v", e.Bursts)
	}
	if got[0].GameID != 1001 || got[2].Entry.ID != "bet-2" || !got[2].Entry.CapReached {
		t.Fatalf("order or fields wrong: %+v", got)
	}

	other, err := st.List(ctx, "s2", 0)
	if err != nil || len(other) != 1 || other[0].GameID != 1002 {
		t.Fatalf("s2 list %+v err=%v", other, err)
	}
	if _, err := st.List(ctx, "", 1); err != ErrNoSession {
		t.Fatalf("empty session: %v", err)
	}
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, NewMemStore(0))
}

func TestMemStoreKeepsNewest(t *testing.T) {
	st := NewMemStore(2)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_ = st.Append(ctx, Record{SessionID: "s", Entry: entry(i)})
	}
	got, _ := st.List(ctx, "s", 10)
	if len(got) != 2 || got[0].Entry.ID != "bet-3" || got[1].Entry.ID != "bet-2" {
		t.Fatalf("got %+v", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)

	if err := st.Append(context.Background(), Record{SessionID: "s1", Entry: entry(0)}); err == nil {
		t.Fatalf("duplicate bet id accepted")
	}
}

func TestSQLiteMemory(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	exerciseStore(t, st)
}
