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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestAsyncHandlerDrainsOnClose(t *testing.T) {
	buf := &lockedBuf{}
	ah := NewAsyncHandler(slog.NewTextHandler(buf, nil), 64)
	log := slog.New(ah).With("game", "fruit_blast_10x8")
	for i := 0; i < 10; i++ {
		log.Info("spin settled", "i", i)
	}
	ah.Close()
	out := buf.String()
	if strings.Count(out, "spin settled") != 10 || !strings.Contains(out, "game=fruit_blast_10x8") {
		t.Fatalf("output %q", out)
	}
	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("dropped %d", ah.Dropped())
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"": ModeDev, "DEV": ModeDev, "prod": ModeProd, "silence": ModeSilence} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %d err=%v", in, got, err)
		}
	}
	if _, err := ParseMode("loud"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}
