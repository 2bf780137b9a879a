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

package errs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	inner := NewWarn("bet out of range")
	outer := Wrap(inner, "set bet")
	if outer.ErrLv != Warn {
		t.Fatalf("wrap should keep warn level, got %s", ErrLv(outer.ErrLv))
	}
	if !errors.Is(outer, inner) {
		t.Fatalf("errors.Is should reach the wrapped error")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	e := Wrap(io.ErrUnexpectedEOF, "read config")
	if e.ErrLv != Fatal {
		t.Fatalf("foreign cause should be fatal, got %s", ErrLv(e.ErrLv))
	}
	if !errors.Is(e, io.ErrUnexpectedEOF) {
		t.Fatalf("errors.Is should reach io.ErrUnexpectedEOF")
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		err  error
		want ErrLevel
	}{
		{nil, None},
		{NewLog("x"), Log},
		{fmt.Errorf("ctx: %w", NewWarn("x")), Warn},
		{errors.New("plain"), Fatal},
	}
	for i, c := range cases {
		if got := Level(c.err); got != c.want {
			t.Fatalf("case %d: want %s got %s", i, ErrLv(c.want), ErrLv(got))
		}
	}
}

func TestErrorText(t *testing.T) {
	e := WrapWithExtra(NewWarn("inner"), "outer", "gid=1")
	s := e.Error()
	for _, part := range []string{"errlv=warn", "outer", "extra: gid=1", "cause:"} {
		if !strings.Contains(s, part) {
			t.Fatalf("missing %q in %q", part, s)
		}
	}
	if _, ok := AsErr(fmt.Errorf("w: %w", e)); !ok {
		t.Fatalf("AsErr should find *E through fmt wrapping")
	}
}
