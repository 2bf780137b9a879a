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

// Package errs defines the leveled error used across tumblelab.
//
// Every error carries an ErrLevel so that the outermost caller (CLI, HTTP
// handler) can decide how loud to be without inspecting message text:
//   - Fatal: configuration or programming error, stop what you are doing.
//   - Warn:  the request was bad, reply and keep serving.
//   - Log:   informational, worth a line in the log and nothing more.
//
// Expected game outcomes (insufficient balance, a spin already running) are
// not errors at all; they are reported on the spin result.
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel 錯誤分級
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

// ErrLv returns the printable name of a level.
func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// E is the unified error type.
//
// Message is the main text, Extra is optional caller context, Cause is the
// wrapped lower error.
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", ErrLv(e.ErrLv), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap lets errors.Is / errors.As walk into Cause.
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra is New plus a context string that does not alter Message.
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap builds an *E around cause.
//
// Level rules:
//   - cause is already an *E: its level is kept.
//   - any other error (stdlib, driver, decoder): the result is Fatal.
//
// If the situation is expected and recoverable, build an *E with the right
// level directly instead of wrapping.
func Wrap(cause error, msg string) *E {
	r := New(levelOf(cause, Fatal), msg)
	r.Cause = cause
	return r
}

// WrapWithExtra is Wrap plus a context string.
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := NewWithExtra(levelOf(cause, Fatal), msg, extra)
	r.Cause = cause
	return r
}

// AsErr reports whether err (or anything it wraps) is an *E.
func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// Level returns the level of err; foreign errors count as Fatal and nil as None.
func Level(err error) ErrLevel {
	if err == nil {
		return None
	}
	return levelOf(err, Fatal)
}

func levelOf(err error, fallback ErrLevel) ErrLevel {
	var e *E
	if errors.As(err, &e) {
		return e.ErrLv
	}
	return fallback
}
