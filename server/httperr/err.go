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

// Package httperr maps leveled errors to HTTP responses.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/tumblelab/errs"
)

// Wrap these to pick a status other than the level default.
var (
	ErrNotFound = errs.NewWarn("not found")
	ErrConflict = errs.NewWarn("conflict")
)

// StatusCode maps err to a status:
//   - ctx deadline/cancel: 504/408
//   - ErrNotFound/ErrConflict: 404/409
//   - errs.Warn: 400
//   - errs.Fatal and foreign errors: 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	if errs.Level(err) == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type body struct {
	Error string `json:"error"`
	Level string `json:"level,omitempty"`
}

// Errs writes err as a JSON body with its mapped status.
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	b := body{Error: err.Error(), Level: errs.ErrLv(errs.Level(err))}
	// Internal details stay in the log.
	if StatusCode(err) >= 500 {
		b.Error = http.StatusText(http.StatusInternalServerError)
	}
	JSON(w, StatusCode(err), b)
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Log records err at a level fitting its status; client errors below 408
// are not logged.
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	switch status := StatusCode(err); {
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	case status == 408 || status == 409 || status == 429:
		log.Warn(msg, slog.Any("err", err))
	}
}
