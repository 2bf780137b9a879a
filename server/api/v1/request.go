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

package v1

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/spec"
)

const maxBody = 1 << 20

// decodeJSON reads a JSON body into v. An empty body leaves v unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return errs.NewWarn("invalid json: " + err.Error())
	}
	return nil
}

// query reads typed values from a URL query and keeps the first error.
type query struct {
	v   url.Values
	err error
}

func newQuery(r *http.Request) *query { return &query{v: r.URL.Query()} }

func (q *query) fail(msg string) {
	if q.err == nil {
		q.err = errs.NewWarn(msg)
	}
}

func (q *query) gid(key string) spec.GID {
	s := q.v.Get(key)
	if s == "" {
		q.fail(key + " is required")
		return 0
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		q.fail(key + " must be non-negative integer")
	}
	return spec.GID(u)
}

func (q *query) int(key string, def int) int {
	s := q.v.Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.fail(key + " must be integer")
	}
	return n
}

func (q *query) dec(key string) decimal.Decimal {
	s := q.v.Get(key)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		q.fail(key + " must be decimal")
	}
	return d
}

func (q *query) seed(key string) *int64 {
	s := q.v.Get(key)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		q.fail(key + " must be int64")
		return nil
	}
	return &n
}

func (q *query) bool(key string) bool {
	b, _ := strconv.ParseBool(q.v.Get(key))
	return b
}

func seedOrRandom(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return rnd.Int64(), nil
}

// betOrDefault treats a zero bet as "use the game default".
func betOrDefault(bet decimal.Decimal, gs *spec.GameSetting) decimal.Decimal {
	if bet.IsZero() {
		return gs.Bet.DefaultDec
	}
	return bet
}
