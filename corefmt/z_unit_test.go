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

package corefmt

import (
	"bytes"
	"testing"

	"github.com/zintix-labs/tumblelab/errs"
	"github.com/zintix-labs/tumblelab/sdk/core"
)

func TestSnapshotRoundTrip(t *testing.T) {
	c := core.NewCore(7)
	c.Uint64()
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	txt := EncodeBase64URL(snap)
	if bytes.ContainsAny([]byte(txt), "+/=") {
		t.Fatalf("not url safe: %q", txt)
	}
	back, err := DecodeBase64URL(txt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(back, snap) {
		t.Fatalf("round trip mismatch")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeBase64URL("not*base64")
	if errs.Level(err) != errs.Warn {
		t.Fatalf("want warn, got %v", err)
	}
}
