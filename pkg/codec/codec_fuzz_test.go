// Zaparoo Reserial
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Reserial.
//
// Zaparoo Reserial is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Reserial is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Reserial.  If not, see <http://www.gnu.org/licenses/>.

package codec

import (
	"testing"
)

// FuzzDecodeLine checks that arbitrary input never panics and that anything
// accepted re-encodes to a line that decodes to the same events.
func FuzzDecodeLine(f *testing.F) {
	f.Add([]byte(`{"TestScenario":[{"type":"write","data":"\u0001"},{"type":"read","data":"\u0002"}]}`))
	f.Add([]byte(`{"T":[{"type":"read","data":"/wA=","encoding":"base64"},{"type":"waiting","data":3}]}`))
	f.Add([]byte(`{"T":[{"type":"reset"},{"type":"reset_output"}]}`))
	f.Add([]byte(`{"T":[]}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[`))

	f.Fuzz(func(t *testing.T, line []byte) {
		name, evs, err := DecodeLine(line)
		if err != nil {
			return
		}
		if name == "" {
			return
		}

		again, err := EncodeLine(name, evs)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		name2, evs2, err := DecodeLine(again)
		if err != nil {
			t.Fatalf("decode of re-encoded line failed: %v", err)
		}
		if name2 != name || len(evs2) != len(evs) {
			t.Fatalf("re-encoded line differs: %q vs %q", line, again)
		}
		for i := range evs {
			if !evs[i].Equal(evs2[i]) {
				t.Fatalf("event %d differs after re-encode", i)
			}
		}
	})
}
