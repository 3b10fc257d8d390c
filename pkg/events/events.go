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

// Package events models the serial operations captured during a test.
package events

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies the transport operation an Event describes. The string
// value is also the "type" tag used in log files.
type Kind string

const (
	KindWrite       Kind = "write"
	KindRead        Kind = "read"
	KindWaiting     Kind = "waiting"
	KindReset       Kind = "reset"
	KindResetOutput Kind = "reset_output"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindWrite, KindRead, KindWaiting, KindReset, KindResetOutput:
		return true
	default:
		return false
	}
}

// HasPayload reports whether events of this kind carry bytes.
func (k Kind) HasPayload() bool {
	return k == KindWrite || k == KindRead
}

// Event is one intercepted transport operation and its outcome. Build events
// with the constructors; the payload is copied in and out so an Event never
// changes after creation.
type Event struct {
	kind   Kind
	data   []byte
	result int
}

// Write returns an event for bytes fully written to the port.
func Write(p []byte) Event {
	return WriteN(p, len(p))
}

// WriteN returns an event for a write of p that the port accepted only n
// bytes of.
func WriteN(p []byte, n int) Event {
	return Event{kind: KindWrite, data: clone(p), result: n}
}

// Read returns an event for bytes received from the port.
func Read(p []byte) Event {
	return Event{kind: KindRead, data: clone(p)}
}

// Waiting returns an event for a buffered-byte count query.
func Waiting(n int) Event {
	return Event{kind: KindWaiting, result: n}
}

// Reset returns an event for an input buffer reset.
func Reset() Event {
	return Event{kind: KindReset}
}

// ResetOutput returns an event for an output buffer reset.
func ResetOutput() Event {
	return Event{kind: KindResetOutput}
}

func (e Event) Kind() Kind {
	return e.kind
}

// Data returns a copy of the payload. It is nil for kinds without one.
func (e Event) Data() []byte {
	if !e.kind.HasPayload() {
		return nil
	}
	return clone(e.data)
}

// Len is the payload length, avoiding a copy.
func (e Event) Len() int {
	return len(e.data)
}

// PayloadEqual reports whether the payload is byte-for-byte equal to p.
func (e Event) PayloadEqual(p []byte) bool {
	return bytes.Equal(e.data, p)
}

// Result is the count returned by the call: bytes accepted for a write,
// bytes buffered for waiting.
func (e Event) Result() int {
	return e.result
}

// Equal reports whether two events describe the same operation and outcome.
func (e Event) Equal(o Event) bool {
	return e.kind == o.kind && e.result == o.result && bytes.Equal(e.data, o.data)
}

func (e Event) String() string {
	switch {
	case e.kind == KindWrite && e.result != len(e.data):
		return fmt.Sprintf("%s(%s, n=%d)", e.kind, FormatPayload(e.data), e.result)
	case e.kind.HasPayload():
		return fmt.Sprintf("%s(%s)", e.kind, FormatPayload(e.data))
	case e.kind == KindWaiting:
		return fmt.Sprintf("%s(%d)", e.kind, e.result)
	default:
		return string(e.kind)
	}
}

// FormatPayload renders bytes for diagnostics: quoted when printable,
// hex otherwise.
func FormatPayload(p []byte) string {
	if p == nil {
		return "<nil>"
	}
	for _, b := range p {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("% x", p)
		}
	}
	return strconv.Quote(string(p))
}

func clone(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
