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

package proxy

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/reserial/pkg/events"
)

var (
	// ErrMismatch matches every replay failure caused by a call that does
	// not line up with the recording, including calls past its end.
	ErrMismatch = errors.New("replay mismatch")
	// ErrExhausted matches calls made after every recorded event was used.
	ErrExhausted = errors.New("recording exhausted")
	// ErrIncomplete matches a replay that ended with events left over.
	ErrIncomplete = errors.New("replay incomplete")
)

// MismatchError reports a call whose kind or payload differs from the next
// recorded event.
type MismatchError struct {
	Expected   events.Event
	ActualKind events.Kind
	// Reason replaces the payload comparison in the message when the call
	// failed for another reason, such as a read buffer too small.
	Reason     string
	ActualData []byte
	Index      int
}

func (e *MismatchError) Error() string {
	switch {
	case e.Expected.Kind() != e.ActualKind:
		return fmt.Sprintf("event %d: recorded %s, but test called %s",
			e.Index, e.Expected, e.ActualKind)
	case e.Reason != "":
		return fmt.Sprintf("event %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("event %d: %s data does not match recording: got %s, recorded %s",
			e.Index, e.ActualKind, events.FormatPayload(e.ActualData), events.FormatPayload(e.Expected.Data()))
	}
}

func (*MismatchError) Unwrap() error {
	return ErrMismatch
}

// ExhaustionError reports a call made after the whole recording was replayed.
type ExhaustionError struct {
	Kind  events.Kind
	Data  []byte
	Index int
}

func (e *ExhaustionError) Error() string {
	msg := fmt.Sprintf("event %d: test called %s", e.Index, e.Kind)
	if e.Kind.HasPayload() && e.Data != nil {
		msg += " " + events.FormatPayload(e.Data)
	}
	return msg + ", but the recording has no more events"
}

func (*ExhaustionError) Unwrap() []error {
	return []error{ErrExhausted, ErrMismatch}
}

// IncompleteReplayError reports recorded events the test never triggered.
type IncompleteReplayError struct {
	Next     events.Event
	Consumed int
	Total    int
}

func (e *IncompleteReplayError) Error() string {
	return fmt.Sprintf("some recorded events were not replayed: consumed %d of %d, next was %s",
		e.Consumed, e.Total, e.Next)
}

func (*IncompleteReplayError) Unwrap() error {
	return ErrIncomplete
}
