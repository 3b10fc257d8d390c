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

package events

// Sequence is the ordered list of events owned by one test. Recording
// appends to it; replay walks it with a single cursor so every event is
// consumed exactly once, in order. It performs no locking of its own.
type Sequence struct {
	events []Event
	cursor int
}

// NewSequence returns a sequence holding evs, with the cursor at the start.
func NewSequence(evs ...Event) *Sequence {
	s := &Sequence{events: make([]Event, len(evs))}
	copy(s.events, evs)
	return s
}

// Append adds e after the last event.
func (s *Sequence) Append(e Event) {
	s.events = append(s.events, e)
}

// Peek returns the event under the cursor without consuming it.
func (s *Sequence) Peek() (Event, bool) {
	if s.cursor >= len(s.events) {
		return Event{}, false
	}
	return s.events[s.cursor], true
}

// Next consumes the event under the cursor and returns it with its index.
// The cursor does not move once the sequence is exhausted.
func (s *Sequence) Next() (Event, int, bool) {
	if s.cursor >= len(s.events) {
		return Event{}, s.cursor, false
	}
	i := s.cursor
	s.cursor++
	return s.events[i], i, true
}

// Len is the total number of events.
func (s *Sequence) Len() int {
	return len(s.events)
}

// Consumed is the number of events the cursor has passed.
func (s *Sequence) Consumed() int {
	return s.cursor
}

// Remaining is the number of events not yet consumed.
func (s *Sequence) Remaining() int {
	return len(s.events) - s.cursor
}

// Events returns a copy of every event, consumed or not.
func (s *Sequence) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
