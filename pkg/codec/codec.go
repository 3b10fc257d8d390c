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

// Package codec converts event sequences to and from the JSON Lines log
// format. Each line holds one test's recording:
//
//	{"TestName":[{"type":"write","data":"AT\r"},{"type":"read","data":"AQ==","encoding":"base64"}]}
//
// Payloads that are valid UTF-8 are stored as plain JSON strings so logs of
// text protocols stay readable; anything else is stored as base64. A write
// the device only partly accepted also carries "written", the accepted count.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ZaparooProject/reserial/pkg/events"
)

const (
	EncodingText   = "utf-8"
	EncodingBase64 = "base64"
)

type wireEvent struct {
	Type     events.Kind     `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Encoding string          `json:"encoding,omitempty"`
	// Written is only set for short writes.
	Written *int `json:"written,omitempty"`
}

// EncodeEvents encodes evs as a JSON array of tagged event objects.
func EncodeEvents(evs []events.Event) ([]byte, error) {
	wire := make([]wireEvent, 0, len(evs))
	for i, e := range evs {
		w, err := toWire(e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		wire = append(wire, w)
	}
	return marshal(wire)
}

// DecodeEvents parses a JSON array produced by EncodeEvents.
func DecodeEvents(data []byte) ([]events.Event, error) {
	var wire []wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	if wire == nil {
		return nil, errors.New("events must be a JSON array")
	}

	evs := make([]events.Event, 0, len(wire))
	for i, w := range wire {
		e, err := fromWire(w)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		evs = append(evs, e)
	}
	return evs, nil
}

// EncodeLine encodes one test's recording as a newline-terminated log line.
func EncodeLine(name string, evs []events.Event) ([]byte, error) {
	if name == "" {
		return nil, errors.New("test name is empty")
	}
	key, err := marshal(name)
	if err != nil {
		return nil, err
	}
	arr, err := EncodeEvents(evs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recording for %s: %w", name, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(key) + len(arr) + 4)
	buf.WriteByte('{')
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(arr)
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// DecodeLine parses a single log line into its test name and events.
func DecodeLine(line []byte) (string, []events.Event, error) {
	name, raw, err := splitLine(line)
	if err != nil {
		return "", nil, err
	}
	evs, err := DecodeEvents(raw)
	if err != nil {
		return "", nil, fmt.Errorf("recording for %s: %w", name, err)
	}
	return name, evs, nil
}

// splitLine extracts the key of a line without decoding its events, so the
// store can copy unrelated lines through unchanged.
func splitLine(line []byte) (string, json.RawMessage, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal log line: %w", err)
	}
	if len(rec) != 1 {
		return "", nil, fmt.Errorf("log line must hold exactly one recording, found %d", len(rec))
	}
	for name, raw := range rec {
		return name, raw, nil
	}
	return "", nil, errors.New("unreachable")
}

func toWire(e events.Event) (wireEvent, error) {
	w := wireEvent{Type: e.Kind()}
	var err error

	switch e.Kind() {
	case events.KindWrite, events.KindRead:
		data := e.Data()
		if utf8.Valid(data) {
			w.Data, err = marshal(string(data))
		} else {
			w.Data, err = marshal(base64.StdEncoding.EncodeToString(data))
			w.Encoding = EncodingBase64
		}
		if e.Kind() == events.KindWrite && e.Result() != len(data) {
			n := e.Result()
			w.Written = &n
		}
	case events.KindWaiting:
		w.Data, err = marshal(e.Result())
	case events.KindReset, events.KindResetOutput:
	default:
		return w, fmt.Errorf("unknown event type %q", e.Kind())
	}

	return w, err
}

func fromWire(w wireEvent) (events.Event, error) {
	switch w.Type {
	case events.KindWrite, events.KindRead:
		data, err := decodePayload(w)
		if err != nil {
			return events.Event{}, err
		}
		if w.Type == events.KindRead {
			return events.Read(data), nil
		}
		if w.Written == nil {
			return events.Write(data), nil
		}
		if *w.Written < 0 || *w.Written > len(data) {
			return events.Event{}, fmt.Errorf("write event written count %d out of range 0..%d",
				*w.Written, len(data))
		}
		return events.WriteN(data, *w.Written), nil
	case events.KindWaiting:
		if len(w.Data) == 0 {
			return events.Event{}, errors.New("waiting event has no data")
		}
		var n int
		if err := json.Unmarshal(w.Data, &n); err != nil {
			return events.Event{}, fmt.Errorf("waiting event data must be an integer: %w", err)
		}
		return events.Waiting(n), nil
	case events.KindReset:
		return events.Reset(), nil
	case events.KindResetOutput:
		return events.ResetOutput(), nil
	default:
		return events.Event{}, fmt.Errorf("unknown event type %q", w.Type)
	}
}

func decodePayload(w wireEvent) ([]byte, error) {
	if len(w.Data) == 0 {
		return nil, fmt.Errorf("%s event has no data", w.Type)
	}
	var s string
	if err := json.Unmarshal(w.Data, &s); err != nil {
		return nil, fmt.Errorf("%s event data must be a string: %w", w.Type, err)
	}

	switch w.Encoding {
	case "", EncodingText:
		return []byte(s), nil
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", w.Encoding)
	}
}

// marshal is json.Marshal without HTML escaping and without the trailing
// newline json.Encoder adds.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
