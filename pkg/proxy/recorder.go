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

// Package proxy implements the two stand-ins for a serial port: Recorder,
// which forwards to real hardware and logs every call, and Replayer, which
// serves calls from a previous recording without touching hardware.
//
// Each recorded read is replayed as one read of exactly the recorded bytes.
// A replayed Read whose buffer is smaller than the recorded payload fails
// with a MismatchError rather than splitting the event, so read loops must
// use the same buffer size when replaying as when recording. Short writes
// replay with the count the device originally accepted.
package proxy

import (
	"time"

	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"go.bug.st/serial"
)

// Recorder forwards every call to a real port and appends the outcome to a
// sequence. A call that returns an error is passed through unchanged and
// leaves nothing in the sequence.
type Recorder struct {
	port   transport.Port
	seq    *events.Sequence
	closed bool
	mu     syncutil.Mutex
}

var _ transport.Port = (*Recorder)(nil)

// NewRecorder records calls made on port into seq.
func NewRecorder(port transport.Port, seq *events.Sequence) *Recorder {
	return &Recorder{port: port, seq: seq}
}

// Attach replaces the underlying port, for tests that close and reopen the
// device. Recording continues into the same sequence.
func (r *Recorder) Attach(port transport.Port) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.port = port
	r.closed = false
}

// Sequence returns the sequence being recorded into.
func (r *Recorder) Sequence() *events.Sequence {
	return r.seq
}

// Closed reports whether Close has been called since the last Attach.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Write records the full payload offered by the caller along with the count
// the device accepted, so a short write replays as the same short write.
func (r *Recorder) Write(p []byte) (int, error) {
	port, err := r.live()
	if err != nil {
		return 0, err
	}
	n, err := port.Write(p)
	if err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return n, err
	}
	r.append(events.WriteN(p, n))
	return n, nil
}

// Read records exactly what the device returned, including short and
// empty reads on timeout.
func (r *Recorder) Read(p []byte) (int, error) {
	port, err := r.live()
	if err != nil {
		return 0, err
	}
	n, err := port.Read(p)
	if err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return n, err
	}
	r.append(events.Read(p[:n]))
	return n, nil
}

func (r *Recorder) InWaiting() (int, error) {
	port, err := r.live()
	if err != nil {
		return 0, err
	}
	n, err := port.InWaiting()
	if err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return n, err
	}
	r.append(events.Waiting(n))
	return n, nil
}

func (r *Recorder) ResetInputBuffer() error {
	port, err := r.live()
	if err != nil {
		return err
	}
	if err := port.ResetInputBuffer(); err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return err
	}
	r.append(events.Reset())
	return nil
}

func (r *Recorder) ResetOutputBuffer() error {
	port, err := r.live()
	if err != nil {
		return err
	}
	if err := port.ResetOutputBuffer(); err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return err
	}
	r.append(events.ResetOutput())
	return nil
}

// SetMode is forwarded but not recorded; line settings have no effect on
// replay.
func (r *Recorder) SetMode(mode *serial.Mode) error {
	port, err := r.live()
	if err != nil {
		return err
	}
	//nolint:wrapcheck // device errors must reach the caller unchanged
	return port.SetMode(mode)
}

// SetReadTimeout is forwarded but not recorded.
func (r *Recorder) SetReadTimeout(t time.Duration) error {
	port, err := r.live()
	if err != nil {
		return err
	}
	//nolint:wrapcheck // device errors must reach the caller unchanged
	return port.SetReadTimeout(t)
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if err := r.port.Close(); err != nil {
		//nolint:wrapcheck // device errors must reach the caller unchanged
		return err
	}
	r.closed = true
	return nil
}

func (r *Recorder) live() (transport.Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, transport.ErrPortNotOpen
	}
	return r.port, nil
}

func (r *Recorder) append(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq.Append(e)
}
