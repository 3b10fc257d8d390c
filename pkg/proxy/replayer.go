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
	"fmt"
	"time"

	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"go.bug.st/serial"
)

// Replayer serves calls from a recorded sequence. Every call must match the
// next recorded event: writes are compared byte-for-byte, reads return the
// recorded bytes no matter how many were requested, and nothing is ever
// skipped or retried. Replayed calls never block.
type Replayer struct {
	seq    *events.Sequence
	failed error
	closed bool
	mu     syncutil.Mutex
}

var _ transport.Port = (*Replayer)(nil)

// NewReplayer returns an open replayer positioned at the start of seq.
func NewReplayer(seq *events.Sequence) *Replayer {
	return &Replayer{seq: seq}
}

// Reopen marks the replayer open again after Close. The cursor is kept, so
// a test that reopens the device continues where it left off.
func (r *Replayer) Reopen() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = false
}

// Err returns the first mismatch or exhaustion error, if any. Callers may
// swallow errors returned by port methods; this lets the owner still fail
// the test.
func (r *Replayer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Finish returns an IncompleteReplayError if recorded events remain.
func (r *Replayer) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq.Remaining() == 0 {
		return nil
	}
	next, _ := r.seq.Peek()
	return &IncompleteReplayError{
		Next:     next,
		Consumed: r.seq.Consumed(),
		Total:    r.seq.Len(),
	}
}

// Consumed and Total report replay progress.
func (r *Replayer) Consumed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq.Consumed()
}

func (r *Replayer) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq.Len()
}

func (r *Replayer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.next(events.KindWrite, p)
	if err != nil {
		return 0, err
	}
	if !e.PayloadEqual(p) {
		return 0, r.fail(&MismatchError{
			Index:      r.seq.Consumed() - 1,
			Expected:   e,
			ActualKind: events.KindWrite,
			ActualData: clone(p),
		})
	}
	return e.Result(), nil
}

// Read copies the next recorded read into p. A recorded read larger than p
// cannot be delivered without splitting the event, so it is a mismatch.
func (r *Replayer) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.next(events.KindRead, nil)
	if err != nil {
		return 0, err
	}
	if e.Len() > len(p) {
		return 0, r.fail(&MismatchError{
			Index:      r.seq.Consumed() - 1,
			Expected:   e,
			ActualKind: events.KindRead,
			Reason: fmt.Sprintf("read buffer of %d bytes cannot hold the %d recorded bytes %s",
				len(p), e.Len(), events.FormatPayload(e.Data())),
		})
	}
	return copy(p, e.Data()), nil
}

func (r *Replayer) InWaiting() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.next(events.KindWaiting, nil)
	if err != nil {
		return 0, err
	}
	return e.Result(), nil
}

func (r *Replayer) ResetInputBuffer() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.next(events.KindReset, nil)
	return err
}

func (r *Replayer) ResetOutputBuffer() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.next(events.KindResetOutput, nil)
	return err
}

// SetMode accepts any settings; there is no device to configure.
func (r *Replayer) SetMode(_ *serial.Mode) error {
	return r.openErr()
}

// SetReadTimeout is accepted and ignored: replayed reads return at once.
func (r *Replayer) SetReadTimeout(_ time.Duration) error {
	return r.openErr()
}

func (r *Replayer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Replayer) openErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return transport.ErrPortNotOpen
	}
	return nil
}

// next consumes the next event and checks it is of kind want. Closed ports
// fail before consuming anything, the same as a real device would.
func (r *Replayer) next(want events.Kind, data []byte) (events.Event, error) {
	if r.closed {
		return events.Event{}, transport.ErrPortNotOpen
	}

	e, idx, ok := r.seq.Next()
	if !ok {
		return events.Event{}, r.fail(&ExhaustionError{Index: idx, Kind: want, Data: clone(data)})
	}
	if e.Kind() != want {
		return events.Event{}, r.fail(&MismatchError{
			Index:      idx,
			Expected:   e,
			ActualKind: want,
			ActualData: clone(data),
		})
	}
	return e, nil
}

func (r *Replayer) fail(err error) error {
	if r.failed == nil {
		r.failed = err
	}
	return err
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
