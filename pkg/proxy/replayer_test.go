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
	"testing"
	"time"

	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestReplayer_Scenario(t *testing.T) {
	t.Parallel()

	recorded := []events.Event{events.Write([]byte{0x01}), events.Read([]byte{0x02})}

	t.Run("matching calls", func(t *testing.T) {
		t.Parallel()
		rep := NewReplayer(events.NewSequence(recorded...))

		n, err := rep.Write([]byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		buf := make([]byte, 1)
		n, err = rep.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02}, buf[:n])

		require.NoError(t, rep.Finish())
		require.NoError(t, rep.Err())
	})

	t.Run("wrong write", func(t *testing.T) {
		t.Parallel()
		rep := NewReplayer(events.NewSequence(recorded...))

		_, err := rep.Write([]byte{0x03})
		require.ErrorIs(t, err, ErrMismatch)

		var mm *MismatchError
		require.ErrorAs(t, err, &mm)
		assert.Equal(t, 0, mm.Index)
		assert.Equal(t, []byte{0x03}, mm.ActualData)
		assert.Equal(t, []byte{0x01}, mm.Expected.Data())
		assert.Equal(t, "event 0: write data does not match recording: got 03, recorded 01", err.Error())
		assert.Same(t, mm, rep.Err())
	})
}

func TestReplayer_WritePayloadMustMatchExactly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		written []byte
	}{
		{name: "prefix", written: []byte("AT")},
		{name: "longer", written: []byte("AT\r\n")},
		{name: "one byte differs", written: []byte("AT\n")},
		{name: "empty", written: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rep := NewReplayer(events.NewSequence(events.Write([]byte("AT\r"))))

			_, err := rep.Write(tt.written)
			require.ErrorIs(t, err, ErrMismatch)
			assert.NotErrorIs(t, err, ErrExhausted)
		})
	}
}

func TestReplayer_KindMismatch(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(
		events.Write([]byte("a")),
		events.Read([]byte("b")),
	))

	_, err := rep.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrMismatch)

	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, events.KindWrite, mm.Expected.Kind())
	assert.Equal(t, events.KindRead, mm.ActualKind)
	assert.Equal(t, "event 0: recorded write(\"a\"), but test called read", err.Error())
}

func TestReplayer_OrderSensitive(t *testing.T) {
	t.Parallel()

	recorded := events.NewSequence(
		events.Write([]byte("w1")),
		events.Read([]byte("r1")),
		events.Waiting(0),
		events.Write([]byte("w2")),
	)
	rep := NewReplayer(recorded)

	// swap the first write with the read two events later
	_, err := rep.Read(make([]byte, 8))
	require.ErrorIs(t, err, ErrMismatch)
	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, events.KindWrite, mm.Expected.Kind(), "matching is by position, never by content")
}

func TestReplayer_ReadReturnsRecordedBytesVerbatim(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(events.Read([]byte("ab")), events.Read([]byte{})))

	buf := make([]byte, 64)
	n, err := rep.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]), "recorded under-read is reproduced")

	n, err = rep.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "recorded timeout is reproduced")
}

func TestReplayer_ReadBufferTooSmall(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(events.Read([]byte("hello"))))

	_, err := rep.Read(make([]byte, 2))
	require.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, err.Error(), "read buffer of 2 bytes")
}

func TestReplayer_QueriesAndResets(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(
		events.Waiting(3),
		events.Reset(),
		events.ResetOutput(),
	))

	n, err := rep.InWaiting()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, rep.ResetInputBuffer())
	require.NoError(t, rep.ResetOutputBuffer())
	require.NoError(t, rep.Finish())
}

func TestReplayer_ResetKindsAreDistinct(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(events.Reset()))
	require.ErrorIs(t, rep.ResetOutputBuffer(), ErrMismatch)
}

func TestReplayer_Exhaustion(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(events.Write([]byte("x"))))
	_, err := rep.Write([]byte("x"))
	require.NoError(t, err)

	_, err = rep.Write([]byte("x"))
	require.ErrorIs(t, err, ErrExhausted)
	require.ErrorIs(t, err, ErrMismatch, "exhaustion is a kind of mismatch")

	var ex *ExhaustionError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 1, ex.Index)
	assert.Equal(t, events.KindWrite, ex.Kind)
	assert.Equal(t, "event 1: test called write \"x\", but the recording has no more events", err.Error())

	_, err = rep.InWaiting()
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, rep.Consumed(), "cursor never moves past the end")
	assert.Same(t, ex, rep.Err(), "first failure is kept")
}

func TestReplayer_Incomplete(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(
		events.Write([]byte("a")),
		events.Read([]byte("b")),
		events.Reset(),
	))
	_, err := rep.Write([]byte("a"))
	require.NoError(t, err)

	err = rep.Finish()
	require.ErrorIs(t, err, ErrIncomplete)

	var inc *IncompleteReplayError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, 1, inc.Consumed)
	assert.Equal(t, 3, inc.Total)
	assert.Equal(t, events.KindRead, inc.Next.Kind())
	assert.Equal(t, "some recorded events were not replayed: consumed 1 of 3, next was read(\"b\")", err.Error())
	assert.NoError(t, rep.Err(), "incompleteness is only reported by Finish")
}

func TestReplayer_EmptyRecording(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence())
	require.NoError(t, rep.Finish())
	assert.Zero(t, rep.Total())
}

func TestReplayer_ClosedPortNotOpen(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence(events.Write([]byte("a")), events.Read([]byte("b"))))
	_, err := rep.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, rep.Close())

	_, err = rep.Read(make([]byte, 1))
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	assert.True(t, transport.IsNotOpen(err))
	_, err = rep.Write([]byte("a"))
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	_, err = rep.InWaiting()
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	require.ErrorIs(t, rep.ResetInputBuffer(), transport.ErrPortNotOpen)
	require.ErrorIs(t, rep.SetMode(&serial.Mode{}), transport.ErrPortNotOpen)
	require.ErrorIs(t, rep.SetReadTimeout(time.Second), transport.ErrPortNotOpen)

	assert.Equal(t, 1, rep.Consumed(), "calls on a closed port consume nothing")
	require.NoError(t, rep.Err(), "port-state errors are not replay failures")

	rep.Reopen()
	buf := make([]byte, 1)
	n, err := rep.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "b", string(buf[:n]))
	require.NoError(t, rep.Finish())
}

func TestReplayer_SettingsIgnored(t *testing.T) {
	t.Parallel()

	rep := NewReplayer(events.NewSequence())
	require.NoError(t, rep.SetMode(&serial.Mode{BaudRate: 115200}))
	require.NoError(t, rep.SetReadTimeout(5*time.Second))
	assert.Zero(t, rep.Consumed())
}
