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
	"testing"
	"time"

	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/testutils"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func requireEvents(t *testing.T, want []events.Event, seq *events.Sequence) {
	t.Helper()
	got := seq.Events()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "event %d: want %s, got %s", i, want[i], got[i])
	}
}

func TestRecorder_RecordsEveryOperationInOrder(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockPort([]byte{0x02}, []byte("tail"))
	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	n, err := rec.Write([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	waiting, err := rec.InWaiting()
	require.NoError(t, err)
	assert.Equal(t, 5, waiting)

	buf := make([]byte, 8)
	n, err = rec.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, buf[:n])

	require.NoError(t, rec.ResetInputBuffer())
	require.NoError(t, rec.ResetOutputBuffer())

	requireEvents(t, []events.Event{
		events.Write([]byte{0x01}),
		events.Waiting(5),
		events.Read([]byte{0x02}),
		events.Reset(),
		events.ResetOutput(),
	}, seq)
	assert.Equal(t, []byte{0x01}, mock.Written(), "writes must reach the real port")
	assert.Equal(t, 1, mock.InputResets)
	assert.Equal(t, 1, mock.OutputResets)
}

func TestRecorder_UnderReadRecordedFaithfully(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockPort([]byte("ab"))
	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	buf := make([]byte, 10)
	n, err := rec.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// queue is empty now: the mock times out with no data
	n, err = rec.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)

	requireEvents(t, []events.Event{
		events.Read([]byte("ab")),
		events.Read([]byte{}),
	}, seq)
	assert.Equal(t, 2, mock.Calls, "no retries to fill the buffer")
}

func TestRecorder_ErrorsPropagateWithoutEvents(t *testing.T) {
	t.Parallel()

	readErr := errors.New("framing error")
	writeErr := errors.New("device gone")
	resetErr := errors.New("ioctl failed")
	mock := testutils.NewMockPort()
	mock.ReadError = readErr
	mock.WriteError = writeErr
	mock.ResetError = resetErr

	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	_, err := rec.Read(make([]byte, 4))
	require.ErrorIs(t, err, readErr)
	assert.Same(t, readErr, err, "errors must not be wrapped")

	_, err = rec.Write([]byte("x"))
	assert.Same(t, writeErr, err)

	assert.Same(t, resetErr, rec.ResetInputBuffer())
	assert.Same(t, resetErr, rec.ResetOutputBuffer())

	assert.Zero(t, seq.Len(), "failed calls must not leave events")
}

func TestRecorder_SettingsForwardedNotRecorded(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockPort()
	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	mode := &serial.Mode{BaudRate: 9600}
	require.NoError(t, rec.SetMode(mode))
	require.NoError(t, rec.SetReadTimeout(250*time.Millisecond))

	assert.Same(t, mode, mock.Mode)
	assert.Equal(t, 250*time.Millisecond, mock.Timeout)
	assert.Zero(t, seq.Len())
}

func TestRecorder_ClosedPort(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockPort([]byte("x"))
	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	require.NoError(t, rec.Close())
	assert.True(t, mock.IsClosed())
	assert.True(t, rec.Closed())
	require.NoError(t, rec.Close())

	_, err := rec.Read(make([]byte, 1))
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	_, err = rec.Write([]byte("x"))
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	_, err = rec.InWaiting()
	require.ErrorIs(t, err, transport.ErrPortNotOpen)
	require.ErrorIs(t, rec.ResetInputBuffer(), transport.ErrPortNotOpen)
	require.ErrorIs(t, rec.SetMode(nil), transport.ErrPortNotOpen)
	assert.Zero(t, seq.Len())
}

func TestRecorder_CloseErrorKeepsPortOpen(t *testing.T) {
	t.Parallel()

	closeErr := errors.New("busy")
	mock := testutils.NewMockPort()
	mock.CloseError = closeErr
	rec := NewRecorder(mock, events.NewSequence())

	assert.Same(t, closeErr, rec.Close())
	assert.False(t, rec.Closed())
}

func TestRecorder_AttachContinuesSequence(t *testing.T) {
	t.Parallel()

	first := testutils.NewMockPort()
	second := testutils.NewMockPort([]byte("hi"))
	seq := events.NewSequence()
	rec := NewRecorder(first, seq)

	_, err := rec.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, rec.Close())

	rec.Attach(second)
	assert.False(t, rec.Closed())
	buf := make([]byte, 2)
	_, err = rec.Read(buf)
	require.NoError(t, err)

	assert.Same(t, seq, rec.Sequence())
	requireEvents(t, []events.Event{events.Write([]byte("a")), events.Read([]byte("hi"))}, seq)
}

func TestRecorder_ShortWriteKeepsPayloadAndCount(t *testing.T) {
	t.Parallel()

	mock := testutils.NewMockPort()
	mock.MaxWrite = 1
	seq := events.NewSequence()
	rec := NewRecorder(mock, seq)

	n, err := rec.Write([]byte("AT\r"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte("A"), mock.Written())

	requireEvents(t, []events.Event{events.WriteN([]byte("AT\r"), 1)}, seq)

	// the same call replays as the same short write
	rep := NewReplayer(events.NewSequence(seq.Events()...))
	n, err = rep.Write([]byte("AT\r"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, rep.Finish())
}
