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

// Package testutils provides a scriptable in-memory serial port for tests.
package testutils

import (
	"time"

	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"go.bug.st/serial"
)

// MockPort is an in-memory transport.Port. Queued read chunks are returned
// one per Read call, truncated to the caller's buffer, and an empty queue
// behaves like a read timeout (0, nil).
type MockPort struct {
	ReadError  error
	WriteError error
	CloseError error
	ResetError error
	// ReadFunc overrides the queued chunks when set.
	ReadFunc func(p []byte) (int, error)
	// MaxWrite, when positive, caps the bytes accepted per Write.
	MaxWrite     int
	Mode         *serial.Mode
	chunks       [][]byte
	written      []byte
	Timeout      time.Duration
	Calls        int
	InputResets  int
	OutputResets int
	closed       bool
	mu           syncutil.RWMutex // protects buffers, counters and closed
}

var _ transport.Port = (*MockPort)(nil)

// NewMockPort returns an open mock with chunks queued for reading.
func NewMockPort(chunks ...[]byte) *MockPort {
	m := &MockPort{}
	m.Queue(chunks...)
	return m
}

// Factory returns a transport.Factory that hands out m.
func (m *MockPort) Factory() transport.Factory {
	return func(_ string, mode *serial.Mode) (transport.Port, error) {
		m.mu.Lock()
		m.Mode = mode
		m.closed = false
		m.mu.Unlock()
		return m, nil
	}
}

// Queue appends chunks to be returned by later reads.
func (m *MockPort) Queue(chunks ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks = append(m.chunks, append([]byte(nil), c...))
	}
}

// Written returns everything written so far.
func (m *MockPort) Written() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.written...)
}

// IsClosed reports whether Close has been called.
func (m *MockPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.closed {
		return 0, transport.ErrPortNotOpen
	}
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if len(m.chunks) == 0 {
		return 0, nil
	}

	n := copy(p, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	if len(m.chunks[0]) == 0 {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.closed {
		return 0, transport.ErrPortNotOpen
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	if m.MaxWrite > 0 && len(p) > m.MaxWrite {
		p = p[:m.MaxWrite]
	}
	m.written = append(m.written, p...)
	return len(p), nil
}

// InWaiting returns the number of queued bytes.
func (m *MockPort) InWaiting() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.closed {
		return 0, transport.ErrPortNotOpen
	}
	n := 0
	for _, c := range m.chunks {
		n += len(c)
	}
	return n, nil
}

func (m *MockPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.closed {
		return transport.ErrPortNotOpen
	}
	if m.ResetError != nil {
		return m.ResetError
	}
	m.chunks = nil
	m.InputResets++
	return nil
}

func (m *MockPort) ResetOutputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.closed {
		return transport.ErrPortNotOpen
	}
	if m.ResetError != nil {
		return m.ResetError
	}
	m.OutputResets++
	return nil
}

func (m *MockPort) SetMode(mode *serial.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transport.ErrPortNotOpen
	}
	m.Mode = mode
	return nil
}

func (m *MockPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transport.ErrPortNotOpen
	}
	m.Timeout = t
	return nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CloseError != nil {
		return m.CloseError
	}
	m.closed = true
	return nil
}
