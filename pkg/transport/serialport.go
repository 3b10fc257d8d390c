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

package transport

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"go.bug.st/serial"
)

// drainChunk is the read size used when polling for waiting bytes.
const drainChunk = 256

// DefaultFactory opens a real serial port with go.bug.st/serial.
func DefaultFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return NewSerialPort(port), nil
}

// SerialPort adapts a serial.Port to Port. InWaiting is implemented by
// draining whatever is already buffered by the OS into a pending buffer,
// which later reads are served from first.
type SerialPort struct {
	port    serial.Port
	pending []byte
	timeout time.Duration
	closed  bool
	mu      syncutil.Mutex
}

// NewSerialPort wraps an already open serial.Port.
func NewSerialPort(port serial.Port) *SerialPort {
	return &SerialPort{port: port, timeout: serial.NoTimeout}
}

func (s *SerialPort) Read(p []byte) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrPortNotOpen
	}
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()

	// not holding the lock: a blocking read must not stop Close
	n, err := s.port.Read(p)
	if err != nil {
		return n, fmt.Errorf("serial read: %w", err)
	}
	return n, nil
}

func (s *SerialPort) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrPortNotOpen
	}
	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write: %w", err)
	}
	return n, nil
}

func (s *SerialPort) InWaiting() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrPortNotOpen
	}

	if err := s.port.SetReadTimeout(0); err != nil {
		return 0, fmt.Errorf("failed to set poll timeout: %w", err)
	}
	buf := make([]byte, drainChunk)
	var readErr error
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			readErr = fmt.Errorf("serial read: %w", err)
			break
		}
		if n == 0 {
			break
		}
		s.pending = append(s.pending, buf[:n]...)
	}
	if err := s.port.SetReadTimeout(s.timeout); err != nil {
		return 0, fmt.Errorf("failed to restore read timeout: %w", err)
	}
	if readErr != nil {
		return 0, readErr
	}
	return len(s.pending), nil
}

func (s *SerialPort) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPortNotOpen
	}
	s.pending = nil
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to reset input buffer: %w", err)
	}
	return nil
}

func (s *SerialPort) ResetOutputBuffer() error {
	if s.isClosed() {
		return ErrPortNotOpen
	}
	if err := s.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("failed to reset output buffer: %w", err)
	}
	return nil
}

func (s *SerialPort) SetMode(mode *serial.Mode) error {
	if s.isClosed() {
		return ErrPortNotOpen
	}
	if err := s.port.SetMode(mode); err != nil {
		return fmt.Errorf("failed to set serial mode: %w", err)
	}
	return nil
}

func (s *SerialPort) SetReadTimeout(t time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPortNotOpen
	}
	if err := s.port.SetReadTimeout(t); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	s.timeout = t
	return nil
}

func (s *SerialPort) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.mu.Unlock()

	if err := s.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (s *SerialPort) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
