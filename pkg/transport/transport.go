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

// Package transport defines the serial capability set shared by real ports
// and the record/replay proxies, plus the go.bug.st/serial backed default.
package transport

import (
	"errors"
	"time"

	"go.bug.st/serial"
)

// ErrPortNotOpen is returned by any operation on a port that has been
// closed. Real ports and both proxies return it alike.
var ErrPortNotOpen = errors.New("port not open")

// Port is the set of serial operations code under test may use. It is a
// subset of serial.Port plus InWaiting, which go.bug.st/serial does not
// expose directly.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	// InWaiting returns the number of received bytes ready to be read
	// without blocking.
	InWaiting() (int, error)
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Factory opens a port. Code that talks to a device should take a Factory
// rather than calling serial.Open so tests can substitute a proxy.
type Factory func(path string, mode *serial.Mode) (Port, error)

// IsNotOpen reports whether err means the port was used after being closed,
// whether it came from a proxy or directly from go.bug.st/serial.
func IsNotOpen(err error) bool {
	if errors.Is(err, ErrPortNotOpen) {
		return true
	}
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		return portErr.Code() == serial.PortClosed
	}
	return false
}
