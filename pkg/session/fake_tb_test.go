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

package session

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
)

// fakeTB captures failures and cleanups so a session's verdict can be
// inspected without failing the real test.
type fakeTB struct {
	testing.TB
	name     string
	errors   []string
	fatals   []string
	cleanups []func()
	mu       syncutil.Mutex
}

func newFakeTB(t *testing.T, name string) *fakeTB {
	t.Helper()
	return &fakeTB{TB: t, name: name}
}

func (f *fakeTB) Name() string { return f.name }

func (*fakeTB) Helper() {}

func (f *fakeTB) Errorf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.mu.Lock()
	f.fatals = append(f.fatals, fmt.Sprintf(format, args...))
	f.mu.Unlock()
	runtime.Goexit()
}

func (f *fakeTB) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) > 0 || len(f.fatals) > 0
}

func (f *fakeTB) Cleanup(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, fn)
}

// finish runs cleanups last-registered first, like the testing package.
func (f *fakeTB) finish() {
	f.mu.Lock()
	fns := f.cleanups
	f.cleanups = nil
	f.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

func (f *fakeTB) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}

func (f *fakeTB) Fatals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fatals...)
}

// startInGoroutine runs Start where a Fatalf can safely exit, returning
// nil if it did.
func startInGoroutine(tb *fakeTB, opts ...Option) *Session {
	var s *Session
	done := make(chan struct{})
	go func() {
		defer close(done)
		s = Start(tb, opts...)
	}()
	<-done
	return s
}
