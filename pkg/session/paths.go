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
	"errors"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ZaparooProject/reserial/pkg/config"
)

// ErrNoTestFile is returned when no _test.go file is found on the call
// stack and no log path was given.
var ErrNoTestFile = errors.New("no _test.go caller found, use WithLogPath")

// LogPath maps a test source file to its log file. An empty logDir means
// a testdata directory next to the test file; a relative logDir is joined
// to that directory. The file is named after the test file, so
// device_test.go records to device_test.jsonl.
func LogPath(testFile, logDir string) string {
	dir := filepath.Dir(testFile)
	switch {
	case logDir == "":
		dir = filepath.Join(dir, config.TestdataDir)
	case filepath.IsAbs(logDir):
		dir = logDir
	default:
		dir = filepath.Join(dir, logDir)
	}
	stem := strings.TrimSuffix(filepath.Base(testFile), filepath.Ext(testFile))
	return filepath.Join(dir, stem+config.LogExt)
}

// callerTestFile returns the nearest _test.go file on the call stack.
func callerTestFile() (string, error) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.HasSuffix(frame.File, "_test.go") {
			return frame.File, nil
		}
		if !more {
			return "", ErrNoTestFile
		}
	}
}
