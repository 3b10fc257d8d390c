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

package config

import (
	"flag"
	"os"
	"sync"
)

var (
	recordFlag = flag.Bool("reserial.record", false, "record serial traffic to each test's log")
	replayFlag = flag.Bool("reserial.replay", false, "replay serial traffic from each test's log")
)

// Run is the resolved configuration for the current test binary.
type Run struct {
	Values Values
	Mode   Mode
}

var (
	current     Run
	errCurrent  error
	currentOnce sync.Once
)

// Current resolves the run configuration on first use and returns the same
// result for the rest of the process. Flags are only honoured once the test
// framework has parsed them.
func Current() (Run, error) {
	currentOnce.Do(func() {
		current, errCurrent = resolveRun(flag.Parsed(), os.Getenv(CfgEnv), os.Getenv(ModeEnv))
	})
	return current, errCurrent
}

func resolveRun(parsed bool, cfgPath, envMode string) (Run, error) {
	var run Run

	if cfgPath != "" {
		vals, err := Load(cfgPath)
		if err != nil {
			return run, err
		}
		run.Values = vals
	}

	record, replay := false, false
	if parsed {
		record, replay = *recordFlag, *replayFlag
	}

	mode, err := Resolve(record, replay, envMode, run.Values)
	if err != nil {
		return run, err
	}
	run.Mode = mode
	return run, nil
}
