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

// Package config resolves how reserial runs: whether tests record, replay or
// use the real port untouched, and where logs live. The mode is decided once
// per test binary from, in order of precedence:
//
//   - the -reserial.record and -reserial.replay test flags
//   - the RESERIAL_MODE environment variable (record, replay or disabled)
//   - the "mode" key of the TOML file named by RESERIAL_CFG
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	AppName    = "reserial"
	AppVersion = "0.4.0"
	CfgEnv     = "RESERIAL_CFG"
	ModeEnv    = "RESERIAL_MODE"
	LogFile    = "reserial.log"
	// LogExt is the extension of recording files.
	LogExt = ".jsonl"
	// TestdataDir holds recordings next to the test source by default.
	TestdataDir = "testdata"
)

// ErrConflictingModes is returned when both record and replay are requested.
var ErrConflictingModes = errors.New("choose one of record or replay, not both")

// Mode is the run-wide operating mode.
type Mode int

const (
	// ModeDisabled leaves the real transport in place.
	ModeDisabled Mode = iota
	ModeReplay
	ModeRecord
)

func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeReplay:
		return "replay"
	case ModeRecord:
		return "record"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. The empty string is ModeDisabled.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "disabled", "off":
		return ModeDisabled, nil
	case "replay":
		return ModeReplay, nil
	case "record":
		return ModeRecord, nil
	default:
		return ModeDisabled, fmt.Errorf("unknown reserial mode %q", s)
	}
}

// Values is the content of the optional config file.
type Values struct {
	Mode string `toml:"mode,omitempty" validate:"omitempty,oneof=record replay disabled"`
	// LogDir overrides where recordings are kept. Relative paths are
	// resolved against the directory of each test source file.
	LogDir       string `toml:"log_dir,omitempty"`
	DebugLogging bool   `toml:"debug_logging"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a config file.
func Load(path string) (Values, error) {
	var vals Values

	data, err := os.ReadFile(path)
	if err != nil {
		return vals, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &vals); err != nil {
		return vals, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(vals); err != nil {
		return vals, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log.Debug().Str("path", path).Str("mode", vals.Mode).Msg("loaded reserial config")
	return vals, nil
}

// Resolve picks the mode from already parsed inputs. Flags win over the
// environment, which wins over the config file.
func Resolve(record, replay bool, envMode string, vals Values) (Mode, error) {
	switch {
	case record && replay:
		return ModeDisabled, ErrConflictingModes
	case record:
		return ModeRecord, nil
	case replay:
		return ModeReplay, nil
	case envMode != "":
		m, err := ParseMode(envMode)
		if err != nil {
			return ModeDisabled, fmt.Errorf("%s: %w", ModeEnv, err)
		}
		return m, nil
	default:
		return ParseMode(vals.Mode)
	}
}
