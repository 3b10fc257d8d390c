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
	"github.com/ZaparooProject/reserial/pkg/codec"
	"github.com/ZaparooProject/reserial/pkg/config"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"github.com/rs/zerolog"
)

type options struct {
	store   *codec.Store
	factory transport.Factory
	logger  *zerolog.Logger
	name    string
	logPath string
	mode    config.Mode
	modeSet bool
}

// Option changes how a session is started.
type Option func(*options)

// WithMode overrides the mode resolved from flags, environment and config.
func WithMode(mode config.Mode) Option {
	return func(o *options) {
		o.mode = mode
		o.modeSet = true
	}
}

// WithLogPath sets the log file instead of deriving it from the test file.
func WithLogPath(path string) Option {
	return func(o *options) {
		o.logPath = path
	}
}

// WithName sets the recording key. Defaults to t.Name().
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithStore(store *codec.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithFactory sets the factory used to open real ports in record and
// disabled modes.
func WithFactory(factory transport.Factory) Option {
	return func(o *options) {
		o.factory = factory
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}
