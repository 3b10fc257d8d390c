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

// Package session binds record and replay to the lifecycle of a single
// test. A session is started from the test, hands out ports through Open,
// and is finalized by t.Cleanup: recordings are saved, replays are checked
// for unconsumed events.
//
//	func TestDevice(t *testing.T) {
//		s := session.Start(t)
//		port, err := s.Open("/dev/ttyUSB0", &serial.Mode{BaudRate: 115200})
//		...
//	}
package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ZaparooProject/reserial/pkg/codec"
	"github.com/ZaparooProject/reserial/pkg/config"
	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"github.com/ZaparooProject/reserial/pkg/proxy"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// ErrFinalized is returned by Open once the test has finished.
var ErrFinalized = errors.New("reserial session already finalized")

type State int

const (
	StateIdle State = iota
	StateActive
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the record or replay context of one test.
type Session struct {
	t        testing.TB
	store    *codec.Store
	factory  transport.Factory
	seq      *events.Sequence
	recorder *proxy.Recorder
	replayer *proxy.Replayer
	logger   zerolog.Logger
	name     string
	logPath  string
	mode     config.Mode
	state    State
	mu       syncutil.Mutex
}

// Start begins a session for t. In replay mode the test's recording is
// loaded immediately and a missing recording stops the test.
func Start(t testing.TB, opts ...Option) *Session {
	t.Helper()
	return start(t, opts...)
}

// Install starts a session and points *target at its Open for the rest of
// the test. The original factory is restored on cleanup and, unless
// WithFactory is given, is also the one used to open real ports.
func Install(t testing.TB, target *transport.Factory, opts ...Option) *Session {
	t.Helper()

	orig := *target
	if orig != nil {
		opts = append([]Option{WithFactory(orig)}, opts...)
	}
	s := start(t, opts...)
	*target = s.Open
	t.Cleanup(func() {
		*target = orig
	})
	return s
}

func start(t testing.TB, opts ...Option) *Session {
	t.Helper()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var run config.Run
	if !o.modeSet || o.logPath == "" {
		var err error
		run, err = config.Current()
		if err != nil {
			t.Fatalf("reserial: %v", err)
		}
	}
	if !o.modeSet {
		o.mode = run.Mode
	}
	if o.name == "" {
		o.name = t.Name()
	}
	if o.logPath == "" && o.mode != config.ModeDisabled {
		file, err := callerTestFile()
		if err != nil {
			t.Fatalf("reserial: %v", err)
		}
		o.logPath = LogPath(file, run.Values.LogDir)
	}
	if o.store == nil {
		o.store = codec.NewOSStore()
	}
	if o.factory == nil {
		o.factory = transport.DefaultFactory
	}
	if o.logger == nil {
		level := zerolog.InfoLevel
		if run.Values.DebugLogging {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(zerolog.NewTestWriter(t)).Level(level)
		o.logger = &logger
	}

	logger := o.logger.With().Str("test", o.name).Str("mode", o.mode.String()).Logger()
	s := &Session{
		t:       t,
		store:   o.store.WithLogger(logger),
		factory: o.factory,
		name:    o.name,
		logPath: o.logPath,
		mode:    o.mode,
		logger:  logger,
	}

	switch s.mode {
	case config.ModeRecord:
		s.seq = events.NewSequence()
	case config.ModeReplay:
		evs, err := s.store.Load(s.logPath, s.name)
		if err != nil {
			t.Fatalf("reserial: %v", err)
		}
		s.seq = events.NewSequence(evs...)
		s.replayer = proxy.NewReplayer(s.seq)
	case config.ModeDisabled:
	}

	s.state = StateActive
	s.logger.Debug().Str("log", s.logPath).Int("events", len(s.Events())).Msg("session started")
	t.Cleanup(s.finalize)
	return s
}

// Open has the transport.Factory signature. Disabled sessions open the real
// port, recording sessions wrap it, and replaying sessions never touch it.
// Every port opened during one test shares the test's single sequence.
func (s *Session) Open(path string, mode *serial.Mode) (transport.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return nil, ErrFinalized
	}

	switch s.mode {
	case config.ModeRecord:
		port, err := s.factory(path, mode)
		if err != nil {
			return nil, err
		}
		if s.recorder == nil {
			s.recorder = proxy.NewRecorder(port, s.seq)
		} else {
			if !s.recorder.Closed() {
				s.logger.Warn().Str("path", path).Msg("port reopened without closing the previous one")
			}
			s.recorder.Attach(port)
		}
		s.logger.Debug().Str("path", path).Msg("recording port")
		return s.recorder, nil
	case config.ModeReplay:
		s.replayer.Reopen()
		s.logger.Debug().Str("path", path).Msg("replaying port")
		return s.replayer, nil
	default:
		return s.factory(path, mode)
	}
}

func (s *Session) Mode() config.Mode {
	return s.mode
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) LogPath() string {
	return s.logPath
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the events recorded or loaded so far.
func (s *Session) Events() []events.Event {
	if s.seq == nil {
		return nil
	}
	return s.seq.Events()
}

// finalize runs once, from t.Cleanup. Recordings are saved even when the
// test failed so the traffic can be inspected.
func (s *Session) finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return
	}
	s.state = StateFinalized

	switch s.mode {
	case config.ModeRecord:
		s.finalizeRecord()
	case config.ModeReplay:
		s.finalizeReplay()
	case config.ModeDisabled:
	}
}

func (s *Session) finalizeRecord() {
	if s.recorder != nil && !s.recorder.Closed() {
		if err := s.recorder.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("error closing port")
		}
	}

	if s.t.Failed() {
		s.logger.Warn().Msg("test failed, saving recording anyway")
	}

	evs := s.seq.Events()
	if err := s.store.Save(s.logPath, s.name, evs); err != nil {
		s.t.Errorf("reserial: failed to save recording: %v", err)
		return
	}
	s.logger.Info().Str("log", s.logPath).Int("events", len(evs)).Msg("recording saved")
}

func (s *Session) finalizeReplay() {
	if err := s.replayer.Err(); err != nil {
		s.t.Errorf("reserial: %v", err)
		return
	}
	if err := s.replayer.Finish(); err != nil {
		s.t.Errorf("reserial: %v", err)
		return
	}
	s.logger.Debug().Int("events", s.replayer.Total()).Msg("replay complete")
}
