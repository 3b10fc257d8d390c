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

package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/reserial/pkg/events"
	"github.com/ZaparooProject/reserial/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// maxLineSize bounds a single recording line when scanning a log.
const maxLineSize = 64 << 20

// Recording is one test's entry in a log file.
type Recording struct {
	Name   string
	Events []events.Event
}

// osLocks is shared by every store on the real filesystem, so stores
// created independently, one per test, still serialize on the same file.
var osLocks = &syncutil.KeyedMutex{}

// Store reads and publishes log files. Every change to a file is written to
// a temporary file in the same directory and renamed over the original, so
// a crash never leaves a half-written log behind. Changes to the same path
// are serialized within the process.
type Store struct {
	fs     afero.Fs
	locks  *syncutil.KeyedMutex
	logger *zerolog.Logger
}

// NewStore returns a store backed by fs. Stores from separate NewStore
// calls do not share locks; share the Store instead.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs, locks: &syncutil.KeyedMutex{}}
}

// NewOSStore returns a store backed by the real filesystem. All OS stores
// in the process share one set of path locks.
func NewOSStore() *Store {
	return &Store{fs: afero.NewOsFs(), locks: osLocks}
}

// WithLogger returns a copy of s that logs to logger instead of the global
// logger. The copy shares the filesystem and locks of s.
func (s *Store) WithLogger(logger zerolog.Logger) *Store {
	return &Store{fs: s.fs, locks: s.locks, logger: &logger}
}

func (s *Store) getLogger() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return &log.Logger
}

// lockKey normalises path so that equivalent spellings share a lock.
func lockKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Load returns the events recorded for test name in the log at path.
func (s *Store) Load(path, name string) ([]events.Event, error) {
	var found []events.Event
	ok := false

	err := s.scan(path, func(key string, raw []byte) (bool, error) {
		if key != name {
			return true, nil
		}
		_, evs, err := DecodeLine(raw)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		found, ok = evs, true
		return false, nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Test: name, Path: path}
	} else if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Test: name, Path: path}
	}
	return found, nil
}

// List returns every recording in the log at path, in file order.
func (s *Store) List(path string) ([]Recording, error) {
	var recs []Recording
	err := s.scan(path, func(_ string, raw []byte) (bool, error) {
		name, evs, err := DecodeLine(raw)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		recs = append(recs, Recording{Name: name, Events: evs})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Save stores evs as the recording for test name, replacing any previous
// recording for that test and keeping every other line untouched.
func (s *Store) Save(path, name string, evs []events.Event) error {
	line, err := EncodeLine(name, evs)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(lockKey(path))
	defer unlock()

	lines, err := s.readLines(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	replaced := false
	out := lines[:0]
	for _, existing := range lines {
		if existing.name != name {
			out = append(out, existing)
			continue
		}
		// a hand-edited file may repeat a key; the first occurrence keeps
		// its position and later ones are dropped
		if !replaced {
			out = append(out, logLine{name: name, raw: line})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, logLine{name: name, raw: line})
	}
	lines = out

	if err := s.publish(path, lines); err != nil {
		return err
	}

	s.getLogger().Debug().Str("path", path).Str("test", name).Int("events", len(evs)).
		Bool("replaced", replaced).Msg("saved recording")
	return nil
}

// Delete removes the recording for test name from the log at path.
func (s *Store) Delete(path, name string) error {
	unlock := s.locks.Lock(lockKey(path))
	defer unlock()

	lines, err := s.readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Test: name, Path: path}
	} else if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.name != name {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(lines) {
		return &NotFoundError{Test: name, Path: path}
	}

	return s.publish(path, kept)
}

type logLine struct {
	name string
	raw  []byte
}

// readLines loads every line of a log with its key. Lines are validated
// only as far as reading the key so that a malformed line aborts the
// caller instead of being silently dropped on rewrite.
func (s *Store) readLines(path string) ([]logLine, error) {
	var lines []logLine
	err := s.scan(path, func(key string, raw []byte) (bool, error) {
		line := make([]byte, len(raw), len(raw)+1)
		copy(line, raw)
		lines = append(lines, logLine{name: key, raw: append(line, '\n')})
		return true, nil
	})
	return lines, err
}

// scan calls fn for each non-blank line of path until fn returns false.
func (s *Store) scan(path string, fn func(key string, raw []byte) (bool, error)) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func(f afero.File) {
		if closeErr := f.Close(); closeErr != nil {
			s.getLogger().Warn().Err(closeErr).Str("path", path).Msg("failed to close log file")
		}
	}(f)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		key, _, err := splitLine(raw)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		more, err := fn(key, raw)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read log file %s: %w", path, err)
	}
	return nil
}

// publish writes lines to a temporary sibling of path and renames it into
// place. The original file is never opened for writing; if the rename
// fails the caller gets the error and the original stays as it was.
func (s *Store) publish(path string, lines []logLine) error {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")
	tmp, err := s.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}

	cleanup := func() {
		if rmErr := s.fs.Remove(tmpPath); rmErr != nil {
			s.getLogger().Warn().Err(rmErr).Str("path", tmpPath).Msg("failed to remove temp log file")
		}
	}

	if err := writeLines(tmp, lines); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp log file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp log file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp log file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace log file %s: %w", path, err)
	}
	return nil
}

func writeLines(w io.Writer, lines []logLine) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.Write(l.raw); err != nil {
			return err //nolint:wrapcheck // wrapped by publish
		}
	}
	return bw.Flush() //nolint:wrapcheck // wrapped by publish
}
