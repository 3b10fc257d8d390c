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

// Package cli implements the reserial command, which inspects and edits
// recording logs and lists the serial ports a recording could be made
// against.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ZaparooProject/reserial/pkg/codec"
	"github.com/ZaparooProject/reserial/pkg/config"
	"github.com/ZaparooProject/reserial/pkg/transport"
	"github.com/rs/zerolog/log"
)

// ErrUsage is returned for bad arguments. The usage text has already been
// printed when it is returned.
var ErrUsage = errors.New("invalid usage")

const usage = `Usage: reserial [flags] <command> [args]

Commands:
  list FILE         list the recordings in a log file
  show FILE TEST    print the events recorded for TEST
  delete FILE TEST  remove the recording for TEST
  ports             list serial ports available for recording

Flags:
`

// App holds the command's dependencies.
type App struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Store     *codec.Store
	ListPorts func() ([]transport.PortInfo, error)
	// SetupLogging is called once flags are parsed, if set.
	SetupLogging func(debug bool) error
}

type Flags struct {
	Version *bool
	Debug   *bool
	Raw     *bool
}

// SetupFlags defines the command's flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Raw: fs.Bool(
			"raw",
			false,
			"show prints the recording as its JSON line",
		),
	}
}

// NewFlagSet returns the command's flag set writing help to stderr.
func NewFlagSet(stderr io.Writer) (*flag.FlagSet, *Flags) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := SetupFlags(fs)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	return fs, flags
}

// Run parses args and runs the selected command.
func (a *App) Run(args []string) error {
	fs, flags := NewFlagSet(a.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return ErrUsage
	}

	if *flags.Version {
		_, _ = fmt.Fprintf(a.Stdout, "%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	if a.SetupLogging != nil {
		if err := a.SetupLogging(*flags.Debug); err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
	}

	return a.dispatch(fs, flags)
}

func (a *App) dispatch(fs *flag.FlagSet, flags *Flags) error {
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return ErrUsage
	}

	cmd, params := rest[0], rest[1:]
	log.Debug().Str("command", cmd).Strs("args", params).Msg("running command")

	want := map[string]int{"list": 1, "show": 2, "delete": 2, "ports": 0}
	n, ok := want[cmd]
	if !ok {
		_, _ = fmt.Fprintf(a.Stderr, "Unknown command: %s\n\n", cmd)
		fs.Usage()
		return ErrUsage
	}
	if len(params) != n {
		_, _ = fmt.Fprintf(a.Stderr, "%s takes %d argument(s), got %d\n\n", cmd, n, len(params))
		fs.Usage()
		return ErrUsage
	}

	switch cmd {
	case "list":
		return a.list(params[0])
	case "show":
		return a.show(params[0], params[1], *flags.Raw)
	case "delete":
		return a.delete(params[0], params[1])
	default:
		return a.ports()
	}
}
