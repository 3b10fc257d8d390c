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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ZaparooProject/reserial/pkg/cli"
	"github.com/ZaparooProject/reserial/pkg/codec"
	"github.com/ZaparooProject/reserial/pkg/helpers"
	"github.com/ZaparooProject/reserial/pkg/transport"
)

func main() {
	app := &cli.App{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Store:     codec.NewOSStore(),
		ListPorts: transport.ListPorts,
		SetupLogging: func(debug bool) error {
			return helpers.InitLogging(helpers.LogDir(), debug, nil)
		},
	}

	if err := app.Run(os.Args[1:]); err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
