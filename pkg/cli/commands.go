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

package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZaparooProject/reserial/pkg/codec"
	"github.com/rs/zerolog/log"
)

func (a *App) list(path string) error {
	recs, err := a.Store.List(path)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	w := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	for _, rec := range recs {
		_, _ = fmt.Fprintf(w, "%s\t%d events\n", rec.Name, len(rec.Events))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (a *App) show(path, name string, raw bool) error {
	evs, err := a.Store.Load(path, name)
	if err != nil {
		return fmt.Errorf("failed to load recording: %w", err)
	}

	if raw {
		line, err := codec.EncodeLine(name, evs)
		if err != nil {
			return fmt.Errorf("failed to encode recording: %w", err)
		}
		_, _ = a.Stdout.Write(line)
		return nil
	}

	for i, e := range evs {
		_, _ = fmt.Fprintf(a.Stdout, "%4d  %s\n", i, e)
	}
	return nil
}

func (a *App) delete(path, name string) error {
	if err := a.Store.Delete(path, name); err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	log.Info().Str("log", path).Str("test", name).Msg("deleted recording")
	_, _ = fmt.Fprintf(a.Stdout, "Deleted %s from %s\n", name, path)
	return nil
}

func (a *App) ports() error {
	ports, err := a.ListPorts()
	if err != nil {
		return fmt.Errorf("failed to list ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(a.Stdout, "No serial ports found")
		return nil
	}

	w := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range ports {
		id := "-"
		if p.IsUSB {
			id = p.VID + ":" + p.PID
		}
		product := p.Product
		if product == "" {
			product = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, id, product)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
