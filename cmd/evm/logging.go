// Copyright 2017 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"io"
	"os"

	"github.com/bnb-chain/evmcore/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	logFileBufLines   = 1000
	logFileMaxSizeMB  = 100
	logFileMaxBackups = 3
)

// setupLogging installs the root logger for the verbosity and file of cfg.
// The returned function flushes and closes the log file.
func setupLogging(cfg runConfig, stderr io.Writer) (func(), error) {
	lvl := log.FromLegacyLevel(cfg.Verbosity)
	if cfg.Verbosity <= 0 {
		log.SetDefault(log.NewLogger(log.DiscardHandler()))
		return func() {}, nil
	}
	if cfg.LogFile == "" {
		output := stderr
		usecolor := false
		if stderr == io.Writer(os.Stderr) {
			usecolor = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
			if usecolor {
				output = colorable.NewColorableStderr()
			}
		}
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, lvl, usecolor)))
		return func() {}, nil
	}
	w := log.NewAsyncFileWriter(cfg.LogFile, logFileBufLines, logFileMaxSizeMB, logFileMaxBackups, 0)
	if err := w.Start(); err != nil {
		return nil, err
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(w, lvl, false)))
	return func() {
		log.SetDefault(log.NewLogger(log.DiscardHandler()))
		w.Stop()
	}, nil
}
