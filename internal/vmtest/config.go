// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package vmtest provides fork matrices for machine tests.
package vmtest

import (
	"os"

	"github.com/bnb-chain/evmcore/params"
)

// =============================================================================
// Fork matrix helpers
// =============================================================================
//
// These helpers let tests run against several rule sets.
//
// Usage:
//   - By default, tests run with the legacy baseline and the latest fork
//   - Set TEST_ALL_FORKS=true environment variable to run every fork
//
// Example:
//   import "github.com/bnb-chain/evmcore/internal/vmtest"
//
//   func TestSomething(t *testing.T) {
//       for _, fork := range vmtest.Forks() {
//           t.Run(vmtest.Name(fork), func(t *testing.T) {
//               // test code using fork
//           })
//       }
//   }
//
// Running tests:
//   go test ./...                        # baseline forks (default)
//   TEST_ALL_FORKS=true go test ./...    # every fork

// Forks returns the forks to test.
// By default, returns Istanbul and the latest fork. Set TEST_ALL_FORKS=true to include all.
func Forks() []params.Fork {
	if AllForksEnabled() {
		return params.Forks()
	}
	return []params.Fork{params.Istanbul, params.LatestFork}
}

// ForksFrom returns the forks to test that activate at or after from.
func ForksFrom(from params.Fork) []params.Fork {
	var forks []params.Fork
	for _, fork := range Forks() {
		if fork >= from {
			forks = append(forks, fork)
		}
	}
	if len(forks) == 0 {
		forks = append(forks, from)
	}
	return forks
}

// Name returns a human-readable name for a fork.
// Used for test sub-test naming.
func Name(fork params.Fork) string {
	return fork.String()
}

// AllForksEnabled returns true if the full matrix is enabled via environment variable.
func AllForksEnabled() bool {
	return os.Getenv("TEST_ALL_FORKS") == "true"
}
