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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runApp runs the cli with args and returns what it wrote to stdout and
// stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"evm"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
		want string
	}{
		{
			name: "stop",
			args: []string{"--code", "6001600201"},
			want: "0x\ngas used: 9\nstatus: stopped\n",
		},
		{
			name: "return",
			args: []string{"--code", "0x60aa60005360016000f3"},
			want: "0xaa\ngas used: 18\nstatus: returned\n",
		},
		{
			name: "revert",
			args: []string{"60006000fd"},
			want: "0x\ngas used: 6\nstatus: execution reverted\n",
		},
		{
			name: "out of gas",
			args: []string{"--gas", "5", "--code", "6001600201"},
			want: "0x\ngas used: 5\nstatus: out of gas\n",
		},
		{
			name: "push0 before shanghai",
			args: []string{"--fork", "London", "--gas", "100", "--code", "5f"},
			want: "0x\ngas used: 100\nstatus: invalid opcode\n",
		},
		{
			name: "push0 enabled as extra eip",
			args: []string{"--fork", "London", "--eips", "3855", "--gas", "100", "--code", "5f"},
			want: "0x\ngas used: 2\nstatus: stopped\n",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runApp(t, append([]string{"run", "--verbosity", "0"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunCommandErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		args []string
		want string
	}{
		{"no code", nil, "no code specified"},
		{"bad hex", []string{"--code", "0xzz"}, "invalid hex"},
		{"bad input", []string{"--code", "00", "--input", "01,zz"}, "input 1"},
		{"bad fork", []string{"--code", "00", "--fork", "Atlantis"}, "Atlantis"},
		{"unknown eip", []string{"--code", "00", "--eips", "9999"}, "unknown eip 9999 (available: 1153, 1884"},
		{"unknown tracer", []string{"--code", "00", "--tracer", "nope"}, "tracer not found"},
		{"trace and tracer", []string{"--code", "00", "--trace", "--tracer", "noopTracer"}, "mutually exclusive"},
		{"trace format", []string{"--code", "00", "--trace", "--trace.format", "xml"}, "unknown trace format"},
		{"parallel trace", []string{"--code", "00", "--trace", "--input", "01,02"}, "several inputs"},
		{"bad container", []string{"--code", "ef0001"}, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runApp(t, append([]string{"run", "--verbosity", "0"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunCommandCodeFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "code.hex")
	require.NoError(t, os.WriteFile(file, []byte("0x6001600201\n"), 0644))

	out, _, err := runApp(t, "run", "--verbosity", "0", "--codefile", file)
	require.NoError(t, err)
	assert.Equal(t, "0x\ngas used: 9\nstatus: stopped\n", out)
}

func TestRunCommandParallel(t *testing.T) {
	// CALLDATALOAD(0), MSTORE(0), RETURN(0, 32)
	out, _, err := runApp(t, "run", "--verbosity", "0", "--parallel", "2",
		"--input", "01,02,03", "--code", "60003560005260206000f3")
	require.NoError(t, err)

	zeros := strings.Repeat("00", 31)
	for i, b := range []string{"01", "02", "03"} {
		assert.Contains(t, out, fmt.Sprintf("run %d:\n0x%s%s\n", i, b, zeros))
	}
	assert.Equal(t, 3, strings.Count(out, "status: returned"))
}

func TestRunCommandStats(t *testing.T) {
	out, _, err := runApp(t, "run", "--verbosity", "0", "--stats", "--code", "6001600201")
	require.NoError(t, err)
	assert.Contains(t, out, "OPCODE")
	assert.Contains(t, out, "PUSH1")
	assert.Contains(t, out, "66.67%")
	assert.Contains(t, out, "EVM gas used:    9")
}

func TestRunCommandTrace(t *testing.T) {
	_, stderr, err := runApp(t, "run", "--verbosity", "0", "--trace", "--code", "6001600201")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"opName":"PUSH1"`)
	assert.Contains(t, lines[3], `"gasUsed":"0x9"`)

	_, stderr, err = runApp(t, "run", "--verbosity", "0", "--trace", "--trace.format", "struct", "--code", "6001600201")
	require.NoError(t, err)
	assert.Contains(t, stderr, "PUSH1")
	assert.Contains(t, stderr, "ADD")

	_, stderr, err = runApp(t, "run", "--verbosity", "0", "--trace", "--trace.format", "md", "--code", "6001600201")
	require.NoError(t, err)
	assert.Contains(t, stderr, "|  Pc   |      Op     |")
}

func TestRunCommandTracer(t *testing.T) {
	// SSTORE(0, 1)
	_, stderr, err := runApp(t, "run", "--verbosity", "0", "--tracer", "sstoreTracer", "--code", "6001600055")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(strings.TrimSpace(stderr))), stderr)
	assert.Contains(t, stderr, "0x0000000000000000000000000000000000000000000000000000000000000001")
}

func TestRunCommandConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("Gas = 5\nFork = \"Cancun\"\nVerbosity = 0\n"), 0644))

	out, _, err := runApp(t, "run", "--config", file, "--code", "6001600201")
	require.NoError(t, err)
	assert.Contains(t, out, "status: out of gas")

	// Flags override the file.
	out, _, err = runApp(t, "run", "--config", file, "--gas", "100", "--code", "6001600201")
	require.NoError(t, err)
	assert.Contains(t, out, "status: stopped")

	out, _, err = runApp(t, "dumpconfig", "--config", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Gas = 5")
	assert.Contains(t, out, `Fork = "Cancun"`)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("Bogus = 1\n"), 0644))
	_, _, err = runApp(t, "run", "--config", bad, "--code", "00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Bogus' is not defined")
}

func TestRunCommandLogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "evm.log")
	_, stderr, err := runApp(t, "run", "--verbosity", "3", "--log.file", file, "--code", "6001600201")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Execution finished")
}

func TestDisasmCommand(t *testing.T) {
	out, _, err := runApp(t, "disasm", "--code", "6001600201")
	require.NoError(t, err)
	assert.Equal(t, "00000: PUSH1 0x01\n00002: PUSH1 0x02\n00004: ADD\n", out)

	out, _, err = runApp(t, "disasm", "61")
	require.Error(t, err)
	assert.Empty(t, out)
}
