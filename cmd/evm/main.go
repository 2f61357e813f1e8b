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

// evm executes EVM code snippets.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/params"
	"github.com/urfave/cli/v2"

	// Force-load the native tracers to trigger registration
	_ "github.com/bnb-chain/evmcore/eth/tracers/native"
)

const (
	vmCategory      = "EVM"
	traceCategory   = "TRACING"
	loggingCategory = "LOGGING"
)

var (
	CodeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "EVM code as hex, legacy or EOF",
		Category: vmCategory,
	}
	CodeFileFlag = &cli.StringFlag{
		Name:     "codefile",
		Usage:    "File containing EVM code as hex. If '-' is specified, code is read from stdin",
		Category: vmCategory,
	}
	InputFlag = &cli.StringFlag{
		Name:     "input",
		Usage:    "Call data as hex. Several comma separated inputs are run against copies of one environment",
		Category: vmCategory,
	}
	GasFlag = &cli.Uint64Flag{
		Name:     "gas",
		Usage:    "Gas limit for the execution",
		Value:    defaultGas,
		Category: vmCategory,
	}
	ForkFlag = &cli.StringFlag{
		Name:     "fork",
		Usage:    "Rule set to execute with (Frontier .. Osaka)",
		Value:    params.LatestFork.String(),
		Category: vmCategory,
	}
	ExtraEipsFlag = &cli.IntSliceFlag{
		Name:     "eips",
		Usage:    "Additional EIPs to enable on top of the fork (" + strings.Join(vm.ActivateableEips(), ", ") + ")",
		Category: vmCategory,
	}
	ReadOnlyFlag = &cli.BoolFlag{
		Name:     "readonly",
		Usage:    "Execute in a static context, state changes fault",
		Category: vmCategory,
	}
	ParallelFlag = &cli.IntFlag{
		Name:     "parallel",
		Usage:    "Number of workers running the inputs (0 = one per CPU)",
		Category: vmCategory,
	}
	StatsFlag = &cli.BoolFlag{
		Name:     "stats",
		Usage:    "Print opcode statistics and execution time",
		Category: vmCategory,
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}

	// Tracing flags.
	TraceFlag = &cli.BoolFlag{
		Name:     "trace",
		Usage:    "Enable tracing and output trace log.",
		Category: traceCategory,
	}
	TraceFormatFlag = &cli.StringFlag{
		Name:     "trace.format",
		Usage:    "Trace output format to use (json|struct|md)",
		Value:    "json",
		Category: traceCategory,
	}
	TraceEnableMemoryFlag = &cli.BoolFlag{
		Name:     "trace.memory",
		Usage:    "enable memory output",
		Category: traceCategory,
	}
	TraceDisableStackFlag = &cli.BoolFlag{
		Name:     "trace.nostack",
		Aliases:  []string{"nostack"},
		Usage:    "disable stack output",
		Category: traceCategory,
	}
	TraceDisableStorageFlag = &cli.BoolFlag{
		Name:     "trace.nostorage",
		Aliases:  []string{"nostorage"},
		Usage:    "disable storage output",
		Category: traceCategory,
	}
	TraceEnableReturnDataFlag = &cli.BoolFlag{
		Name:     "trace.returndata",
		Usage:    "enable return data output",
		Category: traceCategory,
	}
	TracerFlag = &cli.StringFlag{
		Name:     "tracer",
		Usage:    "Named tracer to run, its result is printed after execution",
		Category: traceCategory,
	}
	TracerConfigFlag = &cli.StringFlag{
		Name:     "tracer.config",
		Usage:    "Tracer configuration (JSON)",
		Category: traceCategory,
	}

	// Logging flags.
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    defaultVerbosity,
		Category: loggingCategory,
	}
	LogFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a rotated file instead of stderr",
		Category: loggingCategory,
	}
)

var codeFlags = []cli.Flag{
	CodeFlag,
	CodeFileFlag,
}

var traceFlags = []cli.Flag{
	TraceFlag,
	TraceFormatFlag,
	TraceEnableMemoryFlag,
	TraceDisableStackFlag,
	TraceDisableStorageFlag,
	TraceEnableReturnDataFlag,
	TracerFlag,
	TracerConfigFlag,
}

var runCommand = &cli.Command{
	Action:    runCmd,
	Name:      "run",
	Usage:     "Run arbitrary evm binary",
	ArgsUsage: "<code>",
	Description: `The run command runs arbitrary EVM code against an in-memory environment.
Code is taken from the first argument when neither --code nor --codefile is set.`,
	Flags: append(append([]cli.Flag{
		InputFlag,
		GasFlag,
		ForkFlag,
		ExtraEipsFlag,
		ReadOnlyFlag,
		ParallelFlag,
		StatsFlag,
		ConfigFileFlag,
		VerbosityFlag,
		LogFileFlag,
	}, codeFlags...), traceFlags...),
}

var disasmCommand = &cli.Command{
	Action:    disasmCmd,
	Name:      "disasm",
	Usage:     "Disassembles evm binary",
	ArgsUsage: "<code>",
	Flags:     codeFlags,
}

var dumpConfigCommand = &cli.Command{
	Action: dumpConfigCmd,
	Name:   "dumpconfig",
	Usage:  "Show the run configuration values",
	Flags: []cli.Flag{
		GasFlag,
		ForkFlag,
		ExtraEipsFlag,
		InputFlag,
		ReadOnlyFlag,
		ParallelFlag,
		ConfigFileFlag,
		VerbosityFlag,
		LogFileFlag,
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "evm",
		Usage:    "the evm command line interface",
		Commands: []*cli.Command{runCommand, disasmCommand, dumpConfigCommand},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
