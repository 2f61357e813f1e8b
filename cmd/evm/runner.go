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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/core/vm/runtime"
	"github.com/bnb-chain/evmcore/eth/tracers"
	"github.com/bnb-chain/evmcore/eth/tracers/logger"
	"github.com/bnb-chain/evmcore/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var errNoCode = errors.New("no code specified, use --code, --codefile or pass it as argument")

// readCode returns the code given by flag, file or first argument.
func readCode(ctx *cli.Context) ([]byte, error) {
	var (
		hexcode []byte
		err     error
	)
	switch file := ctx.String(CodeFileFlag.Name); {
	case ctx.String(CodeFlag.Name) != "":
		hexcode = []byte(ctx.String(CodeFlag.Name))
	case file == "-":
		if hexcode, err = io.ReadAll(ctx.App.Reader); err != nil {
			return nil, errors.Wrap(err, "could not read code from stdin")
		}
	case file != "":
		if hexcode, err = os.ReadFile(file); err != nil {
			return nil, errors.Wrap(err, "could not read code from file")
		}
	case ctx.Args().Present():
		hexcode = []byte(ctx.Args().First())
	default:
		return nil, errNoCode
	}
	return decodeHex(string(hexcode))
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex")
	}
	return b, nil
}

// parseInputs splits comma separated call data. An empty string is a single
// run without call data.
func parseInputs(s string) ([][]byte, error) {
	parts := strings.Split(s, ",")
	inputs := make([][]byte, 0, len(parts))
	for i, part := range parts {
		input, err := decodeHex(part)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// tracerFromFlags parses the cli flags and returns the specified tracer. The
// returned function writes whatever the tracer collected once the run ended.
func tracerFromFlags(ctx *cli.Context, env *runtime.Env) (*tracing.Hooks, func(io.Writer) error, error) {
	config := &logger.Config{
		EnableMemory:     ctx.Bool(TraceEnableMemoryFlag.Name),
		DisableStack:     ctx.Bool(TraceDisableStackFlag.Name),
		DisableStorage:   ctx.Bool(TraceDisableStorageFlag.Name),
		EnableReturnData: ctx.Bool(TraceEnableReturnDataFlag.Name),
	}
	stderr := ctx.App.ErrWriter
	if name := ctx.String(TracerFlag.Name); name != "" {
		if ctx.Bool(TraceFlag.Name) {
			return nil, nil, errors.New("--trace and --tracer are mutually exclusive")
		}
		var cfg json.RawMessage
		if s := ctx.String(TracerConfigFlag.Name); s != "" {
			cfg = json.RawMessage(s)
		}
		t, err := tracers.DefaultDirectory.New(name, cfg)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%q, available: %s", name, strings.Join(tracers.DefaultDirectory.Names(), ", "))
		}
		return t.Hooks, func(w io.Writer) error {
			res, err := t.GetResult()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(res))
			return err
		}, nil
	}
	if !ctx.Bool(TraceFlag.Name) {
		return nil, nil, nil
	}
	switch format := ctx.String(TraceFormatFlag.Name); format {
	case "struct":
		l := logger.NewStructLogger(config, env)
		return l.Hooks(), func(w io.Writer) error {
			logger.WriteTrace(w, l.StructLogs())
			logger.WriteLogs(w, env.Logs())
			return nil
		}, nil
	case "json":
		return logger.NewJSONLogger(config, stderr), nil, nil
	case "md", "markdown":
		return logger.NewMarkdownLogger(config, stderr).Hooks(), nil, nil
	default:
		return nil, nil, errors.Errorf("unknown trace format: %q", format)
	}
}

func runCmd(ctx *cli.Context) error {
	cfg, err := makeRunConfig(ctx)
	if err != nil {
		return err
	}
	stopLogging, err := setupLogging(cfg, ctx.App.ErrWriter)
	if err != nil {
		return err
	}
	defer stopLogging()

	code, err := readCode(ctx)
	if err != nil {
		return err
	}
	inputs, err := parseInputs(cfg.Input)
	if err != nil {
		return err
	}
	env := runtime.NewEnv()
	hooks, finish, err := tracerFromFlags(ctx, env)
	if err != nil {
		return err
	}
	if hooks != nil && len(inputs) > 1 {
		return errors.New("tracing a run with several inputs is not supported")
	}
	runtimeConfig := &runtime.Config{
		GasLimit:    cfg.Gas,
		ReadOnly:    cfg.ReadOnly,
		Parallelism: cfg.Parallel,
		Env:         env,
		EVMConfig: vm.Config{
			Tracer:    hooks,
			Fork:      cfg.Fork,
			ExtraEips: cfg.ExtraEips,
		},
	}
	log.Debug("Executing code", "size", len(code), "fork", cfg.Fork, "gas", cfg.Gas, "inputs", len(inputs))

	var (
		results []*runtime.Result
		start   = time.Now()
	)
	if len(inputs) == 1 {
		res, err := runtime.Run(code, inputs[0], runtimeConfig)
		if err != nil {
			return err
		}
		results = []*runtime.Result{res}
	} else if results, err = runtime.ExecuteParallel(code, inputs, runtimeConfig); err != nil {
		return err
	}
	elapsed := time.Since(start)
	log.Info("Execution finished", "runs", len(results), "elapsed", common.PrettyDuration(elapsed))

	if finish != nil {
		if err := finish(ctx.App.ErrWriter); err != nil {
			return err
		}
	}
	out := ctx.App.Writer
	for i, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(out, "run %d:\n", i)
		}
		printResult(out, res)
	}
	if ctx.Bool(StatsFlag.Name) {
		printStats(out, results, elapsed)
	}
	return nil
}

func printResult(w io.Writer, res *runtime.Result) {
	fmt.Fprintln(w, hexutil.Encode(res.Return))
	fmt.Fprintf(w, "gas used: %d\n", res.GasUsed)
	fmt.Fprintf(w, "status: %s\n", status(res.Reason))
	for _, addr := range res.Env.Deployed() {
		fmt.Fprintf(w, "deployed: %v (%d bytes)\n", addr, len(res.Env.Code(addr)))
	}
}

func status(reason vm.ExitReason) string {
	switch {
	case vm.IsSucceed(reason):
		return color.GreenString(reason.Error())
	case vm.IsRevert(reason):
		return color.YellowString(reason.Error())
	default:
		return color.RedString(reason.Error())
	}
}
