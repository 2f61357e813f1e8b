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
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode"

	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/params"
	"github.com/naoina/toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	defaultGas       = 10_000_000_000
	defaultVerbosity = 3
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// runConfig holds the settings of the run command. A TOML file supplies the
// defaults, command line flags override them.
type runConfig struct {
	Gas       uint64
	Fork      params.Fork
	ExtraEips []int
	Input     string
	ReadOnly  bool
	Parallel  int

	Verbosity int
	LogFile   string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Gas:       defaultGas,
		Fork:      params.LatestFork,
		Verbosity: defaultVerbosity,
	}
}

func loadConfig(file string, cfg *runConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeRunConfig loads the config file, if any, and applies the flags the user
// set explicitly.
func makeRunConfig(ctx *cli.Context) (runConfig, error) {
	cfg := defaultRunConfig()
	if file := ctx.String(ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(GasFlag.Name) {
		cfg.Gas = ctx.Uint64(GasFlag.Name)
	}
	if ctx.IsSet(ForkFlag.Name) {
		fork, err := params.ParseFork(ctx.String(ForkFlag.Name))
		if err != nil {
			return cfg, err
		}
		cfg.Fork = fork
	}
	if ctx.IsSet(ExtraEipsFlag.Name) {
		cfg.ExtraEips = ctx.IntSlice(ExtraEipsFlag.Name)
	}
	if ctx.IsSet(InputFlag.Name) {
		cfg.Input = ctx.String(InputFlag.Name)
	}
	if ctx.IsSet(ReadOnlyFlag.Name) {
		cfg.ReadOnly = ctx.Bool(ReadOnlyFlag.Name)
	}
	if ctx.IsSet(ParallelFlag.Name) {
		cfg.Parallel = ctx.Int(ParallelFlag.Name)
	}
	if ctx.IsSet(VerbosityFlag.Name) {
		cfg.Verbosity = ctx.Int(VerbosityFlag.Name)
	}
	if ctx.IsSet(LogFileFlag.Name) {
		cfg.LogFile = ctx.String(LogFileFlag.Name)
	}
	for _, eip := range cfg.ExtraEips {
		if !vm.ValidEip(eip) {
			return cfg, errors.Errorf("unknown eip %d (available: %s)", eip, strings.Join(vm.ActivateableEips(), ", "))
		}
	}
	return cfg, nil
}

// dumpConfig writes cfg in TOML form.
func dumpConfig(cfg runConfig) ([]byte, error) {
	return tomlSettings.Marshal(&cfg)
}
