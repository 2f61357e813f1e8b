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
	"fmt"

	"github.com/bnb-chain/evmcore/core/asm"
	"github.com/urfave/cli/v2"
)

func disasmCmd(ctx *cli.Context) error {
	code, err := readCode(ctx)
	if err != nil {
		return err
	}
	lines, err := asm.Disassemble(hex.EncodeToString(code))
	for _, line := range lines {
		fmt.Fprintln(ctx.App.Writer, line)
	}
	return err
}

func dumpConfigCmd(ctx *cli.Context) error {
	cfg, err := makeRunConfig(ctx)
	if err != nil {
		return err
	}
	out, err := dumpConfig(cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
