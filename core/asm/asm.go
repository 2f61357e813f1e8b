// Copyright 2017 The go-ethereum Authors
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

// Package asm provides support for dealing with EVM assembly instructions
// (e.g., disassembling them).
package asm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/pkg/errors"
)

// Iterator for disassembled EVM instructions
type instructionIterator struct {
	code       []byte
	pc         uint64
	arg        []byte
	op         vm.OpCode
	error      error
	started    bool
	eofEnabled bool
}

// NewInstructionIterator creates a new instruction iterator over legacy code.
func NewInstructionIterator(code []byte) *instructionIterator {
	it := new(instructionIterator)
	it.code = code
	return it
}

// NewEOFInstructionIterator creates a new instruction iterator over a single
// EOF code section.
func NewEOFInstructionIterator(code []byte) *instructionIterator {
	it := NewInstructionIterator(code)
	it.eofEnabled = true
	return it
}

// Next returns true if there is a next instruction and moves on.
func (it *instructionIterator) Next() bool {
	if it.error != nil || uint64(len(it.code)) <= it.pc {
		// We previously reached an error or the end.
		return false
	}

	if it.started {
		// Since the iteration has been already started we move to the next instruction.
		if it.arg != nil {
			it.pc += uint64(len(it.arg))
		}
		it.pc++
	} else {
		// We start the iteration from the first instruction.
		it.started = true
	}

	if uint64(len(it.code)) <= it.pc {
		// We reached the end.
		return false
	}

	it.op = vm.OpCode(it.code[it.pc])
	var a int
	switch {
	case !it.eofEnabled:
		if it.op.IsPush() {
			a = int(it.op) - int(vm.PUSH0)
		}
	case it.op == vm.RJUMPV:
		// The jump table size follows the opcode as max_index.
		if uint64(len(it.code)) <= it.pc+1 {
			it.error = errors.Errorf("incomplete instruction at %v", it.pc)
			return false
		}
		a = (int(it.code[it.pc+1])+1)*2 + 1
	default:
		a = vm.Immediates(it.op)
	}
	if a > 0 {
		u := it.pc + 1 + uint64(a)
		if uint64(len(it.code)) < u {
			it.error = errors.Errorf("incomplete instruction at %v", it.pc)
			return false
		}
		it.arg = it.code[it.pc+1 : u]
	} else {
		it.arg = nil
	}
	return true
}

// Error returns any error that may have been encountered.
func (it *instructionIterator) Error() error {
	return it.error
}

// PC returns the PC of the current instruction.
func (it *instructionIterator) PC() uint64 {
	return it.pc
}

// Op returns the opcode of the current instruction.
func (it *instructionIterator) Op() vm.OpCode {
	return it.op
}

// Arg returns the argument of the current instruction.
func (it *instructionIterator) Arg() []byte {
	return it.arg
}

// Line formats the current instruction the way the disassembler prints it.
func (it *instructionIterator) Line() string {
	if it.arg != nil && 0 < len(it.arg) {
		return fmt.Sprintf("%05x: %v %#x", it.pc, it.op, it.arg)
	}
	return fmt.Sprintf("%05x: %v", it.pc, it.op)
}

// PrintDisassembled pretty-print all disassembled EVM instructions to stdout.
func PrintDisassembled(code string) error {
	lines, err := Disassemble(code)
	for _, line := range lines {
		fmt.Println(line)
	}
	return err
}

// Disassemble returns all disassembled EVM instructions in human-readable
// format. Code carrying the EOF magic is disassembled per section.
func Disassemble(code string) ([]string, error) {
	script, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(code), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex code")
	}
	if vm.HasEOFMagic(script) {
		return DisassembleContainer(script)
	}
	return disassembleSection(NewInstructionIterator(script), "")
}

// DisassembleContainer decodes an EOF container and disassembles each of its
// code sections, followed by a summary of the subcontainers and data.
func DisassembleContainer(b []byte) ([]string, error) {
	var c vm.Container
	if err := c.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	var out []string
	for i, code := range c.Code {
		typ := c.Types[i]
		out = append(out, fmt.Sprintf("section %d: inputs=%d outputs=%d max_stack=%d", i, typ.Inputs, typ.Outputs, typ.MaxStackHeight))
		lines, err := disassembleSection(NewEOFInstructionIterator(code), "  ")
		out = append(out, lines...)
		if err != nil {
			return out, errors.Wrapf(err, "section %d", i)
		}
	}
	for i, sub := range c.SubContainers {
		out = append(out, fmt.Sprintf("container %d: %d bytes", i, len(sub)))
	}
	if len(c.Data) > 0 {
		out = append(out, fmt.Sprintf("data: %#x", c.Data))
	}
	return out, nil
}

func disassembleSection(it *instructionIterator, indent string) ([]string, error) {
	var out []string
	for it.Next() {
		out = append(out, indent+it.Line())
	}
	return out, it.Error()
}
