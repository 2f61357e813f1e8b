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

package vm

import (
	"github.com/pkg/errors"
)

// Below are the possible errors of EOF code validation.
var (
	errUndefinedInstruction   = errors.New("undefined instruction")
	errTruncatedImmediate     = errors.New("truncated immediate")
	errInvalidSectionArgument = errors.New("invalid section argument")
	errInvalidCallArgument    = errors.New("callf into non-returning section")
	errInvalidDataloadNArg    = errors.New("invalid dataloadN argument")
	errInvalidJumpDest        = errors.New("invalid jump destination")
	errInvalidOutputs         = errors.New("invalid number of outputs")
	errInvalidCodeTermination = errors.New("invalid code termination")
	errInvalidSubContainer    = errors.New("invalid sub container argument")
	errInvalidMaxStackHeight  = errors.New("invalid max stack height")
	errTruncatedEOFCreate     = errors.New("eofcreate with truncated section")
)

// legacyOnly are the opcodes that have no meaning inside EOF code.
var legacyOnly = [256]bool{
	CALL: true, CALLCODE: true, DELEGATECALL: true, STATICCALL: true,
	SELFDESTRUCT: true, JUMP: true, JUMPI: true, PC: true, GAS: true,
	CREATE: true, CREATE2: true, CODESIZE: true, CODECOPY: true,
	EXTCODESIZE: true, EXTCODECOPY: true, EXTCODEHASH: true,
}

// validEOFOpcode reports whether op may appear in EOF code.
func validEOFOpcode(op OpCode) bool {
	return op.IsDefined() && !legacyOnly[op]
}

// ValidateCode checks every code section of c, then every sub container,
// establishing the guarantees the cursor relies on when reading immediates
// and jumping inside a section.
func (c *Container) ValidateCode() error {
	for i, code := range c.Code {
		if err := validateCode(code, i, c); err != nil {
			return errors.Wrapf(err, "code section %d", i)
		}
	}
	for i, raw := range c.SubContainers {
		var sub Container
		if err := sub.UnmarshalSubContainer(raw); err != nil {
			return errors.Wrapf(err, "sub container %d", i)
		}
		if err := sub.ValidateCode(); err != nil {
			return errors.Wrapf(err, "sub container %d", i)
		}
	}
	return nil
}

// validateCode validates the code parameter against the EOF v1 validity requirements.
func validateCode(code []byte, section int, container *Container) error {
	var (
		i        = 0
		op       OpCode
		analysis bitvec
	)
	// This loop visits every single instruction and verifies:
	// * if the instruction is valid inside EOF code.
	// * if the instruction has an immediate value, it is not truncated.
	// * if performing a relative jump, all jump destinations are valid.
	// * if changing code sections, the new code section index is valid.
	for i < len(code) {
		op = OpCode(code[i])
		if !validEOFOpcode(op) {
			return errors.Wrapf(errUndefinedInstruction, "op %s, pos %d", op, i)
		}
		size := Immediates(op)
		if size != 0 && len(code) <= i+size {
			return errors.Wrapf(errTruncatedImmediate, "op %s, pos %d", op, i)
		}
		switch op {
		case RJUMP, RJUMPI:
			if err := checkDest(code, &analysis, i+1, i+3); err != nil {
				return err
			}
		case RJUMPV:
			count := int(code[i+1]) + 1
			size = 1 + 2*count
			if len(code) <= i+size {
				return errors.Wrapf(errTruncatedImmediate, "jump table truncated, op %s, pos %d", op, i)
			}
			from := i + 1 + size
			for j := 0; j < count; j++ {
				if err := checkDest(code, &analysis, i+2+j*2, from); err != nil {
					return err
				}
			}
		case CALLF:
			arg := parseUint16(code[i+1:])
			if arg >= len(container.Types) {
				return errors.Wrapf(errInvalidSectionArgument, "arg %d, last %d, pos %d", arg, len(container.Types), i)
			}
			if container.Types[arg].NonReturning() {
				return errors.Wrapf(errInvalidCallArgument, "section %v", arg)
			}
		case JUMPF:
			arg := parseUint16(code[i+1:])
			if arg >= len(container.Types) {
				return errors.Wrapf(errInvalidSectionArgument, "arg %d, last %d, pos %d", arg, len(container.Types), i)
			}
			target, current := container.Types[arg], container.Types[section]
			if !target.NonReturning() && target.Outputs > current.Outputs {
				return errors.Wrapf(errInvalidOutputs, "arg %d, pos %d", arg, i)
			}
		case DATALOADN:
			arg := parseUint16(code[i+1:])
			if arg+32 > container.declaredDataSize() {
				return errors.Wrapf(errInvalidDataloadNArg, "arg %d, last %d, pos %d", arg, container.declaredDataSize(), i)
			}
		case EOFCREATE, RETURNCONTRACT:
			arg := int(code[i+1])
			if arg >= len(container.SubContainers) {
				return errors.Wrapf(errInvalidSubContainer, "op %s, arg %d, last %d, pos %d", op, arg, len(container.SubContainers), i)
			}
			if op == EOFCREATE {
				var sub Container
				if err := sub.UnmarshalSubContainer(container.SubContainers[arg]); err == nil && sub.Truncated() {
					return errors.Wrapf(errTruncatedEOFCreate, "container %d, have %d, claimed %d, pos %d", arg, len(sub.Data), sub.DataSize, i)
				}
			}
		}
		i += size + 1
	}
	// Code sections may not "fall through" and require proper termination.
	// Therefore, the last instruction must be considered terminal or RJUMP.
	if !terminals[op] && op != RJUMP {
		return errors.Wrapf(errInvalidCodeTermination, "end with %s, pos %d", op, i)
	}
	return validateStackHeight(code, section, container)
}

// validateStackHeight follows every path reachable from the section entry and
// checks that none grows the stack beyond the declared max_stack_height.
// Underflows are left to the runtime checks.
func validateStackHeight(code []byte, section int, container *Container) error {
	var (
		typ     = container.Types[section]
		limit   = int(typ.MaxStackHeight)
		heights = make([]int, len(code))
		seen    = make([]bool, len(code))
		work    = make([]int, 0, len(code))
	)
	visit := func(pos, height int) error {
		if seen[pos] && heights[pos] >= height {
			return nil
		}
		if height > limit {
			return errors.Wrapf(errInvalidMaxStackHeight, "height %d, max %d, pos %d", height, limit, pos)
		}
		seen[pos], heights[pos] = true, height
		work = append(work, pos)
		return nil
	}
	if err := visit(0, int(typ.Inputs)); err != nil {
		return err
	}
	for len(work) > 0 {
		pos := work[len(work)-1]
		work = work[:len(work)-1]

		op, height := OpCode(code[pos]), heights[pos]
		switch op {
		case CALLF:
			target := container.Types[parseUint16(code[pos+1:])]
			height += int(target.Outputs) - int(target.Inputs)
		case DUPN:
			height++
		default:
			height = NextStackSize(op, height)
		}
		if terminals[op] {
			continue
		}
		next := pos + 1 + Immediates(op)
		switch op {
		case RJUMP:
			if err := visit(next+parseInt16(code[pos+1:]), height); err != nil {
				return err
			}
			continue
		case RJUMPI:
			if err := visit(next+parseInt16(code[pos+1:]), height); err != nil {
				return err
			}
		case RJUMPV:
			count := int(code[pos+1]) + 1
			next = pos + 2 + 2*count
			for j := 0; j < count; j++ {
				if err := visit(next+parseInt16(code[pos+2+2*j:]), height); err != nil {
					return err
				}
			}
		}
		if err := visit(next, height); err != nil {
			return err
		}
	}
	return nil
}

// checkDest parses a relative offset at code[imm:imm+2] and checks if it is a
// valid jump destination.
func checkDest(code []byte, analysis *bitvec, imm, from int) error {
	if len(code) < imm+2 {
		return errors.Wrapf(errTruncatedImmediate, "pos %d", imm)
	}
	if *analysis == nil {
		*analysis = eofCodeBitmap(code)
	}
	offset := parseInt16(code[imm:])
	dest := from + offset
	if dest < 0 || dest >= len(code) {
		return errors.Wrapf(errInvalidJumpDest, "out-of-bounds offset: offset %d, dest %d, pos %d", offset, dest, imm)
	}
	if !analysis.codeSegment(uint64(dest)) {
		return errors.Wrapf(errInvalidJumpDest, "offset into immediate: offset %d, dest %d, pos %d", offset, dest, imm)
	}
	return nil
}
