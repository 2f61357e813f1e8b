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

// immediates holds the fixed immediate width of each opcode. RJUMPV has a
// variable-size operand, its entry is the minimum.
var immediates [256]uint8

// terminals are the instructions that may end an EOF code section.
var terminals [256]bool

func init() {
	for op := PUSH1; op <= PUSH32; op++ {
		immediates[op] = uint8(op - PUSH1 + 1)
	}
	immediates[DATALOADN] = 2
	immediates[RJUMP] = 2
	immediates[RJUMPI] = 2
	immediates[RJUMPV] = 3
	immediates[CALLF] = 2
	immediates[JUMPF] = 2
	immediates[DUPN] = 1
	immediates[SWAPN] = 1
	immediates[EXCHANGE] = 1
	immediates[EOFCREATE] = 1
	immediates[RETURNCONTRACT] = 1

	for _, op := range []OpCode{STOP, RETF, JUMPF, RETURNCONTRACT, RETURN, REVERT, INVALID} {
		terminals[op] = true
	}
}

// Immediates returns the number of immediate bytes following op.
func Immediates(op OpCode) int {
	return int(immediates[op])
}

// eofCodeBitmap collects data locations in code.
func eofCodeBitmap(code []byte) bitvec {
	// The bitmap is 4 bytes longer than necessary, in case the code
	// ends with a PUSH32, the algorithm will push zeroes onto the
	// bitvector outside the bounds of the actual code.
	bits := make(bitvec, len(code)/8+1+4)
	return eofCodeBitmapInternal(code, bits)
}

// eofCodeBitmapInternal is the internal implementation of codeBitmap for EOF
// code validation.
func eofCodeBitmapInternal(code, bits bitvec) bitvec {
	for pc := uint64(0); pc < uint64(len(code)); {
		var (
			op      = OpCode(code[pc])
			numbits uint16
		)
		pc++

		if op == RJUMPV {
			// RJUMPV is unique as it has a variable sized operand.
			// The total size is determined by the count byte which
			// immediate follows RJUMPV. Truncation will be caught
			// in other validation steps -- for now, just return a
			// valid bitmap for as much of the code as is
			// available.
			end := uint64(len(code))
			if pc >= end {
				// Count missing, no more bits to mark.
				return bits
			}
			numbits = uint16(code[pc])*2 + 3
			if pc+uint64(numbits) > end {
				// Jump table is truncated, mark as many bits
				// as possible.
				numbits = uint16(end - pc)
			}
		} else {
			numbits = uint16(Immediates(op))
			if numbits == 0 {
				continue
			}
		}
		pc = bits.markImmediates(pc, numbits)
	}
	return bits
}
