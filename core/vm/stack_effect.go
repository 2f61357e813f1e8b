// Copyright 2025 The go-ethereum Authors
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

import "sync"

var (
	stackCountsOnce  sync.Once
	stackCountsTable *JumpTable
)

// OpStackCounts returns the number of values popped from and pushed to the stack
// by the given opcode under the latest rule set. Opcodes with immediate stack
// arguments (DUPN, SWAPN, EXCHANGE) check their bounds at runtime and report
// zero here.
func OpStackCounts(op OpCode) (pops int, pushes int) {
	stackCountsOnce.Do(func() {
		stackCountsTable = newOsakaInstructionSet()
	})
	entry := stackCountsTable[op]
	if entry.undefined {
		return 0, 0
	}
	return entry.pops, entry.pushes
}

// NextStackSize computes the stack height after executing the given opcode,
// given the current stack height before execution.
func NextStackSize(op OpCode, before int) int {
	pops, pushes := OpStackCounts(op)
	return before - pops + pushes
}
