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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpStackCounts(t *testing.T) {
	tests := []struct {
		op     OpCode
		pops   int
		pushes int
	}{
		{STOP, 0, 0},
		{ADD, 2, 1},
		{ADDMOD, 3, 1},
		{PUSH0, 0, 1},
		{PUSH32, 0, 1},
		{DUP16, 16, 17},
		{SWAP16, 17, 17},
		{LOG4, 6, 0},
		{MCOPY, 3, 0},
		{RJUMPI, 1, 0},
		{CALLF, 0, 0},
		{DUPN, 0, 0},
		{EOFCREATE, 4, 1},
		{RETURNCONTRACT, 2, 0},
		{OpCode(0x0c), 0, 0},
	}
	for _, tt := range tests {
		pops, pushes := OpStackCounts(tt.op)
		assert.Equal(t, tt.pops, pops, "%v pops", tt.op)
		assert.Equal(t, tt.pushes, pushes, "%v pushes", tt.op)
	}
}

func TestNextStackSize(t *testing.T) {
	assert.Equal(t, 1, NextStackSize(ADD, 2))
	assert.Equal(t, 3, NextStackSize(DUP1, 2))
	assert.Equal(t, -1, NextStackSize(POP, 0))
}
