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

package vm

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeBitmap(t *testing.T) {
	tests := []struct {
		code  []byte
		exp   byte
		which int
	}{
		{[]byte{byte(PUSH1), 0x01, 0x01, 0x01}, 0b0000_0010, 0},
		{[]byte{byte(PUSH1), byte(PUSH1), byte(PUSH1), byte(PUSH1)}, 0b0000_1010, 0},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1)}, 0b0101_0100, 0},
		{[]byte{byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), 0x01, 0x01, 0x01}, bits.Reverse8(0x7F), 0},
		{[]byte{byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0001, 1},
		{[]byte{0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH2), byte(PUSH2), byte(PUSH2), 0x01, 0x01, 0x01}, 0b1100_0000, 0},
		{[]byte{byte(PUSH3), 0x01, 0x01, 0x01, byte(PUSH1), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0010_1110, 0},
		{[]byte{0x01, byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0011, 1},
		{[]byte{byte(PUSH16), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0001, 2},
		{[]byte{byte(PUSH32)}, 0b1111_1110, 0},
		{[]byte{byte(PUSH32)}, 0b1111_1111, 3},
		{[]byte{byte(PUSH32)}, 0b0000_0001, 4},
	}
	for i, tt := range tests {
		ret := codeBitmap(tt.code)
		assert.Equal(t, tt.exp, ret[tt.which], "test %d", i)
	}
}

func TestEOFCodeBitmap(t *testing.T) {
	tests := []struct {
		code  []byte
		exp   byte
		which int
	}{
		{[]byte{byte(RJUMP), 0x01, 0x01, 0x01}, 0b0000_0110, 0},
		{[]byte{byte(RJUMPI), byte(RJUMP), byte(RJUMP), byte(RJUMPI)}, 0b0011_0110, 0},
		{[]byte{byte(RJUMPV), 0x02, byte(RJUMP), 0x00, byte(RJUMPI), 0x00}, 0b0011_1110, 0},
		{[]byte{byte(DUPN), 0x01, byte(CALLF), 0x00, 0x00, byte(RETF)}, 0b0001_1010, 0},
		{[]byte{byte(RJUMPV)}, 0b0000_0000, 0},
	}
	for i, tt := range tests {
		ret := eofCodeBitmap(tt.code)
		assert.Equal(t, tt.exp, ret[tt.which], "test %d", i)
	}
}

func TestJumpDestTable(t *testing.T) {
	// JUMPDEST PUSH2 0x5b5b JUMPDEST PUSH1 JUMPDEST
	code := []byte{byte(JUMPDEST), byte(PUSH2), 0x5b, 0x5b, byte(JUMPDEST), byte(PUSH1), byte(JUMPDEST)}
	table := AnalyzeJumpDests(code)

	for pc, want := range []bool{true, false, false, false, true, false, false} {
		assert.Equal(t, want, table.IsValid(uint64(pc)), "pc %d", pc)
	}
	assert.False(t, table.IsValid(1<<20))

	restored := JumpDestTableFromBytes(table.Bytes())
	for pc := range code {
		assert.Equal(t, table.IsValid(uint64(pc)), restored.IsValid(uint64(pc)))
	}
}

func TestImmediates(t *testing.T) {
	assert.Equal(t, 0, Immediates(ADD))
	assert.Equal(t, 1, Immediates(PUSH1))
	assert.Equal(t, 32, Immediates(PUSH32))
	assert.Equal(t, 2, Immediates(RJUMP))
	assert.Equal(t, 3, Immediates(RJUMPV))
	assert.Equal(t, 1, Immediates(EXCHANGE))
	assert.Equal(t, 2, Immediates(DATALOADN))
}

const analysisCodeSize = 1200 * 1024

func BenchmarkJumpdestAnalysis_1200k(b *testing.B) {
	code := make([]byte, analysisCodeSize)
	b.SetBytes(analysisCodeSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AnalyzeJumpDests(code)
	}
}
