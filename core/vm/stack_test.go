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

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestStackOperations(t *testing.T) {
	st := newstack(16)
	defer returnStack(st)

	for i := uint64(1); i <= 4; i++ {
		st.Push(uint256.NewInt(i))
	}
	assert.Equal(t, stackOf(1, 2, 3, 4), st.Data())
	assert.Equal(t, uint64(4), st.Peek().Uint64())
	assert.Equal(t, uint64(3), st.Back(1).Uint64())

	st.Swap(1)
	assert.Equal(t, stackOf(1, 2, 4, 3), st.Data())
	st.Swap(3)
	assert.Equal(t, stackOf(3, 2, 4, 1), st.Data())

	st.Dup(1)
	assert.Equal(t, stackOf(3, 2, 4, 1, 1), st.Data())
	st.Dup(5)
	assert.Equal(t, stackOf(3, 2, 4, 1, 1, 3), st.Data())

	v := st.Pop()
	assert.Equal(t, uint64(3), v.Uint64())
	assert.Equal(t, 5, st.Len())
}

func TestStackRequire(t *testing.T) {
	st := newstack(3)
	defer returnStack(st)
	st.Push(uint256.NewInt(1))
	st.Push(uint256.NewInt(2))

	assert.Nil(t, st.Require(2, 1))
	assert.Nil(t, st.Require(0, 1))
	assert.Equal(t, ErrStackUnderflow, st.Require(3, 0))
	assert.Equal(t, ErrStackOverflow, st.Require(0, 2))
	assert.Equal(t, ErrStackOverflow, st.Require(1, 3))
	assert.Equal(t, 3, st.Limit())
}

func TestStackPoolReset(t *testing.T) {
	st := newstack(4)
	st.Push(uint256.NewInt(1))
	returnStack(st)

	st = newstack(8)
	defer returnStack(st)
	assert.Zero(t, st.Len())
	assert.Equal(t, 8, st.Limit())
}

func BenchmarkStack(b *testing.B) {
	st := newstack(1024)
	defer returnStack(st)
	v := uint256.NewInt(1234)
	for i := 0; i < b.N; i++ {
		st.Push(v)
		st.Pop()
	}
}
