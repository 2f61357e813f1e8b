// Copyright 2014 The go-ethereum Authors
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
	"sync"

	"github.com/holiman/uint256"
)

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// Stack is an object for basic stack operations. Items popped to the stack are
// expected to be changed and modified. stack does not take care of adding newly
// initialized objects.
type Stack struct {
	data  []uint256.Int
	limit int
}

// newstack returns a pooled stack bounded to limit items.
func newstack(limit uint64) *Stack {
	st := stackPool.Get().(*Stack)
	st.limit = int(limit)
	return st
}

func returnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

// Data returns the underlying uint256.Int array.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

// Limit is the maximum number of items the stack holds.
func (st *Stack) Limit() int {
	return st.limit
}

// Push places d on top of the stack. Capacity is checked by Require or by the
// instruction set's stack bounds before an instruction runs.
func (st *Stack) Push(d *uint256.Int) {
	st.data = append(st.data, *d)
}

// Pop removes and returns the top item.
func (st *Stack) Pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) Len() int {
	return len(st.data)
}

// Swap exchanges the top item with the n-th item below it.
func (st *Stack) Swap(n int) {
	st.data[st.Len()-n-1], st.data[st.Len()-1] = st.data[st.Len()-1], st.data[st.Len()-n-1]
}

// Dup pushes a copy of the n-th item from the top.
func (st *Stack) Dup(n int) {
	st.Push(&st.data[st.Len()-n])
}

// Peek returns the top item in place.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[st.Len()-1]
}

// Back returns the n'th item in stack
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[st.Len()-n-1]
}

// Require reports the fault an instruction popping pops items and then
// pushing pushes items would raise.
func (st *Stack) Require(pops, pushes int) ExitReason {
	if st.Len() < pops {
		return ErrStackUnderflow
	}
	if st.Len()-pops+pushes > st.limit {
		return ErrStackOverflow
	}
	return nil
}
