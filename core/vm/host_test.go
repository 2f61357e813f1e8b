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
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	testCaller  = common.HexToAddress("0xc0ffee")
	testAddress = common.HexToAddress("0xc0de")
)

type slotKey struct {
	addr common.Address
	key  common.Hash
}

type testLog struct {
	addr   common.Address
	topics []common.Hash
	data   []byte
}

// testHost is an in-memory host recording every opcode it observes.
type testHost struct {
	storage   map[slotKey]common.Hash
	transient map[slotKey]common.Hash
	warm      map[slotKey]bool
	logs      []testLog

	ops    []OpCode
	stacks [][]uint256.Int

	create func(m *Machine, initContainer, input []byte, value *uint256.Int, salt common.Hash, gas uint64) (common.Address, []byte, uint64, ExitReason)
}

func newTestHost() *testHost {
	return &testHost{
		storage:   make(map[slotKey]common.Hash),
		transient: make(map[slotKey]common.Hash),
		warm:      make(map[slotKey]bool),
	}
}

func (h *testHost) TraceOpcode(op OpCode, m *Machine) {
	h.ops = append(h.ops, op)
	h.stacks = append(h.stacks, slices.Clone(m.StackData()))
}

func (h *testHost) GetState(addr common.Address, key common.Hash) common.Hash {
	return h.storage[slotKey{addr, key}]
}

func (h *testHost) SetState(addr common.Address, key common.Hash, value common.Hash) {
	h.storage[slotKey{addr, key}] = value
}

func (h *testHost) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return h.transient[slotKey{addr, key}]
}

func (h *testHost) SetTransientState(addr common.Address, key common.Hash, value common.Hash) {
	h.transient[slotKey{addr, key}] = value
}

func (h *testHost) SlotInAccessList(addr common.Address, key common.Hash) bool {
	return h.warm[slotKey{addr, key}]
}

func (h *testHost) AddSlotToAccessList(addr common.Address, key common.Hash) {
	h.warm[slotKey{addr, key}] = true
}

func (h *testHost) AddLog(addr common.Address, topics []common.Hash, data []byte) {
	h.logs = append(h.logs, testLog{addr: addr, topics: topics, data: data})
}

func (h *testHost) EOFCreate(m *Machine, initContainer, input []byte, value *uint256.Int, salt common.Hash, gas uint64) (common.Address, []byte, uint64, ExitReason) {
	if h.create == nil {
		return common.Address{}, nil, gas, FatalNotSupported
	}
	return h.create(m, initContainer, input, value, salt, gas)
}

// traceHandler records opcodes without offering any host capability.
type traceHandler struct {
	ops []OpCode
}

func (h *traceHandler) TraceOpcode(op OpCode, m *Machine) {
	h.ops = append(h.ops, op)
}

// eofContainer encodes a container, falling back to a single section with a
// generous stack height when no types are given.
func eofContainer(t testing.TB, c Container) []byte {
	t.Helper()
	if c.Types == nil {
		c.Types = []TypeSection{{Inputs: 0, Outputs: 0x80, MaxStackHeight: 16}}
	}
	raw, err := c.MarshalBinary()
	require.NoError(t, err)
	return raw
}

// eofCode is eofContainer parsed into validated bytecode.
func eofCode(t testing.TB, c Container) *Bytecode {
	t.Helper()
	code, err := NewEOFBytecode(eofContainer(t, c))
	require.NoError(t, err)
	return code
}

// newTestMachine prepares a machine running code with the instruction set
// of the latest fork.
func newTestMachine(code *Bytecode, gas uint64) *Machine {
	contract := NewContract(testCaller, testAddress, nil, code)
	return NewMachine(contract, gas, newOsakaInstructionSet())
}

func stackOf(values ...uint64) []uint256.Int {
	stack := make([]uint256.Int, len(values))
	for i, v := range values {
		stack[i].SetUint64(v)
	}
	return stack
}
