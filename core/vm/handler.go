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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Handler is the capability a machine runs with. Hosts that give opcodes
// access to the outside world additionally implement StorageHost, LogHost or
// ContainerHost.
type Handler interface {
	// TraceOpcode observes the machine right before op is dispatched. It
	// must not change the machine.
	TraceOpcode(op OpCode, m *Machine)
}

// Instructions dispatches a single opcode and reports how the cursor moves.
type Instructions interface {
	Execute(m *Machine, op OpCode, pc uint64, h Handler) Control
}

// InstructionsFunc adapts a plain function to Instructions.
type InstructionsFunc func(m *Machine, op OpCode, pc uint64, h Handler) Control

func (f InstructionsFunc) Execute(m *Machine, op OpCode, pc uint64, h Handler) Control {
	return f(m, op, pc, h)
}

// NoopHandler observes nothing and offers no host access.
type NoopHandler struct{}

func (NoopHandler) TraceOpcode(OpCode, *Machine) {}

// StorageHost gives access to persistent and transient contract storage.
type StorageHost interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetTransientState(addr common.Address, key common.Hash) common.Hash
	SetTransientState(addr common.Address, key common.Hash, value common.Hash)

	// SlotInAccessList reports whether a slot was accessed before.
	SlotInAccessList(addr common.Address, key common.Hash) bool
	// AddSlotToAccessList marks a slot as accessed.
	AddSlotToAccessList(addr common.Address, key common.Hash)
}

// LogHost collects emitted logs.
type LogHost interface {
	AddLog(addr common.Address, topics []common.Hash, data []byte)
}

// ContainerHost runs nested EOF containers.
type ContainerHost interface {
	// EOFCreate runs initContainer with input as a fresh machine and deploys
	// the container it returns. It reports the new address (zero on
	// failure), the output of the run and the unspent part of gas.
	EOFCreate(m *Machine, initContainer []byte, input []byte, value *uint256.Int, salt common.Hash, gas uint64) (addr common.Address, ret []byte, gasLeft uint64, reason ExitReason)
}
