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
	"math"

	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// maxReturnValueSize bounds the buffer ReturnValue materialises.
const maxReturnValueSize = math.MaxInt32

// ReturnRange is the half open interval of memory surfaced as return data.
type ReturnRange struct {
	Start uint256.Int
	End   uint256.Int
}

// MachineConfig bounds the stack and memory of a machine.
type MachineConfig struct {
	StackLimit  uint64
	MemoryLimit uint64
}

// returnFrame is an entry of the EOF return stack pushed by CALLF.
type returnFrame struct {
	section int
	pc      uint64
}

// Machine is the state of a single execution: call context, stack, memory,
// return data, gas and the sticky status. It is driven by Step and Run and is
// not safe for concurrent use; the Bytecode it runs may be shared.
type Machine struct {
	Contract         *Contract
	ReturnRange      ReturnRange
	Memory           *Memory
	Stack            *Stack
	ReturnDataBuffer []byte // Output of the most recent nested call.
	Gas              Gas
	Depth            int

	// Deployed is the runtime container produced by RETURNCONTRACT.
	Deployed []byte

	cursor       Cursor
	instructions Instructions
	status       ExitReason
	returnStack  []returnFrame
	steps        uint64
}

// NewMachine returns a machine with the default stack and memory limits.
func NewMachine(contract *Contract, gasLimit uint64, ins Instructions) *Machine {
	return NewMachineWithConfig(contract, gasLimit, ins, MachineConfig{})
}

// NewMachineWithConfig returns a machine bounded by cfg. Zero limits select
// the defaults.
func NewMachineWithConfig(contract *Contract, gasLimit uint64, ins Instructions, cfg MachineConfig) *Machine {
	if cfg.StackLimit == 0 {
		cfg.StackLimit = params.StackLimit
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = params.MemoryLimit
	}
	return &Machine{
		Contract:     contract,
		Memory:       NewMemory(cfg.MemoryLimit),
		Stack:        newstack(cfg.StackLimit),
		Gas:          NewGas(gasLimit),
		cursor:       NewCursor(contract.Code),
		instructions: ins,
	}
}

// Release hands the stack and memory back to their pools. The machine must
// not be used afterwards.
func (m *Machine) Release() {
	if m.Stack != nil {
		returnStack(m.Stack)
		m.Stack = nil
	}
	if m.Memory != nil {
		m.Memory.Free()
		m.Memory = nil
	}
}

// Cursor exposes the execution position to instructions.
func (m *Machine) Cursor() *Cursor { return &m.cursor }

// PC is the absolute program counter.
func (m *Machine) PC() uint64 { return m.cursor.PC() }

// Status is the terminal reason, nil while the machine is running.
func (m *Machine) Status() ExitReason { return m.status }

// Steps is the number of dispatched instructions.
func (m *Machine) Steps() uint64 { return m.steps }

// Run steps the machine until it terminates and returns the reason.
func (m *Machine) Run(h Handler) ExitReason {
	for {
		if reason := m.Step(h); reason != nil {
			return reason
		}
	}
}

// Step executes one instruction. It returns nil while the machine keeps
// running and the terminal reason once it has stopped; a stopped machine
// keeps reporting the same reason without dispatching.
func (m *Machine) Step(h Handler) ExitReason {
	if m.cursor.Done() {
		return m.halt()
	}
	op := OpCode(m.cursor.Opcode())
	if !op.IsDefined() {
		return m.halt()
	}
	h.TraceOpcode(op, m)

	if m.status != nil {
		return m.status
	}
	ctrl := m.instructions.Execute(m, op, m.cursor.PC(), h)
	m.steps++

	switch ctrl.Kind() {
	case ControlContinue:
		m.cursor.RelativeJump(1)
	case ControlContinueN:
		m.cursor.RelativeJump(int64(ctrl.N()))
	case ControlJump:
		if !m.cursor.Contains(ctrl.Target()) {
			m.status = ErrInvalidJump
			return m.status
		}
		m.cursor.AbsoluteJump(ctrl.Target())
	default:
		reason := ctrl.Reason()
		if reason == nil {
			reason = FatalInternal
		}
		m.status = reason
		return reason
	}
	return nil
}

// halt records the implicit stop at the end of code, or an undecodable
// opcode, unless the machine already stopped.
func (m *Machine) halt() ExitReason {
	if m.status == nil {
		m.status = Stopped
	}
	return m.status
}

// ReturnValue copies the bytes designated by the return range out of memory.
// A range starting beyond the addressable limit yields zeroes; a range ending
// beyond it is zero padded on the right.
func (m *Machine) ReturnValue() []byte {
	start, end := &m.ReturnRange.Start, &m.ReturnRange.End
	if !end.Gt(start) {
		return nil
	}
	length := new(uint256.Int).Sub(end, start)
	if !length.IsUint64() || length.Uint64() > maxReturnValueSize {
		return nil
	}
	var (
		size  = length.Uint64()
		limit = m.Memory.Limit()
	)
	switch {
	case !start.IsUint64() || start.Uint64() > limit:
		return make([]byte, size)
	case !end.IsUint64() || end.Uint64() > limit:
		ret := make([]byte, size)
		if data, from := m.Memory.Data(), start.Uint64(); from < uint64(len(data)) {
			copy(ret, data[from:min(limit, uint64(len(data)))])
		}
		return ret
	default:
		return m.Memory.GetCopy(start.Uint64(), size)
	}
}

// SetReturnRange designates size bytes of memory at offset as return data.
func (m *Machine) SetReturnRange(offset, size *uint256.Int) {
	m.ReturnRange.Start.Set(offset)
	m.ReturnRange.End.Add(offset, size)
	if m.ReturnRange.End.Lt(offset) {
		m.ReturnRange.End.SetAllOne()
	}
}

func (m *Machine) pushReturnFrame(frame returnFrame) bool {
	if len(m.returnStack) >= params.EOFReturnStackLimit {
		return false
	}
	m.returnStack = append(m.returnStack, frame)
	return true
}

func (m *Machine) popReturnFrame() (returnFrame, bool) {
	if len(m.returnStack) == 0 {
		return returnFrame{}, false
	}
	frame := m.returnStack[len(m.returnStack)-1]
	m.returnStack = m.returnStack[:len(m.returnStack)-1]
	return frame, true
}

// MemoryData returns the underlying memory slice. Callers must not modify the contents
// of the returned data.
func (m *Machine) MemoryData() []byte {
	if m.Memory == nil {
		return nil
	}
	return m.Memory.Data()
}

// StackData returns the stack data. Callers must not modify the contents
// of the returned data.
func (m *Machine) StackData() []uint256.Int {
	if m.Stack == nil {
		return nil
	}
	return m.Stack.Data()
}

// Caller returns the current caller.
func (m *Machine) Caller() common.Address {
	return m.Contract.Caller()
}

// Address returns the address where this scope of execution is taking place.
func (m *Machine) Address() common.Address {
	return m.Contract.Address()
}

// CallValue returns the value supplied with this call.
func (m *Machine) CallValue() *uint256.Int {
	return m.Contract.Value()
}

// CallInput returns the input/calldata with this call. Callers must not modify
// the contents of the returned data.
func (m *Machine) CallInput() []byte {
	return m.Contract.Input
}

// ContractCode returns the code of the contract being executed.
func (m *Machine) ContractCode() []byte {
	return m.Contract.Code.Bytes()
}
