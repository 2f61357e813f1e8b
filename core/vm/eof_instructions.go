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
	"github.com/bnb-chain/evmcore/params"
	"github.com/holiman/uint256"
)

// eofJump prepares a relative jump of off bytes measured from next, the
// offset of the instruction following the jump.
func eofJump(next uint64, off int16) Control {
	target := int64(next) + int64(off)
	if target < 0 {
		return Exit(ErrInvalidJump)
	}
	return Jump(uint64(target))
}

// opRjump implements the RJUMP opcode.
func opRjump(pc uint64, m *Machine, h Handler) Control {
	return eofJump(pc+3, m.Cursor().ReadI16())
}

// opRjumpi implements the RJUMPI opcode
func opRjumpi(pc uint64, m *Machine, h Handler) Control {
	condition := m.Stack.Pop()
	if condition.IsZero() {
		return ContinueN(3)
	}
	return eofJump(pc+3, m.Cursor().ReadI16())
}

// opRjumpv implements the RJUMPV opcode
func opRjumpv(pc uint64, m *Machine, h Handler) Control {
	var (
		cursor   = m.Cursor()
		count    = uint64(cursor.ReadU8()) + 1
		tableEnd = 2 + 2*count
		idx      = m.Stack.Pop()
	)
	if !idx.LtUint64(count) {
		// Index out-of-bounds, don't branch, just skip over immediate
		// argument.
		return ContinueN(uint32(tableEnd))
	}
	off := cursor.ReadOffsetI16(1 + 2*int(idx.Uint64()))
	return eofJump(pc+tableEnd, off)
}

// enterSection checks the stack needed by code section idx and activates it.
func enterSection(m *Machine, idx int) Control {
	typ, ok := m.Contract.Code.TypeSection(idx)
	if !ok {
		return Exit(ErrInvalidSection)
	}
	if m.Stack.Len() < int(typ.Inputs) {
		return Exit(ErrStackUnderflow)
	}
	if m.Stack.Len()+int(typ.MaxStackHeight)-int(typ.Inputs) > m.Stack.Limit() {
		return Exit(ErrStackOverflow)
	}
	start, ok := m.Cursor().SwitchSection(idx)
	if !ok {
		return Exit(ErrInvalidSection)
	}
	return Jump(start)
}

// opCallf implements the CALLF opcode
func opCallf(pc uint64, m *Machine, h Handler) Control {
	cursor := m.Cursor()
	if !m.pushReturnFrame(returnFrame{section: cursor.Section(), pc: pc + 3}) {
		return Exit(ErrReturnStackExceeded)
	}
	ctrl := enterSection(m, int(cursor.ReadU16()))
	if ctrl.Kind() == ControlExit {
		m.popReturnFrame()
	}
	return ctrl
}

// opRetf implements the RETF opcode
func opRetf(pc uint64, m *Machine, h Handler) Control {
	frame, ok := m.popReturnFrame()
	if !ok {
		return Exit(ErrInvalidSection)
	}
	if _, ok := m.Cursor().SwitchSection(frame.section); !ok {
		return Exit(ErrInvalidSection)
	}
	return Jump(frame.pc)
}

// opJumpf implements the JUMPF opcode
func opJumpf(pc uint64, m *Machine, h Handler) Control {
	return enterSection(m, int(m.Cursor().ReadU16()))
}

// opDataLoad implements the DATALOAD opcode
func opDataLoad(pc uint64, m *Machine, h Handler) Control {
	data, err := m.Contract.Code.Data()
	if err != nil {
		return Exit(ErrInvalidDataAccess)
	}
	x := m.Stack.Peek()
	offset, overflow := x.Uint64WithOverflow()
	if overflow {
		x.Clear()
		return Continue()
	}
	x.SetBytes(getData(data, offset, 32))
	return Continue()
}

// opDataLoadN implements the DATALOADN opcode
func opDataLoadN(pc uint64, m *Machine, h Handler) Control {
	offset := int(m.Cursor().ReadU16())
	data, err := m.Contract.Code.DataSlice(offset, 32)
	if err != nil {
		return Exit(ErrInvalidDataAccess)
	}
	m.Stack.Push(new(uint256.Int).SetBytes(data))
	return ContinueN(3)
}

// opDataSize implements the DATASIZE opcode
func opDataSize(pc uint64, m *Machine, h Handler) Control {
	size, err := m.Contract.Code.DataSize()
	if err != nil {
		return Exit(ErrInvalidDataAccess)
	}
	m.Stack.Push(new(uint256.Int).SetUint64(uint64(size)))
	return Continue()
}

// opDataCopy implements the DATACOPY opcode
func opDataCopy(pc uint64, m *Machine, h Handler) Control {
	var (
		memOffset = m.Stack.Pop()
		offset    = m.Stack.Pop()
		size      = m.Stack.Pop()
	)
	data, err := m.Contract.Code.Data()
	if err != nil {
		return Exit(ErrInvalidDataAccess)
	}
	offset64, overflow := offset.Uint64WithOverflow()
	if overflow {
		offset64 = 0xffffffffffffffff
	}
	// These values are checked for validity during charging
	m.Memory.Set(memOffset.Uint64(), size.Uint64(), getData(data, offset64, size.Uint64()))
	return Continue()
}

// opDupN implements the DUPN opcode
func opDupN(pc uint64, m *Machine, h Handler) Control {
	n := int(m.Cursor().ReadU8()) + 1
	if reason := m.Stack.Require(n, n+1); reason != nil {
		return Exit(reason)
	}
	m.Stack.Dup(n)
	return ContinueN(2)
}

// opSwapN implements the SWAPN opcode
func opSwapN(pc uint64, m *Machine, h Handler) Control {
	n := int(m.Cursor().ReadU8()) + 1
	if reason := m.Stack.Require(n+1, n+1); reason != nil {
		return Exit(reason)
	}
	m.Stack.Swap(n)
	return ContinueN(2)
}

// opExchange implements the EXCHANGE opcode
func opExchange(pc uint64, m *Machine, h Handler) Control {
	var (
		x   = m.Cursor().ReadU8()
		n   = int(x>>4) + 1
		k   = int(x&0x0f) + 1
		top = n + k
	)
	if reason := m.Stack.Require(top+1, top+1); reason != nil {
		return Exit(reason)
	}
	a, b := m.Stack.Back(n), m.Stack.Back(top)
	*a, *b = *b, *a
	return ContinueN(2)
}

// opReturnDataLoad implements the RETURNDATALOAD opcode
func opReturnDataLoad(pc uint64, m *Machine, h Handler) Control {
	x := m.Stack.Peek()
	offset, overflow := x.Uint64WithOverflow()
	if overflow {
		x.Clear()
		return Continue()
	}
	x.SetBytes(getData(m.ReturnDataBuffer, offset, 32))
	return Continue()
}

// opEOFCreate implements the EOFCREATE opcode
func opEOFCreate(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.ReadOnly {
		return Exit(ErrWriteProtection)
	}
	host, ok := h.(ContainerHost)
	if !ok {
		return Exit(FatalNotSupported)
	}
	initContainer, ok := m.Contract.Code.SubContainer(int(m.Cursor().ReadU8()))
	if !ok {
		return Exit(ErrInvalidContainer)
	}
	var (
		value        = m.Stack.Pop()
		salt         = m.Stack.Pop()
		offset, size = m.Stack.Pop(), m.Stack.Peek()
		input        = m.Memory.GetCopy(offset.Uint64(), size.Uint64())
		gas          = callGas(m.Gas.Remaining())
	)
	// Apply EIP150
	if !m.Gas.RecordCost(gas) {
		return Exit(ErrOutOfGas)
	}
	addr, ret, gasLeft, reason := host.EOFCreate(m, initContainer, input, &value, salt.Bytes32(), gas)
	if IsSucceed(reason) {
		size.SetBytes(addr.Bytes())
	} else {
		size.Clear()
	}
	m.Gas.EraseCost(min(gasLeft, gas))

	if IsRevert(reason) {
		m.ReturnDataBuffer = ret
	} else {
		m.ReturnDataBuffer = nil
	}
	return ContinueN(2)
}

// opReturnContract implements the RETURNCONTRACT opcode
func opReturnContract(pc uint64, m *Machine, h Handler) Control {
	sub, ok := m.Contract.Code.SubContainer(int(m.Cursor().ReadU8()))
	if !ok {
		return Exit(ErrInvalidContainer)
	}
	offset, size := m.Stack.Pop(), m.Stack.Pop()

	var deployed Container
	if err := deployed.UnmarshalSubContainer(sub); err != nil {
		return Exit(ErrInvalidContainer)
	}
	// The decoded sections alias the parent buffer.
	data := deployed.Data[:len(deployed.Data):len(deployed.Data)]
	deployed.Data = append(data, m.Memory.GetCopy(offset.Uint64(), size.Uint64())...)
	// Aux data has to fill the declared data section.
	if deployed.Truncated() {
		return Exit(ErrInvalidContainer)
	}
	deployed.DataSize = 0
	code, err := deployed.MarshalBinary()
	if err != nil || len(code) > params.MaxCodeSize {
		return Exit(ErrInvalidContainer)
	}
	m.Deployed = code
	return Exit(Returned)
}
