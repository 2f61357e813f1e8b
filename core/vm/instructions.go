// Copyright 2015 The go-ethereum Authors
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

	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

var hasherPool = sync.Pool{
	New: func() interface{} {
		return sha3.NewLegacyKeccak256().(crypto.KeccakState)
	},
}

func opAdd(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Add(&x, y)
	return Continue()
}

func opSub(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Sub(&x, y)
	return Continue()
}

func opMul(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Mul(&x, y)
	return Continue()
}

func opDiv(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Div(&x, y)
	return Continue()
}

func opSdiv(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.SDiv(&x, y)
	return Continue()
}

func opMod(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Mod(&x, y)
	return Continue()
}

func opSmod(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.SMod(&x, y)
	return Continue()
}

func opExp(pc uint64, m *Machine, h Handler) Control {
	base, exponent := m.Stack.Pop(), m.Stack.Peek()
	exponent.Exp(&base, exponent)
	return Continue()
}

func opSignExtend(pc uint64, m *Machine, h Handler) Control {
	back, num := m.Stack.Pop(), m.Stack.Peek()
	num.ExtendSign(num, &back)
	return Continue()
}

func opNot(pc uint64, m *Machine, h Handler) Control {
	x := m.Stack.Peek()
	x.Not(x)
	return Continue()
}

func opLt(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return Continue()
}

func opGt(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return Continue()
}

func opSlt(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return Continue()
}

func opSgt(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return Continue()
}

func opEq(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return Continue()
}

func opIszero(pc uint64, m *Machine, h Handler) Control {
	x := m.Stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return Continue()
}

func opAnd(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.And(&x, y)
	return Continue()
}

func opOr(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Or(&x, y)
	return Continue()
}

func opXor(pc uint64, m *Machine, h Handler) Control {
	x, y := m.Stack.Pop(), m.Stack.Peek()
	y.Xor(&x, y)
	return Continue()
}

func opByte(pc uint64, m *Machine, h Handler) Control {
	th, val := m.Stack.Pop(), m.Stack.Peek()
	val.Byte(&th)
	return Continue()
}

func opAddmod(pc uint64, m *Machine, h Handler) Control {
	x, y, z := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Peek()
	z.AddMod(&x, &y, z)
	return Continue()
}

func opMulmod(pc uint64, m *Machine, h Handler) Control {
	x, y, z := m.Stack.Pop(), m.Stack.Pop(), m.Stack.Peek()
	z.MulMod(&x, &y, z)
	return Continue()
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc uint64, m *Machine, h Handler) Control {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := m.Stack.Pop(), m.Stack.Peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return Continue()
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(pc uint64, m *Machine, h Handler) Control {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := m.Stack.Pop(), m.Stack.Peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return Continue()
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(pc uint64, m *Machine, h Handler) Control {
	shift, value := m.Stack.Pop(), m.Stack.Peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return Continue()
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return Continue()
}

func opKeccak256(pc uint64, m *Machine, h Handler) Control {
	offset, size := m.Stack.Pop(), m.Stack.Peek()
	data := m.Memory.GetPtr(offset.Uint64(), size.Uint64())

	hasher := hasherPool.Get().(crypto.KeccakState)
	hasher.Reset()
	hasher.Write(data)

	var buf common.Hash
	hasher.Read(buf[:])
	hasherPool.Put(hasher)

	size.SetBytes(buf[:])
	return Continue()
}

func opAddress(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetBytes(m.Contract.Address().Bytes()))
	return Continue()
}

func opCaller(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetBytes(m.Contract.Caller().Bytes()))
	return Continue()
}

func opCallValue(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(m.Contract.Value())
	return Continue()
}

func opCallDataLoad(pc uint64, m *Machine, h Handler) Control {
	x := m.Stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(m.Contract.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return Continue()
}

func opCallDataSize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetUint64(uint64(len(m.Contract.Input))))
	return Continue()
}

func opCallDataCopy(pc uint64, m *Machine, h Handler) Control {
	var (
		memOffset  = m.Stack.Pop()
		dataOffset = m.Stack.Pop()
		length     = m.Stack.Pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = 0xffffffffffffffff
	}
	// These values are checked for validity during charging
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	m.Memory.Set(memOffset64, length64, getData(m.Contract.Input, dataOffset64, length64))
	return Continue()
}

func opReturnDataSize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetUint64(uint64(len(m.ReturnDataBuffer))))
	return Continue()
}

func opReturnDataCopy(pc uint64, m *Machine, h Handler) Control {
	var (
		memOffset  = m.Stack.Pop()
		dataOffset = m.Stack.Pop()
		length     = m.Stack.Pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return Exit(ErrReturnDataOutOfBounds)
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(m.ReturnDataBuffer)) < end64 {
		return Exit(ErrReturnDataOutOfBounds)
	}
	m.Memory.Set(memOffset.Uint64(), length.Uint64(), m.ReturnDataBuffer[offset64:end64])
	return Continue()
}

func opCodeSize(pc uint64, m *Machine, h Handler) Control {
	size, err := m.Contract.Code.LegacyLen()
	if err != nil {
		return Exit(ErrInvalidCode)
	}
	m.Stack.Push(new(uint256.Int).SetUint64(uint64(size)))
	return Continue()
}

func opCodeCopy(pc uint64, m *Machine, h Handler) Control {
	var (
		memOffset  = m.Stack.Pop()
		codeOffset = m.Stack.Pop()
		length     = m.Stack.Pop()
	)
	code, err := m.Contract.Code.LegacySlice()
	if err != nil {
		return Exit(ErrInvalidCode)
	}
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}
	codeCopy := getData(code, uint64CodeOffset, length.Uint64())
	m.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return Continue()
}

func opPop(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Pop()
	return Continue()
}

func opMload(pc uint64, m *Machine, h Handler) Control {
	v := m.Stack.Peek()
	offset := v.Uint64()
	v.SetBytes(m.Memory.GetPtr(offset, 32))
	return Continue()
}

func opMstore(pc uint64, m *Machine, h Handler) Control {
	mStart, val := m.Stack.Pop(), m.Stack.Pop()
	m.Memory.Set32(mStart.Uint64(), &val)
	return Continue()
}

func opMstore8(pc uint64, m *Machine, h Handler) Control {
	off, val := m.Stack.Pop(), m.Stack.Pop()
	m.Memory.store[off.Uint64()] = byte(val.Uint64())
	return Continue()
}

func opSload(pc uint64, m *Machine, h Handler) Control {
	host, reason := storageHost(h)
	if reason != nil {
		return Exit(reason)
	}
	loc := m.Stack.Peek()
	val := host.GetState(m.Contract.Address(), loc.Bytes32())
	loc.SetBytes(val.Bytes())
	return Continue()
}

// opSloadEIP2929 loads the slot and adds it to the access list.
func opSloadEIP2929(pc uint64, m *Machine, h Handler) Control {
	host, reason := storageHost(h)
	if reason != nil {
		return Exit(reason)
	}
	loc := m.Stack.Peek()
	slot := common.Hash(loc.Bytes32())
	host.AddSlotToAccessList(m.Contract.Address(), slot)
	val := host.GetState(m.Contract.Address(), slot)
	loc.SetBytes(val.Bytes())
	return Continue()
}

// makeSstore creates an SSTORE that refunds clearingRefund when a non-zero
// slot is set to zero. With accessList the slot is warmed as well.
func makeSstore(clearingRefund uint64, accessList bool) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		if m.Contract.ReadOnly {
			return Exit(ErrWriteProtection)
		}
		host, reason := storageHost(h)
		if reason != nil {
			return Exit(reason)
		}
		loc, val := m.Stack.Pop(), m.Stack.Pop()
		var (
			addr = m.Contract.Address()
			slot = common.Hash(loc.Bytes32())
		)
		if accessList {
			host.AddSlotToAccessList(addr, slot)
		}
		if val.IsZero() && host.GetState(addr, slot) != (common.Hash{}) {
			m.Gas.RecordRefund(int64(clearingRefund))
		}
		host.SetState(addr, slot, val.Bytes32())
		return Continue()
	}
}

var (
	opSstore        = makeSstore(params.SstoreClearsRefund, false)
	opSstoreEIP2929 = makeSstore(params.SstoreClearsRefund, true)
	opSstoreEIP3529 = makeSstore(params.SstoreClearsScheduleRefundEIP3529, true)
)

func opJump(pc uint64, m *Machine, h Handler) Control {
	pos := m.Stack.Pop()
	if !pos.IsUint64() {
		return Exit(ErrInvalidJump)
	}
	if valid, err := m.Contract.Code.ValidJumpDest(pos.Uint64()); err != nil || !valid {
		return Exit(ErrInvalidJump)
	}
	return Jump(pos.Uint64())
}

func opJumpi(pc uint64, m *Machine, h Handler) Control {
	pos, cond := m.Stack.Pop(), m.Stack.Pop()
	if cond.IsZero() {
		return Continue()
	}
	if !pos.IsUint64() {
		return Exit(ErrInvalidJump)
	}
	if valid, err := m.Contract.Code.ValidJumpDest(pos.Uint64()); err != nil || !valid {
		return Exit(ErrInvalidJump)
	}
	return Jump(pos.Uint64())
}

func opJumpdest(pc uint64, m *Machine, h Handler) Control {
	return Continue()
}

func opPc(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetUint64(pc))
	return Continue()
}

func opMsize(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetUint64(uint64(m.Memory.Len())))
	return Continue()
}

func opGas(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int).SetUint64(m.Gas.Remaining()))
	return Continue()
}

func opReturn(pc uint64, m *Machine, h Handler) Control {
	offset, size := m.Stack.Pop(), m.Stack.Pop()
	m.SetReturnRange(&offset, &size)
	return Exit(Returned)
}

func opRevert(pc uint64, m *Machine, h Handler) Control {
	offset, size := m.Stack.Pop(), m.Stack.Pop()
	m.SetReturnRange(&offset, &size)
	return Exit(Reverted)
}

func opStop(pc uint64, m *Machine, h Handler) Control {
	return Exit(Stopped)
}

// opInvalid is the designated INVALID opcode.
func opInvalid(pc uint64, m *Machine, h Handler) Control {
	return Exit(ErrDesignatedInvalid)
}

// opUndefined is any opcode not active in the instruction set.
func opUndefined(pc uint64, m *Machine, h Handler) Control {
	return Exit(ErrInvalidCode)
}

// opNotSupported is an opcode that needs state this machine has no access to.
func opNotSupported(pc uint64, m *Machine, h Handler) Control {
	return Exit(FatalNotSupported)
}

// make log instruction function
func makeLog(size int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		if m.Contract.ReadOnly {
			return Exit(ErrWriteProtection)
		}
		host, ok := h.(LogHost)
		if !ok {
			return Exit(FatalNotSupported)
		}
		topics := make([]common.Hash, size)
		mStart, mSize := m.Stack.Pop(), m.Stack.Pop()
		for i := 0; i < size; i++ {
			addr := m.Stack.Pop()
			topics[i] = addr.Bytes32()
		}
		d := m.Memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		host.AddLog(m.Contract.Address(), topics, d)
		return Continue()
	}
}

// make push instruction function
func makePush(size int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		integer := new(uint256.Int).SetBytes(m.Cursor().ReadSlice(size))
		m.Stack.Push(integer)
		return ContinueN(uint32(size) + 1)
	}
}

// make dup instruction function
func makeDup(size int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		m.Stack.Dup(size)
		return Continue()
	}
}

// make swap instruction function
func makeSwap(size int) executionFunc {
	return func(pc uint64, m *Machine, h Handler) Control {
		m.Stack.Swap(size)
		return Continue()
	}
}
