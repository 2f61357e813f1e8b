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
	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common/math"
)

type (
	executionFunc func(pc uint64, m *Machine, h Handler) Control
	gasFunc       func(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) // last parameter is the requested memory size as a uint64
	// memorySizeFunc returns the required size, and whether the operation overflowed a uint64
	memorySizeFunc func(*Stack) (size uint64, overflow bool)
)

type operation struct {
	// execute is the operation function
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	// pops is how many stack items are required
	pops int
	// pushes is how many items the operation leaves on the stack
	pushes int

	// memorySize returns the memory size required for the operation
	memorySize memorySizeFunc

	// undefined denotes if the instruction is not officially defined in the jump table
	undefined bool
	// eof denotes an instruction only valid inside EOF containers
	eof bool
}

// JumpTable contains the EVM opcodes supported at a given fork. It
// implements Instructions: every dispatch checks the stack bounds, charges
// the constant gas, the memory expansion and the dynamic gas, in that order,
// before the opcode touches any state.
type JumpTable [256]*operation

// Execute dispatches op.
func (jt *JumpTable) Execute(m *Machine, op OpCode, pc uint64, h Handler) Control {
	operation := jt[op]
	if operation.undefined || (operation.eof && !m.cursor.code.IsEOF()) {
		return Exit(ErrInvalidCode)
	}
	// Validate stack
	if sLen := m.Stack.Len(); sLen < operation.pops {
		return Exit(ErrStackUnderflow)
	} else if sLen-operation.pops+operation.pushes > m.Stack.Limit() {
		return Exit(ErrStackOverflow)
	}
	if !m.Gas.RecordCost(operation.constantGas) {
		return Exit(ErrOutOfGas)
	}

	var memorySize uint64
	// calculate the new memory size and expand the memory to fit
	// the operation
	// Memory check needs to be done prior to evaluating the dynamic gas portion,
	// to detect calculation overflows
	if operation.memorySize != nil {
		memSize, overflow := operation.memorySize(m.Stack)
		if overflow {
			return Exit(ErrGasUintOverflow)
		}
		// memory is expanded in words of 32 bytes. Gas
		// is also calculated in words.
		if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
			return Exit(ErrGasUintOverflow)
		}
		if memorySize > m.Memory.Limit() {
			return Exit(ErrInvalidRange)
		}
		cost, reason := memoryGasCost(memorySize)
		if reason != nil {
			return Exit(reason)
		}
		if !m.Gas.ReserveMemoryCost(cost) {
			return Exit(ErrOutOfGas)
		}
	}
	if operation.dynamicGas != nil {
		cost, reason := operation.dynamicGas(m, h, memorySize)
		if reason != nil {
			return Exit(reason)
		}
		if !m.Gas.RecordCost(cost) {
			return Exit(ErrOutOfGas)
		}
	}
	if memorySize > 0 {
		m.Memory.Resize(memorySize)
	}
	return operation.execute(pc, m, h)
}

// constantGas reports the constant cost of op.
func (jt *JumpTable) constantGas(op OpCode) uint64 {
	if operation := jt[op]; operation != nil {
		return operation.constantGas
	}
	return 0
}

// Defined reports whether op is part of the instruction set for legacy code,
// or for EOF code when eof is set.
func (jt *JumpTable) Defined(op OpCode, eof bool) bool {
	operation := jt[op]
	if operation.undefined {
		return false
	}
	return eof || !operation.eof
}

// NewInstructionSet returns a freshly built instruction set for rules. Tables
// are never shared, so callers may enable extra EIPs on the result.
func NewInstructionSet(rules params.Rules) *JumpTable {
	switch {
	case rules.IsOsaka:
		return newOsakaInstructionSet()
	case rules.IsPrague:
		return newPragueInstructionSet()
	case rules.IsCancun:
		return newCancunInstructionSet()
	case rules.IsShanghai:
		return newShanghaiInstructionSet()
	case rules.IsLondon:
		return newLondonInstructionSet()
	case rules.IsBerlin:
		return newBerlinInstructionSet()
	case rules.IsIstanbul:
		return newIstanbulInstructionSet()
	case rules.IsConstantinople:
		return newConstantinopleInstructionSet()
	case rules.IsByzantium:
		return newByzantiumInstructionSet()
	case rules.IsHomestead:
		return newHomesteadInstructionSet()
	default:
		return newFrontierInstructionSet()
	}
}

func validate(jt JumpTable) JumpTable {
	for i, op := range jt {
		if op == nil {
			panic(internalError("op %#x is not set", i))
		}
		// The interpreter has an assumption that if the memorySize function is
		// set, then the dynamicGas function is also set. This is a somewhat
		// arbitrary assumption, and can be removed if we need to -- but it
		// allows us to avoid a condition check. As long as we have that assumption
		// in there, this little sanity check prevents us from merging in a
		// change which violates it.
		if op.memorySize != nil && op.dynamicGas == nil {
			panic(internalError("op %v has dynamic memory but not dynamic gas", OpCode(i).String()))
		}
	}
	return jt
}

func newOsakaInstructionSet() *JumpTable {
	instructionSet := newPragueInstructionSet()
	enableEOF(instructionSet)
	return instructionSet
}

func newPragueInstructionSet() *JumpTable {
	instructionSet := newCancunInstructionSet()
	enable7069(instructionSet) // RETURNDATALOAD
	return instructionSet
}

func newCancunInstructionSet() *JumpTable {
	instructionSet := newShanghaiInstructionSet()
	enable1153(instructionSet) // EIP-1153 "Transient Storage"
	enable5656(instructionSet) // EIP-5656 (MCOPY opcode)
	markNotSupported(instructionSet, BLOBHASH, BLOBBASEFEE)
	return instructionSet
}

func newShanghaiInstructionSet() *JumpTable {
	instructionSet := newLondonInstructionSet()
	enable3855(instructionSet) // PUSH0 instruction
	return instructionSet
}

func newLondonInstructionSet() *JumpTable {
	instructionSet := newBerlinInstructionSet()
	enable3529(instructionSet) // EIP-3529: Reduction in refunds
	markNotSupported(instructionSet, BASEFEE)
	return instructionSet
}

// newBerlinInstructionSet returns the frontier, homestead, byzantium,
// constantinople, istanbul and berlin instructions.
func newBerlinInstructionSet() *JumpTable {
	instructionSet := newIstanbulInstructionSet()
	enable2929(instructionSet) // Gas cost increases for state access opcodes https://eips.ethereum.org/EIPS/eip-2929
	return instructionSet
}

// newIstanbulInstructionSet returns the frontier, homestead, byzantium,
// constantinople and istanbul instructions.
func newIstanbulInstructionSet() *JumpTable {
	instructionSet := newConstantinopleInstructionSet()
	enable1884(instructionSet) // Reprice reader opcodes - https://eips.ethereum.org/EIPS/eip-1884
	markNotSupported(instructionSet, CHAINID, SELFBALANCE)
	return instructionSet
}

// newConstantinopleInstructionSet returns the frontier, homestead,
// byzantium and constantinople instructions.
func newConstantinopleInstructionSet() *JumpTable {
	instructionSet := newByzantiumInstructionSet()
	instructionSet[SHL] = &operation{
		execute:     opSHL,
		constantGas: GasFastestStep,
		pops:        2,
		pushes:      1,
	}
	instructionSet[SHR] = &operation{
		execute:     opSHR,
		constantGas: GasFastestStep,
		pops:        2,
		pushes:      1,
	}
	instructionSet[SAR] = &operation{
		execute:     opSAR,
		constantGas: GasFastestStep,
		pops:        2,
		pushes:      1,
	}
	markNotSupported(instructionSet, CREATE2, EXTCODEHASH)
	return instructionSet
}

// newByzantiumInstructionSet returns the frontier, homestead and
// byzantium instructions.
func newByzantiumInstructionSet() *JumpTable {
	instructionSet := newHomesteadInstructionSet()
	instructionSet[RETURNDATASIZE] = &operation{
		execute:     opReturnDataSize,
		constantGas: GasQuickStep,
		pushes:      1,
	}
	instructionSet[RETURNDATACOPY] = &operation{
		execute:     opReturnDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasReturnDataCopy,
		pops:        3,
		memorySize:  memoryReturnDataCopy,
	}
	instructionSet[REVERT] = &operation{
		execute:    opRevert,
		dynamicGas: gasRevert,
		pops:       2,
		memorySize: memoryRevert,
	}
	markNotSupported(instructionSet, STATICCALL)
	return instructionSet
}

// newHomesteadInstructionSet returns the frontier and homestead instructions.
// The tangerine whistle and spurious dragon repricings are folded in.
func newHomesteadInstructionSet() *JumpTable {
	instructionSet := newFrontierInstructionSet()
	instructionSet[SLOAD].constantGas = params.SloadGasEIP150
	instructionSet[EXP].dynamicGas = gasExpEIP158
	markNotSupported(instructionSet, DELEGATECALL)
	return instructionSet
}

// newFrontierInstructionSet returns the frontier instructions
// that can be executed during the frontier phase.
func newFrontierInstructionSet() *JumpTable {
	tbl := JumpTable{
		STOP: {
			execute:     opStop,
			constantGas: 0,
		},
		ADD: {
			execute:     opAdd,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		MUL: {
			execute:     opMul,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		SUB: {
			execute:     opSub,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		DIV: {
			execute:     opDiv,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		SDIV: {
			execute:     opSdiv,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		MOD: {
			execute:     opMod,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		SMOD: {
			execute:     opSmod,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		ADDMOD: {
			execute:     opAddmod,
			constantGas: GasMidStep,
			pops:        3,
			pushes:      1,
		},
		MULMOD: {
			execute:     opMulmod,
			constantGas: GasMidStep,
			pops:        3,
			pushes:      1,
		},
		EXP: {
			execute:    opExp,
			dynamicGas: gasExpFrontier,
			pops:       2,
			pushes:     1,
		},
		SIGNEXTEND: {
			execute:     opSignExtend,
			constantGas: GasFastStep,
			pops:        2,
			pushes:      1,
		},
		LT: {
			execute:     opLt,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		GT: {
			execute:     opGt,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		SLT: {
			execute:     opSlt,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		SGT: {
			execute:     opSgt,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		EQ: {
			execute:     opEq,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		ISZERO: {
			execute:     opIszero,
			constantGas: GasFastestStep,
			pops:        1,
			pushes:      1,
		},
		AND: {
			execute:     opAnd,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		XOR: {
			execute:     opXor,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		OR: {
			execute:     opOr,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		NOT: {
			execute:     opNot,
			constantGas: GasFastestStep,
			pops:        1,
			pushes:      1,
		},
		BYTE: {
			execute:     opByte,
			constantGas: GasFastestStep,
			pops:        2,
			pushes:      1,
		},
		KECCAK256: {
			execute:     opKeccak256,
			constantGas: params.Keccak256Gas,
			dynamicGas:  gasKeccak256,
			pops:        2,
			pushes:      1,
			memorySize:  memoryKeccak256,
		},
		ADDRESS: {
			execute:     opAddress,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		CALLER: {
			execute:     opCaller,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		CALLVALUE: {
			execute:     opCallValue,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		CALLDATALOAD: {
			execute:     opCallDataLoad,
			constantGas: GasFastestStep,
			pops:        1,
			pushes:      1,
		},
		CALLDATASIZE: {
			execute:     opCallDataSize,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		CALLDATACOPY: {
			execute:     opCallDataCopy,
			constantGas: GasFastestStep,
			dynamicGas:  gasCallDataCopy,
			pops:        3,
			memorySize:  memoryCallDataCopy,
		},
		CODESIZE: {
			execute:     opCodeSize,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		CODECOPY: {
			execute:     opCodeCopy,
			constantGas: GasFastestStep,
			dynamicGas:  gasCodeCopy,
			pops:        3,
			memorySize:  memoryCodeCopy,
		},
		POP: {
			execute:     opPop,
			constantGas: GasQuickStep,
			pops:        1,
		},
		MLOAD: {
			execute:     opMload,
			constantGas: GasFastestStep,
			dynamicGas:  gasMemoryOnly,
			pops:        1,
			pushes:      1,
			memorySize:  memoryMLoad,
		},
		MSTORE: {
			execute:     opMstore,
			constantGas: GasFastestStep,
			dynamicGas:  gasMemoryOnly,
			pops:        2,
			memorySize:  memoryMStore,
		},
		MSTORE8: {
			execute:     opMstore8,
			constantGas: GasFastestStep,
			dynamicGas:  gasMemoryOnly,
			memorySize:  memoryMStore8,
			pops:        2,
		},
		SLOAD: {
			execute:     opSload,
			constantGas: params.SloadGasFrontier,
			pops:        1,
			pushes:      1,
		},
		SSTORE: {
			execute:    opSstore,
			dynamicGas: gasSStore,
			pops:       2,
		},
		JUMP: {
			execute:     opJump,
			constantGas: GasMidStep,
			pops:        1,
		},
		JUMPI: {
			execute:     opJumpi,
			constantGas: GasSlowStep,
			pops:        2,
		},
		PC: {
			execute:     opPc,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		MSIZE: {
			execute:     opMsize,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		GAS: {
			execute:     opGas,
			constantGas: GasQuickStep,
			pushes:      1,
		},
		JUMPDEST: {
			execute:     opJumpdest,
			constantGas: params.JumpdestGas,
		},
		LOG0: {
			execute:    makeLog(0),
			dynamicGas: makeGasLog(0),
			pops:       2,
			memorySize: memoryLog,
		},
		LOG1: {
			execute:    makeLog(1),
			dynamicGas: makeGasLog(1),
			pops:       3,
			memorySize: memoryLog,
		},
		LOG2: {
			execute:    makeLog(2),
			dynamicGas: makeGasLog(2),
			pops:       4,
			memorySize: memoryLog,
		},
		LOG3: {
			execute:    makeLog(3),
			dynamicGas: makeGasLog(3),
			pops:       5,
			memorySize: memoryLog,
		},
		LOG4: {
			execute:    makeLog(4),
			dynamicGas: makeGasLog(4),
			pops:       6,
			memorySize: memoryLog,
		},
		RETURN: {
			execute:    opReturn,
			dynamicGas: gasReturn,
			pops:       2,
			memorySize: memoryReturn,
		},
		INVALID: {
			execute: opInvalid,
		},
	}
	for op := PUSH1; op <= PUSH32; op++ {
		tbl[op] = &operation{
			execute:     makePush(int(op - PUSH1 + 1)),
			constantGas: GasFastestStep,
			pushes:      1,
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+i-1] = &operation{
			execute:     makeDup(i),
			constantGas: GasFastestStep,
			pops:        i,
			pushes:      i + 1,
		}
		tbl[SWAP1+i-1] = &operation{
			execute:     makeSwap(i),
			constantGas: GasFastestStep,
			pops:        i + 1,
			pushes:      i + 1,
		}
	}
	// Fill all unassigned slots with opUndefined.
	for i, entry := range tbl {
		if entry == nil {
			tbl[i] = &operation{execute: opUndefined, undefined: true}
		}
	}
	markNotSupported(&tbl,
		BALANCE, ORIGIN, GASPRICE, EXTCODESIZE, EXTCODECOPY, BLOCKHASH,
		COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT, CREATE, CALL,
		CALLCODE, SELFDESTRUCT,
	)
	tbl = validate(tbl)
	return &tbl
}

// markNotSupported defines ops that need account state, block context or
// message calls. They exit with FatalNotSupported.
func markNotSupported(jt *JumpTable, ops ...OpCode) {
	for _, op := range ops {
		jt[op] = &operation{execute: opNotSupported}
	}
}

func copyJumpTable(source *JumpTable) *JumpTable {
	dest := *source
	for i, op := range source {
		if op != nil {
			opCopy := *op
			dest[i] = &opCopy
		}
	}
	return &dest
}
