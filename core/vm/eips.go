// Copyright 2019 The go-ethereum Authors
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
	"fmt"
	"sort"

	"github.com/bnb-chain/evmcore/params"
	"github.com/holiman/uint256"
)

var activators = map[int]func(*JumpTable){
	663:  enable663,
	1153: enable1153,
	1884: enable1884,
	2929: enable2929,
	3529: enable3529,
	3855: enable3855,
	5656: enable5656,
	7069: enable7069,
}

// EnableEIP enables the given EIP on the config.
// This operation writes in-place, and callers need to ensure that the globally
// defined jump tables are not polluted.
func EnableEIP(eipNum int, jt *JumpTable) error {
	enablerFn, ok := activators[eipNum]
	if !ok {
		return fmt.Errorf("undefined eip %d", eipNum)
	}
	enablerFn(jt)
	return nil
}

func ValidEip(eipNum int) bool {
	_, ok := activators[eipNum]
	return ok
}

func ActivateableEips() []string {
	var nums []string
	for k := range activators {
		nums = append(nums, fmt.Sprintf("%d", k))
	}
	sort.Strings(nums)
	return nums
}

// enable1884 applies EIP-1884 to the given jump table:
// - Increase cost of SLOAD to 800
func enable1884(jt *JumpTable) {
	// Gas cost changes
	jt[SLOAD].constantGas = params.SloadGasEIP1884
}

// enable2929 enables "EIP-2929: Gas cost increases for state access opcodes"
// https://eips.ethereum.org/EIPS/eip-2929
func enable2929(jt *JumpTable) {
	jt[SSTORE].dynamicGas = gasSStoreEIP2929
	jt[SSTORE].execute = opSstoreEIP2929

	jt[SLOAD].constantGas = 0
	jt[SLOAD].dynamicGas = gasSLoadEIP2929
	jt[SLOAD].execute = opSloadEIP2929
}

// enable3529 enabled "EIP-3529: Reduction in refunds":
// - Removes refunds for selfdestructs
// - Reduces refunds for SSTORE
// - Reduces max refunds to 20% gas
func enable3529(jt *JumpTable) {
	jt[SSTORE].execute = opSstoreEIP3529
}

// enable3855 applies EIP-3855 (PUSH0 opcode)
func enable3855(jt *JumpTable) {
	// New opcode
	jt[PUSH0] = &operation{
		execute:     opPush0,
		constantGas: GasQuickStep,
		pushes:      1,
	}
}

// opPush0 implements the PUSH0 opcode
func opPush0(pc uint64, m *Machine, h Handler) Control {
	m.Stack.Push(new(uint256.Int))
	return Continue()
}

// enable1153 applies EIP-1153 "Transient Storage"
// - Adds TLOAD that reads from transient storage
// - Adds TSTORE that writes to transient storage
func enable1153(jt *JumpTable) {
	jt[TLOAD] = &operation{
		execute:     opTload,
		constantGas: params.WarmStorageReadCostEIP2929,
		pops:        1,
		pushes:      1,
	}

	jt[TSTORE] = &operation{
		execute:     opTstore,
		constantGas: params.WarmStorageReadCostEIP2929,
		pops:        2,
	}
}

// opTload implements TLOAD opcode
func opTload(pc uint64, m *Machine, h Handler) Control {
	host, reason := storageHost(h)
	if reason != nil {
		return Exit(reason)
	}
	loc := m.Stack.Peek()
	val := host.GetTransientState(m.Contract.Address(), loc.Bytes32())
	loc.SetBytes(val.Bytes())
	return Continue()
}

// opTstore implements TSTORE opcode
func opTstore(pc uint64, m *Machine, h Handler) Control {
	if m.Contract.ReadOnly {
		return Exit(ErrWriteProtection)
	}
	host, reason := storageHost(h)
	if reason != nil {
		return Exit(reason)
	}
	loc := m.Stack.Pop()
	val := m.Stack.Pop()
	host.SetTransientState(m.Contract.Address(), loc.Bytes32(), val.Bytes32())
	return Continue()
}

// enable5656 enables EIP-5656 (MCOPY opcode)
// https://eips.ethereum.org/EIPS/eip-5656
func enable5656(jt *JumpTable) {
	jt[MCOPY] = &operation{
		execute:     opMcopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasMcopy,
		pops:        3,
		memorySize:  memoryMcopy,
	}
}

// opMcopy implements the MCOPY opcode (https://eips.ethereum.org/EIPS/eip-5656)
func opMcopy(pc uint64, m *Machine, h Handler) Control {
	var (
		dst    = m.Stack.Pop()
		src    = m.Stack.Pop()
		length = m.Stack.Pop()
	)
	// These values are checked for validity during charging
	m.Memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return Continue()
}

// enable7069 enables RETURNDATALOAD for EOF code
func enable7069(jt *JumpTable) {
	jt[RETURNDATALOAD] = &operation{
		execute:     opReturnDataLoad,
		constantGas: GasFastestStep,
		pops:        1,
		pushes:      1,
		eof:         true,
	}
}

// enable663 enables DUPN, SWAPN and EXCHANGE for EOF code
func enable663(jt *JumpTable) {
	jt[DUPN] = &operation{
		execute:     opDupN,
		constantGas: GasFastestStep,
		eof:         true,
	}
	jt[SWAPN] = &operation{
		execute:     opSwapN,
		constantGas: GasFastestStep,
		eof:         true,
	}
	jt[EXCHANGE] = &operation{
		execute:     opExchange,
		constantGas: GasFastestStep,
		eof:         true,
	}
}

// enableEOF applies the EOF changes.
// OBS! For EOF-bytecode, the jump table differs from legacy: legacy-only
// instructions are rejected by container validation, EOF-only instructions
// fault with ErrInvalidCode when they appear in legacy code.
func enableEOF(jt *JumpTable) {
	enable663(jt)
	enable7069(jt)

	jt[RJUMP] = &operation{
		execute:     opRjump,
		constantGas: GasQuickStep,
		eof:         true,
	}
	jt[RJUMPI] = &operation{
		execute:     opRjumpi,
		constantGas: GasFastishStep,
		pops:        1,
		eof:         true,
	}
	jt[RJUMPV] = &operation{
		execute:     opRjumpv,
		constantGas: GasFastishStep,
		pops:        1,
		eof:         true,
	}
	jt[CALLF] = &operation{
		execute:     opCallf,
		constantGas: GasFastStep,
		eof:         true,
	}
	jt[RETF] = &operation{
		execute:     opRetf,
		constantGas: GasFastestStep,
		eof:         true,
	}
	jt[JUMPF] = &operation{
		execute:     opJumpf,
		constantGas: GasFastStep,
		eof:         true,
	}
	jt[DATALOAD] = &operation{
		execute:     opDataLoad,
		constantGas: GasFastishStep,
		pops:        1,
		pushes:      1,
		eof:         true,
	}
	jt[DATALOADN] = &operation{
		execute:     opDataLoadN,
		constantGas: GasFastestStep,
		pushes:      1,
		eof:         true,
	}
	jt[DATASIZE] = &operation{
		execute:     opDataSize,
		constantGas: GasQuickStep,
		pushes:      1,
		eof:         true,
	}
	jt[DATACOPY] = &operation{
		execute:     opDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasDataCopy,
		pops:        3,
		memorySize:  memoryDataCopy,
		eof:         true,
	}
	jt[EOFCREATE] = &operation{
		execute:     opEOFCreate,
		constantGas: params.EOFCreateGas,
		dynamicGas:  gasEOFCreate,
		pops:        4,
		pushes:      1,
		memorySize:  memoryEOFCreate,
		eof:         true,
	}
	jt[RETURNCONTRACT] = &operation{
		execute:    opReturnContract,
		dynamicGas: gasMemoryOnly,
		pops:       2,
		memorySize: memoryReturnContract,
		eof:        true,
	}
}
