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
	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Gas costs
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastishStep uint64 = 4
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// maxMemorySize is the largest memory whose quadratic cost fits a uint64.
const maxMemorySize = 0x1FFFFFFFE0

// memoryGasCost calculates the total quadratic gas for memory of newMemSize
// bytes. The ledger keeps the high-water mark, so the result is the full cost
// and not the delta to the current size.
func memoryGasCost(newMemSize uint64) (uint64, ExitReason) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > maxMemorySize {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	linCoef := newMemSizeWords * params.MemoryGas
	quadCoef := newMemSizeWords * newMemSizeWords / params.QuadCoeffDiv
	return linCoef + quadCoef, nil
}

// memoryCopierGas creates the gas functions for the following opcodes, and takes
// the stack position of the operand which determines the size of the data to copy
// as argument:
// CALLDATACOPY (stack position 2)
// CODECOPY (stack position 2)
// MCOPY (stack position 2)
// RETURNDATACOPY (stack position 2)
// DATACOPY (stack position 2)
func memoryCopierGas(stackpos int) gasFunc {
	return func(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
		// And gas for copying data, charged per word at param.CopyGas
		words, overflow := m.Stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, overflow := math.SafeMul(toWordSize(words), params.CopyGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasMcopy          = memoryCopierGas(2)
	gasReturnDataCopy = memoryCopierGas(2)
	gasDataCopy       = memoryCopierGas(2)
)

// gasMemoryOnly is the dynamic part of opcodes whose only variable cost is
// memory expansion, which the jump table charges itself.
func gasMemoryOnly(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	return 0, nil
}

var (
	gasReturn = gasMemoryOnly
	gasRevert = gasMemoryOnly
)

func gasKeccak256(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	wordGas, overflow := m.Stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return wordGas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
		requestedSize, overflow := m.Stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		var gas uint64 = params.LogGas
		if gas, overflow = math.SafeAdd(gas, n*params.LogTopicGas); overflow {
			return 0, ErrGasUintOverflow
		}
		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, params.LogDataGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func makeGasExp(byteCost uint64) gasFunc {
	return func(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
		expByteLen := uint64((m.Stack.Back(1).BitLen() + 7) / 8)
		var (
			gas      = expByteLen * byteCost // no overflow check required. Max is 256 * ExpByte gas
			overflow bool
		)
		if gas, overflow = math.SafeAdd(gas, params.ExpGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasExpFrontier = makeGasExp(params.ExpByteFrontier)
	gasExpEIP158   = makeGasExp(params.ExpByteEIP158)
)

// storageHost resolves the storage capability of h.
func storageHost(h Handler) (StorageHost, ExitReason) {
	host, ok := h.(StorageHost)
	if !ok {
		return nil, FatalNotSupported
	}
	return host, nil
}

// gasSStore prices SSTORE by the zeroness transition of the slot. Refunds
// are recorded by the instruction once the cost is paid.
func gasSStore(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	host, reason := storageHost(h)
	if reason != nil {
		return 0, reason
	}
	var (
		y, x    = m.Stack.Back(1), m.Stack.Back(0)
		current = host.GetState(m.Contract.Address(), x.Bytes32())
	)
	if current == (common.Hash{}) && y.Sign() != 0 { // 0 => non 0
		return params.SstoreSetGas, nil
	}
	return params.SstoreResetGas, nil
}

// gasSStoreEIP2929 prices SSTORE with access-list warmness. It only reads the
// host; opSstoreEIP2929 warms the slot once the cost is paid.
func gasSStoreEIP2929(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	host, reason := storageHost(h)
	if reason != nil {
		return 0, reason
	}
	// If we fail the minimum gas availability invariant, fail (0)
	if m.Gas.Remaining() <= params.SstoreSentryGasEIP2200 {
		return 0, ErrOutOfGas
	}
	var (
		y, x    = m.Stack.Back(1), m.Stack.Back(0)
		slot    = common.Hash(x.Bytes32())
		value   = common.Hash(y.Bytes32())
		current = host.GetState(m.Contract.Address(), slot)
		cost    = uint64(0)
	)
	// Check slot presence in the access list
	if !host.SlotInAccessList(m.Contract.Address(), slot) {
		cost = params.ColdSloadCostEIP2929
	}
	if current == value { // noop (1)
		return cost + params.WarmStorageReadCostEIP2929, nil
	}
	if current == (common.Hash{}) { // create slot (2.1.1)
		return cost + params.SstoreSetGas, nil
	}
	return cost + (params.SstoreResetGas - params.ColdSloadCostEIP2929), nil // write existing slot (2.1.2)
}

// gasSLoadEIP2929 calculates dynamic gas for SLOAD according to EIP-2929
// For SLOAD, if the (address, storage_key) pair (where address is the address of the contract
// whose storage is being read) is not yet in accessed_storage_keys,
// charge 2100 gas. If the pair is already in accessed_storage_keys, charge 100 gas.
// opSloadEIP2929 adds the pair after the charge.
func gasSLoadEIP2929(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	host, reason := storageHost(h)
	if reason != nil {
		return 0, reason
	}
	loc := m.Stack.Peek()
	if host.SlotInAccessList(m.Contract.Address(), loc.Bytes32()) {
		return params.WarmStorageReadCostEIP2929, nil
	}
	return params.ColdSloadCostEIP2929, nil
}

// gasEOFCreate charges the hashing of the init container.
func gasEOFCreate(m *Machine, h Handler, memorySize uint64) (uint64, ExitReason) {
	sub, ok := m.Contract.Code.SubContainer(int(m.Cursor().ReadU8()))
	if !ok {
		return 0, ErrInvalidContainer
	}
	gas, overflow := math.SafeMul(toWordSize(uint64(len(sub))), params.Keccak256WordGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// callGas returns the all-but-one-64th of available gas forwarded to a
// nested execution.
func callGas(available uint64) uint64 {
	return available - available/64
}
