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

package params

const (
	StackLimit      uint64 = 1024 // Maximum size of VM stack allowed.
	CallCreateDepth uint64 = 1024 // Maximum depth of call/create stack.

	// MemoryLimit bounds the addressable memory of one machine. Offsets above it
	// are never backed by memory and read back as zeroes.
	MemoryLimit uint64 = 0x1FFFFFFFE0

	MaxCodeSize     = 24576           // Maximum bytecode to permit for a contract
	MaxInitCodeSize = 2 * MaxCodeSize // Maximum initcode to permit in a creation transaction and create instructions

	Keccak256Gas     uint64 = 30 // Once per KECCAK256 operation.
	Keccak256WordGas uint64 = 6  // Once per word of the KECCAK256 operation's data.

	MemoryGas    uint64 = 3   // Times the address of the (highest referenced byte in memory + 1). NOTE: referencing happens on read, write and in instructions such as RETURN and CALL.
	QuadCoeffDiv uint64 = 512 // Divisor for the quadratic particle of the memory cost equation.
	CopyGas      uint64 = 3   // Once per word for copy operations

	JumpdestGas     uint64 = 1  // Once per JUMPDEST operation.
	ExpGas          uint64 = 10 // Once per EXP instruction
	ExpByteFrontier uint64 = 10 // was set to 10 in Frontier
	ExpByteEIP158   uint64 = 50 // was raised to 50 during Eip158 (Spurious Dragon)

	LogGas      uint64 = 375 // Per LOG* operation.
	LogDataGas  uint64 = 8   // Per byte in a LOG* operation's data.
	LogTopicGas uint64 = 375 // Multiplied by the * of the LOG*, per LOG transaction.

	SloadGasFrontier       uint64 = 50
	SloadGasEIP150         uint64 = 200
	SloadGasEIP1884        uint64 = 800   // Cost of SLOAD after EIP 1884 (part of Istanbul)
	SstoreSetGas           uint64 = 20000 // Once per SSTORE operation.
	SstoreResetGas         uint64 = 5000  // Once per SSTORE operation if the zeroness changes from zero.
	SstoreClearsRefund     uint64 = 15000 // Once per SSTORE operation if the zeroness changes to zero.
	SstoreSentryGasEIP2200 uint64 = 2300  // Minimum gas required to be present for an SSTORE call, not consumed

	SstoreClearsScheduleRefundEIP3529 uint64 = SstoreResetGas - ColdSloadCostEIP2929 + 1900 // Refund for clearing a slot after EIP-3529

	ColdSloadCostEIP2929       uint64 = 2100 // Cost of cold SLOAD after EIP 2929
	WarmStorageReadCostEIP2929 uint64 = 100  // WARM_STORAGE_READ_COST

	TstoreGas uint64 = 100 // Once per TSTORE operation.
	TloadGas  uint64 = 100 // Once per TLOAD operation.

	EOFCreateGas  uint64 = 32000 // Once per EOFCREATE operation.
	CreateDataGas uint64 = 200   // Per byte of deployed container.
)

// EOF v1 container limits.
const (
	EOFMaxCodeSections  = 1024
	EOFMaxContainers    = 256
	EOFMaxInputs        = 127
	EOFMaxOutputs       = 127
	EOFMaxStackHeight   = 1023
	EOFNonReturning     = 0x80
	EOFReturnStackLimit = 1024
)
