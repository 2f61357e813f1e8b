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

// Package tracing defines hooks for 'live tracing' of machine execution.
// Tracers observe a run; they never influence control flow.
package tracing

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// OpContext provides the context at which the opcode is being
// executed in, including the memory, stack and various contract-level information.
type OpContext interface {
	MemoryData() []byte
	StackData() []uint256.Int
	Caller() common.Address
	Address() common.Address
	CallValue() *uint256.Int
	CallInput() []byte
	ContractCode() []byte
}

type (
	// EnterHook is invoked when the processing of a message starts.
	EnterHook = func(depth int, from common.Address, to common.Address, input []byte, gas uint64, value *uint256.Int)

	// ExitHook is invoked when the processing of a message ends.
	// `reverted` is true when the run ended with a revert or a fault.
	ExitHook = func(depth int, output []byte, gasUsed uint64, err error, reverted bool)

	// OpcodeHook is invoked just prior to the execution of an opcode.
	OpcodeHook = func(pc uint64, op byte, gas, cost uint64, scope OpContext, rData []byte, depth int, err error)

	// FaultHook is invoked when an error occurs during the execution of an opcode.
	FaultHook = func(pc uint64, op byte, gas, cost uint64, scope OpContext, depth int, err error)

	// GasChangeHook is invoked when the gas changes.
	GasChangeHook = func(old, new uint64, reason GasChangeReason)

	// StorageChangeHook is called when the storage of an account changes.
	StorageChangeHook = func(addr common.Address, slot common.Hash, prev, new common.Hash)

	// LogHook is called when a log is emitted.
	LogHook = func(addr common.Address, topics []common.Hash, data []byte)
)

type Hooks struct {
	// VM events
	OnEnter         EnterHook
	OnExit          ExitHook
	OnOpcode        OpcodeHook
	OnFault         FaultHook
	OnGasChange     GasChangeHook
	OnStorageChange StorageChangeHook
	OnLog           LogHook
}

// GasChangeReason is used to indicate the reason for a gas change, useful
// for tracing and reporting.
type GasChangeReason byte

const (
	GasChangeUnspecified GasChangeReason = iota

	// GasChangeCallInitialBalance is the initial balance for the call which will be equal to the gasLimit of the call.
	GasChangeCallInitialBalance
	// GasChangeCallLeftOverReturned is the amount of gas left over at the end of a run.
	GasChangeCallLeftOverReturned
	// GasChangeCallContractCreation is the amount of gas forwarded to a nested EOFCREATE.
	GasChangeCallContractCreation
	// GasChangeCallFailedExecution is the burning of the remaining gas when execution faults.
	GasChangeCallFailedExecution
)

func (r GasChangeReason) String() string {
	switch r {
	case GasChangeCallInitialBalance:
		return "CallInitialBalance"
	case GasChangeCallLeftOverReturned:
		return "CallLeftOverReturned"
	case GasChangeCallContractCreation:
		return "CallContractCreation"
	case GasChangeCallFailedExecution:
		return "CallFailedExecution"
	}
	return "Unspecified"
}
