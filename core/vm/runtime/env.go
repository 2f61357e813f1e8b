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

package runtime

import (
	"bytes"
	"maps"
	"slices"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/log"
	"github.com/bnb-chain/evmcore/params"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Log is a log emitted by a LOG instruction.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

type slot struct {
	addr common.Address
	key  common.Hash
}

type storage map[common.Address]map[common.Hash]common.Hash

func (s storage) get(addr common.Address, key common.Hash) common.Hash {
	return s[addr][key]
}

func (s storage) set(addr common.Address, key, value common.Hash) {
	slots, ok := s[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s[addr] = slots
	}
	slots[key] = value
}

func (s storage) copy() storage {
	cpy := make(storage, len(s))
	for addr, slots := range s {
		cpy[addr] = maps.Clone(slots)
	}
	return cpy
}

// Env is an in-memory host. It gives the machines it drives storage,
// transient storage and log collection, and deploys the containers created
// by EOFCREATE. An Env is not safe for concurrent use.
type Env struct {
	interpreter *vm.EVMInterpreter
	hooks       *tracing.Hooks

	state     storage
	transient storage
	warm      mapset.Set[slot]
	logs      []*Log
	code      map[common.Address][]byte
	opcodes   [256]uint64
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{
		state:     make(storage),
		transient: make(storage),
		warm:      mapset.NewThreadUnsafeSet[slot](),
		code:      make(map[common.Address][]byte),
	}
}

// Copy returns an independent copy of the environment. Opcode statistics
// start from zero in the copy.
func (e *Env) Copy() *Env {
	return &Env{
		interpreter: e.interpreter,
		hooks:       e.hooks,
		state:       e.state.copy(),
		transient:   e.transient.copy(),
		warm:        e.warm.Clone(),
		logs:        append([]*Log(nil), e.logs...),
		code:        maps.Clone(e.code),
	}
}

// bind attaches the interpreter nested executions run on.
func (e *Env) bind(in *vm.EVMInterpreter) {
	e.interpreter = in
	e.hooks = in.Config().Tracer
}

// TraceOpcode counts dispatched opcodes.
func (e *Env) TraceOpcode(op vm.OpCode, m *vm.Machine) {
	e.opcodes[op]++
}

// OpCounts returns how often each opcode was dispatched.
func (e *Env) OpCounts() [256]uint64 {
	return e.opcodes
}

func (e *Env) GetState(addr common.Address, key common.Hash) common.Hash {
	return e.state.get(addr, key)
}

func (e *Env) SetState(addr common.Address, key common.Hash, value common.Hash) {
	if e.hooks != nil && e.hooks.OnStorageChange != nil {
		e.hooks.OnStorageChange(addr, key, e.state.get(addr, key), value)
	}
	e.state.set(addr, key, value)
}

func (e *Env) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return e.transient.get(addr, key)
}

func (e *Env) SetTransientState(addr common.Address, key common.Hash, value common.Hash) {
	e.transient.set(addr, key, value)
}

func (e *Env) SlotInAccessList(addr common.Address, key common.Hash) bool {
	return e.warm.Contains(slot{addr, key})
}

func (e *Env) AddSlotToAccessList(addr common.Address, key common.Hash) {
	e.warm.Add(slot{addr, key})
}

func (e *Env) AddLog(addr common.Address, topics []common.Hash, data []byte) {
	if e.hooks != nil && e.hooks.OnLog != nil {
		e.hooks.OnLog(addr, topics, data)
	}
	e.logs = append(e.logs, &Log{Address: addr, Topics: topics, Data: data})
}

// Logs returns the logs emitted so far.
func (e *Env) Logs() []*Log {
	return e.logs
}

// Code returns the container deployed at addr.
func (e *Env) Code(addr common.Address) []byte {
	return e.code[addr]
}

// Deployed returns the addresses of all deployed containers in ascending
// order.
func (e *Env) Deployed() []common.Address {
	addrs := make([]common.Address, 0, len(e.code))
	for addr := range e.code {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return addrs
}

type snapshot struct {
	state, transient storage
	warm             mapset.Set[slot]
	logs             int
}

func (e *Env) snapshot() snapshot {
	return snapshot{
		state:     e.state.copy(),
		transient: e.transient.copy(),
		warm:      e.warm.Clone(),
		logs:      len(e.logs),
	}
}

func (e *Env) revertTo(s snapshot) {
	e.state, e.transient, e.warm = s.state, s.transient, s.warm
	e.logs = e.logs[:s.logs]
}

// EOFCreate runs initContainer on a nested machine and deploys the container
// it returns at the address derived from the creator, salt and init code.
// State changes of a failed or reverted run are rolled back.
func (e *Env) EOFCreate(m *vm.Machine, initContainer []byte, input []byte, value *uint256.Int, salt common.Hash, gas uint64) (common.Address, []byte, uint64, vm.ExitReason) {
	if e.interpreter == nil {
		return common.Address{}, nil, gas, vm.FatalNotSupported
	}
	if e.hooks != nil && e.hooks.OnGasChange != nil {
		left := m.Gas.Remaining()
		e.hooks.OnGasChange(left+gas, left, tracing.GasChangeCallContractCreation)
	}
	addr := crypto.CreateAddress2(m.Address(), salt, crypto.Keccak256(initContainer))
	if _, exists := e.code[addr]; exists {
		return common.Address{}, nil, 0, vm.ErrInvalidContainer
	}
	code, err := e.interpreter.Load(initContainer)
	if err != nil {
		log.Debug("Rejected init container", "addr", addr, "err", err)
		return common.Address{}, nil, 0, vm.ErrInvalidContainer
	}
	contract := vm.GetContract(m.Address(), addr, value, code)
	defer vm.ReturnContract(contract)
	contract.Input = input

	snap := e.snapshot()
	ret, gasLeft, reason := e.interpreter.RunAt(contract, gas, e, m.Depth+1)
	switch {
	case vm.IsSucceed(reason):
		if !vm.HasEOFMagic(ret) {
			reason, gasLeft = vm.ErrInvalidContainer, 0
			break
		}
		cost := uint64(len(ret)) * params.CreateDataGas
		if gasLeft < cost {
			reason, gasLeft = vm.ErrOutOfGas, 0
			break
		}
		e.code[addr] = ret
		return addr, nil, gasLeft - cost, reason
	case vm.IsRevert(reason):
		e.revertTo(snap)
		return common.Address{}, ret, gasLeft, reason
	}
	e.revertTo(snap)
	return common.Address{}, nil, gasLeft, reason
}
