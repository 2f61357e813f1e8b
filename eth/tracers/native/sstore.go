// Copyright 2022 The go-ethereum Authors
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

package native

import (
	"encoding/json"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/eth/tracers"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

func init() {
	tracers.DefaultDirectory.Register("sstoreTracer", newSstoreTracer)
}

type state = map[common.Hash]common.Hash

type account struct {
	StateDiff state  `json:"stateDiff"`
	Code      string `json:"code"`
}

type prestate = map[common.Address]*account

// change is a journalled storage write.
type change struct {
	addr common.Address
	slot common.Hash
	prev common.Hash
}

// sstoreTracer collects the net storage writes of a run and the containers
// it deployed. Writes of reverted frames are rolled back.
type sstoreTracer struct {
	SSTORE    prestate `json:"sstore"`
	Op        string   `json:"op"`
	Interrupt bool     `json:"interrupt"`
	Reason    error    `json:"reason"`

	pre     map[common.Address]state
	created map[common.Address]bool
	journal []change
	frames  []int // journal length at frame entry
	callees []common.Address
}

func newSstoreTracer(_ json.RawMessage) (*tracers.Tracer, error) {
	t := &sstoreTracer{
		SSTORE:  prestate{},
		pre:     make(map[common.Address]state),
		created: make(map[common.Address]bool),
	}
	return &tracers.Tracer{
		Hooks: &tracing.Hooks{
			OnEnter:         t.OnEnter,
			OnExit:          t.OnExit,
			OnOpcode:        t.OnOpcode,
			OnStorageChange: t.OnStorageChange,
		},
		GetResult: t.GetResult,
		Stop:      t.Stop,
	}, nil
}

func (t *sstoreTracer) account(addr common.Address) *account {
	acc, ok := t.SSTORE[addr]
	if !ok {
		acc = &account{StateDiff: make(state)}
		t.SSTORE[addr] = acc
	}
	return acc
}

// OnOpcode tracks the way the run ends and the addresses EOFCREATE targets.
func (t *sstoreTracer) OnOpcode(pc uint64, opcode byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	op := vm.OpCode(opcode)
	t.Op = opClass(op)

	stack := scope.StackData()
	if op != vm.EOFCREATE || len(stack) < 4 {
		return
	}
	if addr, ok := eofCreateAddress(scope, pc, stack); ok {
		t.created[addr] = true
	}
}

// eofCreateAddress derives the address the EOFCREATE at pc deploys to.
func eofCreateAddress(scope tracing.OpContext, pc uint64, stack []uint256.Int) (common.Address, bool) {
	code := scope.ContractCode()
	if pc+1 >= uint64(len(code)) {
		return common.Address{}, false
	}
	var c vm.Container
	if err := c.UnmarshalBinary(code); err != nil {
		return common.Address{}, false
	}
	idx := int(code[pc+1])
	if idx >= len(c.SubContainers) {
		return common.Address{}, false
	}
	salt := stack[len(stack)-2].Bytes32()
	return crypto.CreateAddress2(scope.Address(), salt, crypto.Keccak256(c.SubContainers[idx])), true
}

// OnStorageChange records a write, keeping the first previous value seen.
func (t *sstoreTracer) OnStorageChange(addr common.Address, slot common.Hash, prev, new common.Hash) {
	pre, ok := t.pre[addr]
	if !ok {
		pre = make(state)
		t.pre[addr] = pre
	}
	if _, seen := pre[slot]; !seen {
		pre[slot] = prev
	}
	t.journal = append(t.journal, change{addr, slot, prev})
	t.account(addr).StateDiff[slot] = new
}

// OnEnter is called when the interpreter enters a new frame.
func (t *sstoreTracer) OnEnter(depth int, from common.Address, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	t.frames = append(t.frames, len(t.journal))
	t.callees = append(t.callees, to)
}

// OnExit rolls back the writes of a failed frame and records the container
// a successful creation returned.
func (t *sstoreTracer) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	size := len(t.frames)
	if size == 0 {
		return
	}
	start, callee := t.frames[size-1], t.callees[size-1]
	t.frames, t.callees = t.frames[:size-1], t.callees[:size-1]

	if reverted {
		for i := len(t.journal) - 1; i >= start; i-- {
			c := t.journal[i]
			t.SSTORE[c.addr].StateDiff[c.slot] = c.prev
		}
		t.journal = t.journal[:start]
		return
	}
	if depth > 0 && t.created[callee] {
		t.account(callee).Code = hexutil.Encode(output)
	}
}

// GetResult returns the net storage changes as json, dropping slots that end
// up at their original value.
func (t *sstoreTracer) GetResult() (json.RawMessage, error) {
	for addr, acc := range t.SSTORE {
		for slot, val := range acc.StateDiff {
			if t.pre[addr][slot] == val {
				delete(acc.StateDiff, slot)
			}
		}
		if len(acc.StateDiff) == 0 && len(acc.Code) == 0 {
			delete(t.SSTORE, addr)
		}
	}
	res, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res), t.Reason
}

// Stop terminates execution of the tracer at the first opportune moment.
func (t *sstoreTracer) Stop(err error) {
	t.Reason = err
	t.Interrupt = true
}
