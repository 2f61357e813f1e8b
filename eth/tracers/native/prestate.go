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
	"math/big"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/eth/tracers"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

func init() {
	tracers.DefaultDirectory.Register("prestateTracer", newPrestateTracer)
}

type callFrame struct {
	Type    string         `json:"type"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to,omitempty"`
	Input   string         `json:"input"`
	Output  string         `json:"output,omitempty"`
	Gas     uint64         `json:"gas"`
	GasUsed uint64         `json:"gasUsed"`
	Value   *big.Int       `json:"value,omitempty"`
	Error   string         `json:"error,omitempty"`
	Calls   []callFrame    `json:"calls,omitempty"`
}

func (f *callFrame) processOutput(output []byte, err error) {
	output = common.CopyBytes(output)
	if err == nil {
		f.Output = bytesToHex(output)
		return
	}
	f.Error = err.Error()
	if err == vm.Reverted && len(output) > 0 {
		f.Output = bytesToHex(output)
	}
}

// prestateTracer reports the storage every run started from, ahead of the
// writes it makes, together with the frames it entered.
type prestateTracer struct {
	pre       map[common.Address]state
	callstack []callFrame
	list      list

	Op        string `json:"op"`
	Interrupt bool   `json:"interrupt"`
	Reason    error  `json:"reason"`
}

func newPrestateTracer(_ json.RawMessage) (*tracers.Tracer, error) {
	t := &prestateTracer{
		pre:  make(map[common.Address]state),
		list: make(list),
		Op:   "start",
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

// OnOpcode tracks the way the run ends.
func (t *prestateTracer) OnOpcode(pc uint64, opcode byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	t.Op = opClass(vm.OpCode(opcode))
}

// OnStorageChange keeps the value a slot held before its first write.
func (t *prestateTracer) OnStorageChange(addr common.Address, slot common.Hash, prev, new common.Hash) {
	pre, ok := t.pre[addr]
	if !ok {
		pre = make(state)
		t.pre[addr] = pre
	}
	if _, seen := pre[slot]; !seen {
		pre[slot] = prev
	}
}

// OnEnter is called when the interpreter enters a new frame.
func (t *prestateTracer) OnEnter(depth int, from common.Address, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	t.list[to] = to
	typ := "CALL"
	if depth > 0 {
		typ = vm.EOFCREATE.String()
	}
	call := callFrame{
		Type:  typ,
		From:  from,
		To:    to,
		Input: bytesToHex(input),
		Gas:   gas,
	}
	if value != nil && !value.IsZero() {
		call.Value = value.ToBig()
	}
	t.callstack = append(t.callstack, call)
}

// OnExit is called when the interpreter leaves a frame.
func (t *prestateTracer) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	size := len(t.callstack)
	if size == 0 {
		return
	}
	call := t.callstack[size-1]
	call.GasUsed = gasUsed
	call.processOutput(output, err)
	if size == 1 {
		t.callstack[0] = call
		return
	}
	t.callstack = t.callstack[:size-1]
	t.callstack[size-2].Calls = append(t.callstack[size-2].Calls, call)
}

// GetResult returns the json-encoded prestate and call tree.
func (t *prestateTracer) GetResult() (json.RawMessage, error) {
	var root callFrame
	if len(t.callstack) > 0 {
		root = t.callstack[0]
	}
	type storageAccount struct {
		Storage state `json:"storage"`
	}
	pre := make(map[common.Address]storageAccount, len(t.pre))
	for addr, slots := range t.pre {
		pre[addr] = storageAccount{Storage: slots}
	}
	res, err := json.Marshal(struct {
		Pre       map[common.Address]storageAccount `json:"pre"`
		List      list                              `json:"list"`
		Op        string                            `json:"op"`
		Interrupt bool                              `json:"interrupt"`
		Reason    error                             `json:"reason"`
		Callstack callFrame                         `json:"callstack"`
	}{pre, t.list, t.Op, t.Interrupt, t.Reason, root})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res), t.Reason
}

// Stop terminates execution of the tracer at the first opportune moment.
func (t *prestateTracer) Stop(err error) {
	t.Reason = err
	t.Interrupt = true
}

func bytesToHex(s []byte) string {
	return hexutil.Encode(s)
}
