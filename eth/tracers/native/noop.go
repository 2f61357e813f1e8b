// Copyright 2021 The go-ethereum Authors
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
	"github.com/holiman/uint256"
)

func init() {
	tracers.DefaultDirectory.Register("noopTracer", newNoopTracer)
}

// list is the set of addresses a run entered.
type list = map[common.Address]common.Address

// noopTracer records only how the run ended and which addresses it
// entered. It's mostly useful for testing purposes.
type noopTracer struct {
	Op        string `json:"op"`
	Interrupt bool   `json:"interrupt"`
	Reason    error  `json:"reason"`
	List      list   `json:"list"`
}

// newNoopTracer returns a new noop tracer.
func newNoopTracer(_ json.RawMessage) (*tracers.Tracer, error) {
	t := &noopTracer{List: make(list)}
	return &tracers.Tracer{
		Hooks: &tracing.Hooks{
			OnOpcode: t.OnOpcode,
			OnEnter:  t.OnEnter,
		},
		GetResult: t.GetResult,
		Stop:      t.Stop,
	}, nil
}

// OnOpcode classifies the last dispatched opcode.
func (t *noopTracer) OnOpcode(pc uint64, opcode byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	t.Op = opClass(vm.OpCode(opcode))
}

// OnEnter is called when the interpreter enters a new frame.
func (t *noopTracer) OnEnter(depth int, from common.Address, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	t.List[to] = to
}

// GetResult returns the json-encoded summary.
func (t *noopTracer) GetResult() (json.RawMessage, error) {
	res, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res), nil
}

// Stop terminates execution of the tracer at the first opportune moment.
func (t *noopTracer) Stop(err error) {
	t.Reason = err
	t.Interrupt = true
}

// opClass names the way op ends a frame, or "other" if it doesn't.
func opClass(op vm.OpCode) string {
	switch op {
	case vm.RETURN, vm.STOP, vm.RETURNCONTRACT:
		return "RETURN"
	case vm.INVALID:
		return "INVALID"
	case vm.SELFDESTRUCT:
		return "SELFDESTRUCT"
	case vm.REVERT:
		return "REVERT"
	default:
		return "other"
	}
}
