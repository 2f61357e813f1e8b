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

package logger

import (
	"encoding/json"
	"io"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// jsonLog is one line of the JSON trace.
type jsonLog struct {
	Pc            uint64              `json:"pc"`
	Op            vm.OpCode           `json:"op"`
	Gas           math.HexOrDecimal64 `json:"gas"`
	GasCost       math.HexOrDecimal64 `json:"gasCost"`
	Memory        hexutil.Bytes       `json:"memory,omitempty"`
	MemorySize    int                 `json:"memSize"`
	Stack         []hexutil.U256      `json:"stack"`
	ReturnData    hexutil.Bytes       `json:"returnData,omitempty"`
	Depth         int                 `json:"depth"`
	RefundCounter int64               `json:"refund"`
	OpName        string              `json:"opName"`
	Error         string              `json:"error,omitempty"`
}

type callLog struct {
	Output  hexutil.Bytes       `json:"output"`
	GasUsed math.HexOrDecimal64 `json:"gasUsed"`
	Err     string              `json:"error,omitempty"`
}

type jsonLogger struct {
	encoder *json.Encoder
	cfg     *Config
}

// NewJSONLogger creates a new EVM tracer that prints execution steps as JSON objects
// into the provided stream.
func NewJSONLogger(cfg *Config, writer io.Writer) *tracing.Hooks {
	l := &jsonLogger{encoder: json.NewEncoder(writer), cfg: cfg}
	if l.cfg == nil {
		l.cfg = &Config{}
	}
	return &tracing.Hooks{
		OnExit:   l.OnExit,
		OnOpcode: l.OnOpcode,
		OnFault:  l.OnFault,
	}
}

func (l *jsonLogger) OnFault(pc uint64, op byte, gas uint64, cost uint64, scope tracing.OpContext, depth int, err error) {
	l.OnOpcode(pc, op, gas, cost, scope, nil, depth, err)
}

func (l *jsonLogger) OnOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	memory := scope.MemoryData()
	stack := scope.StackData()

	log := jsonLog{
		Pc:            pc,
		Op:            vm.OpCode(op),
		Gas:           math.HexOrDecimal64(gas),
		GasCost:       math.HexOrDecimal64(cost),
		MemorySize:    len(memory),
		Depth:         depth,
		RefundCounter: refundOf(scope),
		OpName:        vm.OpCode(op).String(),
	}
	if err != nil {
		log.Error = err.Error()
	}
	if l.cfg.EnableMemory {
		log.Memory = memory
	}
	if !l.cfg.DisableStack {
		log.Stack = make([]hexutil.U256, len(stack))
		for i, item := range stack {
			log.Stack[i] = hexutil.U256(item)
		}
	}
	if l.cfg.EnableReturnData {
		log.ReturnData = rData
	}
	l.encoder.Encode(log)
}

// OnExit writes the output of the outermost frame.
func (l *jsonLogger) OnExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if depth > 0 {
		return
	}
	var errMsg string
	if err != nil {
		errMsg = err.Error()
	}
	l.encoder.Encode(callLog{output, math.HexOrDecimal64(gasUsed), errMsg})
}
