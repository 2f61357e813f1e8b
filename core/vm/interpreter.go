// Copyright 2014 The go-ethereum Authors
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
	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/log"
	"github.com/bnb-chain/evmcore/params"
	mapset "github.com/deckarep/golang-set/v2"
)

// Config are the configuration options for the Interpreter
type Config struct {
	Tracer      *tracing.Hooks
	Fork        params.Fork // Rule set the instruction table is built for
	ExtraEips   []int       // Additional EIPS that are to be enabled
	StackLimit  uint64      // Zero selects params.StackLimit
	MemoryLimit uint64      // Zero selects params.MemoryLimit

	// Analysis shares analysed code between runs. Code is analysed on
	// every load when nil.
	Analysis *AnalysisCache

	// LogEveryN trace-logs every Nth dispatched instruction. Zero disables it.
	LogEveryN uint64
}

// EVMInterpreter represents an EVM interpreter
type EVMInterpreter struct {
	cfg   Config
	rules params.Rules
	table *JumpTable

	sampler *log.EveryN
}

// NewEVMInterpreter returns a new instance of the Interpreter.
func NewEVMInterpreter(cfg Config) *EVMInterpreter {
	var (
		rules = cfg.Fork.Rules()
		table = NewInstructionSet(rules)
		eips  = mapset.NewThreadUnsafeSet[int]()
	)
	var extraEips []int
	for _, eip := range cfg.ExtraEips {
		if !eips.Add(eip) {
			continue
		}
		if err := EnableEIP(eip, table); err != nil {
			// Disable it, so caller can check if it's activated or not
			log.Warn("EIP activation failed", "eip", eip, "error", err)
		} else {
			extraEips = append(extraEips, eip)
		}
	}
	cfg.ExtraEips = extraEips
	in := &EVMInterpreter{cfg: cfg, rules: rules, table: table}
	if cfg.LogEveryN > 0 {
		in.sampler = log.NewEveryN(cfg.LogEveryN)
	}
	return in
}

// Config returns the effective configuration. ExtraEips holds only the EIPs
// that were activated.
func (in *EVMInterpreter) Config() Config { return in.cfg }

// Rules returns the rule set of the instruction table.
func (in *EVMInterpreter) Rules() params.Rules { return in.rules }

// Table returns the instruction table.
func (in *EVMInterpreter) Table() *JumpTable { return in.table }

// Load returns analysed bytecode for code, through the analysis cache if one
// is configured.
func (in *EVMInterpreter) Load(code []byte) (*Bytecode, error) {
	if in.cfg.Analysis != nil {
		return in.cfg.Analysis.Load(code, in.rules.IsEOF)
	}
	return ParseBytecode(code, in.rules.IsEOF)
}

// Execute dispatches op through the instruction table, reporting it to the
// tracer first and the fault afterwards.
func (in *EVMInterpreter) Execute(m *Machine, op OpCode, pc uint64, h Handler) Control {
	tracer := in.cfg.Tracer
	gas := m.Gas.Remaining()
	if tracer != nil && tracer.OnOpcode != nil {
		tracer.OnOpcode(pc, byte(op), gas, in.table.constantGas(op), m, m.ReturnDataBuffer, m.Depth, nil)
	}
	if in.sampler != nil && in.sampler.Ok() {
		log.Trace("Dispatching instruction", "pc", pc, "op", op, "gas", gas, "depth", m.Depth)
	}
	ctrl := in.table.Execute(m, op, pc, h)
	opcodeCount.Inc(1)

	if ctrl.Kind() == ControlExit && (IsError(ctrl.Reason()) || IsFatal(ctrl.Reason())) {
		faultCount.Inc(1)
		if tracer != nil && tracer.OnFault != nil {
			var cost uint64
			if left := m.Gas.Remaining(); left < gas {
				cost = gas - left
			}
			tracer.OnFault(pc, byte(op), gas, cost, m, m.Depth, ctrl.Reason())
		}
	}
	return ctrl
}

// Run loops and evaluates the contract's code with the given gas and returns
// the return data, the gas left and the terminal reason.
//
// It's important to note that any fault consumes all gas, a revert keeps the
// gas left.
func (in *EVMInterpreter) Run(contract *Contract, gas uint64, h Handler) (ret []byte, gasLeft uint64, reason ExitReason) {
	return in.RunAt(contract, gas, h, 0)
}

// RunAt is Run for a nested execution at the given call depth.
func (in *EVMInterpreter) RunAt(contract *Contract, gas uint64, h Handler, depth int) (ret []byte, gasLeft uint64, reason ExitReason) {
	// The call depth is restricted to 1024
	if depth > int(params.CallCreateDepth) {
		return nil, gas, ErrCallTooDeep
	}
	tracer := in.cfg.Tracer
	if tracer != nil {
		if tracer.OnEnter != nil {
			tracer.OnEnter(depth, contract.Caller(), contract.Address(), contract.Input, gas, contract.Value())
		}
		if tracer.OnGasChange != nil {
			tracer.OnGasChange(0, gas, tracing.GasChangeCallInitialBalance)
		}
	}
	m := NewMachineWithConfig(contract, gas, in, MachineConfig{
		StackLimit:  in.cfg.StackLimit,
		MemoryLimit: in.cfg.MemoryLimit,
	})
	m.Depth = depth
	defer m.Release()

	reason = m.Run(h)
	runCount.Inc(1)

	switch {
	case IsSucceed(reason):
		ret, gasLeft = m.ReturnValue(), m.Gas.Remaining()
		if m.Deployed != nil {
			ret = m.Deployed
		}
	case IsRevert(reason):
		ret, gasLeft = m.ReturnValue(), m.Gas.Remaining()
	default:
		if tracer != nil && tracer.OnGasChange != nil {
			tracer.OnGasChange(m.Gas.Remaining(), 0, tracing.GasChangeCallFailedExecution)
		}
	}
	log.Debug("Execution finished", "depth", depth, "steps", m.Steps(), "gasUsed", gas-gasLeft, "status", reason)

	if tracer != nil {
		if gasLeft > 0 && tracer.OnGasChange != nil {
			tracer.OnGasChange(gasLeft, 0, tracing.GasChangeCallLeftOverReturned)
		}
		if tracer.OnExit != nil {
			tracer.OnExit(depth, ret, gas-gasLeft, exitErr(reason), !IsSucceed(reason))
		}
	}
	return ret, gasLeft, reason
}

// exitErr maps a successful exit to a nil error for tracers.
func exitErr(reason ExitReason) error {
	if IsSucceed(reason) {
		return nil
	}
	return reason
}
