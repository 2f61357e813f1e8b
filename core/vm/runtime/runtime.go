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

package runtime

import (
	"math"

	"github.com/bnb-chain/evmcore/common/gopool"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Config is a basic type specifying certain configuration flags for running
// the EVM.
type Config struct {
	Origin   common.Address // Caller of the executed code
	Address  common.Address // Address the code runs at
	Value    *uint256.Int
	GasLimit uint64
	ReadOnly bool

	// Parallelism bounds the workers of ExecuteParallel. Zero sizes the pool
	// by the number of inputs.
	Parallelism int

	Env       *Env
	EVMConfig vm.Config // EVMConfig.Fork selects the rule set
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.Origin == (common.Address{}) {
		cfg.Origin = common.BytesToAddress([]byte("origin"))
	}
	if cfg.Address == (common.Address{}) {
		cfg.Address = common.BytesToAddress([]byte("contract"))
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.Env == nil {
		cfg.Env = NewEnv()
	}
}

// Result is the outcome of one top-level execution.
type Result struct {
	Return  []byte
	GasUsed uint64
	Reason  vm.ExitReason
	Env     *Env
}

// Err returns nil for a successful halt and the exit reason otherwise.
func (r *Result) Err() error {
	if vm.IsSucceed(r.Reason) {
		return nil
	}
	return r.Reason
}

// Execute executes the code using the input as call data during the execution.
// It returns the EVM's return value, the environment the code ran against
// and an error if it failed.
//
// Execute sets up an in-memory environment for the execution of the given
// code unless cfg carries one.
func Execute(code, input []byte, cfg *Config) ([]byte, *Env, error) {
	res, err := Run(code, input, cfg)
	if err != nil {
		return nil, nil, err
	}
	return res.Return, res.Env, res.Err()
}

// Run is Execute reporting the gas used and the exit reason. The returned
// error is only set when code cannot be loaded.
func Run(code, input []byte, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	in := vm.NewEVMInterpreter(cfg.EVMConfig)
	bytecode, err := in.Load(code)
	if err != nil {
		return nil, err
	}
	return run(in, bytecode, input, cfg, cfg.Env), nil
}

// ExecuteParallel runs code once per input. The container is analysed once
// and shared by all runs; every run gets its own copy of cfg.Env. Results are
// returned in input order.
func ExecuteParallel(code []byte, inputs [][]byte, cfg *Config) ([]*Result, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	in := vm.NewEVMInterpreter(cfg.EVMConfig)
	bytecode, err := in.Load(code)
	if err != nil {
		return nil, err
	}
	workers := cfg.Parallelism
	if workers <= 0 {
		workers = gopool.Threads(len(inputs))
	}
	group, err := gopool.NewGroup(workers)
	if err != nil {
		return nil, err
	}
	var (
		results = make([]*Result, len(inputs))
		poolErr error
	)
	for i, input := range inputs {
		env := cfg.Env.Copy()
		if poolErr = group.Go(func() {
			results[i] = run(in, bytecode, input, cfg, env)
		}); poolErr != nil {
			break
		}
	}
	group.Wait()
	if poolErr != nil {
		return nil, poolErr
	}
	log.Debug("Parallel execution finished", "runs", len(inputs), "workers", workers)
	return results, nil
}

func run(in *vm.EVMInterpreter, code *vm.Bytecode, input []byte, cfg *Config, env *Env) *Result {
	env.bind(in)
	contract := vm.GetContract(cfg.Origin, cfg.Address, cfg.Value, code)
	defer vm.ReturnContract(contract)
	contract.Input = input
	contract.ReadOnly = cfg.ReadOnly

	ret, gasLeft, reason := in.Run(contract, cfg.GasLimit, env)
	return &Result{
		Return:  ret,
		GasUsed: cfg.GasLimit - gasLeft,
		Reason:  reason,
		Env:     env,
	}
}
