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
	"testing"

	"github.com/bnb-chain/evmcore/core/tracing"
	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/internal/vmtest"
	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// returnTen stores 10 in memory and returns the word.
var returnTen = []byte{
	byte(vm.PUSH1), 10,
	byte(vm.PUSH1), 0,
	byte(vm.MSTORE),
	byte(vm.PUSH1), 32,
	byte(vm.PUSH1), 0,
	byte(vm.RETURN),
}

func TestDefaults(t *testing.T) {
	cfg := new(Config)
	setDefaults(cfg)

	assert.NotEqual(t, common.Address{}, cfg.Origin)
	assert.NotEqual(t, common.Address{}, cfg.Address)
	assert.NotNil(t, cfg.Value)
	assert.Equal(t, uint64(math.MaxUint64), cfg.GasLimit)
	assert.NotNil(t, cfg.Env)
}

func TestEVM(t *testing.T) {
	require.NotPanics(t, func() {
		Execute([]byte{
			byte(vm.DIFFICULTY),
			byte(vm.TIMESTAMP),
			byte(vm.GASLIMIT),
			byte(vm.PUSH1),
			byte(vm.ORIGIN),
			byte(vm.BLOCKHASH),
			byte(vm.COINBASE),
		}, nil, nil)
	})
}

func TestExecute(t *testing.T) {
	for _, fork := range vmtest.Forks() {
		t.Run(vmtest.Name(fork), func(t *testing.T) {
			ret, _, err := Execute(returnTen, nil, &Config{EVMConfig: vm.Config{Fork: fork}})
			require.NoError(t, err)
			assert.Equal(t, uint64(10), new(uint256.Int).SetBytes(ret).Uint64())
		})
	}
}

func TestRun(t *testing.T) {
	res, err := Run(returnTen, nil, &Config{GasLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, vm.Returned, res.Reason)
	assert.Equal(t, uint64(18), res.GasUsed)
	assert.NoError(t, res.Err())

	res, err = Run([]byte{byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.REVERT)}, nil, &Config{GasLimit: 100, EVMConfig: vm.Config{Fork: params.Byzantium}})
	require.NoError(t, err)
	assert.Equal(t, vm.Reverted, res.Reason)
	assert.Equal(t, uint64(6), res.GasUsed)
	assert.ErrorIs(t, res.Err(), vm.Reverted)

	res, err = Run([]byte{byte(vm.ADD)}, nil, &Config{GasLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, vm.ErrStackUnderflow, res.Reason)
	assert.Equal(t, uint64(100), res.GasUsed)

	_, err = Run([]byte{0xef, 0x00, 0x01}, nil, &Config{EVMConfig: vm.Config{Fork: params.Osaka}})
	assert.Error(t, err)
}

func TestExecuteCallData(t *testing.T) {
	// CALLDATASIZE PUSH1 0 PUSH1 0 CALLDATACOPY CALLDATASIZE PUSH1 0 RETURN
	code := []byte{
		byte(vm.CALLDATASIZE), byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.CALLDATACOPY),
		byte(vm.CALLDATASIZE), byte(vm.PUSH1), 0, byte(vm.RETURN),
	}
	ret, _, err := Execute(code, []byte("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), ret)
}

func TestExecuteStorage(t *testing.T) {
	var changes int
	cfg := &Config{
		EVMConfig: vm.Config{
			Fork: params.LatestFork,
			Tracer: &tracing.Hooks{
				OnStorageChange: func(addr common.Address, slot, prev, new common.Hash) {
					changes++
				},
			},
		},
	}
	// PUSH1 0x2a PUSH1 1 SSTORE PUSH1 7 PUSH1 1 TSTORE
	code := []byte{byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 1, byte(vm.SSTORE), byte(vm.PUSH1), 7, byte(vm.PUSH1), 1, byte(vm.TSTORE)}
	_, env, err := Execute(code, nil, cfg)
	require.NoError(t, err)

	key := common.BigToHash(common.Big1)
	assert.Equal(t, common.BytesToHash([]byte{0x2a}), env.GetState(cfg.Address, key))
	assert.Equal(t, common.BytesToHash([]byte{7}), env.GetTransientState(cfg.Address, key))
	assert.True(t, env.SlotInAccessList(cfg.Address, key))
	assert.Equal(t, 1, changes)
	assert.Equal(t, uint64(4), env.OpCounts()[vm.PUSH1])
	assert.Equal(t, uint64(1), env.OpCounts()[vm.SSTORE])
}

func TestExecuteLogs(t *testing.T) {
	var logged []common.Address
	cfg := &Config{
		EVMConfig: vm.Config{
			Fork: params.LatestFork,
			Tracer: &tracing.Hooks{
				OnLog: func(addr common.Address, topics []common.Hash, data []byte) {
					logged = append(logged, addr)
				},
			},
		},
	}
	// PUSH1 0xaa PUSH1 0 MSTORE8 PUSH1 5 PUSH1 1 PUSH1 0 LOG1
	code := []byte{
		byte(vm.PUSH1), 0xaa, byte(vm.PUSH1), 0, byte(vm.MSTORE8),
		byte(vm.PUSH1), 5, byte(vm.PUSH1), 1, byte(vm.PUSH1), 0, byte(vm.LOG1),
	}
	_, env, err := Execute(code, nil, cfg)
	require.NoError(t, err)

	require.Len(t, env.Logs(), 1)
	l := env.Logs()[0]
	assert.Equal(t, cfg.Address, l.Address)
	assert.Equal(t, []common.Hash{common.BytesToHash([]byte{5})}, l.Topics)
	assert.Equal(t, []byte{0xaa}, l.Data)
	assert.Equal(t, []common.Address{cfg.Address}, logged)
}

func TestExecuteReadOnly(t *testing.T) {
	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 1, byte(vm.SSTORE)}
	_, _, err := Execute(code, nil, &Config{ReadOnly: true, EVMConfig: vm.Config{Fork: params.LatestFork}})
	assert.ErrorIs(t, err, vm.ErrWriteProtection)
}

func TestExecuteParallel(t *testing.T) {
	// PUSH1 0 CALLDATALOAD PUSH1 1 ADD PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
	code := []byte{
		byte(vm.PUSH1), 0, byte(vm.CALLDATALOAD), byte(vm.PUSH1), 1, byte(vm.ADD),
		byte(vm.PUSH1), 0, byte(vm.MSTORE), byte(vm.PUSH1), 32, byte(vm.PUSH1), 0, byte(vm.RETURN),
	}
	inputs := make([][]byte, 64)
	for i := range inputs {
		inputs[i] = common.LeftPadBytes([]byte{byte(i)}, 32)
	}
	results, err := ExecuteParallel(code, inputs, &Config{Parallelism: 4, EVMConfig: vm.Config{Fork: params.LatestFork}})
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, res := range results {
		require.NotNil(t, res, "run %d", i)
		assert.Equal(t, vm.Returned, res.Reason, "run %d", i)
		assert.Equal(t, uint64(i+1), new(uint256.Int).SetBytes(res.Return).Uint64(), "run %d", i)
	}
}

func TestExecuteParallelIsolatesEnv(t *testing.T) {
	// PUSH1 0 CALLDATALOAD PUSH1 1 SSTORE
	code := []byte{byte(vm.PUSH1), 0, byte(vm.CALLDATALOAD), byte(vm.PUSH1), 1, byte(vm.SSTORE)}
	cfg := &Config{EVMConfig: vm.Config{Fork: params.LatestFork}}
	results, err := ExecuteParallel(code, [][]byte{{1}, {2}, {3}}, cfg)
	require.NoError(t, err)

	key := common.BigToHash(common.Big1)
	for _, res := range results {
		require.NoError(t, res.Err())
		assert.NotEqual(t, common.Hash{}, res.Env.GetState(cfg.Address, key))
	}
	assert.Equal(t, common.Hash{}, cfg.Env.GetState(cfg.Address, key))
	assert.NotEqual(t, results[0].Env.GetState(cfg.Address, key), results[1].Env.GetState(cfg.Address, key))
}

// eof encodes a single section container with optional sub containers.
func eof(t *testing.T, code []byte, subs ...[]byte) []byte {
	t.Helper()
	c := vm.Container{
		Types:         []vm.TypeSection{{Inputs: 0, Outputs: 0x80, MaxStackHeight: 16}},
		Code:          [][]byte{code},
		SubContainers: subs,
	}
	b, err := c.MarshalBinary()
	require.NoError(t, err)
	return b
}

// deployer returns a container creating initCode with EOFCREATE and
// returning the created address.
func deployer(t *testing.T, initCode []byte) []byte {
	return eof(t, []byte{
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.PUSH1), 0x01, byte(vm.PUSH0),
		byte(vm.EOFCREATE), 0x00,
		byte(vm.PUSH1), 0, byte(vm.MSTORE),
		byte(vm.PUSH1), 32, byte(vm.PUSH1), 0, byte(vm.RETURN),
	}, initCode)
}

func TestExecuteEOFCreate(t *testing.T) {
	runtimeCode := eof(t, []byte{byte(vm.STOP)})
	// PUSH1 0x2a PUSH1 0 SSTORE PUSH0 PUSH0 RETURNCONTRACT 0
	initCode := eof(t, []byte{
		byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 0, byte(vm.SSTORE),
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.RETURNCONTRACT), 0x00,
	}, runtimeCode)
	code := deployer(t, initCode)

	var changes []tracing.GasChangeReason
	cfg := &Config{
		GasLimit: 1_000_000,
		EVMConfig: vm.Config{
			Fork: params.Osaka,
			Tracer: &tracing.Hooks{
				OnGasChange: func(old, new uint64, reason tracing.GasChangeReason) {
					changes = append(changes, reason)
				},
			},
		},
	}
	ret, env, err := Execute(code, nil, cfg)
	require.NoError(t, err)

	want := crypto.CreateAddress2(cfg.Address, common.BigToHash(common.Big1), crypto.Keccak256(initCode))
	assert.Equal(t, want, common.BytesToAddress(ret))
	assert.Equal(t, runtimeCode, env.Code(want))
	assert.Equal(t, []common.Address{want}, env.Deployed())
	assert.Equal(t, common.BytesToHash([]byte{0x2a}), env.GetState(want, common.Hash{}))
	assert.Contains(t, changes, tracing.GasChangeCallContractCreation)

	// A second deployment with the same salt collides.
	ret, _, err = Execute(code, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, common.BytesToAddress(ret))
}

func TestExecuteEOFCreateRevert(t *testing.T) {
	runtimeCode := eof(t, []byte{byte(vm.STOP)})
	// PUSH1 0x2a PUSH1 0 SSTORE PUSH0 PUSH0 REVERT, with an unused runtime
	initCode := eof(t, []byte{
		byte(vm.PUSH1), 0x2a, byte(vm.PUSH1), 0, byte(vm.SSTORE),
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.REVERT),
	}, runtimeCode)

	cfg := &Config{GasLimit: 1_000_000, EVMConfig: vm.Config{Fork: params.Osaka}}
	ret, env, err := Execute(deployer(t, initCode), nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, common.BytesToAddress(ret))
	assert.Empty(t, env.Deployed())

	addr := crypto.CreateAddress2(cfg.Address, common.BigToHash(common.Big1), crypto.Keccak256(initCode))
	assert.Equal(t, common.Hash{}, env.GetState(addr, common.Hash{}))
}

func TestEnvEOFCreateWithoutInterpreter(t *testing.T) {
	env := NewEnv()
	b, err := vm.NewEOFBytecode(eof(t, []byte{byte(vm.STOP)}))
	require.NoError(t, err)
	m := vm.NewMachine(vm.NewContract(common.Address{}, common.Address{}, nil, b), 100, vm.NewInstructionSet(params.Osaka.Rules()))
	defer m.Release()

	_, _, gasLeft, reason := env.EOFCreate(m, nil, nil, new(uint256.Int), common.Hash{}, 50)
	assert.Equal(t, vm.FatalNotSupported, reason)
	assert.Equal(t, uint64(50), gasLeft)
}

func TestEnvCopy(t *testing.T) {
	env := NewEnv()
	addr, key := common.HexToAddress("0x01"), common.HexToHash("0x02")
	env.SetState(addr, key, common.HexToHash("0x03"))
	env.AddLog(addr, nil, []byte{1})
	assert.False(t, env.SlotInAccessList(addr, key))
	env.AddSlotToAccessList(addr, key)

	cpy := env.Copy()
	cpy.SetState(addr, key, common.HexToHash("0x04"))
	cpy.AddLog(addr, nil, []byte{2})

	assert.Equal(t, common.HexToHash("0x03"), env.GetState(addr, key))
	assert.Equal(t, common.HexToHash("0x04"), cpy.GetState(addr, key))
	assert.Len(t, env.Logs(), 1)
	assert.Len(t, cpy.Logs(), 2)
	assert.True(t, cpy.SlotInAccessList(addr, key))
}

func BenchmarkSimpleLoop(b *testing.B) {
	// PUSH2 0xffff JUMPDEST PUSH1 1 SWAP1 SUB DUP1 PUSH1 3 JUMPI
	code := []byte{
		byte(vm.PUSH2), 0xff, 0xff, byte(vm.JUMPDEST), byte(vm.PUSH1), 1, byte(vm.SWAP1), byte(vm.SUB),
		byte(vm.DUP1), byte(vm.PUSH1), 3, byte(vm.JUMPI),
	}
	cfg := &Config{EVMConfig: vm.Config{Fork: params.LatestFork}}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Execute(code, nil, cfg)
	}
}
