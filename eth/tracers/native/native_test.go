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

package native

import (
	"encoding/json"
	"testing"

	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/core/vm/runtime"
	"github.com/bnb-chain/evmcore/eth/tracers"
	"github.com/bnb-chain/evmcore/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contract = common.HexToAddress("0xc0de")

func trace(t *testing.T, name string, code []byte, env *runtime.Env) json.RawMessage {
	t.Helper()
	tracer, err := tracers.DefaultDirectory.New(name, nil)
	require.NoError(t, err)
	cfg := &runtime.Config{
		Address:   contract,
		GasLimit:  1_000_000,
		Env:       env,
		EVMConfig: vm.Config{Fork: params.LatestFork, Tracer: tracer.Hooks},
	}
	_, err = runtime.Run(code, nil, cfg)
	require.NoError(t, err)
	res, err := tracer.GetResult()
	require.NoError(t, err)
	return res
}

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

func TestDirectory(t *testing.T) {
	assert.Equal(t, []string{"noopTracer", "prestateTracer", "sstoreTracer"}, tracers.DefaultDirectory.Names())
	_, err := tracers.DefaultDirectory.New("callTracer", nil)
	assert.ErrorIs(t, err, tracers.ErrNotFound)
}

func TestNoopTracer(t *testing.T) {
	raw := trace(t, "noopTracer", []byte{byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.REVERT)}, nil)
	var res struct {
		Op   string                            `json:"op"`
		List map[common.Address]common.Address `json:"list"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, "REVERT", res.Op)
	assert.Equal(t, map[common.Address]common.Address{contract: contract}, res.List)
}

type sstoreResult struct {
	SSTORE map[common.Address]struct {
		StateDiff map[common.Hash]common.Hash `json:"stateDiff"`
		Code      string                      `json:"code"`
	} `json:"sstore"`
	Op string `json:"op"`
}

func TestSstoreTracer(t *testing.T) {
	env := runtime.NewEnv()
	env.SetState(contract, common.HexToHash("0x02"), common.HexToHash("0x09"))

	code := []byte{
		byte(vm.PUSH1), 1, byte(vm.PUSH1), 0, byte(vm.SSTORE), // slot 0 = 1
		byte(vm.PUSH1), 2, byte(vm.PUSH1), 1, byte(vm.SSTORE), // slot 1 = 2
		byte(vm.PUSH1), 0, byte(vm.PUSH1), 1, byte(vm.SSTORE), // slot 1 = 0
		byte(vm.PUSH1), 9, byte(vm.PUSH1), 2, byte(vm.SSTORE), // slot 2 unchanged
		byte(vm.STOP),
	}
	var res sstoreResult
	require.NoError(t, json.Unmarshal(trace(t, "sstoreTracer", code, env), &res))
	assert.Equal(t, "RETURN", res.Op)
	require.Len(t, res.SSTORE, 1)
	assert.Equal(t, map[common.Hash]common.Hash{
		common.HexToHash("0x00"): common.HexToHash("0x01"),
	}, res.SSTORE[contract].StateDiff)
}

func TestSstoreTracerRevert(t *testing.T) {
	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 0, byte(vm.SSTORE), byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.REVERT)}
	var res sstoreResult
	require.NoError(t, json.Unmarshal(trace(t, "sstoreTracer", code, nil), &res))
	assert.Equal(t, "REVERT", res.Op)
	assert.Empty(t, res.SSTORE)
}

func TestSstoreTracerEOFCreate(t *testing.T) {
	runtimeCode := eof(t, []byte{byte(vm.STOP)})
	// PUSH1 7 PUSH1 3 SSTORE PUSH0 PUSH0 RETURNCONTRACT 0
	initCode := eof(t, []byte{
		byte(vm.PUSH1), 7, byte(vm.PUSH1), 3, byte(vm.SSTORE),
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.RETURNCONTRACT), 0x00,
	}, runtimeCode)
	// PUSH0 PUSH0 PUSH1 1 PUSH0 EOFCREATE 0 STOP
	code := eof(t, []byte{
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.PUSH1), 1, byte(vm.PUSH0),
		byte(vm.EOFCREATE), 0x00, byte(vm.STOP),
	}, initCode)

	var res sstoreResult
	require.NoError(t, json.Unmarshal(trace(t, "sstoreTracer", code, nil), &res))

	created := crypto.CreateAddress2(contract, common.BigToHash(common.Big1), crypto.Keccak256(initCode))
	require.Contains(t, res.SSTORE, created)
	assert.Equal(t, hexutil.Encode(runtimeCode), res.SSTORE[created].Code)
	assert.Equal(t, map[common.Hash]common.Hash{
		common.HexToHash("0x03"): common.HexToHash("0x07"),
	}, res.SSTORE[created].StateDiff)
}

func TestPrestateTracer(t *testing.T) {
	env := runtime.NewEnv()
	env.SetState(contract, common.Hash{}, common.HexToHash("0x05"))

	code := []byte{
		byte(vm.PUSH1), 7, byte(vm.PUSH1), 0, byte(vm.SSTORE),
		byte(vm.PUSH1), 8, byte(vm.PUSH1), 0, byte(vm.SSTORE),
		byte(vm.STOP),
	}
	var res struct {
		Pre map[common.Address]struct {
			Storage map[common.Hash]common.Hash `json:"storage"`
		} `json:"pre"`
		Op        string    `json:"op"`
		Callstack callFrame `json:"callstack"`
	}
	require.NoError(t, json.Unmarshal(trace(t, "prestateTracer", code, env), &res))
	assert.Equal(t, "RETURN", res.Op)
	assert.Equal(t, map[common.Hash]common.Hash{{}: common.HexToHash("0x05")}, res.Pre[contract].Storage)
	assert.Equal(t, "CALL", res.Callstack.Type)
	assert.Equal(t, contract, res.Callstack.To)
	assert.NotZero(t, res.Callstack.GasUsed)
	assert.Empty(t, res.Callstack.Error)
	assert.Empty(t, res.Callstack.Calls)
}

func TestPrestateTracerNestedFrames(t *testing.T) {
	runtimeCode := eof(t, []byte{byte(vm.STOP)})
	initCode := eof(t, []byte{byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.REVERT)}, runtimeCode)
	code := eof(t, []byte{
		byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.PUSH0), byte(vm.PUSH0),
		byte(vm.EOFCREATE), 0x00, byte(vm.STOP),
	}, initCode)

	var res struct {
		Callstack callFrame `json:"callstack"`
	}
	require.NoError(t, json.Unmarshal(trace(t, "prestateTracer", code, nil), &res))
	require.Len(t, res.Callstack.Calls, 1)
	assert.Equal(t, "EOFCREATE", res.Callstack.Calls[0].Type)
	assert.Equal(t, vm.Reverted.Error(), res.Callstack.Calls[0].Error)
	assert.Empty(t, res.Callstack.Error)
}
