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

package vm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateCode(t *testing.T) {
	returning := []TypeSection{{0, 0x80, 1}, {0, 0, 0}}
	for i, tt := range []struct {
		code    []byte
		section int
		types   []TypeSection
		data    []byte
		subs    [][]byte
		err     error
	}{
		{
			code:  []byte{byte(CALLER), byte(POP), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
		},
		{
			code:    []byte{byte(CALLF), 0x00, 0x01, byte(RETF)},
			section: 1,
			types:   returning,
		},
		{
			code:  []byte{byte(CALLER), byte(POP)},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errInvalidCodeTermination,
		},
		{
			code:  []byte{byte(RJUMP), 0x00, 0x01, byte(CALLER), byte(STOP)},
			types: []TypeSection{{0, 0x80, 0}},
		},
		{
			code:  []byte{byte(RJUMP), 0xff, 0xfd},
			types: []TypeSection{{0, 0x80, 0}},
		},
		{
			code:  []byte{byte(RJUMP), 0x00, 0x01, byte(PUSH1), 0x01, byte(STOP)},
			types: []TypeSection{{0, 0x80, 0}},
			err:   errInvalidJumpDest,
		},
		{
			code:  []byte{byte(RJUMP), 0x00, 0x10, byte(STOP)},
			types: []TypeSection{{0, 0x80, 0}},
			err:   errInvalidJumpDest,
		},
		{
			code:  []byte{byte(PUSH1), 0x01, byte(RJUMPV), 0x01, 0x00, 0x00, 0x00, 0x01, byte(STOP), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
		},
		{
			code:  []byte{byte(PUSH1), 0x01, byte(RJUMPV), 0x01, 0x00, 0x00},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errTruncatedImmediate,
		},
		{
			code:  []byte{byte(PUSH2), 0x01},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errTruncatedImmediate,
		},
		{
			code:  []byte{byte(JUMPDEST), byte(PUSH1), 0x00, byte(JUMP)},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errUndefinedInstruction,
		},
		{
			code:  []byte{0x0c, byte(STOP)},
			types: []TypeSection{{0, 0x80, 0}},
			err:   errUndefinedInstruction,
		},
		{
			code:  []byte{byte(CALLF), 0x00, 0x02, byte(STOP)},
			types: returning,
			err:   errInvalidSectionArgument,
		},
		{
			code:  []byte{byte(CALLF), 0x00, 0x00, byte(STOP)},
			types: returning,
			err:   errInvalidCallArgument,
		},
		{
			code:    []byte{byte(JUMPF), 0x00, 0x00},
			section: 1,
			types:   returning,
		},
		{
			code:    []byte{byte(JUMPF), 0x00, 0x02},
			section: 1,
			types:   []TypeSection{{0, 0x80, 0}, {0, 0, 0}, {0, 1, 1}},
			err:     errInvalidOutputs,
		},
		{
			code:  []byte{byte(DATALOADN), 0x00, 0x00, byte(POP), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
			data:  make([]byte, 32),
		},
		{
			code:  []byte{byte(DATALOADN), 0x00, 0x01, byte(POP), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
			data:  make([]byte, 32),
			err:   errInvalidDataloadNArg,
		},
		{
			code:  []byte{byte(PUSH0), byte(PUSH0), byte(RETURNCONTRACT), 0x00},
			types: []TypeSection{{0, 0x80, 2}},
			subs:  [][]byte{{0xef}},
		},
		{
			code:  []byte{byte(PUSH0), byte(PUSH0), byte(RETURNCONTRACT), 0x01},
			types: []TypeSection{{0, 0x80, 2}},
			subs:  [][]byte{{0xef}},
			err:   errInvalidSubContainer,
		},
		{
			code:  []byte{byte(PUSH0), byte(PUSH0), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errInvalidMaxStackHeight,
		},
		{
			code:  []byte{byte(PUSH0), byte(RJUMP), 0xff, 0xfc},
			types: []TypeSection{{0, 0x80, 10}},
			err:   errInvalidMaxStackHeight,
		},
		{
			code:  []byte{byte(CALLF), 0x00, 0x01, byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}, {0, 2, 2}},
			err:   errInvalidMaxStackHeight,
		},
		{
			code:  []byte{byte(PUSH1), 0x01, byte(RJUMPI), 0x00, 0x01, byte(PUSH0), byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
		},
		{
			code:  []byte{byte(PUSH0), byte(DUPN), 0x00, byte(STOP)},
			types: []TypeSection{{0, 0x80, 1}},
			err:   errInvalidMaxStackHeight,
		},
	} {
		container := &Container{Types: tt.types, Data: tt.data, SubContainers: tt.subs}
		err := validateCode(tt.code, tt.section, container)
		if tt.err == nil {
			assert.NoError(t, err, "test %d", i)
			continue
		}
		assert.Equal(t, tt.err, errors.Cause(err), "test %d: %v", i, err)
	}
}

func TestValidateSubContainers(t *testing.T) {
	sub := eofContainer(t, Container{Code: [][]byte{{byte(STOP)}}})
	bad := eofContainer(t, Container{Code: [][]byte{{byte(PUSH0)}}})

	parent := Container{
		Types:         []TypeSection{{0, 0x80, 4}},
		Code:          [][]byte{{byte(PUSH0), byte(PUSH0), byte(PUSH0), byte(PUSH0), byte(EOFCREATE), 0x00, byte(STOP)}},
		SubContainers: [][]byte{sub},
	}
	assert.NoError(t, parent.ValidateCode())

	parent.SubContainers = [][]byte{bad}
	assert.Equal(t, errInvalidCodeTermination, errors.Cause(parent.ValidateCode()))

	parent.SubContainers = [][]byte{{0xef, 0x00}}
	assert.Error(t, parent.ValidateCode())

	truncated := eofContainer(t, Container{Code: [][]byte{{byte(STOP)}}, DataSize: 2})
	parent.SubContainers = [][]byte{truncated}
	assert.Equal(t, errTruncatedEOFCreate, errors.Cause(parent.ValidateCode()))

	// RETURNCONTRACT may deploy a truncated container.
	deployer := Container{
		Types:         []TypeSection{{0, 0x80, 2}},
		Code:          [][]byte{{byte(PUSH0), byte(PUSH0), byte(RETURNCONTRACT), 0x00}},
		SubContainers: [][]byte{truncated},
	}
	assert.NoError(t, deployer.ValidateCode())
}
