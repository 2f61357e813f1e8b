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

package vm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEOFMarshaling(t *testing.T) {
	sub := eofContainer(t, Container{Code: [][]byte{{byte(INVALID)}}})
	for i, want := range []Container{
		{
			Types: []TypeSection{{Inputs: 0, Outputs: 0x80, MaxStackHeight: 1}},
			Code:  [][]byte{common.Hex2Bytes("604200")},
			Data:  []byte{0x01, 0x02, 0x03},
		},
		{
			Types: []TypeSection{
				{Inputs: 0, Outputs: 0x80, MaxStackHeight: 1},
				{Inputs: 2, Outputs: 3, MaxStackHeight: 4},
				{Inputs: 1, Outputs: 1, MaxStackHeight: 1},
			},
			Code: [][]byte{
				common.Hex2Bytes("604200"),
				common.Hex2Bytes("6042604200"),
				common.Hex2Bytes("00"),
			},
			Data: []byte{},
		},
		{
			Types:         []TypeSection{{Inputs: 0, Outputs: 0x80, MaxStackHeight: 1}},
			Code:          [][]byte{common.Hex2Bytes("604200")},
			SubContainers: [][]byte{sub},
			Data:          []byte{0x01},
		},
	} {
		b, err := want.MarshalBinary()
		require.NoError(t, err, "test %d", i)
		assert.Equal(t, want.headerSize(), len(b)-len(want.Types)*typeSectionSize-sumLen(want.Code)-sumLen(want.SubContainers)-len(want.Data), "test %d", i)

		var got Container
		require.NoError(t, got.UnmarshalBinary(b), "test %d", i)
		assert.Equal(t, want, got, "test %d", i)
	}
}

func TestEOFMinimalContainer(t *testing.T) {
	// magic, version, types, one code section, data, terminator, types, STOP
	raw := common.FromHex("ef0001" + "010004" + "0200010001" + "ff0000" + "00" + "00800000" + "00")
	var c Container
	require.NoError(t, c.UnmarshalBinary(raw))
	assert.Equal(t, []TypeSection{{0, 0x80, 0}}, c.Types)
	assert.Equal(t, [][]byte{{0x00}}, c.Code)
	assert.Empty(t, c.Data)

	b, err := c.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, b)
}

func TestEOFUnmarshalErrors(t *testing.T) {
	valid := eofContainer(t, Container{Code: [][]byte{{byte(STOP)}}, Data: []byte{1}})
	mutate := func(f func(b []byte) []byte) []byte {
		return f(common.CopyBytes(valid))
	}
	tests := []struct {
		code []byte
		err  error
	}{
		{[]byte{0xef}, errInvalidMagic},
		{[]byte{0xef, 0x01, 0x01}, errInvalidMagic},
		{[]byte{0xef, 0x00, 0x02}, errInvalidVersion},
		{valid[:19], errInvalidContainerSize},
		{mutate(func(b []byte) []byte { return append(b, 0) }), errInvalidContainerSize},
		{mutate(func(b []byte) []byte { b[3] = kindCode; return b }), errMissingTypeHeader},
		{mutate(func(b []byte) []byte { b[5] = 3; return b }), errInvalidTypeSize},
		{mutate(func(b []byte) []byte { b[6] = kindData; return b }), errMissingCodeHeader},
		{mutate(func(b []byte) []byte { b[10] = 0; return b }), errInvalidCodeSize},
		{mutate(func(b []byte) []byte { b[11] = kindCode; return b }), errMissingDataHeader},
		{mutate(func(b []byte) []byte { b[14] = 1; return b }), errMissingTerminator},
		{mutate(func(b []byte) []byte { b[15] = 1; return b }), errInvalidSection0Type},
		{mutate(func(b []byte) []byte { b[16] = 0; return b }), errInvalidSection0Type},
		{mutate(func(b []byte) []byte { b[17], b[18] = 0x04, 0x00; return b }), errTooLargeMaxStackHeight},
	}
	for i, tt := range tests {
		var c Container
		err := c.UnmarshalBinary(tt.code)
		require.Error(t, err, "test %d", i)
		assert.Equal(t, tt.err, errors.Cause(err), "test %d: %v", i, err)
	}
}

func TestEOFMarshalErrors(t *testing.T) {
	_, err := (&Container{Types: []TypeSection{{0, 0x80, 0}}}).MarshalBinary()
	assert.ErrorIs(t, err, errInvalidTypeSize)

	_, err = (&Container{
		Types: []TypeSection{{0, 0x80, 0}},
		Code:  [][]byte{{byte(STOP)}},
		Data:  make([]byte, 1<<16),
	}).MarshalBinary()
	assert.ErrorIs(t, err, errInvalidContainerSize)
}

func TestEOFTruncatedSubContainer(t *testing.T) {
	raw := eofContainer(t, Container{Code: [][]byte{{byte(STOP)}}, Data: []byte{1}, DataSize: 4})

	var strict Container
	assert.Equal(t, errInvalidContainerSize, errors.Cause(strict.UnmarshalBinary(raw)))

	var c Container
	require.NoError(t, c.UnmarshalSubContainer(raw))
	assert.Equal(t, []byte{1}, c.Data)
	assert.Equal(t, 4, c.DataSize)
	assert.True(t, c.Truncated())

	b, err := c.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, b)

	// Everything up to the data section has to be present.
	assert.Error(t, c.UnmarshalSubContainer(raw[:len(raw)-2]))
}

func TestEOFUnmarshalAliases(t *testing.T) {
	raw := eofContainer(t, Container{Code: [][]byte{{byte(STOP)}}, Data: []byte{7}})
	var c Container
	require.NoError(t, c.UnmarshalBinary(raw))
	raw[len(raw)-1] = 8
	assert.Equal(t, []byte{8}, c.Data)
}

func sumLen(list [][]byte) (n int) {
	for _, b := range list {
		n += len(b)
	}
	return n
}
