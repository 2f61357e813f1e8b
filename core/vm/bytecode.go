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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// legacyPadding is appended to legacy code so a PUSH32 truncated by the end
// of the code reads zeroes instead of running off the buffer.
const legacyPadding = 33

// Bytecode is an immutable, analysed program. It is either legacy code with
// its jump destination table or a validated EOF container. A Bytecode is safe
// to share between any number of concurrently running machines.
type Bytecode struct {
	raw []byte

	// legacy
	legacyLen int
	jumpDests JumpDestTable

	// eof
	eof *eofLayout

	hashOnce sync.Once
	hash     common.Hash
}

// eofLayout is the parsed container plus the absolute offset of every code
// section within the raw container bytes.
type eofLayout struct {
	container  *Container
	codeStarts []int
}

// NewLegacyBytecode analyses code as a legacy program.
func NewLegacyBytecode(code []byte) *Bytecode {
	return NewLegacyBytecodeWithTable(code, AnalyzeJumpDests(code))
}

// NewLegacyBytecodeWithTable wraps code with a jump destination table that was
// computed earlier, e.g. restored from a cache.
func NewLegacyBytecodeWithTable(code []byte, table JumpDestTable) *Bytecode {
	padded := make([]byte, len(code)+legacyPadding)
	copy(padded, code)
	return &Bytecode{
		raw:       padded,
		legacyLen: len(code),
		jumpDests: table,
	}
}

// NewEOFBytecode decodes and validates an EOF container.
func NewEOFBytecode(raw []byte) (*Bytecode, error) {
	owned := common.CopyBytes(raw)
	container := new(Container)
	if err := container.UnmarshalBinary(owned); err != nil {
		return nil, err
	}
	if err := container.ValidateCode(); err != nil {
		return nil, err
	}
	starts := make([]int, len(container.Code))
	offset := container.headerSize() + len(container.Types)*typeSectionSize
	for i, code := range container.Code {
		starts[i] = offset
		offset += len(code)
	}
	return &Bytecode{
		raw: owned,
		eof: &eofLayout{container: container, codeStarts: starts},
	}, nil
}

// ParseBytecode picks the format of code. With EOF enabled, code starting with
// 0xEF must be a valid container.
func ParseBytecode(code []byte, eofEnabled bool) (*Bytecode, error) {
	if eofEnabled && hasEOFByte(code) {
		b, err := NewEOFBytecode(code)
		if err != nil {
			return nil, errors.Wrap(err, "invalid eof code")
		}
		return b, nil
	}
	return NewLegacyBytecode(code), nil
}

// IsEOF reports whether b is an EOF container.
func (b *Bytecode) IsEOF() bool {
	return b.eof != nil
}

// Bytes returns the original code. It must not be modified.
func (b *Bytecode) Bytes() []byte {
	if b.eof != nil {
		return b.raw
	}
	return b.raw[:b.legacyLen]
}

// Len is the length of the original code.
func (b *Bytecode) Len() int {
	return len(b.Bytes())
}

// Hash is the keccak256 hash of the original code.
func (b *Bytecode) Hash() common.Hash {
	b.hashOnce.Do(func() {
		b.hash = crypto.Keccak256Hash(b.Bytes())
	})
	return b.hash
}

// buffer is the byte buffer cursors index into.
func (b *Bytecode) buffer() []byte {
	return b.raw
}

// LegacyLen is the length of legacy code.
func (b *Bytecode) LegacyLen() (int, error) {
	if b.eof != nil {
		return 0, ErrNotLegacy
	}
	return b.legacyLen, nil
}

// LegacySlice is the legacy code without padding. It must not be modified.
func (b *Bytecode) LegacySlice() ([]byte, error) {
	if b.eof != nil {
		return nil, ErrNotLegacy
	}
	return b.raw[:b.legacyLen], nil
}

// JumpDests returns the jump destination table of legacy code.
func (b *Bytecode) JumpDests() (JumpDestTable, error) {
	if b.eof != nil {
		return JumpDestTable{}, ErrNotLegacy
	}
	return b.jumpDests, nil
}

// ValidJumpDest reports whether offset is a JUMPDEST outside any immediate.
func (b *Bytecode) ValidJumpDest(offset uint64) (bool, error) {
	if b.eof != nil {
		return false, ErrNotLegacy
	}
	if offset >= uint64(b.legacyLen) {
		return false, nil
	}
	return b.jumpDests.IsValid(offset), nil
}

// Container returns the decoded EOF container.
func (b *Bytecode) Container() (*Container, error) {
	if b.eof == nil {
		return nil, ErrNotEOF
	}
	return b.eof.container, nil
}

// NumCodeSections is the number of EOF code sections, zero for legacy code.
func (b *Bytecode) NumCodeSections() int {
	if b.eof == nil {
		return 0
	}
	return len(b.eof.codeStarts)
}

// TypeSection returns the signature of code section idx.
func (b *Bytecode) TypeSection(idx int) (TypeSection, bool) {
	if b.eof == nil || idx < 0 || idx >= len(b.eof.container.Types) {
		return TypeSection{}, false
	}
	return b.eof.container.Types[idx], true
}

// CodeSectionStart is the absolute offset of code section idx within Bytes.
func (b *Bytecode) CodeSectionStart(idx int) (int, bool) {
	if b.eof == nil || idx < 0 || idx >= len(b.eof.codeStarts) {
		return 0, false
	}
	return b.eof.codeStarts[idx], true
}

// CodeSection returns the bytes of code section idx.
func (b *Bytecode) CodeSection(idx int) ([]byte, bool) {
	if b.eof == nil || idx < 0 || idx >= len(b.eof.codeStarts) {
		return nil, false
	}
	return b.eof.container.Code[idx], true
}

// section returns the absolute bounds of code section idx. Legacy code has a
// single section spanning the original code.
func (b *Bytecode) section(idx int) (start, end int, ok bool) {
	if b.eof == nil {
		if idx != 0 {
			return 0, 0, false
		}
		return 0, b.legacyLen, true
	}
	if idx < 0 || idx >= len(b.eof.codeStarts) {
		return 0, 0, false
	}
	start = b.eof.codeStarts[idx]
	return start, start + len(b.eof.container.Code[idx]), true
}

// Data returns the EOF data section. It must not be modified.
func (b *Bytecode) Data() ([]byte, error) {
	if b.eof == nil {
		return nil, ErrNotEOF
	}
	return b.eof.container.Data, nil
}

// DataSize is the size of the EOF data section.
func (b *Bytecode) DataSize() (int, error) {
	if b.eof == nil {
		return 0, ErrNotEOF
	}
	return len(b.eof.container.Data), nil
}

// DataSlice returns size bytes of the data section starting at offset. The
// range must lie within the section.
func (b *Bytecode) DataSlice(offset, size int) ([]byte, error) {
	if b.eof == nil {
		return nil, ErrNotEOF
	}
	data := b.eof.container.Data
	if offset < 0 || size < 0 || offset > len(data) || size > len(data)-offset {
		return nil, errors.Wrapf(ErrDataOutOfRange, "offset %d size %d data %d", offset, size, len(data))
	}
	return data[offset : offset+size], nil
}

// SubContainer returns nested container idx.
func (b *Bytecode) SubContainer(idx int) ([]byte, bool) {
	if b.eof == nil || idx < 0 || idx >= len(b.eof.container.SubContainers) {
		return nil, false
	}
	return b.eof.container.SubContainers[idx], true
}

// NumSubContainers is the number of nested containers.
func (b *Bytecode) NumSubContainers() int {
	if b.eof == nil {
		return 0
	}
	return len(b.eof.container.SubContainers)
}
