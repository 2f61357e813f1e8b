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
	"bytes"
	"encoding/binary"
	"math"

	"github.com/bnb-chain/evmcore/params"
	"github.com/pkg/errors"
)

const (
	offsetVersion   = 2
	offsetTypesKind = 3
	offsetCodeKind  = 6

	kindTypes     = 0x01
	kindCode      = 0x02
	kindContainer = 0x03
	kindData      = 0xff

	eofFormatByte = 0xef
	eof1Version   = 1

	typeSectionSize = 4
	minContainerLen = 20
)

var eofMagic = []byte{0xef, 0x00}

// Container decoding errors.
var (
	errInvalidMagic                = errors.New("invalid magic")
	errInvalidVersion              = errors.New("invalid version")
	errMissingTypeHeader           = errors.New("missing type header")
	errInvalidTypeSize             = errors.New("invalid type section size")
	errMissingCodeHeader           = errors.New("missing code header")
	errInvalidCodeSize             = errors.New("invalid code size")
	errInvalidContainerSectionSize = errors.New("invalid container section size")
	errMissingDataHeader           = errors.New("missing data header")
	errMissingTerminator           = errors.New("missing header terminator")
	errInvalidContainerSize        = errors.New("invalid container size")
	errTooManyInputs               = errors.New("invalid type content, too many inputs")
	errTooManyOutputs              = errors.New("invalid type content, too many outputs")
	errInvalidSection0Type         = errors.New("invalid section 0 type, input should be zero and section non-returning (0x80)")
	errTooLargeMaxStackHeight      = errors.New("invalid type content, max stack height exceeds limit")
	errUnexpectedEOF               = errors.New("unexpected end of container")
)

// hasEOFByte returns true if code starts with 0xEF byte
func hasEOFByte(code []byte) bool {
	return len(code) != 0 && code[0] == eofFormatByte
}

// HasEOFMagic returns true if code starts with the EOF magic.
func HasEOFMagic(code []byte) bool {
	return len(eofMagic) <= len(code) && bytes.Equal(eofMagic, code[0:len(eofMagic)])
}

// isEOFVersion1 returns true if the code's version byte equals eof1Version. It
// does not verify the EOF magic is valid.
func isEOFVersion1(code []byte) bool {
	return offsetVersion < len(code) && code[offsetVersion] == byte(eof1Version)
}

// TypeSection is the signature of an EOF code section.
type TypeSection struct {
	Inputs         uint8
	Outputs        uint8
	MaxStackHeight uint16
}

// NonReturning reports whether the section never returns to its caller.
func (t TypeSection) NonReturning() bool {
	return t.Outputs == params.EOFNonReturning
}

// Container is an EOF v1 container object.
type Container struct {
	Types         []TypeSection
	Code          [][]byte
	SubContainers [][]byte
	Data          []byte

	// DataSize is the declared size of the data section when it exceeds
	// len(Data). Only sub containers deployed by RETURNCONTRACT may carry
	// less data than they declare; the rest is appended at deploy time.
	DataSize int
}

// declaredDataSize is the data section size announced in the header.
func (c *Container) declaredDataSize() int {
	return max(c.DataSize, len(c.Data))
}

// Truncated reports whether the data section is shorter than declared.
func (c *Container) Truncated() bool {
	return c.DataSize > len(c.Data)
}

// headerSize is the encoded size of the container header, magic and
// terminator included.
func (c *Container) headerSize() int {
	size := offsetCodeKind + 3 + 2*len(c.Code)
	if len(c.SubContainers) > 0 {
		size += 3 + 2*len(c.SubContainers)
	}
	return size + 3 + 1
}

// MarshalBinary encodes an EOF container into binary format.
func (c *Container) MarshalBinary() ([]byte, error) {
	if len(c.Types) != len(c.Code) {
		return nil, errors.Wrapf(errInvalidTypeSize, "have %d types for %d code sections", len(c.Types), len(c.Code))
	}
	if c.declaredDataSize() > math.MaxUint16 {
		return nil, errors.Wrapf(errInvalidContainerSize, "data section of %d bytes", c.declaredDataSize())
	}
	b := make([]byte, 0, c.headerSize())
	b = append(b, eofMagic...)
	b = append(b, eof1Version)
	b = append(b, kindTypes)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Types)*typeSectionSize))
	b = append(b, kindCode)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.Code)))
	for _, code := range c.Code {
		b = binary.BigEndian.AppendUint16(b, uint16(len(code)))
	}
	if len(c.SubContainers) > 0 {
		b = append(b, kindContainer)
		b = binary.BigEndian.AppendUint16(b, uint16(len(c.SubContainers)))
		for _, sub := range c.SubContainers {
			b = binary.BigEndian.AppendUint16(b, uint16(len(sub)))
		}
	}
	b = append(b, kindData)
	b = binary.BigEndian.AppendUint16(b, uint16(c.declaredDataSize()))
	b = append(b, 0) // terminator

	for _, ty := range c.Types {
		b = append(b, ty.Inputs, ty.Outputs)
		b = binary.BigEndian.AppendUint16(b, ty.MaxStackHeight)
	}
	for _, code := range c.Code {
		b = append(b, code...)
	}
	for _, sub := range c.SubContainers {
		b = append(b, sub...)
	}
	b = append(b, c.Data...)
	return b, nil
}

// UnmarshalBinary decodes an EOF container. The returned sections alias b.
func (c *Container) UnmarshalBinary(b []byte) error {
	return c.unmarshal(b, false)
}

// UnmarshalSubContainer decodes a sub container, which may carry less data
// than its header declares.
func (c *Container) UnmarshalSubContainer(b []byte) error {
	return c.unmarshal(b, true)
}

func (c *Container) unmarshal(b []byte, allowTruncation bool) error {
	if !HasEOFMagic(b) {
		return errInvalidMagic
	}
	if !isEOFVersion1(b) {
		return errInvalidVersion
	}
	if len(b) < minContainerLen {
		return errors.Wrapf(errInvalidContainerSize, "size %d below minimum %d", len(b), minContainerLen)
	}
	var (
		typesSize, dataSize int
		codeSizes           []int
		containerSizes      []int
		kind                int
		err                 error
	)
	// Parse types size.
	if kind, typesSize, err = parseSection(b, offsetTypesKind); err != nil {
		return err
	} else if kind != kindTypes {
		return errors.Wrapf(errMissingTypeHeader, "found section kind %x instead", kind)
	}
	if typesSize < typeSectionSize || typesSize%typeSectionSize != 0 {
		return errors.Wrapf(errInvalidTypeSize, "type section size must be divisible by 4, have %d", typesSize)
	}
	if typesSize/typeSectionSize > params.EOFMaxCodeSections {
		return errors.Wrapf(errInvalidTypeSize, "type section must not exceed 4*1024, have %d", typesSize)
	}

	// Parse code sizes.
	if kind, codeSizes, err = parseSectionList(b, offsetCodeKind); err != nil {
		return err
	} else if kind != kindCode {
		return errors.Wrapf(errMissingCodeHeader, "found section kind %x instead", kind)
	}
	if len(codeSizes) != typesSize/typeSectionSize {
		return errors.Wrapf(errInvalidCodeSize, "mismatch of code sections found and type signatures, types %d, code %d", typesSize/typeSectionSize, len(codeSizes))
	}
	for i, size := range codeSizes {
		if size == 0 {
			return errors.Wrapf(errInvalidCodeSize, "size of code section %d must not be 0", i)
		}
	}
	offset := offsetCodeKind + 3 + 2*len(codeSizes)

	// Parse optional container sizes.
	if offset < len(b) && b[offset] == kindContainer {
		if _, containerSizes, err = parseSectionList(b, offset); err != nil {
			return err
		}
		if len(containerSizes) == 0 || len(containerSizes) > params.EOFMaxContainers {
			return errors.Wrapf(errInvalidContainerSectionSize, "number of container sections must be between 1 and %d, have %d", params.EOFMaxContainers, len(containerSizes))
		}
		for i, size := range containerSizes {
			if size == 0 {
				return errors.Wrapf(errInvalidContainerSectionSize, "container section %d must not be empty", i)
			}
		}
		offset += 3 + 2*len(containerSizes)
	}

	// Parse data size.
	if kind, dataSize, err = parseSection(b, offset); err != nil {
		return err
	} else if kind != kindData {
		return errors.Wrapf(errMissingDataHeader, "found section kind %x instead", kind)
	}
	offset += 3
	if offset >= len(b) || b[offset] != 0 {
		return errMissingTerminator
	}
	offset++

	expected := offset + typesSize + sum(codeSizes) + sum(containerSizes) + dataSize
	switch {
	case len(b) > expected:
		return errors.Wrapf(errInvalidContainerSize, "want %d, have %d", expected, len(b))
	case len(b) < expected && (!allowTruncation || len(b) < expected-dataSize):
		return errors.Wrapf(errInvalidContainerSize, "want %d, have %d", expected, len(b))
	}

	// Parse types section.
	types := make([]TypeSection, typesSize/typeSectionSize)
	for i := range types {
		sig := TypeSection{
			Inputs:         b[offset+i*typeSectionSize],
			Outputs:        b[offset+i*typeSectionSize+1],
			MaxStackHeight: binary.BigEndian.Uint16(b[offset+i*typeSectionSize+2:]),
		}
		if sig.Inputs > params.EOFMaxInputs {
			return errors.Wrapf(errTooManyInputs, "section %d has %d", i, sig.Inputs)
		}
		if sig.Outputs > params.EOFMaxOutputs && sig.Outputs != params.EOFNonReturning {
			return errors.Wrapf(errTooManyOutputs, "section %d has %d", i, sig.Outputs)
		}
		if sig.MaxStackHeight > params.EOFMaxStackHeight {
			return errors.Wrapf(errTooLargeMaxStackHeight, "section %d has %d", i, sig.MaxStackHeight)
		}
		types[i] = sig
	}
	if types[0].Inputs != 0 || !types[0].NonReturning() {
		return errors.Wrapf(errInvalidSection0Type, "have %d inputs, %d outputs", types[0].Inputs, types[0].Outputs)
	}
	offset += typesSize

	// Parse code sections.
	code := make([][]byte, len(codeSizes))
	for i, size := range codeSizes {
		code[i] = b[offset : offset+size]
		offset += size
	}

	// Parse the optional container sections.
	var subs [][]byte
	if len(containerSizes) > 0 {
		subs = make([][]byte, len(containerSizes))
		for i, size := range containerSizes {
			subs[i] = b[offset : offset+size]
			offset += size
		}
	}

	c.Types = types
	c.Code = code
	c.SubContainers = subs
	c.Data = b[offset:]
	c.DataSize = 0
	if len(c.Data) < dataSize {
		c.DataSize = dataSize
	}
	return nil
}

// parseSection decodes a (kind, size) pair from an EOF header.
func parseSection(b []byte, idx int) (kind, size int, err error) {
	if idx+3 > len(b) {
		return 0, 0, errors.Wrapf(errUnexpectedEOF, "section header at %d", idx)
	}
	kind = int(b[idx])
	size = int(binary.BigEndian.Uint16(b[idx+1:]))
	return kind, size, nil
}

// parseSectionList decodes a (kind, len, []codeSize) section list from an EOF
// header.
func parseSectionList(b []byte, idx int) (kind int, list []int, err error) {
	if idx >= len(b) {
		return 0, nil, errors.Wrapf(errUnexpectedEOF, "section list at %d", idx)
	}
	kind = int(b[idx])
	list, err = parseList(b, idx+1)
	if err != nil {
		return 0, nil, err
	}
	return kind, list, nil
}

// parseList decodes a list of uint16..
func parseList(b []byte, idx int) ([]int, error) {
	if len(b) < idx+2 {
		return nil, errors.Wrapf(errUnexpectedEOF, "list count at %d", idx)
	}
	count := int(binary.BigEndian.Uint16(b[idx:]))
	if len(b) < idx+2+count*2 {
		return nil, errors.Wrapf(errUnexpectedEOF, "list of %d entries at %d", count, idx)
	}
	list := make([]int, count)
	for i := 0; i < count; i++ {
		list[i] = int(binary.BigEndian.Uint16(b[idx+2+2*i:]))
	}
	return list, nil
}

// parseUint16 parses a 16 bit unsigned integer.
func parseUint16(b []byte) int {
	return int(binary.BigEndian.Uint16(b))
}

// parseInt16 parses a 16 bit signed integer.
func parseInt16(b []byte) int {
	return int(int16(b[1]) | int16(b[0])<<8)
}

func sum(list []int) (s int) {
	for _, n := range list {
		s += n
	}
	return
}
