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
	"encoding/binary"
)

// Cursor is the execution position inside a Bytecode. Offsets are absolute
// into the bytecode buffer; the active code section bounds every jump.
type Cursor struct {
	code    *Bytecode
	buf     []byte
	pos     int
	section int
	start   int
	end     int
}

// NewCursor places a cursor at the start of the first code section.
func NewCursor(code *Bytecode) Cursor {
	start, end, _ := code.section(0)
	return Cursor{
		code:  code,
		buf:   code.buffer(),
		pos:   start,
		start: start,
		end:   end,
	}
}

// Code is the bytecode the cursor walks.
func (c *Cursor) Code() *Bytecode { return c.code }

// Done reports whether the cursor has run off the end of the active section.
func (c *Cursor) Done() bool {
	return c.pos >= c.end
}

// Opcode is the byte at the cursor. Callers check Done first.
func (c *Cursor) Opcode() byte {
	return c.buf[c.pos]
}

// PC is the position relative to the start of the bytecode buffer.
func (c *Cursor) PC() uint64 {
	return uint64(c.pos)
}

// SectionPC is the position relative to the start of the active section.
func (c *Cursor) SectionPC() uint64 {
	return uint64(c.pos - c.start)
}

// Section is the index of the active code section.
func (c *Cursor) Section() int {
	return c.section
}

// Contains reports whether target lies inside the active section.
func (c *Cursor) Contains(target uint64) bool {
	return target >= uint64(c.start) && target < uint64(c.end)
}

// RelativeJump moves the cursor by offset. Moving past the end of the section
// leaves the cursor at the end.
func (c *Cursor) RelativeJump(offset int64) {
	target := int64(c.pos) + offset
	if target < int64(c.start) {
		panic(internalError("relative jump to %d before section start %d", target, c.start))
	}
	if target > int64(c.end) {
		target = int64(c.end)
	}
	c.pos = int(target)
}

// AbsoluteJump moves the cursor to target, which callers have validated.
func (c *Cursor) AbsoluteJump(target uint64) {
	if !c.Contains(target) {
		panic(internalError("absolute jump to %d outside section [%d, %d)", target, c.start, c.end))
	}
	c.pos = int(target)
}

// SwitchSection makes code section idx active without moving the cursor and
// returns the absolute start of the section.
func (c *Cursor) SwitchSection(idx int) (uint64, bool) {
	start, end, ok := c.code.section(idx)
	if !ok {
		return 0, false
	}
	c.section, c.start, c.end = idx, start, end
	return uint64(start), true
}

// immediate returns n bytes located offset bytes after the opcode.
func (c *Cursor) immediate(offset, n int) []byte {
	from := c.pos + 1 + offset
	if offset < 0 || n < 0 || from+n > len(c.buf) {
		panic(internalError("immediate read of %d bytes at %d beyond code length %d", n, from, len(c.buf)))
	}
	return c.buf[from : from+n]
}

// ReadU8 reads the byte following the opcode.
func (c *Cursor) ReadU8() uint8 {
	return c.immediate(0, 1)[0]
}

// ReadI8 reads the byte following the opcode as a signed value.
func (c *Cursor) ReadI8() int8 {
	return int8(c.immediate(0, 1)[0])
}

// ReadU16 reads the big endian word following the opcode.
func (c *Cursor) ReadU16() uint16 {
	return binary.BigEndian.Uint16(c.immediate(0, 2))
}

// ReadI16 reads the big endian word following the opcode as a signed value.
func (c *Cursor) ReadI16() int16 {
	return int16(binary.BigEndian.Uint16(c.immediate(0, 2)))
}

// ReadOffsetU16 reads a big endian word offset bytes into the immediates.
func (c *Cursor) ReadOffsetU16(offset int) uint16 {
	return binary.BigEndian.Uint16(c.immediate(offset, 2))
}

// ReadOffsetI16 reads a signed big endian word offset bytes into the immediates.
func (c *Cursor) ReadOffsetI16(offset int) int16 {
	return int16(binary.BigEndian.Uint16(c.immediate(offset, 2)))
}

// ReadSlice returns the n immediate bytes following the opcode.
func (c *Cursor) ReadSlice(n int) []byte {
	return c.immediate(0, n)
}
