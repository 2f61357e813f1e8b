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

import "fmt"

// ControlKind is the kind of outcome an instruction reports to the step loop.
type ControlKind uint8

const (
	ControlContinue ControlKind = iota
	ControlContinueN
	ControlJump
	ControlExit
)

// Control tells the step loop how to move the cursor after an instruction.
type Control struct {
	kind   ControlKind
	n      uint32
	target uint64
	reason ExitReason
}

// Continue advances the cursor past a single-byte instruction.
func Continue() Control { return Control{kind: ControlContinue} }

// ContinueN advances the cursor by n bytes, the opcode plus its immediates.
func ContinueN(n uint32) Control { return Control{kind: ControlContinueN, n: n} }

// Jump moves the cursor to an absolute, already validated offset.
func Jump(target uint64) Control { return Control{kind: ControlJump, target: target} }

// Exit terminates the machine with reason.
func Exit(reason ExitReason) Control { return Control{kind: ControlExit, reason: reason} }

func (c Control) Kind() ControlKind  { return c.kind }
func (c Control) N() uint32          { return c.n }
func (c Control) Target() uint64     { return c.target }
func (c Control) Reason() ExitReason { return c.reason }

func (c Control) String() string {
	switch c.kind {
	case ControlContinue:
		return "Continue"
	case ControlContinueN:
		return fmt.Sprintf("ContinueN(%d)", c.n)
	case ControlJump:
		return fmt.Sprintf("Jump(%d)", c.target)
	default:
		return fmt.Sprintf("Exit(%v)", c.reason)
	}
}
