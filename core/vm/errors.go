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
	"errors"
	"fmt"
)

// ExitClass partitions terminal reasons into successful halts, reverts,
// faults and fatal conditions.
type ExitClass uint8

const (
	ClassSucceed ExitClass = iota
	ClassRevert
	ClassError
	ClassFatal
)

func (c ExitClass) String() string {
	switch c {
	case ClassSucceed:
		return "succeed"
	case ClassRevert:
		return "revert"
	case ClassError:
		return "error"
	case ClassFatal:
		return "fatal"
	}
	return fmt.Sprintf("ExitClass(%d)", uint8(c))
}

// ExitReason is the terminal status of a machine. Once a machine records one
// it never changes.
type ExitReason interface {
	error
	Class() ExitClass
}

// ExitSucceed is a normal halt.
type ExitSucceed uint8

const (
	Stopped ExitSucceed = iota
	Returned
	SelfDestructed
)

func (e ExitSucceed) Error() string {
	switch e {
	case Stopped:
		return "stopped"
	case Returned:
		return "returned"
	case SelfDestructed:
		return "self destructed"
	}
	return fmt.Sprintf("succeed(%d)", uint8(e))
}

func (ExitSucceed) Class() ExitClass { return ClassSucceed }

// ExitRevert is an explicit revert. The machine's return range carries the
// revert data.
type ExitRevert uint8

const Reverted ExitRevert = 0

func (ExitRevert) Error() string    { return "execution reverted" }
func (ExitRevert) Class() ExitClass { return ClassRevert }

// ExitError is a fault raised by the code being executed.
type ExitError uint8

// List evm execution faults
const (
	ErrOutOfGas ExitError = iota
	ErrStackUnderflow
	ErrStackOverflow
	ErrInvalidJump
	ErrInvalidRange
	ErrDesignatedInvalid
	ErrInvalidCode
	ErrGasUintOverflow
	ErrWriteProtection
	ErrReturnDataOutOfBounds
	ErrInvalidSection
	ErrInvalidDataAccess
	ErrReturnStackExceeded
	ErrCallTooDeep
	ErrOutOfOffset
	ErrOutOfFund
	ErrInvalidContainer
)

var exitErrorText = [...]string{
	ErrOutOfGas:              "out of gas",
	ErrStackUnderflow:        "stack underflow",
	ErrStackOverflow:         "stack limit reached",
	ErrInvalidJump:           "invalid jump destination",
	ErrInvalidRange:          "memory range exceeds limit",
	ErrDesignatedInvalid:     "invalid opcode: INVALID",
	ErrInvalidCode:           "invalid opcode",
	ErrGasUintOverflow:       "gas uint64 overflow",
	ErrWriteProtection:       "write protection",
	ErrReturnDataOutOfBounds: "return data out of bounds",
	ErrInvalidSection:        "invalid code section",
	ErrInvalidDataAccess:     "invalid data section access",
	ErrReturnStackExceeded:   "return stack limit reached",
	ErrCallTooDeep:           "max call depth exceeded",
	ErrOutOfOffset:           "offset out of range",
	ErrOutOfFund:             "insufficient balance for transfer",
	ErrInvalidContainer:      "invalid eof container",
}

func (e ExitError) Error() string {
	if int(e) < len(exitErrorText) {
		return exitErrorText[e]
	}
	return fmt.Sprintf("exit error(%d)", uint8(e))
}

func (ExitError) Class() ExitClass { return ClassError }

// ExitFatal is a condition the machine cannot continue from and that is not
// attributable to the executed code.
type ExitFatal uint8

const (
	FatalNotSupported ExitFatal = iota
	FatalUnhandledInterrupt
	FatalInternal
)

func (e ExitFatal) Error() string {
	switch e {
	case FatalNotSupported:
		return "operation not supported"
	case FatalUnhandledInterrupt:
		return "unhandled interrupt"
	case FatalInternal:
		return "internal error"
	}
	return fmt.Sprintf("fatal(%d)", uint8(e))
}

func (ExitFatal) Class() ExitClass { return ClassFatal }

// IsSucceed reports whether reason is a successful halt.
func IsSucceed(reason ExitReason) bool { return reason != nil && reason.Class() == ClassSucceed }

// IsRevert reports whether reason is an explicit revert.
func IsRevert(reason ExitReason) bool { return reason != nil && reason.Class() == ClassRevert }

// IsError reports whether reason is an execution fault.
func IsError(reason ExitReason) bool { return reason != nil && reason.Class() == ClassError }

// IsFatal reports whether reason is a fatal condition.
func IsFatal(reason ExitReason) bool { return reason != nil && reason.Class() == ClassFatal }

var (
	// ErrNotLegacy is returned by legacy accessors called on EOF bytecode.
	ErrNotLegacy = errors.New("bytecode is not legacy")
	// ErrNotEOF is returned by EOF accessors called on legacy bytecode.
	ErrNotEOF = errors.New("bytecode is not eof")
	// ErrDataOutOfRange is returned for data section reads past its end.
	ErrDataOutOfRange = errors.New("data section read out of range")
)

// InternalError is raised as a panic when an invariant the caller is
// responsible for has been broken. It is never reported as an exit reason.
type InternalError struct {
	msg string
}

func (e *InternalError) Error() string { return "evm internal error: " + e.msg }

func internalError(format string, args ...any) *InternalError {
	return &InternalError{msg: fmt.Sprintf(format, args...)}
}
