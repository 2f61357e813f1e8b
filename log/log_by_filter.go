package log

import (
	"sync/atomic"
)

// EveryN lets one in every n events through. It is safe for concurrent use.
type EveryN struct {
	n     uint64
	count atomic.Uint64
}

// NewEveryN returns a sampler passing the first event and every nth after it.
// An n of zero or one passes every event.
func NewEveryN(n uint64) *EveryN {
	if n == 0 {
		n = 1
	}
	return &EveryN{n: n}
}

// Ok counts an event and reports whether it is sampled.
func (e *EveryN) Ok() bool {
	return (e.count.Add(1)-1)%e.n == 0
}

// Trace logs at the trace level when the event is sampled.
func (e *EveryN) Trace(msg string, ctx ...interface{}) {
	if e.Ok() {
		Root().Write(LevelTrace, msg, ctx...)
	}
}

// Debug logs at the debug level when the event is sampled.
func (e *EveryN) Debug(msg string, ctx ...interface{}) {
	if e.Ok() {
		Root().Write(LevelDebug, msg, ctx...)
	}
}

// Info logs at the info level when the event is sampled.
func (e *EveryN) Info(msg string, ctx ...interface{}) {
	if e.Ok() {
		Root().Write(LevelInfo, msg, ctx...)
	}
}

// TraceIf logs at the trace level if cond holds.
func TraceIf(cond bool, msg string, ctx ...interface{}) {
	if cond {
		Root().Write(LevelTrace, msg, ctx...)
	}
}

// DebugIf logs at the debug level if cond holds.
func DebugIf(cond bool, msg string, ctx ...interface{}) {
	if cond {
		Root().Write(LevelDebug, msg, ctx...)
	}
}

// InfoIf logs at the info level if cond holds.
func InfoIf(cond bool, msg string, ctx ...interface{}) {
	if cond {
		Root().Write(LevelInfo, msg, ctx...)
	}
}

// WarnIf logs at the warn level if cond holds.
func WarnIf(cond bool, msg string, ctx ...interface{}) {
	if cond {
		Root().Write(LevelWarn, msg, ctx...)
	}
}

// ErrorIf logs at the error level if cond holds.
func ErrorIf(cond bool, msg string, ctx ...interface{}) {
	if cond {
		Root().Write(LevelError, msg, ctx...)
	}
}
