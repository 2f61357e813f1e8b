package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestTerminalHandlerWithAttrs(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandlerWithLevel(out, LevelTrace, false).WithAttrs([]slog.Attr{slog.String("baz", "bat")}))
	l.Trace("a message", "foo", "bar")
	have := out.String()
	// The timestamp is locale-dependent, so we want to trim that off
	// "INFO [01-01|00:00:00.000] a message ..." -> "a message..."
	have = strings.Split(have, "]")[1]
	want := " a message" + strings.Repeat(" ", termMsgJust-len("a message")+1) + "baz=bat foo=bar\n"
	assert.Equal(t, want, have)
}

func TestTerminalHandlerLevel(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandlerWithLevel(out, LevelInfo, false))
	l.Debug("hidden")
	assert.Zero(t, out.Len())
	l.Warn("shown", "err", errors.New("boom"))
	assert.True(t, strings.HasPrefix(out.String(), "WARN "))
	assert.Contains(t, out.String(), `err="boom"`)
}

func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(JSONHandler(out))
	l.Info("hi there", "x", 1)
	assert.Contains(t, out.String(), `"lvl":"info"`)
	assert.Contains(t, out.String(), `"msg":"hi there"`)
	assert.Contains(t, out.String(), `"x":1`)
}

func TestOddAttributes(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandlerWithLevel(out, LevelTrace, false))
	l.Info("odd", "lonely")
	assert.Contains(t, out.String(), errorKey)
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelTrace, FromLegacyLevel(5))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, LevelCrit, FromLegacyLevel(-1))
}

func TestEveryN(t *testing.T) {
	e := NewEveryN(3)
	var passed []int
	for i := 0; i < 7; i++ {
		if e.Ok() {
			passed = append(passed, i)
		}
	}
	assert.Equal(t, []int{0, 3, 6}, passed)

	all := NewEveryN(0)
	require.True(t, all.Ok())
	require.True(t, all.Ok())
}

func TestConditionalHelpers(t *testing.T) {
	out := new(bytes.Buffer)
	prev := Root()
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(out, LevelTrace, false)))
	defer SetDefault(prev)

	DebugIf(false, "skipped")
	assert.Zero(t, out.Len())
	DebugIf(true, "logged")
	assert.Contains(t, out.String(), "logged")
}
