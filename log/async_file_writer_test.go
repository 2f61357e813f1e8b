package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.log")
	w := NewAsyncFileWriter(path, 100, 1, 1, 0)
	require.NoError(t, w.Start())
	w.Write([]byte("hello\n"))
	w.Write([]byte("world\n"))
	w.Stop()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(content))
}

func TestWriterDoubleStart(t *testing.T) {
	w := NewAsyncFileWriter(filepath.Join(t.TempDir(), "hello.log"), 10, 1, 1, 0)
	require.NoError(t, w.Start())
	assert.Error(t, w.Start())
	w.Stop()
}

func TestGetNextRotationHour(t *testing.T) {
	tcs := []struct {
		now          time.Time
		delta        uint
		expectedHour int
	}{
		{
			now:          time.Date(1980, 1, 6, 15, 34, 0, 0, time.UTC),
			delta:        3,
			expectedHour: 18,
		},
		{
			now:          time.Date(1980, 1, 6, 23, 59, 0, 0, time.UTC),
			delta:        1,
			expectedHour: 0,
		},
		{
			now:          time.Date(1980, 1, 6, 22, 15, 0, 0, time.UTC),
			delta:        2,
			expectedHour: 0,
		},
		{
			now:          time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC),
			delta:        1,
			expectedHour: 1,
		},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expectedHour, getNextRotationHour(tc.now, tc.delta))
	}
}
