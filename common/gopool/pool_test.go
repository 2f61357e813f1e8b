package gopool

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreads(t *testing.T) {
	assert.Equal(t, 1, Threads(0))
	assert.Equal(t, 1, Threads(minNumberPerTask))
	assert.Equal(t, runtime.NumCPU(), Threads(minNumberPerTask*runtime.NumCPU()*4))
}

func TestGroup(t *testing.T) {
	g, err := NewGroup(4)
	require.NoError(t, err)

	var done atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, g.Go(func() { done.Add(1) }))
	}
	g.Wait()
	assert.EqualValues(t, 100, done.Load())
}

func TestSubmit(t *testing.T) {
	finished := make(chan struct{})
	require.NoError(t, Submit(func() { close(finished) }))
	<-finished
}
