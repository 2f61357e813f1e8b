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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisCacheHit(t *testing.T) {
	cache, err := NewAnalysisCache(16, 1024*1024)
	require.NoError(t, err)

	code := []byte{byte(PUSH1), 3, byte(JUMP), byte(JUMPDEST)}
	a, err := cache.Load(code, false)
	require.NoError(t, err)
	b, err := cache.Load(code, false)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Zero(t, cache.Len())
	c, err := cache.Load(code, false)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestAnalysisCacheJumpdestLayer(t *testing.T) {
	cache, err := NewAnalysisCache(1, 1024*1024)
	require.NoError(t, err)

	first := []byte{byte(PUSH1), 3, byte(JUMP), byte(JUMPDEST), byte(PUSH1), byte(JUMPDEST)}
	a, err := cache.Load(first, false)
	require.NoError(t, err)
	_, err = cache.Load([]byte{byte(STOP)}, false)
	require.NoError(t, err)

	// The first program was evicted from the code layer, its bitmap is
	// rebuilt from the jumpdest layer.
	b, err := cache.Load(first, false)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	for pc := uint64(0); pc < uint64(len(first)); pc++ {
		want, err := a.ValidJumpDest(pc)
		require.NoError(t, err)
		got, err := b.ValidJumpDest(pc)
		require.NoError(t, err)
		assert.Equal(t, want, got, "pc %d", pc)
	}
	valid, _ := b.ValidJumpDest(3)
	assert.True(t, valid)
	valid, _ = b.ValidJumpDest(5)
	assert.False(t, valid)
	slice, err := b.LegacySlice()
	require.NoError(t, err)
	assert.Equal(t, first, slice)
}

func TestAnalysisCacheEOF(t *testing.T) {
	cache, err := NewAnalysisCache(16, 1024*1024)
	require.NoError(t, err)

	raw := eofContainer(t, Container{Code: [][]byte{{byte(PUSH0), byte(STOP)}}})
	b, err := cache.Load(raw, true)
	require.NoError(t, err)
	assert.True(t, b.IsEOF())

	legacy, err := cache.Load(raw, false)
	require.NoError(t, err)
	assert.False(t, legacy.IsEOF())
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Load(raw[:len(raw)-1], true)
	assert.Error(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestAnalysisCacheConcurrentLoad(t *testing.T) {
	cache, err := NewAnalysisCache(16, 1024*1024)
	require.NoError(t, err)

	code := []byte{byte(PUSH1), 3, byte(JUMP), byte(JUMPDEST)}
	var (
		wg      sync.WaitGroup
		results = make([]*Bytecode, 32)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := cache.Load(code, false)
			assert.NoError(t, err)
			results[i] = b
		}(i)
	}
	wg.Wait()
	for _, b := range results[1:] {
		assert.Same(t, results[0], b)
	}
	assert.Equal(t, 1, cache.Len())
}
