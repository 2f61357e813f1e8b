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
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bnb-chain/evmcore/cachemetrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCodeCacheItems is the number of analysed programs kept by default.
	DefaultCodeCacheItems = 4096
	// DefaultJumpdestCacheBytes is the default size of the jumpdest bitmap cache.
	DefaultJumpdestCacheBytes = 16 * 1024 * 1024
)

type codeKey struct {
	hash common.Hash
	eof  bool
}

func (k codeKey) String() string {
	if k.eof {
		return "eof:" + string(k.hash[:])
	}
	return "legacy:" + string(k.hash[:])
}

// AnalysisCache shares analysed programs between runs. The first layer keeps
// whole Bytecode values, the second layer keeps the jumpdest bitmaps of legacy
// code so they survive eviction from the first. It is safe for concurrent use;
// concurrent misses on the same code are analysed once.
type AnalysisCache struct {
	codes     *lru.ARCCache
	jumpdests *fastcache.Cache
	inflight  singleflight.Group
}

// NewAnalysisCache creates a cache holding up to items programs and
// jumpdestBytes bytes of jumpdest bitmaps.
func NewAnalysisCache(items int, jumpdestBytes int) (*AnalysisCache, error) {
	codes, err := lru.NewARC(items)
	if err != nil {
		return nil, err
	}
	return &AnalysisCache{
		codes:     codes,
		jumpdests: fastcache.New(jumpdestBytes),
	}, nil
}

// Load returns the analysed form of code, analysing it on a miss.
func (c *AnalysisCache) Load(code []byte, eofEnabled bool) (*Bytecode, error) {
	start := time.Now()
	key := codeKey{hash: crypto.Keccak256Hash(code), eof: eofEnabled}
	if v, ok := c.codes.Get(key); ok {
		cachemetrics.Record(cachemetrics.CacheL1CODE, start)
		return v.(*Bytecode), nil
	}
	v, err, _ := c.inflight.Do(key.String(), func() (any, error) {
		return c.fill(key, code, eofEnabled, start)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bytecode), nil
}

// fill resolves a first layer miss from the jumpdest layer or by analysing
// code.
func (c *AnalysisCache) fill(key codeKey, code []byte, eofEnabled bool, start time.Time) (*Bytecode, error) {
	if v, ok := c.codes.Get(key); ok {
		return v.(*Bytecode), nil
	}
	eof := eofEnabled && hasEOFByte(code)
	if !eof {
		if bits, ok := c.jumpdests.HasGet(nil, key.hash[:]); ok {
			b := NewLegacyBytecodeWithTable(code, JumpDestTableFromBytes(bits))
			c.codes.Add(key, b)
			cachemetrics.Record(cachemetrics.CacheL2JUMPDEST, start)
			return b, nil
		}
	}
	b, err := ParseBytecode(code, eofEnabled)
	if err != nil {
		return nil, err
	}
	if !b.IsEOF() {
		c.jumpdests.Set(key.hash[:], b.jumpDests.Bytes())
	}
	c.codes.Add(key, b)
	cachemetrics.Record(cachemetrics.MissANALYSIS, start)
	return b, nil
}

// Len is the number of programs in the first layer.
func (c *AnalysisCache) Len() int {
	return c.codes.Len()
}

// Purge drops every cached entry.
func (c *AnalysisCache) Purge() {
	c.codes.Purge()
	c.jumpdests.Reset()
}
