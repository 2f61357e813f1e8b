// Copyright 2017 The go-ethereum Authors
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

// Package tracers is a manager for the execution tracers shipped with evmcore.
package tracers

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/bnb-chain/evmcore/core/tracing"
)

// Tracer is a set of hooks with a way to read back what they collected.
type Tracer struct {
	*tracing.Hooks
	GetResult func() (json.RawMessage, error)
	// Stop terminates execution of the tracer at the first opportune moment.
	Stop func(err error)
}

type ctorFn func(cfg json.RawMessage) (*Tracer, error)

// ErrNotFound is returned for a tracer name nobody registered.
var ErrNotFound = errors.New("tracer not found")

// DefaultDirectory is the collection of tracers bundled by default.
var DefaultDirectory = Directory{elems: make(map[string]ctorFn)}

// Directory is the collection of tracers, indexed by name.
type Directory struct {
	elems map[string]ctorFn
}

// Register registers a tracer constructor by name.
func (d *Directory) Register(name string, f ctorFn) {
	d.elems[name] = f
}

// New returns a new instance of the named tracer.
func (d *Directory) New(name string, cfg json.RawMessage) (*Tracer, error) {
	if f, ok := d.elems[name]; ok {
		return f(cfg)
	}
	return nil, ErrNotFound
}

// Names lists the registered tracers in alphabetical order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.elems))
	for name := range d.elems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
