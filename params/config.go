// Copyright 2016 The go-ethereum Authors
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

package params

import (
	"fmt"
	"strings"
)

// Fork identifies a rule set of the instruction set. Later forks include the
// opcodes and cost changes of every earlier one.
type Fork int

const (
	Frontier Fork = iota
	Homestead
	Byzantium
	Constantinople
	Istanbul
	Berlin
	London
	Shanghai
	Cancun
	Prague
	Osaka

	// LatestFork is the most recent rule set this module implements.
	LatestFork = Osaka
)

var forkNames = [...]string{
	Frontier:       "Frontier",
	Homestead:      "Homestead",
	Byzantium:      "Byzantium",
	Constantinople: "Constantinople",
	Istanbul:       "Istanbul",
	Berlin:         "Berlin",
	London:         "London",
	Shanghai:       "Shanghai",
	Cancun:         "Cancun",
	Prague:         "Prague",
	Osaka:          "Osaka",
}

func (f Fork) String() string {
	if f < Frontier || f > LatestFork {
		return fmt.Sprintf("Fork(%d)", int(f))
	}
	return forkNames[f]
}

// Forks returns every known fork, oldest first.
func Forks() []Fork {
	forks := make([]Fork, 0, len(forkNames))
	for f := Frontier; f <= LatestFork; f++ {
		forks = append(forks, f)
	}
	return forks
}

// ParseFork looks up a fork by its case-insensitive name.
func ParseFork(name string) (Fork, error) {
	for f, n := range forkNames {
		if strings.EqualFold(n, name) {
			return Fork(f), nil
		}
	}
	return Frontier, fmt.Errorf("unknown fork %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Fork) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fork) UnmarshalText(text []byte) error {
	fork, err := ParseFork(string(text))
	if err != nil {
		return err
	}
	*f = fork
	return nil
}

// Rules is a one time interface meaning that it shouldn't be used in between transition
// phases.
type Rules struct {
	Fork                                                    Fork
	IsHomestead, IsEIP150, IsEIP158                         bool
	IsByzantium, IsConstantinople, IsPetersburg, IsIstanbul bool
	IsBerlin, IsLondon                                      bool
	IsShanghai, IsCancun, IsPrague, IsOsaka                 bool
	IsEOF                                                   bool
}

// Rules returns the flag set active at fork f.
func (f Fork) Rules() Rules {
	return Rules{
		Fork:             f,
		IsHomestead:      f >= Homestead,
		IsEIP150:         f >= Homestead,
		IsEIP158:         f >= Homestead,
		IsByzantium:      f >= Byzantium,
		IsConstantinople: f >= Constantinople,
		IsPetersburg:     f >= Constantinople,
		IsIstanbul:       f >= Istanbul,
		IsBerlin:         f >= Berlin,
		IsLondon:         f >= London,
		IsShanghai:       f >= Shanghai,
		IsCancun:         f >= Cancun,
		IsPrague:         f >= Prague,
		IsOsaka:          f >= Osaka,
		IsEOF:            f >= Osaka,
	}
}
