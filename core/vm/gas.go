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

// Gas tracks spending against a fixed limit. Explicit costs accumulate in
// used, memory expansion is charged for its high-water mark only, and refunds
// are a signed counter clamped by the caller at the end of execution.
type Gas struct {
	limit    uint64
	used     uint64
	memory   uint64
	refunded int64
}

// NewGas returns a ledger with nothing spent.
func NewGas(limit uint64) Gas {
	return Gas{limit: limit}
}

func (g *Gas) Limit() uint64   { return g.limit }
func (g *Gas) Used() uint64    { return g.used }
func (g *Gas) Memory() uint64  { return g.memory }
func (g *Gas) Refunded() int64 { return g.refunded }
func (g *Gas) AllUsed() uint64 { return g.used + g.memory }

// Remaining is the gas still available. It panics if the ledger is
// inconsistent, which can only happen through a broken caller.
func (g *Gas) Remaining() uint64 {
	if g.used > g.limit || g.memory > g.limit-g.used {
		panic(internalError("gas remaining underflow: limit %d used %d memory %d", g.limit, g.used, g.memory))
	}
	return g.limit - g.used - g.memory
}

// RecordCost charges cost. It fails without mutating anything if the charge
// would exceed the limit.
func (g *Gas) RecordCost(cost uint64) bool {
	spent := g.used + g.memory
	if spent < g.used || spent+cost < spent || g.limit < spent+cost {
		return false
	}
	g.used += cost
	return true
}

// RecordCostControl is RecordCost for instruction bodies.
func (g *Gas) RecordCostControl(cost uint64) Control {
	if !g.RecordCost(cost) {
		return Exit(ErrOutOfGas)
	}
	return Continue()
}

// EraseCost gives back previously charged gas. Returning more than was used
// panics.
func (g *Gas) EraseCost(returned uint64) {
	if returned > g.used {
		panic(internalError("gas erase underflow: used %d returned %d", g.used, returned))
	}
	g.used -= returned
}

// RecordRefund adjusts the refund counter, which may go negative.
func (g *Gas) RecordRefund(delta int64) {
	g.refunded += delta
}

// RecordMemoryCost raises the memory high-water cost to newCost. Lower values
// are ignored.
func (g *Gas) RecordMemoryCost(newCost uint64) {
	g.memory = max(g.memory, newCost)
}

// ReserveMemoryCost is RecordMemoryCost guarded by the limit: it fails without
// mutating anything if the new high-water cost does not fit.
func (g *Gas) ReserveMemoryCost(newCost uint64) bool {
	if newCost <= g.memory {
		return true
	}
	if g.used > g.limit || newCost > g.limit-g.used {
		return false
	}
	g.memory = newCost
	return true
}
