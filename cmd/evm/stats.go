// Copyright 2017 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bnb-chain/evmcore/core/vm"
	"github.com/bnb-chain/evmcore/core/vm/runtime"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
)

type opStat struct {
	op    vm.OpCode
	count uint64
}

// collectStats sums the dispatched opcodes of all runs, most frequent first.
func collectStats(results []*runtime.Result) ([]opStat, uint64) {
	var counts [256]uint64
	for _, res := range results {
		for op, n := range res.Env.OpCounts() {
			counts[op] += n
		}
	}
	var (
		stats []opStat
		total uint64
	)
	for op, n := range counts {
		if n == 0 {
			continue
		}
		stats = append(stats, opStat{vm.OpCode(op), n})
		total += n
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].op < stats[j].op
	})
	return stats, total
}

func printStats(w io.Writer, results []*runtime.Result, elapsed time.Duration) {
	stats, total := collectStats(results)
	var gasUsed uint64
	for _, res := range results {
		gasUsed += res.GasUsed
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Opcode", "Count", "Share"})
	for _, s := range stats {
		table.Append([]string{
			s.op.String(),
			fmt.Sprintf("%d", s.count),
			fmt.Sprintf("%.2f%%", 100*float64(s.count)/float64(total)),
		})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d", total), ""})
	table.Render()

	fmt.Fprintf(w, "EVM gas used:    %d\n", gasUsed)
	fmt.Fprintf(w, "execution time:  %v\n", common.PrettyDuration(elapsed))
}
