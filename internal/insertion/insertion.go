// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package insertion implements the compact, bit-packed on-disk format
// for per-screen insertion sites (the ".sq" format) and its legacy
// flat-record predecessor, plus the value type and sort order shared
// by both.
package insertion

import (
	"sort"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// Insertion is a single (chromosome, strand, position) observation.
type Insertion struct {
	Chrom  chrom.Chromosome
	Strand byte // '+' or '-'
	Pos    uint32
}

// Less orders insertions by (chrom, pos, strand), with '+' sorting
// before '-' on ties — the canonical on-disk and in-memory order.
func Less(a, b Insertion) bool {
	if a.Chrom != b.Chrom {
		return a.Chrom < b.Chrom
	}
	if a.Pos != b.Pos {
		return a.Pos < b.Pos
	}
	return a.Strand == '+' && b.Strand != '+'
}

// SortSlice sorts ins in place by (chrom, pos, strand).
func SortSlice(ins []Insertion) {
	sort.Slice(ins, func(i, j int) bool { return Less(ins[i], ins[j]) })
}

// Dedup removes consecutive duplicate (chrom, strand, pos) tuples from
// a sorted slice, used by the alignment assigner's raw-count path to
// merge duplicate reads from a two-pass alignment.
func Dedup(ins []Insertion) []Insertion {
	if len(ins) == 0 {
		return ins
	}
	out := ins[:1]
	for _, v := range ins[1:] {
		last := out[len(out)-1]
		if v.Chrom == last.Chrom && v.Strand == last.Strand && v.Pos == last.Pos {
			continue
		}
		out = append(out, v)
	}
	return out
}
