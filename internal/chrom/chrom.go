// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chrom provides the chromosome identifier used throughout the
// transcript and insertion models. Ordering is load-bearing: binary
// search over transcripts depends on chromosomes sorting numerically
// before X and Y.
package chrom

import "fmt"

// Chromosome is a small enumeration covering human chromosomes 1-23,
// X and Y, plus an Invalid sentinel. The zero value is Invalid.
type Chromosome int8

const (
	Invalid Chromosome = iota
	Chr1
	Chr2
	Chr3
	Chr4
	Chr5
	Chr6
	Chr7
	Chr8
	Chr9
	Chr10
	Chr11
	Chr12
	Chr13
	Chr14
	Chr15
	Chr16
	Chr17
	Chr18
	Chr19
	Chr20
	Chr21
	Chr22
	Chr23
	ChrX
	ChrY
)

var names = [...]string{
	Invalid: "invalid",
	Chr1:    "chr1", Chr2: "chr2", Chr3: "chr3", Chr4: "chr4", Chr5: "chr5",
	Chr6: "chr6", Chr7: "chr7", Chr8: "chr8", Chr9: "chr9", Chr10: "chr10",
	Chr11: "chr11", Chr12: "chr12", Chr13: "chr13", Chr14: "chr14", Chr15: "chr15",
	Chr16: "chr16", Chr17: "chr17", Chr18: "chr18", Chr19: "chr19", Chr20: "chr20",
	Chr21: "chr21", Chr22: "chr22", Chr23: "chr23", ChrX: "chrX", ChrY: "chrY",
}

// String returns the "chrN"/"chrX"/"chrY" spelling of c, or "invalid".
func (c Chromosome) String() string {
	if c < Invalid || int(c) >= len(names) {
		return fmt.Sprintf("chrom(%d)", int(c))
	}
	return names[c]
}

// Parse matches s against chr(1..23|X|Y) exactly, returning Invalid
// (and ok == false) for anything else, including "chrM" and
// contig-style names. This is the chromosome matching rule of the
// annotation and alignment grammars.
func Parse(s string) (c Chromosome, ok bool) {
	for i, n := range names {
		if i == int(Invalid) {
			continue
		}
		if s == n {
			return Chromosome(i), true
		}
	}
	return Invalid, false
}

// All returns the fixed enumeration order 1..23, X, Y used when
// iterating per-chromosome insertion streams.
func All() []Chromosome {
	out := make([]Chromosome, 0, 25)
	for c := Chr1; c <= ChrY; c++ {
		out = append(out, c)
	}
	return out
}
