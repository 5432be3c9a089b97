// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import (
	"sort"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// Transcript is a single gene-model record. Identity is Name; GeneName
// is the (possibly disambiguated) symbol used for scoring and display.
type Transcript struct {
	Name     string
	GeneName string
	Chrom    chrom.Chromosome
	Strand   byte // '+' or '-'
	Score    float32

	TX    Range
	CDS   CDS
	Exons []Exon

	// Ranges holds the ordered, non-overlapping scoring intervals
	// derived from TX/CDS during selection. It starts as {TX} and is
	// narrowed or split by AssignRanges, CutOverlap and
	// FilterOutExons.
	Ranges []Range

	// Transient flags used during selection.
	Longest    bool
	Overlapped bool
	Unique     bool
}

// Start returns the lowest genomic coordinate of the transcript's
// scoring ranges, whatever the strand, or TX.Start if Ranges is empty.
func (t *Transcript) Start() uint32 {
	if len(t.Ranges) == 0 {
		return t.TX.Start
	}
	return t.Ranges[0].Start
}

// End returns the highest genomic coordinate of the transcript's
// scoring ranges, whatever the strand, or TX.End if Ranges is empty.
func (t *Transcript) End() uint32 {
	if len(t.Ranges) == 0 {
		return t.TX.End
	}
	return t.Ranges[len(t.Ranges)-1].End
}

// Empty reports whether t has no non-empty scoring range.
func (t *Transcript) Empty() bool {
	if len(t.Ranges) == 0 {
		return true
	}
	for _, r := range t.Ranges {
		if !r.Empty() {
			return false
		}
	}
	return true
}

// LengthExons returns the summed length of t's exons, used by
// LongestExon selection.
func (t *Transcript) LengthExons() uint32 {
	var n uint32
	for _, e := range t.Exons {
		n += e.Len()
	}
	return n
}

// HasOverlap reports whether t and o share any position in their
// first scoring range.
func (t *Transcript) HasOverlap(o *Transcript) bool {
	if t.Chrom != o.Chrom || len(t.Ranges) == 0 || len(o.Ranges) == 0 {
		return false
	}
	return t.Ranges[0].Overlaps(o.Ranges[0])
}

// ByChromStart sorts transcripts by (chrom, first-range start), the
// order binary search and cut-overlap both depend on.
type ByChromStart []*Transcript

func (s ByChromStart) Len() int      { return len(s) }
func (s ByChromStart) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByChromStart) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.Chrom != b.Chrom {
		return chromLess(a.Chrom, b.Chrom)
	}
	return a.Start() < b.Start()
}

// ByGeneChromStart sorts transcripts by (geneName, chrom, first-range
// start), used for name disambiguation grouping.
type ByGeneChromStart []*Transcript

func (s ByGeneChromStart) Len() int      { return len(s) }
func (s ByGeneChromStart) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByGeneChromStart) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.GeneName != b.GeneName {
		return a.GeneName < b.GeneName
	}
	if a.Chrom != b.Chrom {
		return chromLess(a.Chrom, b.Chrom)
	}
	return a.Start() < b.Start()
}

// SortByChromStart sorts ts in place by (chrom, start).
func SortByChromStart(ts []*Transcript) {
	sort.Sort(ByChromStart(ts))
}
