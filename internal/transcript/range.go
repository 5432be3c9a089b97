// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transcript implements the annotation-table loader and the
// mode-based transcript selector: parsing a tab-separated gene table,
// assigning scoring ranges from a start/end expression, disambiguating
// gene names, reducing multiple transcripts per gene to one scoring
// region, and cutting or filtering ranges so that each base contributes
// to at most one gene's score.
package transcript

import "github.com/nki-avl/screenkit/internal/chrom"

// Range is a half-open [Start, End) interval over unsigned genomic
// coordinates.
type Range struct {
	Start, End uint32
}

// Empty reports whether r contains no positions.
func (r Range) Empty() bool { return r.End <= r.Start }

// Len returns the number of positions covered by r, or 0 if empty.
func (r Range) Len() uint32 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Overlaps reports whether r and o share any position.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Contains reports whether r fully contains o.
func (r Range) Contains(o Range) bool {
	return r.Start <= o.Start && r.End >= o.End
}

// CDSStatus describes how complete a transcript's annotated coding
// sequence boundary is.
type CDSStatus uint8

const (
	CDSNone CDSStatus = iota
	CDSUnknown
	CDSIncomplete
	CDSComplete
)

// CDS is a coding-sequence range with an associated completeness
// status.
type CDS struct {
	Range
	Stat CDSStatus
}

// Exon is a Range with a signed reading frame offset.
type Exon struct {
	Range
	Frame int8
}

// Mode selects how multiple transcripts belonging to one gene are
// reduced to a single scoring region.
type Mode int

const (
	// Longest retains the transcript with the greatest scoring range
	// length within a (geneName, chrom, strand) run.
	Longest Mode = iota
	// Collapse widens the first transcript's range to the union
	// [min start, max end] of the run and drops the rest.
	Collapse
	// LongestExon selects the transcript with the greatest summed
	// exon length; used by the SL pipeline together with
	// FilterOutExons.
	LongestExon
)

func (m Mode) String() string {
	switch m {
	case Longest:
		return "longest"
	case Collapse:
		return "collapse"
	case LongestExon:
		return "longest-exon"
	default:
		return "unknown"
	}
}

// chromLess orders chromosomes the way the selector and assigner
// require: numeric order with X and Y last, matching chrom.Chromosome's
// own ordinal values.
func chromLess(a, b chrom.Chromosome) bool { return a < b }
