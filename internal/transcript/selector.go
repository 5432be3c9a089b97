// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"
	"github.com/biogo/store/step"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// mirror swaps a position-grammar base to its opposite transcription
// end, e.g. cdsStart <-> cdsEnd, so that a minus-strand transcript's
// "start" expression still resolves to the gene's 5' boundary.
func mirror(b posBase) posBase {
	switch b {
	case txStart:
		return txEnd
	case txEnd:
		return txStart
	case cdsStart:
		return cdsEnd
	default:
		return cdsStart
	}
}

// AssignRanges computes each transcript's scoring range from a
// start/end expression pair following the grammar
// "(cds|tx)(Start|End)?([+-]digits)?". On the + strand, r.start and
// r.end come directly from the start/end expressions. On the -
// strand, the base fields mirror (tx/cds Start <-> End) and the
// offsets' sign flips, so the expression's "start" always names the
// gene's 5' boundary regardless of strand. Transcripts whose resulting
// range is empty are dropped.
func AssignRanges(ts []*Transcript, startExpr, endExpr string) ([]*Transcript, error) {
	startBase, startOffset, err := parsePos(startExpr, false)
	if err != nil {
		return nil, err
	}
	endBase, endOffset, err := parsePos(endExpr, true)
	if err != nil {
		return nil, err
	}

	out := ts[:0]
	for _, t := range ts {
		var r Range
		if t.Strand == '+' {
			r.Start = uint32(int64(baseValue(t, startBase)) + startOffset)
			r.End = uint32(int64(baseValue(t, endBase)) + endOffset)
		} else {
			r.End = uint32(int64(baseValue(t, mirror(startBase))) - startOffset)
			r.Start = uint32(int64(baseValue(t, mirror(endBase))) - endOffset)
		}
		if r.Empty() {
			continue
		}
		t.Ranges = []Range{r}
		out = append(out, t)
	}
	return out, nil
}

// Select disambiguates gene names, reduces each (geneName, chrom,
// strand) run to a single transcript per mode, and marks full
// containment overlaps. ts must already have non-empty Ranges (see
// AssignRanges). The returned slice is sorted by (chrom, start).
func Select(ts []*Transcript, mode Mode) []*Transcript {
	ts = dropEmpty(ts)
	disambiguate(ts)

	switch mode {
	case Longest:
		ts = reduceLongest(ts)
	case Collapse:
		ts = reduceCollapse(ts)
	case LongestExon:
		ts = reduceLongestExon(ts)
	}

	SortByChromStart(ts)
	markOverlaps(ts)
	return ts
}

func dropEmpty(ts []*Transcript) []*Transcript {
	out := ts[:0]
	for _, t := range ts {
		if !t.Empty() {
			out = append(out, t)
		}
	}
	return out
}

// disambiguate renames genes whose runs span multiple chromosomes or
// strands to "<geneName>@<chr><strand>", per (geneName, chrom, start)
// grouping.
func disambiguate(ts []*Transcript) {
	idx := make([]*Transcript, len(ts))
	copy(idx, ts)
	sort.Sort(ByGeneChromStart(idx))

	i := 0
	for i < len(idx) {
		j := i
		rename := false
		for j+1 < len(idx) && idx[j+1].GeneName == idx[i].GeneName {
			if idx[j+1].Chrom != idx[i].Chrom || idx[j+1].Strand != idx[i].Strand {
				rename = true
			}
			j++
		}
		if rename {
			for k := i; k <= j; k++ {
				idx[k].GeneName = fmt.Sprintf("%s@%s%c", idx[k].GeneName, idx[k].Chrom, idx[k].Strand)
			}
		}
		i = j + 1
	}
}

func reduceLongest(ts []*Transcript) []*Transcript {
	idx := make([]*Transcript, len(ts))
	copy(idx, ts)
	sort.Sort(ByGeneChromStart(idx))

	var out []*Transcript
	i := 0
	for i < len(idx) {
		j := i
		best := idx[i]
		for j+1 < len(idx) && sameRun(idx[j+1], idx[i]) {
			j++
			if idx[j].Ranges[0].Len() > best.Ranges[0].Len() {
				best = idx[j]
			}
		}
		out = append(out, best)
		i = j + 1
	}
	return out
}

func sameRun(a, b *Transcript) bool {
	ak, _, as := a.GeneName, a.Chrom, a.Strand
	bk, _, bs := b.GeneName, b.Chrom, b.Strand
	return ak == bk && a.Chrom == b.Chrom && as == bs
}

func reduceCollapse(ts []*Transcript) []*Transcript {
	idx := make([]*Transcript, len(ts))
	copy(idx, ts)
	sort.Sort(ByGeneChromStart(idx))

	var out []*Transcript
	i := 0
	for i < len(idx) {
		j := i
		head := idx[i]
		r := head.Ranges[0]
		for j+1 < len(idx) && sameRun(idx[j+1], idx[i]) {
			j++
			if idx[j].Ranges[0].Start < r.Start {
				r.Start = idx[j].Ranges[0].Start
			}
			if idx[j].Ranges[0].End > r.End {
				r.End = idx[j].Ranges[0].End
			}
		}
		head.Ranges = []Range{r}
		out = append(out, head)
		i = j + 1
	}
	return out
}

func reduceLongestExon(ts []*Transcript) []*Transcript {
	idx := make([]*Transcript, len(ts))
	copy(idx, ts)
	sort.Sort(ByGeneChromStart(idx))

	var out []*Transcript
	i := 0
	for i < len(idx) {
		j := i
		best := idx[i]
		bestLen := best.LengthExons()
		for j+1 < len(idx) && sameRun(idx[j+1], idx[i]) {
			j++
			l := idx[j].LengthExons()
			if l > bestLen {
				best, bestLen = idx[j], l
			}
		}
		out = append(out, best)
		i = j + 1
	}
	return out
}

// markOverlaps marks every transcript fully contained by another
// transcript's first scoring range on the same chromosome as
// Overlapped, using an interval tree to avoid the O(n^2) scan of the
// naive sweep.
func markOverlaps(ts []*Transcript) {
	byChrom := make(map[chrom.Chromosome][]*Transcript)
	for _, t := range ts {
		byChrom[t.Chrom] = append(byChrom[t.Chrom], t)
	}
	for _, group := range byChrom {
		var tree interval.IntTree
		for i, t := range group {
			_ = tree.Insert(transcriptIval{id: uintptr(i), r: t.Ranges[0]}, false)
		}
		tree.AdjustRanges()
		for _, a := range group {
			hits := tree.Get(transcriptIval{r: a.Ranges[0]})
			for _, h := range hits {
				b := group[h.(transcriptIval).id]
				if b == a {
					continue
				}
				if a.Ranges[0].Contains(b.Ranges[0]) {
					b.Overlapped = true
				}
			}
		}
	}
}

type transcriptIval struct {
	id uintptr
	r  Range
}

func (t transcriptIval) Overlap(b interval.IntRange) bool {
	return int(t.r.Start) < b.End && int(b.Start) < int(t.r.End)
}
func (t transcriptIval) ID() uintptr { return t.id }
func (t transcriptIval) Range() interval.IntRange {
	return interval.IntRange{Start: int(t.r.Start), End: int(t.r.End)}
}

// CutOverlap scans ts (already sorted by (chrom, start)) and, for each
// adjacent pair on the same chromosome whose first ranges overlap,
// shrinks the earlier transcript's range to end where the next one
// starts. If the earlier transcript extended past the next one's end,
// a clone covering the leftover [next.end, original.end) span is
// inserted in sort order. Transcripts left empty by this process are
// dropped.
func CutOverlap(ts []*Transcript) []*Transcript {
	i := 0
	for i+1 < len(ts) {
		a, b := ts[i], ts[i+1]
		if a.Chrom != b.Chrom {
			i++
			continue
		}
		ar := a.Ranges[0]
		br := b.Ranges[0]
		if ar.End <= br.Start {
			i++
			continue
		}

		origEnd := ar.End
		ar.End = br.Start
		a.Ranges[0] = ar

		if origEnd > br.End {
			clone := *a
			cr := ar
			cr.Start = br.End
			cr.End = origEnd
			clone.Ranges = []Range{cr}

			k := sort.Search(len(ts)-(i+1), func(j int) bool {
				c := ts[i+1+j]
				if c.Chrom != clone.Chrom {
					return clone.Chrom < c.Chrom
				}
				return c.Ranges[0].Start >= clone.Ranges[0].Start
			}) + i + 1

			ts = append(ts, nil)
			copy(ts[k+1:], ts[k:])
			ts[k] = &clone
		}
		i++
	}

	out := ts[:0]
	for _, t := range ts {
		if !t.Ranges[0].Empty() {
			out = append(out, t)
		}
	}
	return out
}

// FilterOutExons replaces each transcript's single scoring range with
// the exon-complement intervals intersected with that range — i.e.
// scoring only the intronic and UTR regions of the transcript. Order
// is preserved ascending and non-overlapping. Used by the SL pipeline
// only.
func FilterOutExons(ts []*Transcript) {
	for _, t := range ts {
		if len(t.Ranges) == 0 {
			continue
		}
		r := t.Ranges[0]
		if r.Empty() {
			continue
		}

		sv, err := step.New(int(r.Start), int(r.End), exonMark(false))
		if err != nil {
			continue
		}
		for _, e := range t.Exons {
			er := e.Range
			if er.Start < r.Start {
				er.Start = r.Start
			}
			if er.End > r.End {
				er.End = r.End
			}
			if er.Empty() {
				continue
			}
			_ = sv.ApplyRange(int(er.Start), int(er.End), func(step.Equaler) step.Equaler {
				return exonMark(true)
			})
		}

		var ranges []Range
		sv.Do(func(start, end int, e step.Equaler) {
			if !bool(e.(exonMark)) {
				ranges = append(ranges, Range{Start: uint32(start), End: uint32(end)})
			}
		})
		t.Ranges = ranges
	}
}

// exonMark is a step.Equaler marking whether a base is covered by an
// exon, used to carve the intron+UTR complement out of a transcript's
// scoring range.
type exonMark bool

func (m exonMark) Equal(e step.Equaler) bool { return bool(m) == bool(e.(exonMark)) }
