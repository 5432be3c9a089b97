// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align implements the alignment assigner (C5): parsing the
// external aligner's one-line-per-read stream, and binary-searching the
// sorted transcript list to tally each transcript's sense/antisense
// insertion positions (IP/PA) or counts (SL).
package align

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nki-avl/screenkit/internal/chrom"
	"github.com/nki-avl/screenkit/internal/insertion"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// ParseLine parses one alignment record: field 1 ignored, field 2 the
// strand ('+' or '-'), field 3 a "chrN"/"chrX"/"chrY" token, field 4 the
// integer position; further fields are ignored. Any violation of this
// shape is a hard error, per §4.5/§6.
func ParseLine(line string) (insertion.Insertion, error) {
	f := strings.SplitN(line, "\t", 5)
	if len(f) < 4 {
		return insertion.Insertion{}, fmt.Errorf("align: invalid alignment record: %q", line)
	}
	if len(f[1]) != 1 || (f[1][0] != '+' && f[1][0] != '-') {
		return insertion.Insertion{}, fmt.Errorf("align: invalid strand in record: %q", line)
	}
	c, ok := chrom.Parse(f[2])
	if !ok {
		return insertion.Insertion{}, fmt.Errorf("align: invalid chromosome in record: %q", line)
	}
	pos, err := strconv.ParseUint(f[3], 10, 32)
	if err != nil {
		return insertion.Insertion{}, fmt.Errorf("align: invalid position in record: %q: %w", line, err)
	}
	return insertion.Insertion{Chrom: c, Strand: f[1][0], Pos: uint32(pos)}, nil
}

// ParseStream parses every line of r as an alignment record. A line that
// fails to parse is a hard error for the whole stream, matching §6's
// "non-conforming lines raise a hard error".
func ParseStream(r *bufio.Scanner) ([]insertion.Insertion, error) {
	var out []insertion.Insertion
	for r.Scan() {
		line := r.Text()
		if line == "" {
			continue
		}
		ins, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("align: reading alignment stream: %w", err)
	}
	return out, nil
}

// Insertions is the per-transcript set of sense/antisense insertion
// positions accumulated by Assign. Using a map gives the set semantics
// §4.5 requires: a given position contributes at most once per
// (transcript, side), regardless of how many times it appears in ins.
type Insertions struct {
	Sense, AntiSense map[uint32]struct{}
}

func newInsertions() Insertions {
	return Insertions{Sense: make(map[uint32]struct{}), AntiSense: make(map[uint32]struct{})}
}

// Assign binary-searches ts (sorted by (chrom, first-range start), see
// transcript.SortByChromStart) for the first transcript of each
// insertion's chromosome and walks forward through every transcript
// whose start is at or before the insertion's position, testing every
// scoring range of each candidate transcript. Overlapping transcripts
// mean more than one candidate can start at or before pos and still
// contain it, so the walk cannot stop at the first match. ins need not
// be sorted or deduplicated; set semantics absorb duplicates
// naturally. An empty ts yields an empty result.
func Assign(ins []insertion.Insertion, ts []*transcript.Transcript) []Insertions {
	result := make([]Insertions, len(ts))
	for i := range result {
		result[i] = newInsertions()
	}
	if len(ts) == 0 {
		return result
	}

	for _, a := range ins {
		i := chromLowerBound(ts, a.Chrom)
		for i < len(ts) && ts[i].Chrom == a.Chrom && ts[i].Start() <= a.Pos {
			t := ts[i]
			for _, r := range t.Ranges {
				if a.Pos >= r.Start && a.Pos < r.End {
					if a.Strand == t.Strand {
						result[i].Sense[a.Pos] = struct{}{}
					} else {
						result[i].AntiSense[a.Pos] = struct{}{}
					}
				}
			}
			i++
		}
	}
	return result
}

// InsertionCount is the per-transcript (sense, antisense) tally used by
// the SL pipeline, where raw duplicate reads are counted rather than
// collapsed into a set.
type InsertionCount struct {
	Sense, AntiSense uint32
}

// Count performs the same binary-search-and-walk as Assign but tallies
// counts instead of set membership, after deduplicating ins by the full
// (chrom, strand, pos) tuple per §4.5's "post-pass dedup of raw
// alignments" rule. ins is sorted and deduplicated in place.
func Count(ins []insertion.Insertion, ts []*transcript.Transcript) []InsertionCount {
	insertion.SortSlice(ins)
	ins = insertion.Dedup(ins)

	result := make([]InsertionCount, len(ts))
	if len(ts) == 0 {
		return result
	}

	for _, a := range ins {
		i := chromLowerBound(ts, a.Chrom)
		for i < len(ts) && ts[i].Chrom == a.Chrom && ts[i].Start() <= a.Pos {
			t := ts[i]
			for _, r := range t.Ranges {
				if a.Pos >= r.Start && a.Pos < r.End {
					if a.Strand == t.Strand {
						result[i].Sense++
					} else {
						result[i].AntiSense++
					}
				}
			}
			i++
		}
	}
	return result
}

// chromLowerBound binary-searches for the first transcript whose
// (chrom, start) sorts at or after the start of chromosome c, i.e. the
// first transcript of c's block regardless of its start position. The
// caller then walks forward while start <= pos, so every transcript
// that starts at or before pos -- not just the last one -- is tested,
// which is required once transcripts on a chromosome overlap.
func chromLowerBound(ts []*transcript.Transcript, c chrom.Chromosome) int {
	return sort.Search(len(ts), func(i int) bool {
		return ts[i].Chrom >= c
	})
}
