// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"github.com/nki-avl/screenkit/internal/ipanalysis"
	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/slanalysis"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// Point is one gene's data-point row. Exactly one of the IP/PA or SL
// field groups is populated, matching the cache's screen type; the
// zero value of the other group's fields is never meaningful and
// should not be read.
type Point struct {
	Gene string
	Rank *int

	// IP/PA fields.
	PV, FCPV, MI float64
	Low, High    int64

	// SL fields.
	OddsRatio, SenseRatio, ControlBinom, ControlSenseRatio float64
	Significant                                            bool
}

// DataPoints projects screen's row out of c (§4.10's data_points),
// dropping entries with no insertions at all — low=high=0 for IP/PA,
// zero total insertions across the screen's own replicates for SL —
// and attaching an
// optional rank from ranks. It returns nil if screen's row never
// built.
func DataPoints(c *querycache.Cache, screen string, ranks RankTable) []Point {
	if rows, ok := c.IPPoints(screen); ok {
		return ipDataPoints(rows, ranks)
	}
	if rows, ok := c.SLPoints(screen); ok {
		return slDataPoints(rows, ranks)
	}
	return nil
}

func ipDataPoints(rows []ipanalysis.DataPoint, ranks RankTable) []Point {
	var out []Point
	for _, r := range rows {
		if r.Low == 0 && r.High == 0 {
			continue
		}
		out = append(out, Point{
			Gene: r.Gene, Rank: ranks.rankFor(r.Gene),
			PV: r.PV, FCPV: r.FCPV, MI: r.MI, Low: r.Low, High: r.High,
		})
	}
	return out
}

func slDataPoints(rows []slanalysis.DataPoint, ranks RankTable) []Point {
	var out []Point
	for _, r := range rows {
		var total uint32
		for _, rep := range r.Replicates {
			total += rep.Sense + rep.AntiSense
		}
		if total == 0 {
			continue
		}
		out = append(out, Point{
			Gene: r.Gene, Rank: ranks.rankFor(r.Gene),
			OddsRatio: r.OddsRatio, SenseRatio: r.SenseRatio,
			ControlBinom: r.ControlBinom, ControlSenseRatio: r.ControlSenseRatio,
			Significant: r.Significant,
		})
	}
	return out
}

// GeneRow is one screen's result for a single queried gene (§4.10's
// find_gene): a (mi, fcpv, insertions) triple, with mi/fcpv read from
// the odds-ratio/control-binomial-FDR slots for SL screens.
type GeneRow struct {
	Screen     string
	MI         float64
	FCPV       float64
	Insertions int64
}

// FindGene returns one GeneRow per screen in the intersection of c's
// screens and allowed (nil allowed means every screen in c), for the
// transcript whose gene name is gene.
func FindGene(c *querycache.Cache, gene string, allowed map[string]bool) []GeneRow {
	idx := geneIndex(c.Transcripts, gene)
	if idx < 0 {
		return nil
	}
	var out []GeneRow
	for _, s := range c.Screens {
		if allowed != nil && !allowed[s] {
			continue
		}
		if rows, ok := c.IPPoints(s); ok {
			p := rows[idx]
			out = append(out, GeneRow{Screen: s, MI: p.MI, FCPV: p.FCPV, Insertions: p.Low + p.High})
			continue
		}
		if rows, ok := c.SLPoints(s); ok {
			p := rows[idx]
			var total int64
			for _, r := range p.Replicates {
				total += int64(r.Sense) + int64(r.AntiSense)
			}
			out = append(out, GeneRow{Screen: s, MI: p.OddsRatio, FCPV: p.ControlBinom, Insertions: total})
		}
	}
	return out
}

func geneIndex(ts []*transcript.Transcript, gene string) int {
	for i, t := range ts {
		if t.GeneName == gene {
			return i
		}
	}
	return -1
}

func sameSign(a, b float64) bool {
	return (a >= 1) == (b >= 1)
}
