// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ipanalysis implements the IP/PA two-population analysis (C6):
// per-transcript Fisher's exact test and mutational index between a
// "low" and a "high" population's insertion counts, with
// Benjamini-Hochberg FDR correction across all transcripts.
package ipanalysis

import (
	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/numerics"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// Direction selects which side of a transcript's insertion set (sense,
// antisense, or both combined) a population count is drawn from.
type Direction int

const (
	Sense Direction = iota
	AntiSense
	Both
)

// DataPoint is one gene's row of the IP/PA result table.
type DataPoint struct {
	Gene       string
	PV, FCPV   float64
	MI         float64
	Low, High  int64
}

// count returns the number of positions counted for t under dir.
func count(ins align.Insertions, dir Direction) int64 {
	switch dir {
	case Sense:
		return int64(len(ins.Sense))
	case AntiSense:
		return int64(len(ins.AntiSense))
	default:
		return int64(len(ins.Sense) + len(ins.AntiSense))
	}
}

// DataPoints computes one DataPoint per transcript from the low and
// high population's per-transcript insertion assignments (as produced
// by align.Assign), matching the total-margin Fisher test and
// mutational index used throughout the IP/PA screen types.
//
// The mutational index uses a continuity adjustment on both sides: the
// observed count is floored at 1 in the numerator, and when the
// observed count is exactly zero the remaining-population denominator
// is reduced by one, keeping the index finite and nonzero without
// otherwise perturbing it.
func DataPoints(ts []*transcript.Transcript, low, high []align.Insertions, dir Direction) []DataPoint {
	n := len(ts)
	lowCounts := make([]int64, n)
	highCounts := make([]int64, n)

	var totalLow, totalHigh int64
	for i := range ts {
		lowCounts[i] = count(low[i], dir)
		highCounts[i] = count(high[i], dir)
		totalLow += lowCounts[i]
		totalHigh += highCounts[i]
	}

	points := make([]DataPoint, n)
	pvalues := make([]float64, n)
	for i, t := range ts {
		l, h := lowCounts[i], highCounts[i]

		pv := numerics.FisherExact2x2([2][2]int64{
			{l, h},
			{totalLow - l, totalHigh - h},
		})
		pvalues[i] = pv

		points[i] = DataPoint{
			Gene: t.GeneName,
			PV:   pv,
			MI:   mutationalIndex(l, totalLow, h, totalHigh),
			Low:  l,
			High: h,
		}
	}

	fcpv := numerics.AdjustBH(pvalues)
	for i := range points {
		points[i].FCPV = fcpv[i]
	}
	return points
}

func mutationalIndex(low, totalLow, high, totalHigh int64) float64 {
	lNum := low
	if lNum < 1 {
		lNum = 1
	}
	lDen := totalLow - low
	if low == 0 {
		lDen--
	}
	hNum := high
	if hNum < 1 {
		hNum = 1
	}
	hDen := totalHigh - high
	if high == 0 {
		hDen--
	}
	if lDen <= 0 || hDen <= 0 {
		return 0
	}
	lowRatio := float64(lNum) / float64(lDen)
	highRatio := float64(hNum) / float64(hDen)
	if lowRatio == 0 {
		return 0
	}
	return highRatio / lowRatio
}
