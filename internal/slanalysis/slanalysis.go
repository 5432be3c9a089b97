// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slanalysis implements the synthetic-lethal (SL) screen
// analysis (C7): group-size normalization of a replicate's sense
// ratio against the four control replicates, per-replicate binomial
// and Fisher significance tests, and the multi-replicate significance
// gate that decides which genes are called synthetic-lethal hits.
package slanalysis

import (
	"math"
	"sort"

	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/numerics"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// DefaultGroupSize is the normalization group size used by current
// screens; LegacyGroupSize matches screens processed before the group
// size became configurable.
const (
	DefaultGroupSize = 200
	LegacyGroupSize  = 500

	minCountForRatio = 20
)

// Group is one contiguous index range [Begin, End) produced by Divide.
type Group struct{ Begin, End int }

// Divide splits a sorted list of length n into roughly equal-sized
// contiguous groups, targeting groupSize members per group: it rounds
// n/groupSize to the nearest whole number of groups, then walks the
// list in floating-point-sized strides, truncating each stride to an
// integer boundary. The final group's end is forced to n to absorb
// any rounding shortfall.
func Divide(n, groupSize int) []Group {
	if n == 0 {
		return nil
	}
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}
	nrOfGroups := int(math.Round(float64(n) / float64(groupSize)))
	if nrOfGroups < 1 {
		nrOfGroups = 1
	}
	stride := float64(n) / float64(nrOfGroups)

	var groups []Group
	b := 0
	for i := stride; i < float64(n); i += stride {
		e := int(math.Floor(i))
		if e <= b {
			continue
		}
		groups = append(groups, Group{b, e})
		b = e
	}
	groups = append(groups, Group{b, n})
	groups[len(groups)-1].End = n
	return groups
}

// ratioPlus1 is the continuity-corrected sense ratio used for
// normalization: (sense+1)/(sense+antiSense+2).
func ratioPlus1(c align.InsertionCount) float64 {
	return (1 + float64(c.Sense)) / (2 + float64(c.Sense) + float64(c.AntiSense))
}

func qualifiesForRatio(c align.InsertionCount) bool {
	return c.Sense+c.AntiSense >= minCountForRatio
}

// median follows the original normalize's index convention exactly
// (screen-data.cpp:975-977): the odd-length case reads one past the
// textbook middle element (l/2+1 rather than l/2), and the even-length
// case averages l/2 and l/2+1 rather than l/2-1 and l/2. Both are
// clamped to the last valid index, since the original relies on its
// group always holding at least one more element than these offsets
// need, which only fails for groups of one or two elements.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	last := n - 1
	if n%2 == 1 {
		i := n/2 + 1
		if i > last {
			i = last
		}
		return xs[i]
	}
	i, j := n/2, n/2+1
	if j > last {
		j = last
	}
	return (xs[i] + xs[j]) / 2
}

// Normalize rescales sample's per-transcript sense/antisense counts so
// that, within groups of similar pooled-control sense ratio, the
// sample's sense ratio distribution tracks the controls'. A transcript
// only qualifies for normalization when it clears minCountForRatio in
// the sample AND in every one of the four control replicates
// individually; the reference ratio itself is drawn from the four
// controls' pooled counts.
func Normalize(sample []align.InsertionCount, controls [4][]align.InsertionCount, groupSize int) []align.InsertionCount {
	out := make([]align.InsertionCount, len(sample))
	copy(out, sample)

	type member struct {
		idx                    int
		refRatio, sampleRatio float64
	}
	var members []member
	for i := range sample {
		if !qualifiesForRatio(sample[i]) {
			continue
		}
		all := true
		var pooled align.InsertionCount
		for k := 0; k < 4; k++ {
			if !qualifiesForRatio(controls[k][i]) {
				all = false
				break
			}
			pooled.Sense += controls[k][i].Sense
			pooled.AntiSense += controls[k][i].AntiSense
		}
		if !all {
			continue
		}
		members = append(members, member{i, ratioPlus1(pooled), ratioPlus1(sample[i])})
	}
	sort.Slice(members, func(a, b int) bool { return members[a].refRatio < members[b].refRatio })

	groups := Divide(len(members), groupSize)
	for _, g := range groups {
		grp := members[g.Begin:g.End]
		if len(grp) == 0 {
			continue
		}
		refRatios := make([]float64, len(grp))
		sampleRatios := make([]float64, len(grp))
		for k, m := range grp {
			refRatios[k] = m.refRatio
			sampleRatios[k] = m.sampleRatio
		}
		sort.Float64s(refRatios)
		sampleSorted := append([]float64(nil), sampleRatios...)
		sort.Float64s(sampleSorted)
		refMedian := median(refRatios)
		sampleMedian := median(sampleSorted)

		for _, m := range grp {
			sr := m.sampleRatio
			var f float64
			switch {
			case sampleMedian <= 0:
				f = 0
			case sampleMedian >= 1:
				f = 1
			case sr < sampleMedian:
				f = refMedian * sr / sampleMedian
			default:
				f = 1 - (1-refMedian)*(1-sr)/(1-sampleMedian)
			}
			if f > 1 {
				f = 1
			}
			if f < 0 {
				f = 0
			}
			total := sample[m.idx].Sense + sample[m.idx].AntiSense
			sense := uint32(math.Round(f * float64(total)))
			out[m.idx] = align.InsertionCount{Sense: sense, AntiSense: total - sense}
		}
	}
	return out
}

// Cutoffs bundles the significance thresholds used by the
// multi-replicate gate.
type Cutoffs struct {
	PVCutoff    float64
	BinomCutoff float64
	EffectSize  float64
}

// DefaultCutoffs matches the thresholds used across existing screens.
var DefaultCutoffs = Cutoffs{PVCutoff: 0.05, BinomCutoff: 0.05, EffectSize: 2.0}

// Replicate is one data point's per-replicate test result.
type Replicate struct {
	BinomFDR                              float64
	RefPV, RefFCPV                        [4]float64
	Sense, AntiSense                      uint32
	SenseNormalized, AntiSenseNormalized  uint32
}

// DataPoint is one gene's synthetic-lethal result.
type DataPoint struct {
	Gene              string
	OddsRatio         float64
	SenseRatio        float64
	ControlBinom      float64
	ControlSenseRatio float64
	Significant       bool
	Replicates        []Replicate
}

func fisherOrNoTest(normalizedOwn, control align.InsertionCount) float64 {
	if normalizedOwn.Sense+normalizedOwn.AntiSense == 0 || control.Sense+control.AntiSense == 0 {
		return numerics.NoTest
	}
	return numerics.FisherExact2x2([2][2]int64{
		{int64(normalizedOwn.Sense), int64(normalizedOwn.AntiSense)},
		{int64(control.Sense), int64(control.AntiSense)},
	})
}

func ratioOf(sense, antiSense uint32) float64 {
	return (1 + float64(sense)) / (2 + float64(sense) + float64(antiSense))
}

// DataPoints computes one DataPoint per transcript. own holds each of
// the screen's own replicates' raw per-transcript counts (as produced
// by align.Count); controls holds the four fixed control replicates'
// raw counts; groupSize configures Normalize (see DefaultGroupSize,
// LegacyGroupSize).
//
// Each own replicate is normalized once against the four control
// replicates, binomial-tested against p=0.5, and Fisher-tested (using
// its normalized counts) against each of the four raw control
// replicates individually. A replicate qualifies when its BH-adjusted
// binomial p-value clears BinomCutoff, every one of its four raw
// Fisher p-values clears PVCutoff, and its normalized
// sense ratio is below 0.5. A gene is significant only when every one
// of the screen's replicates qualifies and the pooled raw control
// sense:antisense ratio exceeds the pooled qualifying-replicate ratio
// by at least EffectSize.
func DataPoints(ts []*transcript.Transcript, own [][]align.InsertionCount, controls [4][]align.InsertionCount, groupSize int, cutoffs Cutoffs) []DataPoint {
	n := len(ts)
	nRep := len(own)

	normalized := make([][]align.InsertionCount, nRep)
	binomPV := make([][]float64, nRep)
	refPV := make([][4][]float64, nRep)
	for r := 0; r < nRep; r++ {
		normalized[r] = Normalize(own[r], controls, groupSize)
		binomPV[r] = make([]float64, n)
		for k := 0; k < 4; k++ {
			refPV[r][k] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			c := normalized[r][i]
			total := c.Sense + c.AntiSense
			if total == 0 {
				binomPV[r][i] = numerics.NoTest
			} else {
				pv, err := numerics.BinomTest(int64(c.Sense), int64(total), 0.5)
				if err != nil {
					pv = numerics.NoTest
				}
				binomPV[r][i] = pv
			}
			for k := 0; k < 4; k++ {
				refPV[r][k][i] = fisherOrNoTest(c, controls[k][i])
			}
		}
	}

	binomFDR := make([][]float64, nRep)
	refFCPV := make([][4][]float64, nRep)
	for r := 0; r < nRep; r++ {
		binomFDR[r] = numerics.AdjustBH(binomPV[r])
		for k := 0; k < 4; k++ {
			refFCPV[r][k] = numerics.AdjustBH(refPV[r][k])
		}
	}

	points := make([]DataPoint, n)
	for i, t := range ts {
		dp := DataPoint{Gene: t.GeneName}
		dp.Replicates = make([]Replicate, nRep)

		var sG, aG float64
		qualifying := 0
		for r := 0; r < nRep; r++ {
			rep := Replicate{
				BinomFDR:            binomFDR[r][i],
				Sense:               own[r][i].Sense,
				AntiSense:           own[r][i].AntiSense,
				SenseNormalized:     normalized[r][i].Sense,
				AntiSenseNormalized: normalized[r][i].AntiSense,
			}
			for k := 0; k < 4; k++ {
				rep.RefPV[k] = refPV[r][k][i]
				rep.RefFCPV[k] = refFCPV[r][k][i]
			}
			dp.Replicates[r] = rep

			ratio := ratioOf(rep.SenseNormalized, rep.AntiSenseNormalized)
			qualifies := rep.BinomFDR != numerics.NoTest && rep.BinomFDR <= cutoffs.BinomCutoff && ratio < 0.5
			for k := 0; k < 4 && qualifies; k++ {
				if rep.RefPV[k] == numerics.NoTest || rep.RefPV[k] > cutoffs.PVCutoff {
					qualifies = false
				}
			}
			if qualifies {
				qualifying++
				sG += float64(rep.SenseNormalized)
				aG += float64(rep.AntiSenseNormalized)
			}
		}

		var sWT, aWT float64
		for k := 0; k < 4; k++ {
			sWT += float64(controls[k][i].Sense)
			aWT += float64(controls[k][i].AntiSense)
		}

		dp.SenseRatio = ratioOf(uint32(sG), uint32(aG))
		dp.ControlSenseRatio = ratioOf(uint32(sWT), uint32(aWT))
		if aG > 0 && aWT > 0 {
			dp.OddsRatio = (sWT / aWT) / (sG / aG)
		}
		if nRep > 0 {
			dp.ControlBinom = binomFDR[0][i]
		}
		if nRep > 0 && qualifying == nRep && aG > 0 {
			dp.Significant = aWT > 0 && (sWT/aWT) >= cutoffs.EffectSize*(sG/aG)
		}
		points[i] = dp
	}
	return points
}
