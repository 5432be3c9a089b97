// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// SimilarGene is one result row of find_similar: another gene's
// distance to the queried gene in log2(mutational index) space across
// c's screens, with the z-score of that distance against the
// distribution of distances to every other gene. Anti distinguishes
// the opposite-signal ("anti") comparison from the same-direction one.
type SimilarGene struct {
	Gene     string
	Distance float64
	Z        float64
	Anti     bool
}

// FindSimilar computes, for gene, its Euclidean distance in
// log2(mi) space to every other gene across c's IP/PA screens, in
// both the same-direction sense (sum (miQ-miT)^2) and the anti sense
// (sum (miQ+miT)^2); only screens where both the queried and the
// compared gene clear pvCutOff contribute a term. Each distance is z-scored against the
// distribution of all genes' distances of the same sense; results
// with distance below the mean and |z| >= zCutOff are returned, sorted
// ascending by distance (§4.10's find_similar).
func FindSimilar(c *querycache.Cache, gene string, pvCutOff, zCutOff float64) []SimilarGene {
	qi := geneIndex(c.Transcripts, gene)
	if qi < 0 {
		return nil
	}

	logMI := logMIMatrix(c, pvCutOff)
	n := len(c.Transcripts)

	same := make([]float64, n)
	anti := make([]float64, n)
	for g := 0; g < n; g++ {
		if g == qi {
			same[g] = math.Inf(1)
			anti[g] = math.Inf(1)
			continue
		}
		var sSame, sAnti float64
		any := false
		for s := range logMI {
			mq, mt := logMI[s][qi], logMI[s][g]
			if math.IsNaN(mq) || math.IsNaN(mt) {
				continue
			}
			any = true
			sSame += (mq - mt) * (mq - mt)
			sAnti += (mq + mt) * (mq + mt)
		}
		if !any {
			same[g] = math.Inf(1)
			anti[g] = math.Inf(1)
			continue
		}
		same[g] = math.Sqrt(sSame)
		anti[g] = math.Sqrt(sAnti)
	}

	out := rankDistances(c.Transcripts, same, zCutOff, false)
	out = append(out, rankDistances(c.Transcripts, anti, zCutOff, true)...)
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// logMIMatrix builds a screens×genes matrix of log2(mi), with NaN
// wherever a gene is not significant (or its row never built) in that
// screen.
func logMIMatrix(c *querycache.Cache, pvCutOff float64) [][]float64 {
	n := len(c.Transcripts)
	m := make([][]float64, len(c.Screens))
	for si, s := range c.Screens {
		row := make([]float64, n)
		for i := range row {
			row[i] = math.NaN()
		}
		if rows, ok := c.IPPoints(s); ok {
			for i, p := range rows {
				if p.FCPV <= pvCutOff && p.MI > 0 {
					row[i] = math.Log2(p.MI)
				}
			}
		}
		m[si] = row
	}
	return m
}

func rankDistances(ts []*transcript.Transcript, d []float64, zCutOff float64, anti bool) []SimilarGene {
	var finite []float64
	for _, v := range d {
		if !math.IsInf(v, 1) {
			finite = append(finite, v)
		}
	}
	if len(finite) < 2 {
		return nil
	}
	mean, sd := stat.MeanStdDev(finite, nil)
	if sd == 0 {
		return nil
	}

	var out []SimilarGene
	for i, v := range d {
		if math.IsInf(v, 1) {
			continue
		}
		z := (v - mean) / sd
		if v < mean && math.Abs(z) >= zCutOff {
			out = append(out, SimilarGene{Gene: ts[i].GeneName, Distance: v, Z: z, Anti: anti})
		}
	}
	return out
}
