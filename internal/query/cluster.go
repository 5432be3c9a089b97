// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"sort"

	"github.com/nki-avl/screenkit/internal/querycache"
)

// distanceMap is a packed upper-triangular pairwise distance store
// (the original's distance_map), avoiding an N×N matrix allocation for
// what is a symmetric, zero-diagonal table.
type distanceMap struct {
	dim int
	d   []float64
}

func newDistanceMap(dim int) *distanceMap {
	return &distanceMap{dim: dim, d: make([]float64, dim*(dim+1)/2)}
}

func (m *distanceMap) index(a, b int) int {
	if a > b {
		a, b = b, a
	}
	return b + a*m.dim - a*(a+1)/2
}

func (m *distanceMap) at(a, b int) float64 {
	if a == b {
		return 0
	}
	return m.d[m.index(a, b)]
}

func (m *distanceMap) set(a, b int, v float64) {
	if a == b {
		return
	}
	m.d[m.index(a, b)] = v
}

// Cluster is one DBSCAN-found group of genes (§4.10's find_clusters).
type Cluster struct {
	Genes   []string
	Overlap float64 // 1 - overlapCount/screenCount; clusters are sorted ascending by this
}

// primaryDistance combines, across every IP/PA screen in c, whether
// genes a and b are both significant there and call the same signed
// effect (mi on the same side of 1): an agreeing screen counts toward
// a lower distance, a screen where only one of the two is significant
// is a mismatch penalty, and a screen where neither is significant
// contributes a smaller missing-data penalty. The sum is scaled by the
// screen count so distances stay comparable across caches with
// different numbers of screens.
func primaryDistance(c *querycache.Cache, pvCutOff float64, a, b int) float64 {
	var matches, mismatches, missing int
	for _, s := range c.Screens {
		rows, ok := c.IPPoints(s)
		if !ok {
			missing++
			continue
		}
		pa, pb := rows[a], rows[b]
		sigA := pa.FCPV <= pvCutOff && pa.Low+pa.High > 0
		sigB := pb.FCPV <= pvCutOff && pb.Low+pb.High > 0
		switch {
		case sigA && sigB && sameSign(pa.MI, pb.MI):
			matches++
		case sigA != sigB:
			mismatches++
		default:
			missing++
		}
	}
	total := float64(len(c.Screens))
	if total == 0 {
		return 1
	}
	penalty := (float64(mismatches) + 0.5*float64(missing)) / total
	return penalty * (1 - float64(matches)/total)
}

// snnDistance derives the NNs-gated shared-nearest-neighbour secondary
// distance from primary: for each gene, its NNs closest neighbours by
// primary distance are found, and the secondary distance between two
// genes is 1 minus the fraction of their neighbour sets that overlap.
func snnDistance(primary *distanceMap, dim, nns int) *distanceMap {
	type nd struct {
		idx int
		d   float64
	}
	neighbors := make([][]int, dim)
	for i := 0; i < dim; i++ {
		nds := make([]nd, 0, dim-1)
		for j := 0; j < dim; j++ {
			if j == i {
				continue
			}
			nds = append(nds, nd{j, primary.at(i, j)})
		}
		sort.Slice(nds, func(a, b int) bool { return nds[a].d < nds[b].d })
		k := nns
		if k > len(nds) {
			k = len(nds)
		}
		set := make([]int, k)
		for x := 0; x < k; x++ {
			set[x] = nds[x].idx
		}
		neighbors[i] = set
	}

	out := newDistanceMap(dim)
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			out.set(i, j, 1-float64(sharedCount(neighbors[i], neighbors[j]))/float64(nns))
		}
	}
	return out
}

func sharedCount(a, b []int) int {
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	n := 0
	for _, v := range b {
		if set[v] {
			n++
		}
	}
	return n
}

const (
	unvisited = -2
	noise     = -1
)

// FindClusters runs DBSCAN over the pairwise gene distance table —
// primary, or the NNs-gated secondary distance when NNs > 0 — and
// returns clusters sorted ascending by an overlap-variance score: 1 -
// overlapCount/screenCount, where overlapCount is the number of
// screens in which every member gene is individually significant
// (§4.10).
func FindClusters(c *querycache.Cache, pvCutOff float64, minPts int, eps float64, nns int) []Cluster {
	n := len(c.Transcripts)
	if n == 0 {
		return nil
	}

	primary := newDistanceMap(n)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			primary.set(a, b, primaryDistance(c, pvCutOff, a, b))
		}
	}
	dist := primary
	if nns > 0 {
		dist = snnDistance(primary, n, nns)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}
	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		seeds := regionQuery(dist, n, i, eps)
		if len(seeds) < minPts {
			labels[i] = noise
			continue
		}
		labels[i] = clusterID
		for k := 0; k < len(seeds); k++ {
			j := seeds[k]
			if labels[j] == noise {
				labels[j] = clusterID
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = clusterID
			jNeigh := regionQuery(dist, n, j, eps)
			if len(jNeigh) >= minPts {
				seeds = append(seeds, jNeigh...)
			}
		}
		clusterID++
	}

	clusters := make([]Cluster, clusterID)
	for i, lbl := range labels {
		if lbl < 0 {
			continue
		}
		clusters[lbl].Genes = append(clusters[lbl].Genes, c.Transcripts[i].GeneName)
	}
	for i := range clusters {
		clusters[i].Overlap = overlapScore(c, pvCutOff, clusters[i].Genes)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Overlap < clusters[j].Overlap })
	return clusters
}

func regionQuery(dist *distanceMap, n, i int, eps float64) []int {
	var out []int
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		if dist.at(i, j) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func overlapScore(c *querycache.Cache, pvCutOff float64, genes []string) float64 {
	if len(c.Screens) == 0 {
		return 1
	}
	idx := make([]int, 0, len(genes))
	for _, g := range genes {
		if i := geneIndex(c.Transcripts, g); i >= 0 {
			idx = append(idx, i)
		}
	}
	overlapCount := 0
	for _, s := range c.Screens {
		rows, ok := c.IPPoints(s)
		if !ok {
			continue
		}
		all := true
		for _, i := range idx {
			if rows[i].FCPV > pvCutOff {
				all = false
				break
			}
		}
		if all {
			overlapCount++
		}
	}
	return 1 - float64(overlapCount)/float64(len(c.Screens))
}
