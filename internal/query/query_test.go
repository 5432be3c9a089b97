// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"testing"

	"github.com/nki-avl/screenkit/internal/ipanalysis"
	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/screenstore"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func testCache() *querycache.Cache {
	ts := []*transcript.Transcript{
		{Name: "NM_1", GeneName: "GENEA"},
		{Name: "NM_2", GeneName: "GENEB"},
		{Name: "NM_3", GeneName: "GENEC"},
	}
	c := querycache.NewCache(querycache.Params{ScreenType: screenstore.IP}, ts, []string{"s1", "s2", "s3"})
	c.SetIPRow("s1", []ipanalysis.DataPoint{
		{Gene: "GENEA", PV: 0.01, FCPV: 0.01, MI: 4, Low: 1, High: 10},
		{Gene: "GENEB", PV: 0.5, FCPV: 0.5, MI: 1, Low: 5, High: 5},
		{Gene: "GENEC", PV: 1, FCPV: 1, MI: 0, Low: 0, High: 0},
	})
	c.SetIPRow("s2", []ipanalysis.DataPoint{
		{Gene: "GENEA", PV: 0.02, FCPV: 0.02, MI: 3.5, Low: 2, High: 15},
		{Gene: "GENEB", PV: 0.6, FCPV: 0.6, MI: 1.1, Low: 4, High: 5},
		{Gene: "GENEC", PV: 1, FCPV: 1, MI: 0, Low: 0, High: 0},
	})
	c.SetIPRow("s3", []ipanalysis.DataPoint{
		{Gene: "GENEA", PV: 0.9, FCPV: 0.9, MI: 0.9, Low: 10, High: 9},
		{Gene: "GENEB", PV: 0.4, FCPV: 0.4, MI: 1.2, Low: 3, High: 4},
		{Gene: "GENEC", PV: 1, FCPV: 1, MI: 0, Low: 0, High: 0},
	})
	return c
}

func TestDataPointsDropsEmptyRows(t *testing.T) {
	c := testCache()
	pts := DataPoints(c, "s1", nil)
	if len(pts) != 2 {
		t.Fatalf("len(pts) = %d, want 2 (GENEC has no insertions)", len(pts))
	}
	if pts[0].Gene != "GENEA" || pts[0].MI != 4 {
		t.Errorf("pts[0] = %+v, want GENEA/mi=4", pts[0])
	}
}

func TestDataPointsAttachesRank(t *testing.T) {
	c := testCache()
	ranks := RankTable{"GENEA": 1}
	pts := DataPoints(c, "s1", ranks)
	if pts[0].Rank == nil || *pts[0].Rank != 1 {
		t.Errorf("GENEA rank = %v, want 1", pts[0].Rank)
	}
	if pts[1].Rank != nil {
		t.Errorf("GENEB rank = %v, want nil", pts[1].Rank)
	}
}

func TestFindGene(t *testing.T) {
	c := testCache()
	rows := FindGene(c, "GENEA", nil)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Insertions == 0 {
			t.Errorf("screen %q: Insertions = 0, want > 0", r.Screen)
		}
	}
}

func TestFindGeneAllowedScreens(t *testing.T) {
	c := testCache()
	rows := FindGene(c, "GENEA", map[string]bool{"s1": true})
	if len(rows) != 1 || rows[0].Screen != "s1" {
		t.Fatalf("rows = %+v, want only s1", rows)
	}
}

func TestUniqueness(t *testing.T) {
	c := testCache()
	pts := Uniqueness(c, "s1", 0.05, false, nil)
	found := false
	for _, p := range pts {
		if p.Gene == "GENEA" {
			found = true
			if p.Count != 1 {
				t.Errorf("GENEA Count = %d, want 1 (also significant in s2)", p.Count)
			}
		}
	}
	if !found {
		t.Fatal("expected GENEA in uniqueness output")
	}
}

func TestFindSimilar(t *testing.T) {
	c := testCache()
	// Loose smoke test: should not panic and should only ever return
	// genes other than the query gene.
	out := FindSimilar(c, "GENEA", 0.95, 0)
	for _, r := range out {
		if r.Gene == "GENEA" {
			t.Errorf("FindSimilar returned the query gene itself")
		}
	}
}

func TestFindClustersNoPanic(t *testing.T) {
	c := testCache()
	clusters := FindClusters(c, 0.95, 1, 1.0, 0)
	for _, cl := range clusters {
		if len(cl.Genes) == 0 {
			t.Error("cluster with no genes")
		}
	}
}
