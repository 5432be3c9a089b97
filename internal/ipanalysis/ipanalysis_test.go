// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ipanalysis

import (
	"testing"

	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func set(vals ...uint32) map[uint32]struct{} {
	m := make(map[uint32]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

func TestDataPointsShape(t *testing.T) {
	ts := []*transcript.Transcript{
		{GeneName: "geneA"},
		{GeneName: "geneB"},
	}
	low := []align.Insertions{
		{Sense: set(1, 2, 3), AntiSense: set()},
		{Sense: set(1), AntiSense: set()},
	}
	high := []align.Insertions{
		{Sense: set(1), AntiSense: set()},
		{Sense: set(1, 2, 3, 4, 5), AntiSense: set()},
	}

	points := DataPoints(ts, low, high, Sense)
	if len(points) != 2 {
		t.Fatalf("len(points) = %d, want 2", len(points))
	}
	if points[0].Gene != "geneA" || points[1].Gene != "geneB" {
		t.Fatalf("gene names not preserved: %+v", points)
	}
	if points[0].Low != 3 || points[0].High != 1 {
		t.Fatalf("geneA counts = (%d,%d), want (3,1)", points[0].Low, points[0].High)
	}
	if points[1].Low != 1 || points[1].High != 5 {
		t.Fatalf("geneB counts = (%d,%d), want (1,5)", points[1].Low, points[1].High)
	}
	for _, p := range points {
		if p.PV < 0 || p.PV > 1 {
			t.Errorf("p-value out of range: %v", p.PV)
		}
		if p.FCPV < 0 || p.FCPV > 1 {
			t.Errorf("adjusted p-value out of range: %v", p.FCPV)
		}
	}
	// geneB is enriched toward high relative to geneA, so its
	// mutational index should exceed geneA's.
	if points[1].MI <= points[0].MI {
		t.Errorf("expected geneB MI (%v) > geneA MI (%v)", points[1].MI, points[0].MI)
	}
}

func TestMutationalIndexZeroCounts(t *testing.T) {
	mi := mutationalIndex(0, 10, 0, 10)
	if mi != 1 {
		t.Errorf("mutationalIndex with both zero and equal totals = %v, want 1 (symmetric)", mi)
	}
	mi = mutationalIndex(0, 10, 5, 10)
	if mi <= 0 {
		t.Errorf("mutationalIndex should be positive when high > low, got %v", mi)
	}
}
