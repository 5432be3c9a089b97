// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slanalysis

import (
	"testing"

	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func TestDivideCoversWholeRange(t *testing.T) {
	groups := Divide(1000, DefaultGroupSize)
	if len(groups) == 0 {
		t.Fatal("Divide returned no groups")
	}
	if groups[0].Begin != 0 {
		t.Fatalf("first group begin = %d, want 0", groups[0].Begin)
	}
	if groups[len(groups)-1].End != 1000 {
		t.Fatalf("last group end = %d, want 1000", groups[len(groups)-1].End)
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].Begin != groups[i-1].End {
			t.Fatalf("groups not contiguous: %+v then %+v", groups[i-1], groups[i])
		}
	}
}

func TestDivideSmallList(t *testing.T) {
	groups := Divide(3, 200)
	if len(groups) != 1 || groups[0] != (Group{0, 3}) {
		t.Fatalf("Divide(3, 200) = %+v, want single group covering all 3", groups)
	}
}

func TestDivideZero(t *testing.T) {
	if groups := Divide(0, 200); groups != nil {
		t.Fatalf("Divide(0, ...) = %+v, want nil", groups)
	}
}

func TestNormalizePreservesTotalsWhenDistributionsMatch(t *testing.T) {
	n := 60
	sample := make([]align.InsertionCount, n)
	var controls [4][]align.InsertionCount
	for k := range controls {
		controls[k] = make([]align.InsertionCount, n)
	}
	for i := range sample {
		c := align.InsertionCount{Sense: uint32(10 + i%20), AntiSense: uint32(30 - i%20)}
		sample[i] = c
		for k := range controls {
			controls[k][i] = c
		}
	}
	out := Normalize(sample, controls, 20)
	for i := range out {
		total := sample[i].Sense + sample[i].AntiSense
		if out[i].Sense+out[i].AntiSense != total {
			t.Fatalf("Normalize changed total at %d: %d != %d", i, out[i].Sense+out[i].AntiSense, total)
		}
	}
}

func TestDataPointsSmoke(t *testing.T) {
	n := 5
	ts := make([]*transcript.Transcript, n)
	for i := range ts {
		ts[i] = &transcript.Transcript{GeneName: "g"}
	}
	mk := func(s, a uint32) []align.InsertionCount {
		out := make([]align.InsertionCount, n)
		for i := range out {
			out[i] = align.InsertionCount{Sense: s, AntiSense: a}
		}
		return out
	}
	own := [][]align.InsertionCount{mk(5, 20), mk(6, 18)}
	controls := [4][]align.InsertionCount{mk(15, 15), mk(14, 16), mk(16, 14), mk(15, 15)}

	points := DataPoints(ts, own, controls, DefaultGroupSize, DefaultCutoffs)
	if len(points) != n {
		t.Fatalf("len(points) = %d, want %d", len(points), n)
	}
	for _, p := range points {
		if len(p.Replicates) != len(own) {
			t.Errorf("replicate count = %d, want %d", len(p.Replicates), len(own))
		}
		if p.SenseRatio < 0 || p.SenseRatio > 1 {
			t.Errorf("SenseRatio out of range: %v", p.SenseRatio)
		}
		if p.ControlSenseRatio < 0 || p.ControlSenseRatio > 1 {
			t.Errorf("ControlSenseRatio out of range: %v", p.ControlSenseRatio)
		}
	}
}
