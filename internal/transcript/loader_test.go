// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import (
	"strings"
	"testing"

	"github.com/nki-avl/screenkit/internal/chrom"
)

const sampleTable = "name\tchrom\tstrand\ttxStart\ttxEnd\tcdsStart\tcdsEnd\texonCount\texonStarts\texonEnds\tscore\tname2\tcdsStartStat\tcdsEndStat\texonFrames\n" +
	"NM_1\tchr1\t+\t100\t500\t150\t450\t2\t100,300,\t200,500,\t0\tFOO_BAR\tcmpl\tcmpl\t0,1,\n" +
	"NM_2\tchrUn_gl000\t+\t100\t500\t150\t450\t1\t100,\t500,\t0\tBAZ\tcmpl\tcmpl\t0,\n"

func TestLoadBasic(t *testing.T) {
	ts, err := Load(strings.NewReader(sampleTable), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 1 {
		t.Fatalf("len(ts) = %d, want 1 (non-matching chromosome dropped)", len(ts))
	}
	tr := ts[0]
	if tr.GeneName != "FOOBAR" {
		t.Errorf("GeneName = %q, want FOOBAR (underscores stripped)", tr.GeneName)
	}
	if tr.Chrom != chrom.Chr1 {
		t.Errorf("Chrom = %v, want chr1", tr.Chrom)
	}
	if tr.CDS.Stat != CDSComplete {
		t.Errorf("CDS.Stat = %v, want CDSComplete", tr.CDS.Stat)
	}
	if len(tr.Exons) != 2 || tr.Exons[0].Start != 100 || tr.Exons[1].End != 500 {
		t.Errorf("Exons = %+v, want 2 exons spanning 100-500", tr.Exons)
	}
	if tr.Ranges[0] != tr.TX {
		t.Errorf("Ranges[0] = %v, want TX %v", tr.Ranges[0], tr.TX)
	}
}

func TestParsePosGrammar(t *testing.T) {
	cases := []struct {
		expr       string
		defaultEnd bool
		base       posBase
		offset     int64
	}{
		{"cds", false, cdsStart, 0},
		{"cds", true, cdsEnd, 0},
		{"tx", false, txStart, 0},
		{"tx", true, txEnd, 0},
		{"cdsStart", true, cdsStart, 0},
		{"cdsEnd-100", false, cdsEnd, -100},
		{"txEnd+50", true, txEnd, 50},
	}
	for _, c := range cases {
		base, offset, err := parsePos(c.expr, c.defaultEnd)
		if err != nil {
			t.Errorf("parsePos(%q) error: %v", c.expr, err)
			continue
		}
		if base != c.base || offset != c.offset {
			t.Errorf("parsePos(%q, %v) = (%v, %v), want (%v, %v)", c.expr, c.defaultEnd, base, offset, c.base, c.offset)
		}
	}
}

func TestParsePosInvalid(t *testing.T) {
	if _, _, err := parsePos("bogus", false); err == nil {
		t.Error("expected error for invalid expression")
	}
}
