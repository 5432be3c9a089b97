// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"bufio"
	"strings"
	"testing"

	"github.com/nki-avl/screenkit/internal/chrom"
	"github.com/nki-avl/screenkit/internal/insertion"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func mkTranscript(c chrom.Chromosome, strand byte, start, end uint32) *transcript.Transcript {
	t := &transcript.Transcript{Chrom: c, Strand: strand}
	t.TX = transcript.Range{Start: start, End: end}
	t.Ranges = []transcript.Range{t.TX}
	return t
}

func TestParseLine(t *testing.T) {
	ins, err := ParseLine("read1\t+\tchr1\t1000\tAAAA")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	want := insertion.Insertion{Chrom: chrom.Chr1, Strand: '+', Pos: 1000}
	if ins != want {
		t.Fatalf("ParseLine = %+v, want %+v", ins, want)
	}

	if _, err := ParseLine("read1\tZ\tchr1\t1000"); err == nil {
		t.Fatal("expected error on invalid strand")
	}
	if _, err := ParseLine("read1\t+\tchrZZ\t1000"); err == nil {
		t.Fatal("expected error on invalid chromosome")
	}
	if _, err := ParseLine("read1\t+\tchr1\tnotanumber"); err == nil {
		t.Fatal("expected error on invalid position")
	}
}

func TestParseStream(t *testing.T) {
	r := bufio.NewScanner(strings.NewReader("a\t+\tchr1\t10\nb\t-\tchr2\t20\n"))
	got, err := ParseStream(r)
	if err != nil {
		t.Fatalf("ParseStream: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ParseStream returned %d records, want 2", len(got))
	}
}

func TestAssignSenseAntisense(t *testing.T) {
	ts := []*transcript.Transcript{
		mkTranscript(chrom.Chr1, '+', 100, 200),
		mkTranscript(chrom.Chr1, '-', 300, 400),
	}
	ins := []insertion.Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 150},
		{Chrom: chrom.Chr1, Strand: '-', Pos: 150},
		{Chrom: chrom.Chr1, Strand: '-', Pos: 350},
	}
	result := Assign(ins, ts)

	if _, ok := result[0].Sense[150]; !ok {
		t.Error("expected 150 in transcript 0 sense set")
	}
	if _, ok := result[0].AntiSense[150]; !ok {
		t.Error("expected 150 in transcript 0 antisense set")
	}
	if _, ok := result[1].Sense[350]; !ok {
		t.Error("expected 350 in transcript 1 sense set (minus strand read on minus transcript)")
	}
}

func TestAssignOverlappingTranscripts(t *testing.T) {
	// A=[100,500)+ fully contains B=[480,490)+. A sorts first since it
	// starts earlier; an alignment inside both must still be tested
	// against A even though B starts closer to pos.
	ts := []*transcript.Transcript{
		mkTranscript(chrom.Chr1, '+', 100, 500),
		mkTranscript(chrom.Chr1, '+', 480, 490),
	}
	ins := []insertion.Insertion{{Chrom: chrom.Chr1, Strand: '+', Pos: 485}}
	result := Assign(ins, ts)

	if _, ok := result[0].Sense[485]; !ok {
		t.Error("expected 485 in transcript A's sense set despite B starting later")
	}
	if _, ok := result[1].Sense[485]; !ok {
		t.Error("expected 485 in transcript B's sense set")
	}
}

func TestAssignOutOfRange(t *testing.T) {
	ts := []*transcript.Transcript{mkTranscript(chrom.Chr1, '+', 100, 200)}
	ins := []insertion.Insertion{{Chrom: chrom.Chr1, Strand: '+', Pos: 5000}}
	result := Assign(ins, ts)
	if len(result[0].Sense) != 0 || len(result[0].AntiSense) != 0 {
		t.Fatal("insertion outside every transcript range must not be assigned")
	}
}

func TestCountDedupsAndTallies(t *testing.T) {
	ts := []*transcript.Transcript{mkTranscript(chrom.Chr1, '+', 100, 200)}
	ins := []insertion.Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 150},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 150}, // duplicate read, collapses to one
		{Chrom: chrom.Chr1, Strand: '-', Pos: 160},
	}
	result := Count(ins, ts)
	if result[0].Sense != 1 {
		t.Errorf("Sense = %d, want 1 after dedup", result[0].Sense)
	}
	if result[0].AntiSense != 1 {
		t.Errorf("AntiSense = %d, want 1", result[0].AntiSense)
	}
}

func TestAssignEmptyTranscriptList(t *testing.T) {
	result := Assign(nil, nil)
	if len(result) != 0 {
		t.Fatalf("Assign with no transcripts must return an empty result, got %d", len(result))
	}
}
