// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package insertion

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nki-avl/screenkit/internal/chrom"
)

func sample() []Insertion {
	return []Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 0},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 42},
		{Chrom: chrom.Chr1, Strand: '-', Pos: 42},
		{Chrom: chrom.Chr1, Strand: '-', Pos: 100000},
		{Chrom: chrom.Chr2, Strand: '+', Pos: 7},
		{Chrom: chrom.ChrX, Strand: '-', Pos: 1},
		{Chrom: chrom.ChrY, Strand: '+', Pos: 5000000},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sample()
	SortSlice(want)

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestEncodeDecodeInterleavedStrands(t *testing.T) {
	// Regression test: within a chromosome, a '-' position can precede a
	// '+' position. Decode must merge the two strand runs by ascending
	// position rather than concatenate them.
	want := []Insertion{
		{Chrom: chrom.Chr1, Strand: '-', Pos: 10},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 20},
		{Chrom: chrom.Chr1, Strand: '-', Pos: 30},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 100},
	}
	SortSlice(want)

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestEncodeDecodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestEncodeDedupesInput(t *testing.T) {
	in := []Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 10},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 10},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("len(got) = %d, want 1 (duplicate collapsed)", len(got))
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("XXXX\x00")))
	if err == nil {
		t.Error("expected error for bad magic")
	}
}

func TestEncodeFileDecodeFile(t *testing.T) {
	want := sample()
	SortSlice(want)

	path := filepath.Join(t.TempDir(), "ins.sq")
	if err := EncodeFile(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mmap round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	want := []Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 0},
		{Chrom: chrom.ChrX, Strand: '-', Pos: 123456},
	}
	var buf bytes.Buffer
	if err := WriteLegacy(&buf, want); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != len(want)*legacyRecordSize {
		t.Errorf("encoded length = %d, want %d", buf.Len(), len(want)*legacyRecordSize)
	}
	got, err := ReadLegacy(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("legacy round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestDedup(t *testing.T) {
	in := []Insertion{
		{Chrom: chrom.Chr1, Strand: '+', Pos: 1},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 1},
		{Chrom: chrom.Chr1, Strand: '+', Pos: 2},
	}
	got := Dedup(in)
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}
