// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package screenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nki-avl/screenkit/internal/insertion"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	m := Manifest{
		Name:      "screen-1",
		Scientist: "J. Doe",
		Type:      IP,
		CellLine:  "HAP1",
		Created:   time.Now().Truncate(time.Second).UTC(),
	}
	if err := s.Create(m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := s.Load("screen-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != m.Name || got.Type != m.Type || got.CellLine != m.CellLine {
		t.Fatalf("Load mismatch: got %+v, want %+v", got, m)
	}

	if err := s.Create(m); err == nil {
		t.Fatal("expected error creating a duplicate screen")
	}
}

func TestNamesFiltersByType(t *testing.T) {
	s := openTestStore(t)
	s.Create(Manifest{Name: "ip-1", Type: IP})
	s.Create(Manifest{Name: "sl-1", Type: SL})
	s.Create(Manifest{Name: "ip-2", Type: IP})

	names, err := s.Names(IP)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("Names(IP) = %v, want 2 entries", names)
	}

	all, err := s.Names("")
	if err != nil {
		t.Fatalf("Names(\"\"): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Names(\"\") = %v, want 3 entries", all)
	}
}

func TestDeleteRemovesDirAndRegistryEntry(t *testing.T) {
	s := openTestStore(t)
	s.Create(Manifest{Name: "to-delete", Type: SL})
	if err := s.Delete("to-delete"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("to-delete"); err == nil {
		t.Fatal("expected Load to fail after Delete")
	}
	names, _ := s.Names("")
	for _, n := range names {
		if n == "to-delete" {
			t.Fatal("deleted screen still present in registry")
		}
	}
}

func TestWriteReadInsertionsPacked(t *testing.T) {
	s := openTestStore(t)
	s.Create(Manifest{Name: "mapped", Type: IP})

	ins := []insertion.Insertion{
		{Chrom: 1, Strand: '+', Pos: 10},
		{Chrom: 1, Strand: '-', Pos: 20},
	}
	if err := s.WriteInsertions("mapped", "hg19", 50, "low", ins); err != nil {
		t.Fatalf("WriteInsertions: %v", err)
	}
	got, err := s.ReadInsertions("mapped", "hg19", 50, "low")
	if err != nil {
		t.Fatalf("ReadInsertions: %v", err)
	}
	if len(got) != len(ins) {
		t.Fatalf("ReadInsertions returned %d records, want %d", len(got), len(ins))
	}
}

func TestCacheSlabPathAndFreshness(t *testing.T) {
	s := openTestStore(t)
	s.Create(Manifest{Name: "cached", Type: IP})
	os.MkdirAll(s.assemblyDir("cached", "hg19", 50), 0o755)

	path := s.CacheSlabPath("cached", "hg19", 50, transcript.Longest, true, 100, 200, "sense")
	want := filepath.Join(s.assemblyDir("cached", "hg19", 50), "cache-longest-cut-100-200-sense")
	if path != want {
		t.Fatalf("CacheSlabPath = %q, want %q", path, want)
	}

	if SlabFresh(path, 10) {
		t.Fatal("SlabFresh should be false for a non-existent file")
	}
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !SlabFresh(path, 10) {
		t.Fatal("SlabFresh should be true for a size-matching file")
	}
	if SlabFresh(path, 11) {
		t.Fatal("SlabFresh should be false for a size mismatch")
	}
}

func TestWriteInsertionsClearsCacheSlabs(t *testing.T) {
	s := openTestStore(t)
	s.Create(Manifest{Name: "stale", Type: IP})
	dir := s.assemblyDir("stale", "hg19", 50)
	os.MkdirAll(dir, 0o755)
	slab := filepath.Join(dir, "cache-Longest-no-cut-1-2")
	os.WriteFile(slab, []byte("x"), 0o644)

	if err := s.WriteInsertions("stale", "hg19", 50, "low", nil); err != nil {
		t.Fatalf("WriteInsertions: %v", err)
	}
	if _, err := os.Stat(slab); !os.IsNotExist(err) {
		t.Fatal("expected stale cache slab to be removed after remapping")
	}
}
