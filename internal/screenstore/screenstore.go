// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package screenstore implements the on-disk screen store (C8): the
// manifest, directory layout, per-assembly/per-trim insertion files,
// cache-slab naming and freshness checks, and an embedded
// modernc.org/kv registry of screen name to manifest location, the
// core's own substitute for the excluded relational schema.
package screenstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"modernc.org/kv"

	"github.com/nki-avl/screenkit/internal/errs"
	"github.com/nki-avl/screenkit/internal/insertion"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// Type identifies the three screen kinds.
type Type string

const (
	IP Type = "IP"
	PA Type = "PA"
	SL Type = "SL"
)

// MappedInfo records how one assembly's channels were mapped.
type MappedInfo struct {
	Assembly      string `json:"assembly"`
	TrimLength    int    `json:"trimLength"`
	AlignerVersion string `json:"alignerVersion,omitempty"`
	AlignerParams string `json:"alignerParams,omitempty"`
	AlignerIndex  string `json:"alignerIndex,omitempty"`
}

// File is one logical channel's original, unmapped input.
type File struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Manifest is the persisted screen descriptor (§3), including the
// richer screen_info fields from the original (detected signal,
// genotype, treatment) so an existing manifest round-trips losslessly.
type Manifest struct {
	Name             string       `json:"name"`
	Scientist        string       `json:"scientist"`
	Type             Type         `json:"type"`
	DetectedSignal   string       `json:"detectedSignal,omitempty"`
	Genotype         string       `json:"genotype,omitempty"`
	Treatment        string       `json:"treatment,omitempty"`
	TreatmentDetails string       `json:"treatmentDetails,omitempty"`
	CellLine         string       `json:"cellLine"`
	Description      string       `json:"description,omitempty"`
	Ignore           bool         `json:"ignore"`
	Created          time.Time    `json:"created"`
	Groups           []string     `json:"groups,omitempty"`
	Files            []File       `json:"files,omitempty"`
	MappedInfo       []MappedInfo `json:"mappedInfo,omitempty"`
	Status           string       `json:"status,omitempty"`
}

const manifestFile = "manifest.json"
const registryFile = "registry.kv"

// registryEntry is the value half of a registry.kv record.
type registryEntry struct {
	Type         Type   `json:"type"`
	ManifestPath string `json:"manifestPath"`
}

// compareNames is the kv.Options.Compare function for the registry: a
// plain byte-lexicographic order on the screen name key, passed to
// kv.Open(&kv.Options{Compare: fn}).
func compareNames(x, y []byte) int {
	return bytes.Compare(x, y)
}

// Store owns a directory of screens and their registry.
type Store struct {
	root string
	db   *kv.DB
}

// Open opens (creating if necessary) the screen store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New(errs.IOError, "screenstore.Open", err)
	}
	path := filepath.Join(dir, registryFile)
	opts := &kv.Options{Compare: compareNames}

	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, errs.New(errs.IOError, "screenstore.Open", err)
		}
	}
	return &Store{root: dir, db: db}, nil
}

// Close releases the registry handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) screenDir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) manifestPath(name string) string {
	return filepath.Join(s.screenDir(name), manifestFile)
}

// Create materializes a new screen directory and manifest, and
// registers the screen name. It fails if the name already exists.
func (s *Store) Create(m Manifest) error {
	if m.Name == "" {
		return errs.New(errs.InvalidInput, "screenstore.Create", fmt.Errorf("empty screen name"))
	}
	dir := s.screenDir(m.Name)
	if _, err := os.Stat(dir); err == nil {
		return errs.New(errs.InvalidInput, "screenstore.Create", fmt.Errorf("screen %q already exists", m.Name))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.IOError, "screenstore.Create", err)
	}
	if err := s.writeManifest(m); err != nil {
		return err
	}

	entry := registryEntry{Type: m.Type, ManifestPath: s.manifestPath(m.Name)}
	v, err := json.Marshal(entry)
	if err != nil {
		return errs.New(errs.IOError, "screenstore.Create", err)
	}
	if err := s.db.Set([]byte(m.Name), v); err != nil {
		return errs.New(errs.IOError, "screenstore.Create", err)
	}
	return nil
}

func (s *Store) writeManifest(m Manifest) error {
	f, err := os.Create(s.manifestPath(m.Name))
	if err != nil {
		return errs.New(errs.IOError, "screenstore.writeManifest", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return errs.New(errs.IOError, "screenstore.writeManifest", err)
	}
	return nil
}

// Load reads a screen's manifest.
func (s *Store) Load(name string) (*Manifest, error) {
	f, err := os.Open(s.manifestPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.MissingResource, "screenstore.Load", err)
		}
		return nil, errs.New(errs.IOError, "screenstore.Load", err)
	}
	defer f.Close()
	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, errs.New(errs.IOError, "screenstore.Load", err)
	}
	return &m, nil
}

// AddFile symlinks sourcePath into the screen directory under the
// given logical channel name (the extension of sourcePath is
// preserved) and records it in the manifest.
func (s *Store) AddFile(name, logicalName, sourcePath string) error {
	m, err := s.Load(name)
	if err != nil {
		return err
	}
	linkName := logicalName + filepath.Ext(sourcePath)
	linkPath := filepath.Join(s.screenDir(name), linkName)
	os.Remove(linkPath)
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return errs.New(errs.IOError, "screenstore.AddFile", err)
	}
	if err := os.Symlink(abs, linkPath); err != nil {
		return errs.New(errs.IOError, "screenstore.AddFile", err)
	}
	m.Files = append(m.Files, File{Name: logicalName, Source: abs})
	return s.writeManifest(*m)
}

// Delete removes the screen's directory entirely and drops it from
// the registry. Callers are responsible for invalidating any query
// cache entries referencing this screen (see internal/querycache).
func (s *Store) Delete(name string) error {
	if err := os.RemoveAll(s.screenDir(name)); err != nil {
		return errs.New(errs.IOError, "screenstore.Delete", err)
	}
	if err := s.db.Delete([]byte(name)); err != nil {
		return errs.New(errs.IOError, "screenstore.Delete", err)
	}
	return nil
}

// Names returns every registered screen name of type t, or every
// screen name if t is empty, in registry (lexicographic) order.
func (s *Store) Names(t Type) ([]string, error) {
	it, err := s.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errs.New(errs.IOError, "screenstore.Names", err)
	}
	var out []string
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errs.New(errs.IOError, "screenstore.Names", err)
		}
		var e registryEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return nil, errs.New(errs.IOError, "screenstore.Names", err)
		}
		if t == "" || e.Type == t {
			out = append(out, string(k))
		}
	}
	return out, nil
}

func (s *Store) assemblyDir(name, assembly string, trim int) string {
	return filepath.Join(s.screenDir(name), assembly, fmt.Sprintf("%d", trim))
}

func (s *Store) packedPath(name, assembly string, trim int, channel string) string {
	return filepath.Join(s.assemblyDir(name, assembly, trim), channel+".sq")
}

func (s *Store) legacyPath(name, assembly string, trim int, channel string) string {
	return filepath.Join(s.assemblyDir(name, assembly, trim), channel)
}

// ReadInsertions reads a screen's mapped channel file, preferring the
// packed (.sq) format and falling back to the legacy flat-record
// format when no packed file exists.
func (s *Store) ReadInsertions(name, assembly string, trim int, channel string) ([]insertion.Insertion, error) {
	packed := s.packedPath(name, assembly, trim, channel)
	if _, err := os.Stat(packed); err == nil {
		ins, err := insertion.DecodeFile(packed)
		if err != nil {
			return nil, errs.New(errs.IOError, "screenstore.ReadInsertions", err)
		}
		return ins, nil
	}

	legacy := s.legacyPath(name, assembly, trim, channel)
	f, err := os.Open(legacy)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.MissingResource, "screenstore.ReadInsertions", err)
		}
		return nil, errs.New(errs.IOError, "screenstore.ReadInsertions", err)
	}
	defer f.Close()
	ins, err := insertion.ReadLegacy(f)
	if err != nil {
		return nil, errs.New(errs.IOError, "screenstore.ReadInsertions", err)
	}
	return ins, nil
}

// WriteInsertions writes a channel's packed insertion file and removes
// any cache slabs under the same assembly/trim directory, since they
// no longer reflect the freshly mapped data.
func (s *Store) WriteInsertions(name, assembly string, trim int, channel string, ins []insertion.Insertion) error {
	dir := s.assemblyDir(name, assembly, trim)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.IOError, "screenstore.WriteInsertions", err)
	}
	if err := insertion.EncodeFile(s.packedPath(name, assembly, trim, channel), ins); err != nil {
		return errs.New(errs.IOError, "screenstore.WriteInsertions", err)
	}
	return s.clearCacheSlabs(dir)
}

func (s *Store) clearCacheSlabs(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errs.New(errs.IOError, "screenstore.clearCacheSlabs", err)
	}
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > 6 && e.Name()[:6] == "cache-" {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return errs.New(errs.IOError, "screenstore.clearCacheSlabs", err)
			}
		}
	}
	return nil
}

// CacheSlabPath returns the literal cache-slab filename for the given
// selector parameters, matching the original's get_cache_file_path:
// "cache-<mode>-<cut|no-cut>-<start>-<end>[-<direction>]". direction
// is omitted for SL caches, which have no directional axis.
func (s *Store) CacheSlabPath(name, assembly string, trim int, mode transcript.Mode, cutOverlap bool, start, end int, direction string) string {
	cut := "no-cut"
	if cutOverlap {
		cut = "cut"
	}
	base := fmt.Sprintf("cache-%s-%s-%d-%d", mode, cut, start, end)
	if direction != "" {
		base += "-" + direction
	}
	return filepath.Join(s.assemblyDir(name, assembly, trim), base)
}

// SlabFresh reports whether the slab file at path exists and its size
// exactly matches wantSize; a mismatch of any kind (missing file,
// wrong size) means the slab must be rebuilt (§4.8, §6).
func SlabFresh(path string, wantSize int64) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Size() == wantSize
}
