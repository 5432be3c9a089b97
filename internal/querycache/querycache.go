// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package querycache implements the persistent, versioned query cache
// (C9): a per-(screen-type, assembly, trim-length, mode, overlap-policy,
// start, end, direction) dense matrix of analyzer results, one row per
// screen of the matching type, built by running the IP/PA or SL
// analyzer against each screen's mapped insertions and persisted to a
// per-screen cache slab so a later build with the same parameters can
// skip re-analysis. Cache lookup, installation and invalidation are
// serialized by a single mutex per §5's concurrency contract, while
// the build itself runs outside it; a returned *Cache is safe for
// concurrent read-only use by internal/query's operations.
package querycache

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"sort"
	"sync"

	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/errs"
	"github.com/nki-avl/screenkit/internal/ipanalysis"
	"github.com/nki-avl/screenkit/internal/screenstore"
	"github.com/nki-avl/screenkit/internal/slanalysis"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// Params is the query cache key (§4.9): every parameter that changes
// the shape or contents of a cached matrix. Start and End are base-pair
// offsets from the transcript's txStart/txEnd, the simplified form of
// §4.3's start/end grammar that the on-disk cache slab filename
// encodes (screenstore.CacheSlabPath); richer per-transcript
// start/end expressions are a load_transcripts-level concern, not a
// cache-key one.
type Params struct {
	ScreenType screenstore.Type
	Assembly   string
	TrimLen    int
	Mode       transcript.Mode
	CutOverlap bool
	Start, End int
	Direction  ipanalysis.Direction // meaningful for IP/PA only

	// Control and GroupSize are meaningful for SL only.
	Control   string
	GroupSize int
}

func (p Params) startExpr() string { return fmt.Sprintf("txStart%+d", p.Start) }
func (p Params) endExpr() string   { return fmt.Sprintf("txEnd%+d", p.End) }

func directionName(d ipanalysis.Direction) string {
	switch d {
	case ipanalysis.Sense:
		return "sense"
	case ipanalysis.AntiSense:
		return "antisense"
	default:
		return "both"
	}
}

func (p Params) slabDirection() string {
	if p.ScreenType == screenstore.SL {
		return ""
	}
	return directionName(p.Direction)
}

// AnnotationSource supplies the annotation table for an assembly, the
// input to transcript.LoadTranscripts.
type AnnotationSource func(assembly string) (io.ReadCloser, error)

// Cache is one built matrix: an ordered list of screens of one type,
// the selector's transcript list for the parameters that built it, and
// one analyzer-result row per screen. A row that failed to build (a
// missing channel, an aligner that never ran) is left unfilled per
// §7's "leave that row zero-filled" policy; downstream queries skip
// unfilled rows.
type Cache struct {
	Params      Params
	Transcripts []*transcript.Transcript
	Screens     []string

	ipRows map[string]ipRow
	slRows map[string]slRow
}

type ipRow struct {
	filled bool
	points []ipanalysis.DataPoint
}

type slRow struct {
	filled bool
	points []slanalysis.DataPoint
}

// IPPoints returns screen's IP/PA row, or nil if the row never built.
func (c *Cache) IPPoints(screen string) ([]ipanalysis.DataPoint, bool) {
	r, ok := c.ipRows[screen]
	if !ok || !r.filled {
		return nil, false
	}
	return r.points, true
}

// SLPoints returns screen's SL row, or nil if the row never built.
func (c *Cache) SLPoints(screen string) ([]slanalysis.DataPoint, bool) {
	r, ok := c.slRows[screen]
	if !ok || !r.filled {
		return nil, false
	}
	return r.points, true
}

// NewCache assembles a Cache directly from already-computed rows,
// bypassing Manager.Query's store-backed build. This is the library
// surface for callers that already hold analyzer output — e.g. a
// caller restoring a snapshot, or a test — rather than a screen store
// to build from.
func NewCache(params Params, transcripts []*transcript.Transcript, screens []string) *Cache {
	return &Cache{
		Params:      params,
		Transcripts: transcripts,
		Screens:     screens,
		ipRows:      make(map[string]ipRow, len(screens)),
		slRows:      make(map[string]slRow, len(screens)),
	}
}

// SetIPRow installs screen's IP/PA row directly, for use with
// NewCache.
func (c *Cache) SetIPRow(screen string, points []ipanalysis.DataPoint) {
	c.ipRows[screen] = ipRow{filled: true, points: points}
}

// SetSLRow installs screen's SL row directly, for use with NewCache.
func (c *Cache) SetSLRow(screen string, points []slanalysis.DataPoint) {
	c.slRows[screen] = slRow{filled: true, points: points}
}

// screenSet is the set of screen names this cache was built against,
// used by IsUpToDate.
func (c *Cache) screenSet() map[string]bool {
	out := make(map[string]bool, len(c.Screens))
	for _, s := range c.Screens {
		out[s] = true
	}
	return out
}

// Manager owns the live set of built caches, keyed by Params, and
// serializes cache lookup, installation and invalidation under a
// single mutex (§5).
// Readers holding a *Cache returned by Query may run the C10 query
// operations against it concurrently without further locking: a
// Cache's fields never change after Query returns it.
type Manager struct {
	store  *screenstore.Store
	annots AnnotationSource
	cutoffs slanalysis.Cutoffs

	mu     sync.Mutex
	caches map[Params]*Cache
}

// NewManager returns a Manager backed by store, loading per-assembly
// annotation tables via annots.
func NewManager(store *screenstore.Store, annots AnnotationSource, cutoffs slanalysis.Cutoffs) *Manager {
	return &Manager{
		store:   store,
		annots:  annots,
		cutoffs: cutoffs,
		caches:  make(map[Params]*Cache),
	}
}

// Query returns the cache for p, building or rebuilding it if absent
// or stale. The concurrency contract is: Query itself always runs
// under the manager's mutex for the lookup/freshness-check and for
// installing the result, but the (potentially slow) build runs
// unlocked so a build in progress does not block unrelated cache
// reads or invalidations.
func (m *Manager) Query(p Params) (*Cache, error) {
	m.mu.Lock()
	c, ok := m.caches[p]
	fresh := ok && m.isUpToDateLocked(c)
	m.mu.Unlock()
	if fresh {
		return c, nil
	}

	c, err := m.build(p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.caches[p] = c
	m.mu.Unlock()
	return c, nil
}

// IsUpToDate reports whether p's cache, if built, still matches the
// live set of screens of its type.
func (m *Manager) IsUpToDate(p Params) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caches[p]
	if !ok {
		return false
	}
	return m.isUpToDateLocked(c)
}

func (m *Manager) isUpToDateLocked(c *Cache) bool {
	names, err := m.store.Names(c.Params.ScreenType)
	if err != nil {
		return false
	}
	sort.Strings(names)
	if len(names) != len(c.Screens) {
		return false
	}
	want := c.screenSet()
	for _, n := range names {
		if !want[n] {
			return false
		}
	}
	return true
}

// Invalidate drops every cache whose screen set contains name,
// matching §3's "a screen-mapping event invalidates every cache entry
// whose screens contain the mapped name" rule. Neither the screen
// store nor the job queue calls it; the caller that maps or deletes a
// screen does.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, c := range m.caches {
		if c.screenSet()[name] {
			delete(m.caches, p)
		}
	}
}

func (m *Manager) build(p Params) (*Cache, error) {
	r, err := m.annots(p.Assembly)
	if err != nil {
		return nil, errs.New(errs.MissingResource, "querycache.build", err)
	}
	defer r.Close()

	ts, err := transcript.LoadTranscripts(r, p.Mode, p.startExpr(), p.endExpr(), p.CutOverlap)
	if err != nil {
		return nil, err
	}
	if p.ScreenType == screenstore.SL {
		transcript.FilterOutExons(ts)
	}

	names, err := m.store.Names(p.ScreenType)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	c := &Cache{Params: p, Transcripts: ts, Screens: names}

	type result struct {
		name string
		ip   ipRow
		sl   slRow
	}
	results := make([]result, len(names))

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, name string) {
			defer wg.Done()
			defer func() { <-sem }()
			switch p.ScreenType {
			case screenstore.SL:
				row, err := m.buildSLRow(p, name, ts)
				if err != nil {
					log.Printf("querycache: screen %q: %v", name, err)
				}
				results[i] = result{name: name, sl: row}
			default:
				row, err := m.buildIPRow(p, name, ts)
				if err != nil {
					log.Printf("querycache: screen %q: %v", name, err)
				}
				results[i] = result{name: name, ip: row}
			}
		}(i, name)
	}
	wg.Wait()

	c.ipRows = make(map[string]ipRow, len(names))
	c.slRows = make(map[string]slRow, len(names))
	for _, r := range results {
		c.ipRows[r.name] = r.ip
		c.slRows[r.name] = r.sl
	}
	return c, nil
}

func (m *Manager) buildIPRow(p Params, screen string, ts []*transcript.Transcript) (ipRow, error) {
	slabPath := m.store.CacheSlabPath(screen, p.Assembly, p.TrimLen, p.Mode, p.CutOverlap, p.Start, p.End, p.slabDirection())
	wantSize := int64(len(ts)) * ipSlabEntrySize
	if screenstore.SlabFresh(slabPath, wantSize) {
		points, err := readIPSlab(slabPath, ts)
		if err == nil {
			return ipRow{filled: true, points: points}, nil
		}
		log.Printf("querycache: stale or unreadable slab %s: %v", slabPath, err)
	}

	low, err := m.store.ReadInsertions(screen, p.Assembly, p.TrimLen, "low")
	if err != nil {
		return ipRow{}, err
	}
	high, err := m.store.ReadInsertions(screen, p.Assembly, p.TrimLen, "high")
	if err != nil {
		return ipRow{}, err
	}

	lowAssign := align.Assign(low, ts)
	highAssign := align.Assign(high, ts)
	points := ipanalysis.DataPoints(ts, lowAssign, highAssign, p.Direction)

	if err := writeIPSlab(slabPath, points); err != nil {
		log.Printf("querycache: failed to persist slab %s: %v", slabPath, err)
	}
	return ipRow{filled: true, points: points}, nil
}

func (m *Manager) buildSLRow(p Params, screen string, ts []*transcript.Transcript) (slRow, error) {
	slabPath := m.store.CacheSlabPath(screen, p.Assembly, p.TrimLen, p.Mode, p.CutOverlap, p.Start, p.End, "")
	wantSize := int64(len(ts)) * slSlabEntrySize
	if screenstore.SlabFresh(slabPath, wantSize) {
		points, err := readSLSlab(slabPath, ts)
		if err == nil {
			return slRow{filled: true, points: points}, nil
		}
		log.Printf("querycache: stale or unreadable slab %s: %v", slabPath, err)
	}

	own := make([][]align.InsertionCount, 4)
	anyOwn := false
	for r := 0; r < 4; r++ {
		ins, err := m.store.ReadInsertions(screen, p.Assembly, p.TrimLen, fmt.Sprintf("replicate-%d", r+1))
		if err != nil {
			if !errs.Is(err, errs.MissingResource) {
				return slRow{}, err
			}
			own[r] = make([]align.InsertionCount, len(ts))
			continue
		}
		anyOwn = true
		own[r] = align.Count(ins, ts)
	}
	if !anyOwn {
		return slRow{}, errs.New(errs.MissingResource, "querycache.buildSLRow", fmt.Errorf("screen %q has no replicate channels", screen))
	}

	var controls [4][]align.InsertionCount
	for r := 0; r < 4; r++ {
		ins, err := m.store.ReadInsertions(p.Control, p.Assembly, p.TrimLen, fmt.Sprintf("replicate-%d", r+1))
		if err != nil {
			return slRow{}, fmt.Errorf("querycache: control screen %q: %w", p.Control, err)
		}
		controls[r] = align.Count(ins, ts)
	}

	groupSize := p.GroupSize
	if groupSize <= 0 {
		groupSize = slanalysis.DefaultGroupSize
	}
	points := slanalysis.DataPoints(ts, own, controls, groupSize, m.cutoffs)

	if err := writeSLSlab(slabPath, points); err != nil {
		log.Printf("querycache: failed to persist slab %s: %v", slabPath, err)
	}
	return slRow{filled: true, points: points}, nil
}
