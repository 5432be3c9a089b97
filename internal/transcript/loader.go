// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// column identifies a recognized header field by its position in the
// fixed field set; unknown headers map to colIgnore.
type column int

const (
	colIgnore column = iota
	colName
	colChrom
	colStrand
	colTxStart
	colTxEnd
	colCdsStart
	colCdsEnd
	colExonCount
	colExonStarts
	colExonEnds
	colScore
	colName2
	colCdsStartStat
	colCdsEndStat
	colExonFrames
)

var headerNames = map[string]column{
	"name":         colName,
	"chrom":        colChrom,
	"strand":       colStrand,
	"txStart":      colTxStart,
	"txEnd":        colTxEnd,
	"cdsStart":     colCdsStart,
	"cdsEnd":       colCdsEnd,
	"exonCount":    colExonCount,
	"exonStarts":   colExonStarts,
	"exonEnds":     colExonEnds,
	"score":        colScore,
	"name2":        colName2,
	"cdsStartStat": colCdsStartStat,
	"cdsEndStat":   colCdsEndStat,
	"exonFrames":   colExonFrames,
}

// Load parses a tab-separated annotation table from r. The first line
// is a required header naming a subset of the recognized columns;
// unrecognized headers are silently ignored. Rows whose chrom field
// does not match chr(1..23|X|Y) are dropped without error. Parse
// failures on a single line are logged and that line is dropped.
// When completeOnly is set, rows whose CDS status is not complete are
// dropped silently.
//
// Ranges is initialized to {TX} for every returned transcript.
func Load(r io.Reader, completeOnly bool) ([]*Transcript, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("transcript: reading header: %w", err)
		}
		return nil, fmt.Errorf("transcript: empty annotation table")
	}
	header := strings.Split(sc.Text(), "\t")
	cols := make([]column, len(header))
	for i, h := range header {
		if c, ok := headerNames[h]; ok {
			cols[i] = c
		} else {
			cols[i] = colIgnore
		}
	}

	var out []*Transcript
	lineNr := 1
	for sc.Scan() {
		lineNr++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		t := &Transcript{Unique: true}
		var exonStarts, exonEnds, exonFrames []string
		ok := true
		for i, f := range fields {
			if i >= len(cols) {
				break
			}
			switch cols[i] {
			case colName:
				t.Name = f
			case colChrom:
				c, matched := chrom.Parse(f)
				if matched {
					t.Chrom = c
				}
			case colStrand:
				if len(f) > 0 {
					t.Strand = f[0]
				}
			case colTxStart:
				v, err := strconv.ParseUint(f, 10, 32)
				if err != nil {
					log.Printf("transcript: parse error at line %d: %v", lineNr, err)
					ok = false
					break
				}
				t.TX.Start = uint32(v)
			case colTxEnd:
				v, err := strconv.ParseUint(f, 10, 32)
				if err != nil {
					log.Printf("transcript: parse error at line %d: %v", lineNr, err)
					ok = false
					break
				}
				t.TX.End = uint32(v)
			case colCdsStart:
				v, err := strconv.ParseUint(f, 10, 32)
				if err != nil {
					log.Printf("transcript: parse error at line %d: %v", lineNr, err)
					ok = false
					break
				}
				t.CDS.Start = uint32(v)
			case colCdsEnd:
				v, err := strconv.ParseUint(f, 10, 32)
				if err != nil {
					log.Printf("transcript: parse error at line %d: %v", lineNr, err)
					ok = false
					break
				}
				t.CDS.End = uint32(v)
			case colExonCount:
				n, err := strconv.Atoi(f)
				if err == nil && n > 0 && n < 1<<16 {
					t.Exons = make([]Exon, n)
				}
			case colExonStarts:
				exonStarts = splitComma(f)
			case colExonEnds:
				exonEnds = splitComma(f)
			case colExonFrames:
				exonFrames = splitComma(f)
			case colScore:
				v, err := strconv.ParseFloat(f, 32)
				if err == nil {
					t.Score = float32(v)
				}
			case colName2:
				t.GeneName = stripUnderscores(f)
			case colCdsStartStat:
				if f == "cmpl" {
					t.CDS.Stat = CDSComplete
				}
			case colCdsEndStat:
				if f == "cmpl" {
					t.CDS.Stat = CDSComplete
				}
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}

		fillExons(t, exonStarts, exonEnds, exonFrames)

		if t.Chrom == chrom.Invalid {
			continue
		}
		if completeOnly && t.CDS.Stat != CDSComplete {
			continue
		}

		t.Ranges = []Range{t.TX}
		out = append(out, t)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("transcript: scanning table: %w", err)
	}
	return out, nil
}

func fillExons(t *Transcript, starts, ends, frames []string) {
	n := len(starts)
	if len(ends) > n {
		n = len(ends)
	}
	if len(frames) > n {
		n = len(frames)
	}
	if n == 0 {
		return
	}
	if len(t.Exons) < n {
		grown := make([]Exon, n)
		copy(grown, t.Exons)
		t.Exons = grown
	}
	for i := 0; i < n; i++ {
		if i < len(starts) && starts[i] != "" {
			if v, err := strconv.ParseUint(starts[i], 10, 32); err == nil {
				t.Exons[i].Start = uint32(v)
			}
		}
		if i < len(ends) && ends[i] != "" {
			if v, err := strconv.ParseUint(ends[i], 10, 32); err == nil {
				t.Exons[i].End = uint32(v)
			}
		}
		if i < len(frames) && frames[i] != "" {
			if v, err := strconv.ParseInt(frames[i], 10, 8); err == nil {
				t.Exons[i].Frame = int8(v)
			}
		}
	}
}

func splitComma(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func stripUnderscores(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	return strings.ReplaceAll(s, "_", "")
}

// posRx implements the start/end position grammar
// "(cds|tx)(Start|End)?([+-]digits)?".
var posRx = regexp.MustCompile(`^(cds|tx)(Start|End)?([+-][0-9]+)?$`)

type posBase int

const (
	txStart posBase = iota
	cdsStart
	cdsEnd
	txEnd
)

// parsePos parses a start/end expression, returning the referenced
// base coordinate and the signed offset. defaultEnd selects whether a
// bare "cds"/"tx" (no Start/End suffix) means the Start or End variant.
func parsePos(expr string, defaultEnd bool) (base posBase, offset int64, err error) {
	m := posRx.FindStringSubmatch(expr)
	if m == nil {
		return 0, 0, fmt.Errorf("transcript: invalid position specification %q", expr)
	}
	isCds := m[1] == "cds"
	suffix := m[2]
	isEnd := defaultEnd
	switch suffix {
	case "Start":
		isEnd = false
	case "End":
		isEnd = true
	}
	switch {
	case isCds && !isEnd:
		base = cdsStart
	case isCds && isEnd:
		base = cdsEnd
	case !isCds && !isEnd:
		base = txStart
	default:
		base = txEnd
	}
	if m[3] != "" {
		offset, err = strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("transcript: invalid offset in %q: %w", expr, err)
		}
	}
	return base, offset, nil
}

func baseValue(t *Transcript, b posBase) uint32 {
	switch b {
	case cdsStart:
		return t.CDS.Start
	case cdsEnd:
		return t.CDS.End
	case txEnd:
		return t.TX.End
	default:
		return t.TX.Start
	}
}
