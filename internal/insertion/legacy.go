// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package insertion

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// legacyRecordSize is the width of one flat legacy record: chrom
// (int8), strand (byte), two bytes of padding to bring pos to a
// 4-byte boundary, and pos (uint32).
const legacyRecordSize = 8

var legacyOrder = binary.BigEndian

// ReadLegacy reads a pre-C4 flat insertion file: a packed array of
// 8-byte records with no header, each (chrom:i8, strand:char, pad:u16,
// pos:u32). It does not require or assume sorted input.
func ReadLegacy(r io.Reader) ([]Insertion, error) {
	var out []Insertion
	var buf [legacyRecordSize]byte
	for {
		_, err := io.ReadFull(r, buf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("insertion: read legacy record: %w", err)
		}
		c := chrom.Chromosome(int8(buf[0]))
		strand := buf[1]
		pos := legacyOrder.Uint32(buf[4:8])
		out = append(out, Insertion{Chrom: c, Strand: strand, Pos: pos})
	}
	return out, nil
}

// WriteLegacy writes ins in flat 8-byte-record form, in the order
// given; callers that want the canonical sort order should call
// SortSlice first.
func WriteLegacy(w io.Writer, ins []Insertion) error {
	var buf [legacyRecordSize]byte
	for _, v := range ins {
		buf[0] = byte(int8(v.Chrom))
		buf[1] = v.Strand
		buf[2] = 0
		buf[3] = 0
		legacyOrder.PutUint32(buf[4:8], v.Pos)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}
