// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package insertion

import (
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/nki-avl/screenkit/internal/chrom"
)

// magic tags an encoded insertion stream so Decode can reject a
// legacy flat-record file handed to it by mistake.
const magic = "SQ01"

// Encode writes ins, which need not be pre-sorted, as a bit-packed
// stream: a magic tag, the total count N as an Elias-gamma code (N+1
// to admit N == 0), then for each chromosome in chrom.All() order and
// each strand ('+' then '-') a presence bit, and when set, the run's
// length as a gamma code followed by the run's ascending positions as
// Elias-delta-coded deltas from the previous position in the run
// (the first delta taken from -1, so a position of 0 still codes as
// delta >= 1).
func Encode(w io.Writer, ins []Insertion) error {
	sorted := append([]Insertion(nil), ins...)
	SortSlice(sorted)
	sorted = Dedup(sorted)

	groups := groupByChromStrand(sorted)

	bw := &bitWriter{}
	gammaEncode(bw, uint64(len(sorted))+1)

	for _, c := range chrom.All() {
		for _, strand := range [...]byte{'+', '-'} {
			run := groups[groupKey{c, strand}]
			if len(run) == 0 {
				bw.writeBits(0, 1)
				continue
			}
			bw.writeBits(1, 1)
			gammaEncode(bw, uint64(len(run))+1)
			prev := int64(-1)
			for _, pos := range run {
				delta := int64(pos) - prev
				deltaEncode(bw, uint64(delta))
				prev = int64(pos)
			}
		}
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	_, err := w.Write(bw.flush())
	return err
}

type groupKey struct {
	c      chrom.Chromosome
	strand byte
}

func groupByChromStrand(sorted []Insertion) map[groupKey][]uint32 {
	groups := make(map[groupKey][]uint32)
	for _, v := range sorted {
		k := groupKey{v.Chrom, v.Strand}
		groups[k] = append(groups[k], v.Pos)
	}
	return groups
}

// Decode reverses Encode, reconstructing the canonically sorted
// insertion slice.
func Decode(r io.Reader) ([]Insertion, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeBytes(data)
}

func decodeBytes(data []byte) ([]Insertion, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("insertion: missing or invalid magic header")
	}
	br := newBitReader(data[len(magic):])

	total, err := gammaDecode(br)
	if err != nil {
		return nil, fmt.Errorf("insertion: decode count: %w", err)
	}
	total--

	out := make([]Insertion, 0, total)
	for _, c := range chrom.All() {
		var runs [2][]uint32
		for i := range [...]byte{'+', '-'} {
			present, err := br.readBit()
			if err != nil {
				return nil, fmt.Errorf("insertion: decode presence bit: %w", err)
			}
			if present == 0 {
				continue
			}
			n, err := gammaDecode(br)
			if err != nil {
				return nil, fmt.Errorf("insertion: decode run length: %w", err)
			}
			n--
			prev := int64(-1)
			run := make([]uint32, 0, n)
			for j := uint64(0); j < n; j++ {
				delta, err := deltaDecode(br)
				if err != nil {
					return nil, fmt.Errorf("insertion: decode delta: %w", err)
				}
				prev += int64(delta)
				run = append(run, uint32(prev))
			}
			runs[i] = run
		}
		// Each run is independently ascending; merge the + and - runs by
		// position (ties resolved + before -) to restore the original
		// (chrom, pos, strand) sort order exactly.
		plus, minus := runs[0], runs[1]
		i, j := 0, 0
		for i < len(plus) && j < len(minus) {
			if plus[i] <= minus[j] {
				out = append(out, Insertion{Chrom: c, Strand: '+', Pos: plus[i]})
				i++
			} else {
				out = append(out, Insertion{Chrom: c, Strand: '-', Pos: minus[j]})
				j++
			}
		}
		for ; i < len(plus); i++ {
			out = append(out, Insertion{Chrom: c, Strand: '+', Pos: plus[i]})
		}
		for ; j < len(minus); j++ {
			out = append(out, Insertion{Chrom: c, Strand: '-', Pos: minus[j]})
		}
	}
	if uint64(len(out)) != total {
		return nil, fmt.Errorf("insertion: decoded %d insertions, header declared %d", len(out), total)
	}
	return out, nil
}

// EncodeFile encodes ins to a new file at path.
func EncodeFile(path string, ins []Insertion) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Encode(f, ins)
}

// DecodeFile memory-maps path and decodes it in place, avoiding a full
// read of large screen insertion files into the Go heap.
func DecodeFile(path string) ([]Insertion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("insertion: mmap %s: %w", path, err)
	}
	defer m.Unmap()

	return decodeBytes([]byte(m))
}
