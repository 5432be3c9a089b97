// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import (
	"io"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"
)

// WriteGFF writes each transcript's scoring ranges as GFF features,
// one per Range, named after the transcript's gene, for inspection of
// the selector's output alongside the original annotation table.
func WriteGFF(w io.Writer, ts []*Transcript) error {
	enc := gff.NewWriter(w, 60, true)
	for _, t := range ts {
		strand := seq.Plus
		if t.Strand == '-' {
			strand = seq.Minus
		}
		for _, r := range t.Ranges {
			score := float64(t.Score)
			_, err := enc.Write(&gff.Feature{
				SeqName:    t.Chrom.String(),
				Source:     "screenkit",
				Feature:    "scoring_region",
				FeatStart:  int(r.Start),
				FeatEnd:    int(r.End),
				FeatScore:  &score,
				FeatStrand: strand,
				FeatFrame:  gff.NoFrame,
				FeatAttributes: gff.Attributes{{
					Tag:   "gene_id",
					Value: t.GeneName,
				}, {
					Tag:   "transcript_id",
					Value: t.Name,
				}},
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
