// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transcript

import "io"

// LoadTranscripts runs the full C2+C3 pipeline: parse the annotation
// table (requiring complete CDS status), assign scoring ranges from
// the start/end expressions, select one transcript per gene per mode,
// sort by (chrom, start), and optionally cut overlaps. This is the
// library's primary entry point, matching §6's load_transcripts
// contract.
func LoadTranscripts(r io.Reader, mode Mode, startExpr, endExpr string, cutOverlap bool) ([]*Transcript, error) {
	ts, err := Load(r, true)
	if err != nil && ts == nil {
		return nil, err
	}

	ts, err = AssignRanges(ts, startExpr, endExpr)
	if err != nil {
		return nil, err
	}

	ts = Select(ts, mode)

	if cutOverlap {
		ts = CutOverlap(ts)
	}

	out := ts[:0]
	for _, t := range ts {
		if len(t.Ranges) > 0 && !t.Ranges[0].Empty() {
			out = append(out, t)
		}
	}
	return out, nil
}
