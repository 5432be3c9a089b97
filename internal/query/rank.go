// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query implements the C10 query operations that read
// directly from a built querycache.Cache: per-screen data points,
// cross-screen uniqueness colouring, a single-gene finder, similar-gene
// search in log2(mutational index) space, and DBSCAN-style gene
// clustering.
package query

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nki-avl/screenkit/internal/errs"
)

// RankTable maps a gene name to an externally supplied rank, the
// gene_ranking collaborator's output in the original. A screen's
// data_points row carries the matching rank when present.
type RankTable map[string]int

// LoadRankTable parses a two-column tab-separated "gene\trank" table.
func LoadRankTable(r io.Reader) (RankTable, error) {
	out := make(RankTable)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.SplitN(line, "\t", 2)
		if len(f) != 2 {
			return nil, errs.New(errs.InvalidInput, "query.LoadRankTable", fmt.Errorf("malformed rank line: %q", line))
		}
		rank, err := strconv.Atoi(strings.TrimSpace(f[1]))
		if err != nil {
			return nil, errs.New(errs.InvalidInput, "query.LoadRankTable", err)
		}
		out[f[0]] = rank
	}
	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.IOError, "query.LoadRankTable", err)
	}
	return out, nil
}

func (t RankTable) rankFor(gene string) *int {
	if t == nil {
		return nil
	}
	if r, ok := t[gene]; ok {
		v := r
		return &v
	}
	return nil
}
