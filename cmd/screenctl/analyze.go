// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/screenstore"
	"github.com/nki-avl/screenkit/internal/slanalysis"
)

func mainAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	dir := fs.String("store", "", "specify the screen store directory (required)")
	annotDir := fs.String("annot", "", "specify the directory of <assembly>.txt annotation tables (required)")
	typ := fs.String("type", "IP", "specify the screen type: IP, PA or SL")
	assembly := fs.String("assembly", "", "specify the genome assembly (required)")
	trim := fs.Int("trim", 0, "specify the trim length (required)")
	mode := fs.String("mode", "longest", "specify the transcript reduction mode: longest, collapse or longest-exon")
	cutOverlap := fs.Bool("cut-overlap", false, "specify to trim each transcript's scoring range at the nearest neighbouring gene")
	start := fs.Int("start", 0, "specify the scoring range start offset from txStart")
	end := fs.Int("end", 0, "specify the scoring range end offset from txEnd")
	direction := fs.String("direction", "both", "specify the IP/PA strand filter: both, sense or antisense")
	groupSize := fs.Int("group-size", slanalysis.DefaultGroupSize, "specify the SL normalization group size")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s analyze:
  $ %[1]s analyze -store <dir> -annot <dir> -assembly <asm> -trim <n> [options]

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *dir == "" || *annotDir == "" || *assembly == "" || *trim <= 0 {
		fs.Usage()
		os.Exit(2)
	}

	st, err := parseScreenType(*typ)
	if err != nil {
		log.Fatal(err)
	}
	m, err := parseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	d, err := parseDirection(*direction)
	if err != nil {
		log.Fatal(err)
	}

	s, err := screenstore.Open(*dir)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	mgr := querycache.NewManager(s, fileAnnotationSource(*annotDir), slanalysis.DefaultCutoffs)
	c, err := mgr.Query(querycache.Params{
		ScreenType: st,
		Assembly:   *assembly,
		TrimLen:    *trim,
		Mode:       m,
		CutOverlap: *cutOverlap,
		Start:      *start,
		End:        *end,
		Direction:  d,
		GroupSize:  *groupSize,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("built %s cache: %d transcripts, %d screens: %v", st, len(c.Transcripts), len(c.Screens), c.Screens)
}
