// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nki-avl/screenkit/internal/query"
	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/screenstore"
	"github.com/nki-avl/screenkit/internal/slanalysis"
)

func mainQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
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

	screen := fs.String("screen", "", "specify the screen name, for data-points/uniqueness")
	gene := fs.String("gene", "", "specify the gene symbol, for find-gene/find-similar")
	ranksFile := fs.String("ranks", "", "specify a gene-rank table file, for data-points")
	pvCutoff := fs.Float64("pv-cutoff", 0.05, "specify the significance cutoff for uniqueness/find-similar/find-clusters")
	singleSided := fs.Bool("single-sided", false, "specify to restrict uniqueness to same-direction calls")
	zCutoff := fs.Float64("z-cutoff", 2, "specify the z-score cutoff for find-similar")
	minPts := fs.Int("min-pts", 2, "specify DBSCAN's minPts for find-clusters")
	eps := fs.Float64("eps", 0.5, "specify DBSCAN's epsilon for find-clusters")
	nns := fs.Int("nns", 0, "specify the shared-nearest-neighbour count for find-clusters (0 disables)")
	dot := fs.Bool("dot", false, "specify DOT output instead of JSON, for find-clusters")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s query:
  $ %[1]s query -store <dir> -annot <dir> -assembly <asm> -trim <n> <op> [options]

Where <op> (given as the first non-flag argument) is one of:
  data-points, find-gene, uniqueness, find-similar, find-clusters

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	op := fs.Arg(0)
	if *dir == "" || *annotDir == "" || *assembly == "" || *trim <= 0 || op == "" {
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

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch op {
	case "data-points":
		if *screen == "" {
			log.Fatal("query data-points: -screen is required")
		}
		var ranks query.RankTable
		if *ranksFile != "" {
			f, err := os.Open(*ranksFile)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			ranks, err = query.LoadRankTable(f)
			if err != nil {
				log.Fatal(err)
			}
		}
		if err := enc.Encode(query.DataPoints(c, *screen, ranks)); err != nil {
			log.Fatal(err)
		}
	case "find-gene":
		if *gene == "" {
			log.Fatal("query find-gene: -gene is required")
		}
		if err := enc.Encode(query.FindGene(c, *gene, nil)); err != nil {
			log.Fatal(err)
		}
	case "uniqueness":
		if *screen == "" {
			log.Fatal("query uniqueness: -screen is required")
		}
		if err := enc.Encode(query.Uniqueness(c, *screen, *pvCutoff, *singleSided, nil)); err != nil {
			log.Fatal(err)
		}
	case "find-similar":
		if *gene == "" {
			log.Fatal("query find-similar: -gene is required")
		}
		if err := enc.Encode(query.FindSimilar(c, *gene, *pvCutoff, *zCutoff)); err != nil {
			log.Fatal(err)
		}
	case "find-clusters":
		clusters := query.FindClusters(c, *pvCutoff, *minPts, *eps, *nns)
		if *dot {
			b, err := query.ClustersDOT(clusters)
			if err != nil {
				log.Fatal(err)
			}
			os.Stdout.Write(b)
			return
		}
		if err := enc.Encode(clusters); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("query: unknown operation %q", op)
	}
}
