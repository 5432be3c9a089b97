// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nki-avl/screenkit/internal/transcript"
)

func mainRefseq(args []string) {
	fs := flag.NewFlagSet("refseq", flag.ExitOnError)
	in := fs.String("in", "", "specify the annotation table file (required, \"-\" for stdin)")
	mode := fs.String("mode", "longest", "specify the transcript reduction mode: longest, collapse or longest-exon")
	cutOverlap := fs.Bool("cut-overlap", false, "specify to trim each transcript's scoring range at the nearest neighbouring gene")
	start := fs.String("start", "txStart", "specify the scoring range start expression")
	end := fs.String("end", "txEnd", "specify the scoring range end expression")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s refseq:
  $ %[1]s refseq -in <annotation.txt> [options] >out.gff

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *in == "" {
		fs.Usage()
		os.Exit(2)
	}
	m, err := parseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}

	var r *os.File
	if *in == "-" {
		r = os.Stdin
	} else {
		r, err = os.Open(*in)
		if err != nil {
			log.Fatal(err)
		}
		defer r.Close()
	}

	ts, err := transcript.LoadTranscripts(r, m, *start, *end, *cutOverlap)
	if err != nil {
		log.Fatal(err)
	}
	if err := transcript.WriteGFF(os.Stdout, ts); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d transcripts", len(ts))
}
