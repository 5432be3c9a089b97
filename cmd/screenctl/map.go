// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nki-avl/screenkit/internal/align"
	"github.com/nki-avl/screenkit/internal/aligner"
	"github.com/nki-avl/screenkit/internal/screenstore"
)

func mainMap(args []string) {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	dir := fs.String("store", "", "specify the screen store directory (required)")
	name := fs.String("name", "", "specify the screen name (required)")
	assembly := fs.String("assembly", "", "specify the genome assembly (required)")
	trim := fs.Int("trim", 0, "specify the trim length applied before alignment (required)")
	channel := fs.String("channel", "", `specify the channel: "low", "high", or a replicate/control label (required)`)
	aligned := fs.String("aligned", "", "specify a file of already-aligned reads, one per line, skipping the aligner")
	fastq := fs.String("fastq", "", "specify a FASTQ file to align via the external aligner")
	index := fs.String("index", "", "specify the aligner's reference index (required with -fastq)")
	threads := fs.Int("cores", 0, "specify the maximum number of aligner threads (<=0 is use all cores)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s map:
  $ %[1]s map -store <dir> -name <screen> -assembly <asm> -trim <n> -channel <ch> -aligned <reads.tsv>
  $ %[1]s map -store <dir> -name <screen> -assembly <asm> -trim <n> -channel <ch> -fastq <reads.fq> -index <idx>

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *dir == "" || *name == "" || *assembly == "" || *trim <= 0 || *channel == "" {
		fs.Usage()
		os.Exit(2)
	}
	if (*aligned == "") == (*fastq == "") {
		log.Fatal("map: specify exactly one of -aligned or -fastq")
	}

	var sc *bufio.Scanner
	if *aligned != "" {
		f, err := os.Open(*aligned)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		sc = bufio.NewScanner(f)
	} else {
		if *index == "" {
			log.Fatal("map: -index is required with -fastq")
		}
		var buf bytes.Buffer
		opts := aligner.Options{Index: *index, Input: *fastq, TrimLen: *trim, Threads: *threads, BestMode: true}
		if err := aligner.Run(context.Background(), opts, &buf); err != nil {
			log.Fatal(err)
		}
		sc = bufio.NewScanner(&buf)
	}

	ins, err := align.ParseStream(sc)
	if err != nil {
		log.Fatal(err)
	}

	s, err := screenstore.Open(*dir)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	if err := s.WriteInsertions(*name, *assembly, *trim, *channel, ins); err != nil {
		log.Fatal(err)
	}
	log.Printf("mapped %d insertions into %s@%s trim=%d channel=%s", len(ins), *name, *assembly, *trim, *channel)
}
