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

	"github.com/nki-avl/screenkit/internal/screenstore"
)

// mainAudit lists every screen of the requested type in a store,
// streaming one manifest per line as JSON.
func mainAudit(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dir := fs.String("store", "", "specify the screen store directory (required)")
	typ := fs.String("type", "", "specify the screen type to list: IP, PA or SL (default all types)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s audit:
  $ %[1]s audit -store <dir> [-type IP|PA|SL] >manifests.jsonl

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *dir == "" {
		fs.Usage()
		os.Exit(2)
	}

	s, err := screenstore.Open(*dir)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	types := []screenstore.Type{screenstore.IP, screenstore.PA, screenstore.SL}
	if *typ != "" {
		t, err := parseScreenType(*typ)
		if err != nil {
			log.Fatal(err)
		}
		types = []screenstore.Type{t}
	}

	enc := json.NewEncoder(os.Stdout)
	for _, t := range types {
		names, err := s.Names(t)
		if err != nil {
			log.Fatal(err)
		}
		for _, name := range names {
			m, err := s.Load(name)
			if err != nil {
				log.Fatal(err)
			}
			if err := enc.Encode(m); err != nil {
				log.Fatal(err)
			}
		}
	}
}
