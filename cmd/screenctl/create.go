// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nki-avl/screenkit/internal/screenstore"
)

func mainCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	dir := fs.String("store", "", "specify the screen store directory (required)")
	name := fs.String("name", "", "specify the new screen's name (required)")
	typ := fs.String("type", "", "specify the screen type: IP, PA or SL (required)")
	scientist := fs.String("scientist", "", "specify the submitting scientist")
	cellLine := fs.String("cellline", "", "specify the cell line")
	description := fs.String("description", "", "specify a free text description")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `Usage of %[1]s create:
  $ %[1]s create -store <dir> -name <screen> -type IP|PA|SL [options]

Options:
`, os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if *dir == "" || *name == "" || *typ == "" {
		fs.Usage()
		os.Exit(2)
	}
	st := screenstore.Type(*typ)
	switch st {
	case screenstore.IP, screenstore.PA, screenstore.SL:
	default:
		log.Fatalf("create: invalid -type %q, want IP, PA or SL", *typ)
	}

	s, err := screenstore.Open(*dir)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	m := screenstore.Manifest{
		Name:        *name,
		Scientist:   *scientist,
		Type:        st,
		CellLine:    *cellLine,
		Description: *description,
		Created:     time.Now(),
	}
	if err := s.Create(m); err != nil {
		log.Fatal(err)
	}
	log.Printf("created screen %q (%s)", *name, st)
}
