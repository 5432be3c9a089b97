// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// screenctl is the command line entry point for screenkit: it creates
// and inspects screens in a screen store, maps raw channels to
// insertion sites, runs the IP/PA/SL analyzers through the query
// cache, and answers the C10 query operations against the result.
// Each capability is a subcommand, dispatched from main the way the
// original's screen-analyzer main() dispatches to main_create,
// main_map, main_analyze and main_refseq.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

var subcommands = map[string]func([]string){
	"create":  mainCreate,
	"map":     mainMap,
	"analyze": mainAnalyze,
	"refseq":  mainRefseq,
	"query":   mainQuery,
	"audit":   mainAudit,
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := subcommands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "screenctl: unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	log.Println(os.Args)
	cmd(os.Args[2:])
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s <subcommand> [options]

Subcommands:
  create   register a new screen in the store
  map      map a raw channel file into the store as packed insertions
  analyze  force-build or rebuild the query cache for a parameter set
  refseq   load a transcript annotation table and print its scoring ranges as GFF
  query    run a C10 query operation against the cache
  audit    list screens and manifests held by a store

Run "%[1]s <subcommand> -h" for subcommand-specific options.
`, os.Args[0])
}
