// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nki-avl/screenkit/internal/ipanalysis"
	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/screenstore"
	"github.com/nki-avl/screenkit/internal/transcript"
)

func parseMode(s string) (transcript.Mode, error) {
	switch s {
	case "longest", "":
		return transcript.Longest, nil
	case "collapse":
		return transcript.Collapse, nil
	case "longest-exon":
		return transcript.LongestExon, nil
	}
	return 0, fmt.Errorf("invalid -mode %q, want longest, collapse or longest-exon", s)
}

func parseDirection(s string) (ipanalysis.Direction, error) {
	switch s {
	case "both", "":
		return ipanalysis.Both, nil
	case "sense":
		return ipanalysis.Sense, nil
	case "antisense":
		return ipanalysis.AntiSense, nil
	}
	return 0, fmt.Errorf("invalid -direction %q, want both, sense or antisense", s)
}

func parseScreenType(s string) (screenstore.Type, error) {
	switch screenstore.Type(s) {
	case screenstore.IP:
		return screenstore.IP, nil
	case screenstore.PA:
		return screenstore.PA, nil
	case screenstore.SL:
		return screenstore.SL, nil
	}
	return "", fmt.Errorf("invalid -type %q, want IP, PA or SL", s)
}

// fileAnnotationSource returns a querycache.AnnotationSource reading
// "<dir>/<assembly>.txt" annotation tables from the local filesystem,
// the simplest concrete AnnotationSource for a single-host deployment.
func fileAnnotationSource(dir string) querycache.AnnotationSource {
	return func(assembly string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, assembly+".txt"))
	}
}
