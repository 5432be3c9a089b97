// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aligner

import (
	"context"
	"testing"
)

func TestBuildCommandRequiresIndex(t *testing.T) {
	_, err := Options{Input: "reads.fq"}.BuildCommand(context.Background())
	if err == nil {
		t.Fatal("expected error when Index is empty")
	}
}

func TestBuildCommandIncludesPositionalArgs(t *testing.T) {
	o := Options{Index: "hg19-index", Input: "reads.fq", Threads: 4}
	cmd, err := o.BuildCommand(context.Background())
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	if cmd.Path == "" {
		t.Fatal("BuildCommand produced an empty command path")
	}
	found := false
	for _, a := range cmd.Args {
		if a == "hg19-index" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected index path in args, got %v", cmd.Args)
	}
}
