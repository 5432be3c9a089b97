// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aligner builds and runs the external short-read aligner
// collaborator. The aligner binary itself and FASTQ decompression are
// out of scope (§1); this package only owns the command line the core
// hands it and the pipe that drains its stderr into the log,
// exactly as blast.Nucleic/blast.MakeDB build BLAST's command line and
// cmd/ins's logCapture drains BLAST's output.
package aligner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os/exec"
	"strings"
	"text/template"

	"github.com/biogo/external"

	"github.com/nki-avl/screenkit/internal/errs"
)

// Options describes one invocation of the short-read aligner: the
// reference index to align against, the FASTQ input, and the trim
// length applied before alignment. Fields follow the buildarg-tagged
// option-struct idiom blast.Nucleic/blast.MakeDB use so the command
// line is built declaratively rather than by ad hoc string
// concatenation.
type Options struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}bowtie{{end}}"`

	Index     string `buildarg:"{{.}}"`                                     // positional index path
	Input     string `buildarg:"{{.}}"`                                     // positional FASTQ path
	TrimLen   int    `buildarg:"{{if .}}-3{{split}}{{.}}{{end}}"`           // trim 3' end to this length
	Threads   int    `buildarg:"{{if .}}-p{{split}}{{.}}{{end}}"`           // -p <n>
	BestMode  bool   `buildarg:"{{if .}}--best{{end}}"`                     // --best
	Reportall bool   `buildarg:"{{if .}}-a{{end}}"`                         // -a

	// ExtraFlags is appended verbatim, split on spaces, as with
	// blast.Nucleic.ExtraFlags.
	ExtraFlags string
}

// BuildCommand constructs the exec.Cmd for running the aligner,
// following blast.Nucleic.BuildCommand's use of external.Must +
// external.Build.
func (o Options) BuildCommand(ctx context.Context) (*exec.Cmd, error) {
	if o.Index == "" {
		return nil, errs.New(errs.InvalidInput, "aligner.BuildCommand", errors.New("missing reference index"))
	}
	cl := external.Must(external.Build(o, template.FuncMap{}))
	var extra []string
	if o.ExtraFlags != "" {
		extra = strings.Split(o.ExtraFlags, " ")
	}
	return exec.CommandContext(ctx, cl[0], append(cl[1:], extra...)...), nil
}

// Run executes the aligner, draining its stderr into the log a line
// at a time via logCapture, and streams its stdout alignment records
// to w. It returns a *errs.Error with kind
// ChildProcessFailure if the aligner exits non-zero or is killed.
func Run(ctx context.Context, o Options, w io.Writer) error {
	cmd, err := o.BuildCommand(ctx)
	if err != nil {
		return err
	}
	logger := logCapture()
	defer logger.Close()
	cmd.Stderr = logger

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.New(errs.ChildProcessFailure, "aligner.Run", err)
	}
	if err := cmd.Start(); err != nil {
		return errs.New(errs.ChildProcessFailure, "aligner.Run", err)
	}
	if _, err := io.Copy(w, stdout); err != nil {
		cmd.Wait()
		return errs.New(errs.IOError, "aligner.Run", err)
	}
	if err := cmd.Wait(); err != nil {
		return errs.New(errs.ChildProcessFailure, "aligner.Run", err)
	}
	return nil
}

// logCapture returns an io.WriteCloser that pipes writes to the
// default log logger a line at a time, matching cmd/ins/main.go's
// logCapture used for draining BLAST's output.
func logCapture() io.WriteCloser {
	r, w := io.Pipe()
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if len(bytes.TrimSpace(sc.Bytes())) == 0 {
				continue
			}
			log.Printf("\t%s", sc.Bytes())
		}
		if err := sc.Err(); err != nil && err != io.EOF {
			_ = r.CloseWithError(err)
		}
	}()
	return w
}
