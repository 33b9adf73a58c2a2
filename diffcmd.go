// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/awohns/tsinfer/internal/report"
	"github.com/awohns/tsinfer/internal/store"
)

// diffCmd implements "tsinfer diff": render a human-readable diff
// between two materialized ancestors from the same ancestors.gob.gz
// file, for debugging consensus output.
type diffCmd struct{}

func (cmd *diffCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	ancestorsFilename := flags.String("a", "", "ancestors `file` (.gob.gz, from build-ancestors)")
	focal1 := flags.Int("focal1", -1, "focal site identifying the first ancestor to compare")
	focal2 := flags.Int("focal2", -1, "focal site identifying the second ancestor to compare")
	if err = flags.Parse(args); err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}
	if *ancestorsFilename == "" || *focal1 < 0 || *focal2 < 0 {
		err = fmt.Errorf("diff: -a, -focal1, and -focal2 are required")
		return 2
	}

	af, err := os.Open(*ancestorsFilename)
	if err != nil {
		return 1
	}
	defer af.Close()
	set, err := store.ReadAncestors(af)
	if err != nil {
		return 1
	}

	a, ok1 := findByFocalSite(set.Ancestors, uint32(*focal1))
	b, ok2 := findByFocalSite(set.Ancestors, uint32(*focal2))
	if !ok1 {
		err = fmt.Errorf("diff: no ancestor has focal site %d", *focal1)
		return 1
	}
	if !ok2 {
		err = fmt.Errorf("diff: no ancestor has focal site %d", *focal2)
		return 1
	}

	spans, err := report.Diff(report.Encode(a.Haplotype), report.Encode(b.Haplotype))
	if err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "ancestor@%d (frequency %d, [%d,%d)) vs ancestor@%d (frequency %d, [%d,%d)):\n",
		*focal1, a.Frequency, a.Start, a.End, *focal2, b.Frequency, b.Start, b.End)
	fmt.Fprint(stdout, report.Format(spans))
	return 0
}

func findByFocalSite(ancestors []store.Ancestor, site uint32) (store.Ancestor, bool) {
	for _, a := range ancestors {
		for _, f := range a.FocalSites {
			if f == site {
				return a, true
			}
		}
	}
	return store.Ancestor{}, false
}
