// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/awohns/tsinfer/internal/npyio"
	"github.com/awohns/tsinfer/internal/store"
)

// buildPanelCmd implements "tsinfer build-panel": load the same
// genotype matrix + site positions build-ancestors consumes, transpose
// the matrix from build-ancestors' (site, sample) layout into the
// (haplotype, site) layout ReferencePanel requires, and write it out
// as a panel.gob.gz that "tsinfer match -panel" can read back.
type buildPanelCmd struct{}

func (cmd *buildPanelCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	matrixFilename := flags.String("i", "", "input genotype matrix `file` (.npy, int8, shape num_sites x num_samples)")
	positionsFilename := flags.String("positions", "", "input site positions `file` (.npy, float64)")
	sequenceLength := flags.Float64("sequence-length", 0, "sequence length; must exceed the last position (default: last position + 1)")
	outputFilename := flags.String("o", "panel.gob.gz", "output `file`")
	if err = flags.Parse(args); err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}
	if *matrixFilename == "" || *positionsFilename == "" {
		err = fmt.Errorf("build-panel: -i and -positions are required")
		return 2
	}

	mf, err := os.Open(*matrixFilename)
	if err != nil {
		return 1
	}
	defer mf.Close()
	gm, err := npyio.ReadGenotypeMatrix(mf)
	if err != nil {
		return 1
	}

	pf, err := os.Open(*positionsFilename)
	if err != nil {
		return 1
	}
	defer pf.Close()
	positions, err := npyio.ReadPositions(pf)
	if err != nil {
		return 1
	}
	if len(positions) != gm.NumSites {
		err = fmt.Errorf("build-panel: %d positions but %d sites in genotype matrix", len(positions), gm.NumSites)
		return 1
	}

	seqLen := *sequenceLength
	if seqLen == 0 && len(positions) > 0 {
		seqLen = positions[len(positions)-1] + 1
	}

	haplotypes := make([]byte, gm.NumSamples*gm.NumSites)
	for l, row := range gm.Genotypes {
		for s, allele := range row {
			haplotypes[s*gm.NumSites+l] = allele
		}
	}

	p := &store.Panel{
		NumSamples:     uint32(gm.NumSamples),
		NumSites:       uint32(gm.NumSites),
		Haplotypes:     haplotypes,
		Positions:      positions,
		SequenceLength: seqLen,
	}

	out, err := os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return 1
	}
	defer out.Close()
	if err = store.WritePanel(out, p); err != nil {
		return 1
	}
	if err = out.Close(); err != nil {
		return 1
	}
	log.WithFields(log.Fields{"samples": gm.NumSamples, "sites": gm.NumSites, "output": *outputFilename}).Info("tsinfer: build-panel complete")
	return 0
}
