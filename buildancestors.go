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

// buildAncestorsCmd implements "tsinfer build-ancestors": load a
// genotype matrix + site positions, run the Ancestor Builder end to
// end, and write out descriptors plus every materialized ancestor.
type buildAncestorsCmd struct{}

func (cmd *buildAncestorsCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	outputFilename := flags.String("o", "ancestors.gob.gz", "output `file`")
	if err = flags.Parse(args); err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}
	if *matrixFilename == "" || *positionsFilename == "" {
		err = fmt.Errorf("build-ancestors: -i and -positions are required")
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
		err = fmt.Errorf("build-ancestors: %d positions but %d sites in genotype matrix", len(positions), gm.NumSites)
		return 1
	}

	b, err := New(uint32(gm.NumSamples), uint32(gm.NumSites))
	if err != nil {
		return 1
	}
	defer b.Free()
	if err = b.AddSitesFromMatrix(gm.Genotypes, gm.Frequencies); err != nil {
		return 1
	}
	if err = b.Finalise(); err != nil {
		return 1
	}
	descriptors, err := b.Descriptors()
	if err != nil {
		return 1
	}

	set := &store.AncestorSet{
		NumSamples: uint32(gm.NumSamples),
		NumSites:   uint32(gm.NumSites),
		Ancestors:  make([]store.Ancestor, len(descriptors)),
	}
	haplotype := make([]int8, gm.NumSites)
	for i, d := range descriptors {
		start, end, merr := b.MakeAncestor(d.FocalSites, haplotype)
		if merr != nil {
			err = merr
			return 1
		}
		set.Ancestors[i] = store.Ancestor{
			Frequency:  d.Frequency,
			FocalSites: append([]uint32(nil), d.FocalSites...),
			Start:      start,
			End:        end,
			Haplotype:  append([]int8(nil), haplotype...),
		}
	}

	out, err := os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return 1
	}
	defer out.Close()
	if err = store.WriteAncestors(out, set); err != nil {
		return 1
	}
	if err = out.Close(); err != nil {
		return 1
	}
	log.WithFields(log.Fields{"ancestors": len(set.Ancestors), "output": *outputFilename}).Info("tsinfer: build-ancestors complete")
	return 0
}
