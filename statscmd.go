// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/awohns/tsinfer/internal/store"
)

// statsCmd implements "tsinfer stats": summarize an ancestors.gob.gz
// file's age/frequency distribution as a JSON document, grounded on
// stats.go's "decode the gob, build a small JSON summary struct,
// encode it to output" pattern.
type statsCmd struct {
	debugFrequencies bool
}

// nopCloser adapts an io.Writer (such as stdout) to io.WriteCloser
// with a Close that does nothing.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (cmd *statsCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "-", "input `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	flags.BoolVar(&cmd.debugFrequencies, "debug-frequencies", false, "include the full per-ancestor frequency list")
	if err = flags.Parse(args); err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}

	var input io.ReadCloser
	if *inputFilename == "-" {
		input = io.NopCloser(stdin)
	} else {
		input, err = os.Open(*inputFilename)
		if err != nil {
			return 1
		}
		defer input.Close()
	}
	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			return 1
		}
		defer output.Close()
	}

	bufw := bufio.NewWriter(output)
	if err = cmd.doStats(input, bufw); err != nil {
		return 1
	}
	if err = bufw.Flush(); err != nil {
		return 1
	}
	if err = output.Close(); err != nil {
		return 1
	}
	return 0
}

func (cmd *statsCmd) doStats(input io.Reader, output io.Writer) error {
	set, err := store.ReadAncestors(input)
	if err != nil {
		return err
	}

	var ret struct {
		NumSamples         uint32
		NumSites           uint32
		NumAncestors       int
		FrequencyHistogram []int  // index = frequency, value = count of ancestors at that frequency
		MeanSpan           float64
		Frequencies        []uint32 `json:",omitempty"`
	}
	ret.NumSamples = set.NumSamples
	ret.NumSites = set.NumSites
	ret.NumAncestors = len(set.Ancestors)

	var totalSpan uint64
	for _, a := range set.Ancestors {
		if need := int(a.Frequency) + 1 - len(ret.FrequencyHistogram); need > 0 {
			ret.FrequencyHistogram = append(ret.FrequencyHistogram, make([]int, need)...)
		}
		ret.FrequencyHistogram[a.Frequency]++
		totalSpan += uint64(a.End - a.Start)
		if cmd.debugFrequencies {
			ret.Frequencies = append(ret.Frequencies, a.Frequency)
		}
	}
	if len(set.Ancestors) > 0 {
		ret.MeanSpan = float64(totalSpan) / float64(len(set.Ancestors))
	}

	return json.NewEncoder(output).Encode(ret)
}
