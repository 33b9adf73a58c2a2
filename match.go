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
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/awohns/tsinfer/internal/store"
)

// matchCmd implements "tsinfer match": load a reference panel and
// thread one or more of its haplotypes (by index) against a prefix of
// the same panel, reporting the copying path and mutation list for
// each. Indices are processed by a fixed-size worker pool, the same
// throttle pattern slice-numpy.go uses to bound concurrent CPU-heavy
// work; each worker gets its own Threader since a Threader's
// traceback matrix is not safe for concurrent Run calls.
type matchCmd struct{}

type matchResult struct {
	HaplotypeIndex uint32   `json:"haplotype_index"`
	Path           []uint32 `json:"path"`
	Mutations      []uint32 `json:"mutations"`
}

func (cmd *matchCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	panelFilename := flags.String("panel", "", "reference panel `file` (.gob.gz, as written by \"tsinfer build-panel\")")
	haplotypeIndex := flags.Uint("haplotype-index", 0, "panel row to thread (ignored if -all is set)")
	all := flags.Bool("all", false, "thread every haplotype in the panel instead of just -haplotype-index")
	rho := flags.Float64("rho", 1e-8, "recombination rate per base pair")
	eps := flags.Float64("eps", 1e-8, "per-site mutation/error probability")
	panelSize := flags.Uint("panel-size", 0, "number of panel haplotypes to copy from (0 means use the whole panel)")
	threads := flags.Int("threads", runtime.GOMAXPROCS(0), "number of haplotypes to thread concurrently")
	if err = flags.Parse(args); err == flag.ErrHelp {
		return 0
	} else if err != nil {
		return 2
	}
	if *panelFilename == "" {
		err = fmt.Errorf("match: -panel is required")
		return 2
	}

	pf, err := os.Open(*panelFilename)
	if err != nil {
		return 1
	}
	defer pf.Close()
	sp, err := store.ReadPanel(pf)
	if err != nil {
		return 1
	}
	panel, err := NewReferencePanel(sp.NumSamples, sp.NumSites, sp.Haplotypes, sp.Positions, sp.SequenceLength)
	if err != nil {
		return 1
	}

	effectivePanelSize := uint32(*panelSize)
	if effectivePanelSize == 0 {
		effectivePanelSize = panel.NumHaplotypes()
	}

	var indices []uint32
	if *all {
		for h := uint32(0); h < panel.NumHaplotypes(); h++ {
			indices = append(indices, h)
		}
	} else {
		indices = []uint32{uint32(*haplotypeIndex)}
	}

	results := make([]matchResult, len(indices))
	work := throttle{Max: *threads}
	var mtx sync.Mutex
	var firstErr error
	for i, h := range indices {
		i, h := i, h
		work.Acquire()
		go func() {
			defer work.Release()
			t := NewThreader(panel)
			path := make([]uint32, panel.NumSites())
			mutations, rerr := t.Run(h, effectivePanelSize, *rho, *eps, path)
			if rerr != nil {
				mtx.Lock()
				if firstErr == nil {
					firstErr = rerr
				}
				mtx.Unlock()
				return
			}
			results[i] = matchResult{HaplotypeIndex: h, Path: path, Mutations: mutations}
		}()
	}
	work.Wait()
	if firstErr != nil {
		err = firstErr
		return 1
	}

	bw := bufio.NewWriter(stdout)
	enc := json.NewEncoder(bw)
	for _, r := range results {
		if err = enc.Encode(r); err != nil {
			return 1
		}
	}
	if err = bw.Flush(); err != nil {
		return 1
	}
	log.WithFields(log.Fields{"haplotypes": len(indices), "panel_size": effectivePanelSize}).Info("tsinfer: match complete")
	return 0
}
