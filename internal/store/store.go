// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package store persists ancestor descriptors and materialized
// ancestors as gzipped gob streams, the same encoding/gob +
// github.com/klauspost/pgzip combination arvados/lightning uses for
// its tile library files (see gob.go's LibraryEntry/DecodeLibrary).
package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/pgzip"
)

// Ancestor is one materialized ancestral haplotype plus the
// descriptor that produced it.
type Ancestor struct {
	Frequency  uint32
	FocalSites []uint32
	Start, End uint32
	Haplotype  []int8
}

// AncestorSet is the top-level record written to an ancestors.gob.gz
// file: the dimensions the originating Builder was constructed with,
// plus every materialized ancestor.
type AncestorSet struct {
	NumSamples uint32
	NumSites   uint32
	Ancestors  []Ancestor
}

// WriteAncestors gob-encodes set and gzips it onto w.
func WriteAncestors(w io.Writer, set *AncestorSet) error {
	zw := pgzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(set); err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	return zw.Close()
}

// ReadAncestors reads back a file written by WriteAncestors.
func ReadAncestors(r io.Reader) (*AncestorSet, error) {
	zr, err := pgzip.NewReader(bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("store: pgzip.NewReader: %w", err)
	}
	defer zr.Close()
	var set AncestorSet
	if err := gob.NewDecoder(zr).Decode(&set); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}
	return &set, nil
}

// Panel is the gob-friendly serialized form of a ReferencePanel:
// exactly the constructor arguments, so ReadPanel's result can be fed
// straight back into tsinfer.NewReferencePanel.
type Panel struct {
	NumSamples     uint32
	NumSites       uint32
	Haplotypes     []byte
	Positions      []float64
	SequenceLength float64
}

// WritePanel gob-encodes p and gzips it onto w.
func WritePanel(w io.Writer, p *Panel) error {
	zw := pgzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(p); err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	return zw.Close()
}

// ReadPanel reads back a file written by WritePanel.
func ReadPanel(r io.Reader) (*Panel, error) {
	zr, err := pgzip.NewReader(bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("store: pgzip.NewReader: %w", err)
	}
	defer zr.Close()
	var p Panel
	if err := gob.NewDecoder(zr).Decode(&p); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}
	return &p, nil
}
