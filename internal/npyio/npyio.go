// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package npyio loads and saves the genotype matrices and position
// vectors the core operates on, in NumPy's .npy format — the same
// format arvados/lightning's export-numpy and slice-numpy subcommands
// read and write via github.com/kshedden/gonpy. Converting a
// variant-call matrix into this shape is, per spec, an external
// ingestion concern; this package exists only so the core has
// something concrete to load fixtures and CLI inputs from.
package npyio

import (
	"fmt"
	"io"

	"github.com/kshedden/gonpy"
)

// GenotypeMatrix is a dense (numSites, numSamples) genotype matrix
// plus a parallel per-site derived-allele frequency vector, the shape
// Builder.AddSitesFromMatrix expects.
type GenotypeMatrix struct {
	NumSites    int
	NumSamples  int
	Genotypes   [][]byte
	Frequencies []uint32
}

// ReadGenotypeMatrix reads an int8 .npy array of shape (numSites,
// numSamples) from r, encoded 0/1 (as produced upstream from variant
// calls), and derives each row's frequency by summing its ones.
func ReadGenotypeMatrix(r io.Reader) (*GenotypeMatrix, error) {
	npy, err := gonpy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npyio: gonpy.NewReader: %w", err)
	}
	if len(npy.Shape) != 2 {
		return nil, fmt.Errorf("npyio: expected a 2-D array, got shape %v", npy.Shape)
	}
	numSites, numSamples := npy.Shape[0], npy.Shape[1]
	raw, err := npy.GetInt8()
	if err != nil {
		return nil, fmt.Errorf("npyio: GetInt8: %w", err)
	}

	gm := &GenotypeMatrix{
		NumSites:    numSites,
		NumSamples:  numSamples,
		Genotypes:   make([][]byte, numSites),
		Frequencies: make([]uint32, numSites),
	}
	for i := 0; i < numSites; i++ {
		row := make([]byte, numSamples)
		freq := uint32(0)
		for j := 0; j < numSamples; j++ {
			v := raw[i*numSamples+j]
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("npyio: genotype at site %d sample %d is %d, want 0 or 1", i, j, v)
			}
			row[j] = byte(v)
			freq += uint32(v)
		}
		gm.Genotypes[i] = row
		gm.Frequencies[i] = freq
	}
	return gm, nil
}

// WriteGenotypeMatrix writes gm back out as an int8 .npy array, for
// round-tripping in tests without needing a hand-authored fixture
// file.
func WriteGenotypeMatrix(w io.Writer, gm *GenotypeMatrix) error {
	npw, err := gonpy.NewWriter(w)
	if err != nil {
		return fmt.Errorf("npyio: gonpy.NewWriter: %w", err)
	}
	npw.Shape = []int{gm.NumSites, gm.NumSamples}
	data := make([]int8, gm.NumSites*gm.NumSamples)
	for i, row := range gm.Genotypes {
		for j, v := range row {
			data[i*gm.NumSamples+j] = int8(v)
		}
	}
	if err := npw.WriteInt8(data); err != nil {
		return fmt.Errorf("npyio: WriteInt8: %w", err)
	}
	return nil
}

// ReadPositions reads a float64 .npy vector of site positions.
func ReadPositions(r io.Reader) ([]float64, error) {
	npy, err := gonpy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npyio: gonpy.NewReader: %w", err)
	}
	positions, err := npy.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("npyio: GetFloat64: %w", err)
	}
	return positions, nil
}

// WritePositions writes a float64 .npy vector of site positions.
func WritePositions(w io.Writer, positions []float64) error {
	npw, err := gonpy.NewWriter(w)
	if err != nil {
		return fmt.Errorf("npyio: gonpy.NewWriter: %w", err)
	}
	npw.Shape = []int{len(positions)}
	if err := npw.WriteFloat64(positions); err != nil {
		return fmt.Errorf("npyio: WriteFloat64: %w", err)
	}
	return nil
}

// ReadHaplotypeRow reads a single int8 .npy vector (one query or
// panel haplotype row) and returns it as an Allele byte slice,
// mapping -1 to the internal UnknownAllele encoding.
func ReadHaplotypeRow(r io.Reader) ([]byte, error) {
	npy, err := gonpy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npyio: gonpy.NewReader: %w", err)
	}
	raw, err := npy.GetInt8()
	if err != nil {
		return nil, fmt.Errorf("npyio: GetInt8: %w", err)
	}
	return encodeAlleles(raw), nil
}

// ReadHaplotypeMatrix reads an int8 .npy array of shape (numQueries,
// numSites), mapping -1 entries to the internal UnknownAllele
// encoding, and returns one []byte row per query haplotype.
func ReadHaplotypeMatrix(r io.Reader) ([][]byte, error) {
	npy, err := gonpy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npyio: gonpy.NewReader: %w", err)
	}
	if len(npy.Shape) != 2 {
		return nil, fmt.Errorf("npyio: expected a 2-D array, got shape %v", npy.Shape)
	}
	numQueries, numSites := npy.Shape[0], npy.Shape[1]
	raw, err := npy.GetInt8()
	if err != nil {
		return nil, fmt.Errorf("npyio: GetInt8: %w", err)
	}
	out := make([][]byte, numQueries)
	for i := 0; i < numQueries; i++ {
		out[i] = encodeAlleles(raw[i*numSites : (i+1)*numSites])
	}
	return out, nil
}

func encodeAlleles(raw []int8) []byte {
	out := make([]byte, len(raw))
	for i, v := range raw {
		if v < 0 {
			out[i] = 0xFF
		} else {
			out[i] = byte(v)
		}
	}
	return out
}
