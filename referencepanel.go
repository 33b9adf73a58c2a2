// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import "fmt"

// ReferencePanel is an immutable panel of reference haplotypes plus
// site positions, built once per inference run and shared by read
// across arbitrarily many Threaders. Construction appends two
// synthetic rows (all-ancestral, all-derived) and two virtual
// boundary positions (0 and sequenceLength) to anchor the copying
// model at the extremes.
type ReferencePanel struct {
	numSamples     uint32
	numSites       uint32
	sequenceLength float64
	haplotypes     []byte    // row-major, (numSamples+2) x numSites
	positions      []float64 // length numSites+2
}

// NewReferencePanel validates and wraps a row-major haplotype matrix
// of shape (numSamples, numSites) plus a length-numSites position
// vector. haplotypes entries must be 0, 1, or UnknownAllele.
func NewReferencePanel(numSamples, numSites uint32, haplotypes []byte, positions []float64, sequenceLength float64) (*ReferencePanel, error) {
	if uint64(len(haplotypes)) != uint64(numSamples)*uint64(numSites) {
		return nil, fmt.Errorf("tsinfer: NewReferencePanel: haplotypes has length %d, want %d: %w", len(haplotypes), uint64(numSamples)*uint64(numSites), ErrInvalidArgument)
	}
	if uint32(len(positions)) != numSites {
		return nil, fmt.Errorf("tsinfer: NewReferencePanel: positions has length %d, want %d: %w", len(positions), numSites, ErrInvalidArgument)
	}
	for _, a := range haplotypes {
		if a != 0 && a != 1 && a != UnknownAllele {
			return nil, fmt.Errorf("tsinfer: NewReferencePanel: allele byte %#x not in {0,1,unknown}: %w", a, ErrInvalidArgument)
		}
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] <= positions[i-1] {
			return nil, fmt.Errorf("tsinfer: NewReferencePanel: positions must be strictly increasing (index %d): %w", i, ErrInvalidArgument)
		}
	}
	if numSites > 0 && sequenceLength <= positions[len(positions)-1] {
		return nil, fmt.Errorf("tsinfer: NewReferencePanel: sequence_length must exceed the last site position: %w", ErrInvalidArgument)
	}

	numHaplotypes := numSamples + 2
	hap := make([]byte, uint64(numHaplotypes)*uint64(numSites))
	copy(hap, haplotypes)
	for l := uint32(0); l < numSites; l++ {
		hap[uint64(numSamples)*uint64(numSites)+uint64(l)] = 0
		hap[uint64(numSamples+1)*uint64(numSites)+uint64(l)] = 1
	}

	pos := make([]float64, numSites+2)
	pos[0] = 0
	copy(pos[1:], positions)
	pos[len(pos)-1] = sequenceLength

	return &ReferencePanel{
		numSamples:     numSamples,
		numSites:       numSites,
		sequenceLength: sequenceLength,
		haplotypes:     hap,
		positions:      pos,
	}, nil
}

// NumSamples returns the number of observed haplotypes (excluding the
// two synthetic anchor rows).
func (p *ReferencePanel) NumSamples() uint32 { return p.numSamples }

// NumHaplotypes returns NumSamples()+2, the total row count including
// the synthetic all-ancestral and all-derived rows.
func (p *ReferencePanel) NumHaplotypes() uint32 { return p.numSamples + 2 }

// NumSites returns the number of real (non-boundary) sites.
func (p *ReferencePanel) NumSites() uint32 { return p.numSites }

// SequenceLength returns the modeled segment length.
func (p *ReferencePanel) SequenceLength() float64 { return p.sequenceLength }

// allele returns the allele at haplotype row h, site l, without
// copying — used on the Threader's hot path.
func (p *ReferencePanel) allele(h, l uint32) byte {
	return p.haplotypes[uint64(h)*uint64(p.numSites)+uint64(l)]
}

// paddedPosition returns the boundary-padded position array entry at
// index i (0 <= i <= numSites+1); see spec's "+2 offset" note.
func (p *ReferencePanel) paddedPosition(i uint32) float64 {
	return p.positions[i]
}

// sitePosition returns the real genomic position of site l.
func (p *ReferencePanel) sitePosition(l uint32) float64 {
	return p.positions[l+1]
}

// GetHaplotypes returns a defensive copy of the full (NumHaplotypes()
// x NumSites()) matrix, one row per haplotype. The panel itself is
// never mutated by this or any other accessor.
func (p *ReferencePanel) GetHaplotypes() [][]byte {
	n := p.NumHaplotypes()
	out := make([][]byte, n)
	for h := uint32(0); h < n; h++ {
		row := make([]byte, p.numSites)
		copy(row, p.haplotypes[uint64(h)*uint64(p.numSites):uint64(h+1)*uint64(p.numSites)])
		out[h] = row
	}
	return out
}

// GetPositions returns a defensive copy of the boundary-padded
// position vector, length NumSites()+2.
func (p *ReferencePanel) GetPositions() []float64 {
	out := make([]float64, len(p.positions))
	copy(out, p.positions)
	return out
}
