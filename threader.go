// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// noSwitch marks a traceback cell whose Viterbi predecessor is "the
// same haplotype row at the previous site" — i.e. no recombination.
const noSwitch = ^uint32(0)

// Threader runs Li–Stephens Viterbi decoding of one query haplotype
// against a prefix of an immutable ReferencePanel. A Threader owns a
// mutable traceback matrix overwritten by each Run call; two
// concurrent Run calls on the same Threader corrupt it, but distinct
// Threaders sharing one ReferencePanel may run concurrently.
type Threader struct {
	panel *ReferencePanel
	t     []uint32 // row-major (NumHaplotypes x NumSites)
}

// NewThreader constructs a Threader over panel. panel is read-only
// for the Threader's entire lifetime.
func NewThreader(panel *ReferencePanel) *Threader {
	return &Threader{
		panel: panel,
		t:     make([]uint32, uint64(panel.NumHaplotypes())*uint64(panel.NumSites())),
	}
}

func (t *Threader) tIndex(h, l uint32) uint64 {
	return uint64(h)*uint64(t.panel.numSites) + uint64(l)
}

// Run decodes the Viterbi path copying haplotypeIndex from the
// reference panel's first panelSize rows, writes the chosen panel
// index at each site into path (which must have length
// panel.NumSites()), and returns the ascending-ordered list of sites
// where the optimal path nonetheless requires a mutation to explain
// the observed allele.
func (t *Threader) Run(haplotypeIndex, panelSize uint32, rho, epsilon float64, path []uint32) ([]uint32, error) {
	p := t.panel
	m := p.NumSites()
	if haplotypeIndex >= p.NumHaplotypes() {
		return nil, fmt.Errorf("tsinfer: Run: haplotype_index %d out of range [0,%d): %w", haplotypeIndex, p.NumHaplotypes(), ErrInvalidArgument)
	}
	if panelSize == 0 || panelSize > p.NumHaplotypes() {
		return nil, fmt.Errorf("tsinfer: Run: panel_size %d out of range [1,%d]: %w", panelSize, p.NumHaplotypes(), ErrInvalidArgument)
	}
	if uint32(len(path)) != m {
		return nil, fmt.Errorf("tsinfer: Run: path has length %d, want %d: %w", len(path), m, ErrInvalidArgument)
	}
	if !(epsilon > 0 && epsilon < 0.5) {
		return nil, fmt.Errorf("tsinfer: Run: error_probability %v must be in (0,0.5): %w", epsilon, ErrInvalidArgument)
	}
	if !(rho > 0) {
		return nil, fmt.Errorf("tsinfer: Run: recombination_rate %v must be > 0: %w", rho, ErrInvalidArgument)
	}
	if m == 0 {
		return nil, nil
	}

	logMatch := math.Log(1 - epsilon)
	logMismatch := math.Log(epsilon)
	k := panelSize

	v := make([]float64, k)
	for h := uint32(0); h < k; h++ {
		v[h] = emission(p.allele(h, 0), p.allele(haplotypeIndex, 0), logMatch, logMismatch)
		t.t[t.tIndex(h, 0)] = noSwitch
	}

	for l := uint32(1); l < m; l++ {
		gap := p.sitePosition(l) - p.sitePosition(l-1)
		r := 1 - math.Exp(-rho*gap)
		logStay := math.Log(1 - r + r/float64(k))
		logSwitch := math.Log(r / float64(k))

		bestIdx, secondIdx := uint32(0), uint32(0)
		bestVal, secondVal := math.Inf(-1), math.Inf(-1)
		for h := uint32(0); h < k; h++ {
			val := v[h]
			if val > bestVal {
				secondVal, secondIdx = bestVal, bestIdx
				bestVal, bestIdx = val, h
			} else if val > secondVal {
				secondVal, secondIdx = val, h
			}
		}

		next := make([]float64, k)
		query := p.allele(haplotypeIndex, l)
		for h := uint32(0); h < k; h++ {
			switchSrc, switchSrcVal := bestIdx, bestVal
			if h == bestIdx {
				switchSrc, switchSrcVal = secondIdx, secondVal
			}
			stayVal := v[h] + logStay
			switchVal := switchSrcVal + logSwitch

			var pred uint32
			var chosen float64
			switch {
			case stayVal > switchVal:
				pred, chosen = noSwitch, stayVal
			case switchVal > stayVal:
				pred, chosen = switchSrc, switchVal
			default:
				if h <= switchSrc {
					pred, chosen = noSwitch, stayVal
				} else {
					pred, chosen = switchSrc, switchVal
				}
			}
			next[h] = chosen + emission(p.allele(h, l), query, logMatch, logMismatch)
			t.t[t.tIndex(h, l)] = pred
		}

		mx := floats.Max(next)
		floats.AddConst(-mx, next)
		v = next
	}

	finalIdx := uint32(0)
	finalVal := math.Inf(-1)
	for h := uint32(0); h < k; h++ {
		if v[h] > finalVal {
			finalVal, finalIdx = v[h], h
		}
	}

	path[m-1] = finalIdx
	for l := m - 1; l > 0; l-- {
		pred := t.t[t.tIndex(path[l], l)]
		if pred == noSwitch {
			path[l-1] = path[l]
		} else {
			path[l-1] = pred
		}
	}

	var mutations []uint32
	for l := uint32(0); l < m; l++ {
		if p.allele(path[l], l) != p.allele(haplotypeIndex, l) {
			mutations = append(mutations, l)
		}
	}

	log.WithFields(log.Fields{"haplotype_index": haplotypeIndex, "panel_size": panelSize, "mutations": len(mutations)}).Debug("tsinfer: threading complete")
	return mutations, nil
}

func emission(panelAllele, queryAllele byte, logMatch, logMismatch float64) float64 {
	if panelAllele == UnknownAllele || panelAllele != queryAllele {
		return logMismatch
	}
	return logMatch
}

// Traceback returns a defensive copy of the (NumHaplotypes x NumSites)
// predecessor matrix populated by the most recent Run call. Rows at
// or beyond the panel_size used in that call hold no meaningful data.
func (t *Threader) Traceback() [][]uint32 {
	n := t.panel.NumHaplotypes()
	m := t.panel.NumSites()
	out := make([][]uint32, n)
	for h := uint32(0); h < n; h++ {
		row := make([]uint32, m)
		copy(row, t.t[uint64(h)*uint64(m):uint64(h+1)*uint64(m)])
		out[h] = row
	}
	return out
}
