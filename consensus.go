// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// MakeAncestor materializes the ancestral haplotype anchored at
// focalSites (currently required to hold exactly one site) into out,
// which must have length b.NumSites(). It returns the half-open
// [start, end) range outside of which out is left at UnknownAllele.
//
// The algorithm is consensus propagation: starting from the set of
// samples carrying the derived allele at the focal site, it walks
// outward (right then left) through sites of strictly higher
// frequency, writing the majority allele at each and evicting samples
// that disagree with the consensus at two consecutive sites.
func (b *Builder) MakeAncestor(focalSites []uint32, out []int8) (start, end uint32, err error) {
	if !b.finalised {
		return 0, 0, fmt.Errorf("tsinfer: MakeAncestor called before Finalise: %w", ErrUninitialised)
	}
	if len(focalSites) != 1 {
		return 0, 0, fmt.Errorf("tsinfer: MakeAncestor: exactly one focal site is supported, got %d: %w", len(focalSites), ErrInvalidArgument)
	}
	if uint32(len(out)) != b.numSites {
		return 0, 0, fmt.Errorf("tsinfer: MakeAncestor: out has length %d, want %d: %w", len(out), b.numSites, ErrInvalidArgument)
	}
	focal := focalSites[0]
	if focal >= b.numSites {
		return 0, 0, fmt.Errorf("tsinfer: MakeAncestor: focal site %d out of range [0,%d): %w", focal, b.numSites, ErrInvalidArgument)
	}
	focalGenotypes := b.sites[focal].genotypes
	if focalGenotypes == nil {
		return 0, 0, fmt.Errorf("tsinfer: MakeAncestor: focal site %d has frequency <= 1 and anchors no pattern: %w", focal, ErrInvalidArgument)
	}

	for i := range out {
		out[i] = -1
	}
	out[focal] = 1

	fStar := b.sites[focal].frequency
	origS := make([]uint32, 0, fStar)
	for u := uint32(0); u < b.numSamples; u++ {
		if focalGenotypes[u] == 1 {
			origS = append(origS, u)
		}
	}
	threshold := fStar / 2

	var rightSites []uint32
	for l := focal + 1; l < b.numSites; l++ {
		if b.sites[l].frequency > fStar {
			rightSites = append(rightSites, l)
		}
	}
	lastRight := computeOlderSites(b, copyOf(origS), rightSites, threshold, out, focal)
	for l := focal + 1; l < lastRight; l++ {
		if b.sites[l].frequency <= fStar {
			out[l] = 0
		}
	}
	end = lastRight + 1

	var leftSites []uint32
	for l := focal; l > 0; l-- {
		if b.sites[l-1].frequency > fStar {
			leftSites = append(leftSites, l-1)
		}
	}
	lastLeft := computeOlderSites(b, copyOf(origS), leftSites, threshold, out, focal)
	for l := lastLeft + 1; l < focal; l++ {
		if b.sites[l].frequency <= fStar {
			out[l] = 0
		}
	}
	start = lastLeft

	log.WithFields(log.Fields{"focal_site": focal, "frequency": fStar, "start": start, "end": end}).Debug("tsinfer: ancestor materialized")
	return start, end, nil
}

func copyOf(s []uint32) []uint32 {
	return append([]uint32(nil), s...)
}

// computeOlderSites walks sites (already ordered outward from the
// focal site, in either direction) applying the two-strike consensus
// rule: a sample is evicted from the working set only once it
// disagrees with the consensus allele at two consecutive processed
// sites. It returns the last site it successfully wrote a consensus
// allele for, or dflt (the focal site) if no site in sites qualified —
// dflt lets the same function serve both the rightward walk (whose
// "nothing happened" answer is the focal site, since end = last+1)
// and the leftward walk (whose "nothing happened" answer is also the
// focal site, since start = last).
func computeOlderSites(b *Builder, S []uint32, sites []uint32, threshold uint32, out []int8, dflt uint32) uint32 {
	// disagreeSite records, for each sample currently disagreeing with
	// consensus, the site of its first strike under the two-strike
	// eviction rule.
	disagreeSite := make(map[uint32]uint32, len(S))
	last := dflt
	for _, l := range sites {
		genotypes := b.sites[l].genotypes
		ones := uint32(0)
		for _, u := range S {
			if genotypes[u] == 1 {
				ones++
			}
		}
		zeros := uint32(len(S)) - ones
		var consensus int8
		if ones >= zeros {
			consensus = 1
		}

		kept := S[:0]
		for _, u := range S {
			if firstSite, disagreed := disagreeSite[u]; disagreed && genotypes[u] != byte(consensus) {
				log.WithFields(log.Fields{"sample": u, "first_site": firstSite, "second_site": l}).Debug("tsinfer: evicting sample from consensus")
				continue
			}
			kept = append(kept, u)
		}
		S = kept

		if uint32(len(S)) <= threshold {
			break
		}
		out[l] = consensus
		last = l
		newDisagree := make(map[uint32]uint32, len(S))
		for _, u := range S {
			if genotypes[u] != byte(consensus) {
				newDisagree[u] = l
			}
		}
		disagreeSite = newDisagree
	}
	return last
}
