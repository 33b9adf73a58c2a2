// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/awohns/tsinfer/internal/arena"
	"github.com/awohns/tsinfer/internal/patternmap"
)

// AncestorDescriptor names the frequency and focal sites that anchor
// one ancestral haplotype. With the current policy every descriptor
// has exactly one focal site; sites sharing a pattern yield multiple
// descriptors of equal frequency, one per site.
type AncestorDescriptor struct {
	Frequency  uint32
	FocalSites []uint32
}

type builderSite struct {
	frequency uint32
	genotypes []byte // nil when frequency <= 1: no pattern, no canonical vector
}

// Builder ingests per-site genotype columns grouped by derived-allele
// frequency, deduplicates identical patterns, and synthesizes
// ancestral haplotypes by consensus propagation anchored at a focal
// site. A Builder is built once (New), filled site-by-site (AddSite),
// finalised once (Finalise), and then queried (Descriptors,
// MakeAncestor) without further mutation.
type Builder struct {
	numSamples uint32
	numSites   uint32
	arena      *arena.Arena
	sites      []builderSite
	buckets    []*patternmap.Map // index 0..numSamples
	descriptors []AncestorDescriptor
	finalised  bool
}

// New allocates a Builder dimensioned for numSamples samples and
// numSites sites. numSamples must be at least 2, with one exception:
// numSamples == 0 is accepted as the degenerate empty-panel case and
// yields a Builder that produces zero descriptors and no ancestors,
// rather than an error.
func New(numSamples, numSites uint32) (*Builder, error) {
	if numSamples == 1 {
		return nil, fmt.Errorf("tsinfer.New: num_samples must be 0 or >= 2, got %d: %w", numSamples, ErrInvalidArgument)
	}
	b := &Builder{
		numSamples: numSamples,
		numSites:   numSites,
		arena:      arena.New(1 << 20),
		sites:      make([]builderSite, numSites),
		buckets:    make([]*patternmap.Map, numSamples+1),
	}
	for i := range b.buckets {
		b.buckets[i] = patternmap.New()
	}
	return b, nil
}

// NumSamples returns the sample count the Builder was constructed with.
func (b *Builder) NumSamples() uint32 { return b.numSamples }

// NumSites returns the site count the Builder was constructed with.
func (b *Builder) NumSites() uint32 { return b.numSites }

// AddSite records one site's genotype column at the given
// derived-allele frequency. Sites with frequency <= 1 are recorded but
// contribute no pattern (they cannot anchor a useful ancestor).
// Calling AddSite twice for the same siteID is undefined, per spec.
func (b *Builder) AddSite(siteID, frequency uint32, genotypes []byte) error {
	if b.finalised {
		return fmt.Errorf("tsinfer: AddSite called after Finalise: %w", ErrInvalidArgument)
	}
	if siteID >= b.numSites {
		return fmt.Errorf("tsinfer: AddSite: site_id %d out of range [0,%d): %w", siteID, b.numSites, ErrInvalidArgument)
	}
	if frequency > b.numSamples {
		return fmt.Errorf("tsinfer: AddSite: frequency %d exceeds num_samples %d: %w", frequency, b.numSamples, ErrInvalidArgument)
	}
	if uint32(len(genotypes)) != b.numSamples {
		return fmt.Errorf("tsinfer: AddSite: genotypes has length %d, want %d: %w", len(genotypes), b.numSamples, ErrInvalidArgument)
	}
	for _, g := range genotypes {
		if g != 0 && g != 1 {
			return fmt.Errorf("tsinfer: AddSite: genotype byte %d not in {0,1}: %w", g, ErrInvalidArgument)
		}
	}

	b.sites[siteID].frequency = frequency
	if frequency <= 1 {
		return nil
	}

	bucket := b.buckets[frequency]
	entry, hit := bucket.Search(genotypes)
	if !hit {
		buf := b.arena.Get(len(genotypes))
		copy(buf, genotypes)
		entry = bucket.Insert(genotypes, &patternmap.Entry{Genotypes: buf})
		log.WithFields(log.Fields{"site": siteID, "frequency": frequency, "pattern": entry.Fingerprint()}).Debug("tsinfer: new genotype pattern")
	}
	entry.PushFront(siteID)
	b.sites[siteID].genotypes = entry.Genotypes
	return nil
}

// AddSitesFromMatrix is batch sugar over AddSite for loading a dense
// (num_sites, num_samples) genotype matrix plus a parallel frequency
// vector, as produced by internal/npyio from an .npy file pair. It is
// additive convenience, not a replacement for AddSite.
func (b *Builder) AddSitesFromMatrix(genotypes [][]byte, frequencies []uint32) error {
	if len(genotypes) != len(frequencies) {
		return fmt.Errorf("tsinfer: AddSitesFromMatrix: %d genotype rows but %d frequencies: %w", len(genotypes), len(frequencies), ErrInvalidArgument)
	}
	for i, row := range genotypes {
		if err := b.AddSite(uint32(i), frequencies[i], row); err != nil {
			return err
		}
	}
	return nil
}

// Finalise walks frequency buckets from numSamples down to 2 and, in
// each bucket's natural key order, emits one AncestorDescriptor per
// site in the bucket's pattern entries (focal sites ascending within
// an entry). Descriptors are ordered by strictly non-increasing
// frequency. Must be called exactly once, after all AddSite calls and
// before Descriptors/MakeAncestor.
func (b *Builder) Finalise() error {
	if b.finalised {
		return fmt.Errorf("tsinfer: Finalise called twice: %w", ErrInvalidArgument)
	}
	for freq := b.numSamples; freq >= 2; freq-- {
		bucket := b.buckets[freq]
		bucket.Walk(func(key []byte, entry *patternmap.Entry) bool {
			focal := make([]uint32, len(entry.Sites))
			for i, s := range entry.Sites {
				focal[len(focal)-1-i] = s // reverse the front-inserted list
			}
			for _, site := range focal {
				b.descriptors = append(b.descriptors, AncestorDescriptor{
					Frequency:  freq,
					FocalSites: []uint32{site},
				})
			}
			return true
		})
	}
	b.finalised = true
	return nil
}

// Descriptors returns the ordered list of ancestor descriptors
// produced by Finalise. The returned slice must not be mutated.
func (b *Builder) Descriptors() ([]AncestorDescriptor, error) {
	if !b.finalised {
		return nil, fmt.Errorf("tsinfer: Descriptors called before Finalise: %w", ErrUninitialised)
	}
	return b.descriptors, nil
}

// Free releases the Builder's arena. The Builder must not be used
// afterward.
func (b *Builder) Free() {
	b.arena.Free()
}
