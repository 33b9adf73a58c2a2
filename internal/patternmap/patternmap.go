// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package patternmap is the ordered associative structure that
// deduplicates genotype patterns within one allele-frequency bucket.
// Keys are raw genotype byte vectors; iteration order is
// byte-lexicographic, which is what makes downstream ancestor
// ordering deterministic. It is backed by github.com/armon/go-radix,
// whose Walk already visits keys in sorted order, rather than a
// hand-rolled balanced tree.
package patternmap

import (
	"golang.org/x/crypto/blake2b"

	radix "github.com/armon/go-radix"
)

// Entry is one distinct genotype pattern observed at a given
// frequency: the canonical genotype vector (owned by the caller's
// arena, never copied again after insertion), the count of sites
// sharing it, and the list of SiteIDs that share it, front-inserted
// (most recently added site first).
type Entry struct {
	Genotypes []byte
	NumSites  uint32
	Sites     []uint32 // front-inserted: Sites[0] is the most recently added site
}

// Fingerprint returns a BLAKE2b-256 digest of the entry's genotype
// vector. It has no bearing on map ordering or equality — those stay
// strictly byte-lexicographic, per the pattern map's contract — and
// exists only so callers can put a short, stable identifier for a
// pattern into a log line or a test assertion without printing the
// whole vector.
func (e *Entry) Fingerprint() [32]byte {
	return blake2b.Sum256(e.Genotypes)
}

// PushFront prepends siteID to the entry's site list and increments
// NumSites. Spec requires front-insertion: the list ends up in
// reverse of insertion order.
func (e *Entry) PushFront(siteID uint32) {
	e.Sites = append(e.Sites, 0)
	copy(e.Sites[1:], e.Sites[:len(e.Sites)-1])
	e.Sites[0] = siteID
	e.NumSites++
}

// Map is an ordered map from genotype pattern (raw bytes) to *Entry.
type Map struct {
	tree *radix.Tree
}

// New returns an empty Map.
func New() *Map {
	return &Map{tree: radix.New()}
}

// Search looks up key and returns the existing entry, if any.
func (m *Map) Search(key []byte) (*Entry, bool) {
	v, ok := m.tree.Get(string(key))
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Insert adds entry under key if key is not already present, and
// returns the canonical entry for key — the newly inserted one on a
// miss, or the pre-existing one on a hit (the offered entry is
// discarded in that case, exactly as spec.md 4.B requires: "when equal
// keys are offered, the existing node is kept").
func (m *Map) Insert(key []byte, entry *Entry) *Entry {
	if existing, ok := m.Search(key); ok {
		return existing
	}
	m.tree.Insert(string(key), entry)
	return entry
}

// Walk visits every (key, entry) pair in ascending lexicographic key
// order. Stops early if fn returns false.
func (m *Map) Walk(fn func(key []byte, entry *Entry) bool) {
	m.tree.Walk(func(s string, v interface{}) bool {
		return !fn([]byte(s), v.(*Entry))
	})
}

// Len returns the number of distinct patterns stored.
func (m *Map) Len() int {
	return m.tree.Len()
}
