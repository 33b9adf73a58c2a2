// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package report renders human-readable diffs between two materialized
// ancestral haplotypes, for debugging consensus output. It encodes each
// haplotype's alleles as a string (one rune per site: '0', '1', or '.'
// for unknown) and hands the two strings to diffmatchpatch, the same
// library arvados/lightning's hgvs.Diff uses to turn a pair of allele
// strings into a compact edit script.
package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Span is one run of agreement or disagreement between two haplotypes,
// in site-index order.
type Span struct {
	// Start and End are a half-open site range [Start, End).
	Start, End uint32
	// Equal is true when both haplotypes carry the same allele string
	// throughout [Start, End).
	Equal bool
	// A and B are the allele strings from each haplotype over
	// [Start, End); they differ only when Equal is false.
	A, B string
}

// Encode renders a materialized ancestor's haplotype as a fixed-width
// allele string: '0' for ancestral, '1' for derived, '.' for unknown
// (sites outside [start, end)).
func Encode(haplotype []int8) string {
	var sb strings.Builder
	sb.Grow(len(haplotype))
	for _, a := range haplotype {
		switch a {
		case 0:
			sb.WriteByte('0')
		case 1:
			sb.WriteByte('1')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// Diff compares two allele strings of equal length (as produced by
// Encode) and returns the ordered list of agreement/disagreement spans
// covering the full length of a and b.
func Diff(a, b string) ([]Span, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("report: Diff: haplotypes have different lengths (%d vs %d)", len(a), len(b))
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var spans []Span
	var pos uint32
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			n := uint32(len(d.Text))
			spans = append(spans, Span{Start: pos, End: pos + n, Equal: true, A: d.Text, B: d.Text})
			pos += n
		case diffmatchpatch.DiffDelete:
			delText := d.Text
			insText := ""
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				insText = diffs[i+1].Text
				i++
			}
			n := uint32(len(delText))
			if len(insText) > n {
				n = uint32(len(insText))
			}
			spans = append(spans, Span{Start: pos, End: pos + n, Equal: false, A: delText, B: insText})
			pos += n
		case diffmatchpatch.DiffInsert:
			n := uint32(len(d.Text))
			spans = append(spans, Span{Start: pos, End: pos + n, Equal: false, A: "", B: d.Text})
			pos += n
		}
	}
	return spans, nil
}

// Format renders spans as a compact human-readable report: one line
// per disagreement span, "<start>-<end>: a=<A> b=<B>", and a trailing
// summary line with the total count of mismatched sites.
func Format(spans []Span) string {
	var sb strings.Builder
	mismatched := uint32(0)
	for _, s := range spans {
		if s.Equal {
			continue
		}
		fmt.Fprintf(&sb, "%d-%d: a=%s b=%s\n", s.Start, s.End, s.A, s.B)
		mismatched += s.End - s.Start
	}
	fmt.Fprintf(&sb, "%d mismatched site(s)\n", mismatched)
	return sb.String()
}
