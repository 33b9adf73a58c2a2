// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import "gopkg.in/check.v1"

type threaderSuite struct{}

var _ = check.Suite(&threaderSuite{})

// TestIdentity is end-to-end scenario 4: threading a haplotype
// against the full panel (including itself) with an unambiguous
// match yields a flat path at its own index and no mutations.
func (s *threaderSuite) TestIdentity(c *check.C) {
	haplotypes := []byte{
		0, 0, 1, 1,
		1, 0, 0, 1,
	}
	positions := []float64{1, 2, 3, 4}
	p, err := NewReferencePanel(2, 4, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)

	th := NewThreader(p)
	path := make([]uint32, 4)
	mutations, err := th.Run(0, p.NumHaplotypes(), 1e-8, 1e-8, path)
	c.Assert(err, check.IsNil)
	c.Check(path, check.DeepEquals, []uint32{0, 0, 0, 0})
	c.Check(mutations, check.HasLen, 0)
}

// TestForcedSwitch is end-to-end scenario 5: a recombinant haplotype
// added as a third sample is threaded against the first two samples
// only (panel_size=2); with tiny rho and eps the optimal path copies
// from haplotype 0 for the first half and haplotype 1 for the second,
// switching exactly once at the boundary.
func (s *threaderSuite) TestForcedSwitch(c *check.C) {
	haplotypes := []byte{
		0, 0, 1, 1, // haplotype 0
		1, 1, 0, 0, // haplotype 1
		0, 0, 0, 0, // recombinant: first half of hap0, second half of hap1
	}
	positions := []float64{1, 2, 3, 4}
	p, err := NewReferencePanel(3, 4, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)

	th := NewThreader(p)
	path := make([]uint32, 4)
	mutations, err := th.Run(2, 2, 1e-8, 1e-8, path)
	c.Assert(err, check.IsNil)
	c.Check(path, check.DeepEquals, []uint32{0, 0, 1, 1})
	c.Check(mutations, check.HasLen, 0)
}

// TestPathValidityAndMutationConsistency covers invariants 8 and 9 on
// a three-sample panel whose query (row 2) matches neither copyable
// row everywhere.
func (s *threaderSuite) TestPathValidityAndMutationConsistency(c *check.C) {
	haplotypes := []byte{
		0, 0, 1, 1,
		1, 1, 0, 0,
		0, 1, 1, 0,
	}
	positions := []float64{1, 2, 3, 4}
	p, err := NewReferencePanel(3, 4, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)

	th := NewThreader(p)
	path := make([]uint32, 4)
	panelSize := uint32(2)
	mutations, err := th.Run(2, panelSize, 1e-8, 1e-2, path)
	c.Assert(err, check.IsNil)

	for _, h := range path {
		c.Check(h < panelSize, check.Equals, true)
	}
	mutSet := make(map[uint32]bool, len(mutations))
	for _, l := range mutations {
		mutSet[l] = true
	}
	for l := uint32(0); l < p.NumSites(); l++ {
		want := p.allele(path[l], l) != p.allele(2, l)
		c.Check(mutSet[l], check.Equals, want)
	}
}

// TestDeterminism covers invariant 7.
func (s *threaderSuite) TestDeterminism(c *check.C) {
	haplotypes := []byte{
		0, 0, 1, 1,
		1, 1, 0, 0,
		0, 0, 0, 0,
	}
	positions := []float64{1, 2, 3, 4}
	p, err := NewReferencePanel(3, 4, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)

	th := NewThreader(p)
	path1 := make([]uint32, 4)
	mutations1, err := th.Run(2, 2, 1e-8, 1e-8, path1)
	c.Assert(err, check.IsNil)

	path2 := make([]uint32, 4)
	mutations2, err := th.Run(2, 2, 1e-8, 1e-8, path2)
	c.Assert(err, check.IsNil)

	c.Check(path1, check.DeepEquals, path2)
	c.Check(mutations1, check.DeepEquals, mutations2)
}

func (s *threaderSuite) TestRunValidation(c *check.C) {
	haplotypes := []byte{0, 1, 1, 0}
	positions := []float64{1, 2}
	p, err := NewReferencePanel(2, 2, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)
	th := NewThreader(p)

	path := make([]uint32, 2)
	_, err = th.Run(99, 2, 1e-8, 1e-8, path) // haplotype_index out of range
	c.Check(err, check.NotNil)

	_, err = th.Run(0, 0, 1e-8, 1e-8, path) // panel_size 0
	c.Check(err, check.NotNil)

	_, err = th.Run(0, 2, 1e-8, 1e-8, make([]uint32, 1)) // wrong path length
	c.Check(err, check.NotNil)

	_, err = th.Run(0, 2, 1e-8, 0.9, path) // epsilon out of (0, 0.5)
	c.Check(err, check.NotNil)

	_, err = th.Run(0, 2, 0, 1e-8, path) // rho must be > 0
	c.Check(err, check.NotNil)
}

func (s *threaderSuite) TestTraceback(c *check.C) {
	haplotypes := []byte{0, 1, 1, 0}
	positions := []float64{1, 2}
	p, err := NewReferencePanel(2, 2, haplotypes, positions, 10)
	c.Assert(err, check.IsNil)
	th := NewThreader(p)
	path := make([]uint32, 2)
	_, err = th.Run(0, p.NumHaplotypes(), 1e-8, 1e-8, path)
	c.Assert(err, check.IsNil)

	tb := th.Traceback()
	c.Check(tb, check.HasLen, int(p.NumHaplotypes()))
	for _, row := range tb {
		c.Check(row, check.HasLen, int(p.NumSites()))
	}
}
