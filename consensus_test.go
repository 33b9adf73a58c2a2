// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import "gopkg.in/check.v1"

type consensusSuite struct{}

var _ = check.Suite(&consensusSuite{})

func buildFinalised(c *check.C, numSamples, numSites uint32, sites [][]byte, freqs []uint32) *Builder {
	b, err := New(numSamples, numSites)
	c.Assert(err, check.IsNil)
	for i, g := range sites {
		c.Assert(b.AddSite(uint32(i), freqs[i], g), check.IsNil)
	}
	c.Assert(b.Finalise(), check.IsNil)
	return b
}

// TestSimpleAncestorNoOlderSites is end-to-end scenario 2. The
// implementation follows the formal algorithm and invariant 5 (every
// index outside [start,end) is UNKNOWN) rather than the scenario's
// prose, which asserts ancestor[2]=0 while also asserting end=2 — a
// contradiction under that same invariant. See DESIGN.md.
func (s *consensusSuite) TestSimpleAncestorNoOlderSites(c *check.C) {
	b := buildFinalised(c, 3, 3,
		[][]byte{{1, 1, 0}, {1, 1, 1}, {1, 1, 0}},
		[]uint32{2, 3, 2})
	defer b.Free()

	out := make([]int8, 3)
	start, end, err := b.MakeAncestor([]uint32{0}, out)
	c.Assert(err, check.IsNil)
	c.Check(start, check.Equals, uint32(0))
	c.Check(end, check.Equals, uint32(2))
	c.Check(out, check.DeepEquals, []int8{1, 1, -1})
}

// TestTwoStrikeEviction is end-to-end scenario 3.
func (s *consensusSuite) TestTwoStrikeEviction(c *check.C) {
	b := buildFinalised(c, 4, 4,
		[][]byte{{1, 1, 1, 0}, {1, 1, 0, 1}, {1, 1, 0, 1}, {0, 0, 1, 1}},
		[]uint32{3, 4, 4, 4})
	defer b.Free()

	out := make([]int8, 4)
	start, end, err := b.MakeAncestor([]uint32{0}, out)
	c.Assert(err, check.IsNil)
	c.Check(start, check.Equals, uint32(0))
	c.Check(end, check.Equals, uint32(4))
	c.Check(out, check.DeepEquals, []int8{1, 1, 1, 0})
}

// TestInvariantAllelesInRange covers invariant 5.
func (s *consensusSuite) TestInvariantAllelesInRange(c *check.C) {
	b := buildFinalised(c, 4, 4,
		[][]byte{{1, 1, 1, 0}, {1, 1, 0, 1}, {1, 1, 0, 1}, {0, 0, 1, 1}},
		[]uint32{3, 4, 4, 4})
	defer b.Free()

	out := make([]int8, 4)
	start, end, err := b.MakeAncestor([]uint32{0}, out)
	c.Assert(err, check.IsNil)
	c.Check(out[0], check.Equals, int8(1)) // focal site always 1
	for i, a := range out {
		switch {
		case uint32(i) < start || uint32(i) >= end:
			c.Check(a, check.Equals, int8(-1))
		default:
			c.Check(a == 0 || a == 1, check.Equals, true)
		}
	}
}

// TestDeterminism covers invariant 6.
func (s *consensusSuite) TestDeterminism(c *check.C) {
	b := buildFinalised(c, 4, 4,
		[][]byte{{1, 1, 1, 0}, {1, 1, 0, 1}, {1, 1, 0, 1}, {0, 0, 1, 1}},
		[]uint32{3, 4, 4, 4})
	defer b.Free()

	out1 := make([]int8, 4)
	start1, end1, err := b.MakeAncestor([]uint32{0}, out1)
	c.Assert(err, check.IsNil)

	out2 := make([]int8, 4)
	start2, end2, err := b.MakeAncestor([]uint32{0}, out2)
	c.Assert(err, check.IsNil)

	c.Check(start1, check.Equals, start2)
	c.Check(end1, check.Equals, end2)
	c.Check(out1, check.DeepEquals, out2)
}

func (s *consensusSuite) TestMakeAncestorValidation(c *check.C) {
	b := buildFinalised(c, 3, 3,
		[][]byte{{1, 1, 0}, {1, 1, 1}, {1, 1, 0}},
		[]uint32{2, 3, 2})
	defer b.Free()

	out := make([]int8, 3)
	_, _, err := b.MakeAncestor([]uint32{0, 1}, out) // more than one focal site
	c.Check(err, check.NotNil)

	_, _, err = b.MakeAncestor([]uint32{5}, out) // out of range
	c.Check(err, check.NotNil)

	shortOut := make([]int8, 1)
	_, _, err = b.MakeAncestor([]uint32{0}, shortOut) // wrong length
	c.Check(err, check.NotNil)

	_, _, err = b.MakeAncestor([]uint32{1}, out) // site 1 (frequency 3) anchors a pattern, so it succeeds
	c.Check(err, check.IsNil)
}

func (s *consensusSuite) TestMakeAncestorRejectsLowFrequencyFocalSite(c *check.C) {
	b := buildFinalised(c, 3, 2,
		[][]byte{{0, 0, 0}, {1, 1, 0}},
		[]uint32{0, 2})
	defer b.Free()

	out := make([]int8, 2)
	_, _, err := b.MakeAncestor([]uint32{0}, out)
	c.Check(err, check.NotNil)
}

func (s *consensusSuite) TestMakeAncestorBeforeFinaliseRejected(c *check.C) {
	b, err := New(3, 2)
	c.Assert(err, check.IsNil)
	defer b.Free()
	c.Assert(b.AddSite(0, 2, []byte{1, 1, 0}), check.IsNil)
	out := make([]int8, 2)
	_, _, err = b.MakeAncestor([]uint32{0}, out)
	c.Check(err, check.NotNil)
}
