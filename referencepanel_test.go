// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import "gopkg.in/check.v1"

type referencePanelSuite struct{}

var _ = check.Suite(&referencePanelSuite{})

func (s *referencePanelSuite) TestNewReferencePanelAppendsSyntheticRows(c *check.C) {
	haplotypes := []byte{
		1, 0, 1,
		0, 0, 1,
	}
	positions := []float64{10, 20, 30}
	p, err := NewReferencePanel(2, 3, haplotypes, positions, 100)
	c.Assert(err, check.IsNil)

	c.Check(p.NumSamples(), check.Equals, uint32(2))
	c.Check(p.NumHaplotypes(), check.Equals, uint32(4))
	c.Check(p.NumSites(), check.Equals, uint32(3))
	c.Check(p.SequenceLength(), check.Equals, 100.0)

	rows := p.GetHaplotypes()
	c.Assert(rows, check.HasLen, 4)
	c.Check(rows[0], check.DeepEquals, []byte{1, 0, 1})
	c.Check(rows[1], check.DeepEquals, []byte{0, 0, 1})
	c.Check(rows[2], check.DeepEquals, []byte{0, 0, 0}) // synthetic all-ancestral
	c.Check(rows[3], check.DeepEquals, []byte{1, 1, 1}) // synthetic all-derived

	pos := p.GetPositions()
	c.Check(pos, check.DeepEquals, []float64{0, 10, 20, 30, 100})
}

func (s *referencePanelSuite) TestNewReferencePanelValidation(c *check.C) {
	_, err := NewReferencePanel(2, 2, []byte{1, 0}, []float64{1, 2}, 10) // haplotypes wrong length
	c.Check(err, check.NotNil)

	_, err = NewReferencePanel(1, 2, []byte{1, 0}, []float64{1}, 10) // positions wrong length
	c.Check(err, check.NotNil)

	_, err = NewReferencePanel(1, 2, []byte{1, 2}, []float64{1, 2}, 10) // invalid allele byte
	c.Check(err, check.NotNil)

	_, err = NewReferencePanel(1, 2, []byte{1, 0}, []float64{2, 1}, 10) // non-increasing positions
	c.Check(err, check.NotNil)

	_, err = NewReferencePanel(1, 2, []byte{1, 0}, []float64{1, 2}, 2) // sequence_length too small
	c.Check(err, check.NotNil)
}

func (s *referencePanelSuite) TestGetHaplotypesIsDefensiveCopy(c *check.C) {
	p, err := NewReferencePanel(1, 1, []byte{1}, []float64{5}, 10)
	c.Assert(err, check.IsNil)
	rows := p.GetHaplotypes()
	rows[0][0] = 0
	c.Check(p.allele(0, 0), check.Equals, Allele(1))
}
