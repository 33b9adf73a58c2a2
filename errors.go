// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package tsinfer

import "errors"

// Error kinds surfaced across the AncestorBuilder, ReferencePanel and
// Threader surfaces. Every operation that can fail returns one of
// these wrapped with context via fmt.Errorf("...: %w", ...); callers
// should test with errors.Is.
var (
	// ErrOutOfMemory is returned when an arena or scratch-buffer
	// allocation failed. The affected operation leaves the
	// caller's outputs unmodified.
	ErrOutOfMemory = errors.New("tsinfer: out of memory")

	// ErrInvalidArgument is returned when a precondition on shape,
	// index range, or numeric domain is violated.
	ErrInvalidArgument = errors.New("tsinfer: invalid argument")

	// ErrUninitialised is returned when an operation is invoked on
	// a Builder, ReferencePanel or Threader that failed
	// construction, or was used out of its required call order
	// (e.g. make_ancestor before finalise).
	ErrUninitialised = errors.New("tsinfer: uninitialised")
)
