// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package pcp implements a parallel breadth-first brute-force search for
// solutions to the Post Correspondence Problem: given a finite collection of
// string pairs (a_i, b_i), find an ordered sequence of indices i1, i2, ...,
// in such that concatenating the top strings equals concatenating the
// bottom strings.
//
// The package exposes a compact bit-packed residual representation (Part,
// Pair, VPair), a slab-style Chunk allocator, and an Engine that drives a
// worker pool over successive breadth-first depths. Everything outside this
// package — CLI flags, problem-file parsing, alphabet construction,
// printing — is a thin adapter; see cmd/pcp-solve.
package pcp
