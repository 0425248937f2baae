// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/biogo/store/llrb"
	"github.com/timnn/pcp-go/pcp"
)

// bucketKey buckets residuals by (leading side, residual length) and keeps
// a running count, the same key-plus-mutable-payload shape
// bampair.ShardInfo uses its own llrb.Tree keys for: a small Comparable
// struct that carries a pointer to the thing actually being updated, so a
// repeat Insert of an equal key can mutate in place instead of replacing
// the tree node.
type bucketKey struct {
	leading pcp.Side
	length  int
	count   *int
}

// Compare orders first by leading side, then by residual length; count
// never participates in ordering.
func (k bucketKey) Compare(c2 llrb.Comparable) int {
	o := c2.(bucketKey)
	if k.leading != o.leading {
		if k.leading == pcp.Top {
			return -1
		}
		return 1
	}
	return k.length - o.length
}

// analyzeWorkingSet buckets every node left in a working set's chunks by
// (leading, residual length) and prints one line per bucket, in ascending
// key order. This is the diagnostic --analyze requested; it never mutates
// the chunks it walks and has no bearing on search correctness.
//
// The original's analyze() (stats.rs) sorts chunks in place by the same
// key and prints run lengths; this keeps the same grouping key but counts
// via an llrb.Tree instead, the way bampair.ShardInfo indexes its own
// per-shard counters — a deliberate divergence, not an oversight (see
// DESIGN.md).
func analyzeWorkingSet(out io.Writer, chunks []*pcp.Chunk) {
	tree := llrb.Tree{}

	for _, c := range chunks {
		for _, n := range c.Nodes() {
			k := bucketKey{leading: n.State.Leading(), length: n.State.ResidualBits()}
			if existing := tree.Get(k); existing != nil {
				*existing.(bucketKey).count++
				continue
			}
			one := 1
			k.count = &one
			tree.Insert(k)
		}
	}

	fmt.Fprintf(out, "residual buckets (leading, length): count\n")
	tree.Do(func(c llrb.Comparable) bool {
		k := c.(bucketKey)
		fmt.Fprintf(out, "  (%s, %d): %d\n", k.leading, k.length, *k.count)
		return false
	})
}
