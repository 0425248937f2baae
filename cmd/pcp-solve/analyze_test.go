package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timnn/pcp-go/pcp"
)

func TestAnalyzeWorkingSetBucketsByLeadingAndLength(t *testing.T) {
	pool := pcp.NewChunkPool()
	defer pool.Close()

	w := pool.Writer()
	// Two nodes with an identical residual fall into the same bucket; a
	// third, freshly-completed node (empty residual) falls into its own.
	cp := pcp.ConfiguredPair{Pair: pcp.Pair{A: pcp.NewPart(2, 0b11), B: pcp.NewPart(1, 0b1)}}
	n1, ok := pcp.NewNode().Apply(cp)
	require.True(t, ok)
	n2, ok := pcp.NewNode().Apply(cp)
	require.True(t, ok)

	require.True(t, w.Push(n1))
	require.True(t, w.Push(n2))
	require.True(t, w.Push(pcp.NewNode()))

	var out bytes.Buffer
	analyzeWorkingSet(&out, []*pcp.Chunk{w.Chunk()})

	text := out.String()
	assert.Contains(t, text, "residual buckets")
	assert.Contains(t, text, ": 2\n")
	assert.Contains(t, text, ": 1\n")
}

func TestAnalyzeWorkingSetEmpty(t *testing.T) {
	var out bytes.Buffer
	analyzeWorkingSet(&out, nil)
	assert.Contains(t, out.String(), "residual buckets")
}
