package pcp

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineRunFindsImmediateSolution(t *testing.T) {
	ResetCounters()
	pairs := []ConfiguredPair{
		{Pair: Pair{A: NewPart(1, 1), B: NewPart(1, 1)}, SumInc: 1, DepthInc: 1},
	}
	pool := NewChunkPool()
	defer pool.Close()

	var out bytes.Buffer
	e := NewEngine(pairs, 1, 10, pool, NewIterStats(&out))
	e.Out = &out

	sol, ok := e.Run(context.Background())
	assert.True(t, ok)
	assert.Equal(t, uint64(1), sol.Sum)
	assert.Equal(t, uint64(1), sol.Depth)
	assert.Contains(t, out.String(), "success! n: 1, s: 1")
}

// The pair ("0", "1") mismatches on the very first apply: both tokens are a
// single symbol and they differ, so VPair.Apply never even produces a
// resultMatch, and current is empty again after iteration 0. Run must still
// keep iterating — counting iterations, not survivors — all the way to
// MaxIter before reporting "no success", matching solve.rs's unconditional
// iter_cnt loop (see the "no early exit on an empty current" property in
// DESIGN.md's engine.go entry).
func TestEngineRunReportsNoSuccess(t *testing.T) {
	ResetCounters()
	pairs := []ConfiguredPair{
		{Pair: Pair{A: NewPart(1, 0), B: NewPart(1, 1)}, SumInc: 1, DepthInc: 1},
	}
	pool := NewChunkPool()
	defer pool.Close()

	stats := NewIterStats(&bytes.Buffer{})
	var out bytes.Buffer
	e := NewEngine(pairs, 1, 20, pool, stats)
	e.Out = &out

	_, ok := e.Run(context.Background())
	assert.False(t, ok)
	assert.Contains(t, out.String(), "no success")
	assert.Equal(t, 20, stats.IterCount())
}

// A two-pair chain: the first pair always leaves bottom ahead by one "1"
// bit (TestVPairApplyLeadSwitch); the second feeds that residual a matching
// "1" on top and nothing on bottom, which lets the overlap step consume the
// residual and immediately exhaust both sides — completing at depth 2.
func TestEngineRunFindsMultiStepSolution(t *testing.T) {
	ResetCounters()
	pairs := []ConfiguredPair{
		{Pair: Pair{A: NewPart(1, 0b1), B: NewPart(2, 0b11)}, SumInc: 1, DepthInc: 1},
		{Pair: Pair{A: NewPart(1, 0b1), B: NewPart(0, 0)}, SumInc: 2, DepthInc: 1},
	}
	pool := NewChunkPool()
	defer pool.Close()

	var out bytes.Buffer
	e := NewEngine(pairs, 2, 10, pool, NewIterStats(&out))
	e.Out = &out

	sol, ok := e.Run(context.Background())
	assert.True(t, ok)
	assert.Equal(t, uint64(2), sol.Depth)
	assert.Equal(t, uint64(3), sol.Sum)
}

func TestEngineRunRespectsCancellation(t *testing.T) {
	ResetCounters()
	// This pair survives one apply and dies at the second, but with MaxIter
	// 0 Run counts iterations, not survivors, so it would never end on its
	// own; only the cancelled context stops it.
	pairs := []ConfiguredPair{
		{Pair: Pair{A: NewPart(2, 0b10), B: NewPart(1, 0b0)}, SumInc: 1, DepthInc: 1},
	}
	pool := NewChunkPool()
	defer pool.Close()

	var out bytes.Buffer
	e := NewEngine(pairs, 1, 0, pool, NewIterStats(&out))
	e.Out = &out

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := e.Run(ctx)
	assert.False(t, ok)
}
