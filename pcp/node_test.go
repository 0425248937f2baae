package pcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNodeIsComplete(t *testing.T) {
	n := NewNode()
	assert.True(t, n.State.IsComplete())
	assert.Equal(t, uint64(0), n.Sum)
	assert.Equal(t, uint64(0), n.Depth)
}

func TestNodeApplyAccumulatesSumAndDepth(t *testing.T) {
	n := NewNode()
	cp := ConfiguredPair{
		Pair:     Pair{A: NewPart(1, 1), B: NewPart(2, 0b11)},
		SumInc:   3,
		DepthInc: 1,
	}

	next, ok := n.Apply(cp)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), next.Sum)
	assert.Equal(t, uint64(1), next.Depth)
	assert.False(t, next.State.IsComplete())
}

func TestNodeApplyMismatchReturnsZeroNode(t *testing.T) {
	n := NewNode()
	cp := ConfiguredPair{Pair: Pair{A: NewPart(1, 0), B: NewPart(1, 1)}}

	next, ok := n.Apply(cp)
	assert.False(t, ok)
	assert.Equal(t, Node{}, next)
}
