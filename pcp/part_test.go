package pcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartLenData(t *testing.T) {
	p := NewPart(5, 0x15) // 10101
	assert.Equal(t, uint8(5), p.Len())
	assert.Equal(t, uint64(0x15), p.Data())
}

func TestPartShift(t *testing.T) {
	p := NewPart(5, 0x15) // 10101, low bit 1
	p.shift(1)
	assert.Equal(t, uint8(4), p.Len())
	assert.Equal(t, uint64(0x0A), p.Data()) // 1010
}

func TestPartShiftData(t *testing.T) {
	p := NewPart(6, 0x2B) // 101011
	data := p.shiftData(3)
	assert.Equal(t, uint64(0x3), data) // low 3 bits: 011
	assert.Equal(t, uint8(3), p.Len())
	assert.Equal(t, uint64(0x5), p.Data()) // remaining 101
}

func TestShiftPrefixCommon(t *testing.T) {
	a := NewPart(4, 0b1010)
	b := NewPart(6, 0b011010)
	shiftPrefix(&a, &b)

	assert.Equal(t, uint8(0), a.Len())
	assert.Equal(t, uint8(2), b.Len())
	assert.Equal(t, uint64(0b01), b.Data())
}

func TestShiftPrefixNoCommon(t *testing.T) {
	a := NewPart(3, 0b001)
	b := NewPart(3, 0b010)
	shiftPrefix(&a, &b)

	assert.Equal(t, uint8(3), a.Len())
	assert.Equal(t, uint8(3), b.Len())
}

func TestShiftPrefixIdentical(t *testing.T) {
	a := NewPart(8, 0xAB)
	b := NewPart(8, 0xAB)
	shiftPrefix(&a, &b)

	assert.Equal(t, uint8(0), a.Len())
	assert.Equal(t, uint8(0), b.Len())
}

func TestMask64(t *testing.T) {
	assert.Equal(t, uint64(0), mask64(0))
	assert.Equal(t, uint64(0x1), mask64(1))
	assert.Equal(t, uint64(0xFF), mask64(8))
	assert.Equal(t, ^uint64(0), mask64(64))
}
