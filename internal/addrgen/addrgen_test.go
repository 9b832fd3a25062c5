package addrgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSeed(t *testing.T) {
	for _, seed := range []uint32{0, period + 1, lehmerModulus} {
		_, err := New(seed)
		assert.ErrorIs(t, err, ErrInvalidSeed, "seed=%d", seed)
	}
}

func TestNew_ValidSeedBoundaries(t *testing.T) {
	_, err := New(1)
	require.NoError(t, err)

	_, err = New(period)
	require.NoError(t, err)
}

func TestGenerateIPv4_SeedOne(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	addr := g.GenerateIPv4()
	assert.Equal(t, "0.0.188.143", addr.String())
}

func TestGenerateMAC_ConsumesTwoValuesDroppingLowBits(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	v0 := lehmerStep(1)
	v1 := lehmerStep(v0)
	want := []byte{
		byte(v0 >> 24), byte(v0 >> 16), byte(v0 >> 8), byte(v0),
		byte(v1 >> 24), byte(v1 >> 16),
	}

	mac := g.GenerateMAC()
	assert.Equal(t, want, []byte(mac))
}

func TestGenerator_ReseedsAfterPeriodExhausted(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	// Force the capacity counter to the edge of exhaustion without
	// actually iterating 2^31-2 times.
	g.capacity = 1
	seedStateBefore := g.seedState

	g.next() // capacity 1 -> 0, no reseed yet
	assert.Equal(t, uint64(0), g.capacity)

	g.next() // capacity is 0, triggers reseed before drawing
	assert.NotEqual(t, seedStateBefore, g.seedState)
	assert.Equal(t, uint64(period-1), g.capacity)
}

func TestGenerateIPv6_Is16Bytes(t *testing.T) {
	g, err := New(42)
	require.NoError(t, err)

	addr := g.GenerateIPv6()
	assert.True(t, addr.Is6())
}
