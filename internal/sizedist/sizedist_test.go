package sizedist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/rng"
)

func uniformIntervals() []Interval {
	return []Interval{
		{From: 50, To: 1450, Probability: 1.0},
	}
}

func TestPlanRemaining_ZeroPacketsOrBytes(t *testing.T) {
	d := New(nil, rng.New(1), uniformIntervals(), 0, 1000)
	d.PlanRemaining()
	assert.Empty(t, d.values)

	d2 := New(nil, rng.New(1), uniformIntervals(), 5, 0)
	d2.PlanRemaining()
	for range 5 {
		assert.Equal(t, uint64(0), d2.GetValue())
	}
}

func TestPlanRemaining_SinglePacketGetsWholeBudget(t *testing.T) {
	d := New(nil, rng.New(1), uniformIntervals(), 1, 1500)
	d.PlanRemaining()
	assert.Equal(t, uint64(1500), d.GetValue())
}

func TestPlanRemaining_SumWithinTolerance(t *testing.T) {
	const numPkts, numBytes = 10, 1500

	d := New(nil, rng.New(42), uniformIntervals(), numPkts, numBytes)
	d.PlanRemaining()

	var sum uint64
	for range numPkts {
		sum += d.GetValue()
	}

	maxDiff := uint64(maxDiffRatio * numBytes)
	if maxDiff < minDiff {
		maxDiff = minDiff
	}

	var diff uint64
	if sum > numBytes {
		diff = sum - numBytes
	} else {
		diff = numBytes - sum
	}

	ratio := float64(diff) / float64(numBytes)
	assert.True(t, ratio <= fallbackRatio, "diff ratio %v should be within fallback bound (raw diff=%d, tolerance=%d)", ratio, diff, maxDiff)
}

func TestGetValueExact_ReservesBudgetWhenPoolEmpty(t *testing.T) {
	d := New(nil, rng.New(1), uniformIntervals(), 3, 300)
	d.GetValueExact(64)
	d.GetValueExact(64)
	d.GetValueExact(64)

	d.PlanRemaining()
	// All packets were pinned exactly, so PlanRemaining should have
	// nothing left to do.
	assert.Empty(t, d.values)
}

func TestGetValueExact_RemovesClosestPooledValue(t *testing.T) {
	d := &Distributor{
		rng:      rng.New(1),
		orig:     uniformIntervals(),
		numPkts:  3,
		numBytes: 300,
		values:   []uint64{10, 500, 1000},
	}

	d.GetValueExact(480)

	assert.Len(t, d.values, 2)
	assert.NotContains(t, d.values, uint64(500))
	assert.Equal(t, uint64(1), d.assignedPkts)
	assert.Equal(t, uint64(480), d.assignedBytes)
}

func TestGenerate_FallsBackToUniformWhenUnreachable(t *testing.T) {
	// Intervals that can never sum anywhere near the target force the
	// degenerate uniform fallback (desiredBytes/desiredBytes == 1 per
	// packet, preserved verbatim from the source behavior).
	d := New(nil, rng.New(7), []Interval{{From: 1, To: 1, Probability: 1}}, 5, 100000)
	d.PlanRemaining()

	for range 5 {
		assert.Equal(t, uint64(1), d.GetValue())
	}
}

func TestReport_ComputesRelativeDifference(t *testing.T) {
	d := New(nil, rng.New(1), uniformIntervals(), 1, 1000)
	d.PlanRemaining()
	require.Equal(t, uint64(1000), d.GetValue())

	bytesDiff, pktsDiff := d.Report()
	assert.Equal(t, 0.0, bytesDiff)
	assert.Equal(t, 0.0, pktsDiff)
}
