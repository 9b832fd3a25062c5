package flowplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

func testConfig() Config {
	return Config{
		SizeIntervals: []sizedist.Interval{{From: 50, To: 1450, Probability: 1.0}},
	}
}

// Concrete scenario 1: Pf=10, Pr=0, Bf=1500, L3=IPv4, L4=UDP, Ts=Te=1.0s.
func TestPlanner_Scenario1_AllForwardSameTimestamp(t *testing.T) {
	planner := New(nil, rng.New(42), testConfig())
	profile := flowmodel.Profile{
		ForwardPackets: 10, ForwardBytes: 1500,
		L3: flowmodel.L3IPv4, L4: flowmodel.L4UDP,
		Start: flowmodel.Timestamp{Sec: 1}, End: flowmodel.Timestamp{Sec: 1},
	}

	flow, err := planner.Plan(profile, 1)
	require.NoError(t, err)
	require.Equal(t, 10, flow.NumPackets())

	var sum uint64
	for i := 0; i < flow.NumPackets(); i++ {
		plan := flow.PlanAt(i)
		assert.Equal(t, flowmodel.DirectionForward, plan.Direction)
		assert.Equal(t, flowmodel.Timestamp{Sec: 1}, plan.Timestamp)
		sum += plan.Size
	}

	ratio := relDiff(sum, 1500) / 1500.0
	assert.LessOrEqual(t, ratio, 0.2)
}

// Concrete scenario 2: Pf=1, Pr=1, Bf=Br=60, L3=IPv6, L4=TCP.
func TestPlanner_Scenario2_OnePerDirectionAtBoundaryTimestamps(t *testing.T) {
	planner := New(nil, rng.New(42), testConfig())
	profile := flowmodel.Profile{
		ForwardPackets: 1, ReversePackets: 1,
		ForwardBytes: 60, ReverseBytes: 60,
		L3: flowmodel.L3IPv6, L4: flowmodel.L4TCP,
		Start: flowmodel.Timestamp{Sec: 1}, End: flowmodel.Timestamp{Sec: 2},
	}

	flow, err := planner.Plan(profile, 1)
	require.NoError(t, err)
	require.Equal(t, 2, flow.NumPackets())

	dirs := map[flowmodel.Direction]bool{}
	for i := 0; i < flow.NumPackets(); i++ {
		dirs[flow.PlanAt(i).Direction] = true
	}
	assert.True(t, dirs[flowmodel.DirectionForward])
	assert.True(t, dirs[flowmodel.DirectionReverse])

	assert.Equal(t, profile.Start, flow.PlanAt(0).Timestamp)
	assert.Equal(t, profile.End, flow.PlanAt(1).Timestamp)
}

// Concrete scenario 4: L4=ICMP with L3=IPv6 is a protocol mismatch.
func TestPlanner_Scenario4_ICMPWithIPv6IsProtocolMismatch(t *testing.T) {
	planner := New(nil, rng.New(42), testConfig())
	profile := flowmodel.Profile{
		ForwardPackets: 1, ForwardBytes: 60,
		L3: flowmodel.L3IPv6, L4: flowmodel.L4ICMP,
	}

	_, err := planner.Plan(profile, 1)
	assert.ErrorIs(t, err, flowmodel.ErrProtocolMismatch)
}

func TestPlanner_Scenario5_InvalidAddressSeedRejected(t *testing.T) {
	planner := New(nil, rng.New(42), testConfig())
	profile := flowmodel.Profile{
		ForwardPackets: 1, ForwardBytes: 60,
		L3: flowmodel.L3IPv4, L4: flowmodel.L4UDP,
	}

	_, err := planner.Plan(profile, 0)
	assert.Error(t, err)
}

func TestPlanner_TimestampsAreNondecreasing(t *testing.T) {
	planner := New(nil, rng.New(7), testConfig())
	profile := flowmodel.Profile{
		ForwardPackets: 20, ReversePackets: 15,
		ForwardBytes: 30000, ReverseBytes: 20000,
		L3: flowmodel.L3IPv4, L4: flowmodel.L4UDP,
		Start: flowmodel.Timestamp{Sec: 100}, End: flowmodel.Timestamp{Sec: 200, Usec: 500000},
	}

	flow, err := planner.Plan(profile, 3)
	require.NoError(t, err)

	for i := 1; i < flow.NumPackets(); i++ {
		assert.LessOrEqual(t, flowmodel.Compare(flow.PlanAt(i-1).Timestamp, flow.PlanAt(i).Timestamp), 0)
	}
	assert.Equal(t, profile.Start, flow.PlanAt(0).Timestamp)
	assert.Equal(t, profile.End, flow.PlanAt(flow.NumPackets()-1).Timestamp)
}

func relDiff(got, want uint64) float64 {
	if got > want {
		return float64(got - want)
	}
	return float64(want - got)
}
