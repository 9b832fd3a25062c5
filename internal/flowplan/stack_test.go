package flowplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
)

func TestPickByDraw_SecondVariantChosenAtMidpoint(t *testing.T) {
	// Concrete scenario 6: probabilities [0.3, 0.7], draw 0.5 -> second
	// variant (cumulative: 0.3, then 1.0; 0.5 falls past the first).
	id := uint16(42)
	variants := []EncapsulationVariant{
		{Probability: 0.3, Layers: []EncapLayer{{Vlan: &id}}},
		{Probability: 0.7, Layers: []EncapLayer{{Mpls: func() *uint32 { v := uint32(100); return &v }()}}},
	}

	got := pickByDraw(0.5, variants)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Vlan)
	assert.NotNil(t, got[0].Mpls)
}

func TestChooseEncapsulation_EmptyListMeansNoEncapsulation(t *testing.T) {
	got, err := chooseEncapsulation(rng.New(1), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChooseEncapsulation_ZeroProbabilitySumIsInvalidConfig(t *testing.T) {
	_, err := chooseEncapsulation(rng.New(1), []EncapsulationVariant{{Probability: 0}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildStack_UnknownL3IsUnknownProtocol(t *testing.T) {
	profile := flowmodel.Profile{L3: flowmodel.L3Unknown, L4: flowmodel.L4TCP}
	_, err := buildStack(rng.New(1), Config{}, profile)
	assert.ErrorIs(t, err, flowmodel.ErrUnknownProtocol)
}

func TestBuildStack_TCPGetsAPayloadLayer(t *testing.T) {
	profile := flowmodel.Profile{L3: flowmodel.L3IPv4, L4: flowmodel.L4TCP}
	stack, err := buildStack(rng.New(1), Config{}, profile)
	require.NoError(t, err)
	assert.Equal(t, 4, stack.Len()) // Ethernet, IPv4, Tcp, Payload
}

func TestBuildStack_ICMPGetsNoPayloadLayer(t *testing.T) {
	profile := flowmodel.Profile{
		L3: flowmodel.L3IPv4, L4: flowmodel.L4ICMP,
		ForwardPackets: 50, ReversePackets: 50,
		ForwardBytes: 75000, ReverseBytes: 75000,
	}
	stack, err := buildStack(rng.New(1), Config{}, profile)
	require.NoError(t, err)
	assert.Equal(t, 3, stack.Len()) // Ethernet, IPv4, IcmpEcho
}
