package flowplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layers"
)

func TestUseRandomICMP_LopsidedBalancedBudgetPicksRandom(t *testing.T) {
	// Concrete scenario 3: Pf=3, Pr=3, Bf=200, Br=200 -> ratioDiff=0,
	// bpp=400/6≈66.7 <= 1.10*36 -> IcmpRandom, because both directions
	// have <= 3 packets.
	profile := flowmodel.Profile{
		ForwardPackets: 3, ReversePackets: 3,
		ForwardBytes: 200, ReverseBytes: 200,
	}
	assert.True(t, useRandomICMP(profile, layers.ICMPUnreachableSizeV4))
}

func TestUseRandomICMP_HighRatioDiffPicksRandom(t *testing.T) {
	profile := flowmodel.Profile{
		ForwardPackets: 100, ReversePackets: 2,
		ForwardBytes: 3000, ReverseBytes: 60,
	}
	assert.True(t, useRandomICMP(profile, layers.ICMPUnreachableSizeV4))
}

func TestUseRandomICMP_LargeBalancedFlowPicksEcho(t *testing.T) {
	profile := flowmodel.Profile{
		ForwardPackets: 50, ReversePackets: 50,
		ForwardBytes: 75000, ReverseBytes: 75000,
	}
	assert.False(t, useRandomICMP(profile, layers.ICMPUnreachableSizeV4))
}

func TestUseRandomICMP_BothZeroPacketsTreatsRatioDiffAsOne(t *testing.T) {
	profile := flowmodel.Profile{}
	assert.True(t, useRandomICMP(profile, layers.ICMPUnreachableSizeV4))
}
