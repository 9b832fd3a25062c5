package layers

import (
	"net/netip"
	"testing"

	"github.com/gopacket/gopacket"
	gplayers "github.com/gopacket/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/addrgen"
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// fakeFlow is a minimal layer.Flow for exercising individual layers and
// small stacks without going through the full planner.
type fakeFlow struct {
	profile flowmodel.Profile
	rng     *rng.Generator
	addr    *addrgen.Generator
	plans   []*flowmodel.PacketPlan
	stack   *layer.Stack
}

func newFakeFlow(t *testing.T, profile flowmodel.Profile, numPlans int) *fakeFlow {
	t.Helper()
	addr, err := addrgen.New(1)
	require.NoError(t, err)

	plans := make([]*flowmodel.PacketPlan, numPlans)
	for i := range plans {
		plans[i] = &flowmodel.PacketPlan{}
	}

	return &fakeFlow{
		profile: profile,
		rng:     rng.New(1),
		addr:    addr,
		plans:   plans,
		stack:   layer.NewStack(),
	}
}

func (f *fakeFlow) Profile() flowmodel.Profile      { return f.profile }
func (f *fakeFlow) Rng() *rng.Generator             { return f.rng }
func (f *fakeFlow) AddrGen() *addrgen.Generator     { return f.addr }
func (f *fakeFlow) Plans() []*flowmodel.PacketPlan  { return f.plans }
func (f *fakeFlow) LayerAt(i int) layer.Layer       { return f.stack.At(i) }
func (f *fakeFlow) IndexOf(l layer.Layer) int       { return f.stack.IndexOf(l) }
func (f *fakeFlow) Len() int                        { return f.stack.Len() }

func (f *fakeFlow) Distributor(flowmodel.Direction) *sizedist.Distributor { return nil }

func TestEthernetIPv4TcpPayload_BuildsAValidFrame(t *testing.T) {
	profile := flowmodel.Profile{L3: flowmodel.L3IPv4, L4: flowmodel.L4TCP}
	flow := newFakeFlow(t, profile, 1)

	eth := NewEthernet(0)
	ip := NewIPv4(1, IPv4Config{})
	tcp := NewTcp(2)
	payload := NewPayload(3)

	flow.stack.Add(eth)
	flow.stack.Add(ip)
	flow.stack.Add(tcp)
	flow.stack.Add(payload)

	require.NoError(t, flow.stack.PlanFlow(flow))

	plan := flow.plans[0]
	plan.Direction = flowmodel.DirectionForward
	plan.Size = 100

	segments, err := flow.stack.Build(plan)
	require.NoError(t, err)
	require.Len(t, segments, 1)

	parsed := gopacket.NewPacket(segments[0], gplayers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, parsed.ErrorLayer())

	ipLayer, ok := parsed.Layer(gplayers.LayerTypeIPv4).(*gplayers.IPv4)
	require.True(t, ok)
	assert.Equal(t, gplayers.IPProtocolTCP, ipLayer.Protocol)

	tcpLayer, ok := parsed.Layer(gplayers.LayerTypeTCP).(*gplayers.TCP)
	require.True(t, ok)
	assert.True(t, tcpLayer.ACK)
}

func TestIPv4_FragmentsWhenOverThreshold(t *testing.T) {
	profile := flowmodel.Profile{L3: flowmodel.L3IPv4, L4: flowmodel.L4UDP}
	flow := newFakeFlow(t, profile, 1)

	eth := NewEthernet(0)
	ip := NewIPv4(1, IPv4Config{FragmentationProbability: 1, MinPacketSizeToFragment: 50})
	udp := NewUdp(2)
	payload := NewPayload(3)

	flow.stack.Add(eth)
	flow.stack.Add(ip)
	flow.stack.Add(udp)
	flow.stack.Add(payload)

	require.NoError(t, flow.stack.PlanFlow(flow))

	plan := flow.plans[0]
	plan.Direction = flowmodel.DirectionForward
	plan.Size = 400

	segments, err := flow.stack.Build(plan)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	first := gopacket.NewPacket(segments[0], gplayers.LayerTypeEthernet, gopacket.Default)
	ip1 := first.Layer(gplayers.LayerTypeIPv4).(*gplayers.IPv4)
	assert.True(t, ip1.Flags&gplayers.IPv4MoreFragments != 0)
	assert.Equal(t, uint16(0), ip1.FragOffset)

	second := gopacket.NewPacket(segments[1], gplayers.LayerTypeEthernet, gopacket.Default)
	ip2 := second.Layer(gplayers.LayerTypeIPv4).(*gplayers.IPv4)
	assert.Equal(t, gplayers.IPv4Flag(0), ip2.Flags&gplayers.IPv4MoreFragments)
	assert.True(t, ip2.FragOffset > 0)
}

func TestOverlay_PreservesNetworkBitsAndUsesHostBits(t *testing.T) {
	prefix := netip.MustParsePrefix("10.0.0.0/24")
	raw := netip.MustParseAddr("1.2.3.200")

	got := overlay(prefix, raw)
	assert.True(t, prefix.Contains(got))
	assert.Equal(t, byte(200), got.As4()[3])
}

func TestPickAddr_PrefersProfileAddress(t *testing.T) {
	fixed := netip.MustParseAddr("192.0.2.5")
	gen := rng.New(1)
	addr, err := addrgen.New(1)
	require.NoError(t, err)

	got := pickAddr(fixed, nil, gen, addr, false)
	assert.Equal(t, fixed, got)
}
