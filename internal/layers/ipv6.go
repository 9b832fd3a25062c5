package layers

import (
	"fmt"
	"net/netip"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// IPv6Config is the subset of the config `ipv6:` block the layer needs.
type IPv6Config struct {
	Ranges                   []netip.Prefix
	FragmentationProbability float64
	MinPacketSizeToFragment  uint64
}

// IPv6Params mirrors IPv4Params: an identification value (carried in the
// IPv6 fragment extension header rather than the base header) and the
// fragmentation decision made during planning.
type IPv6Params struct {
	ID       uint32
	Fragment bool
	FirstLen int
}

// IPv6 builds the network layer for IPv6 flows, fragmenting via the RFC
// 8200 §4.5 extension header when PostBuild decides to.
type IPv6 struct {
	index int
	cfg   IPv6Config

	nextHeader layers.IPProtocol
	fwdIP      netip.Addr
	revIP      netip.Addr

	nextID uint32
}

// NewIPv6 returns an IPv6 layer at stack position index.
func NewIPv6(index int, cfg IPv6Config) *IPv6 {
	return &IPv6{index: index, cfg: cfg}
}

func (v *IPv6) PlanFlow(flow layer.Flow) error {
	next := flow.LayerAt(v.index + 1)
	nh, ok := ipv6NextHeaderOf(next)
	if !ok {
		return fmt.Errorf("layers: ipv6: no next-header for successor layer %T", next)
	}
	v.nextHeader = nh

	profile := flow.Profile()
	v.fwdIP = pickAddr(profile.SrcIP, v.cfg.Ranges, flow.Rng(), flow.AddrGen(), true)
	v.revIP = pickAddr(profile.DstIP, v.cfg.Ranges, flow.Rng(), flow.AddrGen(), true)

	for _, plan := range flow.Plans() {
		v.nextID++
		params := IPv6Params{ID: v.nextID}

		if v.cfg.FragmentationProbability > 0 && plan.Size >= v.cfg.MinPacketSizeToFragment {
			if flow.Rng().RandomDouble(0, 1) < v.cfg.FragmentationProbability {
				params.Fragment = true
				half := (int(plan.Size) / 2) &^ 7
				if half < 8 {
					half = 8
				}
				params.FirstLen = half
			}
		}

		plan.SetParamFor(v.index, params)
	}

	return nil
}

func (v *IPv6) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	src, dst := v.fwdIP, v.revIP
	if plan.Direction == flowmodel.DirectionReverse {
		src, dst = v.revIP, v.fwdIP
	}

	ip := &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: v.nextHeader,
		SrcIP:      src.AsSlice(),
		DstIP:      dst.AsSlice(),
	}
	pkt.Push(ip)
	pkt.SetNetworkLayer(ip)
	return nil
}

// PostBuild splits a packet marked Fragment in its IPv6Params into two
// fragments joined by an IPv6 fragment extension header (RFC 8200 §4.5).
func (v *IPv6) PostBuild(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	p, _ := params.(IPv6Params)
	if !p.Fragment {
		return nil
	}

	full := pkt.Bytes()
	parsed := gopacket.NewPacket(full, layers.LayerTypeEthernet, gopacket.NoCopy)
	ipLayer := parsed.Layer(layers.LayerTypeIPv6)
	if ipLayer == nil {
		return fmt.Errorf("layers: ipv6: postbuild: no IPv6 layer in serialized packet")
	}
	ip6 := ipLayer.(*layers.IPv6)

	prefixLen := len(full) - len(ip6.Contents) - len(ip6.Payload)
	prefix := full[:prefixLen]
	payload := ip6.Payload

	firstLen := p.FirstLen
	if firstLen <= 0 || firstLen >= len(payload) {
		firstLen = (len(payload) / 2) &^ 7
	}
	if firstLen == 0 && len(payload) > 0 {
		firstLen = 8
	}
	if firstLen > len(payload) {
		firstLen = len(payload)
	}

	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	frag1 := &layers.IPv6{
		Version: 6, HopLimit: ip6.HopLimit, NextHeader: layers.IPProtocolIPv6Fragment,
		SrcIP: ip6.SrcIP, DstIP: ip6.DstIP,
	}
	fh1 := &layers.IPv6Fragment{
		NextHeader:     ip6.NextHeader,
		FragmentOffset: 0,
		MoreFragments:  true,
		Identification: p.ID,
	}
	buf1 := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf1, opts, frag1, fh1, gopacket.Payload(payload[:firstLen])); err != nil {
		return fmt.Errorf("layers: ipv6: fragment 1: %w", err)
	}
	pkt.EmitFragment(concat(prefix, buf1.Bytes()))

	frag2 := &layers.IPv6{
		Version: 6, HopLimit: ip6.HopLimit, NextHeader: layers.IPProtocolIPv6Fragment,
		SrcIP: ip6.SrcIP, DstIP: ip6.DstIP,
	}
	fh2 := &layers.IPv6Fragment{
		NextHeader:     ip6.NextHeader,
		FragmentOffset: uint16(firstLen / 8),
		MoreFragments:  false,
		Identification: p.ID,
	}
	buf2 := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf2, opts, frag2, fh2, gopacket.Payload(payload[firstLen:])); err != nil {
		return fmt.Errorf("layers: ipv6: fragment 2: %w", err)
	}
	pkt.EmitFragment(concat(prefix, buf2.Bytes()))

	return nil
}

// ipv6NextHeaderOf returns the IPv6 next-header value a transport layer
// contributes when it sits directly atop IPv6.
func ipv6NextHeaderOf(l layer.Layer) (layers.IPProtocol, bool) {
	switch l.(type) {
	case *Tcp:
		return layers.IPProtocolTCP, true
	case *Udp:
		return layers.IPProtocolUDP, true
	case *Icmpv6Echo, *Icmpv6Random:
		return layers.IPProtocolICMPv6, true
	default:
		return 0, false
	}
}
