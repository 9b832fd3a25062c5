package layers

import (
	"fmt"
	"net/netip"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// IPv4Config is the subset of the config `ipv4:` block the layer needs.
type IPv4Config struct {
	Ranges                   []netip.Prefix
	FragmentationProbability float64
	MinPacketSizeToFragment  uint64
}

// IPv4Params is the per-packet state IPv4 records during planning and
// consumes during Build/PostBuild: the IP identification field, and whether
// (and where) this packet's PostBuild should split it into two fragments.
type IPv4Params struct {
	ID       uint16
	Fragment bool
	FirstLen int
}

// IPv4 builds the network layer for IPv4 flows, optionally fragmenting
// packets above a configured size threshold (RFC 791).
type IPv4 struct {
	index int
	cfg   IPv4Config

	protocol layers.IPProtocol
	fwdIP    netip.Addr
	revIP    netip.Addr

	nextID uint16
}

// NewIPv4 returns an IPv4 layer at stack position index.
func NewIPv4(index int, cfg IPv4Config) *IPv4 {
	return &IPv4{index: index, cfg: cfg}
}

func (v *IPv4) PlanFlow(flow layer.Flow) error {
	next := flow.LayerAt(v.index + 1)
	proto, ok := ipProtocolOf(next)
	if !ok {
		return fmt.Errorf("layers: ipv4: no protocol number for successor layer %T", next)
	}
	v.protocol = proto

	profile := flow.Profile()
	v.fwdIP = pickAddr(profile.SrcIP, v.cfg.Ranges, flow.Rng(), flow.AddrGen(), false)
	v.revIP = pickAddr(profile.DstIP, v.cfg.Ranges, flow.Rng(), flow.AddrGen(), false)

	for _, plan := range flow.Plans() {
		v.nextID++
		params := IPv4Params{ID: v.nextID}

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

func (v *IPv4) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	p, _ := params.(IPv4Params)

	src, dst := v.fwdIP, v.revIP
	if plan.Direction == flowmodel.DirectionReverse {
		src, dst = v.revIP, v.fwdIP
	}

	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Id:       p.ID,
		Protocol: v.protocol,
		SrcIP:    src.AsSlice(),
		DstIP:    dst.AsSlice(),
	}
	pkt.Push(ip)
	pkt.SetNetworkLayer(ip)
	return nil
}

// PostBuild splits a packet marked Fragment in its IPv4Params into two RFC
// 791 fragments, once the first Serialize pass has produced checksummed
// bytes to carve up.
func (v *IPv4) PostBuild(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	p, _ := params.(IPv4Params)
	if !p.Fragment {
		return nil
	}

	full := pkt.Bytes()
	parsed := gopacket.NewPacket(full, layers.LayerTypeEthernet, gopacket.NoCopy)
	ipLayer := parsed.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return fmt.Errorf("layers: ipv4: postbuild: no IPv4 layer in serialized packet")
	}
	ip4 := ipLayer.(*layers.IPv4)

	prefixLen := len(full) - len(ip4.Contents) - len(ip4.Payload)
	prefix := full[:prefixLen]
	payload := ip4.Payload

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

	frag1 := &layers.IPv4{
		Version: 4, IHL: 5, TTL: ip4.TTL, Protocol: ip4.Protocol,
		Id: ip4.Id, SrcIP: ip4.SrcIP, DstIP: ip4.DstIP,
		Flags: layers.IPv4MoreFragments, FragOffset: 0,
	}
	buf1 := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf1, opts, frag1, gopacket.Payload(payload[:firstLen])); err != nil {
		return fmt.Errorf("layers: ipv4: fragment 1: %w", err)
	}
	pkt.EmitFragment(concat(prefix, buf1.Bytes()))

	frag2 := &layers.IPv4{
		Version: 4, IHL: 5, TTL: ip4.TTL, Protocol: ip4.Protocol,
		Id: ip4.Id, SrcIP: ip4.SrcIP, DstIP: ip4.DstIP,
		Flags: 0, FragOffset: uint16(firstLen / 8),
	}
	buf2 := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf2, opts, frag2, gopacket.Payload(payload[firstLen:])); err != nil {
		return fmt.Errorf("layers: ipv4: fragment 2: %w", err)
	}
	pkt.EmitFragment(concat(prefix, buf2.Bytes()))

	return nil
}

func concat(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// ipProtocolOf returns the IPv4 protocol number a transport layer
// contributes when it sits directly atop IPv4.
func ipProtocolOf(l layer.Layer) (layers.IPProtocol, bool) {
	switch l.(type) {
	case *Tcp:
		return layers.IPProtocolTCP, true
	case *Udp:
		return layers.IPProtocolUDP, true
	case *IcmpEcho, *IcmpRandom:
		return layers.IPProtocolICMPv4, true
	default:
		return 0, false
	}
}
