package layers

import (
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// ICMPUnreachableSizeV6 is the structural size (IP + above) of an
// Icmpv6Random packet: an 8-byte ICMPv6 header, 4 reserved bytes, and the
// embedded 40-byte IPv6 header plus 8-byte UDP header of the "original"
// packet it claims is unreachable.
const ICMPUnreachableSizeV6 = 8 + 4 + 40 + 8

// Icmpv6Echo builds ping-style ICMPv6 echo request/reply packets sized by
// the normal packet-size distributor.
type Icmpv6Echo struct {
	index int
	id    uint16
	seq   uint16
}

// NewIcmpv6Echo returns an Icmpv6Echo layer at stack position index.
func NewIcmpv6Echo(index int) *Icmpv6Echo {
	return &Icmpv6Echo{index: index}
}

func (e *Icmpv6Echo) PlanFlow(flow layer.Flow) error {
	e.id = uint16(flow.Rng().RandomUInt(0, 0xFFFF))
	return nil
}

func (e *Icmpv6Echo) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	e.seq++

	typeCode := layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0)
	if plan.Direction == flowmodel.DirectionReverse {
		typeCode = layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoReply, 0)
	}

	icmp := &layers.ICMPv6{TypeCode: typeCode}
	if nl := pkt.NetworkLayer(); nl != nil {
		if err := icmp.SetNetworkLayerForChecksum(nl); err != nil {
			return err
		}
	}
	pkt.Push(icmp)
	pkt.Push(&layers.ICMPv6Echo{Identifier: e.id, SeqNumber: e.seq})

	n := int(plan.Size) - 8 - 4
	if n < 0 {
		n = 0
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	pkt.Push(gopacket.Payload(data))

	return nil
}

// Icmpv6Random builds fixed-structure ICMPv6 destination-unreachable
// packets: every plan is pinned to ICMPUnreachableSizeV6 during planning.
type Icmpv6Random struct {
	index int
}

// NewIcmpv6Random returns an Icmpv6Random layer at stack position index.
func NewIcmpv6Random(index int) *Icmpv6Random {
	return &Icmpv6Random{index: index}
}

func (r *Icmpv6Random) PlanFlow(flow layer.Flow) error {
	for _, plan := range flow.Plans() {
		plan.Size = ICMPUnreachableSizeV6
		plan.IsFinished = true
	}
	return nil
}

func (r *Icmpv6Random) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	embeddedIP := &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolUDP,
		SrcIP:      make([]byte, 16),
		DstIP:      make([]byte, 16),
	}
	embeddedUDP := &layers.UDP{SrcPort: 0, DstPort: 0}
	embeddedUDP.SetNetworkLayerForChecksum(embeddedIP)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, embeddedIP, embeddedUDP); err != nil {
		return err
	}

	icmp := &layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeDestinationUnreachable, layers.ICMPv6CodePortUnreachable),
	}
	if nl := pkt.NetworkLayer(); nl != nil {
		if err := icmp.SetNetworkLayerForChecksum(nl); err != nil {
			return err
		}
	}
	pkt.Push(icmp)
	pkt.Push(gopacket.Payload(append(make([]byte, 4), buf.Bytes()...)))

	return nil
}
