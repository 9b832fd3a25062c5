package layers

import (
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// ICMPUnreachableSizeV4 is the structural size (IP + above) of an
// IcmpRandom packet: an 8-byte ICMP header wrapping the 20-byte IPv4 header
// and 8-byte UDP header of the "original" packet it claims is unreachable.
const ICMPUnreachableSizeV4 = 8 + 20 + 8

// IcmpEcho builds ping-style ICMPv4 echo request/reply packets sized by the
// normal packet-size distributor: Forward plans carry echo requests and
// Reverse plans echo replies. The sequence number increments with every
// built packet, whatever its direction, so replies are not paired with
// particular requests.
type IcmpEcho struct {
	index int
	id    uint16
	seq   uint16
}

// NewIcmpEcho returns an IcmpEcho layer at stack position index.
func NewIcmpEcho(index int) *IcmpEcho {
	return &IcmpEcho{index: index}
}

func (e *IcmpEcho) PlanFlow(flow layer.Flow) error {
	e.id = uint16(flow.Rng().RandomUInt(0, 0xFFFF))
	return nil
}

func (e *IcmpEcho) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	e.seq++

	typeCode := layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)
	if plan.Direction == flowmodel.DirectionReverse {
		typeCode = layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0)
	}

	icmp := &layers.ICMPv4{
		TypeCode: typeCode,
		Id:       e.id,
		Seq:      e.seq,
	}
	pkt.Push(icmp)

	n := int(plan.Size) - 8
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

// IcmpRandom builds fixed-structure ICMPv4 destination-unreachable packets:
// every plan is pinned to ICMPUnreachableSizeV4 during planning, regardless
// of the distributor's normal output.
type IcmpRandom struct {
	index int
}

// NewIcmpRandom returns an IcmpRandom layer at stack position index.
func NewIcmpRandom(index int) *IcmpRandom {
	return &IcmpRandom{index: index}
}

func (r *IcmpRandom) PlanFlow(flow layer.Flow) error {
	for _, plan := range flow.Plans() {
		plan.Size = ICMPUnreachableSizeV4
		plan.IsFinished = true
	}
	return nil
}

func (r *IcmpRandom) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	embeddedIP := &layers.IPv4{
		Version:  4,
		IHL:      5,
		Length:   20 + 8,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    []byte{0, 0, 0, 0},
		DstIP:    []byte{0, 0, 0, 0},
	}
	embeddedUDP := &layers.UDP{SrcPort: 0, DstPort: 0, Length: 8}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, embeddedIP, embeddedUDP); err != nil {
		return err
	}

	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4CodePort),
	}
	pkt.Push(icmp)
	pkt.Push(gopacket.Payload(buf.Bytes()))

	return nil
}
