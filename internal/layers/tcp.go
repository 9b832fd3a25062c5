package layers

import (
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Tcp builds RFC 9293 TCP segments. Ports come from the profile when
// present, otherwise are drawn once from the shared RandomGenerator.
type Tcp struct {
	index int

	fwdPort, revPort uint16
	seqFwd, seqRev   uint32
}

// NewTcp returns a Tcp layer at stack position index.
func NewTcp(index int) *Tcp {
	return &Tcp{index: index}
}

func (t *Tcp) PlanFlow(flow layer.Flow) error {
	profile := flow.Profile()

	t.fwdPort = profile.SrcPort
	if t.fwdPort == 0 {
		t.fwdPort = uint16(flow.Rng().RandomUInt(1024, 65535))
	}
	t.revPort = profile.DstPort
	if t.revPort == 0 {
		t.revPort = uint16(flow.Rng().RandomUInt(1024, 65535))
	}

	t.seqFwd = uint32(flow.Rng().RandomUInt(0, 0xFFFFFFFF))
	t.seqRev = uint32(flow.Rng().RandomUInt(0, 0xFFFFFFFF))

	return nil
}

func (t *Tcp) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	srcPort, dstPort := t.fwdPort, t.revPort
	seq, ack := t.seqFwd, t.seqRev
	if plan.Direction == flowmodel.DirectionReverse {
		srcPort, dstPort = t.revPort, t.fwdPort
		seq, ack = t.seqRev, t.seqFwd
	}

	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		Ack:     ack,
		ACK:     true,
		Window:  64240,
	}
	if nl := pkt.NetworkLayer(); nl != nil {
		if err := tcp.SetNetworkLayerForChecksum(nl); err != nil {
			return err
		}
	}
	pkt.Push(tcp)
	return nil
}
