package layers

import (
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Udp builds RFC 768 UDP datagrams. Ports come from the profile when
// present, otherwise are drawn once from the shared RandomGenerator.
type Udp struct {
	index int

	fwdPort, revPort uint16
}

// NewUdp returns a Udp layer at stack position index.
func NewUdp(index int) *Udp {
	return &Udp{index: index}
}

func (u *Udp) PlanFlow(flow layer.Flow) error {
	profile := flow.Profile()

	u.fwdPort = profile.SrcPort
	if u.fwdPort == 0 {
		u.fwdPort = uint16(flow.Rng().RandomUInt(1024, 65535))
	}
	u.revPort = profile.DstPort
	if u.revPort == 0 {
		u.revPort = uint16(flow.Rng().RandomUInt(1024, 65535))
	}

	return nil
}

func (u *Udp) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	srcPort, dstPort := u.fwdPort, u.revPort
	if plan.Direction == flowmodel.DirectionReverse {
		srcPort, dstPort = u.revPort, u.fwdPort
	}

	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	if nl := pkt.NetworkLayer(); nl != nil {
		if err := udp.SetNetworkLayerForChecksum(nl); err != nil {
			return err
		}
	}
	pkt.Push(udp)
	return nil
}
