package layers

import (
	"github.com/gopacket/gopacket"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Payload is the trailing filler layer, present iff L4 is TCP or UDP. It
// pads each packet out to plan.Size by subtracting the L3 and L4 header
// sizes the two layers directly beneath it contribute.
type Payload struct {
	index    int
	overhead int
}

// NewPayload returns a Payload layer at stack position index.
func NewPayload(index int) *Payload {
	return &Payload{index: index}
}

func (p *Payload) PlanFlow(flow layer.Flow) error {
	p.overhead = headerLen(flow.LayerAt(p.index-1)) + headerLen(flow.LayerAt(p.index-2))
	return nil
}

func (p *Payload) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	n := int(plan.Size) - p.overhead
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

// headerLen returns the on-wire header size of one of the fixed-length
// layers Payload can sit beneath, 0 for anything else (including nil).
func headerLen(l layer.Layer) int {
	switch l.(type) {
	case *IPv4:
		return 20
	case *IPv6:
		return 40
	case *Tcp:
		return 20
	case *Udp:
		return 8
	default:
		return 0
	}
}
