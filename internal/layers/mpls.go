package layers

import (
	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Mpls is a single MPLS label-stack entry (config: {mpls: {label}}). The
// wire format has no next-protocol field of its own; only the
// bottom-of-stack bit is ours to compute, from whether another Mpls layer
// follows.
type Mpls struct {
	index int
	label uint32

	bottomOfStack bool
}

// NewMpls returns an Mpls layer at stack position index pushing label.
func NewMpls(index int, label uint32) *Mpls {
	return &Mpls{index: index, label: label}
}

func (m *Mpls) PlanFlow(flow layer.Flow) error {
	_, nextIsMpls := flow.LayerAt(m.index + 1).(*Mpls)
	m.bottomOfStack = !nextIsMpls
	return nil
}

func (m *Mpls) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	pkt.Push(&layers.MPLS{
		Label:       m.label,
		TTL:         64,
		StackBottom: m.bottomOfStack,
	})
	return nil
}
