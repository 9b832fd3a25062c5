package layers

import (
	"fmt"

	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Vlan is an 802.1Q encapsulation layer (config: {vlan: {id}}). Several can
// stack; each resolves its own inner EthernetType from its successor.
type Vlan struct {
	index int
	id    uint16

	innerType layers.EthernetType
}

// NewVlan returns a Vlan layer at stack position index tagging with id.
func NewVlan(index int, id uint16) *Vlan {
	return &Vlan{index: index, id: id}
}

func (v *Vlan) PlanFlow(flow layer.Flow) error {
	next := flow.LayerAt(v.index + 1)
	innerType, ok := etherTypeOf(next)
	if !ok {
		return fmt.Errorf("layers: vlan: no ethertype for successor layer %T", next)
	}
	v.innerType = innerType
	return nil
}

func (v *Vlan) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	pkt.Push(&layers.Dot1Q{
		VLANIdentifier: v.id,
		Type:           v.innerType,
	})
	return nil
}
