// Package layers implements the concrete protocol layers the flow planner
// assembles into a stack: Ethernet, optional VLAN/MPLS encapsulation, IPv4
// or IPv6 (with fragmentation), TCP/UDP/ICMP/ICMPv6, and the trailing
// payload filler.
package layers

import (
	"fmt"
	"net"

	"github.com/gopacket/gopacket/layers"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
)

// Ethernet is always the first layer in the stack. It allocates one MAC per
// direction from the flow's address generator during planning, and resolves
// its EthernetType from whatever layer immediately follows it in the stack
// (VLAN, MPLS, IPv4, or IPv6) since that never changes once the stack is
// built.
type Ethernet struct {
	index int

	fwdMAC, revMAC net.HardwareAddr
	ethType        layers.EthernetType
}

// NewEthernet returns an Ethernet layer at stack position index.
func NewEthernet(index int) *Ethernet {
	return &Ethernet{index: index}
}

func (e *Ethernet) PlanFlow(flow layer.Flow) error {
	e.fwdMAC = flow.AddrGen().GenerateMAC()
	e.revMAC = flow.AddrGen().GenerateMAC()

	next := flow.LayerAt(e.index + 1)
	ethType, ok := etherTypeOf(next)
	if !ok {
		return fmt.Errorf("layers: ethernet: no ethertype for successor layer %T", next)
	}
	e.ethType = ethType

	return nil
}

func (e *Ethernet) Build(pkt *layer.Packet, params any, plan *flowmodel.PacketPlan) error {
	src, dst := e.fwdMAC, e.revMAC
	if plan.Direction == flowmodel.DirectionReverse {
		src, dst = e.revMAC, e.fwdMAC
	}

	pkt.Push(&layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: e.ethType,
	})
	return nil
}

// etherTypeOf returns the EthernetType a layer contributes when it sits
// directly atop Ethernet, VLAN, or MPLS.
func etherTypeOf(l layer.Layer) (layers.EthernetType, bool) {
	switch l.(type) {
	case *Vlan:
		return layers.EthernetTypeDot1Q, true
	case *Mpls:
		return layers.EthernetTypeMPLSUnicast, true
	case *IPv4:
		return layers.EthernetTypeIPv4, true
	case *IPv6:
		return layers.EthernetTypeIPv6, true
	default:
		return 0, false
	}
}
