// Package layer defines the Layer abstraction the flow planner and packet
// builder drive: a protocol-specific component that plans its share of each
// packet and then emits its bytes.
package layer

import (
	"github.com/CESNET/ft-generator/internal/addrgen"
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// Flow is the view of the owning flow that a Layer's hooks are given. Layers
// hold a Flow plus their own stack index rather than a direct pointer to a
// concrete flow type, so sibling lookups (e.g. IPv4 asking the L4 layer for
// its protocol number) go through the stack instead of hand-wired pointers.
type Flow interface {
	// Profile returns the flow's read-only input profile.
	Profile() flowmodel.Profile

	// Rng returns the shared, process-wide random generator.
	Rng() *rng.Generator

	// AddrGen returns the flow's own address generator.
	AddrGen() *addrgen.Generator

	// Plans returns the full, mutable packet-plan vector, in final
	// timestamp order once timestamp assignment has run.
	Plans() []*flowmodel.PacketPlan

	// Distributor returns the packet-size distributor for dir. Valid from
	// PostPlanFlow onward; nil beforehand.
	Distributor(dir flowmodel.Direction) *sizedist.Distributor

	// LayerAt returns the layer at position i in the stack, or nil if i is
	// out of range.
	LayerAt(i int) Layer

	// IndexOf returns l's position in the stack, or -1 if l is not in it.
	IndexOf(l Layer) int

	// Len returns the number of layers in the stack.
	Len() int
}
