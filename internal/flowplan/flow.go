// Package flowplan implements the Flow Planner: given a flow profile and
// configuration, it builds a layer stack, drives every planning phase, and
// produces a Flow ready for the packet builder to drain.
package flowplan

import (
	"github.com/CESNET/ft-generator/internal/addrgen"
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// Flow is a fully planned flow: its profile, layer stack, and the drained
// packet-plan vector in final (timestamp) order. It implements layer.Flow
// so layers can plan against it, and exposes a small extra surface the
// packet builder uses to drain it.
type Flow struct {
	profile flowmodel.Profile
	rng     *rng.Generator
	addr    *addrgen.Generator
	plans   []*flowmodel.PacketPlan
	stack   *layer.Stack

	fwdDist, revDist *sizedist.Distributor
}

func (f *Flow) Profile() flowmodel.Profile { return f.profile }
func (f *Flow) Rng() *rng.Generator        { return f.rng }
func (f *Flow) AddrGen() *addrgen.Generator { return f.addr }
func (f *Flow) Plans() []*flowmodel.PacketPlan { return f.plans }
func (f *Flow) LayerAt(i int) layer.Layer  { return f.stack.At(i) }
func (f *Flow) IndexOf(l layer.Layer) int  { return f.stack.IndexOf(l) }
func (f *Flow) Len() int                   { return f.stack.Len() }

// Distributor returns the packet-size distributor for dir. Valid from
// PostPlanFlow onward.
func (f *Flow) Distributor(dir flowmodel.Direction) *sizedist.Distributor {
	if dir == flowmodel.DirectionForward {
		return f.fwdDist
	}
	return f.revDist
}

// NumPackets returns the total number of packets (Pf+Pr) the flow plans.
func (f *Flow) NumPackets() int {
	return len(f.plans)
}

// PlanAt returns the packet plan at position i in final order.
func (f *Flow) PlanAt(i int) *flowmodel.PacketPlan {
	return f.plans[i]
}

// Stack returns the flow's layer stack, for the packet builder to drive.
func (f *Flow) Stack() *layer.Stack {
	return f.stack
}
