package layer

import "github.com/CESNET/ft-generator/internal/flowmodel"

// Layer is the mandatory capability set every layer implements: first-pass
// flow planning and byte emission. A concrete layer may additionally
// implement PostPlanner, ExtraPlanner, and/or PostBuilder; the stack probes
// for those via type assertion rather than requiring empty stub methods.
type Layer interface {
	// PlanFlow runs in stack order during the planner's first planning
	// pass. It may mark plans as finished with a structurally pinned size
	// (e.g. an ICMP unreachable error).
	PlanFlow(flow Flow) error

	// Build emits this layer's bytes into pkt for the packet described by
	// plan, using the per-packet params this layer recorded for plan
	// during planning (nil if it recorded none).
	Build(pkt *Packet, params any, plan *flowmodel.PacketPlan) error
}

// PostPlanner is implemented by layers that need a second planning pass,
// run in stack order after directions and sizes have both been assigned.
type PostPlanner interface {
	PostPlanFlow(flow Flow) error
}

// ExtraPlanner is implemented by layers that need one last planning pass,
// run in stack order after PostPlanFlow has run on every layer.
type ExtraPlanner interface {
	PlanExtra(flow Flow) error
}

// PostBuilder is implemented by layers that need to adjust a packet after
// every layer's Build has run and the result has been serialized once (e.g.
// IPv4/IPv6 fragmentation, which needs the fully computed transport-layer
// checksum before it can split the payload).
type PostBuilder interface {
	PostBuild(pkt *Packet, params any, plan *flowmodel.PacketPlan) error
}
