// Package builder drains a planned flow into wire-format packets: the
// external pull interface (§6) a PCAP sink consumes.
package builder

import (
	"errors"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/flowplan"
)

// ErrNoMorePackets is returned by Next once a flow's plan vector is
// drained; calling Next again afterward is a programmer error.
var ErrNoMorePackets = errors.New("builder: no more packets")

// Packet is one drained packet: its wire-format segments (more than one iff
// a layer fragmented it), direction, and timestamp.
type Packet struct {
	Segments  [][]byte
	Direction flowmodel.Direction
	Timestamp flowmodel.Timestamp
}

// Builder drains a planned Flow's packet plans in order, walking the
// layer stack's Build/PostBuild passes for each one.
type Builder struct {
	flow   *flowplan.Flow
	cursor int
}

// New returns a Builder draining flow from its first packet.
func New(flow *flowplan.Flow) *Builder {
	return &Builder{flow: flow}
}

// HasNext reports whether any packets remain.
func (b *Builder) HasNext() bool {
	return b.cursor < b.flow.NumPackets()
}

// Next builds and returns the next packet in timestamp order. It returns
// ErrNoMorePackets once the flow is drained.
func (b *Builder) Next() (Packet, error) {
	if !b.HasNext() {
		return Packet{}, ErrNoMorePackets
	}

	plan := b.flow.PlanAt(b.cursor)
	b.cursor++

	segments, err := b.flow.Stack().Build(plan)
	if err != nil {
		return Packet{}, err
	}

	return Packet{
		Segments:  segments,
		Direction: plan.Direction,
		Timestamp: plan.Timestamp,
	}, nil
}
