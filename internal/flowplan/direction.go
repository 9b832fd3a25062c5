package flowplan

import (
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
)

// assignDirections implements §4.5 step 4: plans a layer has already pinned
// to a direction (e.g. a structurally-sized ICMP layer marking every plan)
// are left alone; the rest are shuffled between the remaining Forward/
// Reverse slots with a freshly default-seeded generator, independent of the
// run's main seed (see DESIGN.md).
func assignDirections(flow *Flow) {
	profile := flow.profile

	availFwd, availRev := profile.ForwardPackets, profile.ReversePackets
	for _, plan := range flow.plans {
		switch plan.Direction {
		case flowmodel.DirectionForward:
			if availFwd > 0 {
				availFwd--
			}
		case flowmodel.DirectionReverse:
			if availRev > 0 {
				availRev--
			}
		}
	}

	tokens := make([]flowmodel.Direction, 0, availFwd+availRev)
	for i := uint64(0); i < availFwd; i++ {
		tokens = append(tokens, flowmodel.DirectionForward)
	}
	for i := uint64(0); i < availRev; i++ {
		tokens = append(tokens, flowmodel.DirectionReverse)
	}

	shuffler := rng.DefaultSeeded()
	shuffler.Shuffle(len(tokens), func(i, j int) {
		tokens[i], tokens[j] = tokens[j], tokens[i]
	})

	next := 0
	for _, plan := range flow.plans {
		if plan.Direction == flowmodel.DirectionUnknown {
			plan.Direction = tokens[next]
			next++
		}
	}
}
