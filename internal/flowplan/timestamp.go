package flowplan

import (
	"sort"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
)

// assignTimestamps implements §4.5 step 8: draw P-2 timestamps uniformly
// from [Ts, Te], prepend Ts and append Te, sort ascending, and assign
// positionally. When P <= 2 the plans get Ts and Te as-is.
func assignTimestamps(gen *rng.Generator, profile flowmodel.Profile, plans []*flowmodel.PacketPlan) {
	p := len(plans)
	switch {
	case p == 0:
		return
	case p == 1:
		plans[0].Timestamp = profile.Start
		return
	case p == 2:
		plans[0].Timestamp = profile.Start
		plans[1].Timestamp = profile.End
		return
	}

	ts := make([]flowmodel.Timestamp, p)
	ts[0] = profile.Start
	ts[p-1] = profile.End
	for i := 1; i < p-1; i++ {
		ts[i] = drawTimestamp(gen, profile.Start, profile.End)
	}

	sort.Slice(ts, func(i, j int) bool {
		return flowmodel.Compare(ts[i], ts[j]) < 0
	})

	for i, plan := range plans {
		plan.Timestamp = ts[i]
	}
}

// drawTimestamp draws one uniform timestamp in [start, end], handling the
// microsecond boundary conditionally on which second was drawn.
func drawTimestamp(gen *rng.Generator, start, end flowmodel.Timestamp) flowmodel.Timestamp {
	sec := int64(gen.RandomUInt(uint64(start.Sec), uint64(end.Sec)))

	var usecLo, usecHi int64
	switch {
	case sec == start.Sec && sec == end.Sec:
		usecLo, usecHi = start.Usec, end.Usec
	case sec == start.Sec:
		usecLo, usecHi = start.Usec, 999999
	case sec == end.Sec:
		usecLo, usecHi = 0, end.Usec
	default:
		usecLo, usecHi = 0, 999999
	}

	usec := int64(gen.RandomUInt(uint64(usecLo), uint64(usecHi)))
	return flowmodel.Timestamp{Sec: sec, Usec: usec}
}
