package flowplan

import "github.com/CESNET/ft-generator/internal/flowmodel"

// useRandomICMP implements the ICMP selection heuristic (§4.3): prefer the
// fixed-size, unreachable-style layer when the flow is lopsided or has very
// few packets in one direction, as long as the average bytes-per-packet
// stays close to that layer's structural size; otherwise use echo-style
// packets sized by the normal distributor.
func useRandomICMP(profile flowmodel.Profile, structuralSize uint64) bool {
	pf, pr := profile.ForwardPackets, profile.ReversePackets

	minPR, maxPR := pf, pr
	if pr < pf {
		minPR, maxPR = pr, pf
	}

	var ratioDiff float64
	if maxPR == 0 {
		ratioDiff = 1.0
	} else {
		ratioDiff = 1 - float64(minPR)/float64(maxPR)
	}

	total := pf + pr
	var bpp float64
	if total > 0 {
		bpp = float64(profile.ForwardBytes+profile.ReverseBytes) / float64(total)
	}

	threshold := 1.10 * float64(structuralSize)

	if (pf <= 3 || pr <= 3) && bpp <= threshold {
		return true
	}
	if ratioDiff > 0.2 && bpp <= threshold {
		return true
	}
	return false
}
