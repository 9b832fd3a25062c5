package flowplan

import (
	"fmt"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/layer"
	"github.com/CESNET/ft-generator/internal/layers"
	"github.com/CESNET/ft-generator/internal/rng"
)

// buildStack assembles the layer stack for profile per §4.5 step 1:
// Ethernet; encapsulation layers chosen by probability; IPv4 or IPv6; then
// one of TCP/UDP/ICMP(v6); then Payload iff L4 is TCP or UDP.
func buildStack(gen *rng.Generator, cfg Config, profile flowmodel.Profile) (*layer.Stack, error) {
	stack := layer.NewStack()
	idx := 0

	stack.Add(layers.NewEthernet(idx))
	idx++

	variant, err := chooseEncapsulation(gen, cfg.Encapsulation)
	if err != nil {
		return nil, err
	}
	for _, l := range variant {
		switch {
		case l.Vlan != nil:
			stack.Add(layers.NewVlan(idx, *l.Vlan))
		case l.Mpls != nil:
			stack.Add(layers.NewMpls(idx, *l.Mpls))
		default:
			return nil, fmt.Errorf("%w: encapsulation layer names neither vlan nor mpls", ErrInvalidConfig)
		}
		idx++
	}

	switch profile.L3 {
	case flowmodel.L3IPv4:
		stack.Add(layers.NewIPv4(idx, cfg.IPv4))
	case flowmodel.L3IPv6:
		stack.Add(layers.NewIPv6(idx, cfg.IPv6))
	default:
		return nil, flowmodel.ErrUnknownProtocol
	}
	idx++

	switch profile.L4 {
	case flowmodel.L4TCP:
		stack.Add(layers.NewTcp(idx))
		idx++
		stack.Add(layers.NewPayload(idx))
	case flowmodel.L4UDP:
		stack.Add(layers.NewUdp(idx))
		idx++
		stack.Add(layers.NewPayload(idx))
	case flowmodel.L4ICMP:
		if useRandomICMP(profile, layers.ICMPUnreachableSizeV4) {
			stack.Add(layers.NewIcmpRandom(idx))
		} else {
			stack.Add(layers.NewIcmpEcho(idx))
		}
	case flowmodel.L4ICMPv6:
		if useRandomICMP(profile, layers.ICMPUnreachableSizeV6) {
			stack.Add(layers.NewIcmpv6Random(idx))
		} else {
			stack.Add(layers.NewIcmpv6Echo(idx))
		}
	default:
		return nil, flowmodel.ErrUnknownProtocol
	}

	return stack, nil
}

// chooseEncapsulation draws a uniform real in [0, Σp) and returns the first
// variant's layers whose cumulative probability covers the draw. An empty
// variant list means no encapsulation.
func chooseEncapsulation(gen *rng.Generator, variants []EncapsulationVariant) ([]EncapLayer, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	var probSum float64
	for _, v := range variants {
		probSum += v.Probability
	}
	if probSum <= 0 {
		return nil, fmt.Errorf("%w: encapsulation variants sum to zero probability", ErrInvalidConfig)
	}

	draw := gen.RandomDouble(0, probSum)
	return pickByDraw(draw, variants), nil
}

// pickByDraw is the pure selection rule chooseEncapsulation applies once it
// has a draw in [0, Σp); split out so it can be exercised directly with a
// fixed draw value instead of a live generator.
func pickByDraw(draw float64, variants []EncapsulationVariant) []EncapLayer {
	var accum float64
	for _, v := range variants {
		accum += v.Probability
		if draw <= accum {
			return v.Layers
		}
	}
	return variants[len(variants)-1].Layers
}
