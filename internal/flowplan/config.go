package flowplan

import (
	"errors"
	"fmt"

	"github.com/CESNET/ft-generator/internal/layers"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// ErrInvalidConfig is returned when a Config cannot be used to plan a flow:
// an encapsulation variant list with no usable probability mass, or a
// packet-size interval whose upper bound cannot even hold an L2 header.
var ErrInvalidConfig = errors.New("flowplan: invalid config")

// EncapLayer is one entry in an encapsulation variant: exactly one of Vlan
// or Mpls is set.
type EncapLayer struct {
	Vlan *uint16
	Mpls *uint32
}

// EncapsulationVariant is one weighted choice of encapsulation layers
// (config `encapsulation:` entries).
type EncapsulationVariant struct {
	Probability float64
	Layers      []EncapLayer
}

// Config is the resolved, typed configuration the planner needs: address
// ranges and fragmentation knobs per IP family, encapsulation variants, and
// the packet-size distribution shared by both directions.
type Config struct {
	Encapsulation []EncapsulationVariant
	IPv4          layers.IPv4Config
	IPv6          layers.IPv6Config
	SizeIntervals []sizedist.Interval
}

const minEthernetFrameSize = 14

// Validate checks the config invariants the planner relies on before
// planning any flow.
func (c Config) Validate() error {
	var probSum float64
	for _, v := range c.Encapsulation {
		probSum += v.Probability
		for _, l := range v.Layers {
			if l.Vlan == nil && l.Mpls == nil {
				return fmt.Errorf("%w: encapsulation layer names neither vlan nor mpls", ErrInvalidConfig)
			}
		}
	}
	if len(c.Encapsulation) > 0 && probSum <= 0 {
		return fmt.Errorf("%w: encapsulation variants sum to zero probability", ErrInvalidConfig)
	}

	for _, iv := range c.SizeIntervals {
		if iv.To < minEthernetFrameSize {
			return fmt.Errorf("%w: size interval below L2 header size", ErrInvalidConfig)
		}
	}

	return nil
}
