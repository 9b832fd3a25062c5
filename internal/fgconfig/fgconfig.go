// Package fgconfig loads the run's YAML configuration file: encapsulation
// rules, per-family IP ranges and fragmentation knobs, the packet-size
// distribution, logging, and output settings. This is out-of-scope for the
// Flow Planner core (spec.md §1), which only consumes the already-typed
// flowplan.Config it resolves into.
package fgconfig

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/CESNET/ft-generator/internal/flowplan"
	"github.com/CESNET/ft-generator/internal/layers"
	"github.com/CESNET/ft-generator/internal/logging"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// Config is the top-level YAML document shape.
type Config struct {
	Logging  logging.Config  `yaml:"logging"`
	Output   OutputConfig    `yaml:"output"`
	Encap    []EncapVariant  `yaml:"encapsulation"`
	IPv4     IPFamilyConfig  `yaml:"ipv4"`
	IPv6     IPFamilyConfig  `yaml:"ipv6"`
	PktSize  []SizeInterval  `yaml:"packet_size_distribution"`
}

// OutputConfig controls the PCAP sink and its optional rotation.
type OutputConfig struct {
	// MaxFileSize rotates the PCAP output to a new file once the current
	// one would exceed this size. Zero disables rotation.
	MaxFileSize datasize.ByteSize `yaml:"max_file_size"`
	// MetricsPushgateway, if set, is the address traffic-summary metrics
	// are pushed to after each run.
	MetricsPushgateway string `yaml:"metrics_pushgateway"`
}

// EncapVariant is one weighted `encapsulation:` list entry.
type EncapVariant struct {
	Probability float64      `yaml:"probability"`
	Layers      []EncapLayer `yaml:"layers"`
}

// EncapLayer names exactly one of a vlan or mpls encapsulation layer.
type EncapLayer struct {
	Vlan *VlanLayer `yaml:"vlan"`
	Mpls *MplsLayer `yaml:"mpls"`
}

type VlanLayer struct {
	ID uint16 `yaml:"id"`
}

type MplsLayer struct {
	Label uint32 `yaml:"label"`
}

// IPFamilyConfig is the `ipv4:`/`ipv6:` block shape.
type IPFamilyConfig struct {
	Ranges                   []netip.Prefix `yaml:"ranges"`
	FragmentationProbability float64        `yaml:"fragmentation_probability"`
	MinPacketSizeToFragment  uint64         `yaml:"min_packet_size_to_fragment"`
}

// SizeInterval is one `packet_size_distribution:` entry.
type SizeInterval struct {
	From        uint64  `yaml:"from"`
	To          uint64  `yaml:"to"`
	Probability float64 `yaml:"probability"`
}

// DefaultConfig returns the configuration used when a YAML document omits a
// section entirely.
func DefaultConfig() *Config {
	return &Config{
		Logging: *logging.DefaultConfig(),
		PktSize: []SizeInterval{
			{From: 64, To: 128, Probability: 0.5},
			{From: 128, To: 1500, Probability: 0.5},
		},
	}
}

// Load reads and parses the YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fgconfig: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("fgconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve converts the YAML-shaped Config into the typed flowplan.Config the
// planner consumes.
func (c *Config) Resolve() (flowplan.Config, error) {
	variants := make([]flowplan.EncapsulationVariant, 0, len(c.Encap))
	for _, v := range c.Encap {
		layers := make([]flowplan.EncapLayer, 0, len(v.Layers))
		for _, l := range v.Layers {
			var el flowplan.EncapLayer
			switch {
			case l.Vlan != nil:
				id := l.Vlan.ID
				el.Vlan = &id
			case l.Mpls != nil:
				label := l.Mpls.Label
				el.Mpls = &label
			default:
				return flowplan.Config{}, fmt.Errorf("%w: encapsulation layer names neither vlan nor mpls", flowplan.ErrInvalidConfig)
			}
			layers = append(layers, el)
		}
		variants = append(variants, flowplan.EncapsulationVariant{Probability: v.Probability, Layers: layers})
	}

	intervals := make([]sizedist.Interval, 0, len(c.PktSize))
	for _, iv := range c.PktSize {
		intervals = append(intervals, sizedist.Interval{From: iv.From, To: iv.To, Probability: iv.Probability})
	}

	resolved := flowplan.Config{
		Encapsulation: variants,
		IPv4: layers.IPv4Config{
			Ranges:                   c.IPv4.Ranges,
			FragmentationProbability: c.IPv4.FragmentationProbability,
			MinPacketSizeToFragment:  c.IPv4.MinPacketSizeToFragment,
		},
		IPv6: layers.IPv6Config{
			Ranges:                   c.IPv6.Ranges,
			FragmentationProbability: c.IPv6.FragmentationProbability,
			MinPacketSizeToFragment:  c.IPv6.MinPacketSizeToFragment,
		},
		SizeIntervals: intervals,
	}

	if err := resolved.Validate(); err != nil {
		return flowplan.Config{}, err
	}
	return resolved, nil
}
