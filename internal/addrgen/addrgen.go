// Package addrgen deterministically allocates MAC, IPv4, and IPv6 addresses
// from a Lehmer pseudorandom stream, independent of the shared rng.Generator
// used elsewhere in the planner.
package addrgen

import (
	"errors"
	"net"
	"net/netip"
)

// ErrInvalidSeed is returned by New when the seed falls outside the range
// the Lehmer recurrence accepts.
var ErrInvalidSeed = errors.New("addrgen: seed must be in [1, 2^31-2]")

const (
	lehmerMultiplier = 48271
	// lehmerModulus is 2^31-1, the Mersenne prime used by the "minimal
	// standard" Lehmer generator.
	lehmerModulus = 1<<31 - 1
	// period is the number of distinct values state can take before it
	// must be reseeded, i.e. 2^31-2.
	period = lehmerModulus - 1
)

// Generator is a deterministic address allocator. It is not safe for
// concurrent use; a parallel driver gives each worker its own instance.
type Generator struct {
	state     uint32
	seedState uint32
	capacity  uint64
}

// New creates a Generator from seed. seed must be in [1, 2^31-2]; any other
// value returns ErrInvalidSeed.
func New(seed uint32) (*Generator, error) {
	if seed < 1 || seed > period {
		return nil, ErrInvalidSeed
	}

	return &Generator{seedState: seed, state: seed, capacity: period}, nil
}

// reseed advances seedState by one Lehmer step and restarts state and the
// draw counter from it. Called every time state exhausts its period.
func (g *Generator) reseed() {
	g.capacity = period
	g.seedState = lehmerStep(g.seedState)
	g.state = g.seedState
}

func lehmerStep(x uint32) uint32 {
	return uint32(uint64(x) * lehmerMultiplier % lehmerModulus)
}

func (g *Generator) next() uint32 {
	if g.capacity == 0 {
		g.reseed()
	}
	g.capacity--

	g.state = lehmerStep(g.state)
	return g.state
}

// GenerateMAC draws a 6-byte hardware address. It consumes two values from
// the stream; the low 16 bits of the second are discarded.
func (g *Generator) GenerateMAC() net.HardwareAddr {
	v0 := g.next()
	v1 := g.next()

	return net.HardwareAddr{
		byte(v0 >> 24), byte(v0 >> 16), byte(v0 >> 8), byte(v0),
		byte(v1 >> 24), byte(v1 >> 16),
	}
}

// GenerateIPv4 draws a 4-byte address, consuming one value from the stream.
func (g *Generator) GenerateIPv4() netip.Addr {
	v := g.next()
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// GenerateIPv6 draws a 16-byte address, consuming four values from the
// stream.
func (g *Generator) GenerateIPv6() netip.Addr {
	var b [16]byte
	for i := range 4 {
		v := g.next()
		b[4*i] = byte(v >> 24)
		b[4*i+1] = byte(v >> 16)
		b[4*i+2] = byte(v >> 8)
		b[4*i+3] = byte(v)
	}
	return netip.AddrFrom16(b)
}
