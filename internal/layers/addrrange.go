package layers

import (
	"net/netip"

	"github.com/CESNET/ft-generator/internal/addrgen"
	"github.com/CESNET/ft-generator/internal/rng"
)

// pickAddr draws an address for one endpoint of a flow. A profile-supplied
// address wins outright (fixed is valid). Otherwise, if ranges is
// non-empty, one range is chosen uniformly via gen and the generator's raw
// address is overlaid onto that range's host bits; with no ranges the raw
// address is used unmodified.
func pickAddr(fixed netip.Addr, ranges []netip.Prefix, gen *rng.Generator, addr *addrgen.Generator, v6 bool) netip.Addr {
	if fixed.IsValid() {
		return fixed
	}

	raw := addr.GenerateIPv4()
	if v6 {
		raw = addr.GenerateIPv6()
	}

	if len(ranges) == 0 {
		return raw
	}

	idx := gen.RandomUInt(0, uint64(len(ranges)-1))
	return overlay(ranges[idx], raw)
}

// overlay combines prefix's network bits with raw's host bits, producing an
// address inside prefix with a pseudorandom host part.
func overlay(prefix netip.Prefix, raw netip.Addr) netip.Addr {
	bits := prefix.Bits()

	if prefix.Addr().Is4() && raw.Is4() {
		net4 := prefix.Addr().As4()
		host4 := raw.As4()
		var out [4]byte
		for i := range out {
			out[i] = mergeByte(net4[i], host4[i], bits-i*8)
		}
		return netip.AddrFrom4(out)
	}

	net16 := prefix.Addr().As16()
	host16 := raw.As16()
	var out [16]byte
	for i := range out {
		out[i] = mergeByte(net16[i], host16[i], bits-i*8)
	}
	return netip.AddrFrom16(out)
}

// mergeByte returns a byte combining netByte's high bits and hostByte's low
// bits, where netBitsRemaining is how many bits of *this* byte (can be
// negative or >8) belong to the network prefix.
func mergeByte(netByte, hostByte byte, netBitsRemaining int) byte {
	switch {
	case netBitsRemaining >= 8:
		return netByte
	case netBitsRemaining <= 0:
		return hostByte
	default:
		mask := byte(0xFF << uint(8-netBitsRemaining))
		return (netByte & mask) | (hostByte &^ mask)
	}
}
