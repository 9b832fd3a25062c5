package layer

import (
	"fmt"

	"github.com/gopacket/gopacket"
)

// Packet accumulates one wire packet's worth of gopacket layers during the
// Build pass. A PostBuild hook (IPv4/IPv6 fragmentation) may expand it into
// several wire packets; if none do, the single serialized result becomes the
// packet's only segment.
type Packet struct {
	layers   []gopacket.SerializableLayer
	netLayer gopacket.NetworkLayer

	lastSerialized []byte
	segments       [][]byte
}

// NewPacket returns an empty Packet ready for the Build pass.
func NewPacket() *Packet {
	return &Packet{}
}

// Push appends l to the layer stack being assembled, in wire order.
func (p *Packet) Push(l gopacket.SerializableLayer) {
	p.layers = append(p.layers, l)
}

// SetNetworkLayer records the network-layer serializable for later
// transport-layer checksum linkage (gopacket's SetNetworkLayerForChecksum).
func (p *Packet) SetNetworkLayer(nl gopacket.NetworkLayer) {
	p.netLayer = nl
}

// NetworkLayer returns the layer SetNetworkLayer last recorded, or nil.
func (p *Packet) NetworkLayer() gopacket.NetworkLayer {
	return p.netLayer
}

// Serialize renders the current layer stack to wire bytes with lengths and
// checksums computed. It is called once after the Build pass (so PostBuild
// hooks can inspect fully computed downstream checksums) and once more after
// PostBuild (to repair anything PostBuild altered).
func (p *Packet) Serialize() ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, p.layers...); err != nil {
		return nil, fmt.Errorf("layer: serialize: %w", err)
	}
	p.lastSerialized = append([]byte(nil), buf.Bytes()...)
	return p.lastSerialized, nil
}

// Bytes returns the result of the most recent Serialize call, or nil if
// Serialize has not run yet.
func (p *Packet) Bytes() []byte {
	return p.lastSerialized
}

// EmitFragment appends a finished wire-format byte slice directly to the
// packet's output segments, bypassing the normal single-segment path. A
// PostBuild hook that fragments calls this once per fragment instead of
// relying on the builder's own post-PostBuild Serialize call.
func (p *Packet) EmitFragment(b []byte) {
	p.segments = append(p.segments, b)
}

// Fragmented reports whether a PostBuild hook has already emitted fragments,
// meaning the builder should not perform its own final Serialize.
func (p *Packet) Fragmented() bool {
	return len(p.segments) > 0
}

// Segments returns the packet's finished wire-format byte slices. Ordinarily
// this is a single element; a fragmented packet has one element per
// fragment.
func (p *Packet) Segments() [][]byte {
	return p.segments
}
