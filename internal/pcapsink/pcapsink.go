// Package pcapsink writes built packets to disk as a PCAP capture: the
// thin sink the Flow Planner core treats as an external collaborator
// (spec.md §6), consuming only packet bytes, lengths, timestamps, and
// directions.
package pcapsink

import (
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/CESNET/ft-generator/internal/flowmodel"
)

const snapLen = 65535

// Sink writes Ethernet-linktype PCAP output, rotating to a new numbered
// file before a write that would take the current file past maxSize (when
// nonzero).
type Sink struct {
	pathPattern string
	maxSize     datasize.ByteSize

	fileIndex int
	written   datasize.ByteSize

	f *os.File
	w *pcapgo.Writer
}

// New opens the first output file for pathPattern (used verbatim when
// maxSize is zero; otherwise formatted with a 0-based file index via
// fmt.Sprintf, e.g. "out-%03d.pcap").
func New(pathPattern string, maxSize datasize.ByteSize) (*Sink, error) {
	s := &Sink{pathPattern: pathPattern, maxSize: maxSize}
	if err := s.openNext(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) openNext() error {
	if s.f != nil {
		s.f.Close()
	}

	path := s.pathPattern
	if s.maxSize > 0 {
		path = fmt.Sprintf(s.pathPattern, s.fileIndex)
	}
	s.fileIndex++

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pcapsink: create %s: %w", path, err)
	}

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return fmt.Errorf("pcapsink: write file header: %w", err)
	}

	s.f = f
	s.w = w
	s.written = 24 // pcap file header size
	return nil
}

// WritePacket appends one packet, converting ts to the record's capture
// timestamp itself. The direction is accepted but not written.
func (s *Sink) WritePacket(data []byte, ts flowmodel.Timestamp, _ flowmodel.Direction) error {
	if s.maxSize > 0 && s.written+datasize.ByteSize(len(data)+16) > s.maxSize {
		if err := s.openNext(); err != nil {
			return err
		}
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(ts.Sec, ts.Usec*1000),
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := s.w.WritePacket(ci, data); err != nil {
		return fmt.Errorf("pcapsink: write packet: %w", err)
	}
	s.written += datasize.ByteSize(len(data) + 16)
	return nil
}

// Close flushes and closes the current output file.
func (s *Sink) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
