// Package profileio reads the CSV flow table that drives a run: one row per
// flow profile, columns matching original_source/tools/ft-generator's
// schema. This is out-of-scope for the Flow Planner core (spec.md §1) but
// every run needs it to produce the flowmodel.Profile values the planner
// consumes.
package profileio

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/CESNET/ft-generator/internal/flowmodel"
)

// columns is the fixed CSV header this package understands, in order.
var columns = []string{
	"START_TIME", "END_TIME", "L3_PROTO", "L4_PROTO",
	"SRC_IP", "DST_IP", "SRC_PORT", "DST_PORT",
	"PACKETS", "BYTES", "PACKETS_REV", "BYTES_REV",
}

// ReadAll parses every data row from r into a Profile, skipping blank lines.
// The first row must be the header named by columns (order-insensitive);
// rows are otherwise validated by flowmodel.Profile.Validate, whose errors
// (ErrUnknownProtocol, ErrProtocolMismatch) are returned wrapped with the
// offending row number. ReadAll stops at the first row that fails to parse
// or validate and returns no profiles at all; it does not skip bad rows.
func ReadAll(r io.Reader) ([]flowmodel.Profile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("profileio: read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var profiles []flowmodel.Profile
	row := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("profileio: row %d: %w", row, err)
		}
		row++

		if isBlank(record) {
			continue
		}

		profile, err := parseRow(record, idx)
		if err != nil {
			return nil, fmt.Errorf("profileio: row %d: %w", row, err)
		}
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("profileio: row %d: %w", row, err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("profileio: missing required column %q", col)
		}
	}
	return idx, nil
}

func parseRow(record []string, idx map[string]int) (flowmodel.Profile, error) {
	field := func(name string) (string, error) {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	var p flowmodel.Profile
	var err error

	if p.Start, err = parseTimestamp(field, "START_TIME"); err != nil {
		return p, err
	}
	if p.End, err = parseTimestamp(field, "END_TIME"); err != nil {
		return p, err
	}

	l3, err := field("L3_PROTO")
	if err != nil {
		return p, err
	}
	p.L3 = parseL3(l3)

	l4, err := field("L4_PROTO")
	if err != nil {
		return p, err
	}
	p.L4 = parseL4(l4)

	if p.SrcIP, err = parseOptionalAddr(field, "SRC_IP"); err != nil {
		return p, err
	}
	if p.DstIP, err = parseOptionalAddr(field, "DST_IP"); err != nil {
		return p, err
	}
	if p.SrcPort, err = parseOptionalUint16(field, "SRC_PORT"); err != nil {
		return p, err
	}
	if p.DstPort, err = parseOptionalUint16(field, "DST_PORT"); err != nil {
		return p, err
	}

	if p.ForwardPackets, err = parseUint64(field, "PACKETS"); err != nil {
		return p, err
	}
	if p.ForwardBytes, err = parseUint64(field, "BYTES"); err != nil {
		return p, err
	}
	if p.ReversePackets, err = parseUint64(field, "PACKETS_REV"); err != nil {
		return p, err
	}
	if p.ReverseBytes, err = parseUint64(field, "BYTES_REV"); err != nil {
		return p, err
	}

	return p, nil
}

func parseL3(s string) flowmodel.L3Protocol {
	switch strings.ToUpper(s) {
	case "IPV4", "4":
		return flowmodel.L3IPv4
	case "IPV6", "6":
		return flowmodel.L3IPv6
	default:
		return flowmodel.L3Unknown
	}
}

func parseL4(s string) flowmodel.L4Protocol {
	switch strings.ToUpper(s) {
	case "TCP":
		return flowmodel.L4TCP
	case "UDP":
		return flowmodel.L4UDP
	case "ICMP":
		return flowmodel.L4ICMP
	case "ICMPV6":
		return flowmodel.L4ICMPv6
	default:
		return flowmodel.L4Unknown
	}
}

// parseTimestamp accepts "<seconds>.<microseconds>" (the CSV schema's
// fixed-point encoding) or a bare integer number of seconds.
func parseTimestamp(field func(string) (string, error), name string) (flowmodel.Timestamp, error) {
	raw, err := field(name)
	if err != nil {
		return flowmodel.Timestamp{}, err
	}

	whole, frac, hasFrac := strings.Cut(raw, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return flowmodel.Timestamp{}, fmt.Errorf("%s: %w", name, err)
	}

	var usec int64
	if hasFrac {
		frac = (frac + "000000")[:6]
		usec, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return flowmodel.Timestamp{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	return flowmodel.Timestamp{Sec: sec, Usec: usec}, nil
}

func parseOptionalAddr(field func(string) (string, error), name string) (netip.Addr, error) {
	raw, err := field(name)
	if err != nil {
		return netip.Addr{}, err
	}
	if raw == "" {
		return netip.Addr{}, nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

func parseOptionalUint16(field func(string) (string, error), name string) (uint16, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return uint16(v), nil
}

func parseUint64(field func(string) (string, error), name string) (uint64, error) {
	raw, err := field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
