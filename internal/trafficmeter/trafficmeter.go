// Package trafficmeter counts packets and bytes as the driver drains each
// planned flow and emits a CSV summary, mirroring the original
// ft-generator's trafficmeter.cpp (OpenFlow/CloseFlow/FlowRecord). This is
// out-of-scope for the Flow Planner core (spec.md §1); the core only hands
// the reporter its built packets' direction, size, and flow identity.
package trafficmeter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/CESNET/ft-generator/internal/flowmodel"
)

// FlowRecord is one row of the per-run CSV summary: FLOW_ID, L3_PROTO,
// L4_PROTO, PACKETS, BYTES, PACKETS_REV, BYTES_REV.
type FlowRecord struct {
	FlowID  int
	L3, L4  string
	Packets, Bytes, PacketsRev, BytesRev uint64
}

// Meter accumulates FlowRecords across a run and exposes them as Prometheus
// counters in addition to the CSV report.
type Meter struct {
	registry *prometheus.Registry
	packets  *prometheus.CounterVec
	bytes    *prometheus.CounterVec

	records []FlowRecord
}

// New returns a Meter with its own Prometheus registry, so a batch run
// never shares state with (or blocks on) a process-wide default registry.
func New() *Meter {
	registry := prometheus.NewRegistry()

	packets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ft_generator_packets_total",
		Help: "Total packets generated, by direction.",
	}, []string{"direction"})
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ft_generator_bytes_total",
		Help: "Total bytes generated, by direction.",
	}, []string{"direction"})
	registry.MustRegister(packets, bytes)

	return &Meter{registry: registry, packets: packets, bytes: bytes}
}

// OpenFlow starts tracking a new flow, identified by flowID and its
// protocols (for the CSV report's L3_PROTO/L4_PROTO columns).
func (m *Meter) OpenFlow(flowID int, l3, l4 string) *FlowCounter {
	return &FlowCounter{meter: m, record: FlowRecord{FlowID: flowID, L3: l3, L4: l4}}
}

// CloseFlow records fc's final counts into the run's CSV report. The
// Prometheus counters are already updated per packet by ExtractPacketParams.
func (m *Meter) CloseFlow(fc *FlowCounter) {
	m.records = append(m.records, fc.record)
}

// FlowCounter accumulates one flow's packet/byte counts as its packets are
// drained from the builder.
type FlowCounter struct {
	meter  *Meter
	record FlowRecord
}

// ExtractPacketParams folds one built packet's direction and size into the
// flow's running counts and the meter's Prometheus counters.
func (fc *FlowCounter) ExtractPacketParams(dir flowmodel.Direction, size int) {
	label := "reverse"
	if dir == flowmodel.DirectionForward {
		label = "forward"
		fc.record.Packets++
		fc.record.Bytes += uint64(size)
	} else {
		fc.record.PacketsRev++
		fc.record.BytesRev += uint64(size)
	}

	fc.meter.packets.WithLabelValues(label).Inc()
	fc.meter.bytes.WithLabelValues(label).Add(float64(size))
}

// WriteCSV emits the accumulated FlowRecords as a CSV summary.
func (m *Meter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"FLOW_ID", "L3_PROTO", "L4_PROTO", "PACKETS", "BYTES", "PACKETS_REV", "BYTES_REV"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("trafficmeter: write header: %w", err)
	}

	for _, r := range m.records {
		row := []string{
			strconv.Itoa(r.FlowID),
			r.L3,
			r.L4,
			strconv.FormatUint(r.Packets, 10),
			strconv.FormatUint(r.Bytes, 10),
			strconv.FormatUint(r.PacketsRev, 10),
			strconv.FormatUint(r.BytesRev, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("trafficmeter: write row: %w", err)
		}
	}

	return cw.Error()
}

// PushMetrics pushes the run's counters to a Prometheus Pushgateway at
// addr, under jobName. The driver calls it only when the YAML configuration
// sets output.metrics_pushgateway, so a plain batch run never blocks on a
// scrape.
func (m *Meter) PushMetrics(addr, jobName string) error {
	return push.New(addr, jobName).Gatherer(m.registry).Push()
}
