// Package driver is the top-level loop that is explicitly out-of-scope for
// the Flow Planner core (spec.md §1): it wires together profile/config
// ingestion, the planner, the packet builder, and the PCAP/CSV sinks, and
// owns the concurrency policy §5 leaves to "the driver" when flows are
// parallelized.
package driver

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CESNET/ft-generator/internal/builder"
	"github.com/CESNET/ft-generator/internal/fgconfig"
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/flowplan"
	"github.com/CESNET/ft-generator/internal/logging"
	"github.com/CESNET/ft-generator/internal/pcapsink"
	"github.com/CESNET/ft-generator/internal/profileio"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/trafficmeter"
	"github.com/CESNET/ft-generator/internal/xcmd"
)

// Cmd is the command-line-derived configuration for one run.
type Cmd struct {
	ProfilesPath string
	ConfigPath   string
	OutputPath   string
	ReportPath   string

	Seed        uint32
	AddressSeed uint32
	Parallelism int
}

// Run executes one full generation pass: load inputs, plan and build every
// profile (§5: flows are independent and may be parallelized), and flush
// the PCAP and CSV outputs. A flow that fails to plan is logged and skipped
// rather than aborting the run. A profile row that fails validation
// (UnknownProtocol, ProtocolMismatch) is rejected earlier by
// profileio.ReadAll, and that aborts the run before any flow is planned.
func Run(cmd Cmd) error {
	rawCfg, err := fgconfig.Load(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	log, _, err := logging.Init(&rawCfg.Logging)
	if err != nil {
		return fmt.Errorf("driver: init logging: %w", err)
	}
	defer log.Sync()

	cfg, err := rawCfg.Resolve()
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	profilesFile, err := os.Open(cmd.ProfilesPath)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	defer profilesFile.Close()

	profiles, err := profileio.ReadAll(profilesFile)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	log.Infow("loaded flow profiles", "count", len(profiles))

	seed := cmd.Seed
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	log.Infow("run parameters", "seed", seed, "addressSeed", cmd.AddressSeed)

	sharedRng := rng.New(seed)
	planner := flowplan.New(log, sharedRng, cfg)

	sink, err := pcapsink.New(cmd.OutputPath, rawCfg.Output.MaxFileSize)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	defer sink.Close()

	meter := trafficmeter.New()

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg, ctx := errgroup.WithContext(baseCtx)
	wg.Go(func() error {
		defer cancel()
		return runFlows(ctx, log, planner, profiles, cmd, sink, meter)
	})
	wg.Go(func() error {
		err := xcmd.WaitForShutdown(ctx)
		if _, ok := err.(xcmd.Interrupted); ok {
			log.Infow("caught signal, finishing in-flight flows", "err", err)
		}
		return err
	})

	if err := wg.Wait(); err != nil {
		if _, ok := err.(xcmd.Interrupted); !ok && err != context.Canceled {
			return err
		}
	}

	if cmd.ReportPath != "" {
		reportFile, err := os.Create(cmd.ReportPath)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}
		defer reportFile.Close()
		if err := meter.WriteCSV(reportFile); err != nil {
			return fmt.Errorf("driver: %w", err)
		}
	}

	if addr := rawCfg.Output.MetricsPushgateway; addr != "" {
		if err := meter.PushMetrics(addr, "ft_generator"); err != nil {
			log.Warnw("failed to push metrics", "err", err)
		}
	}

	return nil
}

// runFlows plans and builds every profile, parallelized up to
// cmd.Parallelism workers, writing built packets to sink as each flow
// completes. The shared RandomGenerator is safe for concurrent use (see
// rng.Generator); each worker gets its own AddressGenerator seeded by
// AddressSeed+index so address streams stay deterministic and disjoint.
func runFlows(ctx context.Context, log *zap.SugaredLogger, planner *flowplan.Planner, profiles []flowmodel.Profile, cmd Cmd, sink *pcapsink.Sink, meter *trafficmeter.Meter) error {
	parallelism := cmd.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	sem := make(chan struct{}, parallelism)
	var writeMu sync.Mutex
	wg, ctx := errgroup.WithContext(ctx)

	for i, profile := range profiles {
		i, profile := i, profile

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return wg.Wait()
		}

		wg.Go(func() error {
			defer func() { <-sem }()

			addrSeed := cmd.AddressSeed + uint32(i)
			if addrSeed < 1 {
				addrSeed = 1
			}

			flow, err := planner.Plan(profile, addrSeed)
			if err != nil {
				log.Warnw("skipping flow that failed to plan", "flow", i, "err", err)
				return nil
			}

			b := builder.New(flow)
			fc := meter.OpenFlow(i, flow.Profile().L3.String(), flow.Profile().L4.String())

			writeMu.Lock()
			defer writeMu.Unlock()

			for b.HasNext() {
				pkt, err := b.Next()
				if err != nil {
					return fmt.Errorf("driver: flow %d: %w", i, err)
				}
				for _, segment := range pkt.Segments {
					if err := sink.WritePacket(segment, pkt.Timestamp, pkt.Direction); err != nil {
						return fmt.Errorf("driver: flow %d: %w", i, err)
					}
					fc.ExtractPacketParams(pkt.Direction, len(segment))
				}
			}
			meter.CloseFlow(fc)
			return nil
		})
	}

	return wg.Wait()
}
