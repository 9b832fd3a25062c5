package flowplan

import (
	"go.uber.org/zap"

	"github.com/CESNET/ft-generator/internal/addrgen"
	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/CESNET/ft-generator/internal/rng"
	"github.com/CESNET/ft-generator/internal/sizedist"
)

// Planner drives the full planning pipeline (§4.5) for one profile at a
// time, sharing one RandomGenerator across every flow it plans.
type Planner struct {
	log *zap.SugaredLogger
	rng *rng.Generator
	cfg Config
}

// New returns a Planner sharing gen across every flow it plans and using
// cfg for layer construction.
func New(log *zap.SugaredLogger, gen *rng.Generator, cfg Config) *Planner {
	return &Planner{log: log, rng: gen, cfg: cfg}
}

// Plan builds, plans, and returns a Flow for profile, using addrSeed to
// seed that flow's own address generator.
func (p *Planner) Plan(profile flowmodel.Profile, addrSeed uint32) (*Flow, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	addr, err := addrgen.New(addrSeed)
	if err != nil {
		return nil, err
	}

	stack, err := buildStack(p.rng, p.cfg, profile)
	if err != nil {
		return nil, err
	}

	total := profile.TotalPackets()
	plans := make([]*flowmodel.PacketPlan, total)
	for i := range plans {
		plans[i] = &flowmodel.PacketPlan{}
	}

	flow := &Flow{
		profile: profile,
		rng:     p.rng,
		addr:    addr,
		plans:   plans,
		stack:   stack,
	}

	// Step 3: first planning pass. ICMP-style layers may pin isFinished
	// plans to a structural size here.
	if err := stack.PlanFlow(flow); err != nil {
		return nil, err
	}

	// Step 4: direction assignment.
	assignDirections(flow)

	// Step 5: size assignment.
	flow.fwdDist = sizedist.New(p.log, p.rng, p.cfg.SizeIntervals, profile.ForwardPackets, profile.ForwardBytes)
	flow.revDist = sizedist.New(p.log, p.rng, p.cfg.SizeIntervals, profile.ReversePackets, profile.ReverseBytes)

	for _, plan := range plans {
		if plan.IsFinished {
			flow.Distributor(plan.Direction).GetValueExact(plan.Size)
		}
	}
	flow.fwdDist.PlanRemaining()
	flow.revDist.PlanRemaining()

	for _, plan := range plans {
		if !plan.IsFinished {
			if v := flow.Distributor(plan.Direction).GetValue(); v > plan.Size {
				plan.Size = v
			}
		}
	}

	// Steps 6-7: second and third planning passes.
	if err := stack.PostPlanFlow(flow); err != nil {
		return nil, err
	}
	if err := stack.PlanExtra(flow); err != nil {
		return nil, err
	}

	// Step 8: timestamp assignment.
	assignTimestamps(p.rng, profile, plans)

	return flow, nil
}
