package layer

import "github.com/CESNET/ft-generator/internal/flowmodel"

// Stack is an ordered sequence of layers. Position in the slice is each
// layer's stack index, handed out by Add and used to key PacketPlan.Params.
type Stack struct {
	layers []Layer
}

// NewStack returns an empty Stack.
func NewStack() *Stack {
	return &Stack{}
}

// Add appends l to the stack and returns its 0-based index.
func (s *Stack) Add(l Layer) int {
	s.layers = append(s.layers, l)
	return len(s.layers) - 1
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	return len(s.layers)
}

// At returns the layer at index i, or nil if i is out of range.
func (s *Stack) At(i int) Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// IndexOf returns l's position in the stack, or -1 if absent.
func (s *Stack) IndexOf(l Layer) int {
	for i, cur := range s.layers {
		if cur == l {
			return i
		}
	}
	return -1
}

// All returns the layers in stack order. Callers must not mutate the
// returned slice.
func (s *Stack) All() []Layer {
	return s.layers
}

// PlanFlow invokes PlanFlow on every layer, in stack order.
func (s *Stack) PlanFlow(flow Flow) error {
	for _, l := range s.layers {
		if err := l.PlanFlow(flow); err != nil {
			return err
		}
	}
	return nil
}

// PostPlanFlow invokes PostPlanFlow on every layer that implements
// PostPlanner, in stack order.
func (s *Stack) PostPlanFlow(flow Flow) error {
	for _, l := range s.layers {
		if pp, ok := l.(PostPlanner); ok {
			if err := pp.PostPlanFlow(flow); err != nil {
				return err
			}
		}
	}
	return nil
}

// PlanExtra invokes PlanExtra on every layer that implements ExtraPlanner,
// in stack order, after PostPlanFlow has run on all layers.
func (s *Stack) PlanExtra(flow Flow) error {
	for _, l := range s.layers {
		if ep, ok := l.(ExtraPlanner); ok {
			if err := ep.PlanExtra(flow); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build walks the stack calling Build, then again calling PostBuild on
// layers that implement PostBuilder, with a Serialize finalization between
// the two passes so PostBuild sees computed lengths/checksums. It returns
// the packet's finished wire-format segments (one, unless a PostBuild hook
// fragmented).
func (s *Stack) Build(plan *flowmodel.PacketPlan) ([][]byte, error) {
	pkt := NewPacket()

	for i, l := range s.layers {
		if err := l.Build(pkt, plan.ParamFor(i), plan); err != nil {
			return nil, err
		}
	}

	if _, err := pkt.Serialize(); err != nil {
		return nil, err
	}

	for i, l := range s.layers {
		pb, ok := l.(PostBuilder)
		if !ok {
			continue
		}
		if err := pb.PostBuild(pkt, plan.ParamFor(i), plan); err != nil {
			return nil, err
		}
	}

	if pkt.Fragmented() {
		return pkt.Segments(), nil
	}

	final, err := pkt.Serialize()
	if err != nil {
		return nil, err
	}
	return [][]byte{final}, nil
}
