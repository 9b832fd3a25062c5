package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/ft-generator/internal/flowmodel"
	"github.com/gopacket/gopacket/layers"
)

// recordingLayer tracks which hooks ran and in what order, via a shared log
// slice so stack-level ordering can be asserted across multiple layers.
type recordingLayer struct {
	name string
	log  *[]string

	hasPostPlan bool
	hasExtra    bool
	hasPostBuild bool
}

func (r *recordingLayer) PlanFlow(flow Flow) error {
	*r.log = append(*r.log, r.name+":PlanFlow")
	return nil
}

func (r *recordingLayer) Build(pkt *Packet, params any, plan *flowmodel.PacketPlan) error {
	*r.log = append(*r.log, r.name+":Build")
	pkt.Push(&layers.Ethernet{
		SrcMAC:       []byte{1, 2, 3, 4, 5, 6},
		DstMAC:       []byte{6, 5, 4, 3, 2, 1},
		EthernetType: layers.EthernetTypeIPv4,
	})
	return nil
}

type postPlanningLayer struct{ recordingLayer }

func (r *postPlanningLayer) PostPlanFlow(flow Flow) error {
	*r.log = append(*r.log, r.name+":PostPlanFlow")
	return nil
}

type extraPlanningLayer struct{ recordingLayer }

func (r *extraPlanningLayer) PlanExtra(flow Flow) error {
	*r.log = append(*r.log, r.name+":PlanExtra")
	return nil
}

type postBuildingLayer struct{ recordingLayer }

func (r *postBuildingLayer) PostBuild(pkt *Packet, params any, plan *flowmodel.PacketPlan) error {
	*r.log = append(*r.log, r.name+":PostBuild")
	return nil
}

func TestStack_PlanFlow_RunsInStackOrder(t *testing.T) {
	var log []string
	s := NewStack()
	s.Add(&recordingLayer{name: "a", log: &log})
	s.Add(&recordingLayer{name: "b", log: &log})

	require.NoError(t, s.PlanFlow(nil))
	assert.Equal(t, []string{"a:PlanFlow", "b:PlanFlow"}, log)
}

func TestStack_PostPlanFlow_SkipsLayersWithoutTheHook(t *testing.T) {
	var log []string
	s := NewStack()
	s.Add(&recordingLayer{name: "plain", log: &log})
	s.Add(&postPlanningLayer{recordingLayer{name: "post", log: &log}})

	require.NoError(t, s.PostPlanFlow(nil))
	assert.Equal(t, []string{"post:PostPlanFlow"}, log)
}

func TestStack_PlanExtra_SkipsLayersWithoutTheHook(t *testing.T) {
	var log []string
	s := NewStack()
	s.Add(&recordingLayer{name: "plain", log: &log})
	s.Add(&extraPlanningLayer{recordingLayer{name: "extra", log: &log}})

	require.NoError(t, s.PlanExtra(nil))
	assert.Equal(t, []string{"extra:PlanExtra"}, log)
}

func TestStack_Build_RunsBuildThenPostBuild(t *testing.T) {
	var log []string
	s := NewStack()
	s.Add(&recordingLayer{name: "a", log: &log})
	s.Add(&postBuildingLayer{recordingLayer{name: "b", log: &log}})

	plan := &flowmodel.PacketPlan{}
	segments, err := s.Build(plan)
	require.NoError(t, err)
	assert.Len(t, segments, 1)
	assert.Equal(t, []string{"a:Build", "b:Build", "b:PostBuild"}, log)
}

func TestStack_IndexOf(t *testing.T) {
	s := NewStack()
	a := &recordingLayer{name: "a", log: &[]string{}}
	b := &recordingLayer{name: "b", log: &[]string{}}
	s.Add(a)
	s.Add(b)

	assert.Equal(t, 0, s.IndexOf(a))
	assert.Equal(t, 1, s.IndexOf(b))
	assert.Equal(t, -1, s.IndexOf(&recordingLayer{}))
}
