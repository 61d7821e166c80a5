package querygraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/stationaccess"
)

func TestBuild_AllocatesVirtualNodesAboveBase(t *testing.T) {
	base := graph.NewBase(10)

	qg := Build(Params{
		Base:           base,
		OriginWalkNode: 2,
		DestWalkNode:   3,
		OriginAccess:   []stationaccess.Access{{Node: 5, Distance: 120, Time: 90}},
		DestAccess:     []stationaccess.Access{{Node: 6, Distance: 60, Time: 45}},
	})

	assert.Equal(t, graph.NodeID(10), qg.OriginNode)
	assert.Equal(t, graph.NodeID(11), qg.DestNode)
}

func TestBuild_OriginEdgesCoverDirectWalkAndStationAccess(t *testing.T) {
	base := graph.NewBase(10)
	qg := Build(Params{
		Base:           base,
		OriginWalkNode: 2,
		DestWalkNode:   3,
		OriginAccess:   []stationaccess.Access{{Node: 5, Distance: 120, Time: 90}},
	})

	out := qg.VirtualOut(qg.OriginNode)
	require.Len(t, out, 2)

	var sawDirectWalk, sawTransit bool
	for _, e := range out {
		switch e.Type {
		case graph.STOP_ENTER_NODE:
			sawDirectWalk = true
			assert.Equal(t, graph.NodeID(2), e.To)
		case graph.ENTER_TIME_EXPANDED_NETWORK:
			sawTransit = true
			assert.Equal(t, graph.NodeID(5), e.To)
			assert.Equal(t, int32(90), e.Time)
		}
	}
	assert.True(t, sawDirectWalk)
	assert.True(t, sawTransit)
}

func TestBuild_DestEdgesReachableViaVirtualIn(t *testing.T) {
	base := graph.NewBase(10)
	qg := Build(Params{
		Base:         base,
		DestWalkNode: 3,
		DestAccess:   []stationaccess.Access{{Node: 6, Distance: 60, Time: 45}},
	})

	in := qg.VirtualIn(qg.DestNode)
	require.Len(t, in, 2)

	var sawDirectWalk, sawTransit bool
	for _, e := range in {
		switch e.Type {
		case graph.STOP_EXIT_NODE:
			sawDirectWalk = true
			assert.Equal(t, graph.NodeID(3), e.From)
		case graph.LEAVE_TIME_EXPANDED_NETWORK:
			sawTransit = true
			assert.Equal(t, graph.NodeID(6), e.From)
		}
	}
	assert.True(t, sawDirectWalk)
	assert.True(t, sawTransit)
}
