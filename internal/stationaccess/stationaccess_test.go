package stationaccess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-planner/internal/graph"
)

// buildWalkNetwork makes a tiny street graph: w0 --HIGHWAY(100m)--> w1
// --HIGHWAY(50m)--> w2, with w2 also holding an ENTER_PT to platform p2.
// w1 additionally has a direct ENTER_PT to platform p1, so the pass
// should reach both boundaries from w0.
func buildWalkNetwork() (*graph.Base, graph.NodeID) {
	const w0, w1, w2, p1, p2 graph.NodeID = 0, 1, 2, 3, 4
	base := graph.NewBase(5)

	hop1 := graph.Edge{ID: 0, Type: graph.HIGHWAY, From: w0, To: w1, Distance: 100, Reverse: 1}
	hop1rev := graph.Edge{ID: 1, Type: graph.HIGHWAY, From: w1, To: w0, Distance: 100, Reverse: 0}
	base.AddEdge(hop1, hop1rev)

	hop2 := graph.Edge{ID: 2, Type: graph.HIGHWAY, From: w1, To: w2, Distance: 50, Reverse: 3}
	hop2rev := graph.Edge{ID: 3, Type: graph.HIGHWAY, From: w2, To: w1, Distance: 50, Reverse: 2}
	base.AddEdge(hop2, hop2rev)

	enter1 := graph.Edge{ID: 4, Type: graph.ENTER_PT, From: w1, To: p1, TripID: -1, RouteID: -1, StopSeq: -1, Reverse: graph.NoEdge}
	base.AddDirectedEdge(enter1)

	enter2 := graph.Edge{ID: 5, Type: graph.ENTER_PT, From: w2, To: p2, TripID: -1, RouteID: -1, StopSeq: -1, Reverse: graph.NoEdge}
	base.AddDirectedEdge(enter2)

	return base, w0
}

func TestRun_ReachesAllBoundariesWithinBudget(t *testing.T) {
	base, start := buildWalkNetwork()

	out := Run(base, start, Config{WalkSpeedMPS: 1.4, MaxWalkDistance: 1000}, func(graph.NodeID) (float64, float64, bool) {
		return 0, 0, false
	})

	require.Len(t, out, 2)
	byNode := map[graph.NodeID]Access{}
	for _, a := range out {
		byNode[a.Node] = a
	}
	assert.InDelta(t, 100, byNode[3].Distance, 0.001)
	assert.InDelta(t, 150, byNode[4].Distance, 0.001)
}

func TestRun_RespectsWalkBudget(t *testing.T) {
	base, start := buildWalkNetwork()

	out := Run(base, start, Config{WalkSpeedMPS: 1.4, MaxWalkDistance: 120}, func(graph.NodeID) (float64, float64, bool) {
		return 0, 0, false
	})

	require.Len(t, out, 1)
	assert.Equal(t, graph.NodeID(3), out[0].Node)
}

func TestRun_ReverseUsesExitBoundary(t *testing.T) {
	const p1, w1 graph.NodeID = 10, 11
	base := graph.NewBase(12)
	exit := graph.Edge{ID: 0, Type: graph.EXIT_PT, From: p1, To: w1, TripID: -1, RouteID: -1, StopSeq: -1, Reverse: graph.NoEdge}
	base.AddDirectedEdge(exit)
	base.In[w1] = append(base.In[w1], exit)

	out := Run(base, w1, Config{WalkSpeedMPS: 1.4, Reverse: true}, func(graph.NodeID) (float64, float64, bool) {
		return 0, 0, false
	})

	require.Len(t, out, 1)
	assert.Equal(t, p1, out[0].Node)
}
