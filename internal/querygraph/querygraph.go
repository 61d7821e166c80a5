// Package querygraph is the transient, per-query overlay that splices
// one request's origin/destination onto the read-only base graph: a
// pair of virtual nodes above graph.Base.NodeCount, wired in by the
// edges package stationaccess discovered plus a direct link to the
// snapped walk node, so a plain walk-only itinerary is still
// reachable even when no transit boundary is in range. It implements
// explorer.VirtualSource so GraphExplorer can fold it into the base
// adjacency for the query's duration without mutating the base graph.
//
// New relative to the teacher, which snaps straight to a DB stop id
// and has no query-time graph augmentation; built in the adjacency-map
// style the teacher's loader uses elsewhere (map[NodeID][]Edge),
// enriched with the ENTER_TIME_EXPANDED_NETWORK/LEAVE_TIME_EXPANDED_NETWORK/
// STOP_ENTER_NODE/STOP_EXIT_NODE edge types, which sat unused in the
// graph package's classification enum until this package gave them a
// job.
package querygraph

import (
	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/stationaccess"
)

// Params is everything Build needs to splice one query's endpoints
// onto base.
type Params struct {
	Base *graph.Base

	// OriginWalkNode/DestWalkNode are the walk-network nodes the
	// request's two points snapped to (see package spatial).
	OriginWalkNode graph.NodeID
	DestWalkNode   graph.NodeID

	// OriginAccess is stationaccess.Run(base, OriginWalkNode, cfg) with
	// Reverse false: every platform reachable on foot from the origin.
	OriginAccess []stationaccess.Access
	// DestAccess is stationaccess.Run(base, DestWalkNode, cfg) with
	// Reverse true: every platform within walking distance of the
	// destination, discovered by walking the street network backward.
	DestAccess []stationaccess.Access
}

// QueryGraph is the built overlay. It is read-only once returned by
// Build and safe to share across the goroutines of a single query
// (there is only one, per the one-worker-per-query model), but is not
// meant to outlive the query since it addresses a specific pair of
// newly allocated virtual node ids.
type QueryGraph struct {
	OriginNode graph.NodeID
	DestNode   graph.NodeID

	outBy map[graph.NodeID][]graph.Edge
	inBy  map[graph.NodeID][]graph.Edge
}

// Build allocates OriginNode and DestNode immediately above
// base.NodeCount and wires in the virtual edges described in Params.
func Build(p Params) *QueryGraph {
	qg := &QueryGraph{
		OriginNode: graph.NodeID(p.Base.NodeCount),
		DestNode:   graph.NodeID(p.Base.NodeCount) + 1,
		outBy:      make(map[graph.NodeID][]graph.Edge),
		inBy:       make(map[graph.NodeID][]graph.Edge),
	}

	var nextEdgeID graph.EdgeID
	add := func(e graph.Edge) {
		e.Reverse = graph.NoEdge
		e.ID = nextEdgeID
		nextEdgeID++
		qg.outBy[e.From] = append(qg.outBy[e.From], e)
		qg.inBy[e.To] = append(qg.inBy[e.To], e)
	}

	add(graph.Edge{
		Type: graph.STOP_ENTER_NODE, From: qg.OriginNode, To: p.OriginWalkNode,
		TripID: -1, RouteID: -1, StopSeq: -1,
	})
	for _, a := range p.OriginAccess {
		add(graph.Edge{
			Type: graph.ENTER_TIME_EXPANDED_NETWORK, From: qg.OriginNode, To: a.Node,
			Time: int32(a.Time), Distance: a.Distance, TripID: -1, RouteID: -1, StopSeq: -1,
		})
	}

	add(graph.Edge{
		Type: graph.STOP_EXIT_NODE, From: p.DestWalkNode, To: qg.DestNode,
		TripID: -1, RouteID: -1, StopSeq: -1,
	})
	for _, a := range p.DestAccess {
		add(graph.Edge{
			Type: graph.LEAVE_TIME_EXPANDED_NETWORK, From: a.Node, To: qg.DestNode,
			Time: int32(a.Time), Distance: a.Distance, TripID: -1, RouteID: -1, StopSeq: -1,
		})
	}

	return qg
}

// VirtualOut implements explorer.VirtualSource.
func (qg *QueryGraph) VirtualOut(n graph.NodeID) []graph.Edge { return qg.outBy[n] }

// VirtualIn implements explorer.VirtualSource.
func (qg *QueryGraph) VirtualIn(n graph.NodeID) []graph.Edge { return qg.inBy[n] }
