// Package stationaccess implements the short-range label-setting pass
// that turns one snapped walk-network node into a set of virtual
// entry/exit edges for package querygraph to splice onto the base
// graph. Where the main search spans the whole time-expanded network,
// this one is deliberately restricted: walk edges (HIGHWAY) and the
// single ENTER_PT (or, run in reverse, EXIT_PT) boundary crossing, with
// transfer counting switched off.
//
// Grounded on the teacher's internal/routing/astar.go Dijkstra shape
// (open set keyed by running distance, relax-and-push on pop), cut
// down to the smaller graph this pass runs over.
package stationaccess

import (
	"container/heap"
	"math"

	"github.com/antigravity/transit-planner/internal/costmodel"
	"github.com/antigravity/transit-planner/internal/graph"
)

// Access is one station boundary the pass reached: the platform node
// on the far side of the crossing (in both directions, since a reverse
// pass steps from the walk node back across EXIT_PT to its platform),
// plus the distance, time, and approximate geometry of the walk used
// to get there.
type Access struct {
	Node     graph.NodeID
	Distance float64
	Time     int64
	Geometry [][2]float64
}

// Config controls one pass.
type Config struct {
	WalkSpeedMPS float64
	// MaxWalkDistance bounds the walk-network portion of the path;
	// 0 means unbounded. The boundary-crossing edge itself is not
	// subject to this budget.
	MaxWalkDistance float64
	// Reverse runs the pass against Base.In and looks for EXIT_PT
	// instead of ENTER_PT, for destination-side station access.
	Reverse bool
}

type node struct {
	dist    float64
	time    int64
	viaEdge graph.EdgeType
	visited bool
}

type item struct {
	n    graph.NodeID
	dist float64
}

type pqueue []*item

func (q pqueue) Len() int           { return len(q) }
func (q pqueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q pqueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pqueue) Push(x any)        { *q = append(*q, x.(*item)) }
func (q *pqueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Run walks the base graph from start, restricted to HIGHWAY edges plus
// the boundary edge type cfg selects, and returns one Access per
// boundary edge reachable within cfg.MaxWalkDistance. coord looks up a
// node's coordinate for geometry purposes; it may return ok=false for
// interior street nodes the bundled spatial index never registered, in
// which case the returned Access's Geometry only has its one known
// endpoint, or none.
func Run(base *graph.Base, start graph.NodeID, cfg Config, coord func(graph.NodeID) (lat, lon float64, ok bool)) []Access {
	boundary := graph.ENTER_PT
	if cfg.Reverse {
		boundary = graph.EXIT_PT
	}

	nodes := map[graph.NodeID]*node{start: {dist: 0}}
	pq := &pqueue{}
	heap.Init(pq)
	heap.Push(pq, &item{n: start, dist: 0})

	var out []Access

	for pq.Len() > 0 {
		it := heap.Pop(pq).(*item)
		n := nodes[it.n]
		if n.visited || it.dist > n.dist {
			continue // stale entry, a shorter path already settled this node
		}
		n.visited = true

		if it.n != start && n.viaEdge == boundary {
			out = append(out, Access{
				Node:     it.n,
				Distance: n.dist,
				Time:     n.time,
				Geometry: geometryFor(start, it.n, coord),
			})
			// The restricted graph has nothing past a boundary node (a
			// platform has no HIGHWAY edges out), so there is nothing
			// to expand from here.
			continue
		}

		adj := base.Out[it.n]
		if cfg.Reverse {
			adj = base.In[it.n]
		}
		for _, e := range adj {
			if e.Type != graph.HIGHWAY && e.Type != boundary {
				continue
			}
			neighbor := e.To
			if cfg.Reverse {
				neighbor = e.From
			}
			if e.Type == graph.HIGHWAY && cfg.MaxWalkDistance > 0 && n.dist+e.Distance > cfg.MaxWalkDistance {
				continue
			}

			newDist := n.dist + e.Distance
			newTime := n.time + costmodel.TimeDelta(e, cfg.WalkSpeedMPS)

			nn, ok := nodes[neighbor]
			if !ok {
				nn = &node{dist: math.Inf(1)}
				nodes[neighbor] = nn
			}
			if nn.visited || newDist >= nn.dist {
				continue
			}
			nn.dist = newDist
			nn.time = newTime
			nn.viaEdge = e.Type
			heap.Push(pq, &item{n: neighbor, dist: newDist})
		}
	}

	return out
}

// geometryFor returns the two endpoints of the discovered path as a
// polyline. The bundled spatial index only registers coordinates for
// walk-network entry nodes (see package graphbuild), not for every
// intermediate street node a real OSM walk network would have, so this
// is an approximation of the true walked geometry rather than a
// turn-by-turn reconstruction.
func geometryFor(start, end graph.NodeID, coord func(graph.NodeID) (lat, lon float64, ok bool)) [][2]float64 {
	var pts [][2]float64
	if lat, lon, ok := coord(start); ok {
		pts = append(pts, [2]float64{lat, lon})
	}
	if lat, lon, ok := coord(end); ok {
		pts = append(pts, [2]float64{lat, lon})
	}
	return pts
}
