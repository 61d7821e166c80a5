// Package reconstruct implements TripReconstruction: walking a terminal
// label's back-pointer chain to the root and coalescing the traversed
// edges into an ordered leg list (walk/ride/transfer) with times,
// coordinates, and stop metadata.
//
// Grounded on the teacher's backtracking loop in
// internal/routing/raptor.go (FindRoute's walk over labels[k] building
// a Journey) and impactsolutionsas-passbi_core/internal/routing/astar.go's
// buildSteps, which coalesces consecutive same-kind path segments into
// steps the same way this package coalesces edges into legs.
package reconstruct

import (
	"time"

	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/labelsetting"
	"github.com/antigravity/transit-planner/internal/overlay"
	"github.com/antigravity/transit-planner/internal/tripapi"
)

// NodeInfo is what Walk needs to know about a node to label a leg
// boundary or an intermediate ride stop event: its GTFS stop id and
// name when it sits on a stop, and a display coordinate. Virtual
// origin/destination nodes resolve to the request's free coordinate;
// platform and time-expanded event nodes resolve to the stop they sit
// at; interior walk-network nodes this minimal graphbuild never
// registers resolve with Lat/Lon left at zero (see package
// stationaccess's geometry note).
type NodeInfo struct {
	StopID   string
	StopName string
	Lat, Lon float64
}

// NodeLookup resolves a node id to display metadata. Supplied by
// package planner, which knows the request's virtual node ids and has
// access to the GTFS stop directory.
type NodeLookup func(graph.NodeID) NodeInfo

// TripMeta resolves an interned GTFS trip id to the route id and
// headsign shown on a ride leg.
type TripMeta func(tripID string) (routeID, headsign string)

// Params bundles everything Walk needs besides the label arena itself.
type Params struct {
	Base    *graph.Base
	Feed    *overlay.FeedOverlay
	Node    NodeLookup
	Trip    TripMeta
	Reverse bool
}

// Walk reconstructs the itinerary terminating (in a reverse search,
// originating) at arena[terminal], by following Parent back to the
// root label and coalescing the traversed edges into legs.
//
// Label.ParentEdge always records its edge with From the
// chronologically earlier endpoint and To the later one, regardless
// of search direction (GraphExplorer yields reverse-search edges
// already un-flipped back to their base-graph orientation). So the
// only direction-dependent step is which end of the parent chain is
// chronologically first: the root label for a forward search, the
// terminal label for a reverse one.
func Walk(p Params, arena []labelsetting.Label, terminal int32) tripapi.Itinerary {
	chain := []int32{terminal}
	for {
		parent := arena[chain[len(chain)-1]].Parent
		if parent == -1 {
			break
		}
		chain = append(chain, parent)
	}

	cl := make([]int32, len(chain))
	if p.Reverse {
		copy(cl, chain)
	} else {
		for i, idx := range chain {
			cl[len(chain)-1-i] = idx
		}
	}

	edges := make([]graph.Edge, 0, len(cl)-1)
	for _, idx := range cl {
		if arena[idx].Parent == -1 {
			continue
		}
		edges = append(edges, arena[idx].ParentEdge)
	}

	timeAt := func(idx int32) time.Time {
		return time.Unix(arena[idx].Time, 0).UTC()
	}

	var legs []tripapi.Leg
	var b *legBuilder

	flush := func(endIdx int) {
		if b == nil {
			return
		}
		legs = append(legs, b.close(p, cl[endIdx], timeAt(cl[endIdx])))
		b = nil
	}

	for i, e := range edges {
		kind := legKindOf(e.Type)
		if b == nil || kind != b.kind || e.Type == graph.BOARD {
			flush(i)
			b = newLegBuilder(kind, cl[i], timeAt(cl[i]))
		}
		b.absorb(p, e, cl[i+1], timeAt(cl[i+1]))
	}
	flush(len(cl) - 1)

	var totalDist float64
	var geometry [][2]float64
	for _, l := range legs {
		totalDist += l.DistanceM
		geometry = append(geometry, l.Geometry...)
	}

	var total time.Duration
	if len(legs) > 0 {
		total = legs[len(legs)-1].EndTime.Sub(legs[0].StartTime)
	}

	return tripapi.Itinerary{
		TotalTime:     total,
		TotalDistance: totalDist,
		Geometry:      geometry,
		Legs:          legs,
		Transfers:     transferCount(arena[terminal].NTransfers),
	}
}

// transferCount converts the label's boarding counter (incremented on
// every BOARD, per §4.2's transfer-boundary rule) into the itinerary-
// level transfer count §8 expects: a direct ride boards once and has
// zero transfers, so the reported count is boardings minus one.
func transferCount(boardings int) int {
	if boardings <= 0 {
		return 0
	}
	return boardings - 1
}

// legKindOf classifies an edge type into the leg it belongs to. BOARD,
// ALIGHT, HOP, DWELL, WAIT and WAIT_ARRIVAL are all ride-internal
// machinery (WAIT is absorbed into the BOARD it precedes, per §8's
// monotonicity property); everything that gets a traveler from a
// coordinate to the transit network or back is a walk; TRANSFER is its
// own leg kind.
func legKindOf(t graph.EdgeType) tripapi.LegKind {
	switch t {
	case graph.TRANSFER:
		return tripapi.LegTransfer
	case graph.BOARD, graph.ALIGHT, graph.HOP, graph.DWELL, graph.WAIT, graph.WAIT_ARRIVAL, graph.OVERNIGHT:
		return tripapi.LegRide
	default:
		return tripapi.LegWalk
	}
}

// legBuilder accumulates one leg in progress. A BOARD edge always
// starts a fresh ride leg even when the previous leg was also a ride
// (an immediate same-platform transfer has no walk/transfer edge
// between the ALIGHT and the next BOARD), so every ride leg maps to
// exactly one trip, matching the "ride legs == BOARD edges" property.
type legBuilder struct {
	kind      tripapi.LegKind
	startNode graph.NodeID
	startTime time.Time
	distance  float64
	tripID    int32
	routeID   int32
	events    []tripapi.StopEvent
}

func newLegBuilder(kind tripapi.LegKind, startNode graph.NodeID, startTime time.Time) *legBuilder {
	return &legBuilder{kind: kind, startNode: startNode, startTime: startTime, tripID: -1, routeID: -1}
}

// absorb folds edge e (ending at node `to` at instant `toTime`) into
// the leg under construction.
func (b *legBuilder) absorb(p Params, e graph.Edge, to graph.NodeID, toTime time.Time) {
	b.distance += e.Distance
	if e.TripID >= 0 {
		b.tripID = e.TripID
		b.routeID = e.RouteID
	}
	if e.Type == graph.HOP {
		stopSeq := e.StopSeq + 1
		info := p.Node(to)
		scheduled := toTime
		if e.TripID >= 0 {
			tripID := p.Base.TripString(e.TripID)
			day := p.Base.Epoch.DayOf(toTime)
			scheduled = toTime.Add(-p.Feed.DelayFor(tripID, day, stopSeq).ArrivalDelay)
		}
		b.events = append(b.events, tripapi.StopEvent{
			StopID:        info.StopID,
			StopName:      info.StopName,
			Lat:           info.Lat,
			Lon:           info.Lon,
			ScheduledTime: scheduled,
			RealizedTime:  toTime,
		})
	}
}

func (b *legBuilder) close(p Params, endNode graph.NodeID, endTime time.Time) tripapi.Leg {
	from := p.Node(b.startNode)
	to := p.Node(endNode)

	leg := tripapi.Leg{
		Kind:       b.kind,
		FromStopID: from.StopID,
		ToStopID:   to.StopID,
		FromLat:    from.Lat,
		FromLon:    from.Lon,
		ToLat:      to.Lat,
		ToLon:      to.Lon,
		StartTime:  b.startTime,
		EndTime:    endTime,
		DistanceM:  b.distance,
		Geometry:   [][2]float64{{from.Lat, from.Lon}, {to.Lat, to.Lon}},
	}

	if b.kind == tripapi.LegRide && b.tripID >= 0 {
		leg.TripID = p.Base.TripString(b.tripID)
		leg.RouteID, leg.Headsign = p.Trip(leg.TripID)
		leg.StopSeq = b.events
	}

	return leg
}
