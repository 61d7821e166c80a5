// Package planner orchestrates one trip-planning request end to end:
// snap both endpoints onto the walk network, run a station-access pass
// from each, splice a per-query QueryGraph onto the base graph, run
// LabelSetting, and reconstruct every emitted solution into an
// itinerary.
//
// Grounded on the teacher's TransportHandler.GetRoute wiring
// Raptor.FindRoute in internal/handler/transport_handler.go, generalized
// to the full origin-snap -> station-access -> query-graph -> search ->
// reconstruct pipeline this repository's algorithm needs.
package planner

import (
	"sort"
	"time"

	"github.com/antigravity/transit-planner/internal/costmodel"
	"github.com/antigravity/transit-planner/internal/explorer"
	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/gtfsmodel"
	"github.com/antigravity/transit-planner/internal/labelsetting"
	"github.com/antigravity/transit-planner/internal/overlay"
	"github.com/antigravity/transit-planner/internal/querygraph"
	"github.com/antigravity/transit-planner/internal/reconstruct"
	"github.com/antigravity/transit-planner/internal/spatial"
	"github.com/antigravity/transit-planner/internal/stationaccess"
	"github.com/antigravity/transit-planner/internal/tripapi"
)

// maxStationAccessWalk bounds how far the station-access pass is
// allowed to wander from an endpoint before giving up on a boundary,
// independent of the request's per-leg walk budget (which governs the
// main search, not this pre-pass).
const maxStationAccessWalk = 1500.0

// profileSeedMinutes bounds the profile-query re-seeding pass to a
// look-ahead window, since the true window upper bound (the slowest
// Pareto-optimal arrival from the first pass) can exceed what's worth
// re-seeding minute by minute; LabelSetting's front naturally discards
// seeds that can't improve on an earlier one.
const profileSeedMinutes = 180

// Planner holds everything needed to answer requests against one
// compiled graph: the base graph and its walk-node spatial index
// (built once at startup by internal/graphbuild), the GTFS stop
// directory for leg labeling, and the live real-time snapshot.
type Planner struct {
	Base    *graph.Base
	Index   spatial.Index
	Stops   map[string]gtfsmodel.Stop
	Trips   map[string]gtfsmodel.Trip
	Routes  map[string]gtfsmodel.Route
	Overlay *overlay.Snapshot
}

// New builds a Planner from a compiled graph and its GTFS directory.
func New(base *graph.Base, index spatial.Index, feed *gtfsmodel.Feed, ov *overlay.Snapshot) *Planner {
	stops := make(map[string]gtfsmodel.Stop, len(feed.Stops))
	for _, s := range feed.Stops {
		stops[s.ID] = s
	}
	trips := make(map[string]gtfsmodel.Trip, len(feed.Trips))
	for _, t := range feed.Trips {
		trips[t.ID] = t
	}
	routes := make(map[string]gtfsmodel.Route, len(feed.Routes))
	for _, r := range feed.Routes {
		routes[r.ID] = r
	}
	return &Planner{Base: base, Index: index, Stops: stops, Trips: trips, Routes: routes, Overlay: ov}
}

// pass bundles the state a single LabelSetting invocation needs beyond
// the request itself, threaded through search/assemble/planProfile so
// neither has to recompute the station-access or query-graph work.
type pass struct {
	qg         *querygraph.QueryGraph
	originNode endpoint
	destNode   endpoint
}

type endpoint struct {
	lat, lon float64
}

// Plan answers one trip request.
func (p *Planner) Plan(req *tripapi.Request) (*tripapi.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Hints.LimitSolutions = resolveLimitSolutions(req.Hints)

	idLookupStart := time.Now()
	originWalk, originCoord, err := p.snap(req.Points[0], 0)
	if err != nil {
		return nil, err
	}
	destWalk, destCoord, err := p.snap(req.Points[1], 1)
	if err != nil {
		return nil, err
	}
	idLookupMillis := time.Since(idLookupStart).Milliseconds()

	feed := p.Overlay.Load()

	originAccess := stationaccess.Run(p.Base, originWalk, stationaccess.Config{
		WalkSpeedMPS:    costmodel.WalkSpeedMetersPerSecond(req.Hints.WalkSpeedKMH),
		MaxWalkDistance: maxStationAccessWalk,
	}, p.coordOf)
	destAccess := stationaccess.Run(p.Base, destWalk, stationaccess.Config{
		WalkSpeedMPS:    costmodel.WalkSpeedMetersPerSecond(req.Hints.WalkSpeedKMH),
		MaxWalkDistance: maxStationAccessWalk,
		Reverse:         true,
	}, p.coordOf)

	qg := querygraph.Build(querygraph.Params{
		Base:           p.Base,
		OriginWalkNode: originWalk,
		DestWalkNode:   destWalk,
		OriginAccess:   originAccess,
		DestAccess:     destAccess,
	})
	ps := pass{
		qg:         qg,
		originNode: originCoord,
		destNode:   destCoord,
	}

	routingStart := time.Now()

	var resp *tripapi.Response
	if req.Hints.ProfileQuery {
		resp, err = p.planProfile(req, feed, ps)
	} else {
		result, reverse := p.search(req, feed, ps, req.Hints.EarliestDepartureTime, []int64{req.Hints.EarliestDepartureTime.Unix()}, false)
		resp = p.assemble(ps, result, reverse)
	}
	if err != nil {
		return nil, err
	}

	resp.Debug.IDLookupMillis = idLookupMillis
	resp.Debug.RoutingMillis = time.Since(routingStart).Milliseconds()
	return resp, nil
}

// resolveLimitSolutions applies the §6 hint table's conditional
// default for pt.limit_solutions: a caller that leaves the hint unset
// (the zero value) gets 5 under profileQuery, 1 under ignoreTransfers,
// or unbounded otherwise; a caller that sets it explicitly is never
// overridden.
func resolveLimitSolutions(hints tripapi.Hints) int {
	if hints.LimitSolutions != 0 {
		return hints.LimitSolutions
	}
	switch {
	case hints.ProfileQuery:
		return 5
	case hints.IgnoreTransfers:
		return 1
	default:
		return 0
	}
}

// planProfile implements the SUPPLEMENTED FEATURES profile-query
// behavior: run one ordinary point query first to discover the latest
// arrival among its solutions, then re-seed LabelSetting in profile
// mode across [EarliestDepartureTime, thatArrival], since a profile
// query's window upper bound has no caller-supplied value until a
// first pass establishes it.
func (p *Planner) planProfile(req *tripapi.Request, feed *overlay.FeedOverlay, ps pass) (*tripapi.Response, error) {
	firstPass, _ := p.search(req, feed, ps, req.Hints.EarliestDepartureTime, []int64{req.Hints.EarliestDepartureTime.Unix()}, false)
	if len(firstPass.Solutions) == 0 {
		return &tripapi.Response{Debug: tripapi.DebugHints{NoPath: true, VisitedNodesSum: firstPass.VisitedNodes}}, nil
	}

	windowEnd := time.Unix(firstPass.Arena[firstPass.Solutions[0]].Time, 0)
	for _, sol := range firstPass.Solutions {
		if t := time.Unix(firstPass.Arena[sol].Time, 0); t.After(windowEnd) {
			windowEnd = t
		}
	}

	seeds := profileSeeds(req.Hints.EarliestDepartureTime, windowEnd)
	result, reverse := p.search(req, feed, ps, req.Hints.EarliestDepartureTime, seeds, true)
	return p.assemble(ps, result, reverse), nil
}

// profileSeeds produces one start time per minute across the closed
// interval [from, min(to, from+profileSeedMinutes)].
func profileSeeds(from, to time.Time) []int64 {
	limit := from.Add(profileSeedMinutes * time.Minute)
	if to.Before(limit) {
		limit = to
	}
	var out []int64
	for t := from; !t.After(limit); t = t.Add(time.Minute) {
		out = append(out, t.Unix())
	}
	if len(out) == 0 {
		out = []int64{from.Unix()}
	}
	return out
}

// search runs one LabelSetting pass, handling pt.arrive_by's direction
// reversal (the reversed search's Start/Dest swap, and the explorer's
// Reverse flag driving un-flipped edge traversal).
func (p *Planner) search(req *tripapi.Request, feed *overlay.FeedOverlay, ps pass, anchor time.Time, startTimes []int64, profileMode bool) (*labelsetting.Result, bool) {
	reverse := req.Hints.ArriveBy
	day := p.Base.Epoch.DayOf(anchor)
	ex := explorer.New(p.Base, feed, ps.qg, reverse, req.Hints.WalkSpeedKMH, day)

	start, dest := ps.qg.OriginNode, ps.qg.DestNode
	if reverse {
		start, dest = ps.qg.DestNode, ps.qg.OriginNode
	}

	result := labelsetting.Search(labelsetting.Params{
		Explorer:   ex,
		Start:      start,
		Dest:       dest,
		StartTimes: startTimes,
		Config: labelsetting.Config{
			IgnoreTransfers: req.Hints.IgnoreTransfers,
			ProfileQuery:    profileMode,
			Reverse:         reverse,
		},
		Budgets: costmodel.Budgets{
			MaxWalkDistancePerLeg:     req.Hints.MaxWalkDistancePerLeg,
			MaxTransferDistancePerLeg: req.Hints.MaxTransferDistancePerLeg,
		},
		LimitSolutions:  req.Hints.LimitSolutions,
		MaxVisitedNodes: req.Hints.MaxVisitedNodes,
	})

	return result, reverse
}

// assemble reconstructs every solution label into an itinerary and
// fills in the response's debug hints, including the visited_nodes.sum
// / visited_nodes.average fix from Open Question (b): average is
// sum divided by the number of emitted solutions, not a second copy of
// sum as the source computed it.
func (p *Planner) assemble(ps pass, result *labelsetting.Result, reverse bool) *tripapi.Response {
	feed := p.Overlay.Load()

	params := reconstruct.Params{
		Base:    p.Base,
		Feed:    feed,
		Node:    p.nodeInfo(ps),
		Trip:    p.tripMeta,
		Reverse: reverse,
	}

	resp := &tripapi.Response{Exhausted: result.Exhausted}
	for _, sol := range result.Solutions {
		itin := reconstruct.Walk(params, result.Arena, sol)
		if reverse && len(itin.Legs) > 0 {
			window := tripapi.TimeWindow{Start: itin.Legs[0].StartTime, End: time.Unix(result.Arena[sol].Time, 0)}
			itin.DepartureWindow = &window
		}
		resp.Itineraries = append(resp.Itineraries, itin)
	}
	sort.Slice(resp.Itineraries, func(i, j int) bool {
		return resp.Itineraries[i].TotalTime < resp.Itineraries[j].TotalTime
	})

	resp.Debug.VisitedNodesSum = result.VisitedNodes
	if len(result.Solutions) > 0 {
		resp.Debug.VisitedNodesAverage = float64(result.VisitedNodes) / float64(len(result.Solutions))
	} else {
		resp.Debug.VisitedNodesAverage = float64(result.VisitedNodes)
		resp.Debug.NoPath = true
	}

	return resp
}

// nodeInfo builds the reconstruct.NodeLookup closure for one query: the
// two virtual request endpoints resolve to the request's free
// coordinates, platform/event nodes resolve through the GTFS stop
// directory, and anything else (an interior walk-network node this
// minimal graphbuild never names) resolves to the zero value.
func (p *Planner) nodeInfo(ps pass) reconstruct.NodeLookup {
	return func(n graph.NodeID) reconstruct.NodeInfo {
		switch n {
		case ps.qg.OriginNode:
			return reconstruct.NodeInfo{Lat: ps.originNode.lat, Lon: ps.originNode.lon}
		case ps.qg.DestNode:
			return reconstruct.NodeInfo{Lat: ps.destNode.lat, Lon: ps.destNode.lon}
		}
		if stopID, ok := p.Base.NodeStop[n]; ok {
			return p.stopInfo(stopID)
		}
		if stopID, ok := p.Base.EventStop[n]; ok {
			return p.stopInfo(stopID)
		}
		return reconstruct.NodeInfo{}
	}
}

func (p *Planner) stopInfo(stopID string) reconstruct.NodeInfo {
	s, ok := p.Stops[stopID]
	if !ok {
		return reconstruct.NodeInfo{StopID: stopID}
	}
	return reconstruct.NodeInfo{StopID: s.ID, StopName: s.Name, Lat: s.Lat, Lon: s.Lon}
}

func (p *Planner) tripMeta(tripID string) (routeID, headsign string) {
	t, ok := p.Trips[tripID]
	if !ok {
		return "", ""
	}
	if r, ok := p.Routes[t.RouteID]; ok {
		return r.ID, t.Headsign
	}
	return t.RouteID, t.Headsign
}

// snap resolves request point idx to a walk-network node: either a
// direct coordinate lookup via the spatial index, or the stop's
// registered walk node when the point names a station. It also returns
// the resolved display coordinate, since a Station-kind point carries
// no lat/lon of its own in the request.
func (p *Planner) snap(pt tripapi.Point, idx int) (graph.NodeID, endpoint, error) {
	if pt.Kind == tripapi.Station {
		s, ok := p.Stops[pt.StopID]
		if !ok {
			return 0, endpoint{}, tripapi.NewInvalidArgument("point %d: unknown stop id %q", idx, pt.StopID)
		}
		pt.Lat, pt.Lon = s.Lat, s.Lon
	}
	node, _, ok := p.Index.Nearest(pt.Lat, pt.Lon, 0)
	if !ok {
		return 0, endpoint{}, tripapi.NewPointNotFound(idx)
	}
	return node, endpoint{lat: pt.Lat, lon: pt.Lon}, nil
}

func (p *Planner) coordOf(n graph.NodeID) (lat, lon float64, ok bool) {
	stopID, ok := p.Base.NodeStop[n]
	if !ok {
		return 0, 0, false
	}
	s, ok := p.Stops[stopID]
	if !ok {
		return 0, 0, false
	}
	return s.Lat, s.Lon, true
}
