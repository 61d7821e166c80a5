// Package graphbuild compiles a gtfsmodel.Feed and a walk-network
// spatial index into the graph.Base the rest of the system searches
// over. Building the base graph from OSM street data and the full GTFS
// zip-ingestion pipeline are external collaborators out of scope for
// this repository; this package provides the minimal in-memory
// compiler the tests and tripcli's demo dataset exercise, given an
// already-parsed gtfsmodel.Feed.
//
// Grounded on the teacher's internal/routing/loader.go, which performs
// the analogous job of turning loaded Postgres rows into the
// in-memory RaptorData the search runs over; generalized here from a
// flat per-route Trip slice into the time-expanded node-per-event
// graph.
package graphbuild

import (
	"math"
	"sort"
	"time"

	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/gtfsmodel"
	"github.com/antigravity/transit-planner/internal/spatial"
)

// HorizonDays bounds how many service days past the feed's reference
// date a trip's validity bitset is computed for. GTFS calendars
// commonly run a year; 370 covers a year with slack for calendar_dates
// exceptions just past the nominal end date.
const HorizonDays = 370

// DefaultGridCellDegrees is handed to spatial.NewGrid for the walk
// node index this package populates.
const DefaultGridCellDegrees = 0.01

// Result bundles the compiled base graph with the spatial index over
// its walk-network entry nodes, since both are produced from the same
// stop coordinates in one pass.
type Result struct {
	Base  *graph.Base
	Index *spatial.Grid
}

// Build compiles feed into a base graph. Every stop gets a walk-access
// node (registered in the returned spatial index) and a platform node,
// linked by ENTER_PT/EXIT_PT. Every trip gets a time-expanded column of
// arrival/departure nodes per stop_time, linked by HOP (between
// consecutive stop-time columns), DWELL (arrival to departure at the
// same event), and ALIGHT (departure-node's arrival counterpart back
// to the platform, forward-only — see package explorer). BOARD is
// never materialized: graphbuild instead populates BoardIndex/
// AlightIndex/BoardOrigin for the dynamic resolution in package
// explorer.
func Build(feed *gtfsmodel.Feed) (*Result, error) {
	var next graph.NodeID
	alloc := func() graph.NodeID {
		id := next
		next++
		return id
	}

	walkNode := make(map[string]graph.NodeID, len(feed.Stops))
	platformNode := make(map[string]graph.NodeID, len(feed.Stops))
	for _, s := range feed.Stops {
		walkNode[s.ID] = alloc()
		platformNode[s.ID] = alloc()
	}

	type eventNodes struct {
		arr, dep graph.NodeID
	}
	// perTripEvents[tripID] is indexed the same as the trip's StopTimes.
	perTripEvents := make(map[string][]eventNodes, len(feed.Trips))
	for _, t := range feed.Trips {
		events := make([]eventNodes, len(t.StopTimes))
		for i := range t.StopTimes {
			events[i] = eventNodes{arr: alloc(), dep: alloc()}
		}
		perTripEvents[t.ID] = events
	}

	base := graph.NewBase(int(next))
	idx := spatial.NewGrid(DefaultGridCellDegrees)

	var edgeSeq graph.EdgeID
	nextEdgeIDs := func() (graph.EdgeID, graph.EdgeID) {
		a, b := edgeSeq, edgeSeq+1
		edgeSeq += 2
		return a, b
	}

	stopByID := make(map[string]gtfsmodel.Stop, len(feed.Stops))
	for _, s := range feed.Stops {
		stopByID[s.ID] = s
		idx.Add(walkNode[s.ID], s.Lat, s.Lon)
		base.StopNode[s.ID] = platformNode[s.ID]
		base.NodeStop[platformNode[s.ID]] = s.ID
	}

	for _, s := range feed.Stops {
		w, p := walkNode[s.ID], platformNode[s.ID]
		enter := graph.Edge{Type: graph.ENTER_PT, From: w, To: p, TripID: -1, RouteID: -1, StopSeq: -1}
		exit := graph.Edge{Type: graph.EXIT_PT, From: p, To: w, TripID: -1, RouteID: -1, StopSeq: -1}
		base.AddEdge(withIDs(nextEdgeIDs, enter, exit))
	}

	type boardKey struct {
		node    graph.NodeID
		routeID int32
	}
	boardBuckets := make(map[boardKey]*graph.Boarding)
	alightBuckets := make(map[boardKey]*graph.Alighting)

	for _, t := range feed.Trips {
		events := perTripEvents[t.ID]
		tripIntID := base.InternTrip(t.ID)
		routeIdx := routeIntID(feed, t.RouteID)
		validOn := computeValidOn(feed, t.ServiceID)

		for i, st := range t.StopTimes {
			platform := platformNode[st.StopID]
			ev := events[i]
			base.EventStop[ev.arr] = st.StopID
			base.EventStop[ev.dep] = st.StopID

			dwell := graph.Edge{
				Type: graph.DWELL, From: ev.arr, To: ev.dep,
				Time: st.DepartureSecs - st.ArrivalSecs, TripID: tripIntID, RouteID: routeIdx, StopSeq: st.StopSequence,
				ValidOn: validOn,
			}
			dwellRev := dwell
			base.AddEdge(withIDs(nextEdgeIDs, dwell, dwellRev))

			alightID, _ := nextEdgeIDs()
			alight := graph.Edge{
				ID: alightID, Type: graph.ALIGHT, From: ev.arr, To: platform,
				TripID: tripIntID, RouteID: routeIdx, StopSeq: st.StopSequence, ValidOn: validOn,
			}
			base.AddDirectedEdge(alight)

			base.BoardOrigin[ev.dep] = platform

			bk := boardKey{node: platform, routeID: routeIdx}
			if boardBuckets[bk] == nil {
				boardBuckets[bk] = &graph.Boarding{RouteID: routeIdx}
			}
			boardBuckets[bk].Events = append(boardBuckets[bk].Events, graph.BoardEvent{
				DepNode: ev.dep, StopSeq: st.StopSequence, TripID: tripIntID,
				TimeOfDay: st.DepartureSecs, ValidOn: validOn,
			})

			ak := boardKey{node: platform, routeID: routeIdx}
			if alightBuckets[ak] == nil {
				alightBuckets[ak] = &graph.Alighting{RouteID: routeIdx}
			}
			alightBuckets[ak].Events = append(alightBuckets[ak].Events, graph.AlightEvent{
				ArrNode: ev.arr, StopSeq: st.StopSequence, TripID: tripIntID,
				TimeOfDay: st.ArrivalSecs, ValidOn: validOn,
			})

			if i+1 < len(t.StopTimes) {
				nextEv := events[i+1]
				hop := graph.Edge{
					Type: graph.HOP, From: ev.dep, To: nextEv.arr,
					Time: t.StopTimes[i+1].ArrivalSecs - st.DepartureSecs,
					TripID: tripIntID, RouteID: routeIdx, StopSeq: st.StopSequence, ValidOn: validOn,
				}
				hopRev := hop
				base.AddEdge(withIDs(nextEdgeIDs, hop, hopRev))
			}
		}
	}

	for bk, b := range boardBuckets {
		sort.Slice(b.Events, func(i, j int) bool { return b.Events[i].TimeOfDay < b.Events[j].TimeOfDay })
		base.BoardIndex[bk.node] = append(base.BoardIndex[bk.node], *b)
	}
	for ak, a := range alightBuckets {
		sort.Slice(a.Events, func(i, j int) bool { return a.Events[i].TimeOfDay < a.Events[j].TimeOfDay })
		base.AlightIndex[ak.node] = append(base.AlightIndex[ak.node], *a)
	}

	for _, tr := range feed.Transfers {
		from, ok1 := platformNode[tr.FromStopID]
		to, ok2 := platformNode[tr.ToStopID]
		if !ok1 || !ok2 {
			continue
		}
		fromCoord, toCoord := stopByID[tr.FromStopID], stopByID[tr.ToStopID]
		e := graph.Edge{Type: graph.TRANSFER, From: from, To: to, Time: tr.TimeSeconds, Distance: haversine(fromCoord.Lat, fromCoord.Lon, toCoord.Lat, toCoord.Lon), TripID: -1, RouteID: -1, StopSeq: -1}
		rev := graph.Edge{Type: graph.TRANSFER, From: to, To: from, Time: tr.TimeSeconds, Distance: e.Distance, TripID: -1, RouteID: -1, StopSeq: -1}
		base.AddEdge(withIDs(nextEdgeIDs, e, rev))
	}

	base.Epoch = graph.Epoch{Reference: startOfDay(feed.ReferenceDate)}

	return &Result{Base: base, Index: idx}, nil
}

// withIDs assigns fresh, paired edge ids to e and rev before they are
// added to base, mirroring graph.AddEdge's contract that Reverse ids
// are mirrored on both sides.
func withIDs(next func() (graph.EdgeID, graph.EdgeID), e, rev graph.Edge) (graph.Edge, graph.Edge) {
	eID, revID := next()
	e.ID, e.Reverse = eID, revID
	rev.ID, rev.Reverse = revID, eID
	return e, rev
}

func routeIntID(feed *gtfsmodel.Feed, routeID string) int32 {
	for i, r := range feed.Routes {
		if r.ID == routeID {
			return int32(i)
		}
	}
	return -1
}

// computeValidOn materializes serviceID's calendar into a DayBitset
// over [feed.ReferenceDate, feed.ReferenceDate+HorizonDays).
func computeValidOn(feed *gtfsmodel.Feed, serviceID string) graph.DayBitset {
	var bits graph.DayBitset
	ref := startOfDay(feed.ReferenceDate)
	for d := 0; d < HorizonDays; d++ {
		date := ref.AddDate(0, 0, d)
		if feed.RunsOn(serviceID, date) {
			bits.SetValid(graph.ServiceDay(d))
		}
	}
	return bits
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
