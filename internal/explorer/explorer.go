// Package explorer implements GraphExplorer: a view over the base
// graph that yields, for a node and the current label time, the finite
// sequence of outgoing (or incoming, if reversed) edges honoring the
// real-time overlay, query-time virtual edges, and direction.
//
// Grounded on the teacher's buildStopRoutesIndex/getStopIndex adjacency
// helpers in internal/routing/raptor.go, generalized from a fixed-round
// RAPTOR scan into a direction-aware, schedule-dynamic edge iterator.
package explorer

import (
	"sort"

	"github.com/antigravity/transit-planner/internal/costmodel"
	"github.com/antigravity/transit-planner/internal/graph"
	"github.com/antigravity/transit-planner/internal/overlay"
)

// VirtualSource is implemented by package querygraph: the query-time
// overlay of virtual origin/destination nodes and edges that the
// explorer concatenates onto the base graph's adjacency for the
// duration of one query.
type VirtualSource interface {
	VirtualOut(n graph.NodeID) []graph.Edge
	VirtualIn(n graph.NodeID) []graph.Edge
}

// Transition is one candidate step out of (or into, if reversed) a
// node: the neighbor, the consumed edge, and the precomputed time and
// distance deltas for this specific traversal at this specific time.
type Transition struct {
	Neighbor graph.NodeID
	Edge     graph.Edge
	TimeDelta     int64
	DistanceDelta float64
}

// Explorer is the per-query view of the graph. It is immutable once
// constructed and safe for concurrent use by independent queries, since
// it only references read-only structures.
type Explorer struct {
	Base         *graph.Base
	Feed         *overlay.FeedOverlay
	Virtual      VirtualSource
	Reverse      bool
	WalkSpeedMPS float64
	Day          graph.ServiceDay
}

// New builds an Explorer for one query.
func New(base *graph.Base, feed *overlay.FeedOverlay, virtual VirtualSource, reverse bool, walkSpeedKMH float64, day graph.ServiceDay) *Explorer {
	return &Explorer{
		Base:         base,
		Feed:         feed,
		Virtual:      virtual,
		Reverse:      reverse,
		WalkSpeedMPS: costmodel.WalkSpeedMetersPerSecond(walkSpeedKMH),
		Day:          day,
	}
}

// Edges returns the transitions available out of (forward) or into
// (reverse) node n, given the absolute time currently held by the
// label at n. currentTime is seconds since the graph's Epoch.Reference.
func (ex *Explorer) Edges(n graph.NodeID, currentTime int64) []Transition {
	var out []Transition

	if ex.Reverse {
		for _, e := range ex.Base.In[n] {
			if t, ok := ex.resolveStatic(e, e.From, currentTime); ok {
				out = append(out, t)
			}
		}
		out = append(out, ex.dynamicAlight(n, currentTime)...)
		if t, ok := ex.boardBack(n); ok {
			out = append(out, t)
		}
		if ex.Virtual != nil {
			for _, e := range ex.Virtual.VirtualIn(n) {
				if t, ok := ex.resolveStatic(e, e.From, currentTime); ok {
					out = append(out, t)
				}
			}
		}
		if ex.Feed != nil {
			for _, x := range ex.Feed.Extra {
				if x.To != n {
					continue
				}
				out = append(out, Transition{Neighbor: x.From, Edge: extraAsEdge(x, false), TimeDelta: -int64(x.Time), DistanceDelta: x.Distance})
			}
		}
		return out
	}

	for _, e := range ex.Base.Out[n] {
		if t, ok := ex.resolveStatic(e, e.To, currentTime); ok {
			out = append(out, t)
		}
	}
	out = append(out, ex.dynamicBoard(n, currentTime)...)
	if ex.Virtual != nil {
		for _, e := range ex.Virtual.VirtualOut(n) {
			if t, ok := ex.resolveStatic(e, e.To, currentTime); ok {
				out = append(out, t)
			}
		}
	}
	for _, x := range ex.Feed.ExtraEdgesFrom(n) {
		out = append(out, Transition{Neighbor: x.To, Edge: extraAsEdge(x, false), TimeDelta: int64(x.Time), DistanceDelta: x.Distance})
	}
	return out
}

// resolveStatic turns a pre-built base/virtual edge into a Transition,
// applying overlay delays and suppression. ok is false if the edge's
// trip instance is cancelled for ex.Day.
func (ex *Explorer) resolveStatic(e graph.Edge, neighbor graph.NodeID, currentTime int64) (Transition, bool) {
	if e.TripID >= 0 {
		tripID := ex.Base.TripString(e.TripID)
		if ex.Feed.IsCancelled(tripID, ex.Day) {
			return Transition{}, false
		}
	}
	delta := costmodel.TimeDelta(e, ex.WalkSpeedMPS)
	if e.Type == graph.HOP && e.TripID >= 0 {
		tripID := ex.Base.TripString(e.TripID)
		from := ex.Feed.DelayFor(tripID, ex.Day, e.StopSeq)
		to := ex.Feed.DelayFor(tripID, ex.Day, e.StopSeq+1)
		delta += int64((to.ArrivalDelay - from.DepartureDelay).Seconds())
	}
	if ex.Reverse {
		delta = -delta
	}
	return Transition{Neighbor: neighbor, Edge: e, TimeDelta: delta, DistanceDelta: e.Distance}, true
}

// dynamicBoard synthesizes the forward BOARD transitions out of
// platform node n: for every route serving the platform, the earliest
// valid departure at or after currentTime. The idle time spent waiting
// for that departure is folded into the BOARD edge's time delta, so a
// reconstructed itinerary shows the wait as part of boarding rather
// than as a separate step.
func (ex *Explorer) dynamicBoard(n graph.NodeID, currentTime int64) []Transition {
	var out []Transition
	for _, boarding := range ex.Base.BoardIndex[n] {
		ev, day, ok := ex.earliestValid(boarding.Events, currentTime)
		if !ok {
			continue
		}
		tripID := ex.Base.TripString(ev.TripID)
		if ex.Feed.IsCancelled(tripID, day) {
			continue
		}
		depDelay := ex.Feed.DelayFor(tripID, day, ev.StopSeq).DepartureDelay
		absDeparture := ex.Base.Epoch.At(day, ev.TimeOfDay).Add(depDelay)
		delta := int64(absDeparture.Unix()) - currentTime
		if delta < 0 {
			continue
		}
		out = append(out, Transition{
			Neighbor: ev.DepNode,
			Edge: graph.Edge{
				Type:    graph.BOARD,
				From:    n,
				To:      ev.DepNode,
				TripID:  ev.TripID,
				RouteID: boarding.RouteID,
				StopSeq: ev.StopSeq,
			},
			TimeDelta:     delta,
			DistanceDelta: 0,
		})
	}
	return out
}

// dynamicAlight is the reverse-search analog: the latest valid arrival
// at or before currentTime, used when ex.Reverse is set (WAIT_ARRIVAL).
func (ex *Explorer) dynamicAlight(n graph.NodeID, currentTime int64) []Transition {
	var out []Transition
	for _, alighting := range ex.Base.AlightIndex[n] {
		ev, day, ok := ex.latestValid(alighting.Events, currentTime)
		if !ok {
			continue
		}
		tripID := ex.Base.TripString(ev.TripID)
		if ex.Feed.IsCancelled(tripID, day) {
			continue
		}
		arrDelay := ex.Feed.DelayFor(tripID, day, ev.StopSeq).ArrivalDelay
		absArrival := ex.Base.Epoch.At(day, ev.TimeOfDay).Add(arrDelay)
		delta := currentTime - int64(absArrival.Unix())
		if delta < 0 {
			continue
		}
		out = append(out, Transition{
			Neighbor: ev.ArrNode,
			Edge: graph.Edge{
				Type:    graph.WAIT_ARRIVAL,
				From:    ev.ArrNode,
				To:      n,
				TripID:  ev.TripID,
				RouteID: alighting.RouteID,
				StopSeq: ev.StopSeq,
			},
			TimeDelta:     -delta,
			DistanceDelta: 0,
		})
	}
	return out
}

// boardBack is the reverse-search counterpart of dynamicBoard: given the
// trip-stop departure node a label currently sits on, step back to the
// platform it boarded from. BOARD is a dynamic edge that is never
// materialized in Base.In, so reverse search has nowhere else to find
// this neighbor; Base.BoardOrigin records it at graph-build time.
// The step itself costs no time, but it still crosses a BOARD edge, so
// it must still be charged as a transfer boundary by the caller.
func (ex *Explorer) boardBack(n graph.NodeID) (Transition, bool) {
	origin, ok := ex.Base.BoardOrigin[n]
	if !ok {
		return Transition{}, false
	}
	return Transition{
		Neighbor: origin,
		Edge: graph.Edge{
			Type:    graph.BOARD,
			From:    origin,
			To:      n,
			TripID:  -1,
			RouteID: -1,
			StopSeq: -1,
		},
		TimeDelta:     0,
		DistanceDelta: 0,
	}, true
}

// earliestValid binary-searches events (sorted ascending by TimeOfDay)
// for the first entry at or after currentTime on ex.Day, rolling over
// to ex.Day+1 if none remain today (OVERNIGHT wraparound).
func (ex *Explorer) earliestValid(events []graph.BoardEvent, currentTime int64) (graph.BoardEvent, graph.ServiceDay, bool) {
	for dayOffset := graph.ServiceDay(0); dayOffset <= 1; dayOffset++ {
		day := ex.Day + dayOffset
		dayStart := int64(ex.Base.Epoch.At(day, 0).Unix())
		wantSecOfDay := int32(currentTime - dayStart)
		idx := sort.Search(len(events), func(i int) bool { return events[i].TimeOfDay >= wantSecOfDay })
		for i := idx; i < len(events); i++ {
			if events[i].ValidOn.Valid(day) {
				return events[i], day, true
			}
		}
	}
	return graph.BoardEvent{}, 0, false
}

// latestValid is the reverse-direction analog of earliestValid.
func (ex *Explorer) latestValid(events []graph.AlightEvent, currentTime int64) (graph.AlightEvent, graph.ServiceDay, bool) {
	for dayOffset := graph.ServiceDay(0); dayOffset <= 1; dayOffset++ {
		if int64(ex.Day)-int64(dayOffset) < 0 {
			break
		}
		day := ex.Day - dayOffset
		dayStart := int64(ex.Base.Epoch.At(day, 0).Unix())
		wantSecOfDay := int32(currentTime - dayStart)
		idx := sort.Search(len(events), func(i int) bool { return events[i].TimeOfDay > wantSecOfDay }) - 1
		for i := idx; i >= 0; i-- {
			if events[i].ValidOn.Valid(day) {
				return events[i], day, true
			}
		}
	}
	return graph.AlightEvent{}, 0, false
}

func extraAsEdge(x overlay.ExtraEdge, reverse bool) graph.Edge {
	e := graph.Edge{Type: x.Type, From: x.From, To: x.To, Time: x.Time, Distance: x.Distance, TripID: -1, RouteID: -1, StopSeq: -1}
	if reverse {
		e.From, e.To = x.To, x.From
	}
	return e
}
