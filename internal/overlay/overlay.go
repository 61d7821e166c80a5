// Package overlay holds the real-time adjustments layered on top of the
// static base graph: cancelled trip instances, per-stop-time delays,
// and extra edges injected by a GTFS-Realtime feed. FeedOverlay is pure
// data; it never mutates the base graph.
package overlay

import (
	"sync/atomic"
	"time"

	"github.com/antigravity/transit-planner/internal/graph"
)

// TripInstance identifies one scheduled run of a trip on a particular
// service day, the granularity at which GTFS-Realtime cancels things.
type TripInstance struct {
	TripID string
	Day    graph.ServiceDay
}

// Delay is the realized adjustment to a single stop-time event.
type Delay struct {
	ArrivalDelay   time.Duration
	DepartureDelay time.Duration
}

// ExtraEdge is an edge injected by the real-time feed that has no
// counterpart in the base graph (e.g. an unscheduled reroute). The
// GraphExplorer yields it in the natural position of From's adjacency.
type ExtraEdge struct {
	From, To graph.NodeID
	Type     graph.EdgeType
	Time     int32
	Distance float64
}

// stopTimeKey addresses one scheduled stop-time event: a trip instance
// plus its position in the trip's stop sequence.
type stopTimeKey struct {
	TripInstance
	StopSeq int32
}

// FeedOverlay is an immutable value: a snapshot of every real-time
// adjustment known at the moment it was built. Queries capture a
// reference to one FeedOverlay on entry and consult it for the
// lifetime of the search; they never revalidate mid-query.
type FeedOverlay struct {
	Timestamp uint64
	Cancelled map[TripInstance]bool
	Delays    map[stopTimeKey]Delay
	Extra     []ExtraEdge
}

// Empty returns a FeedOverlay with no adjustments, used before the
// first real-time poll completes and by tests that don't exercise the
// real-time path.
func Empty() *FeedOverlay {
	return &FeedOverlay{
		Cancelled: map[TripInstance]bool{},
		Delays:    map[stopTimeKey]Delay{},
	}
}

// IsCancelled reports whether the given trip instance was cancelled.
func (f *FeedOverlay) IsCancelled(tripID string, day graph.ServiceDay) bool {
	if f == nil || f.Cancelled == nil {
		return false
	}
	return f.Cancelled[TripInstance{TripID: tripID, Day: day}]
}

// DelayFor returns the realized delay for a scheduled stop-time event,
// or the zero Delay if the feed has no adjustment for it.
func (f *FeedOverlay) DelayFor(tripID string, day graph.ServiceDay, stopSeq int32) Delay {
	if f == nil || f.Delays == nil {
		return Delay{}
	}
	return f.Delays[stopTimeKey{TripInstance{TripID: tripID, Day: day}, stopSeq}]
}

// ExtraEdgesFrom returns the extra edges the feed injects at node n.
func (f *FeedOverlay) ExtraEdgesFrom(n graph.NodeID) []ExtraEdge {
	if f == nil {
		return nil
	}
	var out []ExtraEdge
	for _, e := range f.Extra {
		if e.From == n {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot is the atomically-swapped reference to the current
// FeedOverlay. Updates publish a new value; in-flight queries keep
// using the FeedOverlay they already loaded.
type Snapshot struct {
	ptr atomic.Pointer[FeedOverlay]
}

// NewSnapshot creates a Snapshot initialized to an empty overlay.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.ptr.Store(Empty())
	return s
}

// Load returns the current overlay. Safe for concurrent use.
func (s *Snapshot) Load() *FeedOverlay {
	return s.ptr.Load()
}

// Store atomically publishes a new overlay.
func (s *Snapshot) Store(f *FeedOverlay) {
	s.ptr.Store(f)
}
