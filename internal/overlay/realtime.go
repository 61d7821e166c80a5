package overlay

import (
	"fmt"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/antigravity/transit-planner/internal/graph"
)

// ServiceDayOf resolves a trip's realtime update to the service day it
// belongs to, relative to a feed reference date. Realtime updates carry
// the assigned date on the trip descriptor when present.
type ServiceDayOf func(tripID string, date string) graph.ServiceDay

// DecodeFeedMessage parses a GTFS-Realtime FeedMessage payload and
// folds it into a new FeedOverlay. Trips with ScheduleRelationship
// CANCELED are recorded in Cancelled; SCHEDULED stop time updates
// become Delays. ADDED, UNSCHEDULED and DUPLICATED trips are not
// supported, matching the teacher behavior of skipping what it cannot
// represent rather than failing the whole feed.
//
// Grounded on tidbyt-gtfs/parse/realtime.go's ParseRealtime.
func DecodeFeedMessage(payload []byte, dayOf ServiceDayOf) (*FeedOverlay, error) {
	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("unmarshaling gtfs-realtime feed: %w", err)
	}

	header := msg.GetHeader()
	if v := header.GetGtfsRealtimeVersion(); v != "1.0" && v != "2.0" {
		return nil, fmt.Errorf("unsupported gtfs-realtime version %q", v)
	}

	out := Empty()
	out.Timestamp = header.GetTimestamp()

	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		trip := tu.GetTrip()
		if trip == nil || trip.GetTripId() == "" {
			continue
		}

		day := dayOf(trip.GetTripId(), trip.GetStartDate())

		switch trip.GetScheduleRelationship() {
		case gtfsrt.TripDescriptor_CANCELED:
			out.Cancelled[TripInstance{TripID: trip.GetTripId(), Day: day}] = true

		case gtfsrt.TripDescriptor_SCHEDULED:
			for _, stu := range tu.GetStopTimeUpdate() {
				delay := decodeStopTimeUpdate(stu)
				key := stopTimeKey{
					TripInstance: TripInstance{TripID: trip.GetTripId(), Day: day},
					StopSeq:      int32(stu.GetStopSequence()),
				}
				out.Delays[key] = delay
			}

		default:
			// ADDED / UNSCHEDULED / DUPLICATED: not representable as
			// an adjustment to an existing time-expanded edge, so
			// skipped rather than failing the whole feed.
		}
	}

	return out, nil
}

func decodeStopTimeUpdate(stu *gtfsrt.TripUpdate_StopTimeUpdate) Delay {
	var d Delay
	if a := stu.GetArrival(); a != nil {
		d.ArrivalDelay = time.Duration(a.GetDelay()) * time.Second
	}
	if dep := stu.GetDeparture(); dep != nil {
		d.DepartureDelay = time.Duration(dep.GetDelay()) * time.Second
	}
	return d
}
