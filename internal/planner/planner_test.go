package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-planner/internal/graphbuild"
	"github.com/antigravity/transit-planner/internal/gtfsmodel"
	"github.com/antigravity/transit-planner/internal/overlay"
	"github.com/antigravity/transit-planner/internal/tripapi"
)

// twoStopFeed builds the smallest feed that exercises a real ride leg:
// two stops 1.1km apart linked by one trip on one weekday service,
// departing stop A at 08:00 and arriving stop B at 08:10.
func twoStopFeed(reference time.Time) *gtfsmodel.Feed {
	return &gtfsmodel.Feed{
		Stops: []gtfsmodel.Stop{
			{ID: "A", Name: "Alpha", Lat: 40.000, Lon: -73.000},
			{ID: "B", Name: "Beta", Lat: 40.010, Lon: -73.000},
		},
		Routes: []gtfsmodel.Route{
			{ID: "R1", ShortName: "1", LongName: "Main Line", Type: 3},
		},
		Trips: []gtfsmodel.Trip{
			{
				ID: "T1", RouteID: "R1", ServiceID: "DAILY", Headsign: "Beta",
				StopTimes: []gtfsmodel.StopTime{
					{StopID: "A", StopSequence: 0, ArrivalSecs: 8 * 3600, DepartureSecs: 8 * 3600},
					{StopID: "B", StopSequence: 1, ArrivalSecs: 8*3600 + 600, DepartureSecs: 8*3600 + 600},
				},
			},
		},
		Calendars: []gtfsmodel.Calendar{
			{
				ServiceID: "DAILY",
				Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true, Saturday: true, Sunday: true,
				StartDate: reference.AddDate(0, 0, -1), EndDate: reference.AddDate(1, 0, 0),
			},
		},
		ReferenceDate: reference,
	}
}

func newTestPlanner(t *testing.T, feed *gtfsmodel.Feed) *Planner {
	t.Helper()
	built, err := graphbuild.Build(feed)
	require.NoError(t, err)

	snapshot := overlay.NewSnapshot()
	snapshot.Store(overlay.Empty())

	return New(built.Base, built.Index, feed, snapshot)
}

func TestPlan_FindsDirectRide(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, twoStopFeed(reference))

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = reference.Add(7*time.Hour + 55*time.Minute)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Coordinate, Lat: 40.000, Lon: -73.000},
			{Kind: tripapi.Coordinate, Lat: 40.010, Lon: -73.000},
		},
		Hints: hints,
	}

	resp, err := p.Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Itineraries)

	itin := resp.Itineraries[0]
	var sawRide bool
	for _, leg := range itin.Legs {
		if leg.Kind == tripapi.LegRide {
			sawRide = true
			assert.Equal(t, "T1", leg.TripID)
			assert.Equal(t, "R1", leg.RouteID)
			assert.Equal(t, "Beta", leg.Headsign)
		}
	}
	assert.True(t, sawRide, "expected a ride leg in %+v", itin.Legs)
	assert.False(t, resp.Exhausted)
}

func TestPlan_StationPointsResolveDisplayCoordinates(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, twoStopFeed(reference))

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = reference.Add(7*time.Hour + 55*time.Minute)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Station, StopID: "A"},
			{Kind: tripapi.Station, StopID: "B"},
		},
		Hints: hints,
	}

	resp, err := p.Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Itineraries)

	first := resp.Itineraries[0].Legs[0]
	assert.InDelta(t, 40.000, first.FromLat, 0.0001)
	assert.InDelta(t, -73.000, first.FromLon, 0.0001)
}

func TestPlan_UnknownStopIsInvalidArgument(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, twoStopFeed(reference))

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = reference.Add(8 * time.Hour)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Station, StopID: "GHOST"},
			{Kind: tripapi.Coordinate, Lat: 40.010, Lon: -73.000},
		},
		Hints: hints,
	}

	_, err := p.Plan(req)
	require.Error(t, err)
	assert.Equal(t, tripapi.InvalidArgument, tripapi.CodeOf(err))
}

func TestPlan_MissingDepartureTimeIsInvalidArgument(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, twoStopFeed(reference))

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Coordinate, Lat: 40.000, Lon: -73.000},
			{Kind: tripapi.Coordinate, Lat: 40.010, Lon: -73.000},
		},
		Hints: tripapi.DefaultHints(),
	}

	_, err := p.Plan(req)
	require.Error(t, err)
	assert.Equal(t, tripapi.InvalidArgument, tripapi.CodeOf(err))
}

func TestProfileSeeds_CapsAtProfileSeedMinutes(t *testing.T) {
	from := time.Date(2026, 7, 27, 8, 0, 0, 0, time.UTC)
	to := from.Add(10 * time.Hour)

	seeds := profileSeeds(from, to)

	assert.Equal(t, profileSeedMinutes+1, len(seeds))
	assert.Equal(t, from.Unix(), seeds[0])
	assert.Equal(t, from.Add(profileSeedMinutes*time.Minute).Unix(), seeds[len(seeds)-1])
}

// threeStopTransferFeed builds a feed where the only A->C path crosses
// two routes: R1 carries A->B, R2 carries B->C, with a 5 minute gap at
// B that a direct transfer can make.
func threeStopTransferFeed(reference time.Time) *gtfsmodel.Feed {
	return &gtfsmodel.Feed{
		Stops: []gtfsmodel.Stop{
			{ID: "A", Name: "Alpha", Lat: 40.000, Lon: -73.000},
			{ID: "B", Name: "Beta", Lat: 40.010, Lon: -73.000},
			{ID: "C", Name: "Gamma", Lat: 40.020, Lon: -73.000},
		},
		Routes: []gtfsmodel.Route{
			{ID: "R1", ShortName: "1", LongName: "Main Line", Type: 3},
			{ID: "R2", ShortName: "2", LongName: "Cross Line", Type: 3},
		},
		Trips: []gtfsmodel.Trip{
			{
				ID: "T1", RouteID: "R1", ServiceID: "DAILY", Headsign: "Beta",
				StopTimes: []gtfsmodel.StopTime{
					{StopID: "A", StopSequence: 0, ArrivalSecs: 8 * 3600, DepartureSecs: 8 * 3600},
					{StopID: "B", StopSequence: 1, ArrivalSecs: 8*3600 + 600, DepartureSecs: 8*3600 + 600},
				},
			},
			{
				ID: "T2", RouteID: "R2", ServiceID: "DAILY", Headsign: "Gamma",
				StopTimes: []gtfsmodel.StopTime{
					{StopID: "B", StopSequence: 0, ArrivalSecs: 8*3600 + 900, DepartureSecs: 8*3600 + 900},
					{StopID: "C", StopSequence: 1, ArrivalSecs: 8*3600 + 1500, DepartureSecs: 8*3600 + 1500},
				},
			},
		},
		Calendars: []gtfsmodel.Calendar{
			{
				ServiceID: "DAILY",
				Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true, Saturday: true, Sunday: true,
				StartDate: reference.AddDate(0, 0, -1), EndDate: reference.AddDate(1, 0, 0),
			},
		},
		ReferenceDate: reference,
	}
}

func TestPlan_RequiredTransferYieldsTwoRideLegsAndOneTransfer(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, threeStopTransferFeed(reference))

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = reference.Add(7*time.Hour + 55*time.Minute)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Station, StopID: "A"},
			{Kind: tripapi.Station, StopID: "C"},
		},
		Hints: hints,
	}

	resp, err := p.Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Itineraries)

	itin := resp.Itineraries[0]
	var rideLegs int
	for _, leg := range itin.Legs {
		if leg.Kind == tripapi.LegRide {
			rideLegs++
		}
	}
	assert.Equal(t, 2, rideLegs, "expected two ride legs in %+v", itin.Legs)
	assert.Equal(t, 1, itin.Transfers)
}

func TestPlan_OverlayCancellationRemovesSolution(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	feed := twoStopFeed(reference)
	built, err := graphbuild.Build(feed)
	require.NoError(t, err)

	day := built.Base.Epoch.DayOf(reference.Add(7*time.Hour + 55*time.Minute))
	cancelled := overlay.Empty()
	cancelled.Cancelled[overlay.TripInstance{TripID: "T1", Day: day}] = true

	snapshot := overlay.NewSnapshot()
	snapshot.Store(cancelled)
	p := New(built.Base, built.Index, feed, snapshot)

	hints := tripapi.DefaultHints()
	hints.EarliestDepartureTime = reference.Add(7*time.Hour + 55*time.Minute)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Station, StopID: "A"},
			{Kind: tripapi.Station, StopID: "B"},
		},
		Hints: hints,
	}

	resp, err := p.Plan(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Itineraries)
	assert.True(t, resp.Debug.NoPath)
}

func TestPlan_ArriveByFindsDepartureNoLaterThanRequestedAnchor(t *testing.T) {
	reference := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, twoStopFeed(reference))

	hints := tripapi.DefaultHints()
	hints.ArriveBy = true
	hints.EarliestDepartureTime = reference.Add(9 * time.Hour)

	req := &tripapi.Request{
		Points: [2]tripapi.Point{
			{Kind: tripapi.Station, StopID: "A"},
			{Kind: tripapi.Station, StopID: "B"},
		},
		Hints: hints,
	}

	resp, err := p.Plan(req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Itineraries)

	itin := resp.Itineraries[0]
	require.NotEmpty(t, itin.Legs)
	lastLeg := itin.Legs[len(itin.Legs)-1]
	assert.False(t, lastLeg.EndTime.After(hints.EarliestDepartureTime))
}

func TestProfileSeeds_ShortWindowNotPadded(t *testing.T) {
	from := time.Date(2026, 7, 27, 8, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Minute)

	seeds := profileSeeds(from, to)

	assert.Equal(t, []int64{from.Unix(), from.Add(time.Minute).Unix(), to.Unix()}, seeds)
}
