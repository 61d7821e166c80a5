package gtfsstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFixtureDir(t *testing.T) {
	dir := t.TempDir()

	writeFixture(t, dir, "stops.txt", "stop_id,stop_code,stop_name,stop_lat,stop_lon,parent_station\n"+
		"A,1,Alpha,40.0,-73.0,\n"+
		"B,2,Beta,40.01,-73.01,\n")
	writeFixture(t, dir, "routes.txt", "route_id,route_short_name,route_long_name,route_type,route_color\n"+
		"R1,1,Main Line,3,FF0000\n")
	writeFixture(t, dir, "trips.txt", "trip_id,route_id,service_id,trip_headsign,direction_id\n"+
		"T1,R1,WEEKDAY,Beta,0\n")
	writeFixture(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\n"+
		"T1,A,0,08:00:00,08:00:00\n"+
		"T1,B,1,08:10:00,08:10:00\n")
	writeFixture(t, dir, "calendar.txt", "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n"+
		"WEEKDAY,1,1,1,1,1,0,0,20260101,20261231\n")

	feed, err := LoadFixtureDir(dir, time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, feed.Stops, 2)
	assert.Equal(t, "A", feed.Stops[0].ID)
	assert.InDelta(t, 40.0, feed.Stops[0].Lat, 0.0001)

	require.Len(t, feed.Routes, 1)
	assert.Equal(t, "Main Line", feed.Routes[0].LongName)

	require.Len(t, feed.Trips, 1)
	require.Len(t, feed.Trips[0].StopTimes, 2)
	assert.Equal(t, int32(8*3600), feed.Trips[0].StopTimes[0].ArrivalSecs)
	assert.Equal(t, int32(8*3600+600), feed.Trips[0].StopTimes[1].DepartureSecs)

	require.Len(t, feed.Calendars, 1)
	assert.True(t, feed.Calendars[0].Monday)
	assert.False(t, feed.Calendars[0].Saturday)

	// Monday 2026-07-27 is within range and runs per the weekly pattern.
	assert.True(t, feed.RunsOn("WEEKDAY", time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)))
	// Sunday the same week does not run.
	assert.False(t, feed.RunsOn("WEEKDAY", time.Date(2026, 7, 26, 0, 0, 0, 0, time.UTC)))
}

func TestLoadFixtureDir_MissingOptionalTablesOK(t *testing.T) {
	dir := t.TempDir()

	writeFixture(t, dir, "stops.txt", "stop_id,stop_code,stop_name,stop_lat,stop_lon,parent_station\nA,1,Alpha,40.0,-73.0,\n")
	writeFixture(t, dir, "routes.txt", "route_id,route_short_name,route_long_name,route_type,route_color\n")
	writeFixture(t, dir, "trips.txt", "trip_id,route_id,service_id,trip_headsign,direction_id\n")
	writeFixture(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\n")

	feed, err := LoadFixtureDir(dir, time.Now())
	require.NoError(t, err)
	assert.Empty(t, feed.Calendars)
	assert.Empty(t, feed.CalendarExceptions)
	assert.Empty(t, feed.Transfers)
}

func TestLoadFixtureDir_UnknownTripReferenceErrors(t *testing.T) {
	dir := t.TempDir()

	writeFixture(t, dir, "stops.txt", "stop_id,stop_code,stop_name,stop_lat,stop_lon,parent_station\nA,1,Alpha,40.0,-73.0,\n")
	writeFixture(t, dir, "routes.txt", "route_id,route_short_name,route_long_name,route_type,route_color\n")
	writeFixture(t, dir, "trips.txt", "trip_id,route_id,service_id,trip_headsign,direction_id\n")
	writeFixture(t, dir, "stop_times.txt", "trip_id,stop_id,stop_sequence,arrival_time,departure_time\nGHOST,A,0,08:00:00,08:00:00\n")

	_, err := LoadFixtureDir(dir, time.Now())
	require.Error(t, err)
}

func TestParseGTFSTime(t *testing.T) {
	secs, err := parseGTFSTime("08:10:00")
	require.NoError(t, err)
	assert.Equal(t, int32(8*3600+600), secs)

	// GTFS allows hours past 23 for trips running past midnight.
	secs, err = parseGTFSTime("25:05:30")
	require.NoError(t, err)
	assert.Equal(t, int32(25*3600+5*60+30), secs)

	_, err = parseGTFSTime("")
	assert.Error(t, err)

	_, err = parseGTFSTime("not-a-time")
	assert.Error(t, err)
}
