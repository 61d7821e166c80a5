// Package gtfsmodel is the static GTFS domain model that
// internal/gtfsstore loads and internal/graphbuild compiles into a
// graph.Base.
//
// Grounded on the teacher's internal/routing/types.go
// (Stop/Route/Trip/StopTime/Transfer), generalized from its
// StopID/RouteID/TripID int32 newtypes into the real GTFS string ids
// (agencies publish stop_id/route_id/trip_id as strings) plus the
// calendar tables the teacher's loader never modeled.
package gtfsmodel

import "time"

// Stop is one GTFS stops.txt entry: a physical platform or
// station entrance.
type Stop struct {
	ID       string
	Code     string
	Name     string
	Lat, Lon float64
	ParentID string // parent_station, empty if this stop has none
}

// Route is one GTFS routes.txt entry.
type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      int // GTFS route_type
	Color     string
}

// Trip is one GTFS trips.txt entry, with its ordered StopTimes already
// attached (sorted by StopSequence ascending).
type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	DirectionID int
	StopTimes   []StopTime
}

// StopTime is one GTFS stop_times.txt row. Arrival/Departure are
// seconds since the service day's reference midnight, following GTFS's
// own convention of allowing values >= 86400 for trips that run past
// midnight.
type StopTime struct {
	StopID        string
	StopSequence  int32
	ArrivalSecs   int32
	DepartureSecs int32
}

// Calendar is one GTFS calendar.txt row: the regular weekly pattern a
// service id runs on, bounded by a start/end date.
type Calendar struct {
	ServiceID                                            string
	Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday bool
	StartDate, EndDate                                   time.Time
}

// CalendarExceptionType mirrors GTFS calendar_dates.txt's
// exception_type column.
type CalendarExceptionType int

const (
	ServiceAdded   CalendarExceptionType = 1
	ServiceRemoved CalendarExceptionType = 2
)

// CalendarException is one GTFS calendar_dates.txt row: a one-off
// addition or removal of service on a specific date.
type CalendarException struct {
	ServiceID string
	Date      time.Time
	Type      CalendarExceptionType
}

// Transfer is a precomputed GTFS transfers.txt walking connection
// between two stops, distinct from a general walk-network path.
type Transfer struct {
	FromStopID  string
	ToStopID    string
	TimeSeconds int32
}

// Feed is the complete static dataset graphbuild compiles from,
// whether sourced from Postgres tables or CSV fixtures.
type Feed struct {
	Stops               []Stop
	Routes              []Route
	Trips               []Trip
	Calendars           []Calendar
	CalendarExceptions  []CalendarException
	Transfers           []Transfer
	// ReferenceDate anchors ServiceDay 0 for the compiled graph's
	// validity bitsets.
	ReferenceDate time.Time
}

// RunsOn reports whether serviceID is active on date, applying the
// weekly Calendar pattern and then calendar_dates.txt overrides, per
// standard GTFS service-day resolution.
func (f *Feed) RunsOn(serviceID string, date time.Time) bool {
	active := false
	for _, c := range f.Calendars {
		if c.ServiceID != serviceID {
			continue
		}
		if date.Before(c.StartDate) || date.After(c.EndDate) {
			continue
		}
		switch date.Weekday() {
		case time.Monday:
			active = c.Monday
		case time.Tuesday:
			active = c.Tuesday
		case time.Wednesday:
			active = c.Wednesday
		case time.Thursday:
			active = c.Thursday
		case time.Friday:
			active = c.Friday
		case time.Saturday:
			active = c.Saturday
		case time.Sunday:
			active = c.Sunday
		}
	}
	y1, m1, d1 := date.Date()
	for _, e := range f.CalendarExceptions {
		if e.ServiceID != serviceID {
			continue
		}
		y2, m2, d2 := e.Date.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			continue
		}
		active = e.Type == ServiceAdded
	}
	return active
}
