package gtfsstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/antigravity/transit-planner/internal/gtfsmodel"
)

// LoadFixtureDir reads a directory of GTFS-shaped CSV files (the
// stops.txt/routes.txt/trips.txt/stop_times.txt/calendar.txt/
// calendar_dates.txt/transfers.txt convention) into a gtfsmodel.Feed.
// Used by tripcli's demo dataset and by tests that need a small, fully
// deterministic feed rather than a live Postgres instance.
//
// Grounded on tidbyt-gtfs/parse/stops.go's gocsv.Unmarshal-into-struct
// pattern, generalized across every table this repository's graphbuild
// needs rather than the single stops.txt that package covers.
func LoadFixtureDir(dir string, referenceDate time.Time) (*gtfsmodel.Feed, error) {
	feed := &gtfsmodel.Feed{ReferenceDate: referenceDate}

	stops, err := unmarshalFile[stopCSV](filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading stops.txt: %w", err)
	}
	for _, s := range stops {
		feed.Stops = append(feed.Stops, gtfsmodel.Stop{
			ID: s.ID, Code: s.Code, Name: s.Name, Lat: s.Lat, Lon: s.Lon, ParentID: s.ParentStation,
		})
	}

	routes, err := unmarshalFile[routeCSV](filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading routes.txt: %w", err)
	}
	for _, r := range routes {
		feed.Routes = append(feed.Routes, gtfsmodel.Route{
			ID: r.ID, ShortName: r.ShortName, LongName: r.LongName, Type: r.Type, Color: r.Color,
		})
	}

	trips, err := unmarshalFile[tripCSV](filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading trips.txt: %w", err)
	}
	tripByID := make(map[string]*gtfsmodel.Trip, len(trips))
	feed.Trips = make([]gtfsmodel.Trip, 0, len(trips))
	for _, t := range trips {
		trip := gtfsmodel.Trip{ID: t.ID, RouteID: t.RouteID, ServiceID: t.ServiceID, Headsign: t.Headsign, DirectionID: t.DirectionID}
		feed.Trips = append(feed.Trips, trip)
		tripByID[t.ID] = &feed.Trips[len(feed.Trips)-1]
	}

	stopTimes, err := unmarshalFile[stopTimeCSV](filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("loading stop_times.txt: %w", err)
	}
	for _, st := range stopTimes {
		trip, ok := tripByID[st.TripID]
		if !ok {
			return nil, fmt.Errorf("stop_times.txt references unknown trip_id %q", st.TripID)
		}
		arr, err := parseGTFSTime(st.Arrival)
		if err != nil {
			return nil, fmt.Errorf("trip %q stop_sequence %d: %w", st.TripID, st.StopSequence, err)
		}
		dep, err := parseGTFSTime(st.Departure)
		if err != nil {
			return nil, fmt.Errorf("trip %q stop_sequence %d: %w", st.TripID, st.StopSequence, err)
		}
		trip.StopTimes = append(trip.StopTimes, gtfsmodel.StopTime{
			StopID: st.StopID, StopSequence: st.StopSequence, ArrivalSecs: arr, DepartureSecs: dep,
		})
	}
	for i := range feed.Trips {
		sts := feed.Trips[i].StopTimes
		sort.Slice(sts, func(a, b int) bool { return sts[a].StopSequence < sts[b].StopSequence })
	}

	if calendars, err := unmarshalFile[calendarCSV](filepath.Join(dir, "calendar.txt")); err == nil {
		for _, c := range calendars {
			start, err := time.Parse("20060102", c.StartDate)
			if err != nil {
				return nil, fmt.Errorf("calendar.txt service %q start_date: %w", c.ServiceID, err)
			}
			end, err := time.Parse("20060102", c.EndDate)
			if err != nil {
				return nil, fmt.Errorf("calendar.txt service %q end_date: %w", c.ServiceID, err)
			}
			feed.Calendars = append(feed.Calendars, gtfsmodel.Calendar{
				ServiceID: c.ServiceID,
				Monday:    c.Monday == 1, Tuesday: c.Tuesday == 1, Wednesday: c.Wednesday == 1,
				Thursday: c.Thursday == 1, Friday: c.Friday == 1, Saturday: c.Saturday == 1, Sunday: c.Sunday == 1,
				StartDate: start, EndDate: end,
			})
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading calendar.txt: %w", err)
	}

	if exceptions, err := unmarshalFile[calendarDateCSV](filepath.Join(dir, "calendar_dates.txt")); err == nil {
		for _, e := range exceptions {
			date, err := time.Parse("20060102", e.Date)
			if err != nil {
				return nil, fmt.Errorf("calendar_dates.txt service %q date: %w", e.ServiceID, err)
			}
			feed.CalendarExceptions = append(feed.CalendarExceptions, gtfsmodel.CalendarException{
				ServiceID: e.ServiceID, Date: date, Type: gtfsmodel.CalendarExceptionType(e.ExceptionType),
			})
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading calendar_dates.txt: %w", err)
	}

	if transfers, err := unmarshalFile[transferCSV](filepath.Join(dir, "transfers.txt")); err == nil {
		for _, t := range transfers {
			feed.Transfers = append(feed.Transfers, gtfsmodel.Transfer{
				FromStopID: t.FromStopID, ToStopID: t.ToStopID, TimeSeconds: t.MinTransferTime,
			})
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading transfers.txt: %w", err)
	}

	return feed, nil
}

type stopCSV struct {
	ID            string  `csv:"stop_id"`
	Code          string  `csv:"stop_code"`
	Name          string  `csv:"stop_name"`
	Lat           float64 `csv:"stop_lat"`
	Lon           float64 `csv:"stop_lon"`
	ParentStation string  `csv:"parent_station"`
}

type routeCSV struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      int    `csv:"route_type"`
	Color     string `csv:"route_color"`
}

type tripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID int    `csv:"direction_id"`
}

type stopTimeCSV struct {
	TripID       string `csv:"trip_id"`
	StopID       string `csv:"stop_id"`
	StopSequence int32  `csv:"stop_sequence"`
	Arrival      string `csv:"arrival_time"`
	Departure    string `csv:"departure_time"`
}

type calendarCSV struct {
	ServiceID string `csv:"service_id"`
	Monday    int    `csv:"monday"`
	Tuesday   int    `csv:"tuesday"`
	Wednesday int    `csv:"wednesday"`
	Thursday  int    `csv:"thursday"`
	Friday    int    `csv:"friday"`
	Saturday  int    `csv:"saturday"`
	Sunday    int    `csv:"sunday"`
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
}

type calendarDateCSV struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType int    `csv:"exception_type"`
}

type transferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	MinTransferTime int32  `csv:"min_transfer_time"`
}

func unmarshalFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return unmarshalReader[T](f)
}

func unmarshalReader[T any](r io.Reader) ([]T, error) {
	var rows []*T
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}

// parseGTFSTime parses a GTFS HH:MM:SS field into seconds since the
// service day's midnight, accepting hour values past 23 for trips
// running past midnight, exactly as GTFS specifies.
func parseGTFSTime(s string) (int32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty time field")
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return int32(h*3600 + m*60 + sec), nil
}
