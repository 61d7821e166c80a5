// Package gtfsstore is the persisted-GTFS-tables loader: the
// Postgres-backed path that fills a gtfsmodel.Feed from a schema
// shaped like standard GTFS tables, standing in for the full zip
// ingestion pipeline §1 places out of scope, plus a directory of
// stop/route lookups the HTTP API serves directly.
//
// Grounded on the teacher's internal/routing/loader.go (pgxpool
// queries assembling stops/routes/trips) and
// internal/repository/line_repo.go (the stop/line directory queries),
// generalized from the teacher's line/line_stops/schedules schema to
// the standard GTFS stops/routes/trips/stop_times/calendar/
// calendar_dates/transfers table set.
package gtfsstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-planner/internal/gtfsmodel"
)

// Store is a pgxpool-backed reader over the persisted GTFS tables.
type Store struct {
	db *pgxpool.Pool
}

// New wraps an already-configured pgxpool.Pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool against dsn and verifies connectivity,
// mirroring the teacher main.go's ParseConfig -> NewWithConfig -> Ping
// sequence.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// LoadFeed reads the full static dataset needed by internal/graphbuild
// out of the persisted tables. referenceDate anchors the feed's
// service-day-0 validity bitsets.
func (s *Store) LoadFeed(ctx context.Context, referenceDate time.Time) (*gtfsmodel.Feed, error) {
	feed := &gtfsmodel.Feed{ReferenceDate: referenceDate}

	var err error
	if feed.Stops, err = s.loadStops(ctx); err != nil {
		return nil, fmt.Errorf("loading stops: %w", err)
	}
	if feed.Routes, err = s.loadRoutes(ctx); err != nil {
		return nil, fmt.Errorf("loading routes: %w", err)
	}
	if feed.Trips, err = s.loadTrips(ctx); err != nil {
		return nil, fmt.Errorf("loading trips: %w", err)
	}
	if feed.Calendars, err = s.loadCalendars(ctx); err != nil {
		return nil, fmt.Errorf("loading calendars: %w", err)
	}
	if feed.CalendarExceptions, err = s.loadCalendarExceptions(ctx); err != nil {
		return nil, fmt.Errorf("loading calendar exceptions: %w", err)
	}
	if feed.Transfers, err = s.loadTransfers(ctx); err != nil {
		return nil, fmt.Errorf("loading transfers: %w", err)
	}

	return feed, nil
}

func (s *Store) loadStops(ctx context.Context) ([]gtfsmodel.Stop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT stop_id, code, name, ST_Y(location::geometry), ST_X(location::geometry), COALESCE(parent_station, '')
		FROM stops
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.Stop
	for rows.Next() {
		var st gtfsmodel.Stop
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Lat, &st.Lon, &st.ParentID); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) loadRoutes(ctx context.Context) ([]gtfsmodel.Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT route_id, short_name, long_name, route_type, COALESCE(color, '')
		FROM routes
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.Route
	for rows.Next() {
		var r gtfsmodel.Route
		if err := rows.Scan(&r.ID, &r.ShortName, &r.LongName, &r.Type, &r.Color); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadTrips(ctx context.Context) ([]gtfsmodel.Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, route_id, service_id, COALESCE(headsign, ''), direction_id
		FROM trips
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.Trip
	for rows.Next() {
		var t gtfsmodel.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.DirectionID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stopTimesByTrip, err := s.loadStopTimes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].StopTimes = stopTimesByTrip[out[i].ID]
	}
	return out, nil
}

func (s *Store) loadStopTimes(ctx context.Context) (map[string][]gtfsmodel.StopTime, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_id, stop_id, stop_sequence, arrival_secs, departure_secs
		FROM stop_times
		ORDER BY trip_id, stop_sequence
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]gtfsmodel.StopTime)
	for rows.Next() {
		var tripID string
		var st gtfsmodel.StopTime
		if err := rows.Scan(&tripID, &st.StopID, &st.StopSequence, &st.ArrivalSecs, &st.DepartureSecs); err != nil {
			return nil, err
		}
		out[tripID] = append(out[tripID], st)
	}
	return out, rows.Err()
}

func (s *Store) loadCalendars(ctx context.Context) ([]gtfsmodel.Calendar, error) {
	rows, err := s.db.Query(ctx, `
		SELECT service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date
		FROM calendar
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.Calendar
	for rows.Next() {
		var c gtfsmodel.Calendar
		if err := rows.Scan(&c.ServiceID, &c.Monday, &c.Tuesday, &c.Wednesday, &c.Thursday, &c.Friday, &c.Saturday, &c.Sunday, &c.StartDate, &c.EndDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadCalendarExceptions(ctx context.Context) ([]gtfsmodel.CalendarException, error) {
	rows, err := s.db.Query(ctx, `SELECT service_id, date, exception_type FROM calendar_dates`)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.CalendarException
	for rows.Next() {
		var e gtfsmodel.CalendarException
		var exceptionType int
		if err := rows.Scan(&e.ServiceID, &e.Date, &exceptionType); err != nil {
			return nil, err
		}
		e.Type = gtfsmodel.CalendarExceptionType(exceptionType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadTransfers(ctx context.Context) ([]gtfsmodel.Transfer, error) {
	rows, err := s.db.Query(ctx, `SELECT from_stop_id, to_stop_id, transfer_time_secs FROM transfers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gtfsmodel.Transfer
	for rows.Next() {
		var t gtfsmodel.Transfer
		if err := rows.Scan(&t.FromStopID, &t.ToStopID, &t.TimeSeconds); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// IsNoRows reports whether err is the "no matching row" sentinel,
// mirroring the teacher's internal/repository/line_repo.go helper of
// the same name.
func IsNoRows(err error) bool {
	return err == pgx.ErrNoRows
}
