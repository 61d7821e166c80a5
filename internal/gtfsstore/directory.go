package gtfsstore

import (
	"context"

	"github.com/antigravity/transit-planner/internal/gtfsmodel"
)

// StopSummary is one row of the stop directory httpapi serves at
// GET /v1/stops/{id}: the stop itself plus every route calling at it.
type StopSummary struct {
	Stop   gtfsmodel.Stop
	Routes []gtfsmodel.Route
}

// ListRoutes returns every route, ordered the way the teacher's
// GetAllLines orders lines: rail-like modes first, then by short name.
//
// Grounded on internal/repository/line_repo.go's GetAllLines, whose
// CASE-ordered line_type sort this reproduces over GTFS route_type
// (0 = tram/streetcar, 1 = subway, 2 = rail, 3 = bus).
func (s *Store) ListRoutes(ctx context.Context) ([]gtfsmodel.Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT route_id, short_name, long_name, route_type, COALESCE(color, '')
		FROM routes
		ORDER BY
			CASE route_type
				WHEN 0 THEN 1
				WHEN 1 THEN 2
				WHEN 2 THEN 3
				ELSE 4
			END,
			short_name ASC
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

// RouteDetails fetches one route and the ordered list of stops its
// trips call at, mirroring the teacher's GetLineDetails. Direction is
// inferred from the first trip found for the route; a GTFS route
// commonly carries two directions and this reports only one, the same
// simplification the teacher's query makes with its hardcoded
// direction = 0 filter.
//
// Grounded on internal/repository/line_repo.go's GetLineDetails.
func (s *Store) RouteDetails(ctx context.Context, routeID string) (*gtfsmodel.Route, []gtfsmodel.Stop, error) {
	var r gtfsmodel.Route
	err := s.db.QueryRow(ctx, `
		SELECT route_id, short_name, long_name, route_type, COALESCE(color, '')
		FROM routes WHERE route_id = $1
	`, routeID).Scan(&r.ID, &r.ShortName, &r.LongName, &r.Type, &r.Color)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT stop_id, code, name, lat, lon, parent_station, stop_sequence
		FROM (
			SELECT DISTINCT ON (st.stop_id) s.stop_id, s.code, s.name, ST_Y(s.location::geometry) AS lat, ST_X(s.location::geometry) AS lon, COALESCE(s.parent_station, '') AS parent_station, st.stop_sequence
			FROM stop_times st
			JOIN trips t ON t.trip_id = st.trip_id
			JOIN stops s ON s.stop_id = st.stop_id
			WHERE t.route_id = $1 AND t.trip_id = (SELECT trip_id FROM trips WHERE route_id = $1 LIMIT 1)
			ORDER BY st.stop_id, st.stop_sequence ASC
		) first_calls
		ORDER BY stop_sequence ASC
	`, routeID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var stops []gtfsmodel.Stop
	for rows.Next() {
		var st gtfsmodel.Stop
		var seq int32
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Lat, &st.Lon, &st.ParentID, &seq); err != nil {
			return nil, nil, err
		}
		stops = append(stops, st)
	}
	return &r, stops, rows.Err()
}

// StopsInViewport returns every stop within the given lat/lon box, used
// by the map UI this HTTP surface has to support even though route
// search itself never needs a bounding-box query.
//
// Grounded on internal/repository/line_repo.go's GetStopsInViewport:
// the stops table's location is a PostGIS geography column, matched
// against the box with the && operator, and at most 200 stops are
// returned.
func (s *Store) StopsInViewport(ctx context.Context, minLat, minLon, maxLat, maxLon float64) ([]gtfsmodel.Stop, error) {
	rows, err := s.db.Query(ctx, `
		SELECT stop_id, code, name, ST_Y(location::geometry), ST_X(location::geometry), COALESCE(parent_station, '')
		FROM stops
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography
		LIMIT 200
	`, minLon, minLat, maxLon, maxLat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []gtfsmodel.Stop
	for rows.Next() {
		var st gtfsmodel.Stop
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Lat, &st.Lon, &st.ParentID); err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	return stops, rows.Err()
}

// StopDetails fetches one stop plus the distinct set of routes calling
// at it, mirroring the teacher's GetStopDetails.
func (s *Store) StopDetails(ctx context.Context, stopID string) (*StopSummary, error) {
	var st gtfsmodel.Stop
	err := s.db.QueryRow(ctx, `
		SELECT stop_id, code, name, ST_Y(location::geometry), ST_X(location::geometry), COALESCE(parent_station, '')
		FROM stops WHERE stop_id = $1
	`, stopID).Scan(&st.ID, &st.Code, &st.Name, &st.Lat, &st.Lon, &st.ParentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT r.route_id, r.short_name, r.long_name, r.route_type, COALESCE(r.color, '')
		FROM routes r
		JOIN trips t ON t.route_id = r.route_id
		JOIN stop_times st ON st.trip_id = t.trip_id
		WHERE st.stop_id = $1
		ORDER BY r.short_name ASC
	`, stopID)
	if err != nil {
		return &StopSummary{Stop: st}, err
	}
	defer rows.Close()

	var routes []gtfsmodel.Route
	for rows.Next() {
		var r gtfsmodel.Route
		if err := rows.Scan(&r.ID, &r.ShortName, &r.LongName, &r.Type, &r.Color); err != nil {
			return &StopSummary{Stop: st}, err
		}
		routes = append(routes, r)
	}
	return &StopSummary{Stop: st, Routes: routes}, rows.Err()
}
