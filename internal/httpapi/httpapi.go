// Package httpapi is the HTTP surface over package planner and
// gtfsstore's directory: request parsing, error-to-status-code
// translation, and JSON encoding. Response serialization format itself
// (this repository emits a straightforward JSON shape) is a narrow
// choice within what the spec leaves to an external collaborator; the
// planning pipeline behind it is the part this repository owns.
//
// Grounded directly on the teacher's root main.go (chi router +
// chi/middleware + rs/cors wiring) and
// internal/handler/transport_handler.go (per-route handler shape,
// errors.Is(err, pgx.ErrNoRows)-style status mapping).
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/antigravity/transit-planner/internal/gtfsstore"
	"github.com/antigravity/transit-planner/internal/planner"
	"github.com/antigravity/transit-planner/internal/tripapi"
)

// Server wires a Planner and a gtfsstore.Store into chi handlers.
type Server struct {
	Planner *planner.Planner
	Store   *gtfsstore.Store
}

// NewRouter builds the full chi.Router, middleware stack included,
// mirroring the teacher's root main.go setup.
func NewRouter(s *Server) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Get("/lines", s.handleListRoutes)
		r.Get("/lines/{id}", s.handleRouteDetails)
		r.Get("/stops", s.handleStopsInViewport)
		r.Get("/stops/{id}", s.handleStopDetails)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planRequestBody is the wire shape of a POST /v1/plan body, mirroring
// tripapi.Request/Hints but with JSON-friendly field names and a raw
// departure timestamp string.
type planRequestBody struct {
	From pointBody `json:"from"`
	To   pointBody `json:"to"`
	Hints struct {
		EarliestDepartureTime string  `json:"earliestDepartureTime"`
		ArriveBy              bool    `json:"arriveBy"`
		ProfileQuery          bool    `json:"profileQuery"`
		IgnoreTransfers       bool    `json:"ignoreTransfers"`
		LimitSolutions        int     `json:"limitSolutions"`
		WalkSpeedKMH          float64 `json:"walkSpeedKmh"`
		MaxWalkDistancePerLeg float64 `json:"maxWalkDistancePerLeg"`
		MaxTransferDistancePerLeg float64 `json:"maxTransferDistancePerLeg"`
		MaxVisitedNodes       int     `json:"maxVisitedNodes"`
	} `json:"hints"`
}

type pointBody struct {
	StopID string  `json:"stopId"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

func (b pointBody) toPoint() tripapi.Point {
	if b.StopID != "" {
		return tripapi.Point{Kind: tripapi.Station, StopID: b.StopID}
	}
	return tripapi.Point{Kind: tripapi.Coordinate, Lat: b.Lat, Lon: b.Lon}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body planRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, tripapi.NewInvalidArgument("malformed request body: %v", err))
		return
	}

	hints := tripapi.DefaultHints()
	hints.ArriveBy = body.Hints.ArriveBy
	hints.ProfileQuery = body.Hints.ProfileQuery
	hints.IgnoreTransfers = body.Hints.IgnoreTransfers
	hints.LimitSolutions = body.Hints.LimitSolutions
	hints.MaxWalkDistancePerLeg = body.Hints.MaxWalkDistancePerLeg
	hints.MaxTransferDistancePerLeg = body.Hints.MaxTransferDistancePerLeg
	if body.Hints.WalkSpeedKMH > 0 {
		hints.WalkSpeedKMH = body.Hints.WalkSpeedKMH
	}
	if body.Hints.MaxVisitedNodes > 0 {
		hints.MaxVisitedNodes = body.Hints.MaxVisitedNodes
	}

	departure, err := time.Parse(time.RFC3339, body.Hints.EarliestDepartureTime)
	if err != nil {
		writeError(w, tripapi.NewInvalidArgument("hints.earliestDepartureTime must be RFC3339: %v", err))
		return
	}
	hints.EarliestDepartureTime = departure

	req := &tripapi.Request{
		Points: [2]tripapi.Point{body.From.toPoint(), body.To.toPoint()},
		Hints:  hints,
	}

	resp, err := s.Planner.Plan(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireStore reports whether s.Store is unavailable, writing a 503
// response and returning true if so. Server.Store is nil when serve
// was started against a fixture directory instead of Postgres (see
// cmd/tripcli's loadFeed): the fixture path has no line/stop directory
// behind it, only the compiled graph handlePlan needs.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store != nil {
		return false
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"error": "line/stop directory unavailable: server is running against a fixture feed with no backing store",
	})
	return true
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	if s.requireStore(w) {
		return
	}
	routes, err := s.Store.ListRoutes(r.Context())
	if err != nil {
		writeError(w, tripapi.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

func (s *Server) handleRouteDetails(w http.ResponseWriter, r *http.Request) {
	if s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	route, stops, err := s.Store.RouteDetails(r.Context(), id)
	if err != nil {
		if gtfsstore.IsNoRows(err) {
			writeError(w, tripapi.NewInvalidArgument("unknown route id %q", id))
			return
		}
		writeError(w, tripapi.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"route": route, "stops": stops})
}

func (s *Server) handleStopsInViewport(w http.ResponseWriter, r *http.Request) {
	if s.requireStore(w) {
		return
	}
	minLat, err1 := strconv.ParseFloat(r.URL.Query().Get("min_lat"), 64)
	minLon, err2 := strconv.ParseFloat(r.URL.Query().Get("min_lon"), 64)
	maxLat, err3 := strconv.ParseFloat(r.URL.Query().Get("max_lat"), 64)
	maxLon, err4 := strconv.ParseFloat(r.URL.Query().Get("max_lon"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		writeError(w, tripapi.NewInvalidArgument("min_lat/min_lon/max_lat/max_lon are required numeric query params"))
		return
	}

	stops, err := s.Store.StopsInViewport(r.Context(), minLat, minLon, maxLat, maxLon)
	if err != nil {
		writeError(w, tripapi.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, stops)
}

func (s *Server) handleStopDetails(w http.ResponseWriter, r *http.Request) {
	if s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	summary, err := s.Store.StopDetails(r.Context(), id)
	if err != nil {
		if gtfsstore.IsNoRows(err) {
			writeError(w, tripapi.NewInvalidArgument("unknown stop id %q", id))
			return
		}
		writeError(w, tripapi.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeError translates a tripapi error into an HTTP status code,
// generalizing the teacher's switch-on-errors.Is status mapping in
// transport_handler.go to the four-member tripapi.Code taxonomy.
func writeError(w http.ResponseWriter, err error) {
	log.Printf("⚠️  request failed: %v", err)
	status := http.StatusInternalServerError
	switch tripapi.CodeOf(err) {
	case tripapi.InvalidArgument:
		status = http.StatusBadRequest
	case tripapi.PointNotFound:
		status = http.StatusNotFound
	case tripapi.ResourceExhausted:
		status = http.StatusOK // partial results still returned; not an error status
	case tripapi.Internal:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
