package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antigravity/transit-planner/internal/tripapi"
)

func TestHealthz(t *testing.T) {
	router := NewRouter(&Server{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandlePlan_MalformedBodyIsBadRequest(t *testing.T) {
	router := NewRouter(&Server{})

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePlan_UnparseableDepartureTimeIsBadRequest(t *testing.T) {
	router := NewRouter(&Server{})

	body := `{
		"from": {"lat": 40.0, "lon": -73.0},
		"to": {"lat": 40.1, "lon": -73.1},
		"hints": {"earliestDepartureTime": "not-a-time"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/plan", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPointBody_ToPoint(t *testing.T) {
	stopPoint := pointBody{StopID: "A"}.toPoint()
	assert.Equal(t, tripapi.Station, stopPoint.Kind)
	assert.Equal(t, "A", stopPoint.StopID)

	coordPoint := pointBody{Lat: 40.0, Lon: -73.0}.toPoint()
	assert.Equal(t, tripapi.Coordinate, coordPoint.Kind)
	assert.InDelta(t, 40.0, coordPoint.Lat, 0.0001)
}

func TestWriteError_MapsCodesToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{tripapi.NewInvalidArgument("bad"), http.StatusBadRequest},
		{tripapi.NewPointNotFound(0), http.StatusNotFound},
		{tripapi.NewInternal(assertErr{}), http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		assert.Equal(t, c.want, rec.Code)
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
