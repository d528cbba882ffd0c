package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetway.dev/meetway/httpapi"
	"meetway.dev/meetway/meet"
	"meetway.dev/meetway/model"
	"meetway.dev/meetway/schedule"
	"meetway.dev/meetway/storage"
)

const t1000 = 36000 // 10:00:00

func buildIndex(t *testing.T, write func(w storage.FeedWriter)) *schedule.Index {
	t.Helper()
	s := storage.NewMemoryStorage()
	w, err := s.GetWriter("test")
	require.NoError(t, err)
	write(w)
	require.NoError(t, w.Close())

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	idx, err := schedule.NewIndex(reader)
	require.NoError(t, err)
	return idx
}

func testServer(t *testing.T) *httpapi.Server {
	idx := buildIndex(t, func(w storage.FeedWriter) {
		require.NoError(t, w.WriteStop(model.Stop{ID: "A", Name: "A", Lat: 0.001, Lon: 0.001}))
		require.NoError(t, w.WriteStop(model.Stop{ID: "B", Name: "B", Lat: 0.001, Lon: 0.101}))
		require.NoError(t, w.WriteStop(model.Stop{ID: "M", Name: "M", Lat: 0.101, Lon: 0.051}))
		require.NoError(t, w.WriteTrip(model.Trip{ID: "T_AB", RouteID: "R1"}))
		require.NoError(t, w.WriteTrip(model.Trip{ID: "T_BA", RouteID: "R1"}))
		require.NoError(t, w.BeginStopTimes())
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "T_AB", StopID: "A", StopSequence: 1, Arrival: -1, Departure: t1000}))
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "T_AB", StopID: "M", StopSequence: 2, Arrival: t1000 + 360, Departure: t1000 + 360}))
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "T_BA", StopID: "B", StopSequence: 1, Arrival: -1, Departure: t1000}))
		require.NoError(t, w.WriteStopTime(model.StopTime{TripID: "T_BA", StopID: "M", StopSequence: 2, Arrival: t1000 + 360, Departure: t1000 + 360}))
		require.NoError(t, w.EndStopTimes())
	})
	return &httpapi.Server{Index: idx, Constants: meet.DefaultConstants()}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleMeet_ReturnsMeetingStop(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Router(), "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "10:00:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "M", body["meet_stop_id"])
	assert.Equal(t, "OK", body["reason"])
	assert.Len(t, body["participants"], 2)
}

func TestHandleMeet_RejectsMalformedTime(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Router(), "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "not-a-time",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMeet_UnresolvableStationIsNotFound(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Router(), "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "nowhere"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "10:00:00",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, meet.ErrNoStationMatch.String(), body["kind"])
}

func TestHandleMeet_ReportsCapParticipantOnTripCap(t *testing.T) {
	s := testServer(t)
	s.Constants.MaxTrip = 100 // below the fixture's 360s ride

	rec := postJSON(t, s.Router(), "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "10:00:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TRIP_CAP", body["reason"])
	assert.Equal(t, "rider-a", body["cap_participant"])
	assert.Equal(t, "", body["meet_stop_id"])
}

func TestHandleMeet_TooFewParticipantsIsBadRequest(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Router(), "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
		},
		"time": "10:00:00",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHeatmap_ReturnsReachedStops(t *testing.T) {
	s := testServer(t)
	rec := postJSON(t, s.Router(), "/v1/heatmap", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "10:00:00",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "BUDGET_EXHAUSTED", body["reason"])
	assert.NotEmpty(t, body["stops"])
}

func TestHandleStationSearch_ResolvesQuery(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/stations?q=A", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "A", body["id"])
}

func TestHandleHealth_OK(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleMetrics_ExposesPrometheusFormat(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meetway_search_invocations_total")
}

func TestHandleMeet_RecordsHTTPMetrics(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	postJSON(t, router, "/v1/meet", map[string]any{
		"participants": []map[string]string{
			{"label": "rider-a", "station": "A"},
			{"label": "rider-b", "station": "B"},
		},
		"time": "10:00:00",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `meetway_http_requests_total{method="POST",path="/v1/meet",status="200"}`)
}
