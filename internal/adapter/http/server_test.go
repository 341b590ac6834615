package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/eonet-event-tracker/internal/adapter/http"
	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
	"github.com/couchcryptid/eonet-event-tracker/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockService struct {
	mu         sync.Mutex
	events     []domain.Event
	categories []domain.Category
	err        error

	lastQuery    pipeline.EventQuery
	lastCategory int
}

func (m *mockService) Events(_ context.Context, q pipeline.EventQuery) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return m.events, m.err
}

func (m *mockService) CategoryEvents(_ context.Context, id int, q pipeline.EventQuery) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCategory = id
	m.lastQuery = q
	return m.events, m.err
}

func (m *mockService) Categories(_ context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func sampleEvents() []domain.Event {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string) domain.Event {
		return domain.Event{
			ID:         id,
			Title:      "event " + id,
			Categories: []domain.Category{{ID: 8, Title: "Wildfires"}},
			Sources:    []domain.Source{},
			Geometries: []domain.Geometry{
				{Date: date, Type: domain.GeometryPoint, Coordinates: &domain.Coordinates{Latitude: 10.5, Longitude: -20.3}},
			},
		}
	}
	return []domain.Event{mk("EONET_1"), mk("EONET_2")}
}

func newTestServer(svc *mockService, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", svc, &mockReadiness{err: readyErr}, pipeline.EmitterOptions{Interval: 10 * time.Millisecond}, logger)
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}, errors.New("not ready yet")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCategories(t *testing.T) {
	svc := &mockService{categories: []domain.Category{{ID: 8, Title: "Wildfires"}}}
	rec := get(t, newTestServer(svc, nil), "/categories")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id": 8, "title": "Wildfires"}]`, rec.Body.String())
}

func TestEvents(t *testing.T) {
	svc := &mockService{events: sampleEvents()}
	rec := get(t, newTestServer(svc, nil), "/events?status=all&priorDays=30&affectedPlacesNo=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.EventQuery{Status: domain.StatusAll, PriorDays: 30, MinAffectedPlaces: 2}, svc.lastQuery)

	var body []domain.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "EONET_1", body[0].ID)
	assert.Equal(t, 10.5, body[0].Geometries[0].Coordinates.Latitude)
}

func TestEvents_OptionalParamsDefaultToZero(t *testing.T) {
	svc := &mockService{events: []domain.Event{}}
	rec := get(t, newTestServer(svc, nil), "/events?status=open")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.EventQuery{Status: domain.StatusOpen}, svc.lastQuery)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCategoryEvents(t *testing.T) {
	svc := &mockService{events: sampleEvents()}
	rec := get(t, newTestServer(svc, nil), "/categories/8/events?status=closed&priorDays=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, svc.lastCategory)
	assert.Equal(t, pipeline.EventQuery{Status: domain.StatusClosed, PriorDays: 5}, svc.lastQuery)
}

func TestEvents_BadRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing status", "/events"},
		{"unknown status", "/events?status=pending"},
		{"negative days", "/events?status=open&priorDays=-1"},
		{"non-numeric days", "/events?status=open&priorDays=week"},
		{"negative places", "/events?status=open&affectedPlacesNo=-2"},
		{"zero category", "/categories/0/events?status=open"},
		{"non-numeric category", "/categories/fires/events?status=open"},
		{"stream without status", "/stream/events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(&mockService{}, nil), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid query")
		})
	}
}

func TestEvents_MergeErrorIsBadGateway(t *testing.T) {
	svc := &mockService{err: &domain.MergeError{
		Open:   &domain.TransportError{URL: "u", Err: errors.New("refused")},
		Closed: &domain.TransportError{URL: "u", Err: errors.New("refused")},
	}}
	rec := get(t, newTestServer(svc, nil), "/events?status=all")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&mockService{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/events", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// readFeed collects the data payloads of the first n server-sent events.
func readFeed(t *testing.T, body io.Reader, n int) []domain.Event {
	t.Helper()
	var events []domain.Event
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for len(events) < n && scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev domain.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestStreamEvents(t *testing.T) {
	svc := &mockService{events: sampleEvents()}
	ts := httptest.NewServer(newTestServer(svc, nil))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream/events?status=open", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := readFeed(t, resp.Body, 5)
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	assert.Equal(t, []string{"EONET_2", "EONET_1", "EONET_2", "EONET_1", "EONET_2"}, ids)
}

func TestStreamCategoryEvents_EmptyBatch(t *testing.T) {
	svc := &mockService{events: []domain.Event{}}
	ts := httptest.NewServer(newTestServer(svc, nil))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream/categories/12/events?status=open", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	events := readFeed(t, resp.Body, 2)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].ID)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, 12, svc.lastCategory)
}

func TestStatusServer_OnlyStatusRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpadapter.NewStatusServer(":0", &mockReadiness{}, logger)

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics").Code)

	for _, target := range []string{
		"/categories",
		"/events?status=open",
		"/stream/events?status=open",
	} {
		assert.Equal(t, http.StatusNotFound, get(t, srv, target).Code, target)
	}
}
