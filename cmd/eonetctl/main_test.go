package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eonet-event-tracker/internal/domain"
)

const fixtureEvents = `{"events": [
  {"id": "EONET_1", "title": "Wildfire", "description": "", "link": "l",
   "geometries": [{"date": "2024-05-01T00:00:00Z", "type": "Point", "coordinates": [1, 2]}]},
  {"id": "EONET_2", "title": "Volcano", "description": "", "link": "l",
   "geometries": [
     {"date": "2024-05-01T00:00:00Z", "type": "Point", "coordinates": [3, 4]},
     {"date": "2024-05-02T00:00:00Z", "type": "Point", "coordinates": [5, 6]}
   ]}
]}`

func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"categories": [{"id": 8, "title": "Wildfires"}, {"id": 12, "title": "Volcanoes"}]}`))
	})
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "open" {
			_, _ = w.Write([]byte(`{"events": []}`))
			return
		}
		_, _ = w.Write([]byte(fixtureEvents))
	})
	mux.HandleFunc("/api/categories/12", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": []}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func eventIDs(t *testing.T, out string) []string {
	t.Helper()
	var ids []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var ev domain.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestCategoriesCommand(t *testing.T) {
	provider := newProvider(t)

	out, err := run(t, "categories", "--base-url", provider.URL+"/api/")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id": 8, "title": "Wildfires"}`, lines[0])
}

func TestEventsCommand(t *testing.T) {
	provider := newProvider(t)

	out, err := run(t, "events", "--base-url", provider.URL+"/api", "--status", "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"EONET_1", "EONET_2"}, eventIDs(t, out))
}

func TestEventsCommand_MinPlaces(t *testing.T) {
	provider := newProvider(t)

	out, err := run(t, "events", "--base-url", provider.URL+"/api", "--min-places", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"EONET_2"}, eventIDs(t, out))
}

func TestEventsCommand_Category(t *testing.T) {
	provider := newProvider(t)

	out, err := run(t, "events", "--base-url", provider.URL+"/api", "--category", "12")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEventsCommand_InvalidStatus(t *testing.T) {
	provider := newProvider(t)

	_, err := run(t, "events", "--base-url", provider.URL+"/api", "--status", "pending")
	assert.Error(t, err)
}

func TestStreamCommand(t *testing.T) {
	provider := newProvider(t)

	out, err := run(t, "stream", "--base-url", provider.URL+"/api", "--count", "5", "--interval", "1ms")
	require.NoError(t, err)
	assert.Equal(t, []string{"EONET_2", "EONET_1", "EONET_2", "EONET_1", "EONET_2"}, eventIDs(t, out))
}
