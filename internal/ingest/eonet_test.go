package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanoi896/risk-map/internal/config"
	"github.com/Hanoi896/risk-map/internal/fetcher"
)

func newTestHTTPFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})
}

func eonetBody(events ...map[string]any) string {
	b, _ := json.Marshal(map[string]any{"title": "EONET Events", "events": events})
	return string(b)
}

func eonetRawEvent(id string, geometries ...map[string]any) map[string]any {
	return map[string]any{
		"id":         id,
		"title":      id + " title",
		"link":       "https://eonet.gsfc.nasa.gov/api/v3/events/" + id,
		"categories": []map[string]any{{"id": "wildfires", "title": "Wildfires"}},
		"geometry":   geometries,
	}
}

func pointGeometry(date string, lon, lat float64) map[string]any {
	return map[string]any{
		"date":        date,
		"type":        "Point",
		"coordinates": []float64{lon, lat},
	}
}

func TestEONETFetch(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		fmt.Fprint(w, eonetBody(
			eonetRawEvent("EONET_1", pointGeometry("2026-02-01T12:00:00Z", 139.4, 35.2)),
		))
	}))
	defer srv.Close()

	src := NewEONETSource(newTestHTTPFetcher(), config.EONETConfig{
		BaseURL:    srv.URL,
		SinceYears: 0,
	})
	assert.Equal(t, "eonet", src.Name())

	events, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "EONET_1", ev.ID)
	assert.Equal(t, "eonet", ev.Source)
	assert.Equal(t, "Wildfires", ev.Category)
	assert.Equal(t, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), ev.Date)
	require.True(t, ev.HasCoordinates())
	assert.Equal(t, 35.2, *ev.Latitude)
	assert.Equal(t, 139.4, *ev.Longitude)

	// SinceYears 0 queries only the current calendar year.
	require.Len(t, requests, 1)
	year := time.Now().UTC().Year()
	assert.Contains(t, requests[0], fmt.Sprintf("start=%d-01-01", year))
	assert.Contains(t, requests[0], fmt.Sprintf("end=%d-12-31", year))
	assert.Contains(t, requests[0], "status=all")
}

func TestEONETFetchSpansYears(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		// Same event in every year window; the source dedups by ID.
		fmt.Fprint(w, eonetBody(
			eonetRawEvent("EONET_1", pointGeometry("2024-06-01T00:00:00Z", 10, 10)),
		))
	}))
	defer srv.Close()

	src := NewEONETSource(newTestHTTPFetcher(), config.EONETConfig{
		BaseURL:    srv.URL,
		SinceYears: 2,
	})

	events, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, events, 1)
}

func TestEONETFetchKeepsGoingOnYearFailure(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		if count == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, eonetBody(
			eonetRawEvent("EONET_2", pointGeometry("2025-06-01T00:00:00Z", 20, 20)),
		))
	}))
	defer srv.Close()

	src := NewEONETSource(newTestHTTPFetcher(), config.EONETConfig{
		BaseURL:    srv.URL,
		SinceYears: 1,
	})

	events, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "EONET_2", events[0].ID)
}

func TestNormalizeEONETEvent_LatestGeometryWins(t *testing.T) {
	raw := toEONETEvent(t, eonetRawEvent("EONET_5",
		pointGeometry("2026-01-01T00:00:00Z", 100, 10),
		pointGeometry("2026-03-01T00:00:00Z", 120, 30),
		pointGeometry("2026-02-01T00:00:00Z", 110, 20),
	))

	ev, ok := normalizeEONETEvent(raw)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ev.Date)
	assert.Equal(t, 30.0, *ev.Latitude)
	assert.Equal(t, 120.0, *ev.Longitude)
}

func TestNormalizeEONETEvent_PolygonKeptWithoutCoordinates(t *testing.T) {
	raw := toEONETEvent(t, eonetRawEvent("EONET_6", map[string]any{
		"date": "2026-01-15T00:00:00Z",
		"type": "Polygon",
		"coordinates": [][][]float64{{
			{0, 0}, {1, 0}, {1, 1}, {0, 0},
		}},
	}))

	ev, ok := normalizeEONETEvent(raw)
	require.True(t, ok)
	assert.False(t, ev.HasCoordinates())
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), ev.Date)
}

func TestNormalizeEONETEvent_DroppedWithoutDate(t *testing.T) {
	raw := toEONETEvent(t, eonetRawEvent("EONET_7", map[string]any{
		"type":        "Point",
		"coordinates": []float64{1, 2},
	}))

	_, ok := normalizeEONETEvent(raw)
	assert.False(t, ok)
}

func TestNormalizeEONETEvent_DroppedWithoutGeometry(t *testing.T) {
	raw := toEONETEvent(t, eonetRawEvent("EONET_8"))

	_, ok := normalizeEONETEvent(raw)
	assert.False(t, ok)
}

func toEONETEvent(t *testing.T, m map[string]any) eonetEvent {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	var raw eonetEvent
	require.NoError(t, json.Unmarshal(b, &raw))
	return raw
}
