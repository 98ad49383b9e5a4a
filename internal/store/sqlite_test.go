package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testEvent(source, id, category string, date time.Time) hazard.Event {
	return hazard.Event{
		ID:        id,
		Source:    source,
		Category:  category,
		Date:      date,
		Latitude:  hazard.Float64Ptr(35.0),
		Longitude: hazard.Float64Ptr(139.0),
		Title:     id + " title",
	}
}

func TestSQLite_UpsertAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	date := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	n, err := st.UpsertEvents(ctx, []hazard.Event{
		testEvent("eonet", "EONET_100", "Wildfires", date),
		testEvent("gdacs", "gdacs-55-EQ", "Earthquakes", date.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := st.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Recent first.
	assert.Equal(t, "gdacs-55-EQ", events[0].ID)
	assert.Equal(t, "Earthquakes", events[0].Category)
	require.NotNil(t, events[0].Latitude)
	assert.Equal(t, 35.0, *events[0].Latitude)
	assert.Equal(t, date.Add(time.Hour), events[0].Date)
}

func TestSQLite_UpsertReplacesByIdentity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	ev := testEvent("eonet", "EONET_1", "Floods", date)
	_, err := st.UpsertEvents(ctx, []hazard.Event{ev})
	require.NoError(t, err)

	ev.Title = "revised title"
	ev.Category = "Severe Storms"
	_, err = st.UpsertEvents(ctx, []hazard.Event{ev})
	require.NoError(t, err)

	events, err := st.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "revised title", events[0].Title)
	assert.Equal(t, "Severe Storms", events[0].Category)
}

func TestSQLite_SameIDDifferentSource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := st.UpsertEvents(ctx, []hazard.Event{
		testEvent("eonet", "shared", "Floods", date),
		testEvent("gdacs", "shared", "Floods", date),
	})
	require.NoError(t, err)

	events, err := st.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	// Identity is per source namespace, so both rows survive.
	assert.Len(t, events, 2)
}

func TestSQLite_ListFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ev2025 := testEvent("eonet", "old", "Wildfires", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	ev2026 := testEvent("eonet", "new", "Earthquakes", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	gd := testEvent("gdacs", "gd", "Earthquakes", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))
	gd.Country = "Japan"
	_, err := st.UpsertEvents(ctx, []hazard.Event{ev2025, ev2026, gd})
	require.NoError(t, err)

	byYear, err := st.ListEvents(ctx, EventFilter{Year: 2025})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, "old", byYear[0].ID)

	byCategory, err := st.ListEvents(ctx, EventFilter{Category: "Earthquakes"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	bySource, err := st.ListEvents(ctx, EventFilter{Source: "gdacs"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "gd", bySource[0].ID)

	byCountry, err := st.ListEvents(ctx, EventFilter{Country: "apan"})
	require.NoError(t, err)
	require.Len(t, byCountry, 1)
	assert.Equal(t, "Japan", byCountry[0].Country)

	since, err := st.ListEvents(ctx, EventFilter{Since: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	limited, err := st.ListEvents(ctx, EventFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_NullCoordinatesAndDate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertEvents(ctx, []hazard.Event{{
		ID:       "disease-rw-1",
		Source:   "reliefweb",
		Category: "Disease Outbreak",
		Title:    "outbreak report",
	}})
	require.NoError(t, err)

	events, err := st.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].Latitude)
	assert.Nil(t, events[0].Longitude)
	assert.True(t, events[0].Date.IsZero())
	assert.False(t, events[0].HasCoordinates())
}

func TestSQLite_UpsertEmptyBatch(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.UpsertEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}
