package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Units:   "metric",
	})
}

func TestCurrentByCoords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "35.2", q.Get("lat"))
		assert.Equal(t, "139.4", q.Get("lon"))
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))

		fmt.Fprint(w, `{
			"name": "Yokohama",
			"main": {"temp": 18.4, "humidity": 62},
			"weather": [{"description": "scattered clouds", "icon": "03d"}],
			"wind": {"speed": 4.1}
		}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	got, err := c.CurrentByCoords(context.Background(), 35.2, 139.4)
	require.NoError(t, err)

	assert.Equal(t, "Yokohama", got.Location)
	assert.Equal(t, 18.4, got.Temperature)
	assert.Equal(t, "scattered clouds", got.Weather)
	assert.Equal(t, "03d", got.Icon)
	assert.Equal(t, 62, got.Humidity)
	assert.Equal(t, 4.1, got.WindSpeed)
}

func TestCurrentByCoordsRejectsOutOfRange(t *testing.T) {
	c := newTestClient("http://unused.invalid")

	_, err := c.CurrentByCoords(context.Background(), 91, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = c.CurrentByCoords(context.Background(), 0, -181)
	require.Error(t, err)
}

func TestCurrentByCoordsRequiresAPIKey(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://unused.invalid"})

	_, err := c.CurrentByCoords(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestCurrentByCoordsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CurrentByCoords(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCurrentByCoordsMissingConditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Nowhere", "main": {"temp": 1}, "weather": []}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.CurrentByCoords(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing conditions")
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.True(t, ValidCoordinates(90, -180))
	assert.False(t, ValidCoordinates(90.01, 0))
	assert.False(t, ValidCoordinates(0, 180.01))
}
