// Package weather is a thin client for the OpenWeatherMap current-weather API.
package weather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Current is the trimmed-down current-weather report returned to callers.
type Current struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Weather     string  `json:"weather"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// owmResponse mirrors the fields of the upstream response we consume.
type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Options configures the client.
type Options struct {
	APIKey  string
	BaseURL string // e.g. "https://api.openweathermap.org/data/2.5"
	Units   string // "metric" or "imperial"
	Timeout time.Duration
}

// Client calls the OpenWeatherMap API.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a weather client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if opts.Units == "" {
		opts.Units = "metric"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// ValidCoordinates reports whether lat and lon are in range.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// CurrentByCoords returns the current weather at the given coordinates.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64) (*Current, error) {
	if !ValidCoordinates(lat, lon) {
		return nil, eris.Errorf("weather: coordinates out of range: %f, %f", lat, lon)
	}
	if c.opts.APIKey == "" {
		return nil, eris.New("weather: no API key configured")
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.opts.APIKey},
		"units": {c.opts.Units},
	}

	reqURL := c.opts.BaseURL + "/weather?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "weather: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weather: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("weather: upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "weather: read body")
	}

	var owm owmResponse
	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, eris.Wrap(err, "weather: parse response")
	}
	if len(owm.Weather) == 0 {
		return nil, eris.New("weather: response missing conditions")
	}

	return &Current{
		Location:    owm.Name,
		Temperature: owm.Main.Temp,
		Weather:     owm.Weather[0].Description,
		Icon:        owm.Weather[0].Icon,
		Humidity:    owm.Main.Humidity,
		WindSpeed:   owm.Wind.Speed,
	}, nil
}
