package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/config"
	"github.com/Hanoi896/risk-map/internal/fetcher"
	"github.com/Hanoi896/risk-map/internal/hazard"
)

// SourceEONET is the source name stored on EONET events.
const SourceEONET = "eonet"

// EONETSource fetches events from the NASA EONET v3 catalog, one calendar
// year per request.
type EONETSource struct {
	fetcher    fetcher.Fetcher
	baseURL    string
	sinceYears int
}

// NewEONETSource creates an EONET source from config.
func NewEONETSource(f fetcher.Fetcher, cfg config.EONETConfig) *EONETSource {
	return &EONETSource{
		fetcher:    f,
		baseURL:    cfg.BaseURL,
		sinceYears: cfg.SinceYears,
	}
}

func (s *EONETSource) Name() string { return SourceEONET }

type eonetEnvelope struct {
	Events []eonetEvent `json:"events"`
}

type eonetEvent struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Closed     string `json:"closed"`
	Categories []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Geometry []json.RawMessage `json:"geometry"`
}

// Fetch pulls one year window at a time and keeps going on per-year
// failures so a single bad window does not lose the rest.
func (s *EONETSource) Fetch(ctx context.Context) ([]hazard.Event, error) {
	currentYear := time.Now().UTC().Year()
	startYear := currentYear - s.sinceYears
	if startYear > currentYear {
		startYear = currentYear
	}

	var events []hazard.Event
	seen := make(map[string]bool)

	for year := startYear; year <= currentYear; year++ {
		if err := ctx.Err(); err != nil {
			return events, err
		}

		yearly, err := s.fetchYear(ctx, year)
		if err != nil {
			zap.L().Warn("eonet: year window failed",
				zap.Int("year", year),
				zap.Error(err),
			)
			continue
		}

		for _, raw := range yearly {
			ev, ok := normalizeEONETEvent(raw)
			if !ok || seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			events = append(events, ev)
		}
	}

	return events, nil
}

func (s *EONETSource) fetchYear(ctx context.Context, year int) ([]eonetEvent, error) {
	url := fmt.Sprintf("%s/events?start=%d-01-01&end=%d-12-31&status=all", s.baseURL, year, year)

	body, err := s.fetcher.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	envelope, err := fetcher.DecodeJSONObject[eonetEnvelope](body)
	if err != nil {
		return nil, err
	}
	return envelope.Events, nil
}

// normalizeEONETEvent converts one raw catalog entry into a hazard.Event.
// The entry's geometry list may mix dated Points with undated or areal
// shapes; the most recent dated geometry wins, and only a Point yields
// coordinates. Entries with no usable date or no geometry are dropped.
func normalizeEONETEvent(raw eonetEvent) (hazard.Event, bool) {
	if raw.ID == "" || len(raw.Geometry) == 0 {
		return hazard.Event{}, false
	}

	var (
		latestDate time.Time
		latestRaw  json.RawMessage
	)
	for _, g := range raw.Geometry {
		var dated struct {
			Date time.Time `json:"date"`
		}
		if err := json.Unmarshal(g, &dated); err != nil || dated.Date.IsZero() {
			continue
		}
		if dated.Date.After(latestDate) {
			latestDate = dated.Date
			latestRaw = g
		}
	}

	date := latestDate
	if date.IsZero() && raw.Closed != "" {
		if closed, err := time.Parse(time.RFC3339, raw.Closed); err == nil {
			date = closed
		}
	}
	if date.IsZero() || latestRaw == nil {
		return hazard.Event{}, false
	}

	ev := hazard.Event{
		ID:     raw.ID,
		Source: SourceEONET,
		Title:  raw.Title,
		Link:   raw.Link,
		Date:   date.UTC(),
	}

	if len(raw.Categories) > 0 && raw.Categories[0].Title != "" {
		ev.Category = raw.Categories[0].Title
	} else {
		ev.Category = "Unknown Category"
	}

	var g geom.T
	if err := geojson.Unmarshal(latestRaw, &g); err == nil {
		if pt, ok := g.(*geom.Point); ok {
			ev.Longitude = hazard.Float64Ptr(pt.X())
			ev.Latitude = hazard.Float64Ptr(pt.Y())
		}
	}

	return ev, true
}
