package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/config"
	"github.com/Hanoi896/risk-map/internal/fetcher"
	"github.com/Hanoi896/risk-map/internal/hazard"
)

// SourceGDACS is the source name stored on GDACS events.
const SourceGDACS = "gdacs"

// gdacsCategoryMap translates GDACS event type codes into the category
// names used by the scoring tables.
var gdacsCategoryMap = map[string]string{
	"EQ": "Earthquakes",
	"TC": "Tropical Cyclone",
	"FL": "Floods",
	"VO": "Volcanoes",
	"DR": "Drought",
	"WF": "Wildfires",
}

const defaultGDACSCategory = "Disaster"

// gdacsDateFormats are tried in order; the feed mixes ISO timestamps in
// gdacs:fromdate with RFC1123 pubDate values.
var gdacsDateFormats = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
}

// GDACSSource fetches the GDACS RSS alert feed. The feed's ETag is kept
// between fetches so unchanged feeds cost a single conditional request.
type GDACSSource struct {
	fetcher fetcher.Fetcher
	feedURL string
	etag    string
}

// NewGDACSSource creates a GDACS source from config.
func NewGDACSSource(f fetcher.Fetcher, cfg config.GDACSConfig) *GDACSSource {
	return &GDACSSource{
		fetcher: f,
		feedURL: cfg.FeedURL,
	}
}

func (s *GDACSSource) Name() string { return SourceGDACS }

type gdacsItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	FromDate    string `xml:"fromdate"`
	EventType   string `xml:"eventtype"`
	EventID     string `xml:"eventid"`
	AlertLevel  string `xml:"alertlevel"`
	Country     string `xml:"country"`
	Point       string `xml:"point"`
	GUID        string `xml:"guid"`
}

func (s *GDACSSource) Fetch(ctx context.Context) ([]hazard.Event, error) {
	body, etag, changed, err := s.fetcher.DownloadIfChanged(ctx, s.feedURL, s.etag)
	if err != nil {
		return nil, err
	}
	if !changed {
		zap.L().Debug("gdacs: feed unchanged", zap.String("etag", etag))
		return nil, nil
	}
	defer body.Close() //nolint:errcheck
	s.etag = etag

	items, err := fetcher.DecodeXMLElements[gdacsItem](body, "item")
	if err != nil {
		return nil, err
	}

	var events []hazard.Event
	for _, item := range items {
		ev, ok := normalizeGDACSItem(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalizeGDACSItem converts one RSS item into a hazard.Event. Items
// without a parseable date or a georss point are dropped; without
// coordinates they cannot land in a grid cell.
func normalizeGDACSItem(item gdacsItem) (hazard.Event, bool) {
	date := parseGDACSDate(item.FromDate)
	if date.IsZero() {
		date = parseGDACSDate(item.PubDate)
	}
	if date.IsZero() {
		return hazard.Event{}, false
	}

	lat, lon, ok := parseGeoRSSPoint(item.Point)
	if !ok {
		return hazard.Event{}, false
	}

	eventID := item.EventID
	if eventID == "" {
		eventID = item.GUID
	}
	typeCode := item.EventType
	if typeCode == "" {
		typeCode = "unknown"
	}

	category, ok := gdacsCategoryMap[item.EventType]
	if !ok {
		if item.EventType != "" {
			category = item.EventType
		} else {
			category = defaultGDACSCategory
		}
	}

	return hazard.Event{
		ID:          fmt.Sprintf("gdacs-%s-%s", eventID, typeCode),
		Source:      SourceGDACS,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Date:        date.UTC(),
		Category:    category,
		AlertLevel:  item.AlertLevel,
		Country:     item.Country,
		Latitude:    hazard.Float64Ptr(lat),
		Longitude:   hazard.Float64Ptr(lon),
	}, true
}

func parseGDACSDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range gdacsDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseGeoRSSPoint parses a georss:point value, "lat lon" separated by
// whitespace.
func parseGeoRSSPoint(s string) (lat, lon float64, ok bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
