package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Hanoi896/risk-map/internal/config"
	"github.com/Hanoi896/risk-map/internal/fetcher"
	"github.com/Hanoi896/risk-map/internal/hazard"
)

// SourceReliefWeb is the source name stored on ReliefWeb events.
const SourceReliefWeb = "reliefweb"

// reliefWebCategory is the category assigned to disease outbreak reports.
// It is not in the stock weight table, so these events score at the
// default weight plus recency.
const reliefWebCategory = "Epidemic"

const reliefWebQuery = "disease OR epidemic OR outbreak OR pandemic"

// descriptionLimit caps how much report body is carried on an event.
const descriptionLimit = 500

// ReliefWebSource fetches disease outbreak situation reports from the
// ReliefWeb report API.
type ReliefWebSource struct {
	fetcher  fetcher.Fetcher
	baseURL  string
	appName  string
	days     int
	pageSize int
}

// NewReliefWebSource creates a ReliefWeb source from config.
func NewReliefWebSource(f fetcher.Fetcher, cfg config.ReliefWebConfig) *ReliefWebSource {
	return &ReliefWebSource{
		fetcher:  f,
		baseURL:  cfg.BaseURL,
		appName:  cfg.AppName,
		days:     cfg.Days,
		pageSize: cfg.PageSize,
	}
}

func (s *ReliefWebSource) Name() string { return SourceReliefWeb }

type reliefWebRequest struct {
	AppName string             `json:"appname"`
	Preset  string             `json:"preset"`
	Profile string             `json:"profile"`
	Limit   int                `json:"limit"`
	Query   reliefWebQuerySpec `json:"query"`
	Filter  reliefWebFilter    `json:"filter"`
}

type reliefWebQuerySpec struct {
	Value    string `json:"value"`
	Operator string `json:"operator"`
}

type reliefWebFilter struct {
	Operator   string               `json:"operator"`
	Conditions []reliefWebCondition `json:"conditions"`
}

type reliefWebCondition struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type reliefWebResponse struct {
	Data []reliefWebReport `json:"data"`
}

type reliefWebReport struct {
	ID     json.Number `json:"id"`
	Fields struct {
		Title string `json:"title"`
		Date  struct {
			Created string `json:"created"`
		} `json:"date"`
		URLAlias       string          `json:"url_alias"`
		URL            string          `json:"url"`
		Body           string          `json:"body"`
		PrimaryCountry json.RawMessage `json:"primary_country"`
	} `json:"fields"`
}

type reliefWebCountry struct {
	Name     string `json:"name"`
	ISO3     string `json:"iso3"`
	Location struct {
		Lon *float64 `json:"lon"`
		Lat *float64 `json:"lat"`
	} `json:"location"`
}

func (s *ReliefWebSource) Fetch(ctx context.Context) ([]hazard.Event, error) {
	now := time.Now().UTC()
	payload := reliefWebRequest{
		AppName: s.appName,
		Preset:  "latest",
		Profile: "full",
		Limit:   s.pageSize,
		Query:   reliefWebQuerySpec{Value: reliefWebQuery, Operator: "OR"},
		Filter: reliefWebFilter{
			Operator: "AND",
			Conditions: []reliefWebCondition{
				{Field: "format.name", Value: "Situation Report"},
				{Field: "date.created", Value: map[string]string{
					"from": now.AddDate(0, 0, -s.days).Format(time.RFC3339),
					"to":   now.Format(time.RFC3339),
				}},
			},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "reliefweb: encode query")
	}

	body, err := s.fetcher.Post(ctx, s.baseURL+"/reports", bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[reliefWebResponse](body)
	if err != nil {
		return nil, err
	}

	var events []hazard.Event
	for _, report := range resp.Data {
		ev, ok := normalizeReliefWebReport(report)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

// normalizeReliefWebReport converts one report into a hazard.Event using
// the primary country's centroid as the event location. Reports without a
// creation date or a located country are dropped.
func normalizeReliefWebReport(report reliefWebReport) (hazard.Event, bool) {
	created := report.Fields.Date.Created
	if created == "" {
		return hazard.Event{}, false
	}
	date, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return hazard.Event{}, false
	}

	country, ok := decodePrimaryCountry(report.Fields.PrimaryCountry)
	if !ok || country.Location.Lat == nil || country.Location.Lon == nil {
		return hazard.Event{}, false
	}

	link := report.Fields.URLAlias
	if link == "" {
		link = report.Fields.URL
	}

	desc := report.Fields.Body
	if len(desc) > descriptionLimit {
		desc = desc[:descriptionLimit] + "..."
	}

	return hazard.Event{
		ID:          fmt.Sprintf("disease-rw-%s", report.ID.String()),
		Source:      SourceReliefWeb,
		Title:       report.Fields.Title,
		Link:        link,
		Description: desc,
		Date:        date.UTC(),
		Category:    reliefWebCategory,
		Country:     country.Name,
		Latitude:    country.Location.Lat,
		Longitude:   country.Location.Lon,
	}, true
}

// decodePrimaryCountry accepts either a single country object or a list,
// taking the first entry. The API has shipped both shapes.
func decodePrimaryCountry(raw json.RawMessage) (reliefWebCountry, bool) {
	if len(raw) == 0 {
		return reliefWebCountry{}, false
	}

	var one reliefWebCountry
	if err := json.Unmarshal(raw, &one); err == nil {
		return one, true
	}

	var many []reliefWebCountry
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], true
	}

	return reliefWebCountry{}, false
}
