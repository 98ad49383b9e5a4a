package api

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Hanoi896/risk-map/internal/hazard"
	"github.com/Hanoi896/risk-map/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scoredEvent is an event with its current severity score attached. Scores
// are recomputed on read so recency bonuses stay fresh.
type scoredEvent struct {
	hazard.Event
	Score int `json:"score"`
}

// eventFilterFromQuery builds a store filter from query parameters. An
// unparseable year or since value is reported back as a 400 by the caller.
func (s *Server) eventFilterFromQuery(r *http.Request) (store.EventFilter, bool) {
	q := r.URL.Query()
	filter := store.EventFilter{
		Source:   q.Get("source"),
		Category: q.Get("category"),
		Country:  q.Get("country"),
		Limit:    s.opts.EventLimit,
	}

	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, false
		}
		filter.Year = year
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, false
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, false
		}
		if limit < filter.Limit {
			filter.Limit = limit
		}
	}
	return filter, true
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.eventFilterFromQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid filter parameter")
		return
	}

	events, err := s.opts.Store.ListEvents(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list events", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	scored := make([]scoredEvent, 0, len(events))
	for _, ev := range events {
		scored = append(scored, scoredEvent{Event: ev, Score: s.opts.Scorer.Score(ev)})
	}
	respondJSON(w, http.StatusOK, scored)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.eventFilterFromQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid filter parameter")
		return
	}

	// Optional display-radius override for map rendering.
	var radiusKM float64
	if raw := r.URL.Query().Get("radius_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			respondError(w, http.StatusBadRequest, "radius_km must be a positive number")
			return
		}
		radiusKM = v
	}

	events, err := s.opts.Store.ListEvents(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list events for zones", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	zones := s.opts.Aggregator.Aggregate(events)
	if radiusKM > 0 {
		for i := range zones {
			zones[i].RadiusKM = radiusKM
		}
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.ZonesComputed.Observe(float64(len(zones)))
	}

	// An empty result is a JSON array, not null.
	if zones == nil {
		zones = []hazard.DangerZone{}
	}
	respondJSON(w, http.StatusOK, zones)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.opts.Weather == nil {
		respondError(w, http.StatusServiceUnavailable, "weather is not configured")
		return
	}

	q := r.URL.Query()
	rawLat, rawLon := q.Get("lat"), q.Get("lon")
	if rawLat == "" || rawLon == "" {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lon, lonErr := strconv.ParseFloat(rawLon, 64)
	if latErr != nil || lonErr != nil {
		respondError(w, http.StatusBadRequest, "lat and lon must be numbers")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		respondError(w, http.StatusBadRequest, "lat or lon out of range")
		return
	}

	current, err := s.opts.Weather.CurrentByCoords(r.Context(), lat, lon)
	if err != nil {
		zap.L().Error("api: weather lookup", zap.Error(err))
		respondError(w, http.StatusBadGateway, "weather lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, current)
}
