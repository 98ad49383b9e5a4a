// Package hazard implements severity scoring and grid-based spatial
// aggregation of normalized natural-hazard events.
package hazard

import (
	"math"
	"time"
)

// Event is the uniform record every source normalizer produces. Category and
// Date are the only scoring inputs; coordinates gate spatial aggregation.
// A zero Date means the source had no usable timestamp.
type Event struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Description string    `json:"description,omitempty"`
	Country     string    `json:"country,omitempty"`
	AlertLevel  string    `json:"alert_level,omitempty"`
}

// HasCoordinates reports whether the event carries a finite lat/lon pair.
func (e Event) HasCoordinates() bool {
	if e.Latitude == nil || e.Longitude == nil {
		return false
	}
	if math.IsNaN(*e.Latitude) || math.IsInf(*e.Latitude, 0) {
		return false
	}
	if math.IsNaN(*e.Longitude) || math.IsInf(*e.Longitude, 0) {
		return false
	}
	return true
}

// Float64Ptr is a convenience for building optional coordinates.
func Float64Ptr(v float64) *float64 { return &v }
