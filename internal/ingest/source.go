// Package ingest pulls natural-hazard events from the upstream feeds and
// normalizes them into the shared event model.
package ingest

import (
	"context"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

// Source fetches events from one upstream feed.
type Source interface {
	// Name returns the source identifier stored on each event (e.g. "eonet").
	Name() string

	// Fetch retrieves and normalizes the feed's current events. A feed that
	// has nothing new returns an empty slice and no error.
	Fetch(ctx context.Context) ([]hazard.Event, error)
}
