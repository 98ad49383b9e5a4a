package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

// EventFilter specifies criteria for listing stored events.
type EventFilter struct {
	Source   string    `json:"source,omitempty"`
	Category string    `json:"category,omitempty"`
	Country  string    `json:"country,omitempty"` // substring match on country name
	Year     int       `json:"year,omitempty"`
	Since    time.Time `json:"since,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for normalized hazard events.
// Events are upserted by (source, id); a fresh fetch cycle replaces earlier
// rows rather than mutating them.
type Store interface {
	UpsertEvents(ctx context.Context, events []hazard.Event) (int, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]hazard.Event, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the given driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
