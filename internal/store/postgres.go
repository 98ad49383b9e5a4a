package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Hanoi896/risk-map/internal/db"
	"github.com/Hanoi896/risk-map/internal/hazard"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS events (
	source      TEXT NOT NULL,
	id          TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	date        TIMESTAMPTZ,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	link        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	alert_level TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, id)
);

CREATE INDEX IF NOT EXISTS idx_events_date_category ON events(date, category);
CREATE INDEX IF NOT EXISTS idx_events_country ON events(country);
`

var eventColumns = []string{
	"source", "id", "title", "category", "date",
	"latitude", "longitude", "link", "description", "country", "alert_level", "updated_at",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertEvents(ctx context.Context, events []hazard.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		var date any
		if !ev.Date.IsZero() {
			date = ev.Date.UTC()
		}
		var lat, lon any
		if ev.Latitude != nil {
			lat = *ev.Latitude
		}
		if ev.Longitude != nil {
			lon = *ev.Longitude
		}
		rows = append(rows, []any{
			ev.Source, ev.ID, ev.Title, ev.Category, date,
			lat, lon, ev.Link, ev.Description, ev.Country, ev.AlertLevel, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "events",
		Columns:      eventColumns,
		ConflictKeys: []string{"source", "id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert events")
	}
	return int(n), nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]hazard.Event, error) {
	query := `SELECT source, id, title, category, date, latitude, longitude, link, description, country, alert_level FROM events WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Source != "" {
		query += ` AND source = ` + arg(filter.Source)
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.Country != "" {
		query += ` AND country ILIKE ` + arg("%"+filter.Country+"%")
	}
	if filter.Year != 0 {
		query += ` AND EXTRACT(YEAR FROM date) = ` + arg(filter.Year)
	}
	if !filter.Since.IsZero() {
		query += ` AND date >= ` + arg(filter.Since.UTC())
	}

	query += ` ORDER BY date DESC NULLS LAST`
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ` + arg(limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []hazard.Event
	for rows.Next() {
		var ev hazard.Event
		var date *time.Time
		var lat, lon *float64
		if err := rows.Scan(
			&ev.Source, &ev.ID, &ev.Title, &ev.Category, &date, &lat, &lon,
			&ev.Link, &ev.Description, &ev.Country, &ev.AlertLevel,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		if date != nil {
			ev.Date = date.UTC()
		}
		ev.Latitude = lat
		ev.Longitude = lon
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list events iterate")
	}
	return events, nil
}
