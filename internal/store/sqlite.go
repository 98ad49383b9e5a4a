package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Hanoi896/risk-map/internal/hazard"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS events (
	source      TEXT NOT NULL,
	id          TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	date        TEXT,                -- ISO 8601 UTC; NULL when the source had none
	latitude    REAL,
	longitude   REAL,
	link        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	alert_level TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (source, id)
);

CREATE INDEX IF NOT EXISTS idx_events_date_category ON events(date, category);
CREATE INDEX IF NOT EXISTS idx_events_country ON events(country);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertEvents(ctx context.Context, events []hazard.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (source, id, title, category, date, latitude, longitude, link, description, country, alert_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			date = excluded.date,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			link = excluded.link,
			description = excluded.description,
			country = excluded.country,
			alert_level = excluded.alert_level,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	count := 0
	for _, ev := range events {
		var date any
		if !ev.Date.IsZero() {
			date = ev.Date.UTC().Format(time.RFC3339)
		}
		var lat, lon any
		if ev.Latitude != nil {
			lat = *ev.Latitude
		}
		if ev.Longitude != nil {
			lon = *ev.Longitude
		}
		if _, err := stmt.ExecContext(ctx,
			ev.Source, ev.ID, ev.Title, ev.Category, date, lat, lon,
			ev.Link, ev.Description, ev.Country, ev.AlertLevel, now,
		); err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert event %s/%s", ev.Source, ev.ID)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return count, nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]hazard.Event, error) {
	query := `SELECT source, id, title, category, date, latitude, longitude, link, description, country, alert_level FROM events WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Country != "" {
		query += ` AND country LIKE ?`
		args = append(args, "%"+filter.Country+"%")
	}
	if filter.Year != 0 {
		query += ` AND strftime('%Y', date) = ?`
		args = append(args, strconv.Itoa(filter.Year))
	}
	if !filter.Since.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	// Recent events first; limit guards against unbounded result sets.
	query += ` ORDER BY date DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []hazard.Event
	for rows.Next() {
		var ev hazard.Event
		var date sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(
			&ev.Source, &ev.ID, &ev.Title, &ev.Category, &date, &lat, &lon,
			&ev.Link, &ev.Description, &ev.Country, &ev.AlertLevel,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		if date.Valid && date.String != "" {
			t, err := time.Parse(time.RFC3339, date.String)
			if err == nil {
				ev.Date = t.UTC()
			}
		}
		if lat.Valid {
			ev.Latitude = hazard.Float64Ptr(lat.Float64)
		}
		if lon.Valid {
			ev.Longitude = hazard.Float64Ptr(lon.Float64)
		}
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}
