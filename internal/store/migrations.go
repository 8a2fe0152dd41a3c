package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS stations (
    station_key TEXT PRIMARY KEY,
    name TEXT,
    latitude REAL,
    longitude REAL,
    datum TEXT NOT NULL DEFAULT 'CHART_DATUM',
    method TEXT NOT NULL DEFAULT 'NONE',
    has_observations BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS water_levels (
    station_key TEXT NOT NULL,
    observed_at DATETIME NOT NULL,
    level_m REAL NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (station_key, observed_at)
);

CREATE TABLE IF NOT EXISTS residuals (
    station_key TEXT NOT NULL,
    observed_at DATETIME NOT NULL,
    residual_m REAL NOT NULL,
    kind TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (station_key, observed_at)
);

CREATE TABLE IF NOT EXISTS ingest_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    feed TEXT NOT NULL,
    http_status INTEGER,
    response_size_bytes INTEGER,
    points_parsed INTEGER,
    points_skipped INTEGER,
    records_stored INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_water_levels_time ON water_levels(observed_at);
CREATE INDEX IF NOT EXISTS idx_residuals_time ON residuals(observed_at);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_feed ON ingest_runs(feed, started_at);
`,
	},
	{
		Version:     2,
		Description: "Add surge_forecasts table for hindcast comparison",
		SQL: `
CREATE TABLE IF NOT EXISTS surge_forecasts (
    station_key TEXT NOT NULL,
    fetched_at DATETIME NOT NULL,
    valid_at DATETIME NOT NULL,
    tide_m REAL,
    surge_m REAL,
    total_m REAL,
    PRIMARY KEY (station_key, fetched_at, valid_at)
);

CREATE INDEX IF NOT EXISTS idx_surge_forecasts_valid ON surge_forecasts(station_key, valid_at);
`,
	},
	{
		Version:     3,
		Description: "Add snapshot generation and quality flags to ingest_runs",
		SQL: `
ALTER TABLE ingest_runs ADD COLUMN generation INTEGER;
ALTER TABLE ingest_runs ADD COLUMN quality_flags TEXT;
`,
	},
	{
		Version:     4,
		Description: "Archive raw feed documents",
		SQL: `
CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ingest_run_id INTEGER,
    fetched_at DATETIME NOT NULL,
    feed TEXT NOT NULL,
    body_compressed BLOB NOT NULL,
    body_hash TEXT NOT NULL UNIQUE,
    body_size INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_payloads_feed ON raw_payloads(feed, fetched_at);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
