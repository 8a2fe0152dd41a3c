package store

import (
	"database/sql"
	"time"
)

// IngestRun represents a single feed fetch for auditing.
type IngestRun struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Feed              string
	Generation        int64
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	PointsParsed      sql.NullInt64
	PointsSkipped     sql.NullInt64
	RecordsStored     sql.NullInt64
	Success           bool
	ErrorMessage      sql.NullString
	QualityFlags      sql.NullString
}

// StartIngestRun creates a new ingest run record and returns it.
func (s *Store) StartIngestRun(feed string, generation uint64) (*IngestRun, error) {
	run := &IngestRun{
		StartedAt:  time.Now().UTC(),
		Feed:       feed,
		Generation: int64(generation),
	}

	result, err := s.db.Exec(`
		INSERT INTO ingest_runs (started_at, feed, generation, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Feed, run.Generation)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteIngestRun updates the ingest run with results.
func (s *Store) CompleteIngestRun(run *IngestRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE ingest_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			points_parsed = ?,
			points_skipped = ?,
			records_stored = ?,
			success = ?,
			error_message = ?,
			quality_flags = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.PointsParsed,
		run.PointsSkipped, run.RecordsStored, run.Success, run.ErrorMessage,
		run.QualityFlags, run.ID)
	return err
}

// FeedHealth summarizes recent ingest runs for one feed.
type FeedHealth struct {
	Feed        string       `json:"feed"`
	TotalRuns   int          `json:"total_runs"`
	FailedRuns  int          `json:"failed_runs"`
	LastSuccess sql.NullTime `json:"last_success"`
	LastError   string       `json:"last_error,omitempty"`
}

// GetFeedHealth reports per-feed ingest health since the cutoff. Feeds
// with no runs in the window do not appear.
func (s *Store) GetFeedHealth(since time.Time) ([]FeedHealth, error) {
	rows, err := s.db.Query(`
		SELECT
			feed,
			COUNT(*),
			SUM(CASE WHEN success THEN 0 ELSE 1 END)
		FROM ingest_runs
		WHERE started_at >= ?
		GROUP BY feed
		ORDER BY feed
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var health []FeedHealth
	for rows.Next() {
		var h FeedHealth
		if err := rows.Scan(&h.Feed, &h.TotalRuns, &h.FailedRuns); err != nil {
			return nil, err
		}
		health = append(health, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Aggregating finished_at would lose the column's declared type and
	// with it the driver's datetime decoding, so the latest timestamps
	// come from direct column reads per feed.
	for i := range health {
		err := s.db.QueryRow(`
			SELECT finished_at FROM ingest_runs
			WHERE feed = ? AND success AND started_at >= ?
			ORDER BY started_at DESC LIMIT 1
		`, health[i].Feed, since.UTC()).Scan(&health[i].LastSuccess)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}

		if health[i].FailedRuns == 0 {
			continue
		}
		var msg sql.NullString
		err = s.db.QueryRow(`
			SELECT error_message FROM ingest_runs
			WHERE feed = ? AND NOT success AND started_at >= ?
			ORDER BY started_at DESC LIMIT 1
		`, health[i].Feed, since.UTC()).Scan(&msg)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		if msg.Valid {
			health[i].LastError = msg.String
		}
	}

	return health, nil
}
