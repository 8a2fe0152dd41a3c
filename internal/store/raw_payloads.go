package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// StoreRawPayload archives one fetched feed document, gzip compressed.
// Tide feeds mostly repeat between polls, so payloads are deduplicated by
// content hash; a duplicate returns ID 0 and stores nothing.
func (s *Store) StoreRawPayload(runID int64, feed string, body []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(body); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(body)
	hashHex := hex.EncodeToString(hash[:])

	var ingestRunID sql.NullInt64
	if runID > 0 {
		ingestRunID = sql.NullInt64{Int64: runID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO raw_payloads (ingest_run_id, fetched_at, feed, body_compressed, body_hash, body_size)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(body_hash) DO NOTHING
	`, ingestRunID, time.Now().UTC(), feed, buf.Bytes(), hashHex, len(body))
	if err != nil {
		return 0, fmt.Errorf("insert raw payload: %w", err)
	}

	// A skipped conflict leaves last_insert_rowid pointing at the previous
	// insert, so the duplicate check goes through the affected row count.
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// LatestRawPayload returns the most recently stored document for a feed,
// decompressed, with its fetch time. Returns nil when the feed has never
// been archived.
func (s *Store) LatestRawPayload(feed string) ([]byte, time.Time, error) {
	var compressed []byte
	var fetchedAt time.Time
	err := s.db.QueryRow(`
		SELECT body_compressed, fetched_at
		FROM raw_payloads
		WHERE feed = ?
		ORDER BY fetched_at DESC
		LIMIT 1
	`, feed).Scan(&compressed, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	body, err := io.ReadAll(gz)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decompress payload: %w", err)
	}
	return body, fetchedAt.UTC(), nil
}
