package store

import (
	"fmt"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// InsertSurgeForecasts archives one combined water level fetch, keyed by
// fetch time so later hindcasts can ask how far ahead each point was
// issued. Values are stored as the feed published them.
func (s *Store) InsertSurgeForecasts(fetchedAt time.Time, combined map[string][]models.CombinedPoint) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO surge_forecasts (station_key, fetched_at, valid_at, tide_m, surge_m, total_m)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_key, fetched_at, valid_at) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for key, points := range combined {
		for _, p := range points {
			res, err := stmt.Exec(key, fetchedAt.UTC(), p.Time.UTC(), p.AstronomicalTide, p.StormSurge, p.TotalWaterLevel)
			if err != nil {
				return inserted, fmt.Errorf("insert surge forecast %s: %w", key, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}
