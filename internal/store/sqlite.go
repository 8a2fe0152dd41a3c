// Package store is the SQLite archive behind the in-memory snapshots. It
// keeps a rolling window of reconciled water levels, residuals, and surge
// forecasts so the dashboard can answer "how did the model do" questions
// that a snapshot alone cannot.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}

func (s *Store) UpsertStations(stations []models.Station) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stations (station_key, name, latitude, longitude, datum, method, has_observations)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_key) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			datum = excluded.datum,
			method = excluded.method,
			has_observations = excluded.has_observations
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range stations {
		if _, err := stmt.Exec(st.Key, st.Name, st.Latitude, st.Longitude, string(st.Datum), string(st.Method), st.HasObservations); err != nil {
			return fmt.Errorf("upsert station %s: %w", st.Key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetStations() ([]models.Station, error) {
	rows, err := s.db.Query(`SELECT station_key, name, latitude, longitude, datum, method, has_observations FROM stations ORDER BY station_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		var datum, method string
		if err := rows.Scan(&st.Key, &st.Name, &st.Latitude, &st.Longitude, &datum, &method, &st.HasObservations); err != nil {
			return nil, err
		}
		st.Datum = models.Datum(datum)
		st.Method = models.CalibrationMethod(method)
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// InsertWaterLevels archives one station's reconciled observations. Gap
// points are skipped; re-inserting an already archived timestamp is a
// no-op, which is how successive five minute refreshes dedup.
func (s *Store) InsertWaterLevels(stationKey string, points []models.Point) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO water_levels (station_key, observed_at, level_m)
		VALUES (?, ?, ?)
		ON CONFLICT(station_key, observed_at) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		res, err := stmt.Exec(stationKey, p.Time.UTC(), *p.Value)
		if err != nil {
			return inserted, fmt.Errorf("insert water level: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) WaterLevelsSince(stationKey string, since time.Time) ([]models.Point, error) {
	rows, err := s.db.Query(`
		SELECT observed_at, level_m
		FROM water_levels
		WHERE station_key = ? AND observed_at >= ?
		ORDER BY observed_at
	`, stationKey, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var at time.Time
		var level float64
		if err := rows.Scan(&at, &level); err != nil {
			return nil, err
		}
		points = append(points, models.Point{Time: at.UTC(), Value: models.Float(level)})
	}
	return points, rows.Err()
}

func (s *Store) InsertResiduals(stationKey string, residuals []models.Residual, kind string) (int, error) {
	if len(residuals) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO residuals (station_key, observed_at, residual_m, kind)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(station_key, observed_at) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range residuals {
		res, err := stmt.Exec(stationKey, r.Time.UTC(), r.Value, kind)
		if err != nil {
			return inserted, fmt.Errorf("insert residual: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SkillSummary aggregates archived residuals for one station.
type SkillSummary struct {
	Station  string  `json:"station"`
	Kind     string  `json:"kind"`
	Samples  int     `json:"samples"`
	MeanBias float64 `json:"mean_bias_m"`
	MAE      float64 `json:"mae_m"`
}

// ResidualSummary reports bias and absolute error of archived residuals
// since the cutoff. A station with no archived residuals returns nil.
func (s *Store) ResidualSummary(stationKey string, since time.Time) (*SkillSummary, error) {
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(AVG(residual_m), 0), COALESCE(AVG(ABS(residual_m)), 0), COALESCE(MAX(kind), '')
		FROM residuals
		WHERE station_key = ? AND observed_at >= ?
	`, stationKey, since.UTC())

	summary := SkillSummary{Station: stationKey}
	if err := row.Scan(&summary.Samples, &summary.MeanBias, &summary.MAE, &summary.Kind); err != nil {
		return nil, err
	}
	if summary.Samples == 0 {
		return nil, nil
	}
	return &summary, nil
}

// Prune drops archive rows older than the retention window.
func (s *Store) Prune(retention time.Duration) error {
	cutoff := time.Now().UTC().Add(-retention)

	for _, q := range []string{
		`DELETE FROM water_levels WHERE observed_at < ?`,
		`DELETE FROM residuals WHERE observed_at < ?`,
		`DELETE FROM surge_forecasts WHERE valid_at < ?`,
		`DELETE FROM ingest_runs WHERE started_at < ?`,
		`DELETE FROM raw_payloads WHERE fetched_at < ?`,
	} {
		if _, err := s.db.Exec(q, cutoff); err != nil {
			return fmt.Errorf("prune: %w", err)
		}
	}
	return nil
}
