package store

import (
	"database/sql"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

// hindcastBuckets group forecast points by how far ahead they were
// issued, in hours.
var hindcastBuckets = []struct{ Lo, Hi int }{
	{0, 6},
	{6, 12},
	{12, 24},
	{24, 48},
}

// HindcastStat is forecast error over one lead time bucket.
type HindcastStat struct {
	LeadHoursFrom int     `json:"lead_hours_from"`
	LeadHoursTo   int     `json:"lead_hours_to"`
	Samples       int     `json:"samples"`
	MeanBias      float64 `json:"mean_bias_m"`
	MAE           float64 `json:"mae_m"`
}

// Hindcast scores archived total water level forecasts against the
// reconciled observations that later arrived, bucketed by lead time.
// Bias is forecast minus observed. Totals are chart datum values, so
// geodetic stations are not scorable and return nil.
func (s *Store) Hindcast(stationKey string, since time.Time) ([]HindcastStat, error) {
	var datum string
	err := s.db.QueryRow(`SELECT datum FROM stations WHERE station_key = ?`, stationKey).Scan(&datum)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if models.Datum(datum) != models.DatumChartDatum {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT fetched_at, valid_at, total_m
		FROM surge_forecasts
		WHERE station_key = ? AND valid_at >= ? AND total_m IS NOT NULL
		ORDER BY valid_at
	`, stationKey, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type sample struct {
		fetchedAt time.Time
		validAt   time.Time
		total     float64
	}
	var samples []sample
	for rows.Next() {
		var f sample
		if err := rows.Scan(&f.fetchedAt, &f.validAt, &f.total); err != nil {
			return nil, err
		}
		samples = append(samples, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	levels, err := s.WaterLevelsSince(stationKey, since)
	if err != nil {
		return nil, err
	}

	type acc struct {
		n      int
		sum    float64
		absSum float64
	}
	accs := make([]acc, len(hindcastBuckets))

	for _, f := range samples {
		obs, ok := tide.MatchNearest(levels, f.validAt, tide.MatchTolerance)
		if !ok || obs.Value == nil {
			continue
		}
		b := bucketFor(f.validAt.Sub(f.fetchedAt))
		if b < 0 {
			continue
		}
		diff := f.total - *obs.Value
		accs[b].n++
		accs[b].sum += diff
		if diff < 0 {
			accs[b].absSum -= diff
		} else {
			accs[b].absSum += diff
		}
	}

	stats := make([]HindcastStat, len(hindcastBuckets))
	for i, bucket := range hindcastBuckets {
		stats[i] = HindcastStat{LeadHoursFrom: bucket.Lo, LeadHoursTo: bucket.Hi}
		if accs[i].n == 0 {
			continue
		}
		stats[i].Samples = accs[i].n
		stats[i].MeanBias = accs[i].sum / float64(accs[i].n)
		stats[i].MAE = accs[i].absSum / float64(accs[i].n)
	}
	return stats, nil
}

func bucketFor(lead time.Duration) int {
	hours := lead.Hours()
	for i, b := range hindcastBuckets {
		if hours >= float64(b.Lo) && hours < float64(b.Hi) {
			return i
		}
	}
	return -1
}
