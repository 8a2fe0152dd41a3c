package ingest

import (
	"encoding/json"
	"math"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

const (
	FlagLevelOutOfRange = "level_out_of_range"
	FlagOffsetUnlikely  = "offset_unlikely"
	FlagSurgeUnlikely   = "surge_unlikely"
	FlagTotalMismatch   = "total_mismatch"
)

// Plausibility bounds for the BC south coast, in metres. Wide enough that
// any real storm stays inside them; a breach means a corrupt feed, not
// weather.
const (
	minPlausibleLevel  = -5.0
	maxPlausibleLevel  = 12.0
	maxOffsetMagnitude = 6.0
	maxSurgeMagnitude  = 3.0
	totalTolerance     = 0.02
)

// ValidateSeries runs plausibility checks over one station's raw series.
// Each flag appears at most once regardless of how many points breach it.
func ValidateSeries(series tide.StationSeries) []string {
	var flags []string

	if levelOutOfRange(series.Predictions) || levelOutOfRange(series.Observations) {
		flags = append(flags, FlagLevelOutOfRange)
	}

	for _, p := range series.Offsets {
		if p.Value != nil && math.Abs(*p.Value) > maxOffsetMagnitude {
			flags = append(flags, FlagOffsetUnlikely)
			break
		}
	}

	return flags
}

// ValidateCombined checks the combined water level forecast: surge magnitude
// and the publisher's own arithmetic. Totals are summed upstream, so a total
// that disagrees with tide + surge beyond rounding is a corrupt document.
func ValidateCombined(points []models.CombinedPoint) []string {
	var flags []string

	surgeFlagged := false
	totalFlagged := false
	for _, p := range points {
		if !surgeFlagged && p.StormSurge != nil && math.Abs(*p.StormSurge) > maxSurgeMagnitude {
			flags = append(flags, FlagSurgeUnlikely)
			surgeFlagged = true
		}
		if !totalFlagged && p.AstronomicalTide != nil && p.StormSurge != nil && p.TotalWaterLevel != nil {
			if math.Abs(*p.TotalWaterLevel-(*p.AstronomicalTide+*p.StormSurge)) > totalTolerance {
				flags = append(flags, FlagTotalMismatch)
				totalFlagged = true
			}
		}
		if surgeFlagged && totalFlagged {
			break
		}
	}

	return flags
}

func levelOutOfRange(points []models.Point) bool {
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		if *p.Value < minPlausibleLevel || *p.Value > maxPlausibleLevel {
			return true
		}
	}
	return false
}

func QualityFlagsToJSON(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	b, _ := json.Marshal(flags)
	return string(b)
}
