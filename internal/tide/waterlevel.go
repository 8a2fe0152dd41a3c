package tide

import (
	"sort"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// GateCombined applies the datum policy to a station's combined forecast.
// Total water level is the sum of a chart-datum tide and a surge anomaly,
// so it is only meaningful for chart-datum stations; for geodetic stations
// the total is stripped even when the feed carried one. Astronomical tide
// and surge components always pass through. The result is a sorted copy;
// the input is not mutated.
func GateCombined(station models.Station, points []models.CombinedPoint) []models.CombinedPoint {
	out := make([]models.CombinedPoint, len(points))
	copy(out, points)
	if station.Datum.IsGeodetic() {
		for i := range out {
			out[i].TotalWaterLevel = nil
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
