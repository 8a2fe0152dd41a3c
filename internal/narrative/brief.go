// Package narrative turns the combined water level forecast into a short
// plain-language outlook. The data brief is assembled deterministically
// here; an optional OpenAI pass rewrites it for the dashboard.
package narrative

import (
	"fmt"
	"strings"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// briefWindow bounds how far ahead the outlook looks.
const briefWindow = 48 * time.Hour

// BuildBrief summarizes the next 48 hours of combined forecast into one
// factual line per station. Totals are only quoted for chart datum
// stations; geodetic stations get surge only, since their totals are not
// comparable to the tide tables readers know.
func BuildBrief(combined map[string][]models.CombinedPoint, stations []models.Station, now time.Time, loc *time.Location) string {
	end := now.Add(briefWindow)

	var lines []string
	for _, st := range stations {
		points := combined[st.Key]
		if len(points) == 0 {
			continue
		}

		peakSurge, surgeAt, ok := peakValue(points, now, end, func(p models.CombinedPoint) *float64 { return p.StormSurge })
		if !ok {
			continue
		}

		name := st.Name
		if name == "" {
			name = st.Key
		}

		line := fmt.Sprintf("%s: peak surge %.2f m at %s", name, peakSurge, surgeAt.In(loc).Format("Mon 15:04 MST"))
		if st.Datum == models.DatumChartDatum {
			if peakTotal, totalAt, ok := peakValue(points, now, end, func(p models.CombinedPoint) *float64 { return p.TotalWaterLevel }); ok {
				line += fmt.Sprintf("; peak total water %.2f m at %s", peakTotal, totalAt.In(loc).Format("Mon 15:04 MST"))
			}
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return "No combined water level forecast is available right now."
	}
	return "Water level outlook for the next 48 hours:\n" + strings.Join(lines, "\n")
}

// peakValue finds the maximum of one combined field inside [from, to],
// skipping gaps. The third return is false when no usable point exists.
func peakValue(points []models.CombinedPoint, from, to time.Time, field func(models.CombinedPoint) *float64) (float64, time.Time, bool) {
	var (
		best   float64
		bestAt time.Time
		found  bool
	)
	for _, p := range points {
		if p.Time.Before(from) || !p.Time.Before(to) {
			continue
		}
		v := field(p)
		if v == nil {
			continue
		}
		if !found || *v > best {
			best = *v
			bestAt = p.Time
			found = true
		}
	}
	return best, bestAt, found
}
