package tide

import (
	"sort"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

func sortPointsByTime(points []models.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
}

// sortedCopy returns series sorted by time without touching the input.
func sortedCopy(series []models.Point) []models.Point {
	out := make([]models.Point, len(series))
	copy(out, series)
	sortPointsByTime(out)
	return out
}

// valuedPoints returns the points of series that carry a value, sorted by
// time. Gap points are dropped.
func valuedPoints(series []models.Point) []models.Point {
	var out []models.Point
	for _, p := range series {
		if p.Value != nil {
			out = append(out, p)
		}
	}
	sortPointsByTime(out)
	return out
}
