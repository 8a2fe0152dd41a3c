package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// MatchTolerance is the widest timestamp gap two series points may have
// and still be treated as simultaneous. Observations arrive on their own
// clock, so cross-series pairing is nearest-within-tolerance rather than
// exact.
const MatchTolerance = 5 * time.Minute

// MatchNearest finds the candidate closest in time to target, as long as
// the gap is within tolerance. Candidates without a value cannot satisfy a
// lookup and are skipped. When two candidates are equally close, the one
// encountered first in the input wins, so the result is stable for
// unsorted input. The second return is false when nothing qualifies.
func MatchNearest(candidates []models.Point, target time.Time, tolerance time.Duration) (models.Point, bool) {
	var (
		best     models.Point
		bestDiff time.Duration
		found    bool
	)
	for _, c := range candidates {
		if c.Value == nil {
			continue
		}
		diff := c.Time.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		if !found || diff < bestDiff {
			best = c
			bestDiff = diff
			found = true
		}
	}
	return best, found
}

// exactIndex builds a lookup of series values keyed by Unix timestamp.
// Gap points are omitted; duplicate timestamps keep the first value seen.
func exactIndex(series []models.Point) map[int64]float64 {
	idx := make(map[int64]float64, len(series))
	for _, p := range series {
		if p.Value == nil {
			continue
		}
		key := p.Time.Unix()
		if _, ok := idx[key]; !ok {
			idx[key] = *p.Value
		}
	}
	return idx
}
