package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// EstimateNow interpolates the predicted water level at now and nudges it
// by the latest residual when one is available. The estimate is strictly
// an interpolation: when now falls outside the span of valued prediction
// points there is no estimate, never an extrapolated one. When now lands
// exactly on a point the point's value is used directly.
//
// ResidualApplied distinguishes a corrected estimate from a
// prediction-only one so the caller can label the latter.
func EstimateNow(predictions []models.Point, now time.Time, residual models.ResidualState) (models.NowEstimate, bool) {
	points := valuedPoints(predictions)
	if len(points) == 0 {
		return models.NowEstimate{}, false
	}
	if now.Before(points[0].Time) || now.After(points[len(points)-1].Time) {
		return models.NowEstimate{}, false
	}

	predicted, ok := interpolateAt(points, now)
	if !ok {
		return models.NowEstimate{}, false
	}

	est := models.NowEstimate{
		Time:      now,
		Predicted: predicted,
		Estimated: predicted,
	}
	if residual.Available {
		est.Estimated = predicted + residual.Value
		est.ResidualApplied = true
	}
	return est, true
}

// interpolateAt assumes points are valued and sorted by time, with now
// inside their span.
func interpolateAt(points []models.Point, now time.Time) (float64, bool) {
	for i, p := range points {
		if p.Time.Equal(now) {
			return *p.Value, true
		}
		if p.Time.After(now) {
			if i == 0 {
				return 0, false
			}
			prev := points[i-1]
			span := p.Time.Sub(prev.Time).Seconds()
			if span <= 0 {
				return *prev.Value, true
			}
			frac := now.Sub(prev.Time).Seconds() / span
			return *prev.Value + (*p.Value-*prev.Value)*frac, true
		}
	}
	return 0, false
}
