package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// CalibrationResult is the output of applying a station's datum offsets.
// Both series are sorted by time. Calibrated is false when the offsets
// series was missing and the raw series passed through unadjusted; callers
// surface that to the UI instead of silently presenting raw data as
// calibrated.
type CalibrationResult struct {
	Method       models.CalibrationMethod
	Predictions  []models.Point
	Observations []models.Point
	Calibrated   bool
}

// Calibrate applies the station's geodetic offsets to whichever series its
// method names. Offsets are additive. Under CALIBRATE_OBSERVATION each
// observation takes the offset matched within tolerance of its own
// timestamp; under CALIBRATE_PREDICTION each prediction takes the offset
// at exactly its timestamp, because predictions and offsets are generated
// on the same grid upstream. A valued point with no usable offset is
// dropped rather than passed through half-adjusted; gap points are kept
// as-is so charts still show the break.
func Calibrate(method models.CalibrationMethod, predictions, observations, offsets []models.Point, tolerance time.Duration) CalibrationResult {
	res := CalibrationResult{
		Method:       method,
		Predictions:  sortedCopy(predictions),
		Observations: sortedCopy(observations),
		Calibrated:   true,
	}

	if method == models.CalibrationNone {
		return res
	}

	if len(offsets) == 0 {
		res.Calibrated = false
		return res
	}

	switch method {
	case models.CalibrationObservation:
		res.Observations = applyMatchedOffsets(res.Observations, offsets, tolerance)
	case models.CalibrationPrediction:
		res.Predictions = applyExactOffsets(res.Predictions, offsets)
	}
	return res
}

func applyMatchedOffsets(series, offsets []models.Point, tolerance time.Duration) []models.Point {
	out := make([]models.Point, 0, len(series))
	for _, p := range series {
		if p.Value == nil {
			out = append(out, p)
			continue
		}
		off, ok := MatchNearest(offsets, p.Time, tolerance)
		if !ok {
			continue
		}
		out = append(out, models.Point{Time: p.Time, Value: models.Float(*p.Value + *off.Value)})
	}
	return out
}

func applyExactOffsets(series, offsets []models.Point) []models.Point {
	idx := exactIndex(offsets)
	out := make([]models.Point, 0, len(series))
	for _, p := range series {
		if p.Value == nil {
			out = append(out, p)
			continue
		}
		off, ok := idx[p.Time.Unix()]
		if !ok {
			continue
		}
		out = append(out, models.Point{Time: p.Time, Value: models.Float(*p.Value + off)})
	}
	return out
}
