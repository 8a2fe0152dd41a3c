package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// ComputeResiduals pairs each valued observation with the prediction
// nearest its timestamp within tolerance and emits the differences, sorted
// by time. Observations with no prediction inside the tolerance are
// excluded; a residual is never synthesized from a mismatched pair. Both
// inputs are expected to be post-calibration series, so the last element
// is the freshest measure of how far the model is off right now.
func ComputeResiduals(observations, predictions []models.Point, tolerance time.Duration) []models.Residual {
	var out []models.Residual
	for _, obs := range valuedPoints(observations) {
		pred, ok := MatchNearest(predictions, obs.Time, tolerance)
		if !ok {
			continue
		}
		out = append(out, models.Residual{Time: obs.Time, Value: *obs.Value - *pred.Value})
	}
	return out
}

// LatestResidual reduces a residual series to its most recent element.
// An empty series yields the unavailable state.
func LatestResidual(residuals []models.Residual) models.ResidualState {
	if len(residuals) == 0 {
		return models.ResidualState{}
	}
	last := residuals[len(residuals)-1]
	return models.ResidualState{Available: true, Value: last.Value, Time: last.Time}
}
