package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// StationSeries is the raw per-station input pulled from one tide feed
// document. Any series may be empty; none are assumed sorted.
type StationSeries struct {
	Predictions  []models.Point
	Observations []models.Point
	Offsets      []models.Point
}

// Reconciler carries the fixed parameters of a reconciliation pass. It is
// immutable and safe to share; every output is freshly allocated, so two
// concurrent passes never touch the same state.
type Reconciler struct {
	Tolerance time.Duration
	Location  *time.Location
}

// NewReconciler returns a Reconciler with the standard match tolerance.
func NewReconciler(loc *time.Location) Reconciler {
	return Reconciler{Tolerance: MatchTolerance, Location: loc}
}

// Reconcile runs the full per-station pipeline: calibrate the series the
// station's method names, derive the residual series, and capture the
// latest residual. Geodetic stations that arrive without offsets pass
// through uncalibrated with no residuals, because a raw CGVD28 observation
// minus a chart-datum prediction is a datum mismatch, not an error signal.
// Chart-datum stations that report observations get the plain
// observation-minus-prediction series as model skill.
func (r Reconciler) Reconcile(station models.Station, series StationSeries) models.StationModel {
	cal := Calibrate(station.Method, series.Predictions, series.Observations, series.Offsets, r.Tolerance)

	model := models.StationModel{
		Station:      station,
		Predictions:  cal.Predictions,
		Observations: cal.Observations,
		Calibrated:   cal.Calibrated,
	}

	switch {
	case station.Method != models.CalibrationNone && cal.Calibrated:
		model.Residuals = ComputeResiduals(cal.Observations, cal.Predictions, r.Tolerance)
		model.ResidualKind = models.ResidualCalibration
	case station.Method == models.CalibrationNone && len(series.Observations) > 0 && len(series.Predictions) > 0:
		model.Residuals = ComputeResiduals(cal.Observations, cal.Predictions, r.Tolerance)
		model.ResidualKind = models.ResidualModelSkill
	}

	model.LastResidual = LatestResidual(model.Residuals)
	return model
}

// Now estimates the water level for model at now, feeding the model's
// latest residual into the interpolation.
func (r Reconciler) Now(model models.StationModel, now time.Time) (models.NowEstimate, bool) {
	return EstimateNow(model.Predictions, now, model.LastResidual)
}
