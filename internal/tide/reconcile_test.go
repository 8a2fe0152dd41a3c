package tide

import (
	"testing"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

func testReconciler(t *testing.T) Reconciler {
	t.Helper()
	return NewReconciler(pacificLocation(t))
}

func TestReconcile_CalibrateObservationStation(t *testing.T) {
	r := testReconciler(t)
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{
		Key:    "crescent_channel_ocean",
		Datum:  models.DatumGeodeticCGVD28,
		Method: models.MethodForStation("crescent_channel_ocean"),
	}
	if station.Method != models.CalibrationObservation {
		t.Fatalf("Method = %v, want CALIBRATE_OBSERVATION", station.Method)
	}

	model := r.Reconcile(station, StationSeries{
		Predictions:  []models.Point{pt(base, 2.30)},
		Observations: []models.Point{pt(base, 2.10)},
		Offsets:      []models.Point{pt(base, 0.34)},
	})

	if !model.Calibrated {
		t.Fatal("Calibrated = false, want true")
	}
	if got := *model.Observations[0].Value; !almostEqual(got, 2.44) {
		t.Errorf("calibrated observation = %v, want 2.44", got)
	}
	if len(model.Residuals) != 1 {
		t.Fatalf("len(Residuals) = %d, want 1", len(model.Residuals))
	}
	if got := model.Residuals[0].Value; !almostEqual(got, 0.14) {
		t.Errorf("residual = %v, want 0.14", got)
	}
	if model.ResidualKind != models.ResidualCalibration {
		t.Errorf("ResidualKind = %v, want calibration", model.ResidualKind)
	}
	if !model.LastResidual.Available {
		t.Error("LastResidual.Available = false, want true")
	}
}

func TestReconcile_CalibratePredictionStation(t *testing.T) {
	r := testReconciler(t)
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{
		Key:    "crescent_beach_ocean",
		Datum:  models.DatumGeodeticCGVD28,
		Method: models.MethodForStation("crescent_beach_ocean"),
	}
	if station.Method != models.CalibrationPrediction {
		t.Fatalf("Method = %v, want CALIBRATE_PREDICTION", station.Method)
	}

	model := r.Reconcile(station, StationSeries{
		Predictions:  []models.Point{pt(base, 2.00)},
		Observations: []models.Point{pt(base.Add(time.Minute), 2.60)},
		Offsets:      []models.Point{pt(base, 0.50)},
	})

	if got := *model.Predictions[0].Value; !almostEqual(got, 2.50) {
		t.Errorf("calibrated prediction = %v, want 2.50", got)
	}
	if got := *model.Observations[0].Value; got != 2.60 {
		t.Errorf("observation = %v, want 2.60 untouched", got)
	}
	if len(model.Residuals) != 1 {
		t.Fatalf("len(Residuals) = %d, want 1", len(model.Residuals))
	}
	if got := model.Residuals[0].Value; !almostEqual(got, 0.10) {
		t.Errorf("residual = %v, want 0.10", got)
	}
}

func TestReconcile_ModelSkillForChartDatum(t *testing.T) {
	r := testReconciler(t)
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{
		Key:    "white_rock_pier",
		Datum:  models.DatumChartDatum,
		Method: models.MethodForStation("white_rock_pier"),
	}
	if station.Method != models.CalibrationNone {
		t.Fatalf("Method = %v, want NONE", station.Method)
	}

	model := r.Reconcile(station, StationSeries{
		Predictions:  []models.Point{pt(base, 3.00)},
		Observations: []models.Point{pt(base, 3.12)},
	})

	if model.ResidualKind != models.ResidualModelSkill {
		t.Errorf("ResidualKind = %v, want model_skill", model.ResidualKind)
	}
	if len(model.Residuals) != 1 {
		t.Fatalf("len(Residuals) = %d, want 1", len(model.Residuals))
	}
	if got := model.Residuals[0].Value; !almostEqual(got, 0.12) {
		t.Errorf("residual = %v, want 0.12", got)
	}
}

func TestReconcile_UncalibratedPassthrough(t *testing.T) {
	r := testReconciler(t)
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{
		Key:    "crescent_channel_ocean",
		Datum:  models.DatumGeodeticCGVD28,
		Method: models.CalibrationObservation,
	}

	model := r.Reconcile(station, StationSeries{
		Predictions:  []models.Point{pt(base, 2.30)},
		Observations: []models.Point{pt(base, 2.10)},
	})

	if model.Calibrated {
		t.Error("Calibrated = true, want false without offsets")
	}
	if got := *model.Observations[0].Value; got != 2.10 {
		t.Errorf("observation = %v, want raw 2.10", got)
	}
	if len(model.Residuals) != 0 {
		t.Errorf("len(Residuals) = %d, want 0 (datum mismatch)", len(model.Residuals))
	}
	if model.LastResidual.Available {
		t.Error("LastResidual.Available = true, want false")
	}
}

func TestReconcile_PredictionOnlyStation(t *testing.T) {
	r := testReconciler(t)
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{Key: "boundary_bay", Datum: models.DatumChartDatum, Method: models.CalibrationNone}

	model := r.Reconcile(station, StationSeries{
		Predictions: []models.Point{pt(base, 3.00)},
	})

	if len(model.Residuals) != 0 {
		t.Errorf("len(Residuals) = %d, want 0", len(model.Residuals))
	}
	if model.LastResidual.Available {
		t.Error("LastResidual.Available = true, want false")
	}
	if model.ResidualKind != "" {
		t.Errorf("ResidualKind = %v, want empty", model.ResidualKind)
	}
}

func TestReconciler_Now(t *testing.T) {
	r := testReconciler(t)
	t0 := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	station := models.Station{Key: "white_rock_pier", Datum: models.DatumChartDatum, Method: models.CalibrationNone}
	model := r.Reconcile(station, StationSeries{
		Predictions:  []models.Point{pt(t0, 1.0), pt(t0.Add(time.Hour), 1.5)},
		Observations: []models.Point{pt(t0, 1.14)},
	})

	est, ok := r.Now(model, t0.Add(30*time.Minute))
	if !ok {
		t.Fatal("expected an estimate")
	}
	if !almostEqual(est.Predicted, 1.25) {
		t.Errorf("Predicted = %v, want 1.25", est.Predicted)
	}
	// The model-skill residual (0.14) is carried into the estimate.
	if !almostEqual(est.Estimated, 1.39) {
		t.Errorf("Estimated = %v, want 1.39", est.Estimated)
	}
	if !est.ResidualApplied {
		t.Error("ResidualApplied = false, want true")
	}
}
