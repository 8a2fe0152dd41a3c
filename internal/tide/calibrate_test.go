package tide

import (
	"testing"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

func TestCalibrate_NoneIsIdentity(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	preds := []models.Point{pt(base, 1.0), pt(base.Add(time.Hour), 1.5)}
	obs := []models.Point{pt(base, 1.1)}
	offsets := []models.Point{pt(base, 0.5)}

	res := Calibrate(models.CalibrationNone, preds, obs, offsets, MatchTolerance)

	if !res.Calibrated {
		t.Error("Calibrated = false, want true")
	}
	if len(res.Predictions) != 2 || len(res.Observations) != 1 {
		t.Fatalf("series lengths = %d/%d, want 2/1", len(res.Predictions), len(res.Observations))
	}
	if *res.Predictions[0].Value != 1.0 || *res.Observations[0].Value != 1.1 {
		t.Error("NONE must not adjust any series")
	}
}

func TestCalibrate_ObservationAppliesMatchedOffset(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	obs := []models.Point{pt(base, 2.10)}
	offsets := []models.Point{pt(base.Add(2*time.Minute), 0.34)}
	preds := []models.Point{pt(base, 2.30)}

	res := Calibrate(models.CalibrationObservation, preds, obs, offsets, MatchTolerance)

	if !res.Calibrated {
		t.Fatal("Calibrated = false, want true")
	}
	if len(res.Observations) != 1 {
		t.Fatalf("len(Observations) = %d, want 1", len(res.Observations))
	}
	if got := *res.Observations[0].Value; !almostEqual(got, 2.44) {
		t.Errorf("calibrated observation = %v, want 2.44", got)
	}
	if got := *res.Predictions[0].Value; got != 2.30 {
		t.Errorf("prediction = %v, want 2.30 untouched", got)
	}
}

func TestCalibrate_ObservationDropsUnmatched(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	obs := []models.Point{
		pt(base, 2.10),
		pt(base.Add(time.Hour), 2.20),
	}
	offsets := []models.Point{pt(base, 0.34)}

	res := Calibrate(models.CalibrationObservation, nil, obs, offsets, MatchTolerance)

	if len(res.Observations) != 1 {
		t.Fatalf("len(Observations) = %d, want 1 (unmatched point dropped)", len(res.Observations))
	}
	if !res.Observations[0].Time.Equal(base) {
		t.Errorf("surviving point time = %v, want %v", res.Observations[0].Time, base)
	}
}

func TestCalibrate_PredictionUsesExactTimestamps(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	preds := []models.Point{
		pt(base, 1.00),
		pt(base.Add(time.Second), 1.10), // one second off the offset grid
	}
	offsets := []models.Point{pt(base, 0.25)}

	res := Calibrate(models.CalibrationPrediction, preds, nil, offsets, MatchTolerance)

	if len(res.Predictions) != 1 {
		t.Fatalf("len(Predictions) = %d, want 1 (near miss is not a match)", len(res.Predictions))
	}
	if got := *res.Predictions[0].Value; !almostEqual(got, 1.25) {
		t.Errorf("calibrated prediction = %v, want 1.25", got)
	}
}

func TestCalibrate_MissingOffsetsPassesThrough(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
	obs := []models.Point{pt(base, 2.10)}

	res := Calibrate(models.CalibrationObservation, nil, obs, nil, MatchTolerance)

	if res.Calibrated {
		t.Error("Calibrated = true, want false when offsets are missing")
	}
	if len(res.Observations) != 1 || *res.Observations[0].Value != 2.10 {
		t.Error("raw observations should pass through unchanged")
	}
}

func TestCalibrate_KeepsGapPoints(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	obs := []models.Point{
		pt(base, 2.10),
		gap(base.Add(10 * time.Minute)),
	}
	offsets := []models.Point{pt(base, 0.34)}

	res := Calibrate(models.CalibrationObservation, nil, obs, offsets, MatchTolerance)

	if len(res.Observations) != 2 {
		t.Fatalf("len(Observations) = %d, want 2 (gap preserved)", len(res.Observations))
	}
	if res.Observations[1].Value != nil {
		t.Error("gap point should keep nil value")
	}
}

func TestCalibrate_SortsUnsortedInput(t *testing.T) {
	base := time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)

	preds := []models.Point{
		pt(base.Add(time.Hour), 1.5),
		pt(base, 1.0),
	}

	res := Calibrate(models.CalibrationNone, preds, nil, nil, MatchTolerance)

	if !res.Predictions[0].Time.Equal(base) {
		t.Errorf("first prediction = %v, want %v (sorted)", res.Predictions[0].Time, base)
	}
	// Input order is untouched.
	if !preds[0].Time.Equal(base.Add(time.Hour)) {
		t.Error("input slice was mutated")
	}
}
