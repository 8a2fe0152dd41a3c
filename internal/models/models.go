package models

import (
	"time"
)

// Datum identifies the vertical reference frame a station reports against.
type Datum string

const (
	DatumChartDatum     Datum = "CHART_DATUM"
	DatumGeodeticCGVD28 Datum = "GEODETIC_CGVD28"
)

// ParseDatum maps a stations-feed datum string to a Datum. Anything other
// than the geodetic marker is treated as chart datum, which keeps the
// combined water level gate conservative only for stations that declare
// GEODETIC_CGVD28.
func ParseDatum(s string) Datum {
	if s == string(DatumGeodeticCGVD28) {
		return DatumGeodeticCGVD28
	}
	return DatumChartDatum
}

// IsGeodetic reports whether the station's values are referenced to CGVD28.
func (d Datum) IsGeodetic() bool {
	return d == DatumGeodeticCGVD28
}

// CalibrationMethod selects which series the geodetic offsets are applied to.
// Exactly one method applies per station and it never changes at runtime.
type CalibrationMethod string

const (
	CalibrationNone        CalibrationMethod = "NONE"
	CalibrationPrediction  CalibrationMethod = "CALIBRATE_PREDICTION"
	CalibrationObservation CalibrationMethod = "CALIBRATE_OBSERVATION"
)

// stationMethods is the per-station calibration table. Stations absent from
// the table use CalibrationNone. This is the only place the mapping lives.
var stationMethods = map[string]CalibrationMethod{
	"crescent_beach_ocean":   CalibrationPrediction,
	"crescent_channel_ocean": CalibrationObservation,
}

// MethodForStation resolves the calibration method for a station key.
func MethodForStation(key string) CalibrationMethod {
	if m, ok := stationMethods[key]; ok {
		return m
	}
	return CalibrationNone
}

// Station is tide station metadata from the stations feed, with the
// calibration method resolved once at ingest.
type Station struct {
	Key             string            `json:"key"`
	Name            string            `json:"name"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	Datum           Datum             `json:"datum"`
	Method          CalibrationMethod `json:"method"`
	HasObservations bool              `json:"has_observations"`
}

// Point is a single water-level sample. A nil Value is a feed gap and is
// carried through so charts can render it as a break.
type Point struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

// Float wraps a literal for use as a Point value.
func Float(v float64) *float64 { return &v }

// EventType is the kind of a tide extreme.
type EventType string

const (
	EventHigh EventType = "high"
	EventLow  EventType = "low"
)

// HighLowEvent is a predicted tide extreme. Date is the Pacific calendar
// date precomputed by the feed; day filtering compares it as an opaque
// string rather than re-deriving it from Time.
type HighLowEvent struct {
	Time        time.Time `json:"time"`
	Date        string    `json:"date"`
	Type        EventType `json:"type"`
	Value       float64   `json:"value"`
	TimeDisplay string    `json:"time_display"`
}

// CombinedPoint is one step of the combined water level forecast:
// astronomical tide plus modelled storm surge. TotalWaterLevel is only
// populated for chart-datum stations; the merger strips it for geodetic
// stations regardless of what the feed carried.
type CombinedPoint struct {
	Time             time.Time `json:"time"`
	AstronomicalTide *float64  `json:"astronomical_tide_m"`
	StormSurge       *float64  `json:"storm_surge_m"`
	TotalWaterLevel  *float64  `json:"total_water_level_m"`
}

// Residual is one observed-minus-predicted sample.
type Residual struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ResidualKind records which pipeline produced a residual series.
type ResidualKind string

const (
	// ResidualCalibration means the series came from the geodetic
	// calibration pipeline.
	ResidualCalibration ResidualKind = "calibration"
	// ResidualModelSkill is the plain observation-minus-prediction offset
	// computed for chart-datum stations that report observations.
	ResidualModelSkill ResidualKind = "model_skill"
)

// ResidualState is the most recent residual, or its absence. Consumers must
// check Available before reading Value.
type ResidualState struct {
	Available bool      `json:"available"`
	Value     float64   `json:"value"`
	Time      time.Time `json:"time"`
}

// NowEstimate is the interpolated water level at a point in time.
// When ResidualApplied is false the estimate is prediction-only and the
// caller should present it as such.
type NowEstimate struct {
	Time            time.Time `json:"time"`
	Predicted       float64   `json:"predicted"`
	Estimated       float64   `json:"estimated"`
	ResidualApplied bool      `json:"residual_applied"`
}

// StationModel is the reconciled per-station output of one refresh.
// Series are calibrated according to the station's method and sorted by
// time. Calibrated is false when the offsets series was missing and the
// raw series passed through instead.
type StationModel struct {
	Station      Station       `json:"station"`
	Predictions  []Point       `json:"predictions"`
	Observations []Point       `json:"observations"`
	Calibrated   bool          `json:"calibrated"`
	Residuals    []Residual    `json:"residuals"`
	ResidualKind ResidualKind  `json:"residual_kind,omitempty"`
	LastResidual ResidualState `json:"last_residual"`
}
