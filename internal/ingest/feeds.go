package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/htmlutil"
	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

// Feed document names, resolved against the configured base URL.
const (
	FeedStations   = "stations.json"
	FeedTimeseries = "tide-timeseries.json"
	FeedHiLow      = "tide-hi-low.json"
	FeedCombined   = "combined-water-level.json"
)

type feedPoint struct {
	Time  string   `json:"time"`
	Value *float64 `json:"value"`
}

type timeseriesDoc struct {
	Stations map[string]timeseriesStation `json:"stations"`
}

type timeseriesStation struct {
	Predictions     []feedPoint `json:"predictions"`
	Observations    []feedPoint `json:"observations"`
	GeodeticOffsets []feedPoint `json:"geodetic_offsets"`
	HasObservations bool        `json:"has_observations"`
}

type hiLowDoc struct {
	Stations map[string]hiLowStation `json:"stations"`
}

type hiLowStation struct {
	Events []feedEvent `json:"events"`
}

type feedEvent struct {
	Time        string  `json:"time"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	TimeDisplay string  `json:"time_display"`
}

type combinedDoc struct {
	Stations map[string]combinedStation `json:"stations"`
}

type combinedStation struct {
	Forecast []feedCombinedPoint `json:"forecast"`
}

type feedCombinedPoint struct {
	Time             string   `json:"time"`
	AstronomicalTide *float64 `json:"astronomical_tide_m"`
	StormSurge       *float64 `json:"storm_surge_m"`
	TotalWaterLevel  *float64 `json:"total_water_level_m"`
}

type stationsDoc struct {
	Stations []feedStation `json:"stations"`
}

type feedStation struct {
	Key             string  `json:"key"`
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Type            string  `json:"type"`
	HasObservations bool    `json:"has_observations"`
}

// decodePoints converts raw feed points, dropping any whose timestamp does
// not parse as RFC 3339. Null values survive as gaps; only the timestamp has
// to be well formed.
func decodePoints(raw []feedPoint) (points []models.Point, skipped int) {
	points = make([]models.Point, 0, len(raw))
	for _, p := range raw {
		t, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, models.Point{Time: t.UTC(), Value: p.Value})
	}
	return points, skipped
}

// TimeseriesData is the decoded tide-timeseries document: per-station raw
// series ready for reconciliation, plus the count of points dropped for
// malformed timestamps.
type TimeseriesData struct {
	Stations        map[string]tide.StationSeries
	HasObservations map[string]bool
	Skipped         int
}

// DecodeTimeseries parses the tide-timeseries feed document.
func DecodeTimeseries(body []byte) (*TimeseriesData, error) {
	var doc timeseriesDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", FeedTimeseries, err)
	}

	data := &TimeseriesData{
		Stations:        make(map[string]tide.StationSeries, len(doc.Stations)),
		HasObservations: make(map[string]bool, len(doc.Stations)),
	}
	for key, st := range doc.Stations {
		var series tide.StationSeries
		var n int
		series.Predictions, n = decodePoints(st.Predictions)
		data.Skipped += n
		series.Observations, n = decodePoints(st.Observations)
		data.Skipped += n
		series.Offsets, n = decodePoints(st.GeodeticOffsets)
		data.Skipped += n
		data.Stations[key] = series
		data.HasObservations[key] = st.HasObservations
	}
	return data, nil
}

// DecodeHiLow parses the tide-hi-low feed document. Events with a malformed
// timestamp or an unknown type are skipped; the feed's precomputed Pacific
// date string is carried through untouched.
func DecodeHiLow(body []byte) (map[string][]models.HighLowEvent, int, error) {
	var doc hiLowDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal %s: %w", FeedHiLow, err)
	}

	events := make(map[string][]models.HighLowEvent, len(doc.Stations))
	skipped := 0
	for key, st := range doc.Stations {
		out := make([]models.HighLowEvent, 0, len(st.Events))
		for _, ev := range st.Events {
			t, err := time.Parse(time.RFC3339, ev.Time)
			if err != nil {
				skipped++
				continue
			}
			typ := models.EventType(ev.Type)
			if typ != models.EventHigh && typ != models.EventLow {
				skipped++
				continue
			}
			out = append(out, models.HighLowEvent{
				Time:        t.UTC(),
				Date:        ev.Date,
				Type:        typ,
				Value:       ev.Value,
				TimeDisplay: ev.TimeDisplay,
			})
		}
		events[key] = out
	}
	return events, skipped, nil
}

// DecodeCombined parses the combined-water-level feed document.
func DecodeCombined(body []byte) (map[string][]models.CombinedPoint, int, error) {
	var doc combinedDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("unmarshal %s: %w", FeedCombined, err)
	}

	combined := make(map[string][]models.CombinedPoint, len(doc.Stations))
	skipped := 0
	for key, st := range doc.Stations {
		out := make([]models.CombinedPoint, 0, len(st.Forecast))
		for _, p := range st.Forecast {
			t, err := time.Parse(time.RFC3339, p.Time)
			if err != nil {
				skipped++
				continue
			}
			out = append(out, models.CombinedPoint{
				Time:             t.UTC(),
				AstronomicalTide: p.AstronomicalTide,
				StormSurge:       p.StormSurge,
				TotalWaterLevel:  p.TotalWaterLevel,
			})
		}
		combined[key] = out
	}
	return combined, skipped, nil
}

// DecodeStations parses the stations feed. The datum string and the
// calibration method are resolved here, once, so every downstream consumer
// works from the same Station value.
func DecodeStations(body []byte) ([]models.Station, error) {
	var doc stationsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", FeedStations, err)
	}

	stations := make([]models.Station, 0, len(doc.Stations))
	for _, raw := range doc.Stations {
		if raw.Key == "" {
			continue
		}
		stations = append(stations, models.Station{
			Key: raw.Key,
			// Names come out of the upstream CMS entity-escaped.
			Name:            htmlutil.ToText(raw.Name),
			Latitude:        raw.Latitude,
			Longitude:       raw.Longitude,
			Datum:           models.ParseDatum(raw.Type),
			Method:          models.MethodForStation(raw.Key),
			HasObservations: raw.HasObservations,
		})
	}
	return stations, nil
}
