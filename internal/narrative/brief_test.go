package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Vancouver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestBuildBrief_ChartDatumStation(t *testing.T) {
	loc := pacific(t)
	now := time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)

	combined := map[string][]models.CombinedPoint{
		"white_rock_pier": {
			{Time: now.Add(2 * time.Hour), AstronomicalTide: models.Float(3.9), StormSurge: models.Float(0.18), TotalWaterLevel: models.Float(4.08)},
			{Time: now.Add(8 * time.Hour), AstronomicalTide: models.Float(4.49), StormSurge: models.Float(0.42), TotalWaterLevel: models.Float(4.91)},
			{Time: now.Add(14 * time.Hour), AstronomicalTide: models.Float(2.1), StormSurge: models.Float(0.3), TotalWaterLevel: models.Float(2.4)},
		},
	}
	stations := []models.Station{{Key: "white_rock_pier", Name: "White Rock Pier", Datum: models.DatumChartDatum}}

	brief := BuildBrief(combined, stations, now, loc)

	if !strings.Contains(brief, "White Rock Pier") {
		t.Errorf("brief missing station name:\n%s", brief)
	}
	if !strings.Contains(brief, "peak surge 0.42 m") {
		t.Errorf("brief missing peak surge:\n%s", brief)
	}
	if !strings.Contains(brief, "peak total water 4.91 m") {
		t.Errorf("brief missing peak total:\n%s", brief)
	}
}

func TestBuildBrief_GeodeticStationSurgeOnly(t *testing.T) {
	loc := pacific(t)
	now := time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)

	combined := map[string][]models.CombinedPoint{
		"crescent_beach_ocean": {
			{Time: now.Add(3 * time.Hour), AstronomicalTide: models.Float(1.2), StormSurge: models.Float(0.25), TotalWaterLevel: models.Float(1.45)},
		},
	}
	stations := []models.Station{{Key: "crescent_beach_ocean", Name: "Crescent Beach", Datum: models.DatumGeodeticCGVD28}}

	brief := BuildBrief(combined, stations, now, loc)

	if !strings.Contains(brief, "peak surge 0.25 m") {
		t.Errorf("brief missing surge line:\n%s", brief)
	}
	if strings.Contains(brief, "total water") {
		t.Errorf("geodetic station should not quote a total:\n%s", brief)
	}
}

func TestBuildBrief_ClipsToWindow(t *testing.T) {
	loc := pacific(t)
	now := time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)

	// The largest surge sits past the 48 h horizon and must not be quoted.
	combined := map[string][]models.CombinedPoint{
		"white_rock_pier": {
			{Time: now.Add(6 * time.Hour), StormSurge: models.Float(0.20)},
			{Time: now.Add(72 * time.Hour), StormSurge: models.Float(0.95)},
		},
	}
	stations := []models.Station{{Key: "white_rock_pier", Name: "White Rock Pier", Datum: models.DatumChartDatum}}

	brief := BuildBrief(combined, stations, now, loc)

	if !strings.Contains(brief, "peak surge 0.20 m") {
		t.Errorf("brief should use the in-window peak:\n%s", brief)
	}
	if strings.Contains(brief, "0.95") {
		t.Errorf("brief quoted a point beyond the outlook window:\n%s", brief)
	}
}

func TestBuildBrief_SkipsGaps(t *testing.T) {
	loc := pacific(t)
	now := time.Date(2026, 1, 12, 18, 0, 0, 0, time.UTC)

	combined := map[string][]models.CombinedPoint{
		"white_rock_pier": {
			{Time: now.Add(2 * time.Hour), StormSurge: nil},
			{Time: now.Add(4 * time.Hour), StormSurge: models.Float(0.11)},
		},
	}
	stations := []models.Station{{Key: "white_rock_pier", Name: "White Rock Pier", Datum: models.DatumChartDatum}}

	brief := BuildBrief(combined, stations, now, loc)
	if !strings.Contains(brief, "peak surge 0.11 m") {
		t.Errorf("gap point should be ignored:\n%s", brief)
	}
}

func TestBuildBrief_NoForecast(t *testing.T) {
	loc := pacific(t)
	now := time.Now()

	brief := BuildBrief(nil, []models.Station{{Key: "white_rock_pier"}}, now, loc)
	if brief != "No combined water level forecast is available right now." {
		t.Errorf("empty forecast brief = %q", brief)
	}
}
