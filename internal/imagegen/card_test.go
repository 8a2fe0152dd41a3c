package imagegen

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

func testCardData(t *testing.T) CardData {
	t.Helper()
	start := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var points []models.Point
	for m := 0; m <= 24*60; m += 15 {
		ts := start.Add(time.Duration(m) * time.Minute)
		level := 2.5 + 1.8*math.Sin(float64(m)/float64(12*60)*2*math.Pi)
		points = append(points, models.Point{Time: ts, Value: models.Float(level)})
	}

	return CardData{
		Station: models.Station{
			Key:   "white_rock_pier",
			Name:  "White Rock Pier",
			Datum: models.DatumChartDatum,
		},
		DateLabel: "Monday, Jan 12",
		Start:     start,
		End:       end,
		Points:    points,
		Events: []models.HighLowEvent{
			{Time: start.Add(3 * time.Hour), Type: models.EventHigh, Value: 4.3, TimeDisplay: "3:00 AM"},
			{Time: start.Add(9 * time.Hour), Type: models.EventLow, Value: 0.7, TimeDisplay: "9:00 AM"},
		},
		Now: &models.NowEstimate{
			Time:      start.Add(10 * time.Hour),
			Predicted: 2.1,
			Estimated: 2.24,
		},
	}
}

func TestRenderCard(t *testing.T) {
	data := testCardData(t)

	buf, err := RenderCard(data)
	if err != nil {
		t.Fatalf("RenderCard: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("decode card PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != CardWidth || bounds.Dy() != CardHeight {
		t.Errorf("card dimensions = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), CardWidth, CardHeight)
	}

	// The curve and labels should leave the card visibly non-uniform.
	base := img.At(5, 5)
	uniform := true
	for y := 100; y < CardHeight; y += 37 {
		for x := 0; x < CardWidth; x += 53 {
			if img.At(x, y) != base {
				uniform = false
			}
		}
	}
	if uniform {
		t.Error("rendered card is a flat color, nothing was drawn")
	}
}

func TestRenderCard_GapsAndMissingNow(t *testing.T) {
	data := testCardData(t)
	data.Now = nil
	data.Events = nil
	for i := 40; i < 50 && i < len(data.Points); i++ {
		data.Points[i].Value = nil
	}

	if _, err := RenderCard(data); err != nil {
		t.Fatalf("RenderCard with gaps: %v", err)
	}
}

func TestRenderCard_RejectsEmptySeries(t *testing.T) {
	data := testCardData(t)
	data.Points = []models.Point{
		{Time: data.Start, Value: nil},
		{Time: data.Start.Add(time.Hour), Value: models.Float(2.0)},
	}

	if _, err := RenderCard(data); err == nil {
		t.Fatal("expected error for a series with under two usable points")
	}
}

func TestCardCache(t *testing.T) {
	cache := NewCardCache(time.Minute)

	if _, ok := cache.Get("white_rock_pier"); ok {
		t.Fatal("empty cache should miss")
	}

	cache.Set("white_rock_pier", []byte("png-bytes"))
	got, ok := cache.Get("white_rock_pier")
	if !ok || string(got) != "png-bytes" {
		t.Fatalf("Get after Set = %q, %v", got, ok)
	}

	if _, ok := cache.Get("crescent_beach_ocean"); ok {
		t.Fatal("cache should miss for a different station")
	}

	expired := NewCardCache(-time.Second)
	expired.Set("white_rock_pier", []byte("stale"))
	if _, ok := expired.Get("white_rock_pier"); ok {
		t.Fatal("expired entry should miss")
	}
}
