package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/ingest"
	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

type tideDayResponse struct {
	Status       string                `json:"status"`
	Station      models.Station        `json:"station"`
	Day          int                   `json:"day"`
	Date         string                `json:"date"`
	WindowStart  time.Time             `json:"window_start"`
	WindowEnd    time.Time             `json:"window_end"`
	Calibrated   bool                  `json:"calibrated"`
	ResidualKind models.ResidualKind   `json:"residual_kind,omitempty"`
	Predictions  []models.Point        `json:"predictions"`
	Observations []models.Point        `json:"observations"`
	Events       []models.HighLowEvent `json:"events"`
	Now          *models.NowEstimate   `json:"now,omitempty"`
	FetchedAt    time.Time             `json:"fetched_at"`
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if td, ok := s.snapshots.Tide(); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"fetched_at": td.FetchedAt,
			"stations":   td.Stations,
		})
		return
	}

	// Cold start: the archive still knows the station list from earlier
	// runs, so serve it marked stale rather than nothing.
	stations, err := s.store.GetStations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(stations) == 0 {
		writeUnavailable(w, "no station data yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stale", "stations": stations})
}

func (s *Server) handleTides(w http.ResponseWriter, r *http.Request) {
	td, ok := s.snapshots.Tide()
	if !ok {
		writeUnavailable(w, "no tide snapshot yet")
		return
	}
	key := r.PathValue("station")
	model, ok := td.Models[key]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}

	day := 0
	if v := r.URL.Query().Get("day"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 2 {
			writeError(w, http.StatusBadRequest, "day must be 0, 1 or 2")
			return
		}
		day = n
	}

	now := s.clock.Now()
	window := tide.WindowForDay(now, day, s.loc)
	date := window.Start.In(s.loc).Format("2006-01-02")

	resp := tideDayResponse{
		Status:       "ok",
		Station:      model.Station,
		Day:          day,
		Date:         date,
		WindowStart:  window.Start,
		WindowEnd:    window.End,
		Calibrated:   model.Calibrated,
		ResidualKind: model.ResidualKind,
		Predictions:  orEmptyPoints(tide.SliceWindow(model.Predictions, window)),
		Observations: orEmptyPoints(tide.SliceWindow(model.Observations, window)),
		Events:       orEmptyEvents(tide.EventsForDate(td.Events[key], date)),
		FetchedAt:    td.FetchedAt,
	}
	if day == 0 {
		if est, ok := s.rec.Now(model, now); ok {
			resp.Now = &est
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	td, ok := s.snapshots.Tide()
	if !ok {
		writeUnavailable(w, "no tide snapshot yet")
		return
	}
	key := r.PathValue("station")
	model, ok := td.Models[key]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}

	est, ok := s.rec.Now(model, s.clock.Now())
	if !ok {
		writeUnavailable(w, "no predictions bracket the current time")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"station":       key,
		"calibrated":    model.Calibrated,
		"residual_kind": model.ResidualKind,
		"estimate":      est,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	td, ok := s.snapshots.Tide()
	if !ok {
		writeUnavailable(w, "no tide snapshot yet")
		return
	}
	key := r.PathValue("station")
	if _, ok := td.Models[key]; !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}

	date := s.clock.Now().In(s.loc).Format("2006-01-02")
	if v := r.URL.Query().Get("date"); v != "" {
		if _, err := time.ParseInLocation("2006-01-02", v, s.loc); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = v
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"station": key,
		"date":    date,
		"events":  orEmptyEvents(tide.EventsForDate(td.Events[key], date)),
	})
}

func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("station")
	if _, ok := s.stationMeta(key); !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}
	days, ok := daysParam(w, r, 14)
	if !ok {
		return
	}

	since := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	summary, err := s.store.ResidualSummary(key, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary == nil {
		writeUnavailable(w, "no residuals recorded for station in window")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"days":    days,
		"summary": summary,
	})
}

func (s *Server) handleWaterLevel(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("station")
	meta, ok := s.stationMeta(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}
	sd, ok := s.snapshots.Surge()
	if !ok {
		writeUnavailable(w, "no combined water level forecast yet")
		return
	}
	points, ok := sd.Combined[key]
	if !ok {
		writeUnavailable(w, "no combined forecast for station")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"station":    meta,
		"fetched_at": sd.FetchedAt,
		"points":     tide.GateCombined(meta, points),
	})
}

type surgeStationSummary struct {
	Station        string     `json:"station"`
	Name           string     `json:"name,omitempty"`
	PeakSurge      *float64   `json:"peak_surge_m,omitempty"`
	PeakSurgeAt    *time.Time `json:"peak_surge_at,omitempty"`
	PeakTotal      *float64   `json:"peak_total_m,omitempty"`
	PeakTotalAt    *time.Time `json:"peak_total_at,omitempty"`
	LatestResidual *float64   `json:"latest_residual_m,omitempty"`
	ResidualAt     *time.Time `json:"residual_at,omitempty"`
}

func (s *Server) handleSurge(w http.ResponseWriter, r *http.Request) {
	sd, ok := s.snapshots.Surge()
	if !ok {
		writeUnavailable(w, "no combined water level forecast yet")
		return
	}
	td, tideOK := s.snapshots.Tide()

	keys := make([]string, 0, len(sd.Combined))
	for key := range sd.Combined {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	summaries := make([]surgeStationSummary, 0, len(keys))
	for _, key := range keys {
		sum := surgeStationSummary{Station: key}
		points := sd.Combined[key]
		if meta, ok := s.stationMeta(key); ok {
			sum.Name = meta.Name
			// Total water level only means something against chart
			// datum; the gate strips it for geodetic stations.
			points = tide.GateCombined(meta, points)
		}
		sum.PeakSurge, sum.PeakSurgeAt = peakBy(points, func(p models.CombinedPoint) *float64 { return p.StormSurge })
		sum.PeakTotal, sum.PeakTotalAt = peakBy(points, func(p models.CombinedPoint) *float64 { return p.TotalWaterLevel })
		if tideOK {
			if model, ok := td.Models[key]; ok && model.LastResidual.Available {
				v, at := model.LastResidual.Value, model.LastResidual.Time
				sum.LatestResidual = &v
				sum.ResidualAt = &at
			}
		}
		summaries = append(summaries, sum)
	}

	resp := map[string]any{
		"status":     "ok",
		"fetched_at": sd.FetchedAt,
		"stations":   summaries,
	}
	if sd.Narrative != "" {
		resp["narrative"] = sd.Narrative
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHindcast(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("station")
	meta, ok := s.stationMeta(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown station: "+key)
		return
	}
	if meta.Datum == models.DatumGeodeticCGVD28 {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "not_scorable",
			"reason": "total water level is gated off for geodetic stations",
		})
		return
	}
	days, ok := daysParam(w, r, 7)
	if !ok {
		return
	}

	since := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	stats, err := s.store.Hindcast(key, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stats == nil {
		writeUnavailable(w, "no archived forecasts for station yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"station": key,
		"days":    days,
		"buckets": stats,
	})
}

type feedHealthEntry struct {
	Feed        string     `json:"feed"`
	TotalRuns   int        `json:"total_runs"`
	FailedRuns  int        `json:"failed_runs"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

func (s *Server) handleIngestHealth(w http.ResponseWriter, r *http.Request) {
	since := s.clock.Now().Add(-24 * time.Hour)
	feeds, err := s.store.GetFeedHealth(since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := "ok"
	entries := make([]feedHealthEntry, 0, len(feeds))
	for _, f := range feeds {
		e := feedHealthEntry{
			Feed:       f.Feed,
			TotalRuns:  f.TotalRuns,
			FailedRuns: f.FailedRuns,
			LastError:  f.LastError,
		}
		if f.LastSuccess.Valid {
			t := f.LastSuccess.Time
			e.LastSuccess = &t
		}
		if f.FailedRuns > 0 {
			status = "degraded"
		}
		entries = append(entries, e)
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": status, "feeds": entries})
}

// handleDebugFeed serves the most recently archived raw body of one feed,
// for eyeballing what upstream actually sent.
func (s *Server) handleDebugFeed(w http.ResponseWriter, r *http.Request) {
	feed := r.PathValue("feed")
	switch feed {
	case ingest.FeedStations, ingest.FeedTimeseries, ingest.FeedHiLow, ingest.FeedCombined:
	default:
		writeError(w, http.StatusNotFound, "unknown feed: "+feed)
		return
	}

	body, fetchedAt, err := s.store.LatestRawPayload(feed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body == nil {
		writeUnavailable(w, "feed not archived yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Fetched-At", fetchedAt.UTC().Format(time.RFC3339))
	w.Write(body)
}

// stationMeta resolves a station key against the tide snapshot, falling
// back to the archive when no snapshot has published yet.
func (s *Server) stationMeta(key string) (models.Station, bool) {
	if td, ok := s.snapshots.Tide(); ok {
		for _, st := range td.Stations {
			if st.Key == key {
				return st, true
			}
		}
		return models.Station{}, false
	}
	stations, err := s.store.GetStations()
	if err != nil {
		return models.Station{}, false
	}
	for _, st := range stations {
		if st.Key == key {
			return st, true
		}
	}
	return models.Station{}, false
}

// daysParam parses ?days=N with a default, writing the error response
// itself when the value is out of range.
func daysParam(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 90 {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
		return 0, false
	}
	return n, true
}

func peakBy(points []models.CombinedPoint, field func(models.CombinedPoint) *float64) (*float64, *time.Time) {
	var best *float64
	var at *time.Time
	for _, p := range points {
		v := field(p)
		if v == nil {
			continue
		}
		if best == nil || *v > *best {
			val, ts := *v, p.Time
			best, at = &val, &ts
		}
	}
	return best, at
}

func orEmptyPoints(ps []models.Point) []models.Point {
	if ps == nil {
		return []models.Point{}
	}
	return ps
}

func orEmptyEvents(evs []models.HighLowEvent) []models.HighLowEvent {
	if evs == nil {
		return []models.HighLowEvent{}
	}
	return evs
}
