package ingest

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Keelando/surf-website-front-end-sub000/internal/metrics"
	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
	"github.com/Keelando/surf-website-front-end-sub000/internal/narrative"
	"github.com/Keelando/surf-website-front-end-sub000/internal/snapshot"
	"github.com/Keelando/surf-website-front-end-sub000/internal/store"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

// archiveRetention bounds the SQLite archive. The hindcast comparison
// only looks back days, not months.
const archiveRetention = 90 * 24 * time.Hour

type Scheduler struct {
	store         *store.Store
	client        *Client
	mirror        *FTPMirror
	snapshots     *snapshot.Holder
	rec           tide.Reconciler
	loc           *time.Location
	clock         clockwork.Clock
	tideInterval  time.Duration
	surgeInterval time.Duration
	narrator      *narrative.Generator
}

func NewScheduler(store *store.Store, client *Client, snapshots *snapshot.Holder, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:         store,
		client:        client,
		snapshots:     snapshots,
		rec:           tide.NewReconciler(loc),
		loc:           loc,
		clock:         clockwork.NewRealClock(),
		tideInterval:  5 * time.Minute,
		surgeInterval: 2 * time.Hour,
	}
}

// SetMirror configures an FTP mirror for the combined water level feed.
// The mirror is tried first; HTTP remains the fallback.
func (s *Scheduler) SetMirror(m *FTPMirror) {
	s.mirror = m
}

// SetNarrator configures the scheduler to rewrite each surge refresh into
// a short outlook for the dashboard.
func (s *Scheduler) SetNarrator(g *narrative.Generator) {
	s.narrator = g
}

// SetClock replaces the wall clock, for tests.
func (s *Scheduler) SetClock(c clockwork.Clock) {
	s.clock = c
}

func (s *Scheduler) Run(ctx context.Context) {
	s.refreshTide()
	s.refreshSurge()

	// Single-shot timers, re-armed only after a refresh returns: a slow
	// feed delays the next poll rather than stacking refreshes behind it.
	tideTimer := s.clock.NewTimer(s.tideInterval)
	surgeTimer := s.clock.NewTimer(s.surgeInterval)
	defer tideTimer.Stop()
	defer surgeTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-tideTimer.Chan():
			s.refreshTide()
			tideTimer.Reset(s.tideInterval)
		case <-surgeTimer.Chan():
			s.refreshSurge()
			surgeTimer.Reset(s.surgeInterval)
		}
	}
}

// RefreshOnce runs a single tide and surge refresh, for one-shot mode.
func (s *Scheduler) RefreshOnce() error {
	s.refreshTide()
	s.refreshSurge()
	return nil
}

func (s *Scheduler) refreshTide() {
	log.Println("scheduler: refreshing tide snapshot")
	gen := s.snapshots.NextGeneration()

	stations, ok := s.ingestStations(gen)
	if !ok {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return
	}
	series, ok := s.ingestTimeseries(gen)
	if !ok {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return
	}
	events, ok := s.ingestHiLow(gen)
	if !ok {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return
	}

	built := &snapshot.TideData{
		FetchedAt: s.clock.Now().UTC(),
		Stations:  stations,
		Models:    make(map[string]models.StationModel, len(stations)),
		Events:    events,
	}
	for _, st := range stations {
		srs := series.Stations[st.Key]
		// A station that advertises has_observations=false can still carry
		// a stale observation buffer; treat it as prediction-only.
		if hasObs, known := series.HasObservations[st.Key]; known && !hasObs {
			srs.Observations = nil
		}
		built.Models[st.Key] = s.rec.Reconcile(st, srs)
	}

	if !s.snapshots.ReplaceTide(gen, built) {
		metrics.SnapshotStaleDropsTotal.Inc()
		log.Println("scheduler: tide snapshot superseded before publish, dropping")
		return
	}
	metrics.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	log.Printf("scheduler: published tide snapshot for %d stations", len(stations))

	s.archiveTide(built)
}

func (s *Scheduler) refreshSurge() {
	log.Println("scheduler: refreshing surge forecast")
	gen := s.snapshots.NextGeneration()

	run, _ := s.store.StartIngestRun(FeedCombined, gen)

	var body []byte
	var err error
	if s.mirror != nil {
		body, err = s.mirror.Fetch(FeedCombined)
		if err != nil {
			log.Printf("scheduler: ftp mirror %s: %v, falling back to http", FeedCombined, err)
			body = nil
		}
	}
	if body == nil {
		var res *FetchResult
		body, res, err = s.client.Fetch(FeedCombined)
		if run != nil && res != nil {
			run.HTTPStatus = sql.NullInt64{Int64: int64(res.HTTPStatus), Valid: res.HTTPStatus > 0}
			run.ResponseSizeBytes = sql.NullInt64{Int64: int64(res.ResponseSize), Valid: res.ResponseSize > 0}
		}
		if err != nil {
			log.Printf("scheduler: fetch %s: %v", FeedCombined, err)
			s.failRun(run, err)
			return
		}
	} else if run != nil {
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(len(body)), Valid: true}
	}

	if run != nil && len(body) > 0 {
		if _, perr := s.store.StoreRawPayload(run.ID, FeedCombined, body); perr != nil {
			log.Printf("scheduler: store %s raw payload: %v", FeedCombined, perr)
		}
	}

	combined, skipped, err := DecodeCombined(body)
	if err != nil {
		log.Printf("scheduler: decode %s: %v", FeedCombined, err)
		s.failRun(run, err)
		return
	}

	parsed := 0
	var flags []string
	for key, points := range combined {
		parsed += len(points)
		for _, f := range ValidateCombined(points) {
			flags = append(flags, key+":"+f)
		}
	}
	sort.Strings(flags)

	metrics.PointsParsed.WithLabelValues(FeedCombined).Add(float64(parsed))
	metrics.PointsSkipped.WithLabelValues(FeedCombined).Add(float64(skipped))
	if skipped > 0 {
		log.Printf("scheduler: %s: skipped %d malformed points", FeedCombined, skipped)
	}

	if run != nil {
		run.Success = true
		run.PointsParsed = sql.NullInt64{Int64: int64(parsed), Valid: true}
		run.PointsSkipped = sql.NullInt64{Int64: int64(skipped), Valid: true}
		if qf := QualityFlagsToJSON(flags); qf != "" {
			run.QualityFlags = sql.NullString{String: qf, Valid: true}
			log.Printf("scheduler: %s quality flags: %s", FeedCombined, qf)
		}
	}

	fetchedAt := s.clock.Now().UTC()
	built := &snapshot.SurgeData{FetchedAt: fetchedAt, Combined: combined}
	if !s.snapshots.ReplaceSurge(gen, built) {
		metrics.SnapshotStaleDropsTotal.Inc()
		log.Println("scheduler: surge forecast superseded before publish, dropping")
		s.completeRun(run)
		return
	}
	log.Printf("scheduler: published surge forecast for %d stations", len(combined))

	stored, err := s.store.InsertSurgeForecasts(fetchedAt, combined)
	if err != nil {
		log.Printf("scheduler: archive surge forecasts: %v", err)
	} else if run != nil {
		run.RecordsStored = sql.NullInt64{Int64: int64(stored), Valid: true}
	}
	s.completeRun(run)

	if err := s.store.Prune(archiveRetention); err != nil {
		log.Printf("scheduler: prune archive: %v", err)
	}

	s.generateNarrative(gen, built)
}

// ingestStations fetches and decodes station metadata.
func (s *Scheduler) ingestStations(gen uint64) ([]models.Station, bool) {
	body, run, err := s.fetchFeed(FeedStations, gen)
	if err != nil {
		log.Printf("scheduler: fetch %s: %v", FeedStations, err)
		s.completeRun(run)
		return nil, false
	}

	stations, err := DecodeStations(body)
	if err != nil {
		log.Printf("scheduler: decode %s: %v", FeedStations, err)
		s.failRun(run, err)
		return nil, false
	}

	if run != nil {
		run.PointsParsed = sql.NullInt64{Int64: int64(len(stations)), Valid: true}
	}
	s.completeRun(run)
	return stations, true
}

func (s *Scheduler) ingestTimeseries(gen uint64) (*TimeseriesData, bool) {
	body, run, err := s.fetchFeed(FeedTimeseries, gen)
	if err != nil {
		log.Printf("scheduler: fetch %s: %v", FeedTimeseries, err)
		s.completeRun(run)
		return nil, false
	}

	data, err := DecodeTimeseries(body)
	if err != nil {
		log.Printf("scheduler: decode %s: %v", FeedTimeseries, err)
		s.failRun(run, err)
		return nil, false
	}

	parsed := 0
	var flags []string
	for key, series := range data.Stations {
		parsed += len(series.Predictions) + len(series.Observations) + len(series.Offsets)
		for _, f := range ValidateSeries(series) {
			flags = append(flags, key+":"+f)
		}
	}
	sort.Strings(flags)

	metrics.PointsParsed.WithLabelValues(FeedTimeseries).Add(float64(parsed))
	metrics.PointsSkipped.WithLabelValues(FeedTimeseries).Add(float64(data.Skipped))
	if data.Skipped > 0 {
		log.Printf("scheduler: %s: skipped %d malformed points", FeedTimeseries, data.Skipped)
	}

	if run != nil {
		run.PointsParsed = sql.NullInt64{Int64: int64(parsed), Valid: true}
		run.PointsSkipped = sql.NullInt64{Int64: int64(data.Skipped), Valid: true}
		if qf := QualityFlagsToJSON(flags); qf != "" {
			run.QualityFlags = sql.NullString{String: qf, Valid: true}
			log.Printf("scheduler: %s quality flags: %s", FeedTimeseries, qf)
		}
	}
	s.completeRun(run)
	return data, true
}

func (s *Scheduler) ingestHiLow(gen uint64) (map[string][]models.HighLowEvent, bool) {
	body, run, err := s.fetchFeed(FeedHiLow, gen)
	if err != nil {
		log.Printf("scheduler: fetch %s: %v", FeedHiLow, err)
		s.completeRun(run)
		return nil, false
	}

	events, skipped, err := DecodeHiLow(body)
	if err != nil {
		log.Printf("scheduler: decode %s: %v", FeedHiLow, err)
		s.failRun(run, err)
		return nil, false
	}

	parsed := 0
	for _, evs := range events {
		parsed += len(evs)
	}
	metrics.PointsParsed.WithLabelValues(FeedHiLow).Add(float64(parsed))
	metrics.PointsSkipped.WithLabelValues(FeedHiLow).Add(float64(skipped))
	if skipped > 0 {
		log.Printf("scheduler: %s: skipped %d malformed events", FeedHiLow, skipped)
	}

	if run != nil {
		run.PointsParsed = sql.NullInt64{Int64: int64(parsed), Valid: true}
		run.PointsSkipped = sql.NullInt64{Int64: int64(skipped), Valid: true}
	}
	s.completeRun(run)
	return events, true
}

// fetchFeed fetches one feed over HTTP with ingest run bookkeeping. The
// returned run is already populated with fetch status; the caller fills
// in parse counts and completes it.
func (s *Scheduler) fetchFeed(feed string, gen uint64) ([]byte, *store.IngestRun, error) {
	run, _ := s.store.StartIngestRun(feed, gen)

	body, res, err := s.client.Fetch(feed)
	if run != nil {
		run.Success = err == nil
		if res != nil {
			run.HTTPStatus = sql.NullInt64{Int64: int64(res.HTTPStatus), Valid: res.HTTPStatus > 0}
			run.ResponseSizeBytes = sql.NullInt64{Int64: int64(res.ResponseSize), Valid: res.ResponseSize > 0}
		}
		if err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		}
	}

	if err == nil && run != nil && len(body) > 0 {
		if _, perr := s.store.StoreRawPayload(run.ID, feed, body); perr != nil {
			log.Printf("scheduler: store %s raw payload: %v", feed, perr)
		}
	}
	return body, run, err
}

func (s *Scheduler) completeRun(run *store.IngestRun) {
	if run == nil {
		return
	}
	if err := s.store.CompleteIngestRun(run); err != nil {
		log.Printf("scheduler: record ingest run for %s: %v", run.Feed, err)
	}
}

func (s *Scheduler) failRun(run *store.IngestRun, err error) {
	if run != nil {
		run.Success = false
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}
	s.completeRun(run)
}

// archiveTide writes the reconciled snapshot into the rolling archive.
// Archive failures are logged, never fatal: the published snapshot is
// already serving.
func (s *Scheduler) archiveTide(data *snapshot.TideData) {
	if err := s.store.UpsertStations(data.Stations); err != nil {
		log.Printf("scheduler: upsert stations: %v", err)
	}

	levels, residuals := 0, 0
	for key, model := range data.Models {
		n, err := s.store.InsertWaterLevels(key, model.Observations)
		if err != nil {
			log.Printf("scheduler: archive water levels %s: %v", key, err)
		}
		levels += n

		m, err := s.store.InsertResiduals(key, model.Residuals, string(model.ResidualKind))
		if err != nil {
			log.Printf("scheduler: archive residuals %s: %v", key, err)
		}
		residuals += m

		if model.LastResidual.Available {
			metrics.ResidualGauge.WithLabelValues(key).Set(model.LastResidual.Value)
		}
	}
	log.Printf("scheduler: archived %d water levels, %d residuals", levels, residuals)
}

// generateNarrative rewrites the freshly published surge forecast into a
// short outlook. Generation happens off the refresh path; the text is
// attached to the snapshot when it arrives, unless a newer forecast has
// already replaced it.
func (s *Scheduler) generateNarrative(gen uint64, surge *snapshot.SurgeData) {
	if s.narrator == nil {
		return
	}

	tideData, ok := s.snapshots.Tide()
	if !ok {
		log.Println("scheduler: skipping narrative, no station metadata yet")
		return
	}

	brief := narrative.BuildBrief(surge.Combined, tideData.Stations, s.clock.Now(), s.loc)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		text, err := s.narrator.Generate(ctx, brief)
		if err != nil {
			log.Printf("scheduler: narrative generation failed: %v", err)
			return
		}
		if !s.snapshots.SetNarrative(gen, text) {
			log.Println("scheduler: narrative arrived after forecast superseded, dropping")
		}
	}()
}
