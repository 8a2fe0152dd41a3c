// Package snapshot holds the in-memory feed snapshots the HTTP layer
// serves from. Refreshes build a complete replacement off to the side and
// publish it in one swap, so readers never see a half-updated view.
package snapshot

import (
	"sync"
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// TideData is everything derived from one tide refresh: station metadata,
// the reconciled per-station models, and the high/low event tables.
type TideData struct {
	FetchedAt time.Time
	Stations  []models.Station
	Models    map[string]models.StationModel
	Events    map[string][]models.HighLowEvent
}

// SurgeData is everything derived from one combined water level refresh.
type SurgeData struct {
	FetchedAt time.Time
	Combined  map[string][]models.CombinedPoint
	Narrative string
}

// Holder is the single shared snapshot slot. Tide and surge refresh on
// independent cadences, so they publish independently, but both draw
// generations from the same counter: a refresh that finishes after a
// newer one has already published is dropped, never rolled back over it.
type Holder struct {
	mu       sync.RWMutex
	lastGen  uint64
	tideGen  uint64
	surgeGen uint64
	tide     *TideData
	surge    *SurgeData
}

func NewHolder() *Holder {
	return &Holder{}
}

// NextGeneration hands out the tag a refresh must present when it
// publishes. Call it when the refresh starts, not when it finishes.
func (h *Holder) NextGeneration() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastGen++
	return h.lastGen
}

// ReplaceTide publishes a tide snapshot wholesale. It reports false, and
// changes nothing, when a refresh with a newer generation got there first.
func (h *Holder) ReplaceTide(gen uint64, data *TideData) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen <= h.tideGen {
		return false
	}
	h.tideGen = gen
	h.tide = data
	return true
}

// ReplaceSurge publishes a surge snapshot wholesale, with the same
// generation rule as ReplaceTide.
func (h *Holder) ReplaceSurge(gen uint64, data *SurgeData) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen <= h.surgeGen {
		return false
	}
	h.surgeGen = gen
	h.surge = data
	return true
}

// SetNarrative attaches narrative text to the surge snapshot published
// under gen. Published snapshots are read concurrently, so the holder
// swaps in a copy rather than mutating in place. Reports false when that
// snapshot has already been superseded.
func (h *Holder) SetNarrative(gen uint64, text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.surge == nil || h.surgeGen != gen {
		return false
	}
	updated := *h.surge
	updated.Narrative = text
	h.surge = &updated
	return true
}

// Tide returns the published tide snapshot. The second return is false
// until the first refresh lands.
func (h *Holder) Tide() (*TideData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.tide == nil {
		return nil, false
	}
	return h.tide, true
}

// Surge returns the published surge snapshot.
func (h *Holder) Surge() (*SurgeData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.surge == nil {
		return nil, false
	}
	return h.surge, true
}

// Ready reports whether the service can answer tide queries at all.
func (h *Holder) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tide != nil
}
