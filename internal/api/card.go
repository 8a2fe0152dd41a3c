package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/Keelando/surf-website-front-end-sub000/internal/imagegen"
	"github.com/Keelando/surf-website-front-end-sub000/internal/metrics"
	"github.com/Keelando/surf-website-front-end-sub000/internal/tide"
)

// handleCard serves the station share card. Cards render from the current
// tide snapshot and are cached briefly, so a burst of crawler hits after a
// link is shared costs one render.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	key, ok := strings.CutSuffix(file, ".png")
	if !ok || key == "" {
		http.NotFound(w, r)
		return
	}

	if data, ok := s.cards.Get(key); ok {
		serveCard(w, data)
		return
	}

	td, ok := s.snapshots.Tide()
	if !ok {
		http.Error(w, "tide data not ready", http.StatusServiceUnavailable)
		return
	}
	model, ok := td.Models[key]
	if !ok {
		http.NotFound(w, r)
		return
	}

	now := s.clock.Now()
	window := tide.WindowForDay(now, 0, s.loc)
	date := window.Start.In(s.loc).Format("2006-01-02")

	card := imagegen.CardData{
		Station:   model.Station,
		DateLabel: window.Start.In(s.loc).Format("Monday, Jan 2"),
		Start:     window.Start,
		End:       window.End,
		Points:    tide.SliceWindow(model.Predictions, window),
		Events:    tide.EventsForDate(td.Events[key], date),
	}
	if est, ok := s.rec.Now(model, now); ok {
		card.Now = &est
	}

	data, err := imagegen.RenderCard(card)
	if err != nil {
		log.Printf("api: render card for %s: %v", key, err)
		http.Error(w, "card unavailable", http.StatusServiceUnavailable)
		return
	}
	metrics.CardRendersTotal.WithLabelValues(key).Inc()
	s.cards.Set(key, data)
	serveCard(w, data)
}

func serveCard(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}
