package tide

import (
	"sort"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// EventsForDate returns the high/low events whose precomputed Pacific date
// equals date (exact string match, "2006-01-02" form), sorted by time. The
// feed already resolved each event's calendar day in Pacific time, so the
// filter never re-derives dates from timestamps. A day with no events
// returns an empty slice.
func EventsForDate(events []models.HighLowEvent, date string) []models.HighLowEvent {
	out := make([]models.HighLowEvent, 0, 4)
	for _, ev := range events {
		if ev.Date == date {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
