package tide

import (
	"time"

	"github.com/Keelando/surf-website-front-end-sub000/internal/models"
)

// DayWindow is a Pacific calendar day expressed as a half-open UTC
// interval [Start, End). End is always Start plus 24 hours, so the window
// tracks the chart's fixed-width day rather than the civil day, which can
// run 23 or 25 hours across a DST change.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowForDay returns the window for the Pacific calendar day that is
// dayOffset days after the day containing now. Offset 0 is today, 1 is
// tomorrow. The window is recomputed from now on every call; nothing is
// cached across a midnight rollover.
//
// Pacific midnight is found by probing the two possible UTC instants:
// 08:00 UTC when the zone is on standard time (UTC-8) and 07:00 UTC when
// on daylight time (UTC-7). The probe that lands on local hour zero wins.
func WindowForDay(now time.Time, dayOffset int, loc *time.Location) DayWindow {
	local := now.In(loc)
	y, m, d := local.Date()

	start := pacificMidnightUTC(y, m, d+dayOffset, loc)
	return DayWindow{Start: start, End: start.Add(24 * time.Hour)}
}

func pacificMidnightUTC(year int, month time.Month, day int, loc *time.Location) time.Time {
	for _, hour := range []int{8, 7} {
		cand := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
		if cand.In(loc).Hour() == 0 {
			return cand
		}
	}
	// Zones other than UTC-8/-7 land here; let the zone database decide.
	return time.Date(year, month, day, 0, 0, 0, 0, loc).UTC()
}

// SliceWindow returns the points of series whose timestamps fall inside w,
// sorted by time. The input is never assumed sorted and is not mutated.
func SliceWindow(series []models.Point, w DayWindow) []models.Point {
	var out []models.Point
	for _, p := range series {
		if w.Contains(p.Time) {
			out = append(out, p)
		}
	}
	sortPointsByTime(out)
	return out
}
