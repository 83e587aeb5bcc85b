// internal/session/stats.go
//
// Aggregation of finalized daily records into lifetime statistics and the
// weekly win histogram.
//
// Streak rule: a win continues the streak only when its day is exactly one
// calendar day after the previous finalized record's day and that record
// left a live streak; otherwise a win restarts the streak at 1 and a loss
// resets it to 0. A streak also dies retroactively when the most recent
// record is more than one day old.

package session

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/touch11/legends/go-server/internal/store"
)

// LifetimeStats is derived from the full history of finalized records.
type LifetimeStats struct {
	Played        int `json:"played"`
	Wins          int `json:"wins"`
	WinPercentage int `json:"winPercentage"`
	CurrentStreak int `json:"currentStreak"`
	MaxStreak     int `json:"maxStreak"`
}

// WeeklyHistogram counts wins per weekday, Monday=1 .. Sunday=7.
// Index 0 is unused.
type WeeklyHistogram [8]int

// ComputeLifetimeStats folds finalized records, already sorted by
// ascending day, into lifetime statistics. today is the current
// CalendarDay under the reference offset.
func ComputeLifetimeStats(records []FinalizedRecord, today string) LifetimeStats {
	var s LifetimeStats
	lastDay := ""
	for _, r := range records {
		if !r.Completed {
			continue
		}
		s.Played++
		if r.Won {
			s.Wins++
			if lastDay != "" && dayDiff(lastDay, r.Date) == 1 {
				s.CurrentStreak++
			} else {
				s.CurrentStreak = 1
			}
			if s.CurrentStreak > s.MaxStreak {
				s.MaxStreak = s.CurrentStreak
			}
		} else {
			s.CurrentStreak = 0
		}
		lastDay = r.Date
	}

	// A streak only stays live when the last played day is today or
	// yesterday; missing a day invalidates it.
	if lastDay != "" && lastDay != today && s.CurrentStreak > 0 {
		if dayDiff(lastDay, today) > 1 {
			s.CurrentStreak = 0
		}
	}

	if s.Played > 0 {
		s.WinPercentage = int(math.Round(100 * float64(s.Wins) / float64(s.Played)))
	}
	return s
}

// dayDiff returns the absolute difference in calendar days between two
// YYYY-MM-DD values. Unparseable input counts as a gap.
func dayDiff(a, b string) int {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return math.MaxInt32
	}
	d := tb.Sub(ta).Hours() / 24
	if d < 0 {
		d = -d
	}
	return int(math.Round(d))
}

// readHistogram loads the 7 weekly win counters. Counters are stored as
// plain integer text; anything unreadable counts as zero.
func readHistogram(ctx context.Context, gw store.Gateway) WeeklyHistogram {
	var h WeeklyHistogram
	for wd := 1; wd <= 7; wd++ {
		raw, ok, err := gw.Get(ctx, weekKey(wd))
		if err != nil || !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil {
			h[wd] = n
		}
	}
	return h
}

// bumpHistogram increments the win counter for the given weekday.
func bumpHistogram(ctx context.Context, gw store.Gateway, weekday int) error {
	raw, _, err := gw.Get(ctx, weekKey(weekday))
	if err != nil {
		return err
	}
	n, _ := strconv.Atoi(raw)
	return gw.Set(ctx, weekKey(weekday), strconv.Itoa(n+1))
}
