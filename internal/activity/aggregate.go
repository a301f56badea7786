package activity

import (
	"sort"
	"strings"
	"time"
)

// Total is one output row of the range aggregator.
type Total struct {
	// Label is the display name: the first-encountered literal spelling
	// for the row's normalized key.
	Label string `json:"label"`

	// Key is the normalized activity name the row is grouped under.
	Key string `json:"key"`

	// Duration is the summed clamped interval length within the range.
	Duration time.Duration `json:"duration"`
}

// Aggregate computes total durations per activity over [from, to).
//
// Entries whose start fails strict parsing are skipped. Closed entries are
// clamped to the range; a clamp of non-positive length contributes nothing.
// An open entry whose start falls inside the range marks the activity as
// present with zero contributed duration, so a still-running activity shows
// up in daily and weekly summaries. Rows are sorted by label,
// case-insensitively.
func Aggregate(acts []Activity, from, to time.Time) []Total {
	byKey := make(map[string]*Total)
	var order []string

	row := func(label string) *Total {
		key := Normalize(label)
		t, ok := byKey[key]
		if !ok {
			t = &Total{Label: label, Key: key}
			byKey[key] = t
			order = append(order, key)
		}
		return t
	}

	for _, a := range acts {
		for _, e := range a.Log {
			start, err := ParseStamp(e.Start)
			if err != nil {
				continue
			}

			if e.Open() {
				if !start.Before(from) && start.Before(to) {
					row(a.Activity)
				}
				continue
			}

			end, err := ParseStamp(e.End)
			if err != nil {
				continue
			}

			s, t := clamp(start, end, from, to)
			if !t.After(s) {
				continue
			}
			row(a.Activity).Duration += t.Sub(s)
		}
	}

	totals := make([]Total, 0, len(order))
	for _, key := range order {
		totals = append(totals, *byKey[key])
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return strings.ToLower(totals[i].Label) < strings.ToLower(totals[j].Label)
	})
	return totals
}

// DayBucket is one calendar day of a by-day breakdown.
type DayBucket struct {
	Day    time.Time `json:"day"`
	Totals []Total   `json:"totals"`
}

// AggregateByDay splits each clamped interval at day boundaries and
// attributes partial durations to every calendar day the interval crosses.
// Every day in [from, to) gets a bucket, empty or not, so a week always
// yields seven buckets.
func AggregateByDay(acts []Activity, from, to time.Time) []DayBucket {
	var buckets []DayBucket
	for day := StartOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		dayFrom, dayTo := clamp(day, next, from, to)
		buckets = append(buckets, DayBucket{
			Day:    day,
			Totals: closedOnly(acts, dayFrom, dayTo),
		})
	}
	return buckets
}

// closedOnly aggregates without the open-entry presence rule; a bar chart
// bucket with zero length would just be noise.
func closedOnly(acts []Activity, from, to time.Time) []Total {
	all := Aggregate(acts, from, to)
	totals := all[:0]
	for _, t := range all {
		if t.Duration > 0 {
			totals = append(totals, t)
		}
	}
	return totals
}

// ActiveClock is a currently-running clock with live elapsed time.
type ActiveClock struct {
	Label   string        `json:"label"`
	TaskIDs []string      `json:"task_ids,omitempty"`
	Start   time.Time     `json:"start"`
	Elapsed time.Duration `json:"elapsed"`
}

// ActiveClocks lists every open entry with elapsed time computed against now.
// Unlike Aggregate, the open portion here does contribute duration: this
// feeds the live "what's running" view, not historical summaries.
func ActiveClocks(acts []Activity, now time.Time) []ActiveClock {
	var out []ActiveClock
	for _, a := range acts {
		entry := a.OpenEntry()
		if entry < 0 {
			continue
		}
		start, err := ParseStamp(a.Log[entry].Start)
		if err != nil {
			continue
		}
		elapsed := now.Sub(start)
		if elapsed < 0 {
			elapsed = 0
		}
		out = append(out, ActiveClock{
			Label:   a.Activity,
			TaskIDs: a.TaskIDs,
			Start:   start,
			Elapsed: elapsed,
		})
	}
	return out
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayRange returns [startOfDay(t), startOfDay(t)+1day).
func DayRange(t time.Time) (time.Time, time.Time) {
	from := StartOfDay(t)
	return from, from.AddDate(0, 0, 1)
}

// ISOWeekRange returns [startOfISOWeek(t), +1week): Monday 00:00 through
// the following Monday.
func ISOWeekRange(t time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	from := StartOfDay(t).AddDate(0, 0, -daysSinceMonday)
	return from, from.AddDate(0, 0, 7)
}

func clamp(start, end, from, to time.Time) (time.Time, time.Time) {
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	return start, end
}
