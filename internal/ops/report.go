package ops

import (
	"time"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
)

// DateLayout is the calendar-date layout accepted by report inputs.
const DateLayout = "2006-01-02"

// ReportInput contains parameters for the report operations.
type ReportInput struct {
	// Date selects the day (or the ISO week containing it). Empty means
	// today.
	Date string

	// ByDay adds a per-day breakdown to week reports. Ignored for day
	// reports.
	ByDay bool
}

// ReportRow is one aggregated activity in a report.
type ReportRow struct {
	Label    string `json:"label"`
	Duration string `json:"duration"`
	Seconds  int64  `json:"seconds"`
}

// DayBreakdown is one calendar day of a by-day week report.
type DayBreakdown struct {
	Day  string      `json:"day"`
	Rows []ReportRow `json:"rows"`
}

// ReportOutput contains the result of a report operation.
type ReportOutput struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Rows []ReportRow    `json:"rows"`
	Days []DayBreakdown `json:"days,omitempty"`
}

// ReportDay aggregates activity durations for one calendar day.
func ReportDay(env *Env, input ReportInput) (*ReportOutput, error) {
	anchor, err := reportAnchor(env, input.Date)
	if err != nil {
		return nil, err
	}
	from, to := activity.DayRange(anchor)
	return report(env, from, to, false)
}

// ReportWeek aggregates activity durations for the ISO week containing the
// date, Monday through Sunday.
func ReportWeek(env *Env, input ReportInput) (*ReportOutput, error) {
	anchor, err := reportAnchor(env, input.Date)
	if err != nil {
		return nil, err
	}
	from, to := activity.ISOWeekRange(anchor)
	return report(env, from, to, input.ByDay)
}

func reportAnchor(env *Env, date string) (time.Time, error) {
	if date == "" {
		return env.now(), nil
	}
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, errors.NewInvalidRequest("date must be YYYY-MM-DD")
	}
	return t, nil
}

// report reads overlapping intervals from the index and aggregates them.
// The index is incrementally refreshed first so edits made outside tally
// are picked up.
func report(env *Env, from, to time.Time, byDay bool) (*ReportOutput, error) {
	if err := env.refresh(); err != nil {
		return nil, err
	}

	entries, err := index.Overlapping(env.DB, from, to)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	acts := entriesToActivities(entries)

	out := &ReportOutput{
		From: from.Format(DateLayout),
		To:   to.Format(DateLayout),
		Rows: toRows(activity.Aggregate(acts, from, to)),
	}

	if byDay {
		for _, bucket := range activity.AggregateByDay(acts, from, to) {
			out.Days = append(out.Days, DayBreakdown{
				Day:  bucket.Day.Format(DateLayout),
				Rows: toRows(bucket.Totals),
			})
		}
	}

	return out, nil
}

// entriesToActivities lifts flat index rows back into activity values so
// the aggregation rules (clamping, open-entry presence, label folding)
// apply unchanged.
func entriesToActivities(entries []index.Entry) []activity.Activity {
	acts := make([]activity.Activity, 0, len(entries))
	for _, e := range entries {
		entry := activity.LogEntry{Start: e.Start}
		if e.EndUnix != nil {
			entry.End = activity.FormatStamp(time.Unix(*e.EndUnix, 0))
		}
		acts = append(acts, activity.Activity{
			Activity: e.Label,
			TaskIDs:  e.TaskIDs,
			Log:      []activity.LogEntry{entry},
		})
	}
	return acts
}

func toRows(totals []activity.Total) []ReportRow {
	rows := make([]ReportRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, ReportRow{
			Label:    t.Label,
			Duration: activity.FormatDuration(t.Duration),
			Seconds:  int64(t.Duration / time.Second),
		})
	}
	return rows
}
