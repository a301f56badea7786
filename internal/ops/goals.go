package ops

import (
	"time"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
	"github.com/jwhitman/tally/internal/note"
)

// GoalsInput contains parameters for the Goals operation.
type GoalsInput struct {
	// Date selects the ISO week to evaluate. Empty means the current week.
	Date string
}

// GoalsRow is one activity's weekly total measured against its goal.
type GoalsRow struct {
	Label    string `json:"label"`
	Duration string `json:"duration"`
	Seconds  int64  `json:"seconds"`
	Goal     string `json:"goal,omitempty"`
	Met      bool   `json:"met,omitempty"`
}

// GoalsOutput contains the result of the Goals operation.
type GoalsOutput struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Rows []GoalsRow `json:"rows"`
}

// Goals evaluates the week's activity totals against the goals block in
// the configured goals note. Goals with no logged time still appear, with
// zero duration, so neglected goals stay visible.
func Goals(env *Env, input GoalsInput) (*GoalsOutput, error) {
	anchor, err := reportAnchor(env, input.Date)
	if err != nil {
		return nil, err
	}
	from, to := activity.ISOWeekRange(anchor)

	goals, err := loadGoals(env)
	if err != nil {
		return nil, err
	}

	if err := env.refresh(); err != nil {
		return nil, err
	}
	entries, err := index.Overlapping(env.DB, from, to)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	totals := activity.Aggregate(entriesToActivities(entries), from, to)

	out := &GoalsOutput{
		From: from.Format(DateLayout),
		To:   to.Format(DateLayout),
		Rows: []GoalsRow{},
	}
	for _, r := range activity.MergeWithGoals(totals, goals) {
		row := GoalsRow{
			Label:    r.Label,
			Duration: activity.FormatDuration(r.Duration),
			Seconds:  int64(r.Duration / time.Second),
		}
		if r.Goal != nil {
			row.Goal = activity.FormatDuration(*r.Goal)
			row.Met = r.Duration >= *r.Goal
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// loadGoals reads the goals block from the configured goals note. A missing
// note or absent block means no goals, not an error.
func loadGoals(env *Env) ([]activity.Goal, error) {
	if env.Cfg == nil || env.Cfg.GoalsNote == "" {
		return nil, nil
	}
	text, err := env.Vault.ReadNote(env.Cfg.GoalsNote)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	payload, ok := note.ExtractBlock(text, "", note.GoalsFenceTag)
	if !ok {
		return nil, nil
	}
	return activity.ParseGoals(payload)
}
