package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
)

// ClockOutInput contains parameters for the ClockOut operation. Activity,
// Start, and TaskID together identify the target activity; any subset may
// be supplied and resolution falls back through them.
type ClockOutInput struct {
	Note     string
	Activity string
	Start    string
	TaskID   string

	// Attrs are end-of-activity attributes merged into the activity:
	// "notes" and "quality" land in their typed fields, the rest in the
	// attribute bag.
	Attrs map[string]any
}

// ClockOutOutput contains the result of the ClockOut operation.
type ClockOutOutput struct {
	Note     string `json:"note"`
	Activity string `json:"activity"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

// ClockOut closes the targeted activity's open clock, stamping its end and
// merging any end-of-activity attributes.
func ClockOut(env *Env, input ClockOutInput) (*ClockOutOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}

	ref := activity.TargetRef{
		Activity: strings.TrimSpace(input.Activity),
		Start:    strings.TrimSpace(input.Start),
		TaskID:   strings.TrimSpace(input.TaskID),
	}
	if ref.Activity == "" && ref.TaskID == "" {
		return nil, errors.NewInvalidRequest("activity or task id is required")
	}

	now := env.now()
	var label, start string
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		idx := activity.ResolveTarget(p, ref)
		if idx < 0 {
			return activity.Props{}, errors.NewNoOpenClock(targetName(ref))
		}
		entry := p.Activities[idx].OpenEntry()
		if entry < 0 {
			return activity.Props{}, errors.NewNoOpenClock(targetName(ref))
		}
		label = p.Activities[idx].Activity
		start = p.Activities[idx].Log[entry].Start
		return activity.ClockOut(p, idx, input.Attrs, now)
	})
	if err != nil {
		return nil, err
	}

	elapsed := activity.LogEntry{Start: start, End: activity.FormatStamp(now)}.Duration(0)
	return &ClockOutOutput{
		Note:     rel,
		Activity: label,
		Start:    start,
		End:      activity.FormatStamp(now),
		Duration: activity.FormatDuration(elapsed),
	}, nil
}

func targetName(ref activity.TargetRef) string {
	if ref.TaskID != "" {
		return ref.TaskID
	}
	return ref.Activity
}
