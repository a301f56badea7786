package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwhitman/tally/internal/errors"
)

// Mutation operations. Each takes a collection value and returns a new one;
// inputs are never modified in place. The caller injects now so tests can
// run against a fixed clock.

// AddOpenClock finds or creates the task-linked activity for taskID and
// appends a new open log entry starting at now. At most one clock may be
// open across the whole collection.
func AddOpenClock(p Props, taskID string, now time.Time) (Props, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Props{}, errors.NewInvalidRequest("task id is required")
	}

	if open := p.OpenActivity(); open >= 0 {
		return Props{}, errors.NewClockAlreadyOpen(describe(p.Activities[open]))
	}

	out := p.Clone()
	entry := LogEntry{Start: FormatStamp(now)}

	for i := range out.Activities {
		if out.Activities[i].HasTask(taskID) {
			out.Activities[i].Log = append(out.Activities[i].Log, entry)
			return out, nil
		}
	}

	out.Activities = append(out.Activities, Activity{
		Activity: TaskKind,
		TaskIDs:  []string{taskID},
		Log:      []LogEntry{entry},
	})
	return out, nil
}

// StartActivityLog appends a brand-new, task-unlinked activity with one open
// log entry, shallow-merging any type-specific attributes. It never fails:
// a deliberate escape hatch from the one-open-clock rule for free-standing
// activities started alongside a task clock.
func StartActivityLog(p Props, name string, attrs map[string]any, now time.Time) Props {
	out := p.Clone()
	act := Activity{
		Activity: strings.TrimSpace(name),
		Log:      []LogEntry{{Start: FormatStamp(now)}},
	}
	mergeAttrs(&act, attrs)
	out.Activities = append(out.Activities, act)
	return out
}

// AddTaskToOpenActivity links taskID to whichever activity currently holds
// the open clock. Idempotent: linking an already-linked id is a no-op.
func AddTaskToOpenActivity(p Props, taskID string) (Props, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Props{}, errors.NewInvalidRequest("task id is required")
	}

	open := p.OpenActivity()
	if open < 0 {
		return Props{}, errors.NewNoOpenClock("")
	}

	out := p.Clone()
	if !out.Activities[open].HasTask(taskID) {
		out.Activities[open].TaskIDs = append(out.Activities[open].TaskIDs, taskID)
	}
	return out, nil
}

// ClockOut closes the open log entry of the activity at index, stamping its
// end with now and merging optional end-of-activity attributes (quality,
// notes, type-specific fields).
func ClockOut(p Props, index int, attrs map[string]any, now time.Time) (Props, error) {
	if index < 0 || index >= len(p.Activities) {
		return Props{}, errors.NewNoOpenClock("")
	}
	entry := p.Activities[index].OpenEntry()
	if entry < 0 {
		return Props{}, errors.NewNoOpenClock(describe(p.Activities[index]))
	}

	out := p.Clone()
	out.Activities[index].Log[entry].End = FormatStamp(now)
	mergeAttrs(&out.Activities[index], attrs)
	return out, nil
}

// CancelOpenClock discards the open log entry of the activity linked to
// taskID. The entry is spliced out entirely; its interval is lost.
func CancelOpenClock(p Props, taskID string) (Props, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Props{}, errors.NewInvalidRequest("task id is required")
	}

	for i, a := range p.Activities {
		entry := a.OpenEntry()
		if entry < 0 || !a.HasTask(taskID) {
			continue
		}
		out := p.Clone()
		log := out.Activities[i].Log
		out.Activities[i].Log = append(log[:entry], log[entry+1:]...)
		return out, nil
	}
	return Props{}, errors.NewNoOpenClock(taskID)
}

// AppendNote appends a trimmed note to the activity at index, newline-joined
// with any existing notes. A note that is blank after trimming is a no-op.
func AppendNote(p Props, index int, note string) (Props, error) {
	if index < 0 || index >= len(p.Activities) {
		return Props{}, errors.NewNotFound(fmt.Sprintf("activity %d", index))
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return p.Clone(), nil
	}

	out := p.Clone()
	appendNotes(&out.Activities[index], note)
	return out, nil
}

func appendNotes(a *Activity, note string) {
	if a.Notes == "" {
		a.Notes = note
		return
	}
	a.Notes = a.Notes + "\n" + note
}

// mergeAttrs folds end-of-activity attributes into an activity. "notes" and
// "quality" land in their typed fields; everything else goes into the
// attribute bag, with nested maps merged key-by-key and other values replaced.
func mergeAttrs(a *Activity, attrs map[string]any) {
	for k, v := range attrs {
		switch k {
		case "notes":
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				appendNotes(a, strings.TrimSpace(s))
			}
		case "quality":
			if q, ok := toFloat(v); ok {
				a.Quality = &q
			}
		default:
			if a.Attrs == nil {
				a.Attrs = make(map[string]any)
			}
			existing, haveMap := a.Attrs[k].(map[string]any)
			incoming, isMap := v.(map[string]any)
			if haveMap && isMap {
				for kk, vv := range incoming {
					existing[kk] = cloneValue(vv)
				}
			} else {
				a.Attrs[k] = cloneValue(v)
			}
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// describe names an activity for error messages: its label, or its first
// task link for task-typed activities.
func describe(a Activity) string {
	if a.Activity == TaskKind && len(a.TaskIDs) > 0 {
		return a.TaskIDs[0]
	}
	return a.Activity
}
