package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
)

// NoteInput contains parameters for the Note operation.
type NoteInput struct {
	Note string

	// Activity selects which activity receives the note. Empty targets the
	// activity holding the open clock.
	Activity string

	// Text is the note to append.
	Text string
}

// NoteOutput contains the result of the Note operation.
type NoteOutput struct {
	Note     string `json:"note"`
	Activity string `json:"activity"`
}

// Note appends text to an activity's notes, newline-joined with whatever
// is already there.
func Note(env *Env, input NoteInput) (*NoteOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	name := strings.TrimSpace(input.Activity)
	var label string
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		idx := -1
		if name != "" {
			for i, a := range p.Activities {
				if activity.Normalize(a.Activity) == activity.Normalize(name) {
					idx = i
					break
				}
			}
			if idx < 0 {
				return activity.Props{}, errors.NewNotFound(name)
			}
		} else {
			idx = p.OpenActivity()
			if idx < 0 {
				return activity.Props{}, errors.NewNoOpenClock("")
			}
		}
		label = p.Activities[idx].Activity
		return activity.AppendNote(p, idx, input.Text)
	})
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Note: rel, Activity: label}, nil
}
