package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
)

// StartInput contains parameters for the Start operation.
type StartInput struct {
	Note     string
	Activity string

	// Attrs are optional type-specific attributes recorded on the new
	// activity.
	Attrs map[string]any
}

// StartOutput contains the result of the Start operation.
type StartOutput struct {
	Note     string `json:"note"`
	Activity string `json:"activity"`
	Start    string `json:"start"`
}

// Start begins a free-standing activity log with an open entry. Unlike
// ClockIn it always succeeds, even with another clock open: free-standing
// activities run alongside task clocks.
func Start(env *Env, input StartInput) (*StartOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Activity)
	if name == "" {
		return nil, errors.NewInvalidRequest("activity name is required")
	}

	now := env.now()
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		return activity.StartActivityLog(p, name, input.Attrs, now), nil
	})
	if err != nil {
		return nil, err
	}

	return &StartOutput{
		Note:     rel,
		Activity: name,
		Start:    activity.FormatStamp(now),
	}, nil
}
