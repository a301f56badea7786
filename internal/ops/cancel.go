package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
)

// CancelInput contains parameters for the Cancel operation.
type CancelInput struct {
	Note   string
	TaskID string
}

// CancelOutput contains the result of the Cancel operation.
type CancelOutput struct {
	Note   string `json:"note"`
	TaskID string `json:"task_id"`
}

// Cancel discards the open clock of the activity linked to the task id.
// The open interval is removed entirely rather than closed.
func Cancel(env *Env, input CancelInput) (*CancelOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}

	taskID := strings.TrimSpace(input.TaskID)
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		return activity.CancelOpenClock(p, taskID)
	})
	if err != nil {
		return nil, err
	}

	return &CancelOutput{Note: rel, TaskID: taskID}, nil
}
