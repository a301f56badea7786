package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
)

// ClockInInput contains parameters for the ClockIn operation.
type ClockInInput struct {
	// Note is the vault-relative note path. Empty uses the configured
	// default note.
	Note string

	// TaskID is the external task identifier to clock in against. Empty
	// generates a fresh id.
	TaskID string
}

// ClockInOutput contains the result of the ClockIn operation.
type ClockInOutput struct {
	Note      string `json:"note"`
	TaskID    string `json:"task_id"`
	Start     string `json:"start"`
	Generated bool   `json:"generated_task_id,omitempty"`
}

// ClockIn opens a clock for a task in the note's activities block. The
// task's activity is found by its linked id or created; a clock already
// open anywhere in the block rejects the clock-in.
func ClockIn(env *Env, input ClockInInput) (*ClockInOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}

	taskID := strings.TrimSpace(input.TaskID)
	generated := false
	if taskID == "" {
		taskID = NewTaskID()
		generated = true
	}

	now := env.now()
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		return activity.AddOpenClock(p, taskID, now)
	})
	if err != nil {
		return nil, err
	}

	return &ClockInOutput{
		Note:      rel,
		TaskID:    taskID,
		Start:     activity.FormatStamp(now),
		Generated: generated,
	}, nil
}
