package ops

import (
	"strings"

	"github.com/jwhitman/tally/internal/activity"
)

// AddTaskInput contains parameters for the AddTask operation.
type AddTaskInput struct {
	Note   string
	TaskID string
}

// AddTaskOutput contains the result of the AddTask operation.
type AddTaskOutput struct {
	Note     string `json:"note"`
	TaskID   string `json:"task_id"`
	Activity string `json:"activity"`
}

// AddTask links a task id to whichever activity currently holds the open
// clock. Linking an already-linked id is a no-op.
func AddTask(env *Env, input AddTaskInput) (*AddTaskOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}

	taskID := strings.TrimSpace(input.TaskID)
	var label string
	err = env.edit(rel, func(p activity.Props) (activity.Props, error) {
		out, err := activity.AddTaskToOpenActivity(p, taskID)
		if err != nil {
			return activity.Props{}, err
		}
		label = out.Activities[out.OpenActivity()].Activity
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return &AddTaskOutput{Note: rel, TaskID: taskID, Activity: label}, nil
}
