package ops

import (
	"time"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
)

// ActiveRow is one currently-running clock.
type ActiveRow struct {
	Note    string   `json:"note"`
	Label   string   `json:"label"`
	TaskIDs []string `json:"task_ids,omitempty"`
	Start   string   `json:"start"`
	Elapsed string   `json:"elapsed"`
}

// ActiveOutput contains the result of the Active operation.
type ActiveOutput struct {
	Clocks []ActiveRow `json:"clocks"`
}

// Active lists every open clock across the vault with live elapsed time,
// oldest first.
func Active(env *Env) (*ActiveOutput, error) {
	if err := env.refresh(); err != nil {
		return nil, err
	}

	entries, err := index.OpenEntries(env.DB)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := env.now()
	out := &ActiveOutput{Clocks: []ActiveRow{}}
	for _, e := range entries {
		elapsed := now.Sub(time.Unix(e.StartUnix, 0))
		if elapsed < 0 {
			elapsed = 0
		}
		out.Clocks = append(out.Clocks, ActiveRow{
			Note:    e.Path,
			Label:   e.Label,
			TaskIDs: e.TaskIDs,
			Start:   e.Start,
			Elapsed: activity.FormatDuration(elapsed),
		})
	}
	return out, nil
}
