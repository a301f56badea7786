package activity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GoalRow is a duration total joined with its declared goal, if any.
type GoalRow struct {
	Label    string         `json:"label"`
	Key      string         `json:"key"`
	Duration time.Duration  `json:"duration"`
	Goal     *time.Duration `json:"goal,omitempty"`
}

// MergeWithGoals joins aggregated totals with declared goals on normalized
// activity name. Each goal is consumed at most once. Totals without a goal
// pass through with Goal nil; goals with zero logged time become synthetic
// zero-duration rows so the goal stays visible. Output is sorted by label,
// case-insensitively.
func MergeWithGoals(totals []Total, goals []Goal) []GoalRow {
	consumed := make([]bool, len(goals))

	rows := make([]GoalRow, 0, len(totals)+len(goals))
	for _, t := range totals {
		row := GoalRow{Label: t.Label, Key: t.Key, Duration: t.Duration}
		for i, g := range goals {
			if !consumed[i] && Normalize(g.Activity) == t.Key {
				target := g.Target
				row.Goal = &target
				consumed[i] = true
				break
			}
		}
		rows = append(rows, row)
	}

	for i, g := range goals {
		if consumed[i] {
			continue
		}
		target := g.Target
		rows = append(rows, GoalRow{
			Label: g.Activity,
			Key:   Normalize(g.Activity),
			Goal:  &target,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Label) < strings.ToLower(rows[j].Label)
	})
	return rows
}

// goalDoc is the declared shape of a goals block entry. The goal value may
// be a duration string ("5h", "1h 30m") or a bare number of minutes.
type goalDoc struct {
	Activity string `yaml:"activity"`
	Goal     any    `yaml:"goal"`
}

// ParseGoals parses a goals block: a YAML list of {activity, goal} pairs.
func ParseGoals(src string) ([]Goal, error) {
	var docs []goalDoc
	if err := yaml.Unmarshal([]byte(src), &docs); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	goals := make([]Goal, 0, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Activity) == "" {
			return nil, &ValidationError{Msg: fmt.Sprintf("goal %d: activity name missing", i)}
		}
		target, err := goalTarget(d.Goal)
		if err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("goal %q: %v", d.Activity, err)}
		}
		goals = append(goals, Goal{Activity: d.Activity, Target: target})
	}
	return goals, nil
}

func goalTarget(v any) (time.Duration, error) {
	switch g := v.(type) {
	case string:
		return ParseGoalDuration(g)
	case int:
		return time.Duration(g) * time.Minute, nil
	case float64:
		return time.Duration(g * float64(time.Minute)), nil
	case nil:
		return 0, fmt.Errorf("goal duration missing")
	default:
		return 0, fmt.Errorf("goal must be a duration string or minutes")
	}
}
