package activity

import "time"

// StampLayout is the timestamp layout used in persisted log entries.
// RFC 3339 with a numeric UTC offset ("+00:00" rather than "Z"), matching
// what hand-edited blocks conventionally contain.
const StampLayout = "2006-01-02T15:04:05-07:00"

// TaskKind is the activity label used for task-linked activities.
const TaskKind = "task"

// LogEntry is a single clock interval. End is empty while the clock is open.
// Timestamps are kept as strings: the note text is the source of truth and
// unparseable values must survive round-trips untouched.
type LogEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end,omitempty"`
}

// Open reports whether the entry has no end timestamp.
func (e LogEntry) Open() bool {
	return e.End == ""
}

// Duration returns the entry's length, or fallback when either timestamp
// fails strict parsing or the interval is negative.
func (e LogEntry) Duration(fallback time.Duration) time.Duration {
	start, err := ParseStamp(e.Start)
	if err != nil {
		return fallback
	}
	end, err := ParseStamp(e.End)
	if err != nil {
		return fallback
	}
	if end.Before(start) {
		return fallback
	}
	return end.Sub(start)
}

// Activity is a named, optionally task-linked unit of tracked time.
type Activity struct {
	// Activity is the display label, or TaskKind for task-linked entries.
	Activity string `yaml:"activity"`

	// TaskIDs links this activity to zero or more external tasks.
	TaskIDs []string `yaml:"taskIds,omitempty"`

	// Log is the chronological record of clock intervals.
	Log []LogEntry `yaml:"log,omitempty"`

	// Notes is free text, newline-accumulated by AppendNote.
	Notes string `yaml:"notes,omitempty"`

	// Quality is a 1-10 subjective rating set at close time.
	Quality *float64 `yaml:"quality,omitempty"`

	// Attrs holds activity-type-specific attribute bags and any other keys
	// the validator didn't recognize, preserved verbatim through round-trips.
	Attrs map[string]any `yaml:",inline"`
}

// OpenEntry returns the index of the activity's open log entry, or -1.
func (a Activity) OpenEntry() int {
	for i, e := range a.Log {
		if e.Open() {
			return i
		}
	}
	return -1
}

// HasTask reports whether taskID is among the activity's task links.
func (a Activity) HasTask(taskID string) bool {
	for _, id := range a.TaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// Props is the envelope persisted inside an activities block.
type Props struct {
	Activities []Activity `yaml:"activities"`
}

// OpenActivity returns the index of the first activity holding an open log
// entry, or -1 if no clock is running anywhere in the collection.
func (p Props) OpenActivity() int {
	for i, a := range p.Activities {
		if a.OpenEntry() >= 0 {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. Mutation operations copy first so callers'
// values are never changed in place.
func (p Props) Clone() Props {
	out := Props{}
	if p.Activities == nil {
		return out
	}
	out.Activities = make([]Activity, len(p.Activities))
	for i, a := range p.Activities {
		out.Activities[i] = cloneActivity(a)
	}
	return out
}

func cloneActivity(a Activity) Activity {
	c := a
	if a.TaskIDs != nil {
		c.TaskIDs = append([]string(nil), a.TaskIDs...)
	}
	if a.Log != nil {
		c.Log = append([]LogEntry(nil), a.Log...)
	}
	if a.Quality != nil {
		q := *a.Quality
		c.Quality = &q
	}
	if a.Attrs != nil {
		c.Attrs = cloneValue(a.Attrs).(map[string]any)
	}
	return c
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// ParseStamp parses a persisted timestamp under strict RFC 3339 rules.
func ParseStamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// FormatStamp renders t in the persisted timestamp layout.
func FormatStamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Goal is an externally declared weekly target duration for an activity,
// matched to aggregated totals by normalized name. Goals are read from a
// separate note and never written back by this package.
type Goal struct {
	Activity string
	Target   time.Duration
}
