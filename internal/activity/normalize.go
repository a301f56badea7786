package activity

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize normalizes an activity name for grouping and goal matching:
// 1. Trim leading/trailing whitespace
// 2. Lowercase
// 3. Collapse internal whitespace to single spaces
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return s
}

// FormatDuration renders a duration in whole hours and minutes:
// 90m -> "1h 30m", 60m -> "1h", 45m -> "45m", 0 -> "0m".
// Sub-minute remainders are truncated.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	h := total / 60
	m := total % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// ParseGoalDuration parses a goal target written in the same style
// FormatDuration emits: "5h", "45m", "1h 30m". Spaces between components
// are tolerated. A bare number is taken as minutes.
func ParseGoalDuration(s string) (time.Duration, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if compact == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if !strings.ContainsAny(compact, "hms") {
		compact += "m"
	}
	d, err := time.ParseDuration(compact)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
