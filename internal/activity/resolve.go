package activity

// TargetRef identifies which activity an editor-level operation is aimed at.
// A UI-selected task does not always carry its originating activity's
// identity, so resolution falls back through progressively weaker matches.
type TargetRef struct {
	// Activity is the display label, when known.
	Activity string

	// Start is the exact open-clock start timestamp, when known. Together
	// with Activity it forms an open-clock fingerprint.
	Start string

	// TaskID is the linked external task id, when known.
	TaskID string
}

// ResolveTarget returns the index of the activity ref points at, or -1.
// Priority: open-clock fingerprint (name + exact open start), then linked
// task id for task-typed activities, then name among currently-open
// activities. With multiple open clocks sharing a name the fingerprint is
// the only unambiguous handle, which is why it's checked first.
func ResolveTarget(p Props, ref TargetRef) int {
	if ref.Activity != "" && ref.Start != "" {
		for i, a := range p.Activities {
			if Normalize(a.Activity) != Normalize(ref.Activity) {
				continue
			}
			entry := a.OpenEntry()
			if entry >= 0 && a.Log[entry].Start == ref.Start {
				return i
			}
		}
	}

	if ref.TaskID != "" {
		for i, a := range p.Activities {
			if a.Activity == TaskKind && a.HasTask(ref.TaskID) {
				return i
			}
		}
	}

	if ref.Activity != "" {
		for i, a := range p.Activities {
			if a.OpenEntry() >= 0 && Normalize(a.Activity) == Normalize(ref.Activity) {
				return i
			}
		}
	}

	return -1
}
