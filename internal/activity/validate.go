package activity

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ValidationError names the failing region of a block by line number
// (1-based within the block content).
type ValidationError struct {
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func invalid(node *yaml.Node, format string, args ...any) *ValidationError {
	line := 0
	if node != nil {
		line = node.Line
	}
	return &ValidationError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// ParseProps parses and validates block content into a Props collection.
//
// Three historical input shapes are accepted and normalized to the canonical
// envelope before validation proper:
//  1. a bare sequence of activity mappings
//  2. a mapping with an "activities" list, optionally carrying a legacy
//     flat "log" that is merged into the first activity's log
//  3. a legacy single-activity mapping (scalar "activity" at top level)
//
// A mapping that matches none of these but wraps one of them in a single
// nested container is unwrapped one level (older exports nested the
// envelope under a tool-specific key).
func ParseProps(src string) (Props, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return Props{}, &ValidationError{Msg: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Props{}, nil
	}
	return decodeRoot(doc.Content[0], true)
}

func decodeRoot(root *yaml.Node, allowUnwrap bool) (Props, error) {
	switch root.Kind {
	case yaml.SequenceNode:
		acts, err := decodeActivities(root)
		if err != nil {
			return Props{}, err
		}
		return Props{Activities: acts}, nil

	case yaml.MappingNode:
		activitiesNode := mapValue(root, "activities")
		flatLog := mapValue(root, "log")
		legacyName := mapValue(root, "activity")

		switch {
		case legacyName != nil:
			// Shape 3: the whole mapping is one activity.
			act, err := decodeActivity(root)
			if err != nil {
				return Props{}, err
			}
			return Props{Activities: []Activity{act}}, nil

		case activitiesNode != nil || flatLog != nil:
			var acts []Activity
			if activitiesNode != nil {
				if activitiesNode.Kind != yaml.SequenceNode {
					return Props{}, invalid(activitiesNode, "activities must be a list")
				}
				var err error
				acts, err = decodeActivities(activitiesNode)
				if err != nil {
					return Props{}, err
				}
			}
			if flatLog != nil {
				entries, err := decodeLog(flatLog)
				if err != nil {
					return Props{}, err
				}
				if len(acts) == 0 {
					acts = []Activity{{Activity: TaskKind}}
				}
				acts[0].Log = append(entries, acts[0].Log...)
			}
			return Props{Activities: acts}, nil

		case allowUnwrap:
			// Older exports wrapped the envelope under a single container key.
			if inner := singleMappingValue(root); inner != nil {
				return decodeRoot(inner, false)
			}
		}
		return Props{}, invalid(root, "no activities found")

	default:
		return Props{}, invalid(root, "block must be a list or mapping")
	}
}

func decodeActivities(seq *yaml.Node) ([]Activity, error) {
	acts := make([]Activity, 0, len(seq.Content))
	for _, item := range seq.Content {
		act, err := decodeActivity(item)
		if err != nil {
			return nil, err
		}
		acts = append(acts, act)
	}
	return acts, nil
}

func decodeActivity(node *yaml.Node) (Activity, error) {
	if node.Kind != yaml.MappingNode {
		return Activity{}, invalid(node, "activity entry must be a mapping")
	}

	var act Activity
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		value := node.Content[i+1]

		switch key.Value {
		case "activity":
			if err := value.Decode(&act.Activity); err != nil {
				return Activity{}, invalid(value, "activity must be a string")
			}
		case "taskIds":
			if value.Kind != yaml.SequenceNode {
				return Activity{}, invalid(value, "taskIds must be a list")
			}
			for _, id := range value.Content {
				var s string
				if err := id.Decode(&s); err != nil {
					return Activity{}, invalid(id, "task id must be a string")
				}
				act.TaskIDs = append(act.TaskIDs, s)
			}
		case "log":
			entries, err := decodeLog(value)
			if err != nil {
				return Activity{}, err
			}
			act.Log = entries
		case "notes":
			if err := value.Decode(&act.Notes); err != nil {
				return Activity{}, invalid(value, "notes must be a string")
			}
		case "quality":
			var q float64
			if err := value.Decode(&q); err != nil {
				return Activity{}, invalid(value, "quality must be a number")
			}
			act.Quality = &q
		default:
			// Unknown keys are activity-type attribute bags; keep them opaque.
			var v any
			if err := value.Decode(&v); err != nil {
				return Activity{}, invalid(value, "cannot decode %q", key.Value)
			}
			if act.Attrs == nil {
				act.Attrs = make(map[string]any)
			}
			act.Attrs[key.Value] = v
		}
	}

	if act.Activity == "" {
		return Activity{}, invalid(node, "activity name missing")
	}
	return act, nil
}

func decodeLog(node *yaml.Node) ([]LogEntry, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, invalid(node, "log must be a list")
	}
	entries := make([]LogEntry, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, invalid(item, "log entry must be a mapping")
		}
		var entry LogEntry
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i]
			value := item.Content[i+1]
			switch key.Value {
			case "start":
				if err := value.Decode(&entry.Start); err != nil {
					return nil, invalid(value, "start must be a string")
				}
			case "end":
				if err := value.Decode(&entry.End); err != nil {
					return nil, invalid(value, "end must be a string")
				}
			}
		}
		if entry.Start == "" {
			return nil, invalid(item, "log entry missing start")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// mapValue returns the value node for key in a mapping, or nil.
func mapValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// singleMappingValue returns the sole value of a one-entry mapping when that
// value is itself a mapping, or nil otherwise.
func singleMappingValue(mapping *yaml.Node) *yaml.Node {
	if len(mapping.Content) != 2 {
		return nil
	}
	if v := mapping.Content[1]; v.Kind == yaml.MappingNode {
		return v
	}
	return nil
}
