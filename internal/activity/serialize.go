package activity

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// MarshalProps renders a collection to its canonical block payload.
// Field order is fixed, taskIds is omitted entirely when empty, and
// timestamps are single-quoted so hand editors see them as plain strings.
func MarshalProps(p Props) (string, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, a := range p.Activities {
		node, err := activityNode(a)
		if err != nil {
			return "", err
		}
		seq.Content = append(seq.Content, node)
	}
	if len(seq.Content) == 0 {
		seq.Style = yaml.FlowStyle // renders as []
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "activities", seq)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("encode activities: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode activities: %w", err)
	}
	return buf.String(), nil
}

func activityNode(a Activity) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	appendPair(node, "activity", scalar(a.Activity, 0))

	if len(a.TaskIDs) > 0 {
		ids := &yaml.Node{Kind: yaml.SequenceNode}
		for _, id := range a.TaskIDs {
			ids.Content = append(ids.Content, scalar(id, 0))
		}
		appendPair(node, "taskIds", ids)
	}

	if len(a.Log) > 0 {
		log := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range a.Log {
			entry := &yaml.Node{Kind: yaml.MappingNode}
			appendPair(entry, "start", scalar(e.Start, yaml.SingleQuotedStyle))
			if e.End != "" {
				appendPair(entry, "end", scalar(e.End, yaml.SingleQuotedStyle))
			}
			log.Content = append(log.Content, entry)
		}
		appendPair(node, "log", log)
	}

	if a.Quality != nil {
		q := &yaml.Node{}
		if err := q.Encode(*a.Quality); err != nil {
			return nil, fmt.Errorf("encode quality: %w", err)
		}
		appendPair(node, "quality", q)
	}

	if a.Notes != "" {
		appendPair(node, "notes", scalar(a.Notes, 0))
	}

	// Attribute bags last, in stable key order.
	keys := make([]string, 0, len(a.Attrs))
	for k := range a.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := &yaml.Node{}
		if err := v.Encode(a.Attrs[k]); err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		appendPair(node, k, v)
	}

	return node, nil
}

func scalar(value string, style yaml.Style) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: style}
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, scalar(key, 0), value)
}
