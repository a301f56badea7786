package note

import (
	"log"

	"github.com/jwhitman/tally/internal/activity"
)

// MutationFunc transforms a parsed activity collection into a new one.
type MutationFunc func(activity.Props) (activity.Props, error)

// UpsertBlock applies fn to the activities block under heading and splices
// the re-serialized block back into text.
//
// The block is parsed fresh from text on every call; there is no in-memory
// authority. A malformed existing block is logged and treated as empty
// rather than aborting: notes are hand-edited and transiently break. A
// failing fn aborts before any text is produced, so callers can guarantee
// read-then-throw, never partial-write.
//
// After the call exactly one activities block exists in the targeted
// section, no other content is altered, and line endings are canonical \n.
func UpsertBlock(text, heading string, fn MutationFunc) (string, error) {
	lines := Lines(text)
	finalNewline := HadFinalNewline(text) || text == ""

	sec := FindSection(lines, heading)
	blk := FindBlock(lines, sec, FenceTag)

	var props activity.Props
	if blk.Found {
		parsed, err := activity.ParseProps(blk.ContentString())
		if err != nil {
			log.Printf("tally: invalid activities block (lines %d-%d): %v; treating as empty",
				blk.Start+1, blk.End+1, err)
		} else {
			props = parsed
		}
	}

	updated, err := fn(props)
	if err != nil {
		return "", err
	}

	payload, err := activity.MarshalProps(updated)
	if err != nil {
		return "", err
	}
	rendered := RenderBlock(payload, blk.Indent, FenceTag)

	switch {
	case blk.Found:
		// Replace the existing block in place.
		out := make([]string, 0, len(lines)-(blk.End-blk.Start+1)+len(rendered))
		out = append(out, lines[:blk.Start]...)
		out = append(out, rendered...)
		out = append(out, lines[blk.End+1:]...)
		return Join(out, finalNewline), nil

	case sec.Found:
		// Insert at the top of the section, blank-separated from whatever
		// precedes it (usually the heading itself).
		insert := rendered
		if sec.Start > 0 && lines[sec.Start-1] != "" {
			insert = append([]string{""}, rendered...)
		}
		out := make([]string, 0, len(lines)+len(insert))
		out = append(out, lines[:sec.Start]...)
		out = append(out, insert...)
		out = append(out, lines[sec.Start:]...)
		return Join(out, finalNewline), nil

	default:
		// No heading anywhere: synthesize it at document end.
		out := lines
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
		out = append(out, "# "+heading, "")
		out = append(out, rendered...)
		return Join(out, true), nil
	}
}
