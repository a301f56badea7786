package note

import (
	"regexp"
	"strings"
)

// FenceTag is the reserved language tag for activity blocks.
const FenceTag = "activities"

// GoalsFenceTag is the reserved language tag for goal declaration blocks.
const GoalsFenceTag = "goals"

// headingPattern matches markdown headings (h1-h6) at the start of a line.
// Trailing spaces/tabs are trimmed by the lazy group.
var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*?)[ \t]*$`)

// closingFencePattern matches a closing fence line: optional indentation and
// at least three backticks with nothing else.
var closingFencePattern = regexp.MustCompile("^[ \t]*`{3,}[ \t]*$")

// Lines splits document text into lines, normalizing CRLF endings. A final
// newline does not produce a trailing empty line; HadFinalNewline reports it
// separately so Join can restore it.
func Lines(text string) []string {
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	if norm == "" {
		return nil
	}
	lines := strings.Split(norm, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// HadFinalNewline reports whether text ends with a line terminator.
func HadFinalNewline(text string) bool {
	norm := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.HasSuffix(norm, "\n")
}

// Join reassembles lines into document text with canonical \n endings.
func Join(lines []string, finalNewline bool) string {
	out := strings.Join(lines, "\n")
	if finalNewline && out != "" {
		out += "\n"
	}
	return out
}

// Section is the line range of a heading's content.
type Section struct {
	// Start is the first content line index (the line after the heading),
	// End the exclusive upper bound.
	Start int
	End   int

	// HeadingLine is the index of the matched heading line, -1 when the
	// document has no heading with the target name.
	HeadingLine int

	// Level is the matched heading's nesting level.
	Level int

	// Found reports whether the heading was matched. When false the section
	// spans the entire document: documents without the heading still support
	// an activities block anywhere.
	Found bool
}

// FindSection locates the section of the heading whose trimmed text
// case-insensitively equals name. The section runs from the line after the
// heading up to (but excluding) the next heading of equal or shallower level.
func FindSection(lines []string, name string) Section {
	want := strings.ToLower(strings.TrimSpace(name))

	// An empty name means "no heading in particular": scan the whole
	// document rather than letting a blank heading line claim the match.
	if want == "" {
		return Section{Start: 0, End: len(lines), HeadingLine: -1, Found: false}
	}

	for i, line := range lines {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil || strings.ToLower(strings.TrimSpace(m[2])) != want {
			continue
		}
		level := len(m[1])
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if next := headingPattern.FindStringSubmatch(lines[j]); next != nil && len(next[1]) <= level {
				end = j
				break
			}
		}
		return Section{Start: i + 1, End: end, HeadingLine: i, Level: level, Found: true}
	}

	return Section{Start: 0, End: len(lines), HeadingLine: -1, Found: false}
}

// Block is a located fenced block within a section.
type Block struct {
	// Start and End are the line indexes of the opening and closing fence,
	// both inclusive.
	Start int
	End   int

	// Indent is the opening fence line's leading whitespace. It is stripped
	// from content lines when parsing and re-applied when serializing, which
	// is what lets blocks sit nested under list items.
	Indent string

	// Content holds the indent-stripped payload lines.
	Content []string

	// Found reports whether both an opening and a closing fence exist within
	// the section. An unterminated opening fence is treated as absent rather
	// than risk corrupting a partial block.
	Found bool
}

// ContentString returns the block payload as text.
func (b Block) ContentString() string {
	if len(b.Content) == 0 {
		return ""
	}
	return strings.Join(b.Content, "\n") + "\n"
}

// FindBlock locates the first fenced block tagged with tag inside sec.
func FindBlock(lines []string, sec Section, tag string) Block {
	for i := sec.Start; i < sec.End && i < len(lines); i++ {
		indent, ok := openingFence(lines[i], tag)
		if !ok {
			continue
		}
		for j := i + 1; j < sec.End && j < len(lines); j++ {
			if !closingFencePattern.MatchString(lines[j]) {
				continue
			}
			content := make([]string, 0, j-i-1)
			for _, line := range lines[i+1 : j] {
				content = append(content, strings.TrimPrefix(line, indent))
			}
			return Block{Start: i, End: j, Indent: indent, Content: content, Found: true}
		}
		// Opening fence without a closing one: treat as no block at all.
		return Block{Found: false}
	}
	return Block{Found: false}
}

// openingFence matches a fence line opening a block tagged with tag: leading
// whitespace, three backticks, and the tag immediately after with no space.
func openingFence(line, tag string) (indent string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	rest := strings.TrimRight(trimmed[len("```"):], " \t")
	if rest != tag {
		return "", false
	}
	return line[:len(line)-len(trimmed)], true
}

// RenderBlock renders a block payload into fenced lines with indent applied
// uniformly to every line including the fence delimiters.
func RenderBlock(payload, indent, tag string) []string {
	body := strings.Split(strings.TrimRight(payload, "\n"), "\n")
	lines := make([]string, 0, len(body)+2)
	lines = append(lines, indent+"```"+tag)
	for _, line := range body {
		if line == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, indent+line)
	}
	lines = append(lines, indent+"```")
	return lines
}

// ExtractBlock returns the payload of the first tag-fenced block under
// heading (or anywhere in the document when the heading is absent).
func ExtractBlock(text, heading, tag string) (string, bool) {
	lines := Lines(text)
	sec := FindSection(lines, heading)
	blk := FindBlock(lines, sec, tag)
	if !blk.Found {
		return "", false
	}
	return blk.ContentString(), true
}
