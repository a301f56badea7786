package vault

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is cached heading metadata for a note, the shape host editors
// expose from their metadata caches.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Line  int    `json:"line"` // 1-based
}

// Headings parses note text and returns its headings in document order.
// Headings inside fenced code blocks are naturally excluded because the
// parser never sees them as headings.
func Headings(src string) []Heading {
	source := []byte(src)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}
		seg := lines.At(0)
		headings = append(headings, Heading{
			Text:  string(bytes.TrimSpace(buf.Bytes())),
			Level: h.Level,
			Line:  1 + bytes.Count(source[:seg.Start], []byte("\n")),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}
