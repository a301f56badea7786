package ops

import (
	"github.com/jwhitman/tally/internal/vault"
)

// HeadingsInput contains parameters for the Headings operation.
type HeadingsInput struct {
	Note string
}

// HeadingRow is one heading in a note's outline.
type HeadingRow struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
	Line  int    `json:"line"`
}

// HeadingsOutput contains the result of the Headings operation.
type HeadingsOutput struct {
	Note     string       `json:"note"`
	Headings []HeadingRow `json:"headings"`
}

// Headings returns a note's heading outline in document order, the view a
// caller needs to decide where an activities block would land.
func Headings(env *Env, input HeadingsInput) (*HeadingsOutput, error) {
	rel, err := env.resolveNote(input.Note)
	if err != nil {
		return nil, err
	}
	text, err := env.Vault.ReadNote(rel)
	if err != nil {
		return nil, err
	}

	out := &HeadingsOutput{Note: rel, Headings: []HeadingRow{}}
	for _, h := range vault.Headings(text) {
		out.Headings = append(out.Headings, HeadingRow{Text: h.Text, Level: h.Level, Line: h.Line})
	}
	return out, nil
}
