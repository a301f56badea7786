package vault

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jwhitman/tally/internal/errors"
)

func newVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return v
}

func TestOpen_MissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestReadWriteNote(t *testing.T) {
	v := newVault(t)

	if err := v.WriteNote("daily/2025-01-01.md", "hello\n"); err != nil {
		t.Fatalf("WriteNote() error = %v", err)
	}
	text, err := v.ReadNote("daily/2025-01-01.md")
	if err != nil {
		t.Fatalf("ReadNote() error = %v", err)
	}
	if text != "hello\n" {
		t.Errorf("text = %q", text)
	}
}

func TestReadNote_Missing(t *testing.T) {
	v := newVault(t)
	_, err := v.ReadNote("nope.md")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestResolve_RejectsEscapes(t *testing.T) {
	v := newVault(t)
	for _, rel := range []string{"../outside.md", "/etc/passwd", "a/../../b.md", ""} {
		if _, err := v.ReadNote(rel); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ReadNote(%q) error = %v, want INVALID_REQUEST", rel, err)
		}
	}
}

func TestEditNote_CreatesMissingNote(t *testing.T) {
	v := newVault(t)

	err := v.EditNote("log.md", func(text string) (string, error) {
		if text != "" {
			t.Errorf("missing note presented as %q, want empty", text)
		}
		return "created\n", nil
	})
	if err != nil {
		t.Fatalf("EditNote() error = %v", err)
	}

	text, err := v.ReadNote("log.md")
	if err != nil || text != "created\n" {
		t.Fatalf("ReadNote() = %q, %v", text, err)
	}
}

func TestEditNote_ErrorWritesNothing(t *testing.T) {
	v := newVault(t)
	if err := v.WriteNote("log.md", "original\n"); err != nil {
		t.Fatalf("WriteNote() error = %v", err)
	}

	wantErr := errors.NewNoOpenClock("x")
	err := v.EditNote("log.md", func(string) (string, error) {
		return "clobbered\n", wantErr
	})
	if !errors.Is(err, errors.ErrNoOpenClock) {
		t.Fatalf("error = %v, want the mutation error", err)
	}

	text, _ := v.ReadNote("log.md")
	if text != "original\n" {
		t.Errorf("note changed despite error: %q", text)
	}
}

func TestNotes_ListsMarkdownSkippingDotDirs(t *testing.T) {
	v := newVault(t)
	files := map[string]string{
		"b.md":               "",
		"daily/a.md":         "",
		"notes.txt":          "",
		".obsidian/cache.md": "",
	}
	for rel, content := range files {
		abs := filepath.Join(v.Root(), filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	notes, err := v.Notes()
	if err != nil {
		t.Fatalf("Notes() error = %v", err)
	}
	want := []string{"b.md", "daily/a.md"}
	if !reflect.DeepEqual(notes, want) {
		t.Errorf("Notes() = %v, want %v", notes, want)
	}
}

func TestHeadings(t *testing.T) {
	src := "# Journal\n\ntext\n\n## Activities\n\n```md\n# not a heading\n```\n\n### Deep\n"
	headings := Headings(src)

	want := []Heading{
		{Text: "Journal", Level: 1, Line: 1},
		{Text: "Activities", Level: 2, Line: 5},
		{Text: "Deep", Level: 3, Line: 11},
	}
	if !reflect.DeepEqual(headings, want) {
		t.Errorf("Headings() = %+v, want %+v", headings, want)
	}
}

func TestHeadings_Empty(t *testing.T) {
	if got := Headings("just text\n"); len(got) != 0 {
		t.Errorf("Headings() = %+v, want none", got)
	}
}
