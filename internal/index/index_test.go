package index

import (
	"bytes"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwhitman/tally/internal/config"
	"github.com/jwhitman/tally/internal/vault"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInit_MigratesToCurrentVersion(t *testing.T) {
	db := newDB(t)

	version, err := GetUserVersion(db)
	if err != nil {
		t.Fatalf("GetUserVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_Idempotent(t *testing.T) {
	dir := t.TempDir()
	db1, err := Init(dir)
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}
	db1.Close()

	db2, err := Init(dir)
	if err != nil {
		t.Fatalf("second Init: %v", err)
	}
	defer db2.Close()

	version, err := GetUserVersion(db2)
	if err != nil {
		t.Fatalf("GetUserVersion: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func unix(s string) int64 {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return ts.Unix()
}

func closedEntry(path, label, start, end string) Entry {
	e := Entry{
		Path:      path,
		Label:     label,
		LabelNorm: label,
		Start:     start,
		StartUnix: unix(start),
		Line:      3,
	}
	v := unix(end)
	e.EndUnix = &v
	return e
}

func TestReplaceFile_RoundTrip(t *testing.T) {
	db := newDB(t)

	entries := []Entry{
		closedEntry("daily.md", "writing", "2025-01-01T09:00:00+00:00", "2025-01-01T10:00:00+00:00"),
		{
			Path:      "daily.md",
			Label:     "task",
			LabelNorm: "task",
			TaskIDs:   []string{"t-1", "t-2"},
			Start:     "2025-01-01T11:00:00+00:00",
			StartUnix: unix("2025-01-01T11:00:00+00:00"),
			Line:      3,
		},
	}
	if err := ReplaceFile(db, "daily.md", time.Unix(100, 0), entries); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	from := time.Unix(unix("2025-01-01T00:00:00+00:00"), 0)
	to := time.Unix(unix("2025-01-02T00:00:00+00:00"), 0)
	got, err := Overlapping(db, from, to)
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Label != "writing" || got[0].EndUnix == nil {
		t.Errorf("first entry = %+v, want closed writing", got[0])
	}
	if got[1].Label != "task" || !got[1].Open() {
		t.Errorf("second entry = %+v, want open task", got[1])
	}
	if len(got[1].TaskIDs) != 2 || got[1].TaskIDs[0] != "t-1" {
		t.Errorf("task ids = %v, want [t-1 t-2]", got[1].TaskIDs)
	}
}

func TestReplaceFile_ReplacesPriorEntries(t *testing.T) {
	db := newDB(t)

	first := []Entry{closedEntry("a.md", "old", "2025-01-01T09:00:00+00:00", "2025-01-01T10:00:00+00:00")}
	if err := ReplaceFile(db, "a.md", time.Unix(100, 0), first); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	second := []Entry{closedEntry("a.md", "new", "2025-01-01T09:00:00+00:00", "2025-01-01T10:00:00+00:00")}
	if err := ReplaceFile(db, "a.md", time.Unix(200, 0), second); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	got, err := Overlapping(db, time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 1 || got[0].Label != "new" {
		t.Errorf("entries = %+v, want single new entry", got)
	}

	mtime, ok, err := FileMtime(db, "a.md")
	if err != nil || !ok {
		t.Fatalf("FileMtime: ok=%v err=%v", ok, err)
	}
	if mtime.Unix() != 200 {
		t.Errorf("mtime = %d, want 200", mtime.Unix())
	}
}

func TestOverlapping_Bounds(t *testing.T) {
	db := newDB(t)

	entries := []Entry{
		closedEntry("a.md", "before", "2025-01-01T07:00:00+00:00", "2025-01-01T08:00:00+00:00"),
		closedEntry("a.md", "spanning", "2025-01-01T07:30:00+00:00", "2025-01-01T09:00:00+00:00"),
		closedEntry("a.md", "after", "2025-01-02T00:00:00+00:00", "2025-01-02T01:00:00+00:00"),
	}
	if err := ReplaceFile(db, "a.md", time.Unix(100, 0), entries); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	from := time.Unix(unix("2025-01-01T08:00:00+00:00"), 0)
	to := time.Unix(unix("2025-01-02T00:00:00+00:00"), 0)
	got, err := Overlapping(db, from, to)
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 1 || got[0].Label != "spanning" {
		t.Errorf("entries = %+v, want only spanning", got)
	}
}

func TestOpenEntries(t *testing.T) {
	db := newDB(t)

	entries := []Entry{
		closedEntry("a.md", "done", "2025-01-01T07:00:00+00:00", "2025-01-01T08:00:00+00:00"),
		{
			Path: "a.md", Label: "running", LabelNorm: "running",
			Start: "2025-01-01T09:00:00+00:00", StartUnix: unix("2025-01-01T09:00:00+00:00"), Line: 3,
		},
	}
	if err := ReplaceFile(db, "a.md", time.Unix(100, 0), entries); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}

	got, err := OpenEntries(db)
	if err != nil {
		t.Fatalf("OpenEntries: %v", err)
	}
	if len(got) != 1 || got[0].Label != "running" {
		t.Errorf("open entries = %+v, want only running", got)
	}
}

func TestDeleteFile(t *testing.T) {
	db := newDB(t)

	entries := []Entry{closedEntry("a.md", "x", "2025-01-01T07:00:00+00:00", "2025-01-01T08:00:00+00:00")}
	if err := ReplaceFile(db, "a.md", time.Unix(100, 0), entries); err != nil {
		t.Fatalf("ReplaceFile: %v", err)
	}
	if err := DeleteFile(db, "a.md"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if _, ok, _ := FileMtime(db, "a.md"); ok {
		t.Error("file still recorded after DeleteFile")
	}
	got, err := Overlapping(db, time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entries = %+v, want none", got)
	}
}

const scanNote = `# Daily

## Activities

` + "```activities" + `
- activity: writing
  log:
    - start: '2025-01-01T09:00:00+00:00'
      end: '2025-01-01T10:00:00+00:00'
- activity: task
  taskIds:
    - t-1
  log:
    - start: '2025-01-01T11:00:00+00:00'
` + "```" + `
`

func newScanner(t *testing.T) (*Scanner, *vault.Vault, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	v, err := vault.Open(dir)
	if err != nil {
		t.Fatalf("vault.Open: %v", err)
	}
	db := newDB(t)
	cfg := config.DefaultConfig()
	return NewScanner(v, db, cfg), v, db
}

func TestScanFile_IndexesIntervals(t *testing.T) {
	s, v, db := newScanner(t)
	if err := v.WriteNote("daily.md", scanNote); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	if err := s.ScanFile("daily.md"); err != nil {
		t.Fatalf("ScanFile: %v", err)
	}

	got, err := Overlapping(db, time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Label != "writing" || got[0].Open() {
		t.Errorf("first = %+v, want closed writing", got[0])
	}
	if got[1].Label != "task" || !got[1].Open() || len(got[1].TaskIDs) != 1 {
		t.Errorf("second = %+v, want open task with one task id", got[1])
	}
}

func TestScanFile_MalformedBlockYieldsNoEntries(t *testing.T) {
	s, v, db := newScanner(t)
	bad := "## Activities\n\n```activities\n- log:\n    - start: x\n```\n"
	if err := v.WriteNote("bad.md", bad); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	if err := s.ScanFile("bad.md"); err != nil {
		t.Fatalf("ScanFile: %v", err)
	}

	got, err := Overlapping(db, time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("Overlapping: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entries = %+v, want none", got)
	}
}

func TestScanFile_MalformedBlockReportsPathAndLine(t *testing.T) {
	s, v, _ := newScanner(t)
	bad := "## Activities\n\n```activities\n- log:\n    - start: x\n```\n"
	if err := v.WriteNote("bad.md", bad); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)

	if err := s.ScanFile("bad.md"); err != nil {
		t.Fatalf("ScanFile: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "BLOCK_INVALID") {
		t.Errorf("log = %q, want BLOCK_INVALID code", out)
	}
	if !strings.Contains(out, "bad.md:3") {
		t.Errorf("log = %q, want bad.md:3 location", out)
	}
}

func TestScanAll_PrunesDeletedNotes(t *testing.T) {
	s, v, db := newScanner(t)
	if err := v.WriteNote("keep.md", scanNote); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}
	if err := v.WriteNote("drop.md", scanNote); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	if _, err := s.ScanAll(); err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if err := os.Remove(filepath.Join(v.Root(), "drop.md")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.ScanAll(); err != nil {
		t.Fatalf("second ScanAll: %v", err)
	}

	paths, err := Files(db)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(paths) != 1 || paths[0] != "keep.md" {
		t.Errorf("files = %v, want [keep.md]", paths)
	}
}

func TestScanAll_SkipsUnchangedNotes(t *testing.T) {
	s, v, _ := newScanner(t)
	if err := v.WriteNote("daily.md", scanNote); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	n, err := s.ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if n != 1 {
		t.Errorf("first scan reindexed %d, want 1", n)
	}

	n, err = s.ScanAll()
	if err != nil {
		t.Fatalf("second ScanAll: %v", err)
	}
	if n != 0 {
		t.Errorf("second scan reindexed %d, want 0", n)
	}
}
