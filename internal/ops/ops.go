package ops

import (
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/jwhitman/tally/internal/config"
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/index"
	"github.com/jwhitman/tally/internal/note"
	"github.com/jwhitman/tally/internal/vault"
	"github.com/oklog/ulid/v2"
)

// Clock supplies the current time. Operations stamp log entries through it
// so tests can pin the clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T. Test helper.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// Env bundles the dependencies every operation needs: the vault the notes
// live in, the derived report index, config, and a clock.
type Env struct {
	Vault *vault.Vault
	DB    *sql.DB
	Cfg   *config.Config
	Clock Clock
}

// now returns the operation timestamp, truncated to whole seconds to match
// the on-disk stamp precision.
func (e *Env) now() time.Time {
	var t time.Time
	if e.Clock != nil {
		t = e.Clock.Now()
	} else {
		t = time.Now()
	}
	return t.Truncate(time.Second)
}

func (e *Env) heading() string {
	if e.Cfg != nil && e.Cfg.Heading != "" {
		return e.Cfg.Heading
	}
	return config.DefaultHeading
}

// resolveNote picks the target note: the explicit input path, or the
// configured default note when none is given.
func (e *Env) resolveNote(input string) (string, error) {
	rel := strings.TrimSpace(input)
	if rel == "" && e.Cfg != nil {
		rel = e.Cfg.DefaultNote
	}
	if rel == "" {
		return "", errors.NewInvalidRequest("note is required (no default note configured)")
	}
	return rel, nil
}

// edit applies a mutation to the activities block of rel via a full
// read-modify-write of the note, then refreshes the note's index entries.
// A failing mutation leaves both the note and the index untouched.
func (e *Env) edit(rel string, fn note.MutationFunc) error {
	err := e.Vault.EditNote(rel, func(text string) (string, error) {
		return note.UpsertBlock(text, e.heading(), fn)
	})
	if err != nil {
		return err
	}
	if e.DB != nil {
		return index.NewScanner(e.Vault, e.DB, e.Cfg).ScanFile(rel)
	}
	return nil
}

// refresh incrementally reindexes the vault so reports see current data.
func (e *Env) refresh() error {
	if e.DB == nil {
		return errors.NewInternal(nil)
	}
	_, err := index.NewScanner(e.Vault, e.DB, e.Cfg).ScanAll()
	return err
}

// NewTaskID generates a ULID for clock-ins that don't carry an external
// task id.
func NewTaskID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
