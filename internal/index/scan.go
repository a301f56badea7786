package index

import (
	"database/sql"
	"log"
	"time"

	"github.com/jwhitman/tally/internal/activity"
	"github.com/jwhitman/tally/internal/config"
	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/note"
	"github.com/jwhitman/tally/internal/vault"
)

// Scanner keeps the index in sync with the vault's activities blocks.
// Notes that fail to parse are logged and skipped; they never abort a scan.
type Scanner struct {
	vault *vault.Vault
	db    *sql.DB
	cfg   *config.Config
}

// NewScanner returns a scanner over v writing to db.
func NewScanner(v *vault.Vault, db *sql.DB, cfg *config.Config) *Scanner {
	return &Scanner{vault: v, db: db, cfg: cfg}
}

func (s *Scanner) heading() string {
	if s.cfg != nil && s.cfg.Heading != "" {
		return s.cfg.Heading
	}
	return config.DefaultHeading
}

// ScanAll reindexes every markdown note in the vault and prunes entries
// for notes that no longer exist. Unchanged notes (same mtime) are skipped.
// Returns the number of notes reindexed.
func (s *Scanner) ScanAll() (int, error) {
	notes, err := s.vault.Notes()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(notes))
	scanned := 0
	for _, rel := range notes {
		seen[rel] = true
		mtime, err := s.vault.Mtime(rel)
		if err != nil {
			log.Printf("tally: skipping %s: %v", rel, err)
			continue
		}
		if prev, ok, err := FileMtime(s.db, rel); err == nil && ok && prev.Unix() == mtime {
			continue
		}
		if err := s.ScanFile(rel); err != nil {
			return scanned, err
		}
		scanned++
	}

	indexed, err := Files(s.db)
	if err != nil {
		return scanned, err
	}
	for _, rel := range indexed {
		if !seen[rel] {
			if err := DeleteFile(s.db, rel); err != nil {
				return scanned, err
			}
		}
	}

	return scanned, nil
}

// Rebuild reindexes every note unconditionally, ignoring recorded mtimes,
// and prunes entries for deleted notes. Returns the number of notes indexed.
func (s *Scanner) Rebuild() (int, error) {
	notes, err := s.vault.Notes()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(notes))
	for _, rel := range notes {
		seen[rel] = true
		if err := s.ScanFile(rel); err != nil {
			return 0, err
		}
	}

	indexed, err := Files(s.db)
	if err != nil {
		return len(notes), err
	}
	for _, rel := range indexed {
		if !seen[rel] {
			if err := DeleteFile(s.db, rel); err != nil {
				return len(notes), err
			}
		}
	}

	return len(notes), nil
}

// ScanFile reindexes a single note. A note with no activities block, or
// with a malformed one, ends up with zero entries in the index.
func (s *Scanner) ScanFile(rel string) error {
	text, err := s.vault.ReadNote(rel)
	if err != nil {
		// Deleted between listing and reading; drop it.
		return DeleteFile(s.db, rel)
	}
	mtime, err := s.vault.Mtime(rel)
	if err != nil {
		return DeleteFile(s.db, rel)
	}

	entries := s.extract(rel, text)
	return ReplaceFile(s.db, rel, time.Unix(mtime, 0), entries)
}

// extract parses the activities block and flattens its log intervals.
// Log entries with unparseable start stamps are skipped with a warning,
// matching the aggregation rules.
func (s *Scanner) extract(rel, text string) []Entry {
	lines := note.Lines(text)
	sec := note.FindSection(lines, s.heading())
	block := note.FindBlock(lines, sec, note.FenceTag)
	if !block.Found {
		return nil
	}

	props, err := activity.ParseProps(block.ContentString())
	if err != nil {
		log.Printf("tally: %v", errors.NewBlockInvalid(rel, block.Start+1, err.Error()))
		return nil
	}

	var entries []Entry
	for _, a := range props.Activities {
		for _, e := range a.Log {
			start, err := activity.ParseStamp(e.Start)
			if err != nil {
				log.Printf("tally: skipping entry in %s: bad start %q", rel, e.Start)
				continue
			}
			ent := Entry{
				Path:      rel,
				Label:     a.Activity,
				LabelNorm: activity.Normalize(a.Activity),
				TaskIDs:   append([]string(nil), a.TaskIDs...),
				Start:     e.Start,
				StartUnix: start.Unix(),
				Line:      block.Start + 1,
			}
			if !e.Open() {
				end, err := activity.ParseStamp(e.End)
				if err != nil {
					log.Printf("tally: skipping entry in %s: bad end %q", rel, e.End)
					continue
				}
				v := end.Unix()
				ent.EndUnix = &v
			}
			entries = append(entries, ent)
		}
	}
	return entries
}
