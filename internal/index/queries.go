package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one indexed log interval from a note's activities block.
// An open interval has EndUnix == nil.
type Entry struct {
	Path      string
	Label     string
	LabelNorm string
	TaskIDs   []string
	Start     string
	StartUnix int64
	EndUnix   *int64
	Line      int
}

// Open reports whether the entry has no end time.
func (e *Entry) Open() bool {
	return e.EndUnix == nil
}

// ReplaceFile atomically replaces all indexed entries for path.
// Deletes existing rows and inserts the new set in a single transaction.
func ReplaceFile(db *sql.DB, path string, mtime time.Time, entries []Entry) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to clear entries for %s: %w", path, err)
	}

	now := time.Now().Unix()
	_, err = tx.Exec(
		`INSERT INTO files (path, mtime, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime, indexed_at = excluded.indexed_at`,
		path, mtime.Unix(), now,
	)
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", path, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO entries (path, label, label_norm, task_ids, start, start_unix, end_unix, line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var taskIDs any
		if len(e.TaskIDs) > 0 {
			b, err := json.Marshal(e.TaskIDs)
			if err != nil {
				return fmt.Errorf("failed to marshal task ids: %w", err)
			}
			taskIDs = string(b)
		}
		var endUnix any
		if e.EndUnix != nil {
			endUnix = *e.EndUnix
		}
		if _, err := stmt.Exec(path, e.Label, e.LabelNorm, taskIDs, e.Start, e.StartUnix, endUnix, e.Line); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its entries from the index.
func DeleteFile(db *sql.DB, path string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete entries for %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	return tx.Commit()
}

// FileMtime returns the recorded mtime for path, or false if not indexed.
func FileMtime(db *sql.DB, path string) (time.Time, bool, error) {
	var mtime int64
	err := db.QueryRow("SELECT mtime FROM files WHERE path = ?", path).Scan(&mtime)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query file mtime: %w", err)
	}
	return time.Unix(mtime, 0), true, nil
}

// Files returns all indexed paths.
func Files(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Overlapping returns entries whose interval overlaps [from, to).
// Open entries overlap when they started before to.
func Overlapping(db *sql.DB, from, to time.Time) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT path, label, label_norm, task_ids, start, start_unix, end_unix, line
		 FROM entries
		 WHERE start_unix < ?
		   AND (end_unix IS NULL OR end_unix > ?)
		 ORDER BY start_unix, path`,
		to.Unix(), from.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// OpenEntries returns all entries with no end time, oldest first.
func OpenEntries(db *sql.DB) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT path, label, label_norm, task_ids, start, start_unix, end_unix, line
		 FROM entries
		 WHERE end_unix IS NULL
		 ORDER BY start_unix, path`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query open entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var taskIDs sql.NullString
		var endUnix sql.NullInt64
		if err := rows.Scan(&e.Path, &e.Label, &e.LabelNorm, &taskIDs, &e.Start, &e.StartUnix, &endUnix, &e.Line); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if taskIDs.Valid && taskIDs.String != "" {
			if err := json.Unmarshal([]byte(taskIDs.String), &e.TaskIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal task ids: %w", err)
			}
		}
		if endUnix.Valid {
			v := endUnix.Int64
			e.EndUnix = &v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
