package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwhitman/tally/internal/errors"
)

// Vault is the external note store: a directory of markdown files. It is the
// only component that touches the filesystem for note content; everything
// above it works on plain text.
type Vault struct {
	root string
}

// Open opens a vault rooted at dir.
func Open(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve vault dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.NewNotFound(dir)
	}
	if !info.IsDir() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("vault path is not a directory: %s", dir))
	}
	return &Vault{root: abs}, nil
}

// Root returns the vault's absolute root directory.
func (v *Vault) Root() string {
	return v.root
}

// resolve maps a vault-relative note path to an absolute one, rejecting
// paths that escape the vault.
func (v *Vault) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.NewInvalidRequest("note path is required")
	}
	if filepath.IsAbs(rel) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("note path must be vault-relative: %s", rel))
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("note path escapes the vault: %s", rel))
	}
	return filepath.Join(v.root, cleaned), nil
}

// ReadNote returns the text of a note.
func (v *Vault) ReadNote(rel string) (string, error) {
	abs, err := v.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFound(rel)
		}
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// WriteNote replaces a note's text, creating parent directories as needed.
func (v *Vault) WriteNote(rel, text string) error {
	abs, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(abs, []byte(text), 0644); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// EditNote reads a note, applies fn, and writes the result back. A missing
// note is presented to fn as an empty document and created on success. If fn
// fails nothing is written.
//
// Two racing EditNote calls on the same note are not coordinated: the last
// writer wins and the earlier edit is silently dropped. Acceptable for a
// single interactive user, never structurally corrupting.
func (v *Vault) EditNote(rel string, fn func(string) (string, error)) error {
	text, err := v.ReadNote(rel)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	updated, err := fn(text)
	if err != nil {
		return err
	}
	if updated == text {
		return nil
	}
	return v.WriteNote(rel, updated)
}

// Notes lists every markdown note in the vault as sorted relative paths.
// Dot-directories (.tally, .obsidian, .git) are skipped.
func (v *Vault) Notes() ([]string, error) {
	var notes []string
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		notes = append(notes, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	sort.Strings(notes)
	return notes, nil
}

// Mtime returns a note's modification time in unix seconds.
func (v *Vault) Mtime(rel string) (int64, error) {
	abs, err := v.resolve(rel)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFound(rel)
		}
		return 0, errors.NewInternal(err)
	}
	return info.ModTime().Unix(), nil
}
