package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces editor write bursts into one change notification.
const debounceDelay = 250 * time.Millisecond

// Watcher observes a vault for markdown changes and emits vault-relative
// note paths. Aggregates are derived by explicit recomputation on these
// notifications rather than by any reactive machinery.
type Watcher struct {
	vault   *Vault
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over every directory in the vault.
func NewWatcher(v *Vault) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(v.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != v.Root() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		vault:   v,
		watcher: fsw,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Run blocks delivering debounced change notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(notePath string)) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event, onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, onChange func(string)) {
	// New subdirectories need their own watch.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(w.vault.Root(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[rel]; ok {
		timer.Stop()
	}
	w.timers[rel] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, rel)
		w.mu.Unlock()
		onChange(rel)
	})
}
