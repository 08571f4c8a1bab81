package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"fstodo/internal/service"
)

// Subscribe implements service.Store. Subscribers are woken by writes made
// through this Backend and by changes other processes make to the database
// file. Wake-ups coalesce; a snapshot is sent only when it differs from the
// last one sent.
func (b *Backend) Subscribe(ctx context.Context, q service.Query) (<-chan service.Snapshot, error) {
	if err := b.ensureWatcher(); err != nil {
		// Local writes still notify; only cross-process changes are missed
		b.log.Warn("file watching disabled", "path", b.path, "err", err)
	}

	trigger := make(chan struct{}, 1)
	b.mu.Lock()
	b.subSeq++
	id := b.subSeq
	b.subs[id] = trigger
	b.mu.Unlock()

	out := make(chan service.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		}()

		var last string
		sent := false
		for {
			snap, err := b.read(ctx, q)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				b.log.Warn("snapshot read failed", "collection", q.Collection, "err", err)
			case !sent || snap.Fingerprint() != last:
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
				sent = true
				last = snap.Fingerprint()
			}

			select {
			case <-trigger:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Backend) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, trigger := range b.subs {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}
}

func (b *Backend) ensureWatcher() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watch != nil {
		return nil
	}
	w, err := newFileWatcher(b.path, b.notify, b.log)
	if err != nil {
		return err
	}
	b.watch = w
	return nil
}

// fileWatcher reports changes to a database file and its -wal and -journal
// companions by watching the containing directory.
type fileWatcher struct {
	fsw      *fsnotify.Watcher
	base     string
	onChange func()
	log      *log.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newFileWatcher(path string, onChange func(), logger *log.Logger) (*fileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	w := &fileWatcher{
		fsw:      fsw,
		base:     filepath.Base(path),
		onChange: onChange,
		log:      logger,
		stopCh:   make(chan struct{}),
	}
	go w.eventLoop()
	return w, nil
}

// Stop stops the watcher and cleans up resources.
func (w *fileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.fsw.Close()
	})
}

func (w *fileWatcher) eventLoop() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !strings.HasPrefix(filepath.Base(event.Name), w.base) {
				continue
			}
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}
