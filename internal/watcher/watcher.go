// Package watcher observes the pacman local database for package-state
// changes made outside of sysup (a manual pacman -S, another tool). Each
// observed change is recorded as an external event in the statistics
// store and can optionally raise a desktop notification, so the run
// history stays an honest picture of how the system actually changed.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/sysup/internal/notify"
	"github.com/blackwell-systems/sysup/internal/stats"
)

// PacmanLocalDB is the directory pacman rewrites on every install,
// upgrade or removal.
const PacmanLocalDB = "/var/lib/pacman/local"

// debounceWindow coalesces the burst of fsnotify events a single pacman
// transaction produces into one recorded external event.
const debounceWindow = 5 * time.Second

// Watcher tails the pacman database directory and records changes.
type Watcher struct {
	dir      string
	store    *stats.Store
	notifier notify.Notifier
	log      zerolog.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a Watcher over dir (normally PacmanLocalDB).
func New(dir string, store *stats.Store, notifier notify.Notifier, log zerolog.Logger) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Watcher{dir: dir, store: store, notifier: notifier, log: log}, nil
}

// Run watches until the context is cancelled. Events inside the debounce
// window after a recorded change are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info().Str("dir", w.dir).Msg("watching package database")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watch error")
		}
	}
}

// handleEvent records one debounced external change.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return
	}

	now := time.Now()
	w.mu.Lock()
	if now.Sub(w.lastSeen) < debounceWindow {
		w.mu.Unlock()
		return
	}
	w.lastSeen = now
	w.mu.Unlock()

	if err := w.store.InsertExternalEvent(ev.Name, ev.Op.String(), now); err != nil {
		w.log.Error().Err(err).Msg("failed to record external event")
		return
	}
	w.log.Info().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("external package change recorded")

	if w.notifier != nil {
		w.notifier.Send(ctx, notify.Event{
			Status:       "external-change",
			ErrorSummary: "package database changed outside sysup",
		})
	}
}
