// Package backup snapshots the installed package set to plain-text
// artifacts. Snapshots are informational: they exist so a user can
// manually recover a package list, not as an automatic rollback
// mechanism.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/sysup/internal/sources"
)

// ErrWrite means the backup directory is not writable. Before an applying
// run this is fatal unless backups are disabled: updating unprotected is
// worse than not updating.
var ErrWrite = errors.New("backup location is not writable")

// keepSnapshots is how many snapshots survive automatic pruning.
const keepSnapshots = 10

// Snapshot is the metadata for one package-list artifact.
type Snapshot struct {
	ID        string
	Path      string
	CreatedAt time.Time
	Packages  int
	SizeBytes int64
}

// Lister enumerates installed packages as (name, version) pairs.
type Lister func(ctx context.Context) ([][2]string, error)

// Manager creates and lists snapshots in a single directory.
type Manager struct {
	dir  string
	list Lister
	now  func() time.Time
}

// New returns a Manager writing to dir, enumerating packages via pacman.
func New(dir string) *Manager {
	return &Manager{dir: dir, list: sources.ListInstalled, now: time.Now}
}

// Create writes a new snapshot and prunes old ones. The artifact is one
// "name version" line per installed package, named by a sortable
// timestamp.
func (m *Manager) Create(ctx context.Context) (*Snapshot, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	pkgs, err := m.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate installed packages: %w", err)
	}

	var b strings.Builder
	for _, pkg := range pkgs {
		fmt.Fprintf(&b, "%s %s\n", pkg[0], pkg[1])
	}

	ts := m.now()
	id := ts.Format("20060102_150405")
	path := filepath.Join(m.dir, fmt.Sprintf("packages_%s.txt", id))

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := m.prune(); err != nil {
		// Pruning failure does not invalidate the snapshot just taken.
		return &Snapshot{ID: id, Path: path, CreatedAt: ts, Packages: len(pkgs)}, nil
	}

	return &Snapshot{ID: id, Path: path, CreatedAt: ts, Packages: len(pkgs)}, nil
}

// List returns snapshot metadata, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snaps []Snapshot
	for _, entry := range entries {
		id, ok := snapshotID(entry.Name())
		if !ok {
			continue
		}
		createdAt, err := time.ParseInLocation("20060102_150405", id, time.Local)
		if err != nil {
			continue
		}

		snap := Snapshot{
			ID:        id,
			Path:      filepath.Join(m.dir, entry.Name()),
			CreatedAt: createdAt,
		}
		if info, err := entry.Info(); err == nil {
			snap.SizeBytes = info.Size()
		}
		if data, err := os.ReadFile(snap.Path); err == nil {
			snap.Packages = countLines(string(data))
		}
		snaps = append(snaps, snap)
	}

	// Timestamp-named files sort chronologically by name.
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID > snaps[j].ID })
	return snaps, nil
}

// prune deletes everything beyond the newest keepSnapshots artifacts.
func (m *Manager) prune() error {
	snaps, err := m.List()
	if err != nil {
		return err
	}
	for _, snap := range snaps[min(len(snaps), keepSnapshots):] {
		if err := os.Remove(snap.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old snapshot %s: %w", snap.Path, err)
		}
	}
	return nil
}

// snapshotID extracts the timestamp ID from a snapshot filename.
func snapshotID(name string) (string, bool) {
	if !strings.HasPrefix(name, "packages_") || !strings.HasSuffix(name, ".txt") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, "packages_"), ".txt"), true
}

func countLines(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}
