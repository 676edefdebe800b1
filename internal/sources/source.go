// Package sources defines the update-source contract and the concrete
// adapters for pacman, AUR helpers, flatpak and tracked git repositories.
// Each adapter hides one external tool behind the same two operations:
// report pending updates, apply a set of them.
package sources

import (
	"context"
	"errors"
)

// Source identifies one of the four update origins.
type Source string

const (
	Pacman  Source = "pacman"
	AUR     Source = "aur"
	Flatpak Source = "flatpak"
	Git     Source = "git"
)

// All lists every source in the fixed execution order: the native package
// manager first (it owns the package database lock and provides build
// tools), then the AUR helper, then the independent trailing pair.
var All = []Source{Pacman, AUR, Flatpak, Git}

// PendingItem is one detected-but-not-applied update. For git sources Name
// is the repository path and the versions are commit hashes.
type PendingItem struct {
	Source         Source `json:"source"`
	Name           string `json:"name"`
	CurrentVersion string `json:"current_version"`
	NewVersion     string `json:"new_version"`
}

// Options carries per-run flags an adapter needs when applying.
type Options struct {
	// Exclude lists package names the underlying tool must hold back.
	// Only meaningful for pacman and AUR; ignored by flatpak and git.
	Exclude []string
}

// SourceResult reports what one source did during a run.
type SourceResult struct {
	Source    Source
	Attempted int
	Succeeded int
	Failed    int
	// Items holds the applied (or, in a dry run, the would-be-applied)
	// updates in the order the tool reported them.
	Items []PendingItem
	// Output is the captured tool output. Sources that ran concurrently
	// are printed from this buffer afterwards, never interleaved live.
	Output string
	// Err is set when the source as a whole failed.
	Err error
}

// Adapter is the per-source capability the orchestrator composes.
type Adapter interface {
	// Name returns the source tag.
	Name() Source

	// Available reports whether the underlying tool is installed. An
	// unavailable source is skipped for the run, never a run error.
	Available() bool

	// CheckPending reports available updates without mutating any state.
	CheckPending(ctx context.Context) ([]PendingItem, error)

	// Apply applies exactly the given items. An empty item list is a
	// no-op success. The returned result is non-nil even on error.
	Apply(ctx context.Context, items []PendingItem, opts Options) (*SourceResult, error)
}

// Sentinel errors for the per-source failure taxonomy.
var (
	// ErrUnavailable means the source's external tool is not installed.
	ErrUnavailable = errors.New("required tool is not installed")

	// ErrGitDiverged means a repository has local commits not present
	// upstream, so a fast-forward is impossible.
	ErrGitDiverged = errors.New("local history diverged from upstream")

	// ErrGitDirtyTree means a repository has uncommitted local changes.
	ErrGitDirtyTree = errors.New("working tree has local modifications")
)
