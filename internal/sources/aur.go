package sources

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// aurHelpers lists supported helpers in preference order.
var aurHelpers = []string{"yay", "paru"}

// AURAdapter updates AUR packages through the first installed helper
// (yay or paru). It runs -Sua so only foreign packages are rebuilt; the
// pacman adapter has already handled the repositories by the time the
// AUR source runs.
type AURAdapter struct {
	run  CommandRunner
	look lookPathFunc

	helper string
}

// NewAURAdapter returns the AUR helper adapter.
func NewAURAdapter() *AURAdapter {
	return &AURAdapter{run: runCommand, look: exec.LookPath}
}

// Name implements Adapter.
func (a *AURAdapter) Name() Source { return AUR }

// Helper returns the detected helper binary name, or "" if none.
func (a *AURAdapter) Helper() string {
	if a.helper != "" {
		return a.helper
	}
	for _, h := range aurHelpers {
		if _, err := a.look(h); err == nil {
			a.helper = h
			return h
		}
	}
	return ""
}

// Available reports whether a supported AUR helper is installed.
func (a *AURAdapter) Available() bool {
	return a.Helper() != ""
}

// CheckPending lists pending foreign-package updates via <helper> -Qua.
func (a *AURAdapter) CheckPending(ctx context.Context) ([]PendingItem, error) {
	helper := a.Helper()
	if helper == "" {
		return nil, fmt.Errorf("aur helper: %w", ErrUnavailable)
	}

	out, err := a.run(ctx, "", helper, "-Qua")
	if err != nil {
		// Helpers exit non-zero when there is nothing to upgrade and
		// print no update lines; treat empty output as up to date.
		if strings.TrimSpace(string(out)) == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("%s -Qua failed: %w", helper, err)
	}
	return parseUpdateLines(AUR, string(out)), nil
}

// Apply rebuilds pending AUR packages. Exclusions are held back with
// --ignore; the helper reports all-or-nothing for the batch.
func (a *AURAdapter) Apply(ctx context.Context, items []PendingItem, opts Options) (*SourceResult, error) {
	res := &SourceResult{Source: AUR, Attempted: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	helper := a.Helper()
	if helper == "" {
		res.Err = fmt.Errorf("aur helper: %w", ErrUnavailable)
		return res, res.Err
	}

	args := []string{"-Sua", "--noconfirm"}
	if len(opts.Exclude) > 0 {
		args = append(args, "--ignore", strings.Join(opts.Exclude, ","))
	}

	out, err := a.run(ctx, "", helper, args...)
	res.Output = string(out)
	if err != nil {
		res.Failed = len(items)
		res.Err = fmt.Errorf("%s -Sua failed: %w", helper, err)
		return res, res.Err
	}

	res.Succeeded = len(items)
	res.Items = items
	return res, nil
}
