package sources

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/blackwell-systems/sysup/internal/config"
)

// GitAdapter fast-forwards a set of tracked repositories. A repository
// with local modifications or a diverged history fails as a single item
// without affecting the others.
type GitAdapter struct {
	run   CommandRunner
	look  lookPathFunc
	repos []config.TrackedRepo
}

// NewGitAdapter returns an adapter over the enabled tracked repositories.
func NewGitAdapter(repos []config.TrackedRepo) *GitAdapter {
	return &GitAdapter{run: runCommand, look: exec.LookPath, repos: repos}
}

// Name implements Adapter.
func (a *GitAdapter) Name() Source { return Git }

// Available reports whether git is installed.
func (a *GitAdapter) Available() bool {
	_, err := a.look("git")
	return err == nil
}

// CheckPending fetches each tracked repository and reports those whose
// upstream has commits not present locally. A repository that cannot be
// checked (missing path, no upstream) is skipped, not an error.
func (a *GitAdapter) CheckPending(ctx context.Context) ([]PendingItem, error) {
	var items []PendingItem
	for _, repo := range a.repos {
		if _, err := os.Stat(repo.Path); err != nil {
			continue
		}
		if _, err := a.run(ctx, repo.Path, "git", "fetch", "--quiet"); err != nil {
			continue
		}

		behind, err := a.revCount(ctx, repo.Path, "HEAD..@{u}")
		if err != nil || behind == 0 {
			continue
		}

		local := a.shortRev(ctx, repo.Path, "HEAD")
		upstream := a.shortRev(ctx, repo.Path, "@{u}")
		items = append(items, PendingItem{
			Source:         Git,
			Name:           repo.Path,
			CurrentVersion: local,
			NewVersion:     upstream,
		})
	}
	return items, nil
}

// Apply fast-forwards each pending repository. Dirty trees and diverged
// histories fail that single item; remaining repositories still run.
func (a *GitAdapter) Apply(ctx context.Context, items []PendingItem, opts Options) (*SourceResult, error) {
	res := &SourceResult{Source: Git, Attempted: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	var output strings.Builder
	var firstErr error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			res.Output = output.String()
			res.Err = err
			return res, err
		}

		if err := a.fastForward(ctx, item.Name, &output); err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", item.Name, err)
			}
			fmt.Fprintf(&output, "%s: %v\n", item.Name, err)
			continue
		}
		res.Succeeded++
		res.Items = append(res.Items, item)
	}

	res.Output = output.String()
	if res.Succeeded == 0 && firstErr != nil {
		res.Err = firstErr
		return res, firstErr
	}
	res.Err = firstErr
	return res, nil
}

// fastForward merges @{u} into HEAD, refusing dirty or diverged checkouts.
func (a *GitAdapter) fastForward(ctx context.Context, path string, output *strings.Builder) error {
	status, err := a.run(ctx, path, "git", "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("git status failed: %w", err)
	}
	if strings.TrimSpace(string(status)) != "" {
		return ErrGitDirtyTree
	}

	ahead, err := a.revCount(ctx, path, "@{u}..HEAD")
	if err != nil {
		return fmt.Errorf("failed to compare with upstream: %w", err)
	}
	if ahead > 0 {
		return ErrGitDiverged
	}

	out, err := a.run(ctx, path, "git", "merge", "--ff-only", "@{u}")
	output.Write(out)
	if err != nil {
		return fmt.Errorf("git merge --ff-only failed: %w", err)
	}
	return nil
}

// revCount returns `git rev-list --count <range>`.
func (a *GitAdapter) revCount(ctx context.Context, dir, revRange string) (int, error) {
	out, err := a.run(ctx, dir, "git", "rev-list", "--count", revRange)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", string(out), err)
	}
	return n, nil
}

// shortRev returns the abbreviated hash for rev, or "" on failure.
func (a *GitAdapter) shortRev(ctx context.Context, dir, rev string) string {
	out, err := a.run(ctx, dir, "git", "rev-parse", "--short", rev)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
