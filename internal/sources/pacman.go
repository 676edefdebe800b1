package sources

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// checkupdates exit codes: 0 updates available, 2 no updates, 1 error.
const checkupdatesNoUpdates = 2

// PacmanAdapter updates native packages via pacman. Checking uses
// checkupdates (pacman-contrib) so the sync databases are never touched
// in place; applying runs a full sudo pacman -Syu because pacman does not
// support partial upgrades.
type PacmanAdapter struct {
	run  CommandRunner
	look lookPathFunc
}

// NewPacmanAdapter returns the native package manager adapter.
func NewPacmanAdapter() *PacmanAdapter {
	return &PacmanAdapter{run: runCommand, look: exec.LookPath}
}

// Name implements Adapter.
func (a *PacmanAdapter) Name() Source { return Pacman }

// Available reports whether both pacman and checkupdates are installed.
func (a *PacmanAdapter) Available() bool {
	if _, err := a.look("pacman"); err != nil {
		return false
	}
	_, err := a.look("checkupdates")
	return err == nil
}

// CheckPending runs checkupdates and parses its update list.
func (a *PacmanAdapter) CheckPending(ctx context.Context) ([]PendingItem, error) {
	out, err := a.run(ctx, "", "checkupdates")
	if err != nil {
		if exitCode(err) == checkupdatesNoUpdates {
			return nil, nil
		}
		return nil, fmt.Errorf("checkupdates failed: %w", err)
	}
	return parseUpdateLines(Pacman, string(out)), nil
}

// Apply upgrades the system. Excluded packages are held back with
// --ignore; pacman reports all-or-nothing for the batch.
func (a *PacmanAdapter) Apply(ctx context.Context, items []PendingItem, opts Options) (*SourceResult, error) {
	res := &SourceResult{Source: Pacman, Attempted: len(items)}
	if len(items) == 0 {
		return res, nil
	}

	args := []string{"pacman", "-Syu", "--noconfirm"}
	if len(opts.Exclude) > 0 {
		args = append(args, "--ignore", strings.Join(opts.Exclude, ","))
	}

	out, err := a.run(ctx, "", "sudo", args...)
	res.Output = string(out)
	if err != nil {
		res.Failed = len(items)
		res.Err = fmt.Errorf("pacman -Syu failed: %w", err)
		return res, res.Err
	}

	res.Succeeded = len(items)
	res.Items = items
	return res, nil
}

// parseUpdateLines parses "name oldver -> newver" lines as produced by
// checkupdates and by yay/paru -Qua.
func parseUpdateLines(src Source, output string) []PendingItem {
	var items []PendingItem
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		// name current -> new
		if len(fields) != 4 || fields[2] != "->" {
			continue
		}
		items = append(items, PendingItem{
			Source:         src,
			Name:           fields[0],
			CurrentVersion: fields[1],
			NewVersion:     fields[3],
		})
	}
	return items
}

// ListInstalled returns every installed package as "name version" pairs
// from pacman -Q, covering both native and AUR packages. Used by the
// backup manager to snapshot the pre-update state.
func ListInstalled(ctx context.Context) ([][2]string, error) {
	out, err := runCommand(ctx, "", "pacman", "-Q")
	if err != nil {
		return nil, fmt.Errorf("pacman -Q failed: %w", err)
	}
	return ParseInstalledList(string(out)), nil
}

// ParseInstalledList parses pacman -Q output ("name version" per line).
func ParseInstalledList(output string) [][2]string {
	var pkgs [][2]string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		pkgs = append(pkgs, [2]string{fields[0], fields[1]})
	}
	return pkgs
}

// CleanOrphans removes packages no longer required by anything. Returns
// the orphan names that were removed; no orphans is a successful no-op.
func CleanOrphans(ctx context.Context) ([]string, error) {
	out, err := runCommand(ctx, "", "pacman", "-Qtdq")
	if err != nil {
		// pacman -Qtdq exits 1 when there are no orphans.
		if exitCode(err) == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("pacman -Qtdq failed: %w", err)
	}

	var orphans []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			orphans = append(orphans, line)
		}
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	args := append([]string{"pacman", "-Rns", "--noconfirm"}, orphans...)
	if _, err := runCommand(ctx, "", "sudo", args...); err != nil {
		return nil, fmt.Errorf("failed to remove orphaned packages: %w", err)
	}
	return orphans, nil
}

// ClearPacmanCache drops all cached package archives via paccache.
func ClearPacmanCache(ctx context.Context) error {
	if _, err := exec.LookPath("paccache"); err != nil {
		return fmt.Errorf("paccache: %w", ErrUnavailable)
	}
	if _, err := runCommand(ctx, "", "sudo", "paccache", "-r", "-k", "0"); err != nil {
		return fmt.Errorf("paccache failed: %w", err)
	}
	return nil
}
