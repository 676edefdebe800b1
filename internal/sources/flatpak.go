package sources

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FlatpakAdapter updates sandboxed applications via flatpak. Items are
// keyed by application ID, so the package-name exclusion filter does not
// apply to this source. Updates are applied one ref at a time, which
// gives per-item reporting and clean cancellation between items.
type FlatpakAdapter struct {
	run  CommandRunner
	look lookPathFunc
}

// NewFlatpakAdapter returns the flatpak adapter.
func NewFlatpakAdapter() *FlatpakAdapter {
	return &FlatpakAdapter{run: runCommand, look: exec.LookPath}
}

// Name implements Adapter.
func (a *FlatpakAdapter) Name() Source { return Flatpak }

// Available reports whether flatpak is installed.
func (a *FlatpakAdapter) Available() bool {
	_, err := a.look("flatpak")
	return err == nil
}

// CheckPending lists applications with a newer version in their remote.
// Current versions come from the installed list; an app missing there
// (e.g. a runtime) keeps an empty current version.
func (a *FlatpakAdapter) CheckPending(ctx context.Context) ([]PendingItem, error) {
	installed := map[string]string{}
	if out, err := a.run(ctx, "", "flatpak", "list", "--app", "--columns=application,version"); err == nil {
		for id, ver := range parseFlatpakColumns(string(out)) {
			installed[id] = ver
		}
	}

	out, err := a.run(ctx, "", "flatpak", "remote-ls", "--updates", "--columns=application,version")
	if err != nil {
		return nil, fmt.Errorf("flatpak remote-ls failed: %w", err)
	}

	var items []PendingItem
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		item := PendingItem{Source: Flatpak, Name: fields[0]}
		if len(fields) > 1 {
			item.NewVersion = fields[1]
		}
		item.CurrentVersion = installed[item.Name]
		items = append(items, item)
	}
	return items, nil
}

// Apply updates the given refs one at a time.
func (a *FlatpakAdapter) Apply(ctx context.Context, items []PendingItem, opts Options) (*SourceResult, error) {
	res := &SourceResult{Source: Flatpak, Attempted: len(items)}
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

		out, err := a.run(ctx, "", "flatpak", "update", "-y", item.Name)
		output.Write(out)
		if err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("flatpak update %s failed: %w", item.Name, err)
			}
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

// ClearFlatpakCache removes unused runtimes and extensions.
func ClearFlatpakCache(ctx context.Context) error {
	if _, err := exec.LookPath("flatpak"); err != nil {
		return fmt.Errorf("flatpak: %w", ErrUnavailable)
	}
	if _, err := runCommand(ctx, "", "flatpak", "uninstall", "--unused", "-y"); err != nil {
		return fmt.Errorf("flatpak uninstall --unused failed: %w", err)
	}
	return nil
}

// parseFlatpakColumns parses two-column tab/space separated flatpak
// output into an id -> version map.
func parseFlatpakColumns(output string) map[string]string {
	m := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 1 {
			m[fields[0]] = fields[1]
		} else {
			m[fields[0]] = ""
		}
	}
	return m
}
