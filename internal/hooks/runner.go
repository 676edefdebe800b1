// Package hooks discovers and executes user scripts around an update
// run. Hooks are advisory: a failing or missing script never aborts the
// run.
package hooks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Phase names the two hook points of a run.
type Phase string

const (
	PreUpdate  Phase = "pre-update"
	PostUpdate Phase = "post-update"
)

// scriptTimeout bounds each hook script individually.
const scriptTimeout = 5 * time.Minute

// Result reports one executed script.
type Result struct {
	Name     string
	ExitCode int
	Err      error
}

// OK reports whether the script completed with exit code zero.
func (r Result) OK() bool { return r.Err == nil && r.ExitCode == 0 }

// Runner executes hook scripts from per-phase directories.
type Runner struct {
	dirFor func(phase string) string
	log    zerolog.Logger
}

// New returns a Runner resolving phase directories through dirFor.
func New(dirFor func(phase string) string, log zerolog.Logger) *Runner {
	return &Runner{dirFor: dirFor, log: log}
}

// Run executes every executable script in the phase directory in
// name-sorted order, synchronously, and reports per-script outcomes.
// Non-executable entries are skipped. Errors are captured, never
// propagated.
func (r *Runner) Run(ctx context.Context, phase Phase) []Result {
	dir := r.dirFor(string(phase))
	scripts, err := discover(dir)
	if err != nil {
		r.log.Debug().Err(err).Str("phase", string(phase)).Msg("no hooks to run")
		return nil
	}

	var results []Result
	for _, script := range scripts {
		results = append(results, r.runScript(ctx, script))
	}
	return results
}

// runScript executes one hook with a timeout, capturing the exit status.
func (r *Runner) runScript(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	res := Result{Name: name}

	cctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("hook %s exited with code %d", name, res.ExitCode)
		} else {
			res.ExitCode = -1
			res.Err = fmt.Errorf("hook %s failed: %w", name, err)
		}
		r.log.Error().Err(res.Err).Str("hook", name).Bytes("output", out).Msg("hook failed")
		return res
	}

	r.log.Info().Str("hook", name).Msg("hook completed")
	return res
}

// discover lists executable regular files in dir, sorted by name.
func discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !isExecutable(info) {
			continue
		}
		scripts = append(scripts, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(scripts)
	return scripts, nil
}

func isExecutable(info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}
