package sources

import (
	"context"
	"os/exec"
)

// CommandRunner executes an external command in dir and returns its
// combined output. Adapters hold one as a field so tests can substitute a
// fake without spawning processes.
type CommandRunner func(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

// runCommand is the production CommandRunner. The raw error is returned
// unwrapped so callers can inspect exit codes via exec.ExitError;
// checkupdates and friends encode "nothing to do" in their exit status.
func runCommand(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd.CombinedOutput()
}

// exitCode extracts the process exit code from a CommandRunner error, or
// -1 if the command did not run to completion.
func exitCode(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// lookPath mirrors exec.LookPath as an overridable function type.
type lookPathFunc func(name string) (string, error)
