package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Paths resolves every file and directory sysup touches. All paths derive
// from the XDG base directories: configuration and artifacts live under
// $XDG_CONFIG_HOME/sysup, runtime state (log, run lock) under
// $XDG_STATE_HOME/sysup.
type Paths struct {
	ConfigDir string
	StateDir  string
}

// DefaultPaths returns the standard XDG-based path set.
func DefaultPaths() Paths {
	return Paths{
		ConfigDir: filepath.Join(xdg.ConfigHome, "sysup"),
		StateDir:  filepath.Join(xdg.StateHome, "sysup"),
	}
}

// ConfigFile is the user configuration file.
func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.json")
}

// ReposFile is the tracked git repository registry.
func (p Paths) ReposFile() string {
	return filepath.Join(p.ConfigDir, "repositories.json")
}

// BackupDir holds package-list snapshots.
func (p Paths) BackupDir() string {
	return filepath.Join(p.ConfigDir, "backups")
}

// HookDir returns the script directory for a hook phase
// ("pre-update" or "post-update").
func (p Paths) HookDir(phase string) string {
	return filepath.Join(p.ConfigDir, "hooks", phase)
}

// DBFile is the sqlite statistics database.
func (p Paths) DBFile() string {
	return filepath.Join(p.ConfigDir, "sysup.db")
}

// LogFile is the persistent zerolog output file.
func (p Paths) LogFile() string {
	return filepath.Join(p.StateDir, "sysup.log")
}

// LockFile guards against concurrent update runs.
func (p Paths) LockFile() string {
	return filepath.Join(p.StateDir, "run.lock")
}

// WatchPIDFile tracks the watch daemon process.
func (p Paths) WatchPIDFile() string {
	return filepath.Join(p.StateDir, "watch.pid")
}

// WatchLogFile receives the watch daemon's output.
func (p Paths) WatchLogFile() string {
	return filepath.Join(p.StateDir, "watch.log")
}

// EnsureDirs creates the directory tree sysup expects on first use.
func (p Paths) EnsureDirs() error {
	dirs := []string{
		p.ConfigDir,
		p.StateDir,
		p.BackupDir(),
		p.HookDir("pre-update"),
		p.HookDir("post-update"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
