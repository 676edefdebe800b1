package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/backup"
	"github.com/blackwell-systems/sysup/internal/config"
	"github.com/blackwell-systems/sysup/internal/engine"
	"github.com/blackwell-systems/sysup/internal/hooks"
	"github.com/blackwell-systems/sysup/internal/logging"
	"github.com/blackwell-systems/sysup/internal/notify"
	"github.com/blackwell-systems/sysup/internal/sources"
	"github.com/blackwell-systems/sysup/internal/stats"
)

// ErrPartial reports a run where at least one source failed while others
// succeeded. It maps to exit code 2.
var ErrPartial = errors.New("some sources failed to update")

var (
	updateDryRun   bool
	updateYes      bool
	updateParallel bool
	updateNoBackup bool
	updateIgnore   []string
	updateSkip     []string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check and apply updates across all enabled sources",
	Long: `Run one coordinated update across the enabled sources, in order:
pacman, AUR helper, flatpak, tracked git repositories.

Before applying, sysup runs your pre-update hook scripts and snapshots
the installed package list to the backup directory. After applying, the
post-update hooks run and the outcome is recorded to the history
database.

Sources fail independently: a pacman error does not stop flatpak from
updating. A run with mixed outcomes is recorded as partial and exits
with code 2.

With --dry-run, sysup only reports what would change. No hooks run, no
backup is written and nothing is recorded as applied.`,
	Example: `  # Preview pending updates
  sysup update --dry-run

  # Apply with a confirmation prompt
  sysup update

  # Unattended update (cron, scripts)
  sysup update --yes

  # Hold kernel packages back for this run
  sysup update --ignore linux --ignore linux-headers

  # Skip flatpak this time
  sysup update --skip flatpak

  # Run flatpak and git repo updates concurrently
  sysup update --parallel`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateDryRun, "dry-run", "n", false, "report pending updates without applying")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "skip the confirmation prompt")
	updateCmd.Flags().BoolVar(&updateParallel, "parallel", false, "update flatpak and git repos concurrently")
	updateCmd.Flags().BoolVar(&updateNoBackup, "no-backup", false, "skip the package-list snapshot")
	updateCmd.Flags().StringSliceVar(&updateIgnore, "ignore", nil, "package name to hold back (repeatable)")
	updateCmd.Flags().StringSliceVar(&updateSkip, "skip", nil, "source to skip: pacman, aur, flatpak, git (repeatable)")

	RootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	enabled, err := enabledSources(cfg, updateSkip)
	if err != nil {
		return err
	}

	repos, err := repoRegistry().Enabled()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	paths := appPaths()
	deps := engine.Deps{
		Adapters: map[sources.Source]sources.Adapter{
			sources.Pacman:  sources.NewPacmanAdapter(),
			sources.AUR:     sources.NewAURAdapter(),
			sources.Flatpak: sources.NewFlatpakAdapter(),
			sources.Git:     sources.NewGitAdapter(repos),
		},
		Backup:  backup.New(paths.BackupDir()),
		Hooks:   hooks.New(paths.HookDir, logging.Component("hooks")),
		Store:   st,
		Confirm: promptYesNo,
		Lock:    engine.NewRunLock(paths.LockFile()),
		Out:     os.Stdout,
		Log:     logging.Component("engine"),
	}
	if cfg.EnableNotifications {
		deps.Notifier = notify.New(cfg.NotificationMethods, cfg.WebhookURL, logging.Component("notify"))
	}

	runCfg := engine.RunConfig{
		Enabled:   enabled,
		DryRun:    updateDryRun,
		NoConfirm: updateYes || cfg.NoConfirm,
		Parallel:  updateParallel || cfg.ParallelUpdates,
		Excluded:  append(append([]string{}, cfg.ExcludedPackages...), updateIgnore...),
		Backup:    cfg.EnableBackups && !updateNoBackup,
	}

	// Ctrl+C stops launching new sources; the current one finishes and
	// the run is recorded as aborted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	record, err := engine.New(deps).Run(ctx, runCfg)
	if err != nil {
		if errors.Is(err, engine.ErrAborted) {
			return fmt.Errorf("update run aborted")
		}
		return err
	}

	if record.Status == stats.StatusPartial {
		return ErrPartial
	}
	if record.Status == stats.StatusFailed {
		return fmt.Errorf("update run failed")
	}
	return nil
}

// enabledSources resolves the configured source set minus --skip flags.
func enabledSources(cfg config.UserConfig, skip []string) (map[sources.Source]bool, error) {
	enabled := map[sources.Source]bool{
		sources.Pacman:  cfg.EnablePacman,
		sources.AUR:     cfg.EnableAUR,
		sources.Flatpak: cfg.EnableFlatpak,
		sources.Git:     cfg.EnableGitRepos,
	}
	for _, name := range skip {
		src := sources.Source(name)
		if _, ok := enabled[src]; !ok {
			return nil, fmt.Errorf("unknown source %q: must be one of: pacman, aur, flatpak, git", name)
		}
		enabled[src] = false
	}
	return enabled, nil
}
