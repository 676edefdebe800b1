package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/logging"
	"github.com/blackwell-systems/sysup/internal/notify"
	"github.com/blackwell-systems/sysup/internal/output"
	"github.com/blackwell-systems/sysup/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchStop        bool
	watchStatus      bool
	watchNotify      bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Monitor the package database for external changes",
		Long: `Watch the pacman local database for changes made outside of sysup,
such as a manual pacman -S or another updater, and record them to the
history database as external events.

The bursts of filesystem activity a single pacman transaction produces
are coalesced into one recorded event. With --notify, each event also
raises a desktop notification.

Watch modes:
  • Foreground (default): run in the current terminal, Ctrl+C to stop
  • Daemon: run as a detached background process
  • Stop: stop a running daemon
  • Status: report whether the daemon is running`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  sysup watch

  # Run as background daemon
  sysup watch --daemon

  # Check whether the daemon is running
  sysup watch --status

  # Stop the daemon
  sysup watch --stop`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "report daemon status")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "raise a desktop notification per event")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")

	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	paths := appPaths()
	pidFile := paths.WatchPIDFile()

	if watchStatus {
		running, err := watcher.IsDaemonRunning(pidFile)
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}
		if running {
			fmt.Println("Watch daemon is running")
		} else {
			fmt.Println("Watch daemon is not running")
		}
		return nil
	}

	if watchStop {
		spinner := output.NewSpinner("Stopping daemon")
		spinner.Start()
		if err := watcher.StopDaemon(pidFile); err != nil {
			spinner.Stop()
			return err
		}
		spinner.StopWithMessage("✓ Daemon stopped")
		return nil
	}

	if watchDaemon {
		spinner := output.NewSpinner("Starting daemon")
		spinner.Start()
		if err := watcher.StartDaemon(pidFile, paths.WatchLogFile()); err != nil {
			spinner.Stop()
			return err
		}
		spinner.StopWithMessage("✓ Daemon started")

		fmt.Printf("\nWatching %s for external changes\n", watcher.PacmanLocalDB)
		fmt.Printf("  PID file: %s\n", pidFile)
		fmt.Printf("  Log file: %s\n", paths.WatchLogFile())
		fmt.Printf("\nTo stop: sysup watch --stop\n")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var notifier notify.Notifier
	if watchNotify {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		notifier = notify.New(cfg.NotificationMethods, cfg.WebhookURL, logging.Component("notify"))
	}

	w, err := watcher.New(watcher.PacmanLocalDB, st, notifier, logging.Component("watcher"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchDaemonChild {
		fmt.Printf("Watching %s for external changes (press Ctrl+C to stop)...\n", watcher.PacmanLocalDB)
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if !watchDaemonChild {
		fmt.Println("\nWatch stopped")
	}
	return nil
}
