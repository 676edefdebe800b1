package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/config"
	"github.com/blackwell-systems/sysup/internal/logging"
)

var (
	flagVerbose   bool
	flagConfigDir string

	// RootCmd is the root command for sysup
	RootCmd = &cobra.Command{
		Use:   "sysup",
		Short: "Unified Arch Linux system update orchestrator",
		Long: `sysup coordinates updates across every package source on an Arch
system: official repositories (pacman), the AUR (yay/paru), flatpak
applications and locally tracked git repositories.

Each run snapshots the installed package list before changing anything,
runs your pre/post-update hook scripts, records the outcome to a local
history database and can notify you on the desktop or via webhook.

A failing source never blocks the others: pacman can fail while flatpak
still updates, and the run is recorded as partial.

Quick Start:
  1. sysup update --dry-run   # preview pending updates
  2. sysup update             # apply them
  3. sysup repos add ~/src/dotfiles
  4. sysup stats              # see what changed over time

Examples:
  # Preview without changing anything
  sysup update --dry-run

  # Unattended full update
  sysup update --yes

  # Hold a package back for this run
  sysup update --ignore linux

  # Remove orphans and trim caches
  sysup clean

  # Watch for package changes made outside sysup
  sysup watch --daemon`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("sysup: unified Arch Linux system update orchestrator")
			fmt.Println()
			fmt.Println("Run 'sysup update --dry-run' to preview pending updates.")
			fmt.Println("Run 'sysup update' to apply them.")
			fmt.Println("Run 'sysup --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/sysup)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		paths := appPaths()
		if err := paths.EnsureDirs(); err != nil {
			return err
		}
		if err := logging.Setup(paths.LogFile(), flagVerbose); err != nil {
			// A command still works without the persistent log.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return nil
	}
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// appPaths resolves the path set, honoring the --config-dir override.
func appPaths() config.Paths {
	paths := config.DefaultPaths()
	if flagConfigDir != "" {
		paths.ConfigDir = flagConfigDir
	}
	return paths
}
