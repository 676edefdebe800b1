package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/config"
	"github.com/blackwell-systems/sysup/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration and the paths sysup uses.

Settings come from config.json in the configuration directory; anything
missing falls back to the built-in defaults. Use 'sysup config init' to
write a config file with the defaults spelled out.`,
	Example: `  # Show effective settings and paths
  sysup config

  # Write a default config.json to edit
  sysup config init`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appPaths().ConfigFile()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)

	RootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	paths := appPaths()

	onOff := func(b bool) string {
		if b {
			return "enabled"
		}
		return "disabled"
	}

	fmt.Println(output.Cyan("Sources:"))
	fmt.Printf("  pacman:        %s\n", onOff(cfg.EnablePacman))
	fmt.Printf("  aur:           %s\n", onOff(cfg.EnableAUR))
	fmt.Printf("  flatpak:       %s\n", onOff(cfg.EnableFlatpak))
	fmt.Printf("  git repos:     %s\n", onOff(cfg.EnableGitRepos))
	fmt.Println(output.Cyan("Behavior:"))
	fmt.Printf("  backups:       %s\n", onOff(cfg.EnableBackups))
	fmt.Printf("  notifications: %s", onOff(cfg.EnableNotifications))
	if cfg.EnableNotifications {
		fmt.Printf(" (%s)", strings.Join(cfg.NotificationMethods, ", "))
	}
	fmt.Println()
	fmt.Printf("  parallel:      %s\n", onOff(cfg.ParallelUpdates))
	fmt.Printf("  noconfirm:     %s\n", onOff(cfg.NoConfirm))
	if len(cfg.ExcludedPackages) > 0 {
		fmt.Printf("  excluded:      %s\n", strings.Join(cfg.ExcludedPackages, ", "))
	}
	fmt.Println(output.Cyan("Paths:"))
	fmt.Printf("  config:        %s\n", paths.ConfigFile())
	fmt.Printf("  repositories:  %s\n", paths.ReposFile())
	fmt.Printf("  backups:       %s\n", paths.BackupDir())
	fmt.Printf("  hooks:         %s\n", paths.HookDir("pre-update"))
	fmt.Printf("                 %s\n", paths.HookDir("post-update"))
	fmt.Printf("  database:      %s\n", paths.DBFile())
	fmt.Printf("  log:           %s\n", paths.LogFile())
	return nil
}
