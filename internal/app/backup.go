package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/backup"
	"github.com/blackwell-systems/sysup/internal/output"
)

var backupList bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot or list installed package lists",
	Long: `Write a snapshot of the installed package list, or list existing
snapshots with --list.

Snapshots are plain "name version" text files in the backup directory,
named by timestamp. sysup keeps the ten most recent and prunes older
ones automatically. They are informational: use them to reinstall a
package set by hand after a bad update, for example with
pacman -S --needed $(awk '{print $1}' packages_<ts>.txt).`,
	Example: `  # Snapshot the current package list
  sysup backup

  # List existing snapshots
  sysup backup --list`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().BoolVar(&backupList, "list", false, "list existing snapshots")

	RootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	mgr := backup.New(appPaths().BackupDir())

	if backupList {
		snaps, err := mgr.List()
		if err != nil {
			return err
		}
		fmt.Print(output.RenderSnapshotTable(snaps))
		return nil
	}

	spinner := output.NewSpinner("Creating snapshot")
	spinner.Start()
	snap, err := mgr.Create(context.Background())
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Snapshot %s (%d packages)", snap.ID, snap.Packages))
	fmt.Printf("  %s\n", snap.Path)
	return nil
}
