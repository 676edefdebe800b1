package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/output"
	"github.com/blackwell-systems/sysup/internal/sources"
)

var (
	cleanYes       bool
	cleanCacheOnly bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove orphaned packages and trim caches",
	Long: `Remove packages that were installed as dependencies and are no
longer required by anything, then trim the pacman package cache and
unused flatpak runtimes.

Orphan removal uses pacman -Rns, so orphaned configuration files are
cleaned up as well. The cache trim keeps no old package versions
(paccache -r -k 0); skip it if you rely on the cache for downgrades.`,
	Example: `  # Remove orphans and trim caches, with confirmation
  sysup clean

  # Unattended
  sysup clean --yes

  # Only trim caches, keep orphans
  sysup clean --cache-only`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "skip the confirmation prompt")
	cleanCmd.Flags().BoolVar(&cleanCacheOnly, "cache-only", false, "trim caches without removing orphans")

	RootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !cleanCacheOnly {
		if !cleanYes && !promptYesNo("Remove orphaned packages?") {
			fmt.Println("Skipping orphan removal.")
		} else {
			removed, err := sources.CleanOrphans(ctx)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("No orphaned packages.")
			} else {
				fmt.Printf("✓ Removed %d orphaned package(s):\n", len(removed))
				for _, name := range removed {
					fmt.Printf("  %s\n", name)
				}
			}
		}
	}

	if err := sources.ClearPacmanCache(ctx); err != nil {
		if errors.Is(err, sources.ErrUnavailable) {
			fmt.Println(output.Yellow("Skipping pacman cache (paccache not installed)"))
		} else {
			return err
		}
	} else {
		fmt.Println("✓ Pacman cache trimmed")
	}

	if err := sources.ClearFlatpakCache(ctx); err != nil {
		if errors.Is(err, sources.ErrUnavailable) {
			fmt.Println(output.Yellow("Skipping flatpak runtimes (flatpak not installed)"))
		} else {
			return err
		}
	} else {
		fmt.Println("✓ Unused flatpak runtimes removed")
	}

	return nil
}
