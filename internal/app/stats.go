package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/output"
)

var (
	statsLimit  int
	statsTop    int
	statsEvents bool
	statsRunID  int64
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show update history and statistics",
	Long: `Display the recorded update history: recent runs with their
per-source outcomes, and the packages updated most often across all
runs.

A package counts once per run in which it changed, so a package touched
by both pacman and the AUR helper in the same run still counts once.

With --events, shows package-database changes the watch daemon observed
outside of sysup runs instead.`,
	Example: `  # Recent runs and most-updated packages
  sysup stats

  # Show more history
  sysup stats --limit 25

  # Per-item detail for one run
  sysup stats --run 42

  # Changes made outside sysup (needs the watch daemon)
  sysup stats --events`,
	Args: cobra.NoArgs,
	RunE: runStatsCmd,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "number of recent runs to show")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of most-updated packages to show")
	statsCmd.Flags().BoolVar(&statsEvents, "events", false, "show external package-database events")
	statsCmd.Flags().Int64Var(&statsRunID, "run", 0, "show changed items for one run id")

	RootCmd.AddCommand(statsCmd)
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	if statsLimit <= 0 {
		return fmt.Errorf("invalid limit: %d (must be positive)", statsLimit)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if statsEvents {
		events, err := st.RecentExternalEvents(statsLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No external events recorded. Run 'sysup watch --daemon' to track them.")
			return nil
		}
		for _, ev := range events {
			fmt.Printf("%s  %-8s %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Op, ev.Path)
		}
		return nil
	}

	if statsRunID > 0 {
		items, err := st.RunItems(statsRunID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Printf("No items recorded for run %d.\n", statsRunID)
			return nil
		}
		fmt.Printf("Run %d:\n", statsRunID)
		for _, item := range items {
			fmt.Printf("  %s %s -> %s\n", item.Name, item.CurrentVersion, item.NewVersion)
		}
		return nil
	}

	agg, err := st.Aggregate()
	if err != nil {
		return err
	}

	if agg.TotalRuns == 0 {
		fmt.Println("No runs recorded yet. Run 'sysup update' to get started.")
		return nil
	}

	fmt.Printf("Total runs: %d\n", agg.TotalRuns)
	fmt.Printf("Last run:   %s\n", agg.LastRun.Format("2006-01-02 15:04:05"))
	fmt.Println()

	runs, err := st.RecentRuns(statsLimit)
	if err != nil {
		return err
	}
	fmt.Println("Recent runs:")
	fmt.Print(output.RenderRunTable(runs))

	if len(agg.PackageCounts) > 0 {
		top := agg.PackageCounts
		if len(top) > statsTop {
			top = top[:statsTop]
		}
		fmt.Println("\nMost updated packages:")
		for _, pc := range top {
			fmt.Printf("  %3d  %s\n", pc.Count, pc.Name)
		}
	}
	return nil
}
