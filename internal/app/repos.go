package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/sysup/internal/output"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage tracked git repositories",
	Long: `Manage the registry of local git repositories that 'sysup update'
keeps in sync with their upstreams.

Tracked repositories are fetched during each run and fast-forwarded when
they are cleanly behind upstream. A repository with uncommitted changes
or local commits is reported, never touched.`,
	Example: `  # Track a repository
  sysup repos add ~/src/dotfiles

  # List tracked repositories
  sysup repos list

  # Stop tracking one
  sysup repos remove ~/src/dotfiles`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReposList(cmd, args)
	},
}

var reposAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Track a git repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := repoRegistry().Add(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Tracking %s\n", path)
		return nil
	},
}

var reposRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Stop tracking a git repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := repoRegistry().Remove(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ No longer tracking %s\n", path)
		return nil
	},
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked git repositories",
	Args:  cobra.NoArgs,
	RunE:  runReposList,
}

func init() {
	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposRemoveCmd)
	reposCmd.AddCommand(reposListCmd)

	RootCmd.AddCommand(reposCmd)
}

func runReposList(cmd *cobra.Command, args []string) error {
	repos, err := repoRegistry().List()
	if err != nil {
		return err
	}

	rows := make([]output.RepoRow, len(repos))
	for i, repo := range repos {
		_, statErr := os.Stat(repo.Path)
		rows[i] = output.RepoRow{
			Path:    repo.Path,
			Enabled: repo.Enabled,
			Exists:  statErr == nil,
		}
	}

	fmt.Print(output.RenderRepoTable(rows))
	return nil
}
