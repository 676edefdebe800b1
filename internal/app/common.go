package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/sysup/internal/config"
	"github.com/blackwell-systems/sysup/internal/stats"
)

// openStore opens the statistics database and ensures the schema exists.
func openStore() (*stats.Store, error) {
	st, err := stats.New(appPaths().DBFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}

// loadConfig reads the user configuration, falling back to defaults when
// no file exists.
func loadConfig() (config.UserConfig, error) {
	return config.Load(appPaths().ConfigFile())
}

// repoRegistry returns the tracked git repository registry.
func repoRegistry() *config.RepoRegistry {
	return config.NewRepoRegistry(appPaths().ReposFile())
}

// promptYesNo asks on stdin and accepts "y" or "yes".
func promptYesNo(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
