package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrackedRepo is one git repository registered for update runs.
type TrackedRepo struct {
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
}

// repoRegistry is the on-disk shape of repositories.json.
type repoRegistry struct {
	Repositories []TrackedRepo `json:"repositories"`
}

// RepoRegistry manages the tracked git repository list. The orchestrator
// only reads the enabled subset; mutation happens through the repos
// subcommands.
type RepoRegistry struct {
	path string
}

// NewRepoRegistry returns a registry backed by the given JSON file.
func NewRepoRegistry(path string) *RepoRegistry {
	return &RepoRegistry{path: path}
}

// List returns all tracked repositories in registry order.
func (r *RepoRegistry) List() ([]TrackedRepo, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read repository registry: %w", err)
	}

	var reg repoRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse repository registry: %w", err)
	}
	return reg.Repositories, nil
}

// Enabled returns only the repositories enabled for update runs.
func (r *RepoRegistry) Enabled() ([]TrackedRepo, error) {
	repos, err := r.List()
	if err != nil {
		return nil, err
	}
	var enabled []TrackedRepo
	for _, repo := range repos {
		if repo.Enabled {
			enabled = append(enabled, repo)
		}
	}
	return enabled, nil
}

// Add registers a repository path. The path must exist and contain a .git
// directory; it is normalized to an absolute path before storage.
func (r *RepoRegistry) Add(path string) (string, error) {
	normalized, err := NormalizeRepoPath(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(normalized); err != nil {
		return "", fmt.Errorf("path does not exist: %s", normalized)
	}
	if _, err := os.Stat(filepath.Join(normalized, ".git")); err != nil {
		return "", fmt.Errorf("%s is not a git repository", normalized)
	}

	repos, err := r.List()
	if err != nil {
		return "", err
	}
	for _, repo := range repos {
		if repo.Path == normalized {
			return "", fmt.Errorf("repository already tracked: %s", normalized)
		}
	}

	repos = append(repos, TrackedRepo{Path: normalized, Enabled: true})
	if err := r.save(repos); err != nil {
		return "", err
	}
	return normalized, nil
}

// Remove drops a repository from the registry.
func (r *RepoRegistry) Remove(path string) (string, error) {
	normalized, err := NormalizeRepoPath(path)
	if err != nil {
		return "", err
	}

	repos, err := r.List()
	if err != nil {
		return "", err
	}

	kept := repos[:0]
	found := false
	for _, repo := range repos {
		if repo.Path == normalized {
			found = true
			continue
		}
		kept = append(kept, repo)
	}
	if !found {
		return "", fmt.Errorf("repository not tracked: %s", normalized)
	}

	if err := r.save(kept); err != nil {
		return "", err
	}
	return normalized, nil
}

func (r *RepoRegistry) save(repos []TrackedRepo) error {
	data, err := json.MarshalIndent(repoRegistry{Repositories: repos}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repository registry: %w", err)
	}
	if err := os.WriteFile(r.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write repository registry: %w", err)
	}
	return nil
}

// NormalizeRepoPath expands a leading ~ and resolves the path to an
// absolute form so registry entries compare reliably.
func NormalizeRepoPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
