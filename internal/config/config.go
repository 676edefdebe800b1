package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// UserConfig holds the user-tunable settings loaded from config.json.
// Missing file or unreadable content falls back to defaults; a run never
// fails because the configuration is absent.
type UserConfig struct {
	EnablePacman        bool     `json:"enable_pacman"`
	EnableAUR           bool     `json:"enable_aur"`
	EnableFlatpak       bool     `json:"enable_flatpak"`
	EnableGitRepos      bool     `json:"enable_git_repos"`
	EnableNotifications bool     `json:"enable_notifications"`
	EnableBackups       bool     `json:"enable_backups"`
	ParallelUpdates     bool     `json:"parallel_updates"`
	NoConfirm           bool     `json:"noconfirm"`
	ExcludedPackages    []string `json:"excluded_packages"`
	NotificationMethods []string `json:"notification_methods"`
	WebhookURL          string   `json:"webhook_url,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default() UserConfig {
	return UserConfig{
		EnablePacman:        true,
		EnableAUR:           true,
		EnableFlatpak:       true,
		EnableGitRepos:      true,
		EnableNotifications: true,
		EnableBackups:       true,
		ParallelUpdates:     false,
		NoConfirm:           false,
		ExcludedPackages:    []string{},
		NotificationMethods: []string{"desktop"},
	}
}

// Load reads the user configuration from path. A missing file returns
// defaults without error; a malformed file is an error so a typo does not
// silently re-enable backups or notifications the user turned off.
func Load(path string) (UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.ExcludedPackages == nil {
		cfg.ExcludedPackages = []string{}
	}
	if cfg.NotificationMethods == nil {
		cfg.NotificationMethods = []string{"desktop"}
	}
	return cfg, nil
}

// Save writes the configuration to path with stable indentation.
func Save(path string, cfg UserConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
