package app

import (
	"testing"

	"github.com/blackwell-systems/sysup/internal/config"
	"github.com/blackwell-systems/sysup/internal/sources"
)

func TestEnabledSources_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.EnableAUR = false

	enabled, err := enabledSources(cfg, nil)
	if err != nil {
		t.Fatalf("enabledSources() failed: %v", err)
	}
	if !enabled[sources.Pacman] || enabled[sources.AUR] {
		t.Errorf("enabled = %v, want pacman on and aur off", enabled)
	}
	if !enabled[sources.Flatpak] || !enabled[sources.Git] {
		t.Errorf("enabled = %v, flatpak and git should follow the defaults", enabled)
	}
}

func TestEnabledSources_SkipFlag(t *testing.T) {
	enabled, err := enabledSources(config.Default(), []string{"flatpak", "git"})
	if err != nil {
		t.Fatalf("enabledSources() failed: %v", err)
	}
	if enabled[sources.Flatpak] || enabled[sources.Git] {
		t.Errorf("enabled = %v, skipped sources must be off", enabled)
	}
	if !enabled[sources.Pacman] || !enabled[sources.AUR] {
		t.Errorf("enabled = %v, unskipped sources stay on", enabled)
	}
}

func TestEnabledSources_UnknownSource(t *testing.T) {
	if _, err := enabledSources(config.Default(), []string{"snap"}); err == nil {
		t.Fatal("enabledSources() should reject an unknown source name")
	}
}
