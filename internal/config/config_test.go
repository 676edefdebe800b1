package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load() on missing file failed: %v", err)
	}
	if !cfg.EnablePacman || !cfg.EnableBackups {
		t.Errorf("defaults should enable pacman and backups: %+v", cfg)
	}
	if cfg.NoConfirm {
		t.Error("defaults should require confirmation")
	}
	if len(cfg.NotificationMethods) != 1 || cfg.NotificationMethods[0] != "desktop" {
		t.Errorf("default notification methods = %v, want [desktop]", cfg.NotificationMethods)
	}
}

func TestLoad_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on malformed JSON")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	want := Default()
	want.EnableFlatpak = false
	want.ExcludedPackages = []string{"linux", "nvidia"}
	want.NotificationMethods = []string{"desktop", "webhook"}
	want.WebhookURL = "https://example.invalid/hook"

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got.EnableFlatpak {
		t.Error("EnableFlatpak should survive the round trip as false")
	}
	if len(got.ExcludedPackages) != 2 || got.ExcludedPackages[0] != "linux" {
		t.Errorf("ExcludedPackages = %v", got.ExcludedPackages)
	}
	if got.WebhookURL != want.WebhookURL {
		t.Errorf("WebhookURL = %q, want %q", got.WebhookURL, want.WebhookURL)
	}
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"enable_aur": false}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.EnableAUR {
		t.Error("enable_aur=false in the file should stick")
	}
	if !cfg.EnablePacman {
		t.Error("settings absent from the file should keep their defaults")
	}
	if cfg.ExcludedPackages == nil || cfg.NotificationMethods == nil {
		t.Error("slice settings must never come back nil")
	}
}
