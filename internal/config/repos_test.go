package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newGitDir creates a directory containing a .git subdirectory.
func newGitDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("failed to create git dir: %v", err)
	}
	return dir
}

func newTestRegistry(t *testing.T) *RepoRegistry {
	t.Helper()
	return NewRepoRegistry(filepath.Join(t.TempDir(), "repositories.json"))
}

func TestRepoRegistryAddAndList(t *testing.T) {
	reg := newTestRegistry(t)
	repo := newGitDir(t, "dotfiles")

	added, err := reg.Add(repo)
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if added != repo {
		t.Errorf("Add() = %q, want %q", added, repo)
	}

	repos, err := reg.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(repos) != 1 || repos[0].Path != repo || !repos[0].Enabled {
		t.Fatalf("unexpected registry contents: %+v", repos)
	}
}

func TestRepoRegistryAdd_Duplicate(t *testing.T) {
	reg := newTestRegistry(t)
	repo := newGitDir(t, "dotfiles")

	if _, err := reg.Add(repo); err != nil {
		t.Fatalf("first Add() failed: %v", err)
	}
	if _, err := reg.Add(repo); err == nil {
		t.Fatal("Add() should refuse a duplicate path")
	}
}

func TestRepoRegistryAdd_NotAGitRepo(t *testing.T) {
	reg := newTestRegistry(t)
	dir := t.TempDir()

	_, err := reg.Add(dir)
	if err == nil {
		t.Fatal("Add() should refuse a directory without .git")
	}
	if !strings.Contains(err.Error(), "not a git repository") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRepoRegistryAdd_MissingPath(t *testing.T) {
	reg := newTestRegistry(t)
	if _, err := reg.Add("/nonexistent/path"); err == nil {
		t.Fatal("Add() should refuse a missing path")
	}
}

func TestRepoRegistryRemove(t *testing.T) {
	reg := newTestRegistry(t)
	repo := newGitDir(t, "dotfiles")

	if _, err := reg.Add(repo); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if _, err := reg.Remove(repo); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	repos, err := reg.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(repos) != 0 {
		t.Errorf("registry should be empty after Remove, got %+v", repos)
	}

	if _, err := reg.Remove(repo); err == nil {
		t.Error("removing an untracked repo should fail")
	}
}

func TestRepoRegistryEnabled(t *testing.T) {
	reg := newTestRegistry(t)
	on := newGitDir(t, "on")
	off := newGitDir(t, "off")

	if _, err := reg.Add(on); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Add(off); err != nil {
		t.Fatal(err)
	}

	// Disable the second entry directly through the save path.
	repos, _ := reg.List()
	for i := range repos {
		if repos[i].Path == off {
			repos[i].Enabled = false
		}
	}
	if err := reg.save(repos); err != nil {
		t.Fatalf("save() failed: %v", err)
	}

	enabled, err := reg.Enabled()
	if err != nil {
		t.Fatalf("Enabled() failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Path != on {
		t.Errorf("Enabled() = %+v, want only %q", enabled, on)
	}
}

func TestNormalizeRepoPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := NormalizeRepoPath("~/src/dotfiles")
	if err != nil {
		t.Fatalf("NormalizeRepoPath() failed: %v", err)
	}
	want := filepath.Join(home, "src", "dotfiles")
	if got != want {
		t.Errorf("NormalizeRepoPath(~/src/dotfiles) = %q, want %q", got, want)
	}

	abs, err := NormalizeRepoPath("/tmp/../tmp/repo")
	if err != nil {
		t.Fatalf("NormalizeRepoPath() failed: %v", err)
	}
	if abs != "/tmp/repo" {
		t.Errorf("NormalizeRepoPath() = %q, want /tmp/repo", abs)
	}
}
