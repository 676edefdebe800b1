package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// newTestRunner returns a Runner rooted at a temp hook tree and the
// directory backing the given phase.
func newTestRunner(t *testing.T, phase Phase) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, string(phase))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	r := New(func(p string) string { return filepath.Join(root, p) }, zerolog.Nop())
	return r, dir
}

func writeScript(t *testing.T, dir, name, body string, perm os.FileMode) {
	t.Helper()
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), perm); err != nil {
		t.Fatal(err)
	}
}

func TestRunExecutesScriptsInOrder(t *testing.T) {
	r, dir := newTestRunner(t, PreUpdate)
	marker := filepath.Join(t.TempDir(), "order")

	writeScript(t, dir, "20-second.sh", "echo second >> "+marker, 0755)
	writeScript(t, dir, "10-first.sh", "echo first >> "+marker, 0755)

	results := r.Run(context.Background(), PreUpdate)
	if len(results) != 2 {
		t.Fatalf("Run() returned %d results, want 2", len(results))
	}
	if results[0].Name != "10-first.sh" || results[1].Name != "20-second.sh" {
		t.Errorf("hooks ran out of order: %s then %s", results[0].Name, results[1].Name)
	}
	for _, res := range results {
		if !res.OK() {
			t.Errorf("hook %s failed: %v", res.Name, res.Err)
		}
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("marker file missing: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("execution order = %q, want first then second", string(data))
	}
}

func TestRunSkipsNonExecutableFiles(t *testing.T) {
	r, dir := newTestRunner(t, PreUpdate)

	writeScript(t, dir, "runnable.sh", "true", 0755)
	writeScript(t, dir, "readme.txt", "true", 0644)

	results := r.Run(context.Background(), PreUpdate)
	if len(results) != 1 || results[0].Name != "runnable.sh" {
		t.Errorf("Run() = %+v, want only runnable.sh", results)
	}
}

func TestRunCapturesFailureWithoutPropagating(t *testing.T) {
	r, dir := newTestRunner(t, PostUpdate)

	writeScript(t, dir, "bad.sh", "exit 3", 0755)
	writeScript(t, dir, "good.sh", "true", 0755)

	results := r.Run(context.Background(), PostUpdate)
	if len(results) != 2 {
		t.Fatalf("Run() returned %d results, want 2 (failure must not stop later hooks)", len(results))
	}

	bad := results[0]
	if bad.Name != "bad.sh" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if bad.OK() {
		t.Error("bad.sh should be reported as failed")
	}
	if bad.ExitCode != 3 {
		t.Errorf("bad.sh exit code = %d, want 3", bad.ExitCode)
	}
	if !results[1].OK() {
		t.Errorf("good.sh should still run and succeed: %+v", results[1])
	}
}

func TestRunMissingDirIsQuietNoOp(t *testing.T) {
	r := New(func(p string) string { return filepath.Join(t.TempDir(), "absent", p) }, zerolog.Nop())
	if results := r.Run(context.Background(), PreUpdate); results != nil {
		t.Errorf("Run() on a missing dir = %v, want nil", results)
	}
}
