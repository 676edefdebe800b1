package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fixedLister returns a static package set.
func fixedLister(pkgs [][2]string) Lister {
	return func(ctx context.Context) ([][2]string, error) {
		return pkgs, nil
	}
}

func TestCreateWritesPackageList(t *testing.T) {
	dir := t.TempDir()
	m := &Manager{
		dir:  dir,
		list: fixedLister([][2]string{{"bash", "5.2-1"}, {"vim", "9.1-1"}}),
		now:  func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local) },
	}

	snap, err := m.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if snap.ID != "20260830_120000" {
		t.Errorf("snapshot ID = %q, want 20260830_120000", snap.ID)
	}
	if snap.Packages != 2 {
		t.Errorf("snapshot package count = %d, want 2", snap.Packages)
	}

	data, err := os.ReadFile(snap.Path)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	want := "bash 5.2-1\nvim 9.1-1\n"
	if string(data) != want {
		t.Errorf("snapshot content = %q, want %q", string(data), want)
	}
	if filepath.Base(snap.Path) != "packages_20260830_120000.txt" {
		t.Errorf("snapshot filename = %q", filepath.Base(snap.Path))
	}
}

func TestCreate_ListerFailure(t *testing.T) {
	m := &Manager{
		dir: t.TempDir(),
		list: func(ctx context.Context) ([][2]string, error) {
			return nil, errors.New("pacman exploded")
		},
		now: time.Now,
	}
	if _, err := m.Create(context.Background()); err == nil {
		t.Fatal("Create() should fail when the package list cannot be read")
	}
}

func TestCreate_UnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	parent := t.TempDir()
	if err := os.Chmod(parent, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(parent, 0755) })

	m := New(filepath.Join(parent, "backups"))
	m.list = fixedLister(nil)

	_, err := m.Create(context.Background())
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Create() error = %v, want ErrWrite", err)
	}
}

func TestCreatePrunesOldSnapshots(t *testing.T) {
	dir := t.TempDir()

	// Seed more snapshots than the retention limit, oldest first.
	for i := 0; i < keepSnapshots+3; i++ {
		name := fmt.Sprintf("packages_2026010%d_1200%02d.txt", i%9+1, i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("bash 5.2-1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := &Manager{
		dir:  dir,
		list: fixedLister([][2]string{{"bash", "5.2-1"}}),
		now:  func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local) },
	}
	if _, err := m.Create(context.Background()); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != keepSnapshots {
		t.Errorf("List() returned %d snapshots after pruning, want %d", len(snaps), keepSnapshots)
	}
	// The newest snapshot is the one just created.
	if snaps[0].ID != "20260830_120000" {
		t.Errorf("newest snapshot ID = %q, want 20260830_120000", snaps[0].ID)
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"20260101_090000", "20260301_090000", "20260201_090000"} {
		name := "packages_" + id + ".txt"
		if err := os.WriteFile(filepath.Join(dir, name), []byte("a 1\nb 2\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Files that are not snapshots are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	m := New(dir)
	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("List() returned %d snapshots, want 3", len(snaps))
	}

	var ids []string
	for _, s := range snaps {
		ids = append(ids, s.ID)
	}
	want := "20260301_090000,20260201_090000,20260101_090000"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("List() order = %s, want %s", got, want)
	}
	if snaps[0].Packages != 2 {
		t.Errorf("snapshot package count = %d, want 2", snaps[0].Packages)
	}
}

func TestList_EmptyDir(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "missing"))
	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List() on a missing dir failed: %v", err)
	}
	if snaps != nil {
		t.Errorf("List() = %v, want nil", snaps)
	}
}
