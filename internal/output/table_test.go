package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/sysup/internal/backup"
	"github.com/blackwell-systems/sysup/internal/sources"
	"github.com/blackwell-systems/sysup/internal/stats"
)

func TestRenderPendingTable(t *testing.T) {
	items := []sources.PendingItem{
		{Source: sources.Pacman, Name: "vim", CurrentVersion: "9.1-1", NewVersion: "9.1-2"},
		{Source: sources.Flatpak, Name: "org.mozilla.firefox", CurrentVersion: "126.0", NewVersion: "126.0.1"},
	}

	out := RenderPendingTable(items)
	for _, want := range []string{"vim", "9.1-1", "9.1-2", "org.mozilla.firefox", "pacman", "flatpak"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPendingTable_Empty(t *testing.T) {
	out := RenderPendingTable(nil)
	if !strings.Contains(out, "up to date") {
		t.Errorf("empty table = %q", out)
	}
}

func TestRenderSnapshotTable(t *testing.T) {
	snaps := []backup.Snapshot{
		{ID: "20260830_120000", Path: "/x/packages_20260830_120000.txt", CreatedAt: time.Now(), Packages: 1234, SizeBytes: 40960},
	}

	out := RenderSnapshotTable(snaps)
	if !strings.Contains(out, "20260830_120000") {
		t.Errorf("table missing snapshot ID:\n%s", out)
	}
	if !strings.Contains(out, "1234") {
		t.Errorf("table missing package count:\n%s", out)
	}
	if !strings.Contains(out, "40 KB") {
		t.Errorf("table missing human size:\n%s", out)
	}
}

func TestRenderRunTable(t *testing.T) {
	runs := []*stats.RunRecord{
		{
			ID:        7,
			Timestamp: time.Now().Add(-2 * time.Hour),
			Mode:      stats.ModeApplied,
			Status:    stats.StatusPartial,
			Sources: []stats.SourceRecord{
				{Source: "pacman", Succeeded: 12},
				{Source: "flatpak", Succeeded: 0, Failed: 1},
			},
		},
		{
			ID:        6,
			Timestamp: time.Now().Add(-26 * time.Hour),
			Mode:      stats.ModeDryRun,
			Status:    stats.StatusFailed,
			Aborted:   true,
		},
	}

	out := RenderRunTable(runs)
	for _, want := range []string{"partial", "pacman(12)", "aborted", "dry_run", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRepoTable(t *testing.T) {
	rows := []RepoRow{
		{Path: "/home/u/src/dotfiles", Enabled: true, Exists: true},
		{Path: "/home/u/src/gone", Enabled: false, Exists: false},
	}

	out := RenderRepoTable(rows)
	if !strings.Contains(out, "/home/u/src/dotfiles") || !strings.Contains(out, "enabled") {
		t.Errorf("table missing enabled repo:\n%s", out)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("table missing disabled state:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2") {
		t.Errorf("table missing total:\n%s", out)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{5 * 1024 * 1024, "5 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.bytes); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	cases := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-1 * time.Hour), "1 hour ago"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
	}
	for _, tc := range cases {
		if got := formatRelativeTime(tc.t); got != tc.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	got := truncate("a-very-long-package-name", 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate() = %q, want 10 chars ending in ...", got)
	}
}
