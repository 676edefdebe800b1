// Package output provides terminal output utilities for sysup: table
// rendering for pending updates, snapshots, runs and repositories, a
// spinner for long-running tool invocations, and ANSI color helpers.
// Colors are emitted only when stdout is a TTY and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/sysup/internal/backup"
	"github.com/blackwell-systems/sysup/internal/sources"
	"github.com/blackwell-systems/sysup/internal/stats"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Colorize wraps text in the given ANSI color when colors are enabled.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// Green renders success text.
func Green(text string) string { return colorize(colorGreen, text) }

// Yellow renders warning text.
func Yellow(text string) string { return colorize(colorYellow, text) }

// Red renders failure text.
func Red(text string) string { return colorize(colorRed, text) }

// Cyan renders heading text.
func Cyan(text string) string { return colorize(colorCyan, text) }

// RenderPendingTable renders detected updates grouped in check order.
func RenderPendingTable(items []sources.PendingItem) string {
	if len(items) == 0 {
		return "Everything is up to date.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-8s %-32s %-18s %s\n", "Source", "Name", "Current", "New"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, item := range items {
		sb.WriteString(fmt.Sprintf("%-8s %-32s %-18s %s\n",
			item.Source,
			truncate(item.Name, 32),
			truncate(item.CurrentVersion, 18),
			item.NewVersion))
	}
	return sb.String()
}

// RenderSnapshotTable renders backup snapshots, newest first.
func RenderSnapshotTable(snaps []backup.Snapshot) string {
	if len(snaps) == 0 {
		return "No backups found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-17s %-20s %-10s %s\n", "ID", "Created", "Packages", "Size"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, snap := range snaps {
		sb.WriteString(fmt.Sprintf("%-17s %-20s %-10d %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.Packages,
			formatSize(snap.SizeBytes)))
	}
	return sb.String()
}

// RenderRunTable renders recorded runs, newest first.
func RenderRunTable(runs []*stats.RunRecord) string {
	if len(runs) == 0 {
		return "No recorded runs yet.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-20s %-9s %-9s %s\n", "ID", "When", "Mode", "Status", "Sources"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, run := range runs {
		var srcs []string
		for _, src := range run.Sources {
			srcs = append(srcs, fmt.Sprintf("%s(%d)", src.Source, src.Succeeded))
		}
		status := string(run.Status)
		if run.Aborted {
			status = "aborted"
		}
		sb.WriteString(fmt.Sprintf("%-5d %-20s %-9s %-9s %s\n",
			run.ID,
			formatRelativeTime(run.Timestamp),
			run.Mode,
			status,
			strings.Join(srcs, " ")))
	}
	return sb.String()
}

// RepoRow is the display shape for one tracked repository.
type RepoRow struct {
	Path    string
	Enabled bool
	Exists  bool
}

// RenderRepoTable renders the tracked repository registry. A missing
// path is flagged so the user can prune dead entries.
func RenderRepoTable(repos []RepoRow) string {
	if len(repos) == 0 {
		return "No repositories tracked yet.\nAdd one with: sysup repos add /path/to/repo\n"
	}

	var sb strings.Builder
	for i, repo := range repos {
		marker := Green("✓")
		if !repo.Exists {
			marker = Red("✗")
		}
		state := "enabled"
		if !repo.Enabled {
			state = "disabled"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", marker, i+1, repo.Path, state))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d repositories\n", len(repos)))
	return sb.String()
}

// formatSize converts bytes to human-readable size (GB, MB, KB).
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatRelativeTime converts a timestamp to relative time ("2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
