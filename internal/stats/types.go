package stats

import "time"

// RunMode distinguishes preview runs from applying runs.
type RunMode string

const (
	ModeDryRun  RunMode = "dry_run"
	ModeApplied RunMode = "applied"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusPartial RunStatus = "partial"
	StatusFailed  RunStatus = "failed"
)

// RunRecord is one orchestrator run as persisted to history. Records are
// append-only and immutable once written.
type RunRecord struct {
	ID        int64
	Timestamp time.Time
	Mode      RunMode
	Status    RunStatus
	Aborted   bool
	BackupRef string
	Sources   []SourceRecord
}

// SourceRecord is the per-source slice of a run.
type SourceRecord struct {
	Source    string
	Attempted int
	Succeeded int
	Failed    int
	Error     string
	Items     []ItemRecord
}

// ItemRecord is one changed package/app/repository.
type ItemRecord struct {
	Name           string
	CurrentVersion string
	NewVersion     string
}

// Aggregate is derived from the full recorded history on demand.
type Aggregate struct {
	TotalRuns     int
	LastRun       time.Time
	PackageCounts []PackageCount
}

// PackageCount pairs a package name with the number of runs that
// changed it.
type PackageCount struct {
	Name  string
	Count int
}

// ExternalEvent is a package-database change observed by the watch
// daemon outside of a sysup run.
type ExternalEvent struct {
	ID        int64
	Path      string
	Op        string
	Timestamp time.Time
}
