package stats

import (
	"database/sql"
	"fmt"
	"time"
)

// Record appends a run to history. The insert is transactional: the run
// row, its per-source rows and their items commit together, so a
// recorded run is always complete when Record returns.
func (s *Store) Record(run *RunRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (timestamp, mode, status, aborted, backup_ref) VALUES (?, ?, ?, ?, ?)`,
		run.Timestamp.UTC().Format(time.RFC3339),
		string(run.Mode),
		string(run.Status),
		run.Aborted,
		run.BackupRef,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, src := range run.Sources {
		res, err := tx.Exec(
			`INSERT INTO run_sources (run_id, source, attempted, succeeded, failed, error) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, src.Source, src.Attempted, src.Succeeded, src.Failed, src.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert source %s: %w", src.Source, err)
		}
		srcID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get source id: %w", err)
		}

		for _, item := range src.Items {
			if _, err := tx.Exec(
				`INSERT INTO run_items (run_source_id, name, current_version, new_version) VALUES (?, ?, ?, ?)`,
				srcID, item.Name, item.CurrentVersion, item.NewVersion,
			); err != nil {
				return 0, fmt.Errorf("failed to insert item %s: %w", item.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run record: %w", err)
	}
	return runID, nil
}

// Aggregate recomputes totals from the full history. A package counts
// once per run in which any source changed it, regardless of how many
// sources touched the same name. Dry runs record what they would have
// applied; only applied runs count toward the per-package totals.
func (s *Store) Aggregate() (*Aggregate, error) {
	agg := &Aggregate{}

	var last sql.NullString
	err := s.db.QueryRow(`SELECT COUNT(*), MAX(timestamp) FROM runs`).Scan(&agg.TotalRuns, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate runs: %w", err)
	}
	if last.Valid {
		agg.LastRun, err = time.Parse(time.RFC3339, last.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last run timestamp: %w", err)
		}
	}

	rows, err := s.db.Query(`
		SELECT run_items.name, COUNT(DISTINCT run_sources.run_id) AS runs_changed
		FROM run_items
		JOIN run_sources ON run_sources.id = run_items.run_source_id
		JOIN runs ON runs.id = run_sources.run_id
		WHERE runs.mode = ?
		GROUP BY run_items.name
		ORDER BY runs_changed DESC, run_items.name
	`, string(ModeApplied))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate package counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pc PackageCount
		if err := rows.Scan(&pc.Name, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan package count: %w", err)
		}
		agg.PackageCounts = append(agg.PackageCounts, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package counts: %w", err)
	}

	return agg, nil
}

// RecentRuns returns the most recent runs, newest first, with their
// per-source records (items omitted).
func (s *Store) RecentRuns(limit int) ([]*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, mode, status, aborted, backup_ref FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var run RunRecord
		var ts string
		var backupRef sql.NullString
		if err := rows.Scan(&run.ID, &ts, &run.Mode, &run.Status, &run.Aborted, &backupRef); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
		run.BackupRef = backupRef.String
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	for _, run := range runs {
		run.Sources, err = s.runSources(run.ID)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// runSources loads the per-source rows for one run.
func (s *Store) runSources(runID int64) ([]SourceRecord, error) {
	rows, err := s.db.Query(
		`SELECT source, attempted, succeeded, failed, error FROM run_sources WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run sources: %w", err)
	}
	defer rows.Close()

	var srcs []SourceRecord
	for rows.Next() {
		var src SourceRecord
		var srcErr sql.NullString
		if err := rows.Scan(&src.Source, &src.Attempted, &src.Succeeded, &src.Failed, &srcErr); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		src.Error = srcErr.String
		srcs = append(srcs, src)
	}
	return srcs, rows.Err()
}

// RunItems returns the changed items recorded for one run, in insertion
// order.
func (s *Store) RunItems(runID int64) ([]ItemRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_items.name, run_items.current_version, run_items.new_version
		FROM run_items
		JOIN run_sources ON run_sources.id = run_items.run_source_id
		WHERE run_sources.run_id = ?
		ORDER BY run_items.rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run items: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var item ItemRecord
		if err := rows.Scan(&item.Name, &item.CurrentVersion, &item.NewVersion); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// InsertExternalEvent records a package-database change seen by the
// watch daemon.
func (s *Store) InsertExternalEvent(path, op string, ts time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO external_events (path, op, timestamp) VALUES (?, ?, ?)`,
		path, op, ts.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert external event: %w", err)
	}
	return nil
}

// RecentExternalEvents returns watch-daemon events, newest first.
func (s *Store) RecentExternalEvents(limit int) ([]ExternalEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, path, op, timestamp FROM external_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list external events: %w", err)
	}
	defer rows.Close()

	var events []ExternalEvent
	for rows.Next() {
		var ev ExternalEvent
		var ts string
		if err := rows.Scan(&ev.ID, &ev.Path, &ev.Op, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan external event: %w", err)
		}
		ev.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
