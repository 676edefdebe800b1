// Package engine composes the four update sources, the backup manager,
// the hook runner and the statistics store into one coordinated run.
// There is no underlying transaction primitive across the external
// tools, so the orchestrator owns the partial-failure semantics: one
// source failing never prevents the others from running, and every
// outcome ends up in exactly one recorded run.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/sysup/internal/backup"
	"github.com/blackwell-systems/sysup/internal/hooks"
	"github.com/blackwell-systems/sysup/internal/notify"
	"github.com/blackwell-systems/sysup/internal/output"
	"github.com/blackwell-systems/sysup/internal/sources"
	"github.com/blackwell-systems/sysup/internal/stats"
)

// RunConfig is the resolved, immutable configuration for one run.
type RunConfig struct {
	Enabled   map[sources.Source]bool
	DryRun    bool
	NoConfirm bool
	Parallel  bool
	Excluded  []string
	Backup    bool
}

// State names the phases of the run state machine.
type State string

const (
	StateIdle       State = "idle"
	StatePreHooks   State = "running-pre-hooks"
	StateChecking   State = "checking-pending"
	StateReporting  State = "reporting"
	StateConfirming State = "awaiting-confirmation"
	StateBackingUp  State = "backing-up"
	StateApplying   State = "applying"
	StatePostHooks  State = "running-post-hooks"
	StateRecording  State = "recording"
)

// BackupCreator snapshots the installed package set before applying.
type BackupCreator interface {
	Create(ctx context.Context) (*backup.Snapshot, error)
}

// HookExecutor runs the scripts of one hook phase.
type HookExecutor interface {
	Run(ctx context.Context, phase hooks.Phase) []hooks.Result
}

// Recorder appends a finished run to history.
type Recorder interface {
	Record(run *stats.RunRecord) (int64, error)
}

// Confirmer asks the user for approval before applying.
type Confirmer func(prompt string) bool

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Adapters map[sources.Source]sources.Adapter
	Backup   BackupCreator
	Hooks    HookExecutor
	Store    Recorder
	Notifier notify.Notifier
	Confirm  Confirmer
	Lock     *RunLock
	Out      io.Writer
	Log      zerolog.Logger
}

// Orchestrator runs one coordinated update across all enabled sources.
type Orchestrator struct {
	adapters map[sources.Source]sources.Adapter
	backup   BackupCreator
	hooks    HookExecutor
	store    Recorder
	notifier notify.Notifier
	confirm  Confirmer
	lock     *RunLock
	out      io.Writer
	log      zerolog.Logger

	state State
	now   func() time.Time
}

// New returns an Orchestrator over the given collaborators.
func New(deps Deps) *Orchestrator {
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{
		adapters: deps.Adapters,
		backup:   deps.Backup,
		hooks:    deps.Hooks,
		store:    deps.Store,
		notifier: deps.Notifier,
		confirm:  deps.Confirm,
		lock:     deps.Lock,
		out:      out,
		log:      deps.Log,
		state:    StateIdle,
		now:      time.Now,
	}
}

// pendingSource is one enabled source's check outcome, exclusion-filtered.
type pendingSource struct {
	src      sources.Source
	items    []sources.PendingItem
	checkErr error
}

// Run executes one update run and returns its record. A single source's
// failure is captured in the record, never returned as an error; Run only
// errors on pre-run invariant violations (concurrent run, backup write
// failure), user abort, or a failed history write.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*stats.RunRecord, error) {
	if o.lock != nil {
		if err := o.lock.Acquire(); err != nil {
			return nil, err
		}
		defer o.lock.Release()
	}

	record := &stats.RunRecord{Timestamp: o.now(), Mode: stats.ModeApplied}
	if cfg.DryRun {
		record.Mode = stats.ModeDryRun
	}

	// A dry run must have zero side effects, so hooks only fire for
	// applying runs.
	preRan := false
	if !cfg.DryRun {
		o.setState(StatePreHooks)
		o.runHooks(ctx, hooks.PreUpdate)
		preRan = true
	}

	o.setState(StateChecking)
	pending := o.checkPending(ctx, cfg)

	total := 0
	for _, p := range pending {
		total += len(p.items)
	}

	if total == 0 && !anyCheckError(pending) {
		// Nothing to do anywhere: terminal success with an empty
		// per-source map, and the backup manager is never invoked.
		fmt.Fprintln(o.out, "Everything is up to date.")
		if preRan {
			o.setState(StatePostHooks)
			o.runHooks(ctx, hooks.PostUpdate)
		}
		record.Status = stats.StatusSuccess
		if err := o.record(record); err != nil {
			return record, err
		}
		if !cfg.DryRun {
			o.sendNotification(ctx, record, nil)
		}
		return record, nil
	}

	if cfg.DryRun {
		o.setState(StateReporting)
		o.reportDryRun(pending)
		record.Status = stats.StatusSuccess
		if anyCheckError(pending) {
			record.Status = stats.StatusPartial
		}
		for _, p := range pending {
			record.Sources = append(record.Sources, dryRunSourceRecord(p))
		}
		if err := o.record(record); err != nil {
			return record, err
		}
		return record, nil
	}

	o.setState(StateConfirming)
	if !cfg.NoConfirm {
		prompt := fmt.Sprintf("Apply %d update(s)?", total)
		if o.confirm == nil || !o.confirm(prompt) {
			record.Status = stats.StatusFailed
			record.Aborted = true
			if preRan {
				o.setState(StatePostHooks)
				o.runHooks(ctx, hooks.PostUpdate)
			}
			if err := o.record(record); err != nil {
				return record, err
			}
			return record, ErrAborted
		}
	}

	if cfg.Backup {
		o.setState(StateBackingUp)
		snap, err := o.backup.Create(ctx)
		if err != nil {
			// Applying without a snapshot is worse than not applying:
			// abort before any source mutates the system.
			record.Status = stats.StatusFailed
			if preRan {
				o.setState(StatePostHooks)
				o.runHooks(ctx, hooks.PostUpdate)
			}
			if recErr := o.record(record); recErr != nil {
				return record, recErr
			}
			return record, fmt.Errorf("backup failed, refusing to update: %w", err)
		}
		record.BackupRef = snap.ID
		fmt.Fprintf(o.out, "Backup created: %s\n", snap.ID)
	}

	o.setState(StateApplying)
	results := o.apply(ctx, cfg, pending)
	aborted := ctx.Err() != nil

	if preRan {
		o.setState(StatePostHooks)
		// Post hooks still run on abort: resource symmetry with the pre
		// hooks that already fired.
		o.runHooks(context.WithoutCancel(ctx), hooks.PostUpdate)
	}

	o.setState(StateRecording)
	for _, res := range results {
		record.Sources = append(record.Sources, toSourceRecord(res))
	}
	record.Aborted = aborted
	record.Status = deriveStatus(results, aborted)

	if err := o.record(record); err != nil {
		return record, err
	}
	o.sendNotification(context.WithoutCancel(ctx), record, results)

	if aborted {
		return record, ErrAborted
	}
	return record, nil
}

// checkPending queries each enabled source in the fixed order. A missing
// tool disables the source for this run; a check failure is isolated
// into that source's record.
func (o *Orchestrator) checkPending(ctx context.Context, cfg RunConfig) []pendingSource {
	excluded := map[string]bool{}
	for _, name := range cfg.Excluded {
		excluded[name] = true
	}

	var pending []pendingSource
	for _, src := range sources.All {
		if !cfg.Enabled[src] {
			continue
		}
		adapter, ok := o.adapters[src]
		if !ok {
			continue
		}
		if !adapter.Available() {
			o.log.Info().Str("source", string(src)).Msg("tool not installed, source skipped")
			fmt.Fprintf(o.out, "Skipping %s (tool not installed)\n", src)
			continue
		}

		items, err := adapter.CheckPending(ctx)
		if err != nil {
			o.log.Error().Err(err).Str("source", string(src)).Msg("check failed")
			pending = append(pending, pendingSource{src: src, checkErr: err})
			continue
		}

		// Name-based exclusion only makes sense where items are package
		// names; flatpak app IDs and git paths pass through untouched.
		if src == sources.Pacman || src == sources.AUR {
			items = filterExcluded(items, excluded)
		}
		pending = append(pending, pendingSource{src: src, items: items})
	}
	return pending
}

// apply runs the sources in order: pacman then aur sequentially (they
// share the package database lock), then flatpak and git, concurrently
// when parallel mode is on, since neither touches that lock.
func (o *Orchestrator) apply(ctx context.Context, cfg RunConfig, pending []pendingSource) []*sources.SourceResult {
	bySrc := map[sources.Source]pendingSource{}
	for _, p := range pending {
		bySrc[p.src] = p
	}

	var results []*sources.SourceResult
	for _, src := range []sources.Source{sources.Pacman, sources.AUR} {
		p, ok := bySrc[src]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res := o.applySource(ctx, cfg, p)
		results = append(results, res)
		o.printResult(res)
	}

	var trailing []pendingSource
	for _, src := range []sources.Source{sources.Flatpak, sources.Git} {
		if p, ok := bySrc[src]; ok {
			trailing = append(trailing, p)
		}
	}

	if ctx.Err() != nil {
		return results
	}

	if cfg.Parallel && len(trailing) > 1 {
		// Outputs stay in per-source buffers and are printed after the
		// group finishes, so concurrent tools never interleave.
		slots := make([]*sources.SourceResult, len(trailing))
		var g errgroup.Group
		g.SetLimit(len(trailing))
		for i, p := range trailing {
			i, p := i, p
			g.Go(func() error {
				slots[i] = o.applySource(ctx, cfg, p)
				return nil
			})
		}
		g.Wait()
		for _, res := range slots {
			results = append(results, res)
			o.printResult(res)
		}
		return results
	}

	for _, p := range trailing {
		if ctx.Err() != nil {
			break
		}
		res := o.applySource(ctx, cfg, p)
		results = append(results, res)
		o.printResult(res)
	}
	return results
}

// applySource applies one source's items, folding any error into the
// result so a failure never escapes the source boundary.
func (o *Orchestrator) applySource(ctx context.Context, cfg RunConfig, p pendingSource) *sources.SourceResult {
	if p.checkErr != nil {
		return &sources.SourceResult{Source: p.src, Err: p.checkErr}
	}

	opts := sources.Options{}
	if p.src == sources.Pacman || p.src == sources.AUR {
		opts.Exclude = cfg.Excluded
	}

	adapter := o.adapters[p.src]
	res, err := adapter.Apply(ctx, p.items, opts)
	if res == nil {
		res = &sources.SourceResult{Source: p.src, Attempted: len(p.items), Failed: len(p.items)}
	}
	if err != nil && res.Err == nil {
		res.Err = err
	}

	if res.Err != nil {
		o.log.Error().Err(res.Err).Str("source", string(p.src)).Int("failed", res.Failed).Msg("source apply failed")
	} else {
		o.log.Info().Str("source", string(p.src)).Int("succeeded", res.Succeeded).Msg("source applied")
	}
	return res
}

// runHooks executes one hook phase and reports per-script outcomes.
// Hook failures are logged, never propagated.
func (o *Orchestrator) runHooks(ctx context.Context, phase hooks.Phase) {
	results := o.hooks.Run(ctx, phase)
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(o.out, "Running %s hooks...\n", phase)
	for _, res := range results {
		if res.OK() {
			fmt.Fprintf(o.out, "  ✓ %s\n", res.Name)
		} else {
			fmt.Fprintf(o.out, "  ✗ %s (exit code %d)\n", res.Name, res.ExitCode)
		}
	}
}

// reportDryRun prints what an applying run would do.
func (o *Orchestrator) reportDryRun(pending []pendingSource) {
	fmt.Fprintln(o.out, "Dry run: no changes will be made.")
	var items []sources.PendingItem
	for _, p := range pending {
		if p.checkErr != nil {
			fmt.Fprintf(o.out, "%s: check failed: %v\n", p.src, p.checkErr)
			continue
		}
		items = append(items, p.items...)
	}
	fmt.Fprint(o.out, output.RenderPendingTable(items))
}

// printResult flushes one source's captured output and a summary line.
func (o *Orchestrator) printResult(res *sources.SourceResult) {
	if out := strings.TrimSpace(res.Output); out != "" {
		fmt.Fprintln(o.out, out)
	}
	switch {
	case res.Err != nil && res.Succeeded == 0:
		fmt.Fprintf(o.out, "✗ %s failed: %v\n", res.Source, res.Err)
	case res.Err != nil:
		fmt.Fprintf(o.out, "⚠ %s: %d updated, %d failed\n", res.Source, res.Succeeded, res.Failed)
	default:
		fmt.Fprintf(o.out, "✓ %s: %d updated\n", res.Source, res.Succeeded)
	}
}

// record appends the run to history; history must be durable before Run
// returns.
func (o *Orchestrator) record(record *stats.RunRecord) error {
	id, err := o.store.Record(record)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	record.ID = id
	return nil
}

// sendNotification delivers the run summary, if a notifier is configured.
func (o *Orchestrator) sendNotification(ctx context.Context, record *stats.RunRecord, results []*sources.SourceResult) {
	if o.notifier == nil {
		return
	}

	ev := notify.Event{Status: string(record.Status)}
	var errParts []string
	for _, res := range results {
		if res.Succeeded > 0 {
			ev.SourcesChanged = append(ev.SourcesChanged, string(res.Source))
			ev.TotalItems += res.Succeeded
		}
		if res.Err != nil {
			errParts = append(errParts, fmt.Sprintf("%s: %v", res.Source, res.Err))
		}
	}
	ev.ErrorSummary = strings.Join(errParts, "; ")
	o.notifier.Send(ctx, ev)
}

// setState advances the run state machine.
func (o *Orchestrator) setState(s State) {
	o.state = s
	o.log.Debug().Str("state", string(s)).Msg("state transition")
}

// deriveStatus folds per-source outcomes into the overall run status.
func deriveStatus(results []*sources.SourceResult, aborted bool) stats.RunStatus {
	if aborted {
		return stats.StatusFailed
	}

	anyFail := false
	anySuccess := false
	for _, res := range results {
		failed := res.Err != nil || res.Failed > 0
		if failed {
			anyFail = true
		}
		if res.Succeeded > 0 || !failed {
			anySuccess = true
		}
	}

	switch {
	case !anyFail:
		return stats.StatusSuccess
	case anySuccess:
		return stats.StatusPartial
	default:
		return stats.StatusFailed
	}
}

// filterExcluded drops items whose package name is excluded.
func filterExcluded(items []sources.PendingItem, excluded map[string]bool) []sources.PendingItem {
	if len(excluded) == 0 {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if !excluded[item.Name] {
			kept = append(kept, item)
		}
	}
	return kept
}

// toSourceRecord converts a live result into its persisted form.
func toSourceRecord(res *sources.SourceResult) stats.SourceRecord {
	rec := stats.SourceRecord{
		Source:    string(res.Source),
		Attempted: res.Attempted,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	for _, item := range res.Items {
		rec.Items = append(rec.Items, stats.ItemRecord{
			Name:           item.Name,
			CurrentVersion: item.CurrentVersion,
			NewVersion:     item.NewVersion,
		})
	}
	return rec
}

// dryRunSourceRecord records what a source would have applied.
func dryRunSourceRecord(p pendingSource) stats.SourceRecord {
	rec := stats.SourceRecord{Source: string(p.src), Attempted: len(p.items)}
	if p.checkErr != nil {
		rec.Error = p.checkErr.Error()
	}
	for _, item := range p.items {
		rec.Items = append(rec.Items, stats.ItemRecord{
			Name:           item.Name,
			CurrentVersion: item.CurrentVersion,
			NewVersion:     item.NewVersion,
		})
	}
	return rec
}

// anyCheckError reports whether any source failed its pending check.
func anyCheckError(pending []pendingSource) bool {
	for _, p := range pending {
		if p.checkErr != nil {
			return true
		}
	}
	return false
}
