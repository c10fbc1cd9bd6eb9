// Package pipeline applies a loaded recipe across the POM files of a
// project tree, recording state and emitting lifecycle events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/szaher/pomsmith/internal/events"
	"github.com/szaher/pomsmith/internal/pom"
	"github.com/szaher/pomsmith/internal/recipe"
	"github.com/szaher/pomsmith/internal/result"
	"github.com/szaher/pomsmith/internal/state"
	"github.com/szaher/pomsmith/internal/telemetry"
)

// errOperationFailed marks a run aborted by an error outcome, as
// opposed to an infrastructure failure.
var errOperationFailed = errors.New("operation failed")

// DefaultConcurrency is the number of POM files transformed at once
// when the Runner does not specify one.
const DefaultConcurrency = 4

// Runner applies recipes to a project tree. Each POM file is processed
// by exactly one goroutine; a single document is never shared, so the
// operations themselves stay single-threaded.
type Runner struct {
	Root    string
	Backend state.Backend
	Emitter events.Emitter
	Logger  *slog.Logger
	Metrics *telemetry.Metrics

	// DryRun applies operations in memory but writes neither POM files
	// nor state.
	DryRun bool

	// Concurrency limits how many files are transformed at once.
	// Zero means DefaultConcurrency.
	Concurrency int
}

// FileResult summarizes what a run did to one POM file.
type FileResult struct {
	Path     string
	Outcomes []result.Outcome
	Changed  bool
	Failed   bool
	Skipped  bool
	Error    string
}

// RunResult summarizes a whole run.
type RunResult struct {
	Files    []FileResult
	Changed  int
	Warnings int
	NoOps    int
	Errors   int
	Skipped  int
	Status   string // completed, failed
	Duration time.Duration
}

// Run transforms every POM file under the runner's root. Files are
// processed concurrently; the first error outcome cancels the remaining
// files (fail-fast). State is saved for the files that were processed,
// unless this is a dry run.
func (r *Runner) Run(ctx context.Context, rec *recipe.Recipe, correlationID string) (*RunResult, error) {
	start := time.Now()

	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	emitter := r.Emitter
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}

	paths, err := pom.Discover(r.Root)
	if err != nil {
		return nil, err
	}

	entries, err := r.Backend.Load()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	stateMap := make(map[string]state.Entry, len(entries))
	for _, e := range entries {
		stateMap[e.Path] = e
	}

	emitter.Emit(events.New(events.RunStarted, correlationID).
		WithData("recipe_hash", rec.Hash).
		WithData("file_count", len(paths)))

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]FileResult, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			emitter.Emit(events.New(events.FileStarted, correlationID).
				WithData("path", path))

			mu.Lock()
			prior := stateMap[path]
			mu.Unlock()

			fileStart := time.Now()
			fr, entry, err := r.transformFile(path, rec, prior)
			if err != nil {
				return err
			}
			r.recordMetrics(fr, time.Since(fileStart))

			mu.Lock()
			results[i] = fr
			if entry != nil {
				stateMap[path] = *entry
			}
			mu.Unlock()

			r.emitFileEvents(emitter, correlationID, fr)

			if fr.Failed {
				logger.Error("file transformation failed",
					"path", path, "error", fr.Error)
				return fmt.Errorf("%s: %w", path, errOperationFailed)
			}
			logger.Info("file processed",
				"path", path, "changed", fr.Changed, "skipped", fr.Skipped)
			return nil
		})
	}

	runErr := g.Wait()

	run := &RunResult{
		Files:    results,
		Status:   "completed",
		Duration: time.Since(start),
	}
	for _, fr := range results {
		if fr.Skipped {
			run.Skipped++
		}
		if fr.Changed {
			run.Changed++
		}
		for _, o := range fr.Outcomes {
			switch o.Status {
			case result.StatusWarning:
				run.Warnings++
			case result.StatusNoOp:
				run.NoOps++
			case result.StatusError:
				run.Errors++
			}
		}
	}

	if !r.DryRun {
		saved := make([]state.Entry, 0, len(stateMap))
		for _, e := range stateMap {
			saved = append(saved, e)
		}
		if err := r.Backend.Save(saved); err != nil {
			return run, fmt.Errorf("saving state: %w", err)
		}
	}

	if runErr != nil {
		run.Status = "failed"
		emitter.Emit(events.New(events.RunFailed, correlationID).
			WithData("error", runErr.Error()))
		if !errors.Is(runErr, errOperationFailed) && !errors.Is(runErr, context.Canceled) {
			return run, runErr
		}
		return run, nil
	}

	emitter.Emit(events.New(events.RunCompleted, correlationID).
		WithData("changed", run.Changed).
		WithData("warnings", run.Warnings).
		WithData("noops", run.NoOps).
		WithData("skipped", run.Skipped))
	return run, nil
}

// transformFile loads, transforms, and (outside dry runs) rewrites one
// POM file, returning its result and new state entry.
func (r *Runner) transformFile(path string, rec *recipe.Recipe, prior state.Entry) (FileResult, *state.Entry, error) {
	fullPath := filepath.Join(r.Root, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return FileResult{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	hash := state.HashBytes(data)
	if prior.Status == state.StatusApplied && prior.Hash == hash && prior.RecipeHash == rec.Hash {
		return FileResult{Path: path, Skipped: true}, nil, nil
	}

	doc, err := pom.Parse(data, path)
	if err != nil {
		fr := FileResult{
			Path:     path,
			Failed:   true,
			Error:    err.Error(),
			Outcomes: []result.Outcome{result.Error("Parse POM file "+path, err)},
		}
		return fr, r.newEntry(path, hash, rec, state.StatusFailed, err.Error()), nil
	}

	fr := FileResult{Path: path, Outcomes: rec.Apply(doc)}
	for _, o := range fr.Outcomes {
		if o.Status == result.StatusSuccess {
			fr.Changed = true
		}
		if o.Status == result.StatusError {
			fr.Failed = true
			fr.Error = o.Message()
		}
	}

	if fr.Failed {
		return fr, r.newEntry(path, hash, rec, state.StatusFailed, fr.Error), nil
	}

	if fr.Changed && !r.DryRun {
		out, err := doc.Marshal()
		if err != nil {
			return FileResult{}, nil, err
		}
		if err := os.WriteFile(fullPath, out, 0644); err != nil {
			return FileResult{}, nil, fmt.Errorf("writing %s: %w", path, err)
		}
		hash = state.HashBytes(out)
	}

	return fr, r.newEntry(path, hash, rec, state.StatusApplied, ""), nil
}

func (r *Runner) newEntry(path, hash string, rec *recipe.Recipe, status state.Status, errMsg string) *state.Entry {
	return &state.Entry{
		Path:        path,
		Hash:        hash,
		RecipeHash:  rec.Hash,
		Status:      status,
		LastApplied: time.Now(),
		Error:       errMsg,
	}
}

// recordMetrics feeds the optional metrics collector. The outcome's
// short name keeps metric label cardinality independent of the file
// set.
func (r *Runner) recordMetrics(fr FileResult, duration time.Duration) {
	if r.Metrics == nil {
		return
	}
	for _, o := range fr.Outcomes {
		name := o.Name
		if name == "" {
			name = "parse"
		}
		r.Metrics.RecordOperation(name, string(o.Status))
	}
	switch {
	case fr.Skipped:
		r.Metrics.RecordFile("skipped", duration)
	case fr.Failed:
		r.Metrics.RecordFile("failed", duration)
	case fr.Changed:
		r.Metrics.RecordFile("changed", duration)
	default:
		r.Metrics.RecordFile("unchanged", duration)
	}
}

func (r *Runner) emitFileEvents(emitter events.Emitter, correlationID string, fr FileResult) {
	if fr.Skipped {
		emitter.Emit(events.New(events.FileSkipped, correlationID).
			WithData("path", fr.Path))
		return
	}
	for _, o := range fr.Outcomes {
		emitter.Emit(events.New(events.OperationApplied, correlationID).
			WithData("path", fr.Path).
			WithData("operation", o.Operation).
			WithData("status", string(o.Status)).
			WithData("message", o.Message()))
	}
	emitter.Emit(events.New(events.FileCompleted, correlationID).
		WithData("path", fr.Path).
		WithData("changed", fr.Changed).
		WithData("failed", fr.Failed))
}
