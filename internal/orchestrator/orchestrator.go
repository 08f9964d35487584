// Package orchestrator sequences a migration plan against a repository
// snapshot: phases in ascending order, tasks within a phase in declared
// order, dependency updates consolidated per manifest, every rewrite
// funneled through the transformation pipeline, and one summary at the end.
//
// A run is strictly sequential. Task-level failures are recorded and never
// abort sibling tasks; only a fetch failure or a panic escaping the per-task
// boundary ends the run early.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/migratory/internal/diff"
	"github.com/felixgeelhaar/migratory/internal/errors"
	"github.com/felixgeelhaar/migratory/internal/fetch"
	"github.com/felixgeelhaar/migratory/internal/lock"
	"github.com/felixgeelhaar/migratory/internal/log"
	"github.com/felixgeelhaar/migratory/internal/markup"
	"github.com/felixgeelhaar/migratory/internal/pipeline"
	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/progress"
	"github.com/felixgeelhaar/migratory/internal/stack"
	"github.com/felixgeelhaar/migratory/internal/transformer"
	"github.com/felixgeelhaar/migratory/internal/validate"
)

// Config wires an orchestrator's collaborators. Registry, Fetcher, and
// Locks are required; Sink, Logger, and Clock default when unset.
type Config struct {
	Registry *transformer.Registry
	Fetcher  fetch.Fetcher
	Locks    *lock.Service
	Sink     progress.Sink
	Logger   *log.Logger
	Clock    func() time.Time
}

// Orchestrator executes migration runs. It is safe to share across
// goroutines; per-run state never leaves Execute.
type Orchestrator struct {
	registry *transformer.Registry
	fetcher  fetch.Fetcher
	locks    *lock.Service
	sink     progress.Sink
	logger   *log.Logger
	clock    func() time.Time
}

// New builds an orchestrator from config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("transformer registry is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Locks == nil {
		return nil, fmt.Errorf("lock service is required")
	}

	sink := cfg.Sink
	if sink == nil {
		sink = progress.Noop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Orchestrator{
		registry: cfg.Registry,
		fetcher:  cfg.Fetcher,
		locks:    cfg.Locks,
		sink:     sink,
		logger:   logger,
		clock:    clock,
	}, nil
}

// run is the mutable state of one Execute invocation.
type run struct {
	jobID   string
	opts    transformer.Options
	sig     stack.Signature
	files   map[string]string // fetched snapshot plus every write
	changed map[string]string // only the paths written this run
	writer  map[string]string // path -> last task id that wrote it
	results []TaskResult
}

func (r *run) write(path, content, taskID string) {
	r.files[path] = content
	r.changed[path] = content
	r.writer[path] = taskID
}

// Execute runs the selected tasks of a plan against the repository behind
// repo. An empty selection yields an empty success result. The repository
// lock is held for the duration of the run; a busy repository is rejected
// immediately with a LOCK-001 error.
func (o *Orchestrator) Execute(ctx context.Context, jobID string, repo fetch.Locator, p *plan.Plan, selected []string, opts transformer.Options) (result *Result, err error) {
	if p == nil {
		return nil, errors.NewPlanInvalidError("plan is required")
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}
	logger := o.logger.With("job_id", jobID, "repository", repo.Key())

	if !o.locks.Acquire(repo.Key()) {
		return nil, errors.NewRepositoryBusyError(repo.Key())
	}
	defer o.locks.Release(repo.Key())

	// Panics outside the per-task boundary are fatal for the run but must
	// still release the lock and surface through the error signal.
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = errors.NewUnexpectedError(fmt.Errorf("panic: %v", rec))
			logger.Error("migration run failed unexpectedly", "panic", fmt.Sprint(rec))
			o.sink.Error(jobID, err)
		}
	}()

	started := o.clock()
	logger.Info("migration run starting", "plan", p.Name, "selected_tasks", len(selected))
	o.sink.Emit(jobID, "run started", map[string]any{"plan": p.Name, "tasks": len(selected)})

	snapshot, fetchErr := o.fetcher.Fetch(ctx, repo)
	if fetchErr != nil {
		wrapped := errors.NewFetchError(repo.Key(), fetchErr)
		logger.Error("repository fetch failed", "error", fetchErr.Error())
		o.sink.Error(jobID, wrapped)
		return nil, wrapped
	}

	r := &run{
		jobID:   jobID,
		opts:    opts,
		files:   snapshot.Map(),
		changed: make(map[string]string),
		writer:  make(map[string]string),
	}

	r.sig = opts.Stack
	if r.sig.IsZero() {
		r.sig = stack.Detect(r.files)
	}
	r.opts.Stack = r.sig
	logger.Debug("source stack resolved", "stack", r.sig.String())

	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}

	for _, phase := range p.SortedPhases() {
		tasks := selectTasks(phase, selectedSet)
		if len(tasks) == 0 {
			continue
		}
		logger.Info("phase starting", "phase", phase.Order, "name", phase.Name, "tasks", len(tasks))
		o.sink.Emit(jobID, "phase started", map[string]any{"phase": phase.Order, "name": phase.Name, "tasks": len(tasks)})

		for _, task := range consolidateDependencyTasks(tasks) {
			o.executeTask(ctx, r, task)
		}
	}

	o.renamePostPass(r)

	duration := o.clock().Sub(started)
	summary := summarize(r.results, r.changed, duration)

	result = &Result{
		JobID:   jobID,
		Success: summary.TasksFailed == 0,
		Files:   r.changed,
		Tasks:   dedupeByPath(r.results),
		Summary: summary,
	}

	o.sink.Complete(jobID, map[string]any{
		"filesChanged":   summary.FilesChanged,
		"tasksCompleted": summary.TasksCompleted,
		"tasksFailed":    summary.TasksFailed,
		"tasksSkipped":   summary.TasksSkipped,
	})
	logger.Info("migration run finished",
		"success", result.Success,
		"files_changed", summary.FilesChanged,
		"tasks_completed", summary.TasksCompleted,
		"tasks_failed", summary.TasksFailed,
		"duration", duration.String())
	return result, nil
}

func selectTasks(phase plan.Phase, selected map[string]bool) []plan.Task {
	var tasks []plan.Task
	for _, task := range phase.Tasks {
		if selected[task.ID] {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// executeTask runs one (possibly consolidated) task. Every failure mode,
// including a panicking transformer, lands in a TaskResult; siblings keep
// running.
func (o *Orchestrator) executeTask(ctx context.Context, r *run, task plan.Task) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("task failed unexpectedly", "task", task.ID, "panic", fmt.Sprint(rec))
			r.results = append(r.results, TaskResult{
				TaskID:   task.ID,
				FilePath: firstAffectedPath(task),
				Error:    fmt.Sprintf("unexpected error: %v", rec),
			})
			o.sink.Emit(r.jobID, "task failed", map[string]any{"task": task.ID})
		}
	}()

	tr, ok := o.registry.GetForTask(&task, r.sig.Key())
	if !ok {
		r.results = append(r.results, TaskResult{
			TaskID:   task.ID,
			FilePath: firstAffectedPath(task),
			Skipped:  true,
		})
		o.logger.Warn("no transformer registered, task skipped",
			"task", task.ID, "category", string(task.Category), "stack", r.sig.Key())
		o.sink.Emit(r.jobID, "task skipped", map[string]any{"task": task.ID, "reason": "no transformer registered"})
		return
	}

	paths := task.AffectedFiles
	if len(paths) == 0 {
		if def := task.Category.DefaultPath(); def != "" {
			paths = []string{def}
		}
	}
	if len(paths) == 0 {
		r.results = append(r.results, TaskResult{
			TaskID: task.ID,
			Error:  fmt.Sprintf("task %s declares no affected files and category %s has no default path", task.ID, task.Category),
		})
		o.sink.Emit(r.jobID, "task failed", map[string]any{"task": task.ID})
		return
	}

	for _, path := range paths {
		o.executeFile(ctx, r, tr, task, path)
	}
}

func (o *Orchestrator) executeFile(ctx context.Context, r *run, tr transformer.Transformer, task plan.Task, path string) {
	started := o.clock()

	code, exists := r.files[path]
	if !exists && !task.Category.CanCreateFiles() {
		missing := errors.NewMissingFileError(path, task.ID)
		r.results = append(r.results, TaskResult{
			TaskID:   task.ID,
			FilePath: path,
			Error:    missing.Short(),
			Duration: o.clock().Sub(started),
		})
		o.logger.Warn("task target missing", "task", task.ID, "file", path)
		o.sink.Emit(r.jobID, "task failed", map[string]any{"task": task.ID, "file": path})
		return
	}

	pipe := pipeline.New(pipeline.Config{Transformer: tr, Logger: o.logger})
	outcome := pipe.Run(ctx, pipeline.Input{
		FilePath: path,
		Code:     code,
		Language: validate.LanguageForPath(path),
		Options:  r.opts,
		Task:     &task,
	})
	duration := o.clock().Sub(started)

	if !outcome.Success {
		var cause error
		if len(outcome.Errors) > 0 {
			cause = fmt.Errorf("%s", strings.Join(outcome.Errors, "; "))
		}
		stageErr := errors.NewPipelineStageError(outcome.FailedStage, cause)
		r.results = append(r.results, TaskResult{
			TaskID:   task.ID,
			FilePath: path,
			Outcome:  outcome,
			Error:    stageErr.Short(),
			Duration: duration,
		})
		o.logger.Warn("task failed", "task", task.ID, "file", path, "stage", outcome.FailedStage)
		o.sink.Emit(r.jobID, "task failed", map[string]any{"task": task.ID, "file": path, "stage": outcome.FailedStage})
		return
	}

	if prev, wrote := r.writer[path]; wrote && prev != task.ID {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("overwrote %s previously written by task %s", path, prev))
	}

	if len(outcome.AdditionalFiles) > 0 {
		extras := make([]string, 0, len(outcome.AdditionalFiles))
		for extra := range outcome.AdditionalFiles {
			extras = append(extras, extra)
		}
		sort.Strings(extras)
		for _, extra := range extras {
			if prev, wrote := r.writer[extra]; wrote && prev != task.ID {
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("overwrote %s previously written by task %s", extra, prev))
			}
			r.write(extra, outcome.AdditionalFiles[extra], task.ID)
		}
	}

	r.write(path, outcome.Code, task.ID)
	r.results = append(r.results, TaskResult{
		TaskID:   task.ID,
		FilePath: path,
		Success:  true,
		Outcome:  outcome,
		Duration: duration,
	})
	o.logger.Info("task completed", "task", task.ID, "file", path, "confidence", outcome.Confidence, "risk", outcome.Risk)
	o.sink.Emit(r.jobID, "task completed", map[string]any{"task": task.ID, "file": path, "confidence": outcome.Confidence})

	for _, ren := range outcome.Renames {
		o.applyRename(r, task.ID, ren.OldPath, ren.NewPath)
	}
	if !markup.CapableExt(path) && markup.Contains(outcome.Code) {
		if newPath, ok := markup.ConvertPath(path); ok {
			o.applyRename(r, task.ID, path, newPath)
		}
	}
}

// applyRename moves a file in the run's maps and emits the two linked
// TaskResults that make a pure move visible: one for the old path, one for
// the new, sharing a rename diff.
func (o *Orchestrator) applyRename(r *run, taskID, oldPath, newPath string) {
	content, ok := r.files[oldPath]
	if !ok || oldPath == newPath || newPath == "" {
		return
	}
	if _, taken := r.files[newPath]; taken {
		o.logger.Warn("rename skipped, destination exists", "from", oldPath, "to", newPath)
		return
	}

	d := diff.Rename(content, oldPath, newPath)

	delete(r.files, oldPath)
	delete(r.changed, oldPath)
	delete(r.writer, oldPath)
	r.files[newPath] = content
	r.changed[newPath] = content
	r.writer[newPath] = taskID

	r.results = append(r.results,
		TaskResult{
			TaskID:   taskID,
			FilePath: oldPath,
			Success:  true,
			Outcome:  &pipeline.Outcome{Success: true, Diff: d, Confidence: 100},
		},
		TaskResult{
			TaskID:   taskID,
			FilePath: newPath,
			Success:  true,
			Outcome:  &pipeline.Outcome{Success: true, Code: content, Diff: d, Confidence: 100},
		},
	)
	o.logger.Info("file renamed", "task", taskID, "from", oldPath, "to", newPath)
	o.sink.Emit(r.jobID, "file renamed", map[string]any{"task": taskID, "from": oldPath, "to": newPath})
}

// renamePostPass converts written files whose content embeds markup that
// their extension doesn't declare. It runs once over the final map because
// several tasks may have jointly produced the qualifying content.
func (o *Orchestrator) renamePostPass(r *run) {
	paths := make([]string, 0, len(r.changed))
	for path := range r.changed {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if markup.CapableExt(path) {
			continue
		}
		if !markup.Contains(r.changed[path]) {
			continue
		}
		newPath, ok := markup.ConvertPath(path)
		if !ok {
			continue
		}
		o.applyRename(r, r.writer[path], path, newPath)
	}
}

func firstAffectedPath(task plan.Task) string {
	if len(task.AffectedFiles) > 0 {
		return task.AffectedFiles[0]
	}
	return task.Category.DefaultPath()
}
