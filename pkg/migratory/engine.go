// Package migratory is the public embedding surface of the migration engine.
// Applications register their transformers on an Engine, load a plan, and
// execute it against a repository; everything else (locking, fetching,
// validation, rollback, diffing, summarization) happens inside.
//
// The core types are re-exported here so embedders never import internal
// packages.
package migratory

import (
	"context"
	"time"

	"github.com/felixgeelhaar/migratory/internal/diff"
	"github.com/felixgeelhaar/migratory/internal/fetch"
	"github.com/felixgeelhaar/migratory/internal/lock"
	"github.com/felixgeelhaar/migratory/internal/log"
	"github.com/felixgeelhaar/migratory/internal/orchestrator"
	"github.com/felixgeelhaar/migratory/internal/pipeline"
	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/progress"
	"github.com/felixgeelhaar/migratory/internal/stack"
	"github.com/felixgeelhaar/migratory/internal/transformer"
	"github.com/felixgeelhaar/migratory/internal/version"
)

// Plan model.
type (
	Plan      = plan.Plan
	Phase     = plan.Phase
	Task      = plan.Task
	RiskLevel = plan.RiskLevel
	Category  = plan.Category
)

// Risk levels and task categories.
const (
	RiskLow    = plan.RiskLow
	RiskMedium = plan.RiskMedium
	RiskHigh   = plan.RiskHigh

	CategoryDependencyUpdate = plan.CategoryDependencyUpdate
	CategoryBuildTool        = plan.CategoryBuildTool
	CategoryDocumentation    = plan.CategoryDocumentation
	CategorySourceCode       = plan.CategorySourceCode
	CategoryConfig           = plan.CategoryConfig
	CategoryTesting          = plan.CategoryTesting
)

// Transformer surface.
type (
	Transformer = transformer.Transformer
	Meta        = transformer.Meta
	Request     = transformer.Request
	Result      = transformer.Result
	Metadata    = transformer.Metadata
	Rename      = transformer.Rename
	Options     = transformer.Options
)

// Run input and output.
type (
	Locator    = fetch.Locator
	Fetcher    = fetch.Fetcher
	Snapshot   = fetch.Snapshot
	Signature  = stack.Signature
	Sink       = progress.Sink
	Logger     = log.Logger
	RunResult  = orchestrator.Result
	TaskResult = orchestrator.TaskResult
	Summary    = orchestrator.Summary
	Outcome    = pipeline.Outcome
	Diff       = diff.Diff
	DiffLine   = diff.Line
	DiffStats  = diff.Stats
)

// Engine ties a transformer registry, a fetcher, and the repository lock
// service into one embeddable migration engine. Safe for concurrent use.
type Engine struct {
	registry *transformer.Registry
	locks    *lock.Service
	orch     *orchestrator.Orchestrator
}

type engineConfig struct {
	fetcher Fetcher
	sink    Sink
	logger  *Logger
	lockTTL time.Duration
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithFetcher replaces the default filesystem fetcher.
func WithFetcher(f Fetcher) Option {
	return func(c *engineConfig) { c.fetcher = f }
}

// WithSink receives progress signals from every run.
func WithSink(s Sink) Option {
	return func(c *engineConfig) { c.sink = s }
}

// WithLogger replaces the process-default logger.
func WithLogger(l *Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// WithLockTTL overrides how long an unreleased repository lock can block
// subsequent runs.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *engineConfig) { c.lockTTL = ttl }
}

// NewEngine builds an engine with an empty transformer registry.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{fetcher: &fetch.FS{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	var lockOpts []lock.Option
	if cfg.lockTTL > 0 {
		lockOpts = append(lockOpts, lock.WithTTL(cfg.lockTTL))
	}

	registry := transformer.NewRegistry()
	locks := lock.New(lockOpts...)
	orch, err := orchestrator.New(orchestrator.Config{
		Registry: registry,
		Fetcher:  cfg.fetcher,
		Locks:    locks,
		Sink:     cfg.sink,
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{registry: registry, locks: locks, orch: orch}, nil
}

// Register adds a transformer to the engine's registry.
func (e *Engine) Register(t Transformer) error {
	return e.registry.Register(t)
}

// Transformers lists the registered transformer names.
func (e *Engine) Transformers() []string {
	return e.registry.List()
}

// LoadPlan reads and validates a plan file (YAML or JSON by extension).
func (e *Engine) LoadPlan(path string) (*Plan, error) {
	return plan.Load(path)
}

// Run executes the selected tasks of a plan against the repository behind
// repo. A jobID of "" gets one assigned; the returned result carries it.
// Passing nil for selected runs nothing and returns an empty success result.
func (e *Engine) Run(ctx context.Context, jobID string, repo Locator, p *Plan, selected []string, opts Options) (*RunResult, error) {
	return e.orch.Execute(ctx, jobID, repo, p, selected, opts)
}

// Locked reports whether a repository currently holds an unexpired run lock.
func (e *Engine) Locked(repository string) bool {
	return e.locks.IsLocked(repository)
}

// Version returns the full engine version string.
func Version() string {
	return version.GetInfo().String()
}
