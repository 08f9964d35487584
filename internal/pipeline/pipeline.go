// Package pipeline wraps one transformer invocation in five ordered safety
// stages: Parse, Validate, Transform, Verify, Format. An immutable snapshot
// of the input is taken before the first stage; any stage failure rolls the
// code back to that snapshot, so callers never see partially-applied output.
package pipeline

import (
	"context"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/migratory/internal/diff"
	"github.com/felixgeelhaar/migratory/internal/log"
	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/transformer"
	"github.com/felixgeelhaar/migratory/internal/validate"
)

// Stage names, in execution order.
const (
	StageParse     = "Parse"
	StageValidate  = "Validate"
	StageTransform = "Transform"
	StageVerify    = "Verify"
	StageFormat    = "Format"
)

// retrySuggestions is the fixed advice attached to every stage failure
var retrySuggestions = []string{
	"retry the task",
	"run with a lower-risk transformer",
	"review the file and apply the change manually",
}

// Validator is the fuller validation hook run at the Validate stage. The
// default composes syntax, semantic, and project checks.
type Validator func(code, language string) validate.Result

// Config assembles a pipeline.
type Config struct {
	// Transformer performs the rewrite. Required.
	Transformer transformer.Transformer
	// Validator overrides the Validate stage check. Optional.
	Validator Validator
	// Logger receives stage-level debug output. Optional.
	Logger *log.Logger
}

// Pipeline drives one transformer invocation at a time. It is stateless
// across runs and safe to reuse.
type Pipeline struct {
	transformer transformer.Transformer
	validator   Validator
	logger      *log.Logger
}

// New builds a pipeline from config, filling in the default validator and
// logger.
func New(cfg Config) *Pipeline {
	validator := cfg.Validator
	if validator == nil {
		validator = func(code, language string) validate.Result {
			return validate.All(code, language, "")
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Pipeline{
		transformer: cfg.Transformer,
		validator:   validator,
		logger:      logger,
	}
}

// Input is one unit of work: a single file and its language.
type Input struct {
	FilePath string
	Code     string
	Language string
	Options  transformer.Options
	Task     *plan.Task
}

// Outcome reports one pipeline run. On failure Code holds the snapshot, so
// the caller's working copy is always intact.
type Outcome struct {
	Success     bool
	Code        string
	Diff        *diff.Diff
	FailedStage string
	RolledBack  bool

	Confidence           int
	Risk                 int
	RequiresManualReview bool
	LinesAdded           int
	LinesRemoved         int

	AppliedTransformations []string
	AdditionalFiles        map[string]string
	Renames                []transformer.Rename
	EstimatedTimeSaved     string

	Errors      []string
	Warnings    []string
	Suggestions []string

	// SnapshotHash identifies the pre-transform input for integrity checks.
	SnapshotHash string
}

// Run executes the five stages for one input.
func (p *Pipeline) Run(ctx context.Context, in Input) *Outcome {
	snapshot := in.Code
	outcome := &Outcome{SnapshotHash: contentHash(snapshot)}
	logger := p.logger.With("file", in.FilePath, "language", in.Language)

	var warnings []string
	validateClean := true

	// A brand-new file has nothing to parse; both input checks are skipped.
	if in.Code != "" {
		// Parse: reject syntactically impossible input before any rewrite.
		parsed := validate.Syntax(in.Code, in.Language)
		warnings = append(warnings, parsed.Warnings...)
		if !parsed.SyntaxValid {
			logger.Warn("pipeline stage failed", "stage", StageParse)
			return p.fail(outcome, snapshot, StageParse, issueTexts(parsed.Errors), warnings)
		}
		logger.Debug("pipeline stage passed", "stage", StageParse)

		// Validate: the fuller check; failure aborts before the transformer runs.
		validated := p.validator(in.Code, in.Language)
		warnings = append(warnings, validated.Warnings...)
		validateClean = len(validated.Errors) == 0 && len(validated.Warnings) == 0
		if !validated.Valid {
			logger.Warn("pipeline stage failed", "stage", StageValidate)
			return p.fail(outcome, snapshot, StageValidate, issueTexts(validated.Errors), warnings)
		}
		logger.Debug("pipeline stage passed", "stage", StageValidate)
	}

	// Transform: the opaque rewrite.
	result, err := p.transformer.Transform(ctx, transformer.Request{
		FilePath: in.FilePath,
		Code:     in.Code,
		Options:  in.Options,
		Task:     in.Task,
	})
	if err != nil {
		logger.Warn("pipeline stage failed", "stage", StageTransform, "error", err.Error())
		return p.fail(outcome, snapshot, StageTransform, []string{err.Error()}, warnings)
	}
	if result == nil {
		logger.Warn("pipeline stage failed", "stage", StageTransform)
		return p.fail(outcome, snapshot, StageTransform, []string{"transformer returned no output"}, warnings)
	}
	warnings = append(warnings, result.Warnings...)
	if !result.Success {
		errs := result.Errors
		if len(errs) == 0 {
			errs = []string{"transformer reported failure"}
		}
		logger.Warn("pipeline stage failed", "stage", StageTransform)
		return p.fail(outcome, snapshot, StageTransform, errs, warnings)
	}
	if result.Code == "" {
		logger.Warn("pipeline stage failed", "stage", StageTransform)
		return p.fail(outcome, snapshot, StageTransform, []string{"transformer returned empty output"}, warnings)
	}
	logger.Debug("pipeline stage passed", "stage", StageTransform)

	// Verify: the transformer's output must still parse.
	verified := validate.Syntax(result.Code, in.Language)
	warnings = append(warnings, verified.Warnings...)
	verifyClean := len(verified.Errors) == 0 && len(verified.Warnings) == 0
	if !verified.SyntaxValid {
		logger.Warn("pipeline stage failed", "stage", StageVerify)
		return p.fail(outcome, snapshot, StageVerify, issueTexts(verified.Errors), warnings)
	}
	logger.Debug("pipeline stage passed", "stage", StageVerify)

	// Format: a no-op when formatting is preserved; otherwise reserved.
	finalCode := result.Code
	logger.Debug("pipeline stage passed", "stage", StageFormat)

	warnings = dedupe(warnings)

	d := diff.ComputeForPath(snapshot, finalCode, in.FilePath)
	stats := d.Stats()

	outcome.Success = true
	outcome.Code = finalCode
	outcome.Diff = d
	outcome.LinesAdded = stats.Added
	outcome.LinesRemoved = stats.Removed
	outcome.Risk = clampScore(result.Metadata.Risk)
	outcome.RequiresManualReview = outcome.Risk > 70
	outcome.Confidence = confidence(validateClean && verifyClean, len(warnings))
	outcome.AppliedTransformations = result.Metadata.AppliedTransformations
	outcome.AdditionalFiles = result.Metadata.AdditionalFiles
	outcome.Renames = result.Metadata.Renames
	outcome.EstimatedTimeSaved = result.Metadata.EstimatedTimeSaved
	outcome.Warnings = warnings
	return outcome
}

// fail rolls the outcome back to the snapshot and tags the failing stage.
func (p *Pipeline) fail(outcome *Outcome, snapshot, stage string, errs, warnings []string) *Outcome {
	outcome.Success = false
	outcome.FailedStage = stage
	outcome.Code = snapshot
	outcome.RolledBack = true
	outcome.Confidence = 0
	outcome.Risk = 100
	outcome.RequiresManualReview = true
	outcome.Errors = append(outcome.Errors, errs...)
	outcome.Warnings = dedupe(warnings)
	outcome.Suggestions = append([]string(nil), retrySuggestions...)
	return outcome
}

// confidence scores a successful run: 40 for passing every stage, 30 for a
// syntax-error-free input and output (always true on success), 20 when both
// validation stages were clean, and up to 10 shrinking by 2 per warning.
func confidence(validationsClean bool, warningCount int) int {
	score := 40 + 30
	if validationsClean {
		score += 20
	}
	bonus := 10 - 2*warningCount
	if bonus < 0 {
		bonus = 0
	}
	score += bonus

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func issueTexts(issues []validate.Issue) []string {
	texts := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Line > 0 {
			texts = append(texts, fmt.Sprintf("%s (line %d)", issue.Message, issue.Line))
		} else {
			texts = append(texts, issue.Message)
		}
	}
	return texts
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	var unique []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}

// contentHash fingerprints the snapshot for integrity assertions
func contentHash(code string) string {
	hasher := blake3.New()
	_, _ = hasher.Write([]byte(code))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
