// Package transformer defines the opaque rewrite interface the engine drives
// and the registry that matches transformers to plan tasks. The engine never
// looks inside rewrite logic: a transformer receives one file's code and
// returns rewritten code plus metadata, and everything else (validation,
// rollback, diffing, sequencing) happens around it.
package transformer

import (
	"context"

	"github.com/felixgeelhaar/migratory/internal/diff"
	"github.com/felixgeelhaar/migratory/internal/plan"
	"github.com/felixgeelhaar/migratory/internal/stack"
)

// Transformer rewrites one code unit at a time.
type Transformer interface {
	// Transform rewrites the code in req. Soft failures travel through
	// Result.Success and Result.Errors; a non-nil error means the
	// transformer itself broke.
	Transform(ctx context.Context, req Request) (*Result, error)

	// Meta describes the transformer for registry matching.
	Meta() Meta
}

// Meta describes a transformer to the registry.
type Meta struct {
	Name        string
	Category    plan.Category
	Stacks      []string // stack keys served; empty means any stack
	Description string
}

// Request carries one file into a transformer.
type Request struct {
	FilePath string
	Code     string
	Options  Options
	Task     *plan.Task
}

// Options tune a transformation run.
type Options struct {
	PreserveFormatting bool
	Stack              stack.Signature
	TargetFramework    string
	Extra              map[string]string
}

// Result is a transformer's output for one file.
type Result struct {
	Success  bool
	Code     string
	Diff     *diff.Diff
	Metadata Metadata
	Errors   []string
	Warnings []string
}

// Rename asks the engine to move a file in the working set.
type Rename struct {
	OldPath string
	NewPath string
}

// Metadata qualifies a transformation result. AdditionalFiles distinguishes
// absent (nil: the transformer said nothing) from present-but-empty, so
// callers can tell "no statement" from "explicitly no extra files".
type Metadata struct {
	LinesAdded             int
	LinesRemoved           int
	Confidence             int
	Risk                   int
	RequiresManualReview   bool
	AppliedTransformations []string
	AdditionalFiles        map[string]string
	Renames                []Rename
	EstimatedTimeSaved     string
}
