package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Syntax errors (SYNTAX-001 to SYNTAX-099)
	ErrCodeSyntaxInvalid ErrorCode = "SYNTAX-001"

	// Validation errors (VALIDATE-001 to VALIDATE-099)
	ErrCodeValidationFailed ErrorCode = "VALIDATE-001"

	// Transform errors (TRANSFORM-001 to TRANSFORM-099)
	ErrCodeTransformFailed ErrorCode = "TRANSFORM-001"
	ErrCodeTransformEmpty  ErrorCode = "TRANSFORM-002"

	// Pipeline errors (PIPELINE-001 to PIPELINE-099)
	ErrCodePipelineStage ErrorCode = "PIPELINE-001"

	// Registry errors (REGISTRY-001 to REGISTRY-099)
	ErrCodeTransformerNotFound ErrorCode = "REGISTRY-001"

	// File errors (FILE-001 to FILE-099)
	ErrCodeFileMissing ErrorCode = "FILE-001"

	// Fetch errors (FETCH-001 to FETCH-099)
	ErrCodeFetchFailed ErrorCode = "FETCH-001"

	// Lock errors (LOCK-001 to LOCK-099)
	ErrCodeRepositoryBusy ErrorCode = "LOCK-001"

	// Plan errors (PLAN-001 to PLAN-099)
	ErrCodePlanNotFound  ErrorCode = "PLAN-001"
	ErrCodePlanInvalid   ErrorCode = "PLAN-002"
	ErrCodePlanCyclicDep ErrorCode = "PLAN-003"

	// Run errors (RUN-001 to RUN-099)
	ErrCodeRunUnexpected ErrorCode = "RUN-001"
)

// MigrationError represents an enhanced error with code, suggestions, and documentation
type MigrationError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	var b strings.Builder

	// Error code and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Short returns the single-line "[CODE] message" form without suggestions
// or documentation links, for embedding in records and summaries
func (e *MigrationError) Short() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *MigrationError) Unwrap() error {
	return e.Cause
}

// New creates a new MigrationError
func New(code ErrorCode, message string) *MigrationError {
	return &MigrationError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new MigrationError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *MigrationError {
	return &MigrationError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *MigrationError) WithSuggestion(suggestion string) *MigrationError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *MigrationError) WithSuggestions(suggestions ...string) *MigrationError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *MigrationError) WithDocs(url string) *MigrationError {
	e.DocsURL = url
	return e
}

// CodeOf returns the error code carried by err, or an empty code when err
// is not a MigrationError
func CodeOf(err error) ErrorCode {
	var migErr *MigrationError
	if stderrors.As(err, &migErr) {
		return migErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given error code
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Common error constructors for frequently used errors

// NewSyntaxError creates a syntax validation error for a file
func NewSyntaxError(path string, details string) *MigrationError {
	return New(ErrCodeSyntaxInvalid, fmt.Sprintf("syntax check failed for %s: %s", path, details)).
		WithSuggestion("Review the transformed output for unbalanced braces or unterminated strings").
		WithSuggestion("Run 'migratory diff' against the original file to inspect the change")
}

// NewValidationError creates a semantic validation error
func NewValidationError(details string) *MigrationError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("validation failed: %s", details)).
		WithSuggestion("Check the reported location in the source file").
		WithSuggestion("Fix the input and re-run the migration")
}

// NewTransformFailedError creates a transformation failure error
func NewTransformFailedError(taskID string, cause error) *MigrationError {
	return Wrap(ErrCodeTransformFailed, fmt.Sprintf("transformation failed for task: %s", taskID), cause).
		WithSuggestion("Re-run with --log-level debug to see the transformer output").
		WithSuggestion("Apply the change manually if the transformer cannot handle this file")
}

// NewTransformEmptyError creates an error for a transformer that produced no output
func NewTransformEmptyError(taskID string) *MigrationError {
	return New(ErrCodeTransformEmpty, fmt.Sprintf("transformer returned no output for task: %s", taskID)).
		WithSuggestion("Check the transformer configuration for this category").
		WithSuggestion("Verify the input file is not empty or binary")
}

// NewPipelineStageError creates an error for a failed pipeline stage
func NewPipelineStageError(stage string, cause error) *MigrationError {
	return Wrap(ErrCodePipelineStage, fmt.Sprintf("pipeline stage %s failed", stage), cause).
		WithSuggestion("The original file content was restored").
		WithSuggestion("Inspect the stage error and re-run the task")
}

// NewTransformerNotFoundError creates an error for an unregistered transformer
func NewTransformerNotFoundError(category string, signature string) *MigrationError {
	msg := fmt.Sprintf("no transformer registered for category: %s", category)
	if signature != "" {
		msg += fmt.Sprintf(" (stack: %s)", signature)
	}

	return New(ErrCodeTransformerNotFound, msg).
		WithSuggestion("Register a transformer for this category before running the plan").
		WithSuggestion("Run 'migratory plan show' to list the categories the plan needs")
}

// NewMissingFileError creates an error for a task target absent from the repository
func NewMissingFileError(path string, taskID string) *MigrationError {
	return New(ErrCodeFileMissing, fmt.Sprintf("file %s not found in repository for task: %s", path, taskID)).
		WithSuggestion("Check the affectedFiles paths in the migration plan").
		WithSuggestion("Verify the repository ref contains the expected files")
}

// NewFetchError creates a repository fetch error
func NewFetchError(slug string, cause error) *MigrationError {
	return Wrap(ErrCodeFetchFailed, fmt.Sprintf("failed to fetch repository: %s", slug), cause).
		WithSuggestion("Check the repository path and ref").
		WithSuggestion("Verify you have read access to the repository")
}

// NewRepositoryBusyError creates an error for a repository already being migrated
func NewRepositoryBusyError(slug string) *MigrationError {
	return New(ErrCodeRepositoryBusy, fmt.Sprintf("a migration is already running for repository: %s", slug)).
		WithSuggestion("Wait for the active migration to finish").
		WithSuggestion("Locks expire automatically after 10 minutes")
}

// NewPlanNotFoundError creates a plan file not found error
func NewPlanNotFoundError(path string) *MigrationError {
	return New(ErrCodePlanNotFound, fmt.Sprintf("migration plan not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Pass the plan location with --plan")
}

// NewPlanInvalidError creates a plan validation error
func NewPlanInvalidError(details string) *MigrationError {
	return New(ErrCodePlanInvalid, fmt.Sprintf("invalid migration plan: %s", details)).
		WithSuggestion("Run 'migratory plan validate --in <file>' to see validation errors").
		WithSuggestion("Check the plan schema requirements")
}

// NewPlanCyclicDepError creates a cyclic dependency error
func NewPlanCyclicDepError(taskID string) *MigrationError {
	return New(ErrCodePlanCyclicDep, fmt.Sprintf("cyclic dependency detected involving task: %s", taskID)).
		WithSuggestion("Remove the circular reference from the task dependencies").
		WithSuggestion("Run 'migratory plan validate' after editing the plan")
}

// NewUnexpectedError creates an error for a failure outside the known taxonomy
func NewUnexpectedError(cause error) *MigrationError {
	return Wrap(ErrCodeRunUnexpected, "unexpected error during migration run", cause).
		WithSuggestion("Re-run with --log-level debug and report the full output")
}
