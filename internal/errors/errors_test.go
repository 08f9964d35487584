package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodePlanNotFound, "test error message")

	if err.Code != ErrCodePlanNotFound {
		t.Errorf("expected code %s, got %s", ErrCodePlanNotFound, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFetchFailed, "failed to fetch repository", cause)

	if err.Code != ErrCodeFetchFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFetchFailed, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	// Test unwrapping
	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *MigrationError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodePlanInvalid, "invalid plan"),
			wantCode: "PLAN-002",
			wantMsg:  "invalid plan",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFetchFailed, "fetch failed", fmt.Errorf("permission denied")),
			wantCode: "FETCH-001",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestShort(t *testing.T) {
	err := New(ErrCodePipelineStage, "pipeline stage Transform failed").
		WithSuggestion("retry the task")

	if got := err.Short(); got != "[PIPELINE-001] pipeline stage Transform failed" {
		t.Errorf("Short() = %q", got)
	}
	if strings.Contains(err.Short(), "retry the task") {
		t.Errorf("Short() should not include suggestions")
	}

	withCause := Wrap(ErrCodeFetchFailed, "failed to fetch repository: acme/web", fmt.Errorf("network down"))
	want := "[FETCH-001] failed to fetch repository: acme/web: network down"
	if got := withCause.Short(); got != want {
		t.Errorf("Short() = %q, want %q", got, want)
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrCodePlanNotFound, "plan not found").
		WithSuggestion("Check the file path")

	if len(err.Suggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %d", len(err.Suggestions))
	}

	if err.Suggestions[0] != "Check the file path" {
		t.Errorf("unexpected suggestion: %s", err.Suggestions[0])
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}

	if !strings.Contains(errStr, "Check the file path") {
		t.Errorf("error string should contain suggestion text")
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeTransformFailed, "transform failed").
		WithSuggestions("Suggestion 1", "Suggestion 2", "Suggestion 3")

	if len(err.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, suggestion := range err.Suggestions {
		if !strings.Contains(errStr, suggestion) {
			t.Errorf("error string should contain suggestion: %s", suggestion)
		}
	}
}

func TestWithDocs(t *testing.T) {
	docsURL := "https://github.com/felixgeelhaar/migratory#docs"
	err := New(ErrCodePlanInvalid, "invalid plan").
		WithDocs(docsURL)

	if err.DocsURL != docsURL {
		t.Errorf("expected DocsURL %s, got %s", docsURL, err.DocsURL)
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Documentation:") {
		t.Errorf("error string should contain documentation section")
	}

	if !strings.Contains(errStr, docsURL) {
		t.Errorf("error string should contain docs URL")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "migration error",
			err:  New(ErrCodeRepositoryBusy, "busy"),
			want: ErrCodeRepositoryBusy,
		},
		{
			name: "wrapped migration error",
			err:  fmt.Errorf("outer: %w", New(ErrCodeFileMissing, "missing")),
			want: ErrCodeFileMissing,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("plain"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := NewTransformerNotFoundError("source-code", "typescript/react")

	if !HasCode(err, ErrCodeTransformerNotFound) {
		t.Errorf("expected HasCode to match REGISTRY-001")
	}

	if HasCode(err, ErrCodeTransformFailed) {
		t.Errorf("HasCode should not match a different code")
	}
}

func TestNewSyntaxError(t *testing.T) {
	err := NewSyntaxError("src/app.ts", "unbalanced braces")

	if err.Code != ErrCodeSyntaxInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeSyntaxInvalid, err.Code)
	}

	if !strings.Contains(err.Message, "src/app.ts") {
		t.Errorf("error message should contain file path")
	}

	if len(err.Suggestions) < 2 {
		t.Errorf("expected at least 2 suggestions, got %d", len(err.Suggestions))
	}
}

func TestNewTransformerNotFoundError(t *testing.T) {
	tests := []struct {
		name      string
		category  string
		signature string
		wantStack bool
	}{
		{
			name:      "with signature",
			category:  "source-code",
			signature: "javascript/react",
			wantStack: true,
		},
		{
			name:      "without signature",
			category:  "documentation",
			signature: "",
			wantStack: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTransformerNotFoundError(tt.category, tt.signature)

			if err.Code != ErrCodeTransformerNotFound {
				t.Errorf("expected code %s, got %s", ErrCodeTransformerNotFound, err.Code)
			}

			if !strings.Contains(err.Message, tt.category) {
				t.Errorf("error message should contain category")
			}

			hasStack := strings.Contains(err.Message, "stack:")
			if hasStack != tt.wantStack {
				t.Errorf("stack mention = %v, want %v", hasStack, tt.wantStack)
			}
		})
	}
}

func TestNewRepositoryBusyError(t *testing.T) {
	err := NewRepositoryBusyError("acme/webapp")

	if err.Code != ErrCodeRepositoryBusy {
		t.Errorf("expected code %s, got %s", ErrCodeRepositoryBusy, err.Code)
	}

	if !strings.Contains(err.Message, "acme/webapp") {
		t.Errorf("error message should contain repository slug")
	}

	if len(err.Suggestions) == 0 {
		t.Errorf("expected suggestions for lock contention")
	}
}

func TestNewPipelineStageError(t *testing.T) {
	cause := fmt.Errorf("unterminated string")
	err := NewPipelineStageError("Validate", cause)

	if err.Code != ErrCodePipelineStage {
		t.Errorf("expected code %s, got %s", ErrCodePipelineStage, err.Code)
	}

	if !strings.Contains(err.Message, "Validate") {
		t.Errorf("error message should contain stage name")
	}

	if !errors.Is(err, cause) {
		t.Errorf("stage error should unwrap to its cause")
	}
}

func TestNewUnexpectedError(t *testing.T) {
	cause := fmt.Errorf("index out of range")
	err := NewUnexpectedError(cause)

	if err.Code != ErrCodeRunUnexpected {
		t.Errorf("expected code %s, got %s", ErrCodeRunUnexpected, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("unexpected error should unwrap to its cause")
	}
}
