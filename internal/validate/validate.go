// Package validate performs permissive syntax and project-signal checks on
// code units before and after transformation. Checks are best-effort: only
// structural impossibilities fail, and unrecognized languages pass with a
// warning so they never block a migration.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity levels for issues
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one structured validation finding. Line and Column are 1-based;
// zero means unknown.
type Issue struct {
	Message    string `json:"message"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Result aggregates the findings of one validation pass.
// SyntaxValid reports the structural check alone; Valid additionally covers
// the semantic pass when one ran.
type Result struct {
	Valid       bool     `json:"valid"`
	SyntaxValid bool     `json:"syntaxValid"`
	Errors      []Issue  `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

func okResult() Result {
	return Result{Valid: true, SyntaxValid: true}
}

func (r *Result) addError(issue Issue) {
	issue.Severity = SeverityError
	r.Errors = append(r.Errors, issue)
	r.Valid = false
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// structuralLanguages are checked with the permissive delimiter scanner
var structuralLanguages = map[string]bool{
	"javascript": true,
	"jsx":        true,
	"typescript": true,
	"tsx":        true,
}

// typedLanguages additionally get the semantic pass in All
var typedLanguages = map[string]bool{
	"typescript": true,
	"tsx":        true,
}

// Syntax checks one code unit for structural validity.
// JavaScript-family languages get delimiter balance and literal termination
// checks; json gets a strict parse; any other language passes with a warning.
func Syntax(code, language string) Result {
	lang := strings.ToLower(strings.TrimSpace(language))

	switch {
	case structuralLanguages[lang]:
		return scanStructure(code)
	case lang == "json":
		return syntaxJSON(code)
	default:
		result := okResult()
		if lang == "" {
			lang = "unknown"
		}
		result.addWarning(fmt.Sprintf("syntax validation not supported for %s", lang))
		return result
	}
}

func syntaxJSON(code string) Result {
	result := okResult()

	var v any
	if err := json.Unmarshal([]byte(code), &v); err != nil {
		issue := Issue{
			Message:    fmt.Sprintf("invalid JSON: %v", err),
			Suggestion: "check for trailing commas, unquoted keys, or truncated content",
		}
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			issue.Line, issue.Column = offsetToPosition(code, syntaxErr.Offset)
		}
		result.addError(issue)
		result.SyntaxValid = false
	}

	return result
}

// offsetToPosition converts a byte offset into 1-based line and column
func offsetToPosition(code string, offset int64) (line, column int) {
	if offset < 0 {
		return 0, 0
	}
	if offset > int64(len(code)) {
		offset = int64(len(code))
	}

	line, column = 1, 1
	for _, b := range []byte(code[:offset]) {
		if b == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}
