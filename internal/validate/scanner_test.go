package validate

import (
	"strings"
	"testing"
)

func hasErrorContaining(result Result, substr string) bool {
	for _, issue := range result.Errors {
		if strings.Contains(issue.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarningContaining(result Result, substr string) bool {
	for _, w := range result.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestScanStructureValid(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{
			name: "simple statement",
			code: "const x = 1;",
		},
		{
			name: "nested brackets",
			code: "function f() {\n  return [1, 2].map((n) => n * 2);\n}",
		},
		{
			name: "line comment hides brackets",
			code: "// keep } sane\nlet a = 1;",
		},
		{
			name: "block comment hides brackets",
			code: "/* { [ ( */ done()",
		},
		{
			name: "string hides brackets",
			code: "const s = 'a{b(c';",
		},
		{
			name: "escaped quote in string",
			code: "const s = \"ab\\\"cd\";",
		},
		{
			name: "template interpolation",
			code: "const t = `hello ${user.name}`;",
		},
		{
			name: "nested brackets inside interpolation",
			code: "const t = `a ${fn({x: 1})} b`;",
		},
		{
			name: "multiline template",
			code: "const q = `line1\nline2`;",
		},
		{
			name: "regex literal with bracket class",
			code: "const re = /a[(b]/.test(s);",
		},
		{
			name: "division is not a regex",
			code: "if (x) { y = a / b; }",
		},
		{
			name: "regex after return keyword",
			code: "function id() { return /[0-9]+/; }",
		},
		{
			name: "jsx closing tags",
			code: "return (\n  <ul>\n    <li>{item}</li>\n  </ul>\n);",
		},
		{
			name: "empty input",
			code: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Syntax(tt.code, "javascript")
			if !result.SyntaxValid {
				t.Errorf("SyntaxValid = false, want true; errors = %+v", result.Errors)
			}
			if !result.Valid {
				t.Errorf("Valid = false, want true")
			}
			if len(result.Errors) != 0 {
				t.Errorf("Errors = %+v, want none", result.Errors)
			}
		})
	}
}

func TestScanStructureInvalid(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		wantMessage string
		wantLine    int
	}{
		{
			name:        "unclosed paren",
			code:        "const a = (",
			wantMessage: `unclosed "(" opened at line 1`,
			wantLine:    1,
		},
		{
			name:        "unexpected closer",
			code:        "}",
			wantMessage: `unexpected "}" with no matching opener`,
			wantLine:    1,
		},
		{
			name:        "mismatched pair",
			code:        "(]",
			wantMessage: "mismatched bracket",
			wantLine:    1,
		},
		{
			name:        "unterminated single quote at end of input",
			code:        "'abc",
			wantMessage: "unterminated string literal",
			wantLine:    1,
		},
		{
			name:        "unterminated double quote at end of input",
			code:        "const s = \"abc",
			wantMessage: "unterminated string literal",
			wantLine:    1,
		},
		{
			name:        "unterminated template literal",
			code:        "const t = `abc",
			wantMessage: "unterminated template literal",
			wantLine:    1,
		},
		{
			name:        "unterminated block comment",
			code:        "/* abc",
			wantMessage: "unterminated block comment",
			wantLine:    0,
		},
		{
			name:        "unterminated interpolation",
			code:        "const t = `${",
			wantMessage: "unterminated template interpolation",
			wantLine:    1,
		},
		{
			name:        "closer inside interpolation",
			code:        "const t = `${)`",
			wantMessage: `unexpected ")" inside template interpolation`,
			wantLine:    1,
		},
		{
			name:        "unclosed brace across lines",
			code:        "function f() {\n  return 1;\n",
			wantMessage: `unclosed "{" opened at line 1`,
			wantLine:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Syntax(tt.code, "javascript")
			if result.SyntaxValid {
				t.Fatalf("SyntaxValid = true, want false")
			}
			if result.Valid {
				t.Errorf("Valid = true, want false")
			}
			if len(result.Errors) == 0 {
				t.Fatalf("expected at least one error")
			}
			if !hasErrorContaining(result, tt.wantMessage) {
				t.Errorf("errors %+v do not mention %q", result.Errors, tt.wantMessage)
			}
			if result.Errors[0].Line != tt.wantLine {
				t.Errorf("Errors[0].Line = %d, want %d", result.Errors[0].Line, tt.wantLine)
			}
			for _, issue := range result.Errors {
				if issue.Severity != SeverityError {
					t.Errorf("Severity = %q, want %q", issue.Severity, SeverityError)
				}
			}
		})
	}
}

func TestScanStructureSuggestions(t *testing.T) {
	bracket := Syntax("}", "javascript")
	if len(bracket.Errors) == 0 {
		t.Fatalf("expected a bracket error")
	}
	if got, want := bracket.Errors[0].Suggestion, "check for a missing or extra bracket near line 1"; got != want {
		t.Errorf("bracket suggestion = %q, want %q", got, want)
	}

	literal := Syntax("'abc", "javascript")
	if len(literal.Errors) == 0 {
		t.Fatalf("expected a literal error")
	}
	if got, want := literal.Errors[0].Suggestion, "check for an unclosed string or template literal"; got != want {
		t.Errorf("literal suggestion = %q, want %q", got, want)
	}
}

func TestScanStructureRecoversAfterUnterminatedString(t *testing.T) {
	result := Syntax("const a = 'oops\nconst b = (1 + 2);", "javascript")

	if result.SyntaxValid {
		t.Fatalf("SyntaxValid = true, want false")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1; errors = %+v", len(result.Errors), result.Errors)
	}
	issue := result.Errors[0]
	if !strings.Contains(issue.Message, "unterminated string literal") {
		t.Errorf("Message = %q, want unterminated string literal", issue.Message)
	}
	if issue.Line != 1 || issue.Column != 11 {
		t.Errorf("position = %d:%d, want 1:11", issue.Line, issue.Column)
	}
}

func TestScanStructureRegexFallsBackToDivisionAtNewline(t *testing.T) {
	// The slash looks like a regex start but never closes on its line, so the
	// scanner re-reads it as division and keeps checking the next line.
	result := Syntax("const x = /ab\nfoo(", "javascript")

	if result.SyntaxValid {
		t.Fatalf("SyntaxValid = true, want false")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1; errors = %+v", len(result.Errors), result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, `unclosed "("`) {
		t.Errorf("Message = %q, want unclosed paren", result.Errors[0].Message)
	}
	if result.Errors[0].Line != 2 {
		t.Errorf("Line = %d, want 2", result.Errors[0].Line)
	}
}

func TestScanStructureCapsIssueCount(t *testing.T) {
	code := strings.Repeat("x = 'a\n", maxIssues+5)

	result := Syntax(code, "javascript")
	if result.SyntaxValid {
		t.Fatalf("SyntaxValid = true, want false")
	}
	if len(result.Errors) != maxIssues {
		t.Errorf("len(Errors) = %d, want %d", len(result.Errors), maxIssues)
	}
}
