package validate

import (
	"fmt"
)

// maxIssues caps cascading reports from one scan
const maxIssues = 10

// delimiter pairs recognized by the scanner
var closerFor = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
}

// regexKeywords are words after which a / starts a regex literal rather than
// a division
var regexKeywords = map[string]bool{
	"return": true, "case": true, "typeof": true, "instanceof": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"do": true, "else": true, "yield": true, "await": true, "throw": true,
}

// openEntry records an unclosed delimiter or template context
type openEntry struct {
	kind   byte // '(', '[', '{', '`' (template), '$' (template interpolation)
	line   int
	column int
}

// scanner modes for transient constructs that cannot nest
const (
	scanCode = iota
	scanLineComment
	scanBlockComment
	scanSingle
	scanDouble
	scanRegex
	scanRegexClass
)

// scanStructure checks delimiter balance and literal termination for
// JavaScript-family sources. It understands comments, escapes, template
// literal interpolation, and regex literals heuristically; anything it is
// unsure about passes. Only structural impossibilities produce errors.
func scanStructure(code string) Result {
	result := okResult()

	var stack []openEntry
	mode := scanCode
	line, col := 1, 1

	// literal start position, for unterminated reports
	litLine, litCol := 0, 0

	// regex-vs-division heuristic state
	var prev byte
	var word []byte
	wordBroken := false

	inTemplate := func() bool {
		return len(stack) > 0 && stack[len(stack)-1].kind == '`'
	}

	report := func(issue Issue) {
		if len(result.Errors) < maxIssues {
			result.addError(issue)
		}
	}

	bracketIssue := func(msg string, l, c int) Issue {
		return Issue{
			Message:    msg,
			Line:       l,
			Column:     c,
			Suggestion: fmt.Sprintf("check for a missing or extra bracket near line %d", l),
		}
	}

	literalIssue := func(msg string, l, c int) Issue {
		return Issue{
			Message:    msg,
			Line:       l,
			Column:     c,
			Suggestion: "check for an unclosed string or template literal",
		}
	}

	for i := 0; i < len(code); i++ {
		c := code[i]

		switch mode {
		case scanLineComment:
			// terminated by newline, which returns to the enclosing context

		case scanBlockComment:
			if c == '*' && i+1 < len(code) && code[i+1] == '/' {
				i++
				col++
				mode = scanCode
			}

		case scanSingle, scanDouble:
			quote := byte('\'')
			if mode == scanDouble {
				quote = '"'
			}
			switch c {
			case '\\':
				if i+1 < len(code) {
					i++
					if code[i] == '\n' {
						line++
						col = 0
					} else {
						col++
					}
				}
			case quote:
				mode = scanCode
				prev = quote
				word = word[:0]
			case '\n':
				report(literalIssue("unterminated string literal", litLine, litCol))
				mode = scanCode
			}

		case scanRegex:
			switch c {
			case '\\':
				if i+1 < len(code) && code[i+1] != '\n' {
					i++
					col++
				}
			case '[':
				mode = scanRegexClass
			case '/':
				mode = scanCode
				prev = ')'
				word = word[:0]
			case '\n':
				// Not a regex after all; treat the earlier slash as division
				mode = scanCode
				prev = '/'
			}

		case scanRegexClass:
			switch c {
			case '\\':
				if i+1 < len(code) && code[i+1] != '\n' {
					i++
					col++
				}
			case ']':
				mode = scanRegex
			case '\n':
				mode = scanCode
				prev = '/'
			}

		case scanCode:
			if inTemplate() {
				switch c {
				case '\\':
					if i+1 < len(code) {
						i++
						if code[i] == '\n' {
							line++
							col = 0
						} else {
							col++
						}
					}
				case '`':
					stack = stack[:len(stack)-1]
					prev = '`'
					word = word[:0]
				case '$':
					if i+1 < len(code) && code[i+1] == '{' {
						stack = append(stack, openEntry{kind: '$', line: line, column: col})
						i++
						col++
						prev = 0
						word = word[:0]
						wordBroken = false
					}
				}
				break
			}

			switch {
			case c == ' ' || c == '\t' || c == '\r' || c == '\n':
				if len(word) > 0 {
					wordBroken = true
				}

			case isWordChar(c):
				if wordBroken {
					word = word[:0]
					wordBroken = false
				}
				word = append(word, c)
				prev = c

			case c == '/':
				if i+1 < len(code) && code[i+1] == '/' {
					mode = scanLineComment
					i++
					col++
					break
				}
				if i+1 < len(code) && code[i+1] == '*' {
					mode = scanBlockComment
					i++
					col++
					break
				}
				if regexCanFollow(prev, word) {
					mode = scanRegex
				}
				prev = '/'
				word = word[:0]
				wordBroken = false

			case c == '\'':
				mode = scanSingle
				litLine, litCol = line, col
				word = word[:0]
				wordBroken = false

			case c == '"':
				mode = scanDouble
				litLine, litCol = line, col
				word = word[:0]
				wordBroken = false

			case c == '`':
				stack = append(stack, openEntry{kind: '`', line: line, column: col})
				word = word[:0]
				wordBroken = false

			case c == '(' || c == '[' || c == '{':
				stack = append(stack, openEntry{kind: c, line: line, column: col})
				prev = c
				word = word[:0]
				wordBroken = false

			case c == ')' || c == ']' || c == '}':
				if len(stack) == 0 {
					report(bracketIssue(fmt.Sprintf("unexpected %q with no matching opener", string(c)), line, col))
					result.SyntaxValid = false
					return result
				}
				top := stack[len(stack)-1]
				if top.kind == '$' {
					if c == '}' {
						// Interpolation closed; back to template text
						stack = stack[:len(stack)-1]
						prev = 0
						word = word[:0]
						break
					}
					report(bracketIssue(fmt.Sprintf("unexpected %q inside template interpolation", string(c)), line, col))
					result.SyntaxValid = false
					return result
				}
				if closerFor[top.kind] != c {
					report(bracketIssue(
						fmt.Sprintf("mismatched bracket: expected %q to close %q opened at line %d, found %q",
							string(closerFor[top.kind]), string(top.kind), top.line, string(c)),
						line, col))
					result.SyntaxValid = false
					return result
				}
				stack = stack[:len(stack)-1]
				prev = c
				word = word[:0]
				wordBroken = false

			default:
				prev = c
				word = word[:0]
				wordBroken = false
			}
		}

		if c == '\n' {
			line++
			col = 1
			if mode == scanLineComment {
				mode = scanCode
			}
		} else {
			col++
		}
	}

	// End of input: anything still open is unterminated
	switch mode {
	case scanSingle, scanDouble:
		report(literalIssue("unterminated string literal", litLine, litCol))
	case scanBlockComment:
		report(Issue{
			Message:    "unterminated block comment",
			Suggestion: "close the comment with */",
		})
	}

	// Report the innermost unclosed entry only
	if len(stack) > 0 {
		entry := stack[len(stack)-1]
		switch entry.kind {
		case '`':
			report(literalIssue("unterminated template literal", entry.line, entry.column))
		case '$':
			report(bracketIssue("unterminated template interpolation", entry.line, entry.column))
		default:
			report(bracketIssue(
				fmt.Sprintf("unclosed %q opened at line %d", string(entry.kind), entry.line),
				entry.line, entry.column))
		}
	}

	if len(result.Errors) > 0 {
		result.SyntaxValid = false
	}

	return result
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '$'
}

// regexCanFollow reports whether a / at the current position starts a regex
// literal. After an operand (identifier, literal, closing bracket) a slash is
// division; after an operator, opener, or statement keyword it is a regex.
// Angle brackets are deliberately absent from the operator set so JSX closing
// tags like </div> read as division and fall through harmlessly.
func regexCanFollow(prev byte, word []byte) bool {
	if len(word) > 0 {
		return regexKeywords[string(word)]
	}

	switch prev {
	case 0, '=', '(', '[', '{', ',', ';', ':', '!', '&', '|', '?', '+', '-', '*', '%', '~', '^':
		return true
	}
	return false
}
