package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// All composes the full validation pass: syntax first, then the semantic
// check for typed languages, then project signals when a directory is known.
// It short-circuits once syntax fails; the later passes assume a structurally
// sound unit.
func All(code, language, projectDir string) Result {
	result := Syntax(code, language)
	if !result.SyntaxValid {
		return result
	}

	lang := strings.ToLower(strings.TrimSpace(language))
	if typedLanguages[lang] {
		for _, issue := range semanticIssues(code) {
			result.addError(issue)
		}
	}

	if projectDir != "" {
		signals := ProjectSignals(projectDir)
		result.Warnings = append(result.Warnings, signals.Warnings...)
	}

	return result
}

// declPattern matches top-level value and class declarations. Functions and
// interfaces are excluded: TypeScript allows overload groups and interface
// merging, so duplicates there are legal.
var declPattern = regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:const|let|var|class|enum)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// semanticIssues runs the permissive semantic pass for typed languages:
// duplicate top-level declarations of the same name.
func semanticIssues(code string) []Issue {
	var issues []Issue

	firstSeen := make(map[string]int)
	depth := 0
	inBlock := false

	for i, rawLine := range strings.Split(code, "\n") {
		var line string
		line, inBlock = stripLiterals(rawLine, inBlock)

		if depth == 0 {
			if m := declPattern.FindStringSubmatch(line); m != nil {
				name := m[1]
				if first, ok := firstSeen[name]; ok {
					issues = append(issues, Issue{
						Message:    fmt.Sprintf("duplicate top-level declaration of %s (first declared at line %d)", name, first),
						Line:       i + 1,
						Suggestion: "rename or remove one of the declarations",
					})
				} else {
					firstSeen[name] = i + 1
				}
			}
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
	}

	return issues
}

// stripLiterals blanks out string, template, and comment content on one line
// so brace counting and declaration matching see only code
func stripLiterals(line string, inBlock bool) (string, bool) {
	var b strings.Builder
	b.Grow(len(line))

	i := 0
	if inBlock {
		end := strings.Index(line, "*/")
		if end < 0 {
			return "", true
		}
		i = end + 2
	}

	var quote byte
	for ; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"', '`':
			quote = c
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return b.String(), false
			}
			if i+1 < len(line) && line[i+1] == '*' {
				end := strings.Index(line[i+2:], "*/")
				if end < 0 {
					return b.String(), true
				}
				i += 2 + end + 1
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), false
}

// extLanguages maps file extensions to the language tags the validator and
// pipeline understand
var extLanguages = map[string]string{
	".js":       "javascript",
	".mjs":      "javascript",
	".cjs":      "javascript",
	".jsx":      "jsx",
	".ts":       "typescript",
	".mts":      "typescript",
	".cts":      "typescript",
	".tsx":      "tsx",
	".json":     "json",
	".md":       "markdown",
	".markdown": "markdown",
	".yml":      "yaml",
	".yaml":     "yaml",
	".css":      "css",
	".html":     "html",
	".htm":      "html",
}

// LanguageForPath infers the validation language tag from a file path.
// Unknown extensions map to "text", which the validator passes with a
// warning rather than blocking.
func LanguageForPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "text"
}
