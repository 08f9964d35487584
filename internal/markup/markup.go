// Package markup holds the best-effort heuristics that decide whether file
// content embeds JSX-style markup and which path extension declares it. The
// checks are structural, not parsers: they look for strong signals and accept
// that exotic code can slip past them.
package markup

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// A closing tag or a self-closing tag almost never appears in plain
	// JavaScript expressions, unlike a bare "a < b" comparison.
	closingTag     = regexp.MustCompile(`</[A-Za-z][A-Za-z0-9.]*\s*>`)
	selfClosingTag = regexp.MustCompile(`<[A-Za-z][A-Za-z0-9.]*(?:\s[^<>]*)?/>`)

	// React.createElement is an explicit element-construction call;
	// document.createElement is DOM scripting and deliberately not matched.
	elementCall = regexp.MustCompile(`\bReact\.createElement\s*\(`)

	// A return statement that opens with a tag.
	markupReturn = regexp.MustCompile(`\breturn\s*\(?\s*<[A-Za-z]`)
)

// Contains reports whether code structurally embeds markup: tag-like syntax,
// element-construction calls, or markup-shaped return expressions.
func Contains(code string) bool {
	if !strings.Contains(code, "<") && !strings.Contains(code, "createElement") {
		return false
	}
	return closingTag.MatchString(code) ||
		selfClosingTag.MatchString(code) ||
		elementCall.MatchString(code) ||
		markupReturn.MatchString(code)
}

// CapableExt reports whether the path's extension already declares embedded
// markup.
func CapableExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsx", ".tsx":
		return true
	}
	return false
}

// ConvertPath returns the markup-declaring variant of a script path:
// .js becomes .jsx and .ts becomes .tsx. Declaration files and paths with
// any other extension have no variant.
func ConvertPath(path string) (string, bool) {
	if strings.HasSuffix(strings.ToLower(path), ".d.ts") {
		return "", false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".ts":
		return path + "x", true
	}
	return "", false
}
