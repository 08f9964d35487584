// Package stack detects the source-stack signature of a repository snapshot:
// which frontend framework and which language flavor the files use. The
// signature selects transformers; detection is heuristic and never fails.
package stack

import (
	"encoding/json"
	"strings"
)

// Signature identifies a source stack.
type Signature struct {
	Language         string `json:"language"`
	Framework        string `json:"framework,omitempty"`
	FrameworkVersion string `json:"frameworkVersion,omitempty"`
}

// IsZero reports whether no detection has run and no override was given.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// String renders the full signature for logs and summaries, for example
// "react@18.2.0+typescript".
func (s Signature) String() string {
	framework := s.Framework
	if framework != "" && s.FrameworkVersion != "" {
		framework += "@" + s.FrameworkVersion
	}
	switch {
	case framework == "":
		return s.Language
	case s.Language == "":
		return framework
	default:
		return framework + "+" + s.Language
	}
}

// Key renders the version-less form used for transformer registry matching,
// for example "react+typescript". Versions stay out of the key so one
// registered transformer serves every release of its stack.
func (s Signature) Key() string {
	switch {
	case s.Framework == "":
		return s.Language
	case s.Language == "":
		return s.Framework
	default:
		return s.Framework + "+" + s.Language
	}
}

// frameworkPackages is checked in order; the first dependency hit wins
var frameworkPackages = []struct {
	name string
	pkg  string
}{
	{name: "react", pkg: "react"},
	{name: "vue", pkg: "vue"},
	{name: "svelte", pkg: "svelte"},
	{name: "angular", pkg: "@angular/core"},
}

// Detect inspects a path→content snapshot and returns its signature.
// package.json dependencies decide the framework; a typescript dependency,
// a tsconfig.json, or any .ts/.tsx file flips the language to typescript.
func Detect(files map[string]string) Signature {
	sig := Signature{Language: "javascript"}

	if manifest, ok := files["package.json"]; ok {
		var pkg struct {
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if err := json.Unmarshal([]byte(manifest), &pkg); err == nil {
			deps := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
			for name, version := range pkg.DevDependencies {
				deps[name] = version
			}
			for name, version := range pkg.Dependencies {
				deps[name] = version
			}

			for _, framework := range frameworkPackages {
				if version, ok := deps[framework.pkg]; ok {
					sig.Framework = framework.name
					sig.FrameworkVersion = cleanVersion(version)
					break
				}
			}
			if _, ok := deps["typescript"]; ok {
				sig.Language = "typescript"
			}
		}
	}

	if sig.Language != "typescript" {
		if _, ok := files["tsconfig.json"]; ok {
			sig.Language = "typescript"
		} else {
			for path := range files {
				if strings.HasSuffix(path, ".ts") || strings.HasSuffix(path, ".tsx") {
					sig.Language = "typescript"
					break
				}
			}
		}
	}

	return sig
}

// cleanVersion strips range operators from a manifest version constraint
func cleanVersion(version string) string {
	return strings.TrimLeft(strings.TrimSpace(version), "^~=<>v")
}
