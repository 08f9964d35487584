package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// lockfiles recognized as dependency pins
var lockfiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
}

// testConfigGlobs match standalone test runner configuration
var testConfigGlobs = []string{
	"jest.config.*",
	"vitest.config.*",
	"karma.conf.*",
}

// buildConfigGlobs match build tooling configuration
var buildConfigGlobs = []string{
	"webpack.config.*",
	"vite.config.*",
	"rollup.config.*",
	"babel.config.*",
	"next.config.*",
}

// ProjectSignals best-effort-checks a project directory for build and test
// configuration. Absences are warnings, never errors; a nonexistent directory
// is itself only a warning. An empty dir is skipped silently.
func ProjectSignals(dir string) Result {
	result := okResult()
	if dir == "" {
		return result
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		result.addWarning(fmt.Sprintf("project directory not found: %s", dir))
		return result
	}

	hasTestScript := false
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		result.addWarning("no package.json found")
	} else {
		var pkg struct {
			Scripts map[string]string `json:"scripts"`
		}
		if jsonErr := json.Unmarshal(data, &pkg); jsonErr != nil {
			result.addWarning("package.json could not be parsed")
		} else if _, ok := pkg.Scripts["test"]; ok {
			hasTestScript = true
		}
	}

	if !anyFileExists(dir, lockfiles) {
		result.addWarning("no lockfile found")
	}

	if !hasTestScript && !anyGlobMatches(dir, testConfigGlobs) {
		result.addWarning("no test configuration found")
	}

	if !anyGlobMatches(dir, buildConfigGlobs) && !fileExists(filepath.Join(dir, "tsconfig.json")) && !fileExists(filepath.Join(dir, ".babelrc")) {
		result.addWarning("no build configuration found")
	}

	return result
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func anyFileExists(dir string, names []string) bool {
	for _, name := range names {
		if fileExists(filepath.Join(dir, name)) {
			return true
		}
	}
	return false
}

func anyGlobMatches(dir string, globs []string) bool {
	for _, glob := range globs {
		matches, err := filepath.Glob(filepath.Join(dir, glob))
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}
