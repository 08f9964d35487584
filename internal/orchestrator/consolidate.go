package orchestrator

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/migratory/internal/plan"
)

// consolidateDependencyTasks collapses the dependency-update tasks of one
// phase that target the same manifest into a single pseudo-task, so the
// transformer sees every package change in one call before anything is
// written. Other tasks keep their declared order; each merged task sits at
// the position of its group's first member.
func consolidateDependencyTasks(tasks []plan.Task) []plan.Task {
	groups := make(map[string][]plan.Task)
	positions := make(map[string]int)
	var manifests []string

	out := make([]plan.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Category != plan.CategoryDependencyUpdate {
			out = append(out, task)
			continue
		}
		manifest := manifestFor(task)
		if _, ok := groups[manifest]; !ok {
			positions[manifest] = len(out)
			out = append(out, plan.Task{})
			manifests = append(manifests, manifest)
		}
		groups[manifest] = append(groups[manifest], task)
	}

	for _, manifest := range manifests {
		out[positions[manifest]] = mergeDependencyTasks(manifest, groups[manifest])
	}
	return out
}

// manifestFor resolves the manifest file a dependency-update task targets:
// its first declared path, or the category default.
func manifestFor(task plan.Task) string {
	if len(task.AffectedFiles) > 0 && task.AffectedFiles[0] != "" {
		return task.AffectedFiles[0]
	}
	return task.Category.DefaultPath()
}

// mergeDependencyTasks folds one manifest's group into a pseudo-task:
// ids joined with "+", package identifiers merged into the description,
// breaking-change notes concatenated without duplicates, maximum risk.
func mergeDependencyTasks(manifest string, group []plan.Task) plan.Task {
	if len(group) == 1 {
		task := group[0]
		task.AffectedFiles = []string{manifest}
		return task
	}

	ids := make([]string, 0, len(group))
	risk := plan.RiskLow
	var packages []string
	var notes []string
	seenPackage := make(map[string]bool)
	seenNote := make(map[string]bool)

	for _, task := range group {
		ids = append(ids, task.ID)
		risk = plan.MaxRisk(risk, task.Risk)
		for _, pkg := range PackageIdentifiers(task.Description) {
			if !seenPackage[pkg] {
				seenPackage[pkg] = true
				packages = append(packages, pkg)
			}
		}
		for _, note := range task.BreakingChanges {
			if !seenNote[note] {
				seenNote[note] = true
				notes = append(notes, note)
			}
		}
	}

	description := "update packages: " + strings.Join(packages, ", ")
	if len(packages) == 0 {
		descriptions := make([]string, 0, len(group))
		for _, task := range group {
			descriptions = append(descriptions, task.Description)
		}
		description = strings.Join(descriptions, "; ")
	}

	return plan.Task{
		ID:              strings.Join(ids, "+"),
		Category:        plan.CategoryDependencyUpdate,
		Description:     description,
		AffectedFiles:   []string{manifest},
		Risk:            risk,
		BreakingChanges: notes,
	}
}

var (
	packagesListPattern  = regexp.MustCompile(`(?i)packages?\s*:\s*(.+)`)
	backtickTokenPattern = regexp.MustCompile("`([^`]+)`")
	updatePhrasePattern  = regexp.MustCompile(`(?i)\b(?:update|upgrade|bump)\s+([A-Za-z0-9@][\w.@/-]*)`)

	// Words that follow "update" in prose without naming a package.
	packageStopwords = map[string]bool{
		"the": true, "to": true, "a": true, "an": true, "all": true,
		"and": true, "of": true, "for": true, "version": true,
		"versions": true, "package": true, "packages": true,
		"dependency": true, "dependencies": true,
	}
)

// PackageIdentifiers extracts package names from a free-text task
// description. Three forms are recognized, tried in order: a comma list
// after "packages:", backtick-quoted tokens, and "update X" phrasing.
// This is a best-effort heuristic, not a parser; descriptions matching
// none of the forms yield nil.
func PackageIdentifiers(description string) []string {
	if m := packagesListPattern.FindStringSubmatch(description); m != nil {
		var names []string
		for _, field := range strings.Split(m[1], ",") {
			name := strings.Trim(strings.TrimSpace(field), "`")
			if name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}

	if tokens := backtickTokenPattern.FindAllStringSubmatch(description, -1); tokens != nil {
		var names []string
		seen := make(map[string]bool)
		for _, m := range tokens {
			name := strings.TrimSpace(m[1])
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return names
		}
	}

	if m := updatePhrasePattern.FindStringSubmatch(description); m != nil {
		name := strings.TrimRight(m[1], ".,;:")
		if name != "" && !packageStopwords[strings.ToLower(name)] {
			return []string{name}
		}
	}
	return nil
}
