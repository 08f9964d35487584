// Package plan models migration plans: ordered phases of file-rewriting
// tasks with category, risk, and dependency metadata. Plans are authored as
// YAML or JSON files and validated before execution.
package plan

import "sort"

// RiskLevel grades how likely a task is to need human attention
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskRank orders risk levels for comparison; unknown levels rank lowest
var riskRank = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// Valid reports whether the risk level is one of the known values
func (r RiskLevel) Valid() bool {
	return riskRank[r] != 0
}

// MaxRisk returns the higher of two risk levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if riskRank[b] > riskRank[a] {
		return b
	}
	return a
}

// Category classifies what kind of files a task rewrites
type Category string

const (
	CategoryDependencyUpdate Category = "dependency-update"
	CategoryBuildTool        Category = "build-tool"
	CategoryDocumentation    Category = "documentation"
	CategorySourceCode       Category = "source-code"
	CategoryConfig           Category = "config"
	CategoryTesting          Category = "testing"
)

var categories = map[Category]bool{
	CategoryDependencyUpdate: true,
	CategoryBuildTool:        true,
	CategoryDocumentation:    true,
	CategorySourceCode:       true,
	CategoryConfig:           true,
	CategoryTesting:          true,
}

// Valid reports whether the category is one of the known values
func (c Category) Valid() bool {
	return categories[c]
}

// CanCreateFiles reports whether tasks of this category may target files that
// do not exist in the snapshot yet.
func (c Category) CanCreateFiles() bool {
	return c == CategoryBuildTool
}

// DefaultPath returns the file a task of this category targets when it names
// no affected files. Empty when the category has no conventional target.
func (c Category) DefaultPath() string {
	switch c {
	case CategoryDocumentation:
		return "README.md"
	case CategoryDependencyUpdate:
		return "package.json"
	default:
		return ""
	}
}

// Task is a single unit of rewriting work.
type Task struct {
	ID              string    `json:"id" yaml:"id"`
	Category        Category  `json:"category" yaml:"category"`
	Description     string    `json:"description" yaml:"description"`
	AffectedFiles   []string  `json:"affected_files,omitempty" yaml:"affected_files,omitempty"`
	DependsOn       []string  `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Risk            RiskLevel `json:"risk" yaml:"risk"`
	BreakingChanges []string  `json:"breaking_changes,omitempty" yaml:"breaking_changes,omitempty"`
	EstimatedTime   string    `json:"estimated_time,omitempty" yaml:"estimated_time,omitempty"`
}

// Phase groups tasks that execute together; phases run in ascending Order.
type Phase struct {
	Order int       `json:"order" yaml:"order"`
	Name  string    `json:"name" yaml:"name"`
	Risk  RiskLevel `json:"risk,omitempty" yaml:"risk,omitempty"`
	Tasks []Task    `json:"tasks" yaml:"tasks"`
}

// Plan is the top-level migration plan.
type Plan struct {
	Name   string  `json:"name" yaml:"name"`
	Phases []Phase `json:"phases" yaml:"phases"`
}

// SortedPhases returns the phases in execution order. Sorting is stable, so
// phases sharing an Order keep their file order.
func (p *Plan) SortedPhases() []Phase {
	phases := make([]Phase, len(p.Phases))
	copy(phases, p.Phases)
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order < phases[j].Order
	})
	return phases
}

// Tasks returns every task in execution order.
func (p *Plan) Tasks() []Task {
	var tasks []Task
	for _, phase := range p.SortedPhases() {
		tasks = append(tasks, phase.Tasks...)
	}
	return tasks
}

// TaskByID finds a task anywhere in the plan.
func (p *Plan) TaskByID(id string) (*Task, bool) {
	for i := range p.Phases {
		for j := range p.Phases[i].Tasks {
			if p.Phases[i].Tasks[j].ID == id {
				return &p.Phases[i].Tasks[j], true
			}
		}
	}
	return nil, false
}

// TaskCount returns the number of tasks across all phases.
func (p *Plan) TaskCount() int {
	count := 0
	for _, phase := range p.Phases {
		count += len(phase.Tasks)
	}
	return count
}
