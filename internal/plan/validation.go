package plan

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/migratory/internal/errors"
)

// Validate checks one task against the domain rules
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	if !t.Risk.Valid() {
		return fmt.Errorf("unknown risk level %q", t.Risk)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	return nil
}

// Validate checks the whole plan: shape, unique task IDs, resolvable
// dependencies, and a cycle-free dependency graph. The returned error carries
// a PLAN coded error so callers can map it to an exit code.
func (p *Plan) Validate() error {
	if len(p.Phases) == 0 {
		return errors.NewPlanInvalidError("plan must have at least one phase")
	}
	if p.TaskCount() == 0 {
		return errors.NewPlanInvalidError("plan must have at least one task")
	}

	taskIDs := make(map[string]bool)
	for pi, phase := range p.Phases {
		if len(phase.Tasks) == 0 {
			return errors.NewPlanInvalidError(fmt.Sprintf("phase %d (%s) has no tasks", pi, phase.Name))
		}
		if phase.Risk != "" && !phase.Risk.Valid() {
			return errors.NewPlanInvalidError(fmt.Sprintf("phase %d (%s) has unknown risk level %q", pi, phase.Name, phase.Risk))
		}
		for ti, task := range phase.Tasks {
			if err := task.Validate(); err != nil {
				return errors.NewPlanInvalidError(fmt.Sprintf("task at phase %d index %d (%s): %v", pi, ti, task.ID, err))
			}
			if taskIDs[task.ID] {
				return errors.NewPlanInvalidError(fmt.Sprintf("duplicate task ID %q", task.ID))
			}
			taskIDs[task.ID] = true
		}
	}

	for _, task := range p.Tasks() {
		for _, depID := range task.DependsOn {
			if !taskIDs[depID] {
				return errors.NewPlanInvalidError(fmt.Sprintf("task %s depends on %q, which does not exist in the plan", task.ID, depID))
			}
		}
	}

	return p.checkCircularDependencies()
}

// checkCircularDependencies detects cycles in the task dependency graph
func (p *Plan) checkCircularDependencies() error {
	graph := make(map[string][]string)
	for _, task := range p.Tasks() {
		graph[task.ID] = task.DependsOn
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(taskID string, path []string) error
	hasCycle = func(taskID string, path []string) error {
		visited[taskID] = true
		recStack[taskID] = true
		path = append(path, taskID)

		for _, dep := range graph[taskID] {
			if !visited[dep] {
				if err := hasCycle(dep, path); err != nil {
					return err
				}
			} else if recStack[dep] {
				cyclePath := append(path, dep)
				return errors.NewPlanCyclicDepError(strings.Join(cyclePath, " -> "))
			}
		}

		recStack[taskID] = false
		return nil
	}

	for _, task := range p.Tasks() {
		if !visited[task.ID] {
			if err := hasCycle(task.ID, []string{}); err != nil {
				return err
			}
		}
	}

	return nil
}
