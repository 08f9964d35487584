package transformer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/migratory/internal/plan"
)

// Registry holds the transformers available to a migration run, keyed by
// name and matched by (category, stack key).
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]Transformer
	byCategory map[plan.Category][]Transformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]Transformer),
		byCategory: make(map[plan.Category][]Transformer),
	}
}

// Register adds a transformer. Names must be unique across the registry.
func (r *Registry) Register(t Transformer) error {
	meta := t.Meta()
	if meta.Name == "" {
		return fmt.Errorf("transformer name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[meta.Name]; exists {
		return fmt.Errorf("transformer %s already registered", meta.Name)
	}

	r.byName[meta.Name] = t
	r.byCategory[meta.Category] = append(r.byCategory[meta.Category], t)
	return nil
}

// GetForTask finds the transformer serving a task under the given stack key.
// A transformer declaring the exact stack key wins; otherwise the first
// registered transformer of the category with no declared stacks serves as
// the wildcard. Registration order breaks ties, so lookups are deterministic.
func (r *Registry) GetForTask(task *plan.Task, stackKey string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.byCategory[task.Category]
	for _, t := range candidates {
		for _, served := range t.Meta().Stacks {
			if served == stackKey {
				return t, true
			}
		}
	}
	for _, t := range candidates {
		if len(t.Meta().Stacks) == 0 {
			return t, true
		}
	}
	return nil, false
}

// GetByName retrieves a transformer by its registered name.
func (r *Registry) GetByName(name string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byName[name]
	return t, ok
}

// List returns all registered transformer names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
