package readiness

import (
	"fmt"
	"sync"
	"time"
)

// Registry holds the ordered set of dependency checks for one service
// instance. Registration is expected to happen during service startup;
// evaluations snapshot the current list, so registering while an evaluation
// is in flight is safe but the new check only appears in later reports.
type Registry struct {
	name string

	mu     sync.Mutex
	checks []Check
	names  map[string]bool
}

// NewRegistry creates an empty registry labeled with the owning service's
// name. A registry with zero checks is valid and always evaluates to ready.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:  name,
		names: make(map[string]bool),
	}
}

// Name returns the owning service's label.
func (r *Registry) Name() string {
	return r.name
}

// Register validates and appends a check. Names must be unique within the
// registry: reports are indexed by name downstream, so a duplicate is
// rejected here rather than producing two ambiguous status records.
func (r *Registry) Register(c Check) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("registering check: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[c.Name] {
		return fmt.Errorf("registering check: duplicate name %q", c.Name)
	}
	r.names[c.Name] = true
	r.checks = append(r.checks, c)
	return nil
}

// RegisterDatabase registers a check with category "database".
func (r *Registry) RegisterDatabase(name string, probe Probe, required bool, timeout time.Duration) error {
	return r.Register(Check{
		Name:     name,
		Category: CategoryDatabase,
		Probe:    probe,
		Required: required,
		Timeout:  timeout,
	})
}

// RegisterAPI registers a check with category "api".
func (r *Registry) RegisterAPI(name string, probe Probe, required bool, timeout time.Duration) error {
	return r.Register(Check{
		Name:     name,
		Category: CategoryAPI,
		Probe:    probe,
		Required: required,
		Timeout:  timeout,
	})
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.checks)
}

// snapshot returns a copy of the current check list so an evaluation
// operates on a consistent view.
func (r *Registry) snapshot() []Check {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}
