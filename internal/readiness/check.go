package readiness

import (
	"context"
	"fmt"
	"time"
)

// Common dependency categories. Category is a free-form tag used only for
// grouping in reports; these constants cover the usual cases.
const (
	CategoryDatabase = "database"
	CategoryAPI      = "api"
	CategoryCache    = "cache"
	CategoryService  = "service"
)

// Probe checks a single dependency. A nil return means the dependency is
// healthy; any error marks it unhealthy. Probes must honor ctx cancellation
// if they want to stop early on timeout, but the evaluator does not rely on
// it — a probe that ignores ctx is abandoned once its budget elapses.
type Probe func(ctx context.Context) error

// Check describes one external dependency of a service. A Check is immutable
// once registered; the registry only appends, never mutates in place.
type Check struct {
	// Name identifies the dependency within its registry.
	Name string

	// Category tags the dependency for report grouping (e.g. "database").
	Category string

	// Probe performs the actual health check.
	Probe Probe

	// Required controls aggregate classification: a failing required
	// dependency takes the whole service down, a failing optional one
	// only degrades it.
	Required bool

	// Timeout bounds a single probe attempt. Zero means the evaluator's
	// default timeout applies.
	Timeout time.Duration

	// Details holds static metadata (e.g. an endpoint URL) copied through
	// unmodified into every status record for this dependency.
	Details map[string]string
}

// validate rejects malformed checks at registration time so a
// misconfiguration surfaces immediately instead of degrading every
// future report.
func (c Check) validate() error {
	if c.Name == "" {
		return fmt.Errorf("check name is required")
	}
	if c.Probe == nil {
		return fmt.Errorf("check %q: probe is required", c.Name)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("check %q: timeout must not be negative", c.Name)
	}
	return nil
}
