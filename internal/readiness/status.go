package readiness

// Status is the health verdict for a single dependency.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// DependencyStatus is the outcome of running one dependency's probe once.
// Records are write-once: each evaluation produces its own set and never
// shares them with a concurrent evaluation.
type DependencyStatus struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Status   Status `json:"status"`

	// ResponseTimeMS is the wall-clock duration of the probe attempt in
	// milliseconds, populated even on failure or timeout.
	ResponseTimeMS float64 `json:"response_time_ms"`

	// Error is set exactly when Status is unhealthy. It holds either the
	// probe's error message or a timeout message of the form
	// "Timeout after {N}ms".
	Error string `json:"error,omitempty"`

	// Details carries the static metadata from the originating Check.
	Details map[string]string `json:"details,omitempty"`
}
