package readiness

import "time"

// OverallStatus is the aggregate verdict for a whole service.
type OverallStatus string

const (
	// StatusReady means every dependency is healthy (or none are registered).
	StatusReady OverallStatus = "ready"
	// StatusDegraded means at least one optional dependency is unhealthy
	// but every required one is healthy.
	StatusDegraded OverallStatus = "degraded"
	// StatusDown means at least one required dependency is unhealthy.
	StatusDown OverallStatus = "down"
)

// ReportDetails summarizes the shape of the dependency set that produced
// a report.
type ReportDetails struct {
	DependencyCount      int `json:"dependency_count"`
	RequiredDependencies int `json:"required_dependencies"`
	OptionalDependencies int `json:"optional_dependencies"`
	HealthyDependencies  int `json:"healthy_dependencies"`
}

// Report is the aggregate outcome of one readiness evaluation. Reports are
// ephemeral: recomputed fresh on every evaluation, never cached, never
// mutated after construction.
type Report struct {
	// Name is the label of the service the registry belongs to.
	Name string `json:"name"`

	Status OverallStatus `json:"status"`

	// Dependencies holds one status record per registered check, in
	// registration order regardless of completion order.
	Dependencies []DependencyStatus `json:"dependencies"`

	// Summary maps status label to count.
	Summary map[Status]int `json:"dependency_summary"`

	Details ReportDetails `json:"details"`

	// CheckDurationMS is the wall-clock time of the whole evaluation.
	// Checks run concurrently, so this tracks the slowest check rather
	// than the sum.
	CheckDurationMS float64 `json:"check_duration_ms"`

	CheckedAt time.Time `json:"checked_at"`
}

// Healthy returns the status records of healthy dependencies, in
// registration order.
func (r Report) Healthy() []DependencyStatus {
	return r.filter(StatusHealthy)
}

// Unhealthy returns the status records of unhealthy dependencies, in
// registration order.
func (r Report) Unhealthy() []DependencyStatus {
	return r.filter(StatusUnhealthy)
}

func (r Report) filter(s Status) []DependencyStatus {
	var out []DependencyStatus
	for _, d := range r.Dependencies {
		if d.Status == s {
			out = append(out, d)
		}
	}
	return out
}
