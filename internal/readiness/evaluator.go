// Package readiness implements a service-group readiness engine: a service
// registers its external dependencies once during startup, then obtains an
// aggregate health verdict on demand. Each evaluation runs every dependency
// probe concurrently, bounds each one by its own timeout, and rolls the
// outcomes into a single report of ready, degraded, or down.
package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds probes whose check carries no timeout of its own.
// Without it a single slow dependency could hang an evaluation indefinitely.
const DefaultTimeout = 30 * time.Second

// Evaluator runs all of a registry's checks concurrently and aggregates the
// results. It holds no per-evaluation state, so Evaluate is safe to call
// repeatedly and concurrently.
type Evaluator struct {
	registry       *Registry
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithDefaultTimeout overrides DefaultTimeout for checks without their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.defaultTimeout = d
		}
	}
}

// WithLogger sets the logger used for per-evaluation debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEvaluator creates an Evaluator for the given registry.
func NewEvaluator(reg *Registry, opts ...Option) *Evaluator {
	e := &Evaluator{
		registry:       reg,
		defaultTimeout: DefaultTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every registered probe exactly once, concurrently, each
// bounded by its own timeout, and returns the aggregate report. Probe errors
// and panics never escape: they become unhealthy status records. The report's
// dependency list preserves registration order regardless of completion order.
func (e *Evaluator) Evaluate(ctx context.Context) Report {
	checks := e.registry.snapshot()
	start := time.Now()

	statuses := make([]DependencyStatus, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()
			statuses[i] = e.runCheck(ctx, c)
		}(i, c)
	}
	wg.Wait()

	report := Report{
		Name:            e.registry.Name(),
		Status:          classify(checks, statuses),
		Dependencies:    statuses,
		Summary:         summarize(statuses),
		Details:         detail(checks, statuses),
		CheckDurationMS: msSince(start),
		CheckedAt:       start.UTC(),
	}

	e.logger.Debug("readiness evaluated",
		"service", report.Name,
		"status", report.Status,
		"dependencies", len(report.Dependencies),
		"duration_ms", report.CheckDurationMS,
	)
	return report
}

// runCheck executes one probe bounded by its timeout. The probe runs in its
// own goroutine writing to a buffered channel, so a probe that overruns its
// budget is abandoned without blocking the evaluation or leaking a stuck
// send; its eventual outcome is discarded.
func (e *Evaluator) runCheck(ctx context.Context, c Check) DependencyStatus {
	st := DependencyStatus{
		Name:     c.Name,
		Category: c.Category,
		Details:  c.Details,
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- runProbe(probeCtx, c.Probe)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		st.ResponseTimeMS = msSince(start)
		if err != nil {
			st.Status = StatusUnhealthy
			st.Error = err.Error()
			return st
		}
		st.Status = StatusHealthy
		return st
	case <-timer.C:
		st.ResponseTimeMS = msSince(start)
		st.Status = StatusUnhealthy
		st.Error = fmt.Sprintf("Timeout after %dms", timeout.Milliseconds())
		return st
	}
}

// runProbe invokes the probe with panic recovery so a misbehaving check
// cannot take down the evaluation of its siblings.
func runProbe(ctx context.Context, p Probe) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return p(ctx)
}

// classify applies the aggregation rule: any unhealthy required check takes
// the service down; otherwise any unhealthy optional check degrades it;
// otherwise the service is ready. The empty registry is ready.
func classify(checks []Check, statuses []DependencyStatus) OverallStatus {
	overall := StatusReady
	for i, st := range statuses {
		if st.Status != StatusUnhealthy {
			continue
		}
		if checks[i].Required {
			return StatusDown
		}
		overall = StatusDegraded
	}
	return overall
}

func summarize(statuses []DependencyStatus) map[Status]int {
	summary := make(map[Status]int)
	for _, st := range statuses {
		summary[st.Status]++
	}
	return summary
}

func detail(checks []Check, statuses []DependencyStatus) ReportDetails {
	d := ReportDetails{DependencyCount: len(checks)}
	for _, c := range checks {
		if c.Required {
			d.RequiredDependencies++
		} else {
			d.OptionalDependencies++
		}
	}
	for _, st := range statuses {
		if st.Status == StatusHealthy {
			d.HealthyDependencies++
		}
	}
	return d
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
