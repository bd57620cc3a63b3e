package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// Store defines the storage operations required by the scheduler.
type Store interface {
	InsertReport(ctx context.Context, r readiness.Report) (int64, error)
	LatestReport(ctx context.Context) (*readiness.Report, error)
}

// Evaluator runs one readiness evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context) readiness.Report
}

// Scheduler evaluates readiness on a fixed cadence in the background and
// persists each report. A single loop suffices: the evaluator already fans
// out over all dependencies concurrently inside one evaluation.
type Scheduler struct {
	evaluator Evaluator
	store     Store
	interval  time.Duration
	onReport  func(readiness.Report, *readiness.OverallStatus)
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// New creates a new Scheduler. Pass nil logger to use the default logger.
func New(evaluator Evaluator, store Store, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		evaluator: evaluator,
		store:     store,
		interval:  interval,
		logger:    logger,
	}
}

// SetOnReport sets the callback invoked after each evaluation. report is the
// fresh report; prev is the previous overall status (nil on the first run).
func (s *Scheduler) SetOnReport(fn func(readiness.Report, *readiness.OverallStatus)) {
	s.onReport = fn
}

// Start spawns the evaluation loop. It is non-blocking. A zero interval
// disables the loop entirely.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("background evaluation disabled")
		return
	}
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the evaluation loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	// Run immediately.
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	// Fetch the previous report before evaluating so status transitions
	// are visible to the callback.
	prev, err := s.store.LatestReport(ctx)
	if err != nil {
		s.logger.Warn("fetching previous report", "error", err)
	}

	report := s.evaluator.Evaluate(ctx)

	s.logger.Info("readiness evaluated",
		"service", report.Name,
		"status", report.Status,
		"healthy", report.Details.HealthyDependencies,
		"total", report.Details.DependencyCount,
		"duration_ms", report.CheckDurationMS,
	)

	if _, err := s.store.InsertReport(ctx, report); err != nil {
		s.logger.Error("storing readiness report", "service", report.Name, "error", err)
	}

	if s.onReport != nil {
		var prevStatus *readiness.OverallStatus
		if prev != nil {
			st := prev.Status
			prevStatus = &st
		}
		s.onReport(report, prevStatus)
	}
}
