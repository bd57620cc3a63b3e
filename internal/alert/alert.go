package alert

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// Alerter sends webhook notifications on readiness state transitions.
type Alerter struct {
	webhookURL string
	cooldown   time.Duration
	client     *http.Client
	lastAlert  map[string]time.Time
	mu         sync.Mutex
	logger     *slog.Logger
}

// New creates a new Alerter. Pass nil logger to use the default logger.
func New(webhookURL string, cooldown time.Duration, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		webhookURL: webhookURL,
		cooldown:   cooldown,
		client:     &http.Client{Timeout: 10 * time.Second},
		lastAlert:  make(map[string]time.Time),
		logger:     logger,
	}
}

type unhealthyDependency struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type webhookPayload struct {
	Service         string                `json:"service"`
	Status          string                `json:"status"`
	PreviousStatus  string                `json:"previous_status"`
	Unhealthy       []unhealthyDependency `json:"unhealthy_dependencies"`
	CheckDurationMs float64               `json:"check_duration_ms"`
	CheckedAt       string                `json:"checked_at"`
	Source          string                `json:"source"`
}

// Notify sends a webhook if the overall status has changed and the cooldown
// has elapsed.
func (a *Alerter) Notify(report readiness.Report, previousStatus *readiness.OverallStatus) {
	// No previous status means first evaluation — skip.
	if previousStatus == nil {
		return
	}
	// No state change — skip.
	if report.Status == *previousStatus {
		return
	}

	// Check cooldown.
	a.mu.Lock()
	last, exists := a.lastAlert[report.Name]
	if exists && time.Since(last) < a.cooldown {
		a.mu.Unlock()
		a.logger.Info("alert suppressed by cooldown", "service", report.Name)
		return
	}
	a.lastAlert[report.Name] = time.Now()
	a.mu.Unlock()

	// Send asynchronously so Notify doesn't block the scheduler.
	go a.send(report, string(*previousStatus))
}

func (a *Alerter) send(report readiness.Report, prevStatus string) {
	unhealthy := make([]unhealthyDependency, 0)
	for _, dep := range report.Unhealthy() {
		unhealthy = append(unhealthy, unhealthyDependency{Name: dep.Name, Error: dep.Error})
	}

	payload := webhookPayload{
		Service:         report.Name,
		Status:          string(report.Status),
		PreviousStatus:  prevStatus,
		Unhealthy:       unhealthy,
		CheckDurationMs: report.CheckDurationMS,
		CheckedAt:       report.CheckedAt.UTC().Format(time.RFC3339),
		Source:          "readygate",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("marshaling webhook payload", "service", report.Name, "error", err)
		return
	}

	resp, err := a.client.Post(a.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		a.logger.Error("sending webhook", "service", report.Name, "url", a.webhookURL, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.logger.Warn("webhook returned non-2xx status",
			"service", report.Name,
			"status", resp.StatusCode,
		)
	}
}
