package config_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/readygate/internal/config"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.yml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeTemp(t, `
service_name: "orders-api"
dependencies:
  - name: "primary_db"
    type: "postgres"
    target: "postgres://orders:pw@db:5432/orders"
    required: true
    timeout: "2s"
    details:
      endpoint: "db:5432"
  - name: "billing_api"
    type: "http"
    target: "https://billing.example.com/health"
    timeout: "3s"
    expected_status: 204
    headers:
      Authorization: "Bearer token"
  - name: "session_cache"
    type: "redis"
    target: "redis:6379"
readiness:
  default_timeout: "10s"
  interval: "30s"
alerts:
  webhook:
    url: "https://hooks.example.com/alert"
    cooldown: "5m"
server:
  address: ":9090"
storage:
  path: "test.db"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "orders-api" {
		t.Errorf("expected service_name 'orders-api', got %q", cfg.ServiceName)
	}
	if len(cfg.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(cfg.Dependencies))
	}

	db := cfg.Dependencies[0]
	if db.Name != "primary_db" || db.Type != "postgres" {
		t.Errorf("unexpected first dependency: %+v", db)
	}
	if db.Category != "database" {
		t.Errorf("postgres should default to category 'database', got %q", db.Category)
	}
	if !db.Required {
		t.Error("expected primary_db to be required")
	}
	if db.Timeout.Duration != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", db.Timeout)
	}
	if db.Details["endpoint"] != "db:5432" {
		t.Errorf("expected details to pass through, got %v", db.Details)
	}

	api := cfg.Dependencies[1]
	if api.Category != "api" {
		t.Errorf("http should default to category 'api', got %q", api.Category)
	}
	if api.ExpectedStatus != 204 {
		t.Errorf("expected expected_status 204, got %d", api.ExpectedStatus)
	}
	if api.Headers["Authorization"] != "Bearer token" {
		t.Errorf("expected Authorization header, got %v", api.Headers)
	}

	cache := cfg.Dependencies[2]
	if cache.Category != "cache" {
		t.Errorf("redis should default to category 'cache', got %q", cache.Category)
	}
	if cache.Timeout.Duration != 0 {
		t.Errorf("missing timeout should stay zero (engine default), got %v", cache.Timeout)
	}

	if cfg.Readiness.DefaultTimeout.Duration != 10*time.Second {
		t.Errorf("unexpected default_timeout: %v", cfg.Readiness.DefaultTimeout)
	}
	if cfg.Readiness.Interval.Duration != 30*time.Second {
		t.Errorf("unexpected interval: %v", cfg.Readiness.Interval)
	}
	if cfg.Alerts.Webhook.URL != "https://hooks.example.com/alert" {
		t.Errorf("unexpected webhook url: %q", cfg.Alerts.Webhook.URL)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("unexpected address: %q", cfg.Server.Address)
	}
	if cfg.Storage.Path != "test.db" {
		t.Errorf("unexpected storage path: %q", cfg.Storage.Path)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
dependencies:
  - name: "api"
    type: "http"
    target: "https://example.com/health"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dep := cfg.Dependencies[0]
	if dep.ExpectedStatus != 200 {
		t.Errorf("expected default expected_status 200, got %d", dep.ExpectedStatus)
	}
	if dep.Required {
		t.Error("dependencies should default to optional")
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.Server.Address)
	}
	if cfg.Storage.Path != "readygate.db" {
		t.Errorf("expected default storage path readygate.db, got %q", cfg.Storage.Path)
	}
	if cfg.Readiness.Interval.Duration != 0 {
		t.Errorf("background loop should default to disabled, got %v", cfg.Readiness.Interval)
	}
}

func TestLoad_NoDependenciesIsValid(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Dependencies) != 0 {
		t.Fatalf("expected no dependencies, got %d", len(cfg.Dependencies))
	}
}

func TestLoad_MissingServiceName(t *testing.T) {
	path := writeTemp(t, `
dependencies:
  - name: "api"
    type: "http"
    target: "https://example.com"
`)
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing service_name, got nil")
	}
	if !strings.Contains(err.Error(), "service_name") {
		t.Errorf("error should mention 'service_name': %v", err)
	}
}

func TestLoad_MissingName(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
dependencies:
  - type: "http"
    target: "https://example.com"
`)
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing name, got nil")
	}
	if !strings.Contains(err.Error(), "name") {
		t.Errorf("error should mention 'name': %v", err)
	}
}

func TestLoad_DuplicateName(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
dependencies:
  - name: "db"
    type: "tcp"
    target: "db:5432"
  - name: "db"
    type: "tcp"
    target: "db-replica:5432"
`)
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for duplicate name, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention 'duplicate': %v", err)
	}
}

func TestLoad_InvalidType(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
dependencies:
  - name: "legacy"
    type: "ftp"
    target: "ftp://example.com"
`)
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for invalid type, got nil")
	}
	if !strings.Contains(err.Error(), "invalid type") {
		t.Errorf("error should mention 'invalid type': %v", err)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	path := writeTemp(t, `
service_name: "svc"
dependencies:
  - name: "api"
    type: "http"
    target: "https://example.com"
    timeout: "fast"
`)
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for invalid timeout, got nil")
	}
	if !strings.Contains(err.Error(), "api") {
		t.Errorf("error should name the dependency: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
