package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/readygate/internal/config"
)

func TestRunEvaluation_AllHealthy_OutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{
		ServiceName: "orders",
		Dependencies: []config.Dependency{
			{
				Name:           "billing-api",
				Type:           "http",
				Category:       "api",
				Target:         srv.URL,
				Required:       true,
				Timeout:        config.Duration{Duration: 5 * time.Second},
				ExpectedStatus: 200,
			},
		},
	}

	var buf bytes.Buffer
	err := runEvaluation(&buf, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "billing-api") {
		t.Errorf("expected output to contain 'billing-api', got:\n%s", output)
	}
	if !strings.Contains(output, "healthy") {
		t.Errorf("expected output to contain 'healthy', got:\n%s", output)
	}
	if !strings.Contains(output, "DEPENDENCY") {
		t.Errorf("expected header row with 'DEPENDENCY', got:\n%s", output)
	}
	if !strings.Contains(output, "orders: ready") {
		t.Errorf("expected overall summary 'orders: ready', got:\n%s", output)
	}
}

func TestRunEvaluation_RequiredDown_ReturnsError(t *testing.T) {
	cfg := &config.Config{
		ServiceName: "orders",
		Dependencies: []config.Dependency{
			{
				Name:     "db",
				Type:     "tcp",
				Category: "database",
				// Port 1 is reserved and nothing listens there.
				Target:   "127.0.0.1:1",
				Required: true,
				Timeout:  config.Duration{Duration: time.Second},
			},
		},
	}

	var buf bytes.Buffer
	err := runEvaluation(&buf, cfg)
	if err == nil {
		t.Fatal("expected error when required dependency is down")
	}
	if !strings.Contains(buf.String(), "orders: down") {
		t.Errorf("expected overall summary 'orders: down', got:\n%s", buf.String())
	}
}

func TestRunEvaluation_OptionalDown_NoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &config.Config{
		ServiceName: "orders",
		Dependencies: []config.Dependency{
			{Name: "api", Type: "http", Category: "api", Target: srv.URL, Required: true, Timeout: config.Duration{Duration: 5 * time.Second}, ExpectedStatus: 200},
			{Name: "cache", Type: "tcp", Category: "cache", Target: "127.0.0.1:1", Required: false, Timeout: config.Duration{Duration: time.Second}},
		},
	}

	var buf bytes.Buffer
	err := runEvaluation(&buf, cfg)
	if err != nil {
		t.Fatalf("degraded should not fail the command: %v", err)
	}
	if !strings.Contains(buf.String(), "orders: degraded") {
		t.Errorf("expected overall summary 'orders: degraded', got:\n%s", buf.String())
	}
}
