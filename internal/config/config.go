package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Dependency describes one external dependency the host service registers
// with the readiness engine.
type Dependency struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Category string   `yaml:"category"`
	Target   string   `yaml:"target"`
	Required bool     `yaml:"required"`
	Timeout  Duration `yaml:"timeout"`
	// ExpectedStatus applies to http dependencies only.
	ExpectedStatus int               `yaml:"expected_status"`
	Headers        map[string]string `yaml:"headers"`
	// Details is static metadata copied through into readiness reports.
	Details map[string]string `yaml:"details"`
}

// ReadinessConfig tunes the evaluation engine.
type ReadinessConfig struct {
	// DefaultTimeout bounds dependencies without their own timeout.
	// Zero means the engine's built-in default.
	DefaultTimeout Duration `yaml:"default_timeout"`
	// Interval is the cadence of background evaluations. Zero disables
	// the background loop; /readyz still evaluates on demand.
	Interval Duration `yaml:"interval"`
}

// WebhookConfig holds alert webhook settings.
type WebhookConfig struct {
	URL      string   `yaml:"url"`
	Cooldown Duration `yaml:"cooldown"`
}

// AlertsConfig holds all alert configuration.
type AlertsConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Config is the root application configuration.
type Config struct {
	ServiceName  string          `yaml:"service_name"`
	Dependencies []Dependency    `yaml:"dependencies"`
	Readiness    ReadinessConfig `yaml:"readiness"`
	Alerts       AlertsConfig    `yaml:"alerts"`
	Server       ServerConfig    `yaml:"server"`
	Storage      StorageConfig   `yaml:"storage"`
}

var validTypes = map[string]bool{
	"http":     true,
	"tcp":      true,
	"ping":     true,
	"docker":   true,
	"postgres": true,
	"redis":    true,
}

// defaultCategories maps dependency type to the category used when the
// config does not set one explicitly.
var defaultCategories = map[string]string{
	"http":     "api",
	"tcp":      "service",
	"ping":     "service",
	"docker":   "service",
	"postgres": "database",
	"redis":    "cache",
}

// Load reads, parses, and validates the config file at path. A config with
// zero dependencies is valid: the service simply always reports ready.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal into a raw intermediate so duration errors carry the
	// dependency name instead of a bare YAML position.
	type rawDependency struct {
		Name           string            `yaml:"name"`
		Type           string            `yaml:"type"`
		Category       string            `yaml:"category"`
		Target         string            `yaml:"target"`
		Required       bool              `yaml:"required"`
		Timeout        string            `yaml:"timeout"`
		ExpectedStatus int               `yaml:"expected_status"`
		Headers        map[string]string `yaml:"headers"`
		Details        map[string]string `yaml:"details"`
	}
	type rawConfig struct {
		ServiceName  string          `yaml:"service_name"`
		Dependencies []rawDependency `yaml:"dependencies"`
		Readiness    ReadinessConfig `yaml:"readiness"`
		Alerts       AlertsConfig    `yaml:"alerts"`
		Server       ServerConfig    `yaml:"server"`
		Storage      StorageConfig   `yaml:"storage"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if raw.ServiceName == "" {
		return nil, fmt.Errorf("service_name is required")
	}

	// Apply defaults.
	if raw.Server.Address == "" {
		raw.Server.Address = ":8080"
	}
	if raw.Storage.Path == "" {
		raw.Storage.Path = "readygate.db"
	}

	cfg := &Config{
		ServiceName: raw.ServiceName,
		Readiness:   raw.Readiness,
		Alerts:      raw.Alerts,
		Server:      raw.Server,
		Storage:     raw.Storage,
	}

	names := make(map[string]bool, len(raw.Dependencies))
	for i, rd := range raw.Dependencies {
		if rd.Name == "" {
			return nil, fmt.Errorf("dependency[%d]: name is required", i)
		}
		if names[rd.Name] {
			return nil, fmt.Errorf("duplicate dependency name %q", rd.Name)
		}
		names[rd.Name] = true

		if rd.Target == "" {
			return nil, fmt.Errorf("dependency %q: target is required", rd.Name)
		}
		if !validTypes[rd.Type] {
			return nil, fmt.Errorf("dependency %q: invalid type %q (must be http, tcp, ping, docker, postgres, or redis)", rd.Name, rd.Type)
		}

		dep := Dependency{
			Name:           rd.Name,
			Type:           rd.Type,
			Category:       rd.Category,
			Target:         rd.Target,
			Required:       rd.Required,
			ExpectedStatus: rd.ExpectedStatus,
			Headers:        rd.Headers,
			Details:        rd.Details,
		}

		if dep.Category == "" {
			dep.Category = defaultCategories[rd.Type]
		}

		// Parse timeout; empty means the engine default applies.
		if rd.Timeout != "" {
			d, err := time.ParseDuration(rd.Timeout)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: invalid timeout %q: %w", rd.Name, rd.Timeout, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("dependency %q: timeout must be positive", rd.Name)
			}
			dep.Timeout = Duration{d}
		}

		// Default expected_status for HTTP.
		if rd.Type == "http" && dep.ExpectedStatus == 0 {
			dep.ExpectedStatus = 200
		}

		cfg.Dependencies = append(cfg.Dependencies, dep)
	}

	return cfg, nil
}
