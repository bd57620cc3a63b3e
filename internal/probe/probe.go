// Package probe builds readiness.Probe functions for the dependency types
// the host knows how to check. Probes carry no timeout of their own: the
// readiness evaluator bounds each attempt through the context it passes in.
package probe

import (
	"fmt"

	"github.com/hazz-dev/readygate/internal/config"
	"github.com/hazz-dev/readygate/internal/readiness"
)

// New returns the probe for the given dependency configuration.
func New(dep config.Dependency) (readiness.Probe, error) {
	switch dep.Type {
	case "http":
		return NewHTTP(dep.Target, dep.ExpectedStatus, dep.Headers), nil
	case "tcp":
		return NewTCP(dep.Target), nil
	case "ping":
		return NewPing(dep.Target), nil
	case "docker":
		return NewDocker(dep.Target), nil
	case "postgres":
		return NewPostgres(dep.Target), nil
	case "redis":
		return NewRedis(dep.Target), nil
	default:
		return nil, fmt.Errorf("unknown probe type %q", dep.Type)
	}
}

// BuildRegistry creates a dependency registry for the named service and
// registers one check per configured dependency.
func BuildRegistry(serviceName string, deps []config.Dependency) (*readiness.Registry, error) {
	reg := readiness.NewRegistry(serviceName)
	for _, dep := range deps {
		p, err := New(dep)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", dep.Name, err)
		}
		err = reg.Register(readiness.Check{
			Name:     dep.Name,
			Category: dep.Category,
			Probe:    p,
			Required: dep.Required,
			Timeout:  dep.Timeout.Duration,
			Details:  dep.Details,
		})
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}
