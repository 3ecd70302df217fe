package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/tiercache/resilience"
)

// Pinger is a remote backend that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// circuitReporter is implemented by backends guarded by a circuit breaker.
type circuitReporter interface {
	CircuitState() resilience.State
}

// BackendChecker checks one remote backend.
//
// A failed ping is unhealthy. A reachable backend whose circuit is still
// open or half-open is degraded: the cache is serving misses for it.
type BackendChecker struct {
	name    string
	backend Pinger
}

// NewBackendChecker creates a checker for backend.
func NewBackendChecker(name string, backend Pinger) *BackendChecker {
	return &BackendChecker{name: name, backend: backend}
}

// Name returns the name of this checker.
func (c *BackendChecker) Name() string {
	return c.name
}

// Check pings the backend.
func (c *BackendChecker) Check(ctx context.Context) Result {
	details := map[string]any{}
	state := resilience.StateClosed
	if cr, ok := c.backend.(circuitReporter); ok {
		state = cr.CircuitState()
		details["circuit"] = state.String()
	}

	if err := c.backend.Ping(ctx); err != nil {
		return Unhealthy(fmt.Sprintf("%s unreachable", c.name), err).WithDetails(details)
	}
	if state != resilience.StateClosed {
		return Degraded(fmt.Sprintf("%s reachable, circuit %s", c.name, state)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%s reachable", c.name)).WithDetails(details)
}
