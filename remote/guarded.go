package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/resilience"
)

// Guarded runs every call to a backend through a resilience.Executor and
// classifies failures into the cache package's remote error kinds.
type Guarded struct {
	name     string
	backend  Backend
	executor *resilience.Executor
}

// NewGuarded wraps backend. A nil executor means no guards.
func NewGuarded(name string, backend Backend, executor *resilience.Executor) *Guarded {
	if executor == nil {
		executor = resilience.NewExecutor()
	}
	return &Guarded{name: name, backend: backend, executor: executor}
}

// Name returns the backend name used in errors and health reports.
func (g *Guarded) Name() string {
	return g.name
}

// Unwrap returns the guarded backend.
func (g *Guarded) Unwrap() Backend {
	return g.backend
}

// CircuitState returns the breaker state, or StateClosed without a breaker.
func (g *Guarded) CircuitState() resilience.State {
	if cb := g.executor.CircuitBreaker(); cb != nil {
		return cb.State()
	}
	return resilience.StateClosed
}

// Get reads key through the executor.
func (g *Guarded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := g.executor.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, found, err = g.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, g.classify("get", err)
	}
	return data, found, nil
}

// Set writes key through the executor.
func (g *Guarded) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := g.executor.Execute(ctx, func(ctx context.Context) error {
		return g.backend.Set(ctx, key, data, ttl)
	})
	if err != nil {
		return g.classify("set", err)
	}
	return nil
}

// Delete removes key through the executor.
func (g *Guarded) Delete(ctx context.Context, key string) error {
	err := g.executor.Execute(ctx, func(ctx context.Context) error {
		return g.backend.Delete(ctx, key)
	})
	if err != nil {
		return g.classify("delete", err)
	}
	return nil
}

// Ping bypasses the executor so health checks see the backend itself.
func (g *Guarded) Ping(ctx context.Context) error {
	return g.backend.Ping(ctx)
}

func (g *Guarded) classify(op string, err error) error {
	kind := cache.ErrRemoteUnavailable
	if errors.Is(err, resilience.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		kind = cache.ErrRemoteTimeout
	}
	return fmt.Errorf("%w: %s %s: %w", kind, g.name, op, err)
}

var _ Backend = (*Guarded)(nil)
