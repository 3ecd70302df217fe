package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/tiercache/route"
)

// Sharded routes every key to one of its backends with jump consistent
// hashing. The backends themselves are partition-agnostic.
type Sharded struct {
	backends []Backend
	router   *route.Router
}

// NewSharded creates a Sharded backend over backends, in order. The order
// is part of the routing function: reordering backends moves keys.
func NewSharded(backends []Backend, opts ...route.Option) (*Sharded, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}
	for i, b := range backends {
		if b == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilBackend, i)
		}
	}
	router, err := route.NewRouter(len(backends), opts...)
	if err != nil {
		return nil, err
	}
	return &Sharded{backends: backends, router: router}, nil
}

// Shard returns the index of the backend that owns key.
func (s *Sharded) Shard(key string) int {
	return s.router.Bucket(key)
}

// Backends returns the backends in routing order.
func (s *Sharded) Backends() []Backend {
	return s.backends
}

// Router returns the router used to pick backends.
func (s *Sharded) Router() *route.Router {
	return s.router
}

func (s *Sharded) backend(key string) Backend {
	return s.backends[s.router.Bucket(key)]
}

// Get reads key from its owning backend.
func (s *Sharded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.backend(key).Get(ctx, key)
}

// Set writes key to its owning backend.
func (s *Sharded) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.backend(key).Set(ctx, key, data, ttl)
}

// Delete removes key from its owning backend.
func (s *Sharded) Delete(ctx context.Context, key string) error {
	return s.backend(key).Delete(ctx, key)
}

// Ping pings every backend concurrently and joins the failures.
func (s *Sharded) Ping(ctx context.Context) error {
	errs := make([]error, len(s.backends))

	var g errgroup.Group
	for i, b := range s.backends {
		g.Go(func() error {
			if err := b.Ping(ctx); err != nil {
				errs[i] = fmt.Errorf("shard %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

var _ Backend = (*Sharded)(nil)
