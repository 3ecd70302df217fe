package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tiercache/observe"
)

// Tiered orchestrates the request, local and remote tiers.
//
// Contract:
// - Concurrency: safe for concurrent use; each Scope must be used by one caller.
// - Context: only remote calls block, and they receive the caller's context.
// - Errors: Get never errors; Set and Delete return remote failures.
type Tiered struct {
	local    *Local
	remote   Remote
	policy   Policy
	codec    Codec
	obs      *observe.Middleware
	coalesce bool
	flight   singleflight.Group
}

// Option configures a Tiered cache.
type Option func(*Tiered)

// WithCodec sets the codec used for the remote tier. Defaults to JSONCodec.
func WithCodec(c Codec) Option {
	return func(t *Tiered) {
		if c != nil {
			t.codec = c
		}
	}
}

// WithObserver wraps every operation with tracing, metrics and logging.
func WithObserver(mw *observe.Middleware) Option {
	return func(t *Tiered) {
		if mw != nil {
			t.obs = mw
		}
	}
}

// WithCoalescing shares one in-flight remote read per key between
// concurrent callers. Each caller still stops waiting when its own
// context ends.
//
// The shared read runs detached from every caller's cancellation and
// deadline, so it is bounded only by the remote's own timeout. Wrap the
// remote in remote.Guarded with a resilience timeout, or give the client
// its own read timeout, before enabling this.
func WithCoalescing() Option {
	return func(t *Tiered) {
		t.coalesce = true
	}
}

// New creates a Tiered cache. The policy is copied.
func New(local *Local, remote Remote, policy Policy, opts ...Option) (*Tiered, error) {
	if local == nil {
		return nil, ErrNilLocal
	}
	if remote == nil {
		return nil, ErrNilRemote
	}
	t := &Tiered{
		local:  local,
		remote: remote,
		policy: policy.clone(),
		codec:  JSONCodec{},
		obs:    observe.NoopMiddleware(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Policy returns a copy of the tier policy.
func (t *Tiered) Policy() Policy {
	return t.policy.clone()
}

// Local returns the local tier.
func (t *Tiered) Local() *Local {
	return t.local
}

// Remote returns the remote tier.
func (t *Tiered) Remote() Remote {
	return t.remote
}

func (t *Tiered) meta(op, key string) observe.OpMeta {
	return observe.OpMeta{Op: op, Key: key, Classified: t.policy.IsClassified(key)}
}

// Get returns the value stored under key, probing the scope, then the
// local tier for classified keys, then the remote tier. A hit is promoted
// into every faster tier the key is eligible for. A nil scope behaves as a
// fresh single-use scope.
//
// Remote failures, cancellation and values that cannot be produced as a T
// are reported as a miss.
func Get[T any](ctx context.Context, t *Tiered, scope *Scope, key string) (T, bool) {
	var (
		value T
		found bool
	)
	if ValidateKey(key) != nil {
		return value, false
	}
	if scope == nil {
		scope = NewScope()
	}
	meta := t.meta(observe.OpGet, key)

	_ = t.obs.Observe(ctx, meta, func(ctx context.Context) (string, error) {
		if v, ok := ScopeValue[T](scope, key); ok {
			value, found = v, true
			return observe.OutcomeRequest, nil
		}

		if meta.Classified {
			if v, ok := LocalValue[T](t.local, key); ok {
				scope.Set(key, v)
				value, found = v, true
				return observe.OutcomeLocal, nil
			}
		}

		data, ok, err := t.remoteGet(ctx, key)
		if err != nil {
			return observe.OutcomeMiss, err
		}
		if !ok {
			return observe.OutcomeMiss, nil
		}

		var v T
		if err := t.codec.Unmarshal(data, &v); err != nil {
			return observe.OutcomeMiss, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
		}

		scope.Set(key, v)
		if meta.Classified {
			t.local.Set(key, v, t.policy.LocalTTL)
		}
		value, found = v, true
		return observe.OutcomeRemote, nil
	})

	return value, found
}

// Set stores value under key in the scope, in the local tier if the key is
// classified, and in the remote tier with the policy's effective TTL.
// TTL<=0 means the policy default.
//
// The faster tiers are written before the remote write is confirmed and are
// not rolled back if it fails.
func Set[T any](ctx context.Context, t *Tiered, scope *Scope, key string, value T, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	meta := t.meta(observe.OpSet, key)

	return t.obs.Observe(ctx, meta, func(ctx context.Context) (string, error) {
		data, err := t.codec.Marshal(value)
		if err != nil {
			return observe.OutcomeFailed, fmt.Errorf("%w: %w", ErrEncode, err)
		}

		if scope != nil {
			scope.Set(key, value)
		}
		if meta.Classified {
			t.local.Set(key, value, t.policy.LocalTTL)
		}

		if err := t.remote.Set(ctx, key, data, t.policy.EffectiveTTL(ttl)); err != nil {
			return observe.OutcomeFailed, fmt.Errorf("cache: set %q: %w", key, classifyRemoteErr(err))
		}
		return observe.OutcomeStored, nil
	})
}

// Delete removes key from every tier.
func (t *Tiered) Delete(ctx context.Context, scope *Scope, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	meta := t.meta(observe.OpDelete, key)

	return t.obs.Observe(ctx, meta, func(ctx context.Context) (string, error) {
		if scope != nil {
			scope.Delete(key)
		}
		t.local.Delete(key)

		if err := t.remote.Delete(ctx, key); err != nil {
			return observe.OutcomeFailed, fmt.Errorf("cache: delete %q: %w", key, classifyRemoteErr(err))
		}
		return observe.OutcomeDeleted, nil
	})
}

type remoteResult struct {
	data  []byte
	found bool
}

func (t *Tiered) remoteGet(ctx context.Context, key string) ([]byte, bool, error) {
	if !t.coalesce {
		data, found, err := t.remote.Get(ctx, key)
		if err != nil {
			return nil, false, classifyRemoteErr(err)
		}
		return data, found, nil
	}

	// The shared call must not be cut short by whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := t.flight.DoChan(key, func() (any, error) {
		data, found, err := t.remote.Get(shared, key)
		return remoteResult{data: data, found: found}, err
	})

	select {
	case <-ctx.Done():
		return nil, false, classifyRemoteErr(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, false, classifyRemoteErr(res.Err)
		}
		r := res.Val.(remoteResult)
		return r.data, r.found, nil
	}
}

func classifyRemoteErr(err error) error {
	switch {
	case errors.Is(err, ErrRemoteTimeout), errors.Is(err, ErrRemoteUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrRemoteTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
}
