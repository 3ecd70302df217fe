// Package resilience guards calls to remote cache backends.
//
// It provides a circuit breaker, retry with backoff, a token bucket rate
// limiter, a bulkhead and a per-attempt timeout. Each can be used on its
// own or composed with an Executor:
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 10 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2})),
//	    resilience.WithTimeout(250*time.Millisecond),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return client.Ping(ctx).Err()
//	})
//
// Retry delays come from github.com/cenkalti/backoff/v5 and rate limiting
// from golang.org/x/time/rate. Errors produced by a guard rather than the
// operation satisfy IsRejection.
package resilience
