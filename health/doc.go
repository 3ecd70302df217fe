// Package health reports the health of the cache tiers.
//
// A Checker reports one component's Status: Healthy, Degraded or Unhealthy.
// BackendChecker pings a remote backend and inspects its circuit breaker;
// LocalChecker watches how full the local tier is. An Aggregator runs many
// checkers concurrently under a shared deadline and folds their results into
// one overall status.
//
// # HTTP Endpoints
//
//	health.RegisterHandlers(router, agg)
//
// registers /healthz (liveness), /readyz (readiness) and /health (detailed
// JSON).
package health
