// Package observe provides tracing, metrics and structured logging for cache
// operations.
//
// It is a pure instrumentation library: it performs no caching and no I/O
// beyond exporter setup. The cache orchestrator wraps each Get, Set and Delete
// in Middleware.Observe, which records one span, one set of metric points and
// one log line per operation.
package observe
