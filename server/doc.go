// Package server exposes a cache.Tiered over HTTP.
//
// Routes:
//
//	GET    /weather/{id}         read-through demo endpoint
//	GET    /cache/{key}          raw JSON value, 404 on miss
//	PUT    /cache/{key}?ttl=...  store the JSON body (authenticated)
//	DELETE /cache/{key}          invalidate (authenticated)
//	GET    /route?key=&buckets=  jump hash bucket of key
//	GET    /healthz /readyz /health
//	GET    /metrics              when a Prometheus handler is configured
//
// Every request carries a fresh cache.Scope, so repeated reads of one key
// within a request hit the remote tier at most once.
package server
