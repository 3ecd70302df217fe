// Package remote provides implementations of the cache.Remote contract.
//
//   - Memory: an in-process store with lazy expiry, for tests and single
//     node deployments.
//   - Redis: a store backed by a go-redis UniversalClient.
//   - Sharded: splits the key space across N backends with jump consistent
//     hashing, so growing from N to N+1 backends moves about 1/(N+1) of
//     the keys.
//   - Guarded: wraps one backend with a resilience.Executor and classifies
//     its failures as cache.ErrRemoteTimeout or cache.ErrRemoteUnavailable.
//
// Every implementation also satisfies Backend, which adds Ping for health
// checks.
package remote
