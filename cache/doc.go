// Package cache composes three cache tiers into one read-through,
// write-through cache with promotion.
//
// The tiers, fastest first:
//
//   - Scope: an ephemeral, per-request map owned by exactly one caller.
//   - Local: a process-wide, sharded, TTL-bound store that only holds
//     classified keys (see Policy).
//   - Remote: a distributed store reached through the Remote interface.
//
// A Tiered value wires the three together. Reads probe the tiers in order
// and promote a hit into every faster tier the key is eligible for. Writes
// go to every eligible tier, fastest first, and the remote write is the
// only one that can fail.
//
// Remote failures on the read path degrade to a miss; the caller computes
// the value and usually writes it back. Remote failures on the write path
// are returned, classified as ErrRemoteUnavailable or ErrRemoteTimeout.
package cache
