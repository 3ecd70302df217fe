package route

import "github.com/cespare/xxhash/v2"

// Hasher produces 64-bit digests of keys.
//
// Contract:
// - Determinism: the same input always yields the same digest for a given seed,
//   across calls and process restarts.
// - Concurrency: Hasher is an immutable value and safe for concurrent use.
type Hasher struct {
	seed uint64
}

// NewHasher returns a Hasher using seed. A zero seed selects the canonical
// unseeded xxHash64 digest.
func NewHasher(seed uint64) Hasher {
	return Hasher{seed: seed}
}

// Seed returns the configured seed.
func (h Hasher) Seed() uint64 {
	return h.seed
}

// Sum64 returns the digest of b. The empty input is valid.
func (h Hasher) Sum64(b []byte) uint64 {
	if h.seed == 0 {
		return xxhash.Sum64(b)
	}
	d := xxhash.NewWithSeed(h.seed)
	_, _ = d.Write(b)
	return d.Sum64()
}

// Sum64String returns the digest of s without copying it.
func (h Hasher) Sum64String(s string) uint64 {
	if h.seed == 0 {
		return xxhash.Sum64String(s)
	}
	d := xxhash.NewWithSeed(h.seed)
	_, _ = d.WriteString(s)
	return d.Sum64()
}

// Sum64String returns the unseeded digest of s.
func Sum64String(s string) uint64 {
	return xxhash.Sum64String(s)
}
