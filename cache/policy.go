package cache

import (
	"slices"
	"strings"
	"time"
)

// DefaultLocalTTL is the lifetime of entries promoted into the local tier.
const DefaultLocalTTL = 10 * time.Minute

// Policy decides which keys are eligible for the local tier and how long
// entries live in the local and remote tiers.
type Policy struct {
	// StaticPrefixes classifies keys for the local tier. A key is classified
	// when it starts with any of these prefixes (byte-wise, case-sensitive).
	StaticPrefixes []string

	// LocalTTL is the fixed TTL used for every local-tier write.
	// If zero, the local tier is never written.
	LocalTTL time.Duration

	// DefaultTTL is the remote TTL to use when none is specified.
	// If zero, remote entries do not expire.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed remote TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns a policy with the given static prefixes.
// LocalTTL: 10 minutes, DefaultTTL: 1 hour, MaxTTL: 24 hours
func DefaultPolicy(prefixes ...string) Policy {
	return Policy{
		StaticPrefixes: prefixes,
		LocalTTL:       DefaultLocalTTL,
		DefaultTTL:     time.Hour,
		MaxTTL:         24 * time.Hour,
	}
}

// IsClassified reports whether key is eligible for the local tier.
func (p Policy) IsClassified(key string) bool {
	for _, prefix := range p.StaticPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// EffectiveTTL returns the remote TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

func (p Policy) clone() Policy {
	p.StaticPrefixes = slices.Clone(p.StaticPrefixes)
	return p
}
