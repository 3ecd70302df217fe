package cache

import (
	"context"
	"errors"
	"math/bits"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/jonboulle/clockwork"
)

// Local tier defaults.
const (
	DefaultMaxEntries = 10000
	DefaultShards     = 16
)

// ErrInvalidLocalConfig is returned by NewLocal for negative sizes.
var ErrInvalidLocalConfig = errors.New("cache: invalid local tier config")

// LocalConfig configures the local tier.
type LocalConfig struct {
	// MaxEntries bounds the number of live entries across all shards.
	// Zero means DefaultMaxEntries.
	MaxEntries int

	// Shards is rounded up to a power of two. Zero means DefaultShards.
	Shards int

	// Clock is the time source for expiry. Nil means the real clock.
	Clock clockwork.Clock
}

// Local is the process-wide tier. Entries carry an absolute deadline and
// are removed lazily by the first read at or after it; RunJanitor adds
// optional background compaction.
//
// The key space is split into shards selected by the key digest, each with
// its own lock and LRU, so operations on different shards never contend.
// When a shard is full its least recently used entry is evicted.
type Local struct {
	shards     []*localShard
	mask       uint64
	clock      clockwork.Clock
	maxEntries int
}

type localShard struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, localEntry]
}

type localEntry struct {
	value     any
	expiresAt time.Time
}

// NewLocal creates a local tier.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.MaxEntries < 0 || cfg.Shards < 0 {
		return nil, ErrInvalidLocalConfig
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Shards == 0 {
		cfg.Shards = DefaultShards
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	n := 1 << bits.Len(uint(cfg.Shards-1))
	perShard := (cfg.MaxEntries + n - 1) / n

	l := &Local{
		shards:     make([]*localShard, n),
		mask:       uint64(n - 1),
		clock:      cfg.Clock,
		maxEntries: perShard * n,
	}
	for i := range l.shards {
		lru, err := simplelru.NewLRU[string, localEntry](perShard, nil)
		if err != nil {
			return nil, err
		}
		l.shards[i] = &localShard{lru: lru}
	}
	return l, nil
}

func (l *Local) shard(key string) *localShard {
	return l.shards[xxhash.Sum64String(key)&l.mask]
}

// Get returns the value stored under key. Returns (nil, false) on miss or expiry.
func (l *Local) Get(key string) (any, bool) {
	s := l.shard(key)
	now := l.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !now.Before(entry.expiresAt) {
		s.lru.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// LocalValue returns the value stored under key as a T. A value of another
// type is reported as not found.
func LocalValue[T any](l *Local, key string) (T, bool) {
	v, ok := l.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return as[T](v)
}

// Set stores value under key for ttl. TTL<=0 means no caching.
func (l *Local) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s := l.shard(key)
	entry := localEntry{value: value, expiresAt: l.clock.Now().Add(ttl)}

	s.mu.Lock()
	s.lru.Add(key, entry)
	s.mu.Unlock()
}

// Delete removes key. Idempotent.
func (l *Local) Delete(key string) {
	s := l.shard(key)
	s.mu.Lock()
	s.lru.Remove(key)
	s.mu.Unlock()
}

// Len returns the number of stored entries, including expired entries not
// yet collected.
func (l *Local) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += s.lru.Len()
		s.mu.Unlock()
	}
	return n
}

// MaxEntries returns the effective capacity.
func (l *Local) MaxEntries() int {
	return l.maxEntries
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (l *Local) DeleteExpired() int {
	now := l.clock.Now()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for _, key := range s.lru.Keys() {
			if entry, ok := s.lru.Peek(key); ok && !now.Before(entry.expiresAt) {
				s.lru.Remove(key)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// RunJanitor calls DeleteExpired every interval until ctx is done.
func (l *Local) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.DeleteExpired()
		}
	}
}
