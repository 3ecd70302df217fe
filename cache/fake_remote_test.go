package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errBackendDown = errors.New("backend down")

// fakeRemote is an in-memory Remote that counts calls and can be switched
// into a failing state.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failing atomic.Bool
	gets    atomic.Int64
	sets    atomic.Int64

	// block, when non-nil, holds every Get until it is closed.
	block chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	if f.failing.Load() {
		return nil, false, errBackendDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	f.sets.Add(1)
	if f.failing.Load() {
		return errBackendDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = data
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, key string) error {
	if f.failing.Load() {
		return errBackendDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeRemote) put(key, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = []byte(raw)
}

func (f *fakeRemote) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

var _ Remote = (*fakeRemote)(nil)
