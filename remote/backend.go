package remote

import (
	"context"

	"github.com/jonwraymond/tiercache/cache"
)

// Backend is a remote tier that can report its own reachability.
type Backend interface {
	cache.Remote

	// Ping returns nil when the backend is reachable.
	Ping(ctx context.Context) error
}
