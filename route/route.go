package route

import "fmt"

// Route returns the bucket for key among buckets using the unseeded hasher.
func Route(key string, buckets int) (int, error) {
	return Jump(Sum64String(key), buckets)
}

// Option configures a Router.
type Option func(*Router)

// WithHasher sets the hasher used to digest keys.
func WithHasher(h Hasher) Option {
	return func(r *Router) {
		r.hasher = h
	}
}

// WithSeed digests keys with a seeded hasher.
func WithSeed(seed uint64) Option {
	return func(r *Router) {
		r.hasher = NewHasher(seed)
	}
}

// Router assigns keys to a fixed number of buckets.
//
// Contract:
// - Concurrency: Router is immutable after construction and safe for concurrent use.
// - Errors: the bucket count is validated once, so Bucket never fails.
type Router struct {
	hasher  Hasher
	buckets int
}

// NewRouter creates a Router over buckets buckets.
func NewRouter(buckets int, opts ...Option) (*Router, error) {
	if buckets < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBucketCount, buckets)
	}
	r := &Router{buckets: buckets}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustRouter is like NewRouter but panics on an invalid bucket count.
func MustRouter(buckets int, opts ...Option) *Router {
	r, err := NewRouter(buckets, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Bucket returns the bucket index for key.
func (r *Router) Bucket(key string) int {
	return jump(r.hasher.Sum64String(key), r.buckets)
}

// Digest returns the digest used to route key.
func (r *Router) Digest(key string) uint64 {
	return r.hasher.Sum64String(key)
}

// Buckets returns the configured bucket count.
func (r *Router) Buckets() int {
	return r.buckets
}
