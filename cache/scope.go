package cache

import "context"

// Scope is the request tier: an ephemeral map that lives exactly as long
// as the operation that created it. Last write wins and nothing expires.
//
// A Scope is exclusively owned and not safe for concurrent use.
type Scope struct {
	entries map[string]any
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{entries: make(map[string]any)}
}

// Get returns the raw value stored under key.
func (s *Scope) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.entries[key]
	return v, ok
}

// Set stores value under key, replacing any previous value. Set on a nil
// scope is a no-op.
func (s *Scope) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.entries == nil {
		s.entries = make(map[string]any)
	}
	s.entries[key] = value
}

// Delete removes key.
func (s *Scope) Delete(key string) {
	if s == nil {
		return
	}
	delete(s.entries, key)
}

// Len returns the number of entries.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// ScopeValue returns the value stored under key as a T. A value of
// another type is reported as not found.
func ScopeValue[T any](s *Scope, key string) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return as[T](v)
}

type scopeKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope carried by ctx, or nil.
func ScopeFromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

func as[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}
