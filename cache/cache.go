package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey        = errors.New("cache: key is invalid")
	ErrKeyTooLong        = errors.New("cache: key exceeds max length")
	ErrTypeMismatch      = errors.New("cache: stored value has a different type")
	ErrEncode            = errors.New("cache: value could not be encoded")
	ErrRemoteUnavailable = errors.New("cache: remote tier unavailable")
	ErrRemoteTimeout     = errors.New("cache: remote tier timed out")
	ErrNilLocal          = errors.New("cache: local tier is nil")
	ErrNilRemote         = errors.New("cache: remote tier is nil")
)

// Remote is the contract for the distributed backing tier.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: all methods block on I/O and must honor cancellation/deadlines.
// - Errors: an absent key is (nil, false, nil), never an error.
type Remote interface {
	// Get retrieves the encoded value stored under key.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Set stores data under key. TTL=0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// Codec converts values to and from the bytes held by the remote tier.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes values with encoding/json.
type JSONCodec struct{}

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d > %d", ErrKeyTooLong, len(key), MaxKeyLength)
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
