package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/tiercache/auth"
	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/remote"
	"github.com/jonwraymond/tiercache/resilience"
	"github.com/jonwraymond/tiercache/route"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TIERCACHE_"

// Remote backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ValidBackends lists the supported remote backends.
var ValidBackends = []string{BackendMemory, BackendRedis}

// Config is the complete service configuration.
type Config struct {
	Service ServiceConfig  `yaml:"service" env:", prefix=SERVICE_"`
	HTTP    HTTPConfig     `yaml:"http" env:", prefix=HTTP_"`
	Cache   CacheConfig    `yaml:"cache" env:", prefix=CACHE_"`
	Remote  RemoteConfig   `yaml:"remote" env:", prefix=REMOTE_"`
	Observe observe.Config `yaml:"observe" env:", prefix=OBSERVE_"`
	Auth    AuthConfig     `yaml:"auth" env:", prefix=AUTH_"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `yaml:"name" env:"NAME, overwrite"`
	Version string `yaml:"version" env:"VERSION, overwrite"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR, overwrite"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT, overwrite"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT, overwrite"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT, overwrite"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT, overwrite"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT, overwrite"`
}

// CacheConfig configures the tier policy and the local tier.
type CacheConfig struct {
	StaticPrefixes  []string      `yaml:"static_prefixes" env:"STATIC_PREFIXES, overwrite"`
	LocalTTL        time.Duration `yaml:"local_ttl" env:"LOCAL_TTL, overwrite"`
	DefaultTTL      time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL, overwrite"`
	MaxTTL          time.Duration `yaml:"max_ttl" env:"MAX_TTL, overwrite"`
	LocalMaxEntries int           `yaml:"local_max_entries" env:"LOCAL_MAX_ENTRIES, overwrite"`
	LocalShards     int           `yaml:"local_shards" env:"LOCAL_SHARDS, overwrite"`
	JanitorInterval time.Duration `yaml:"janitor_interval" env:"JANITOR_INTERVAL, overwrite"` // 0 disables
	Coalesce        bool          `yaml:"coalesce" env:"COALESCE, overwrite"`
}

// Policy returns the tier policy.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{
		StaticPrefixes: slices.Clone(c.StaticPrefixes),
		LocalTTL:       c.LocalTTL,
		DefaultTTL:     c.DefaultTTL,
		MaxTTL:         c.MaxTTL,
	}
}

// LocalConfig returns the local tier configuration.
func (c CacheConfig) LocalConfig() cache.LocalConfig {
	return cache.LocalConfig{MaxEntries: c.LocalMaxEntries, Shards: c.LocalShards}
}

// RemoteConfig configures the remote tier. Each backend is one bucket of
// the jump hash router.
type RemoteConfig struct {
	Backend string `yaml:"backend" env:"BACKEND, overwrite"` // memory|redis

	// URLs lists one redis URL per bucket. Order is significant: bucket i
	// is URLs[i], and appending a URL moves only the keys the new bucket
	// takes over.
	URLs []string `yaml:"urls" env:"URLS, overwrite"`

	// Shards is the bucket count of the memory backend.
	Shards int `yaml:"shards" env:"SHARDS, overwrite"`

	// Seed perturbs the routing hash. All instances must agree on it.
	Seed uint64 `yaml:"seed" env:"SEED, overwrite"`

	KeyPrefix    string        `yaml:"key_prefix" env:"KEY_PREFIX, overwrite"`
	PoolSize     int           `yaml:"pool_size" env:"POOL_SIZE, overwrite"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS, overwrite"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT, overwrite"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT, overwrite"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT, overwrite"`

	// Timeout bounds each remote attempt.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT, overwrite"`

	Retry         RetryConfig   `yaml:"retry" env:", prefix=RETRY_"`
	Circuit       CircuitConfig `yaml:"circuit" env:", prefix=CIRCUIT_"`
	RateLimit     float64       `yaml:"rate_limit" env:"RATE_LIMIT, overwrite"` // ops/s per backend, 0 disables
	RateBurst     int           `yaml:"rate_burst" env:"RATE_BURST, overwrite"`
	MaxConcurrent int           `yaml:"max_concurrent" env:"MAX_CONCURRENT, overwrite"` // per backend, 0 disables
}

// RetryConfig configures remote retries. MaxAttempts of 1 disables them.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"MAX_ATTEMPTS, overwrite"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY, overwrite"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY, overwrite"`
}

// CircuitConfig configures the per-backend circuit breaker. MaxFailures of
// 0 disables it.
type CircuitConfig struct {
	MaxFailures  int           `yaml:"max_failures" env:"MAX_FAILURES, overwrite"`
	ResetTimeout time.Duration `yaml:"reset_timeout" env:"RESET_TIMEOUT, overwrite"`
}

// Buckets returns the number of remote backends.
func (c RemoteConfig) Buckets() int {
	if c.Backend == BackendRedis {
		return len(c.URLs)
	}
	return c.Shards
}

// RouteOptions returns the router options shared by every instance.
func (c RemoteConfig) RouteOptions() []route.Option {
	return []route.Option{route.WithSeed(c.Seed)}
}

// ConnOptions returns the redis connection options.
func (c RemoteConfig) ConnOptions() []remote.ConnOption {
	opts := []remote.ConnOption{remote.WithTimeouts(c.DialTimeout, c.ReadTimeout, c.WriteTimeout)}
	if c.PoolSize > 0 {
		opts = append(opts, remote.WithPoolSize(c.PoolSize))
	}
	if c.MinIdleConns > 0 {
		opts = append(opts, remote.WithMinIdleConns(c.MinIdleConns))
	}
	return opts
}

// Executor builds the resilience executor guarding one backend. Each
// backend needs its own executor so that one failing bucket does not trip
// the breaker of the others.
func (c RemoteConfig) Executor() *resilience.Executor {
	var opts []resilience.ExecutorOption
	if c.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(c.Timeout))
	}
	if c.Retry.MaxAttempts > 1 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Jitter:       true,
			RetryIf:      resilience.IsBackendFailure,
		})))
	}
	if c.Circuit.MaxFailures > 0 {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  c.Circuit.MaxFailures,
			ResetTimeout: c.Circuit.ResetTimeout,
			IsFailure:    resilience.IsBackendFailure,
		})))
	}
	if c.RateLimit > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  c.RateLimit,
			Burst: c.RateBurst,
		})))
	}
	if c.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: c.MaxConcurrent,
		})))
	}
	return resilience.NewExecutor(opts...)
}

// AuthConfig configures authentication of mutating endpoints.
type AuthConfig struct {
	Enabled   bool           `yaml:"enabled" env:"ENABLED, overwrite"`
	WriteRole string         `yaml:"write_role" env:"WRITE_ROLE, overwrite"`
	JWT       JWTConfig      `yaml:"jwt" env:", prefix=JWT_"`
	APIKeys   []APIKeyConfig `yaml:"api_keys"`
}

// JWTConfig configures HMAC bearer tokens. An empty secret disables JWT.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET, overwrite"`
	Issuer     string        `yaml:"issuer" env:"ISSUER, overwrite"`
	Audience   string        `yaml:"audience" env:"AUDIENCE, overwrite"`
	RolesClaim string        `yaml:"roles_claim" env:"ROLES_CLAIM, overwrite"`
	Leeway     time.Duration `yaml:"leeway" env:"LEEWAY, overwrite"`
}

// APIKeyConfig registers one API key.
type APIKeyConfig struct {
	ID        string   `yaml:"id"`
	Key       string   `yaml:"key"`
	Principal string   `yaml:"principal"`
	Roles     []string `yaml:"roles"`
}

// Authenticator builds the authenticator chain: JWT first when a secret
// is configured, then API keys when any are registered.
func (c AuthConfig) Authenticator() (auth.Authenticator, error) {
	var chain auth.Chain
	if c.JWT.Secret != "" {
		jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:     []byte(c.JWT.Secret),
			Issuer:     c.JWT.Issuer,
			Audience:   c.JWT.Audience,
			RolesClaim: c.JWT.RolesClaim,
			Leeway:     c.JWT.Leeway,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, jwtAuth)
	}
	if len(c.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for _, k := range c.APIKeys {
			store.Add(k.ID, k.Key, k.Principal, k.Roles...)
		}
		chain = append(chain, auth.NewAPIKeyAuthenticator(store))
	}
	if len(chain) == 0 {
		return nil, ErrNoAuthMethod
	}
	return chain, nil
}

// Default returns the built-in configuration: a single in-process memory
// bucket, local tier for "static:" and "weather:" keys, JSON logs at info.
func Default() Config {
	policy := cache.DefaultPolicy("static:", "weather:")
	return Config{
		Service: ServiceConfig{Name: "tiercache", Version: "dev"},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Cache: CacheConfig{
			StaticPrefixes:  policy.StaticPrefixes,
			LocalTTL:        policy.LocalTTL,
			DefaultTTL:      policy.DefaultTTL,
			MaxTTL:          policy.MaxTTL,
			LocalMaxEntries: cache.DefaultMaxEntries,
			LocalShards:     cache.DefaultShards,
			JanitorInterval: time.Minute,
		},
		Remote: RemoteConfig{
			Backend:      BackendMemory,
			Shards:       1,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			Timeout:      500 * time.Millisecond,
			Retry: RetryConfig{
				MaxAttempts:  2,
				InitialDelay: 25 * time.Millisecond,
				MaxDelay:     250 * time.Millisecond,
			},
			Circuit: CircuitConfig{MaxFailures: 5, ResetTimeout: 30 * time.Second},
		},
		Observe: observe.Config{
			Tracing: observe.TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics: observe.MetricsConfig{Exporter: "none"},
			Logging: observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Auth: AuthConfig{WriteRole: "cache:write", JWT: JWTConfig{RolesClaim: "roles"}},
	}
}

// ObserveConfig returns the telemetry configuration with the service
// identity filled in.
func (c *Config) ObserveConfig() observe.Config {
	oc := c.Observe
	if oc.ServiceName == "" {
		oc.ServiceName = c.Service.Name
	}
	if oc.Version == "" {
		oc.Version = c.Service.Version
	}
	return oc
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}
	if c.HTTP.Addr == "" {
		return ErrMissingAddr
	}

	for name, d := range map[string]time.Duration{
		"cache.local_ttl":        c.Cache.LocalTTL,
		"cache.default_ttl":      c.Cache.DefaultTTL,
		"cache.max_ttl":          c.Cache.MaxTTL,
		"cache.janitor_interval": c.Cache.JanitorInterval,
		"remote.timeout":         c.Remote.Timeout,
		"http.shutdown_timeout":  c.HTTP.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s = %s", ErrNegativeDuration, name, d)
		}
	}
	if c.Cache.LocalMaxEntries < 0 || c.Cache.LocalShards < 0 {
		return fmt.Errorf("%w: cache local tier", ErrNegativeSize)
	}

	if !slices.Contains(ValidBackends, c.Remote.Backend) {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Remote.Backend)
	}
	if c.Remote.Buckets() < 1 {
		return fmt.Errorf("config: remote %s: %w", c.Remote.Backend, route.ErrInvalidBucketCount)
	}

	oc := c.ObserveConfig()
	if err := oc.Validate(); err != nil {
		return err
	}

	if c.Auth.Enabled {
		if c.Auth.JWT.Secret == "" && len(c.Auth.APIKeys) == 0 {
			return ErrNoAuthMethod
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" || k.Principal == "" {
				return fmt.Errorf("%w: api_keys[%d]", ErrInvalidAPIKey, i)
			}
		}
	}
	return nil
}
