package config

import "errors"

var (
	// ErrMissingServiceName indicates service.name is empty.
	ErrMissingServiceName = errors.New("config: service name is required")

	// ErrMissingAddr indicates http.addr is empty.
	ErrMissingAddr = errors.New("config: http address is required")

	// ErrNegativeDuration indicates a TTL or timeout below zero.
	ErrNegativeDuration = errors.New("config: duration must not be negative")

	// ErrNegativeSize indicates a size or count below zero.
	ErrNegativeSize = errors.New("config: size must not be negative")

	// ErrUnknownBackend indicates remote.backend is not a supported backend.
	ErrUnknownBackend = errors.New("config: unknown remote backend")

	// ErrNoAuthMethod indicates auth is enabled without a JWT secret or API key.
	ErrNoAuthMethod = errors.New("config: auth enabled without a jwt secret or api key")

	// ErrInvalidAPIKey indicates an API key entry without a key or principal.
	ErrInvalidAPIKey = errors.New("config: api key requires key and principal")

	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")
)
