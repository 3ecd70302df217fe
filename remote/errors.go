package remote

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("remote: empty connection URL")
	ErrFailedToParseURL   = errors.New("remote: failed to parse connection URL")
	ErrConnectionFailed   = errors.New("remote: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("remote: healthcheck failed")
	ErrNoBackends         = errors.New("remote: at least one backend is required")
	ErrNilBackend         = errors.New("remote: backend is nil")
)
