// Package auth authenticates callers of the mutating cache endpoints.
//
// Two authenticators are provided: JWTAuthenticator validates HMAC-signed
// bearer tokens and APIKeyAuthenticator looks up hashed keys sent in the
// X-API-Key header. Chain tries several in order. Middleware wraps an
// http.Handler, rejects unauthenticated requests with 401 and stores the
// Identity in the request context; RequireRole adds a 403 check on top.
package auth
