package auth

import (
	"net/http"

	"github.com/jonwraymond/tiercache/observe"
)

// Middleware authenticates every request with authn. Requests without
// valid credentials get 401; internal authenticator errors get 500.
// The identity is stored in the request context.
func Middleware(authn Authenticator, logger observe.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observe.NoopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &AuthRequest{Headers: r.Header, Resource: r.URL.Path}

			if !authn.Supports(req) {
				unauthorized(w, ErrMissingCredentials)
				return
			}

			result, err := authn.Authenticate(r.Context(), req)
			if err != nil {
				logger.Error(r.Context(), "authentication error", observe.Field{Key: "error", Value: err.Error()})
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !result.Authenticated {
				logger.Info(r.Context(), "authentication failed",
					observe.Field{Key: "method", Value: result.Method},
					observe.Field{Key: "error", Value: result.Error.Error()},
				)
				unauthorized(w, result.Error)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), result.Identity)))
		})
	}
}

// RequireRole rejects authenticated requests whose identity lacks role
// with 403. It must run after Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil || !id.HasRole(role) {
				http.Error(w, ErrForbidden.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tiercache"`)
	http.Error(w, err.Error(), http.StatusUnauthorized)
}
