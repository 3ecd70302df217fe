package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-with-enough-entropy")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func bearer(token string) *AuthRequest {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return &AuthRequest{Headers: h}
}

func TestNewJWTAuthenticator_RequiresSecret(t *testing.T) {
	if _, err := NewJWTAuthenticator(JWTConfig{}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("error = %v, want ErrMissingSecret", err)
	}
}

func TestJWTAuthenticator_Authenticate(t *testing.T) {
	a, err := NewJWTAuthenticator(JWTConfig{Secret: testSecret, Issuer: "tiercache", Audience: "admin"})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	valid := jwt.MapClaims{"sub": "ops", "iss": "tiercache", "aud": "admin", "exp": future, "roles": []string{"cache:write"}}

	tests := []struct {
		name    string
		token   string
		wantOK  bool
		wantErr error
	}{
		{name: "valid", token: signToken(t, jwt.SigningMethodHS256, testSecret, valid), wantOK: true},
		{
			name:    "expired",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "tiercache", "aud": "admin", "exp": past}),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "wrong issuer",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "other", "aud": "admin", "exp": future}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong audience",
			token:   signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "tiercache", "aud": "public", "exp": future}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong secret",
			token:   signToken(t, jwt.SigningMethodHS256, []byte("another-secret"), valid),
			wantErr: ErrInvalidCredentials,
		},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrTokenMalformed},
		{name: "empty", token: "", wantErr: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Authenticate(context.Background(), bearer(tt.token))
			if err != nil {
				t.Fatalf("internal error: %v", err)
			}
			if result.Authenticated != tt.wantOK {
				t.Fatalf("Authenticated = %v, want %v (%v)", result.Authenticated, tt.wantOK, result.Error)
			}
			if !tt.wantOK && !errors.Is(result.Error, tt.wantErr) {
				t.Errorf("Error = %v, want %v", result.Error, tt.wantErr)
			}
		})
	}
}

func TestJWTAuthenticator_Identity(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret})
	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub":   "ops",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": []string{"cache:write", "cache:read"},
	})

	result, _ := a.Authenticate(context.Background(), bearer(token))
	if !result.Authenticated {
		t.Fatalf("expected success: %v", result.Error)
	}
	id := result.Identity
	if id.Principal != "ops" || id.Method != AuthMethodJWT {
		t.Errorf("identity = %+v", id)
	}
	if !id.HasRole("cache:write") || id.HasRole("admin") {
		t.Errorf("roles = %v", id.Roles)
	}
	if id.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be set from exp")
	}
}

func TestJWTAuthenticator_RejectsNoneAlg(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret})
	token := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "x"})

	result, _ := a.Authenticate(context.Background(), bearer(token))
	if result.Authenticated {
		t.Error("alg=none must be rejected")
	}
}

func TestJWTAuthenticator_Supports(t *testing.T) {
	a, _ := NewJWTAuthenticator(JWTConfig{Secret: testSecret})
	if !a.Supports(bearer("x")) {
		t.Error("bearer header should be supported")
	}
	if a.Supports(&AuthRequest{Headers: http.Header{}}) {
		t.Error("missing header should not be supported")
	}
}
