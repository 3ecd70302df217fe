package auth_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/tiercache/auth"
)

func ExampleChain() {
	store := auth.NewMemoryAPIKeyStore()
	store.Add("deploy", "s3cret", "deploy-bot", "cache:write")

	jwtAuth, _ := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte("hmac-secret")})
	chain := auth.Chain{jwtAuth, auth.NewAPIKeyAuthenticator(store)}

	headers := http.Header{}
	headers.Set(auth.APIKeyHeader, "s3cret")
	result, _ := chain.Authenticate(context.Background(), &auth.AuthRequest{Headers: headers})

	fmt.Println(result.Authenticated, result.Identity.Principal, result.Identity.HasRole("cache:write"))
	// Output: true deploy-bot true
}
