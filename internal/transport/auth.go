package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// StaticToken accepts exactly one shared token.
type StaticToken string

func (s StaticToken) Verify(_ context.Context, token string) error {
	if s == "" || subtle.ConstantTimeCompare([]byte(s), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(auth, "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorizedCode, "missing bearer token", nil)
				return
			}

			if err := verifier.Verify(r.Context(), token); err != nil {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorizedCode, "invalid bearer token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
