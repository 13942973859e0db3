package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const claimsKey contextKey = "refresh-auth-claims"

// WithClaims stores claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext retrieves claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireScope wraps next so it only runs for bearer tokens carrying scope.
// When cfg is not enabled next is returned unchanged.
func RequireScope(cfg Config, scope string, next http.Handler) http.Handler {
	if !cfg.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := parseRequest(r, cfg)
		if err != nil {
			deny(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		if !claims.HasScope(scope) {
			deny(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func parseRequest(r *http.Request, cfg Config) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	claims, err := Parse(header[len("Bearer "):], cfg)
	if err != nil {
		// token details stay out of the response
		if errors.Is(err, ErrMissingToken) {
			return nil, err
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func deny(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"type": code, "detail": detail})
}
