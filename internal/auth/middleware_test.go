package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protected(cfg Config) (http.Handler, *bool) {
	reached := false
	h := RequireScope(cfg, ScopePipelineTrigger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		reached = ok && claims.Subject == "ops"
		w.WriteHeader(http.StatusOK)
	}))
	return h, &reached
}

func TestRequireScopeDisabledPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := RequireScope(Config{}, ScopePipelineTrigger, next)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.True(t, called)
}

func TestRequireScope(t *testing.T) {
	cfg := Config{Secret: secret, Issuer: "ops-portal"}
	valid := jwt.MapClaims{
		"sub":    "ops",
		"iss":    "ops-portal",
		"scopes": []string{ScopePipelineTrigger},
		"exp":    time.Now().Add(time.Hour).Unix(),
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + sign(t, jwt.MapClaims{"sub": "ops", "iss": "x", "scopes": "pipeline:trigger", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": "ops", "iss": "ops-portal", "scopes": "pipeline:trigger", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no scope", "Bearer " + sign(t, jwt.MapClaims{"sub": "ops", "iss": "ops-portal", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusForbidden},
		{"ok", "Bearer " + sign(t, valid), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, reached := protected(cfg)
			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, tc.want, rr.Code, rr.Body.String())
			require.Equal(t, tc.want == http.StatusOK, *reached)
		})
	}
}
