package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runSecurity(mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lookup", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	SecurityHeaders(next).ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersSet(t *testing.T) {
	rec := runSecurity(nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeadersHSTSBehindTLSProxy(t *testing.T) {
	rec := runSecurity(func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})

	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
