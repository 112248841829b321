package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/config"
)

// Context keys for caller information
type contextKey string

const PrincipalKey contextKey = "principal"

// Authenticate validates the caller's API key or bearer token and adds the
// principal to the context. With no credentials configured the connector
// runs open, for deployments on a trusted host.
func Authenticate(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	open := cfg.APIKeyHash == "" && cfg.JWTSecret == ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open {
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), "anonymous")))
				return
			}

			// Dedicated key header first
			if key := r.Header.Get("X-Api-Key"); key != "" {
				if apiKeyMatches(cfg.APIKeyHash, key) {
					next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), "api-key")))
					return
				}
				http.Error(w, `{"error":"Invalid API key"}`, http.StatusUnauthorized)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"Authorization header required"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, `{"error":"Bearer token required"}`, http.StatusUnauthorized)
				return
			}
			token := parts[1]

			// A dotted token is a JWT; anything else is treated as a raw key
			if cfg.JWTSecret != "" && strings.Contains(token, ".") {
				principal, err := validateJWT(token, cfg.JWTSecret)
				if err != nil {
					http.Error(w, `{"error":"Invalid or expired token"}`, http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
				return
			}

			if apiKeyMatches(cfg.APIKeyHash, token) {
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), "api-key")))
				return
			}

			http.Error(w, `{"error":"Invalid or missing credentials"}`, http.StatusUnauthorized)
		})
	}
}

func apiKeyMatches(hash, key string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

func validateJWT(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("token has no subject")
	}

	return sub, nil
}

func withPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipal extracts the authenticated caller identity from context
func GetPrincipal(ctx context.Context) string {
	if p, ok := ctx.Value(PrincipalKey).(string); ok {
		return p
	}
	return "unknown"
}
