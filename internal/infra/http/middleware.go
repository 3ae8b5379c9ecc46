package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lms-access-billing/internal/infra/logging"
)

type claimsKey struct{}

// requireJWT validates the Bearer token with the shared shop secret (HS256)
// and stashes the claims for handlers. Profile handlers read owner_id from
// the claims, so a token only grants access to its own subject.
func requireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenClaims(ctx context.Context) jwt.MapClaims {
	if c, ok := ctx.Value(claimsKey{}).(jwt.MapClaims); ok {
		return c
	}
	return nil
}

// claimOwnerID returns the owner_id claim, empty when absent.
func claimOwnerID(ctx context.Context) string {
	if c := tokenClaims(ctx); c != nil {
		if v, ok := c["owner_id"].(string); ok {
			return v
		}
	}
	return ""
}

func requestLogger(base *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := uuid.NewString()
			ctx := logging.WithTraceID(r.Context(), traceID)
			start := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			base.Debug().
				Str("trace_id", traceID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		})
	}
}
