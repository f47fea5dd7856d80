package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/bankcore/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// CustomerContextKey is the context key for the authenticated customer ID
	CustomerContextKey ContextKey = "customer_id"
)

// AuthMiddleware creates an authentication middleware that requires a
// valid bearer token and stashes the customer ID in the request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CustomerContextKey, claims.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCustomerID extracts the authenticated customer ID from context.
func GetCustomerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CustomerContextKey).(string)
	return id, ok && id != ""
}
