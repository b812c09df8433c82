package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// OperatorKey is the context key for the resolved operator name
	OperatorKey contextKey = "operator"
	// ClientIPKey is the context key for the client IP address
	ClientIPKey contextKey = "client_ip"
)

// OperatorAuthMiddleware resolves the operator from the client IP and
// rejects requests from unmapped addresses. Destructive endpoints (merge)
// sit behind it so every change has an accountable operator.
type OperatorAuthMiddleware struct {
	resolver *OperatorResolver
}

func NewOperatorAuthMiddleware(resolver *OperatorResolver) *OperatorAuthMiddleware {
	return &OperatorAuthMiddleware{resolver: resolver}
}

// Handler wraps an HTTP handler with operator authentication.
func (m *OperatorAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := m.resolver.GetClientIP(r)

		if !m.resolver.IsLoaded() {
			writeUnauthorized(w, clientIP)
			return
		}

		operator, found := m.resolver.GetOperator(r)
		if !found {
			writeUnauthorized(w, clientIP)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorKey, operator)
		ctx = context.WithValue(ctx, ClientIPKey, clientIP)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, ip string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     "operator not authorized",
		"client_ip": ip,
	})
}

// GetOperatorFromContext retrieves the operator name from the request context.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(OperatorKey).(string)
	return op, ok
}

// GetClientIPFromContext retrieves the client IP from the request context.
func GetClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(ClientIPKey).(string)
	return ip, ok
}
