package auth

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"idv-gateway/pkg/requestcontext"
)

// TokenClaims carries the authorization claims extracted from a session token.
type TokenClaims struct {
	UserID      string
	Status      string
	KYCVerified bool
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// account id in the request context. allowedStatuses, when non-empty, limits
// access to accounts in one of the given statuses.
func RequireAuth(validator TokenValidator, logger *slog.Logger, allowedStatuses ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			if len(allowedStatuses) > 0 && !slices.Contains(allowedStatuses, claims.Status) {
				logger.WarnContext(ctx, "forbidden - account status not allowed",
					"request_id", requestID,
					"status", claims.Status,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Account status does not permit this operation"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, claims.UserID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
