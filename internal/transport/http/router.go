// Package httptransport assembles the gateway's HTTP surface. Handlers stay
// in their bounded contexts; this package only mounts them with the right
// middleware stack.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	challengehandler "idv-gateway/internal/challenge/handler"
	"idv-gateway/internal/claims"
	"idv-gateway/internal/ratelimit"
	verificationhandler "idv-gateway/internal/verification/handler"
	"idv-gateway/pkg/platform/httputil"
	auth "idv-gateway/pkg/platform/middleware/auth"
	metadata "idv-gateway/pkg/platform/middleware/metadata"
	requestid "idv-gateway/pkg/platform/middleware/requestid"
)

// HealthChecker reports the liveness of one dependency.
type HealthChecker func(r *http.Request) error

// Deps carries everything the router mounts.
type Deps struct {
	Verification  *verificationhandler.Handler
	Challenge     *challengehandler.Handler
	RateLimit     *ratelimit.Middleware
	AuthValidator auth.TokenValidator
	Health        map[string]HealthChecker
	Logger        *slog.Logger
}

// NewRouter builds the gateway router. The callback path carries only the
// per-IP limiter; issuance additionally requires a session token for an
// account allowed to verify.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.RequestID)
	r.Use(metadata.ClientMetadata)

	r.Get("/health", handleHealth(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(d.RateLimit.LimitCallback)
		d.Verification.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.AuthValidator, d.Logger,
			string(claims.StatusGrace),
			string(claims.StatusVerified),
		))
		r.Use(d.RateLimit.LimitIssuance)
		d.Challenge.Register(r)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(r); err != nil {
				deps[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
