package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"idv-gateway/internal/platform/config"
	"idv-gateway/pkg/platform/httputil"
	"idv-gateway/pkg/requestcontext"
)

// Middleware enforces per-IP and per-user request budgets on the gateway
// endpoints. Limiter errors fail open: a broken limiter must not take down
// the verification path.
type Middleware struct {
	limiter  Limiter
	cfg      config.RateLimit
	provider string
	logger   *slog.Logger
}

func NewMiddleware(limiter Limiter, cfg config.RateLimit, provider string, logger *slog.Logger) *Middleware {
	if cfg.Disabled {
		logger.Info("rate limiting disabled")
	}
	return &Middleware{
		limiter:  limiter,
		cfg:      cfg,
		provider: provider,
		logger:   logger,
	}
}

// LimitCallback limits the provider callback endpoint per client IP. The
// rejection body carries the callback envelope so relying clients can parse
// every response the same way.
func (m *Middleware) LimitCallback(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.Allow(ctx, "callback:ip:"+ip, m.cfg.CallbackPerMinIP, time.Minute)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "endpoint", "callback")
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"ok":       false,
				"approved": false,
				"reason":   "rate_limited",
				"provider": m.provider,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LimitIssuance limits challenge issuance per client IP and, more tightly,
// per authenticated user. The user budget is checked first so one account
// cannot spend the shared IP budget behind a NAT.
func (m *Middleware) LimitIssuance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.cfg.Disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		uid := requestcontext.UserID(ctx)

		if uid != "" {
			result, err := m.limiter.Allow(ctx, "issuance:uid:"+uid, m.cfg.IssuancePerMinUID, time.Minute)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "endpoint", "issuance", "user_id", uid)
			} else if !result.Allowed {
				writeIssuanceRateLimited(w, result)
				return
			}
		}

		result, err := m.limiter.Allow(ctx, "issuance:ip:"+ip, m.cfg.IssuancePerMinIP, time.Minute)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err, "endpoint", "issuance")
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			writeIssuanceRateLimited(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeIssuanceRateLimited(w http.ResponseWriter, result *Result) {
	addRateLimitHeaders(w, result)
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"ok":     false,
		"reason": "rate_limited",
	})
}
