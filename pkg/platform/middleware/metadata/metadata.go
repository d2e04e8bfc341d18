package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"idv-gateway/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		ctx = requestcontext.WithUserAgent(ctx, r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest resolves the client IP, trusting X-Forwarded-For from
// the fronting proxy and falling back to the socket peer address.
func ClientIPFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeviceSummary renders a compact browser/OS description from a raw
// User-Agent string for audit events and issuance logs. Never returns the
// raw UA, which can be high-entropy.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	summary := name
	if version != "" {
		// Major version only.
		if i := strings.IndexByte(version, '.'); i > 0 {
			version = version[:i]
		}
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " / " + os
	}
	return summary
}
