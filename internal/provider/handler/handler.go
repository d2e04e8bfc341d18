package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idv-gateway/internal/provider"
	"idv-gateway/pkg/platform/httputil"
	"idv-gateway/pkg/platform/secrets"
	"idv-gateway/pkg/requestcontext"
)

// Handler wires the adapter service endpoints to the provider adapter.
type Handler struct {
	adapter    *provider.Adapter
	apiKey     string
	apiKeyHash string
	logger     *slog.Logger
}

// New constructs an adapter handler. apiKeyHash, when set, takes precedence
// over the plaintext key; the plaintext compare is the dev fallback.
func New(adapter *provider.Adapter, apiKey, apiKeyHash string, logger *slog.Logger) *Handler {
	return &Handler{
		adapter:    adapter,
		apiKey:     apiKey,
		apiKeyHash: apiKeyHash,
		logger:     logger,
	}
}

// Register mounts the adapter endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Group(func(r chi.Router) {
		r.Use(h.requireAPIKey)
		r.Post("/start", h.HandleStart)
		r.Post("/verify", h.HandleVerify)
	})
}

// requireAPIKey authenticates the shared service credential. A service with
// no credential configured refuses all calls rather than running open.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey == "" && h.apiKeyHash == "" {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "reason": "misconfigured_api_key"})
			return
		}
		provided := r.Header.Get(provider.APIKeyHeader)
		if provided == "" || !h.keyMatches(provided) {
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "reason": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) keyMatches(provided string) bool {
	if h.apiKeyHash != "" {
		return secrets.Verify(provided, h.apiKeyHash) == nil
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.apiKey)) == 1
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "route": "idv-adapter-health"})
}

type startRequest struct {
	UID         string `json:"uid"`
	ChallengeID string `json:"challengeId"`
	Challenge   string `json:"challenge"`
}

// HandleStart handles POST /start: build a verification session for one
// challenge.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "reason": "invalid_challenge"})
		return
	}

	session, err := h.adapter.StartSession(ctx, req.UID, req.ChallengeID, req.Challenge)
	if err != nil {
		if provider.ReasonOf(err) == provider.ReasonInvalidChallenge {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "reason": "invalid_challenge"})
			return
		}
		h.logger.ErrorContext(ctx, "session start failed", "request_id", requestID, "error", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "reason": "server_error"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"verificationUrl": session.VerificationURL,
		"sessionId":       session.SessionID,
	})
}

// HandleVerify handles POST /verify: validate a proof and surface the
// nullifier plus decoded challenge binding.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"verified": false, "reason": "invalid_payload"})
		return
	}
	payload := provider.ExtractPayload(body)

	claim, err := h.adapter.Verify(ctx, payload)
	if err != nil {
		reason := provider.ReasonOf(err)
		status := http.StatusBadRequest
		if reason == provider.ReasonUnavailable {
			status = http.StatusServiceUnavailable
			h.logger.WarnContext(ctx, "vendor verifier unavailable", "request_id", requestID, "error", err)
		}
		httputil.WriteJSON(w, status, map[string]any{"verified": false, "reason": string(reason)})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"verified":        true,
		"nullifier":       claim.Nullifier,
		"assuranceLevel":  claim.AssuranceLevel,
		"attestationType": claim.AttestationType,
		"challengeId":     claim.ChallengeID,
		"challenge":       claim.Challenge,
		"userDefinedData": claim.UserDefinedData,
	})
}
