// Package handler exposes the provider proof callback endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idv-gateway/internal/provider"
	"idv-gateway/internal/verification/service"
	"idv-gateway/pkg/platform/httputil"
	"idv-gateway/pkg/requestcontext"
)

// Engine runs the verify-and-deduplicate pipeline for one callback.
type Engine interface {
	Process(ctx context.Context, payload provider.ProofPayload) service.Outcome
}

// Handler wires the proof callback endpoint to the verification engine.
type Handler struct {
	engine   Engine
	provider string
	logger   *slog.Logger
}

// New constructs a callback handler with its dependencies.
func New(engine Engine, providerName string, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		provider: providerName,
		logger:   logger,
	}
}

// Register mounts the callback endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/idv/relay", h.HandleCallback)
}

// callbackResponse is the fixed envelope every callback response uses,
// success or failure. Reason is null exactly when approved.
type callbackResponse struct {
	OK       bool    `json:"ok"`
	Approved bool    `json:"approved"`
	Reason   *string `json:"reason"`
	Provider string  `json:"provider"`
}

// HandleCallback handles POST /idv/relay, the server-to-server proof
// callback from the provider's infrastructure.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.InfoContext(ctx, "callback body is not valid JSON",
			"request_id", requestID,
			"error", err,
		)
		h.write(w, service.Outcome{
			Reason: string(provider.ReasonInvalidPayload),
			Status: http.StatusBadRequest,
		})
		return
	}

	payload := provider.ExtractPayload(body)
	outcome := h.engine.Process(ctx, payload)
	h.write(w, outcome)
}

func (h *Handler) write(w http.ResponseWriter, outcome service.Outcome) {
	resp := callbackResponse{
		OK:       outcome.Approved,
		Approved: outcome.Approved,
		Provider: h.provider,
	}
	if !outcome.Approved {
		reason := outcome.Reason
		resp.Reason = &reason
	}
	httputil.WriteJSON(w, outcome.Status, resp)
}
