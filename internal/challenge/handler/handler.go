// Package handler exposes challenge issuance to authenticated accounts.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"idv-gateway/internal/audit"
	"idv-gateway/internal/challenge"
	"idv-gateway/internal/challenge/store"
	"idv-gateway/internal/provider"
	"idv-gateway/internal/verification/metrics"
	"idv-gateway/pkg/platform/httputil"
	"idv-gateway/pkg/platform/middleware/metadata"
	"idv-gateway/pkg/platform/secrets"
	"idv-gateway/pkg/requestcontext"
)

// challengeSecretBytes is the entropy of the issued secret before base64url
// encoding.
const challengeSecretBytes = 24

// SessionStarter opens a provider verification session for a fresh challenge.
type SessionStarter interface {
	StartSession(ctx context.Context, uid, challengeID, challengeSecret string, expiresAtMs int64) (*provider.Session, error)
}

// Handler wires challenge issuance to the challenge store and the provider.
type Handler struct {
	store     store.Store
	starter   SessionStarter
	publisher audit.Publisher
	metrics   *metrics.Metrics
	provider  string
	ttl       time.Duration
	logger    *slog.Logger
}

// New constructs an issuance handler with its dependencies.
func New(
	challengeStore store.Store,
	starter SessionStarter,
	publisher audit.Publisher,
	m *metrics.Metrics,
	providerName string,
	ttl time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		store:     challengeStore,
		starter:   starter,
		publisher: publisher,
		metrics:   m,
		provider:  providerName,
		ttl:       ttl,
		logger:    logger,
	}
}

// Register mounts the issuance endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/idv/challenge", h.HandleIssue)
}

type issueResponse struct {
	OK              bool   `json:"ok"`
	Provider        string `json:"provider"`
	ChallengeID     string `json:"challengeId"`
	Challenge       string `json:"challenge"`
	ExpiresAtMs     int64  `json:"expiresAtMs"`
	VerificationURL string `json:"verificationUrl,omitempty"`
	SessionID       string `json:"sessionId,omitempty"`
}

// HandleIssue handles POST /idv/challenge. The secret is returned to the
// caller exactly once; only its hash is stored.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	uid := requestcontext.UserID(ctx)
	if uid == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"ok":     false,
			"reason": "unauthorized",
		})
		return
	}

	secret, err := secrets.Generate(challengeSecretBytes)
	if err != nil {
		h.logger.ErrorContext(ctx, "challenge secret generation failed",
			"request_id", requestID,
			"error", err,
		)
		h.writeServerError(w)
		return
	}

	now := requestcontext.Now(ctx)
	ch := &challenge.Challenge{
		ID:            uuid.NewString(),
		UID:           uid,
		ChallengeHash: challenge.HashSecret(secret),
		ExpiresAtMs:   now.Add(h.ttl).UnixMilli(),
		Status:        challenge.StatusIssued,
		Provider:      h.provider,
		CreatedAt:     now,
	}
	if err := h.store.Create(ctx, ch); err != nil {
		h.logger.ErrorContext(ctx, "challenge creation failed",
			"request_id", requestID,
			"uid", uid,
			"error", err,
		)
		h.writeServerError(w)
		return
	}

	resp := issueResponse{
		OK:          true,
		Provider:    h.provider,
		ChallengeID: ch.ID,
		Challenge:   secret,
		ExpiresAtMs: ch.ExpiresAtMs,
	}

	// Session start is a convenience for the client; issuance stands on its
	// own when the provider is unreachable.
	session, err := h.starter.StartSession(ctx, uid, ch.ID, secret, ch.ExpiresAtMs)
	if err != nil {
		h.logger.WarnContext(ctx, "provider session start failed",
			"request_id", requestID,
			"challenge_id", ch.ID,
			"error", err,
		)
	} else if session != nil {
		resp.VerificationURL = session.VerificationURL
		resp.SessionID = session.SessionID
	}

	h.metrics.IncrementChallengeIssued()
	device := metadata.DeviceSummary(requestcontext.UserAgent(ctx))
	h.publisher.Publish(ctx, audit.Event{
		Type:        audit.EventChallengeIssued,
		UID:         uid,
		ChallengeID: ch.ID,
		Provider:    h.provider,
		RequestID:   requestID,
		Device:      device,
	})
	h.logger.InfoContext(ctx, "challenge issued",
		"request_id", requestID,
		"challenge_id", ch.ID,
		"uid", uid,
		"device", device,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServerError(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
		"ok":     false,
		"reason": "server_error",
	})
}
