package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wuyiadepoju/paywall/internal/app/content"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/create_checkout"
)

const (
	maxWebhookBytes = 1 << 20
	maxRequestBytes = 4 << 20

	signatureHeader = "Stripe-Signature"
)

type checkoutSessionRequest struct {
	PriceID     string `json:"priceId"`
	UserEmail   string `json:"userEmail"`
	FirebaseUID string `json:"firebaseUid"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type revealRequest struct {
	Blocks []content.Block `json:"blocks"`
}

// handleStripeWebhook verifies and applies a Stripe event. Every verified
// delivery is acknowledged, whatever its processing outcome.
func (h *Handler) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.webhook.Execute(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		status, message := mapDomainError(err)
		writeError(w, status, message)
		return
	}

	h.logger.DebugContext(r.Context(), "webhook acknowledged",
		"event_id", result.EventID,
		"event_type", result.EventType,
		"outcome", result.Outcome,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := h.checkout.Execute(r.Context(), create_checkout.Request{
		PriceID:   req.PriceID,
		UserEmail: req.UserEmail,
		UserID:    req.FirebaseUID,
		Origin:    requestOrigin(r),
	})
	if err != nil {
		status, message := mapDomainError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, checkoutSessionResponse{SessionID: session.ID, URL: session.URL})
}

func (h *Handler) getSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromHeader(r.Header.Get("Authorization"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing Authorization header")
		return
	}

	entitled, err := h.gate.IsEntitled(r.Context(), userID)
	if err != nil {
		status, message := mapDomainError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"entitled": entitled})
}

func (h *Handler) revealArticle(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		if errors.Is(err, content.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.reveal.Execute(r.Context(), userIDFromHeader(r.Header.Get("Authorization")), req.Blocks)
	if err != nil {
		status, message := mapDomainError(err)
		writeError(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// userIDFromHeader reads the auth-provider uid, with or without a Bearer prefix
func userIDFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return header
}

func requestOrigin(r *http.Request) string {
	if r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}
