package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wuyiadepoju/paywall/internal/app/content"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, content.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMissingSignature):
		return http.StatusBadRequest, "Missing stripe-signature header"
	case errors.Is(err, domain.ErrSignatureInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMisconfigured):
		return http.StatusInternalServerError, "Webhook secret not configured"
	case errors.Is(err, domain.ErrUpstreamFailure):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
