package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wuyiadepoju/paywall/internal/app/content"
	"github.com/wuyiadepoju/paywall/internal/app/content/usecases/reveal_article"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/create_checkout"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/usecases/sync_payment_event"
)

// PaymentEventSyncer applies one signed webhook delivery
type PaymentEventSyncer interface {
	Execute(ctx context.Context, payload []byte, signature string) (*sync_payment_event.Result, error)
}

// CheckoutCreator starts a hosted checkout
type CheckoutCreator interface {
	Execute(ctx context.Context, req create_checkout.Request) (*domain.CheckoutSession, error)
}

// ArticleRevealer splits an article for one reader
type ArticleRevealer interface {
	Execute(ctx context.Context, userID string, blocks []content.Block) (*reveal_article.Result, error)
}

type Handler struct {
	webhook  PaymentEventSyncer
	checkout CheckoutCreator
	gate     contracts.EntitlementChecker
	reveal   ArticleRevealer
	logger   *slog.Logger
}

func NewHandler(
	webhook PaymentEventSyncer,
	checkout CheckoutCreator,
	gate contracts.EntitlementChecker,
	reveal ArticleRevealer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		webhook:  webhook,
		checkout: checkout,
		gate:     gate,
		reveal:   reveal,
		logger:   logger.With("module", "http"),
	}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/stripe-webhook", handler.handleStripeWebhook)
		r.Post("/create-checkout-session", handler.createCheckoutSession)
		r.Get("/subscription-status", handler.getSubscriptionStatus)
		r.Post("/articles/reveal", handler.revealArticle)
	})

	return r
}
