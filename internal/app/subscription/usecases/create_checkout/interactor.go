package create_checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

const (
	successPath = "/success?session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/cancel"
)

// Request contains the input for starting a hosted checkout
type Request struct {
	PriceID   string `validate:"required"`
	UserEmail string `validate:"required"`
	UserID    string `validate:"required"`
	// Origin is the caller's site origin, used when no site URL is configured
	Origin string
}

// Interactor handles the create checkout session use case
type Interactor struct {
	processor contracts.PaymentProcessor
	siteURL   string
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewInteractor creates a new create checkout interactor. siteURL, when set,
// takes precedence over the request origin for redirect URLs.
func NewInteractor(processor contracts.PaymentProcessor, siteURL string, logger *slog.Logger) *Interactor {
	return &Interactor{
		processor: processor,
		siteURL:   strings.TrimRight(strings.TrimSpace(siteURL), "/"),
		validate:  validator.New(),
		logger:    logger.With("module", "create_checkout"),
	}
}

// Execute creates a subscription-mode checkout session for one reader
func (i *Interactor) Execute(ctx context.Context, req Request) (*domain.CheckoutSession, error) {
	// 1. Validate input
	req.PriceID = strings.TrimSpace(req.PriceID)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := i.validate.Struct(req); err != nil {
		return nil, invalidRequest(err)
	}

	origin := i.siteURL
	if origin == "" {
		origin = strings.TrimRight(strings.TrimSpace(req.Origin), "/")
	}
	if origin == "" {
		return nil, fmt.Errorf("%w: site origin is unknown", domain.ErrInvalidArgument)
	}

	// 2. Create the hosted session
	session, err := i.processor.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		PriceID:       req.PriceID,
		CustomerEmail: req.UserEmail,
		UserID:        req.UserID,
		SuccessURL:    origin + successPath,
		CancelURL:     origin + cancelPath,
	})
	if err != nil {
		i.logger.ErrorContext(ctx, "checkout session creation failed", "user_id", req.UserID, "price_id", req.PriceID, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	i.logger.InfoContext(ctx, "checkout session created", "user_id", req.UserID, "price_id", req.PriceID, "session_id", session.ID)
	return session, nil
}

func invalidRequest(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: missing required fields: %s", domain.ErrInvalidArgument, strings.Join(missing, ", "))
}
