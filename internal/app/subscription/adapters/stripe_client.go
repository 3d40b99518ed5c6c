package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

// UserIDMetadataKey is the metadata key carrying the auth-provider uid on
// checkout sessions and subscriptions.
const UserIDMetadataKey = "firebaseUid"

var _ contracts.PaymentProcessor = (*StripeClient)(nil)

// StripeClient implements the payment processor interface using the Stripe API
type StripeClient struct {
	api *client.API
}

// NewStripeClient creates a Stripe client with its own backends, so no
// package-level Stripe state is touched. Retries are disabled: webhook
// processing is best effort and checkout callers retry themselves.
func NewStripeClient(secretKey string, timeout time.Duration, logger *slog.Logger) *StripeClient {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		LeveledLogger:     &stripeLogger{logger: logger.With("module", "stripe")},
		MaxNetworkRetries: stripe.Int64(0),
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}
	return &StripeClient{api: client.New(secretKey, backends)}
}

// GetSubscription fetches the full subscription object
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProcessorSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subscription %s: %w", subscriptionID, err)
	}
	out := subscriptionFromStripe(sub)
	return &out, nil
}

// CreateCheckoutSession creates a hosted checkout session in subscription mode
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{UserIDMetadataKey: req.UserID},
		},
	}
	params.Context = ctx
	params.AddMetadata(UserIDMetadataKey, req.UserID)

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// subscriptionFromStripe keeps the first item's price, as checkout sessions
// are created with a single line item.
func subscriptionFromStripe(sub *stripe.Subscription) domain.ProcessorSubscription {
	out := domain.ProcessorSubscription{
		ID:                sub.ID,
		UserID:            sub.Metadata[UserIDMetadataKey],
		Status:            domain.ParseStatus(string(sub.Status)),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodStart > 0 {
		out.CurrentPeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return out
}

// stripeLogger routes stripe-go's leveled logging into slog
type stripeLogger struct {
	logger *slog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *stripeLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
