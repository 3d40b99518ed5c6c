package contracts

import (
	"context"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

// PaymentProcessor defines the interface for payment processor interactions
type PaymentProcessor interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProcessorSubscription, error)
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

// EventDecoder authenticates webhook deliveries and turns them into typed events
type EventDecoder interface {
	Verify(payload []byte, signature, secret string) (domain.Envelope, error)
	Decode(envelope domain.Envelope) (domain.PaymentEvent, error)
}
