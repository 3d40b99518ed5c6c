package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

var _ contracts.EventDecoder = (*StripeEventDecoder)(nil)

// StripeEventDecoder verifies Stripe-Signature headers and validates event
// payloads at the trust boundary.
type StripeEventDecoder struct {
	validate  *validator.Validate
	tolerance time.Duration
}

// NewStripeEventDecoder creates a decoder accepting signatures up to
// webhook.DefaultTolerance old.
func NewStripeEventDecoder() *StripeEventDecoder {
	return &StripeEventDecoder{
		validate:  validator.New(),
		tolerance: webhook.DefaultTolerance,
	}
}

// checkoutPayload lists the correlation fields a completed checkout must carry
type checkoutPayload struct {
	SessionID      string `validate:"required"`
	UserID         string `validate:"required"`
	CustomerID     string `validate:"required"`
	SubscriptionID string `validate:"required"`
}

type subscriptionPayload struct {
	ID     string `validate:"required"`
	UserID string `validate:"required"`
}

// Verify checks the signature over the raw body. The body is only parsed
// after the signature matched.
func (d *StripeEventDecoder) Verify(payload []byte, signature, secret string) (domain.Envelope, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                d.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	env := domain.Envelope{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if event.Created > 0 {
		env.CreatedAt = time.Unix(event.Created, 0).UTC()
	}
	if event.Data != nil {
		env.Payload = event.Data.Raw
	}
	return env, nil
}

// Decode turns a verified envelope into one of the domain event variants
func (d *StripeEventDecoder) Decode(env domain.Envelope) (domain.PaymentEvent, error) {
	meta := domain.EventMeta{ID: env.ID, Type: env.Type, CreatedAt: env.CreatedAt}
	if strings.TrimSpace(env.ID) == "" {
		return nil, fmt.Errorf("%w: event id is missing", domain.ErrMalformedEvent)
	}

	switch env.Type {
	case domain.EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := d.unmarshal(env, &session); err != nil {
			return nil, err
		}
		p := checkoutPayload{
			SessionID: session.ID,
			UserID:    strings.TrimSpace(session.Metadata[UserIDMetadataKey]),
		}
		if session.Customer != nil {
			p.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			p.SubscriptionID = session.Subscription.ID
		}
		if err := d.check(env, p); err != nil {
			return nil, err
		}
		return domain.CheckoutCompleted{
			EventMeta:      meta,
			SessionID:      p.SessionID,
			UserID:         p.UserID,
			CustomerID:     p.CustomerID,
			SubscriptionID: p.SubscriptionID,
		}, nil

	case domain.EventSubscriptionUpdated, domain.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := d.unmarshal(env, &sub); err != nil {
			return nil, err
		}
		snapshot := subscriptionFromStripe(&sub)
		snapshot.UserID = strings.TrimSpace(snapshot.UserID)
		if err := d.check(env, subscriptionPayload{ID: snapshot.ID, UserID: snapshot.UserID}); err != nil {
			return nil, err
		}
		if env.Type == domain.EventSubscriptionDeleted {
			return domain.SubscriptionDeleted{EventMeta: meta, Subscription: snapshot}, nil
		}
		return domain.SubscriptionUpdated{EventMeta: meta, Subscription: snapshot}, nil

	default:
		return domain.UnrecognizedEvent{EventMeta: meta}, nil
	}
}

func (d *StripeEventDecoder) unmarshal(env domain.Envelope, target interface{}) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s has no data.object", domain.ErrMalformedEvent, env.Type)
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return fmt.Errorf("%w: %s payload: %v", domain.ErrMalformedEvent, env.Type, err)
	}
	return nil
}

func (d *StripeEventDecoder) check(env domain.Envelope, payload interface{}) error {
	err := d.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return fmt.Errorf("%w: %s missing %s", domain.ErrMalformedEvent, env.Type, strings.Join(missing, ", "))
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrMalformedEvent, env.Type, err)
}
