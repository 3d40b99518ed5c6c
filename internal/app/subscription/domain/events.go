package domain

import (
	"encoding/json"
	"time"
)

// Processor event types the synchronizer acts on
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Envelope is a webhook delivery whose signature has been verified but whose
// payload has not been validated yet.
type Envelope struct {
	ID        string
	Type      string
	CreatedAt time.Time
	Payload   json.RawMessage
}

// EventMeta identifies a processor event. CreatedAt orders events for the
// same user and is stored on the record as its version.
type EventMeta struct {
	ID        string
	Type      string
	CreatedAt time.Time
}

func (m EventMeta) Meta() EventMeta {
	return m
}

// PaymentEvent is one of CheckoutCompleted, SubscriptionUpdated,
// SubscriptionDeleted or UnrecognizedEvent.
type PaymentEvent interface {
	Meta() EventMeta
	paymentEvent()
}

// CheckoutCompleted is emitted once a reader finished the hosted checkout
type CheckoutCompleted struct {
	EventMeta
	SessionID      string
	UserID         string
	CustomerID     string
	SubscriptionID string
}

// SubscriptionUpdated carries the processor's current view of a subscription
type SubscriptionUpdated struct {
	EventMeta
	Subscription ProcessorSubscription
}

// SubscriptionDeleted is emitted when the processor ends a subscription
type SubscriptionDeleted struct {
	EventMeta
	Subscription ProcessorSubscription
}

// UnrecognizedEvent is any verified event type the synchronizer ignores
type UnrecognizedEvent struct {
	EventMeta
}

func (CheckoutCompleted) paymentEvent()   {}
func (SubscriptionUpdated) paymentEvent() {}
func (SubscriptionDeleted) paymentEvent() {}
func (UnrecognizedEvent) paymentEvent()   {}

// ProcessorSubscription is the subset of a processor subscription object the
// paywall persists.
type ProcessorSubscription struct {
	ID                 string
	CustomerID         string
	UserID             string
	Status             SubscriptionStatus
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// CheckoutRequest describes a hosted checkout session to create
type CheckoutRequest struct {
	PriceID       string
	CustomerEmail string
	UserID        string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the processor's answer to a CheckoutRequest
type CheckoutSession struct {
	ID  string
	URL string
}
