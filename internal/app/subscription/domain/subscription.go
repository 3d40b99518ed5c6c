package domain

import (
	"fmt"
	"strings"
	"time"
)

// SubscriptionRecord is the aggregate root for a reader's paid entitlement.
// It is keyed by the auth-provider user id and never hard-deleted.
type SubscriptionRecord struct {
	userID             string
	customerID         string
	subscriptionID     string
	status             SubscriptionStatus
	tier               Tier
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	cancelAtPeriodEnd  bool
	lastEventID        string
	lastEventAt        time.Time
	updatedAt          time.Time
}

// RecordSnapshot is the flat persisted form of a SubscriptionRecord.
// An empty SubscriptionID stands for a cleared (null) subscription.
type RecordSnapshot struct {
	UserID             string
	CustomerID         string
	SubscriptionID     string
	Status             SubscriptionStatus
	Tier               Tier
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	LastEventID        string
	LastEventAt        time.Time
	UpdatedAt          time.Time
}

// NewRecordInput holds everything a fresh record is built from
type NewRecordInput struct {
	UserID         string
	CustomerID     string
	SubscriptionID string
	Subscription   ProcessorSubscription
	Tier           Tier
	Event          EventMeta
}

// NewSubscriptionRecord creates a record overwriting any previous state for the user
func NewSubscriptionRecord(in NewRecordInput, clock Clock) (*SubscriptionRecord, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidArgument)
	}

	subscriptionID := in.SubscriptionID
	if subscriptionID == "" {
		subscriptionID = in.Subscription.ID
	}
	customerID := in.CustomerID
	if customerID == "" {
		customerID = in.Subscription.CustomerID
	}

	r := &SubscriptionRecord{
		userID:         userID,
		customerID:     customerID,
		subscriptionID: subscriptionID,
	}
	r.ApplySubscription(in.Subscription, in.Tier, in.Event, clock)
	return r, nil
}

// ApplySubscription mirrors the processor's status, tier and billing period
func (r *SubscriptionRecord) ApplySubscription(sub ProcessorSubscription, tier Tier, event EventMeta, clock Clock) {
	r.status = sub.Status
	if r.status == "" {
		r.status = StatusUnknown
	}
	r.tier = tier
	if r.tier == "" {
		r.tier = TierUnknown
	}
	r.currentPeriodStart = sub.CurrentPeriodStart
	r.currentPeriodEnd = sub.CurrentPeriodEnd
	r.cancelAtPeriodEnd = sub.CancelAtPeriodEnd
	r.touch(event, clock)
}

// Cancel soft-deletes the subscription: the record stays, the entitlement goes
func (r *SubscriptionRecord) Cancel(event EventMeta, clock Clock) {
	r.status = StatusCanceled
	r.subscriptionID = ""
	r.cancelAtPeriodEnd = false
	r.touch(event, clock)
}

// IsStale reports whether event must not overwrite the state already held by
// the record
func (r *SubscriptionRecord) IsStale(event EventMeta) bool {
	incoming := Version{At: event.CreatedAt}
	if event.Type == EventSubscriptionDeleted {
		incoming.Status = StatusCanceled
	}
	return incoming.OlderThan(r.Version())
}

// Version returns the ordering key of the record's last applied event
func (r *SubscriptionRecord) Version() Version {
	return Version{At: r.lastEventAt, Status: r.status}
}

// IsEntitled reports whether the reader may see premium content
func (r *SubscriptionRecord) IsEntitled() bool {
	return r.status == StatusActive
}

func (r *SubscriptionRecord) touch(event EventMeta, clock Clock) {
	r.lastEventID = event.ID
	r.lastEventAt = event.CreatedAt.UTC()
	r.updatedAt = clock.Now()
}

// Snapshot returns the persisted form of the record
func (r *SubscriptionRecord) Snapshot() RecordSnapshot {
	return RecordSnapshot{
		UserID:             r.userID,
		CustomerID:         r.customerID,
		SubscriptionID:     r.subscriptionID,
		Status:             r.status,
		Tier:               r.tier,
		CurrentPeriodStart: r.currentPeriodStart,
		CurrentPeriodEnd:   r.currentPeriodEnd,
		CancelAtPeriodEnd:  r.cancelAtPeriodEnd,
		LastEventID:        r.lastEventID,
		LastEventAt:        r.lastEventAt,
		UpdatedAt:          r.updatedAt,
	}
}

// ReconstructFromPersistence recreates a record from storage
func ReconstructFromPersistence(s RecordSnapshot) *SubscriptionRecord {
	return &SubscriptionRecord{
		userID:             s.UserID,
		customerID:         s.CustomerID,
		subscriptionID:     s.SubscriptionID,
		status:             s.Status,
		tier:               s.Tier,
		currentPeriodStart: s.CurrentPeriodStart,
		currentPeriodEnd:   s.CurrentPeriodEnd,
		cancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		lastEventID:        s.LastEventID,
		lastEventAt:        s.LastEventAt,
		updatedAt:          s.UpdatedAt,
	}
}

// Getters (no setters!)
func (r *SubscriptionRecord) UserID() string {
	return r.userID
}

func (r *SubscriptionRecord) CustomerID() string {
	return r.customerID
}

func (r *SubscriptionRecord) SubscriptionID() string {
	return r.subscriptionID
}

func (r *SubscriptionRecord) Status() SubscriptionStatus {
	return r.status
}

func (r *SubscriptionRecord) Tier() Tier {
	return r.tier
}

func (r *SubscriptionRecord) CurrentPeriodStart() time.Time {
	return r.currentPeriodStart
}

func (r *SubscriptionRecord) CurrentPeriodEnd() time.Time {
	return r.currentPeriodEnd
}

func (r *SubscriptionRecord) CancelAtPeriodEnd() bool {
	return r.cancelAtPeriodEnd
}

func (r *SubscriptionRecord) LastEventID() string {
	return r.lastEventID
}

func (r *SubscriptionRecord) LastEventAt() time.Time {
	return r.lastEventAt
}

func (r *SubscriptionRecord) UpdatedAt() time.Time {
	return r.updatedAt
}
