package contracts

import (
	"context"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

// SubscriptionStore defines the interface for subscription record persistence.
// Upsert must reject a record whose Version is OlderThan the stored one with
// domain.ErrStaleEvent, atomically with the write.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*domain.SubscriptionRecord, error)
	Upsert(ctx context.Context, record *domain.SubscriptionRecord) error
}

// ProcessedEventLog remembers which processor event ids were already handled.
// Ids are recorded only after their event was applied, so an attempt that
// dies midway leaves nothing behind and the redelivery is processed.
type ProcessedEventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	// Record marks eventID as handled; recording an id twice is not an error
	Record(ctx context.Context, eventID string) error
}
