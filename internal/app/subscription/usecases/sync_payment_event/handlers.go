package sync_payment_event

import (
	"context"
	"errors"
	"fmt"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

// handleCheckoutCompleted creates the record, or overwrites it entirely
func (i *Interactor) handleCheckoutCompleted(ctx context.Context, e domain.CheckoutCompleted) (Outcome, error) {
	unlock := i.locks.Lock(e.UserID)
	defer unlock()

	// 1. Fetch the full subscription, bounded by the processor timeout
	fetchCtx, cancel := context.WithTimeout(ctx, i.cfg.RequestTimeout)
	sub, err := i.processor.GetSubscription(fetchCtx, e.SubscriptionID)
	cancel()
	if err != nil {
		return OutcomeFailed, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	// 2. Resolve tier and build the record
	tier := i.cfg.Prices.Resolve(sub.PriceID)
	record, err := domain.NewSubscriptionRecord(domain.NewRecordInput{
		UserID:         e.UserID,
		CustomerID:     e.CustomerID,
		SubscriptionID: e.SubscriptionID,
		Subscription:   *sub,
		Tier:           tier,
		Event:          e.EventMeta,
	}, i.clock)
	if err != nil {
		return OutcomeMalformed, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}

	// 3. Upsert
	if err := i.persist(ctx, record); err != nil {
		return OutcomeFailed, err
	}
	i.logger.InfoContext(ctx, "subscription created",
		"event_id", e.ID,
		"user_id", e.UserID,
		"customer_id", e.CustomerID,
		"status", record.Status(),
		"tier", tier,
	)
	return OutcomeApplied, nil
}

// handleSubscriptionUpdated mirrors the processor's view onto the record. A
// missing record is created so an update overtaking its checkout is kept.
func (i *Interactor) handleSubscriptionUpdated(ctx context.Context, e domain.SubscriptionUpdated) (Outcome, error) {
	userID := e.Subscription.UserID
	unlock := i.locks.Lock(userID)
	defer unlock()

	tier := i.cfg.Prices.Resolve(e.Subscription.PriceID)

	record, err := i.store.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		record, err = domain.NewSubscriptionRecord(domain.NewRecordInput{
			UserID:       userID,
			Subscription: e.Subscription,
			Tier:         tier,
			Event:        e.EventMeta,
		}, i.clock)
		if err != nil {
			return OutcomeMalformed, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
		}
	case err != nil:
		return OutcomeFailed, fmt.Errorf("%w: load subscription record: %w", domain.ErrUpstreamFailure, err)
	case record.IsStale(e.EventMeta):
		return OutcomeStale, domain.ErrStaleEvent
	default:
		record.ApplySubscription(e.Subscription, tier, e.EventMeta, i.clock)
	}

	if err := i.persist(ctx, record); err != nil {
		return OutcomeFailed, err
	}
	i.logger.InfoContext(ctx, "subscription updated",
		"event_id", e.ID,
		"user_id", userID,
		"status", record.Status(),
		"tier", tier,
		"cancel_at_period_end", record.CancelAtPeriodEnd(),
	)
	return OutcomeApplied, nil
}

// handleSubscriptionDeleted cancels an existing record. Without one there is
// nothing to cancel.
func (i *Interactor) handleSubscriptionDeleted(ctx context.Context, e domain.SubscriptionDeleted) (Outcome, error) {
	userID := e.Subscription.UserID
	unlock := i.locks.Lock(userID)
	defer unlock()

	record, err := i.store.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		i.logger.InfoContext(ctx, "no subscription record to cancel", "event_id", e.ID, "user_id", userID)
		return OutcomeNoop, nil
	case err != nil:
		return OutcomeFailed, fmt.Errorf("%w: load subscription record: %w", domain.ErrUpstreamFailure, err)
	case record.IsStale(e.EventMeta):
		return OutcomeStale, domain.ErrStaleEvent
	}

	record.Cancel(e.EventMeta, i.clock)
	if err := i.persist(ctx, record); err != nil {
		return OutcomeFailed, err
	}
	i.logger.InfoContext(ctx, "subscription canceled", "event_id", e.ID, "user_id", userID)
	return OutcomeApplied, nil
}

func (i *Interactor) persist(ctx context.Context, record *domain.SubscriptionRecord) error {
	err := i.store.Upsert(ctx, record)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrStaleEvent):
		return domain.ErrStaleEvent
	default:
		return fmt.Errorf("%w: upsert subscription record: %w", domain.ErrUpstreamFailure, err)
	}
}
