package check_entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

var _ contracts.EntitlementChecker = (*Interactor)(nil)

// Interactor answers entitlement questions from the subscription store
type Interactor struct {
	store  contracts.SubscriptionStore
	logger *slog.Logger
}

// NewInteractor creates a new subscription gate
func NewInteractor(store contracts.SubscriptionStore, logger *slog.Logger) *Interactor {
	return &Interactor{
		store:  store,
		logger: logger.With("module", "check_entitlement"),
	}
}

// IsEntitled reports whether userID holds an active subscription. A store
// failure denies access and is only logged.
func (i *Interactor) IsEntitled(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, fmt.Errorf("%w: user id cannot be empty", domain.ErrInvalidArgument)
	}

	record, err := i.store.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		return false, nil
	case err != nil:
		i.logger.WarnContext(ctx, "entitlement lookup failed, denying access", "user_id", userID, "error", err)
		return false, nil
	}
	return record.IsEntitled(), nil
}
