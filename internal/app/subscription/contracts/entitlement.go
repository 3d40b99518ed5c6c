package contracts

import "context"

// EntitlementChecker answers whether a reader may see premium content
type EntitlementChecker interface {
	IsEntitled(ctx context.Context, userID string) (bool, error)
}
